// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/subarr/internal/buildinfo"
	"github.com/autobrr/subarr/internal/mediaid"
	"github.com/autobrr/subarr/internal/releases"
)

const (
	OpenSubtitlesID      = "opensubtitles"
	openSubtitlesBaseURL = "https://api.opensubtitles.com/api/v1"
)

// OpenSubtitles is the full-capability provider: identity search, content
// hash search, and a second round-trip to mint download links.
type OpenSubtitles struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cooldowns  *CooldownTracker
}

func NewOpenSubtitles(baseURL, apiKey string, timeout time.Duration, cooldowns *CooldownTracker) *OpenSubtitles {
	if baseURL == "" {
		baseURL = openSubtitlesBaseURL
	}
	return &OpenSubtitles{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		cooldowns:  cooldowns,
	}
}

func (p *OpenSubtitles) ID() string {
	return OpenSubtitlesID
}

func (p *OpenSubtitles) Capabilities() Capabilities {
	return Capabilities{SearchByHash: true, ResolveDownload: true}
}

type openSubtitlesFile struct {
	FileID   int64  `json:"file_id"`
	FileName string `json:"file_name"`
}

type openSubtitlesEntry struct {
	ID         string `json:"id"`
	Attributes struct {
		Release         string              `json:"release"`
		HearingImpaired bool                `json:"hearing_impaired"`
		DownloadCount   float64             `json:"download_count"`
		MovieHashMatch  bool                `json:"moviehash_match"`
		Files           []openSubtitlesFile `json:"files"`
	} `json:"attributes"`
}

type openSubtitlesSearchResponse struct {
	Data []openSubtitlesEntry `json:"data"`
}

func (p *OpenSubtitles) SearchByIdentity(ctx context.Context, identity mediaid.Identity) []Candidate {
	params := url.Values{}
	if identity.Kind == mediaid.KindEpisode {
		params.Set("parent_imdb_id", strings.TrimPrefix(identity.IMDbID, "tt"))
		params.Set("season_number", strconv.Itoa(identity.Season))
		params.Set("episode_number", strconv.Itoa(identity.Episode))
	} else {
		params.Set("imdb_id", strings.TrimPrefix(identity.IMDbID, "tt"))
	}

	return p.search(ctx, params, false)
}

func (p *OpenSubtitles) SearchByHash(ctx context.Context, hash string, size int64) []Candidate {
	params := url.Values{}
	params.Set("moviehash", hash)

	// Hash lookups are exact by definition, independent of what the entry
	// metadata claims.
	return p.search(ctx, params, true)
}

func (p *OpenSubtitles) search(ctx context.Context, params url.Values, exactHashMatch bool) []Candidate {
	if !p.cooldowns.Eligible(p.ID()) {
		log.Debug().Str("provider", p.ID()).Msg("skipping search, provider in cooldown")
		return nil
	}

	endpoint := fmt.Sprintf("%s/subtitles?%s", p.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Error().Err(err).Str("provider", p.ID()).Msg("failed to create search request")
		return nil
	}
	p.setHeaders(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("provider", p.ID()).Msg("search request failed")
		return nil
	}
	defer resp.Body.Close()

	if isThrottled(resp) {
		until := p.cooldowns.MarkThrottled(p.ID(), parseRetryAfter(resp))
		log.Warn().Str("provider", p.ID()).Time("cooldownUntil", until).Msg("provider throttled search")
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		log.Warn().Str("provider", p.ID()).Int("status", resp.StatusCode).Msg("search returned unexpected status")
		return nil
	}

	var payload openSubtitlesSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Warn().Err(err).Str("provider", p.ID()).Msg("failed to decode search response")
		return nil
	}

	candidates := make([]Candidate, 0, len(payload.Data))
	for _, entry := range payload.Data {
		if len(entry.Attributes.Files) == 0 {
			continue
		}

		label := entry.Attributes.Release
		if label == "" {
			label = entry.Attributes.Files[0].FileName
		}

		candidates = append(candidates, Candidate{
			ProviderID:      p.ID(),
			ReleaseLabel:    label,
			DownloadLocator: strconv.FormatInt(entry.Attributes.Files[0].FileID, 10),
			QualityHints:    releases.QualityHints(label),
			HearingImpaired: entry.Attributes.HearingImpaired,
			Popularity:      entry.Attributes.DownloadCount,
			ExactHashMatch:  exactHashMatch,
		})
	}

	return candidates
}

type openSubtitlesDownloadResponse struct {
	Link string `json:"link"`
}

// ResolveDownload exchanges a file id from search results for a temporary
// download link.
func (p *OpenSubtitles) ResolveDownload(ctx context.Context, resourceID string) (string, error) {
	if !p.cooldowns.Eligible(p.ID()) {
		return "", &ThrottledError{Provider: p.ID(), RetryAfter: p.cooldowns.RetryAfter(p.ID())}
	}

	body, err := json.Marshal(map[string]string{"file_id": resourceID})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/download", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	p.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if isThrottled(resp) {
		until := p.cooldowns.MarkThrottled(p.ID(), parseRetryAfter(resp))
		log.Warn().Str("provider", p.ID()).Time("cooldownUntil", until).Msg("provider throttled download resolution")
		return "", &ThrottledError{Provider: p.ID(), RetryAfter: p.cooldowns.RetryAfter(p.ID())}
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("download resolution returned status %d", resp.StatusCode)
	}

	var payload openSubtitlesDownloadResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode download response: %w", err)
	}
	if payload.Link == "" {
		return "", fmt.Errorf("download response missing link")
	}

	return payload.Link, nil
}

func (p *OpenSubtitles) setHeaders(req *http.Request) {
	req.Header.Set("Api-Key", p.apiKey)
	req.Header.Set("User-Agent", buildinfo.UserAgent)
	req.Header.Set("Accept", "application/json")
}
