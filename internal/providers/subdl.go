// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package providers

import (
	"context"
	"encoding/json"
	"fmt"
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
	SubDLID           = "subdl"
	subDLBaseURL      = "https://api.subdl.com/api/v1"
	subDLDownloadBase = "https://dl.subdl.com"
)

// SubDL supports identity search only. The API returns relative download
// paths that become directly retrievable once joined with the download
// host, so no resolution round-trip is needed.
type SubDL struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cooldowns  *CooldownTracker
}

func NewSubDL(baseURL, apiKey string, timeout time.Duration, cooldowns *CooldownTracker) *SubDL {
	if baseURL == "" {
		baseURL = subDLBaseURL
	}
	return &SubDL{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		cooldowns:  cooldowns,
	}
}

func (p *SubDL) ID() string {
	return SubDLID
}

func (p *SubDL) Capabilities() Capabilities {
	return Capabilities{}
}

type subDLEntry struct {
	ReleaseName   string  `json:"release_name"`
	Name          string  `json:"name"`
	URL           string  `json:"url"`
	HI            bool    `json:"hi"`
	DownloadCount float64 `json:"download_count"`
}

type subDLSearchResponse struct {
	Status    bool         `json:"status"`
	Subtitles []subDLEntry `json:"subtitles"`
}

func (p *SubDL) SearchByIdentity(ctx context.Context, identity mediaid.Identity) []Candidate {
	if !p.cooldowns.Eligible(p.ID()) {
		log.Debug().Str("provider", p.ID()).Msg("skipping search, provider in cooldown")
		return nil
	}

	params := url.Values{}
	params.Set("api_key", p.apiKey)
	params.Set("imdb_id", identity.IMDbID)
	if identity.Kind == mediaid.KindEpisode {
		params.Set("type", "tv")
		params.Set("season_number", strconv.Itoa(identity.Season))
		params.Set("episode_number", strconv.Itoa(identity.Episode))
	} else {
		params.Set("type", "movie")
	}

	endpoint := fmt.Sprintf("%s/subtitles?%s", p.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Error().Err(err).Str("provider", p.ID()).Msg("failed to create search request")
		return nil
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent)
	req.Header.Set("Accept", "application/json")

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

	var payload subDLSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Warn().Err(err).Str("provider", p.ID()).Msg("failed to decode search response")
		return nil
	}
	if !payload.Status {
		log.Warn().Str("provider", p.ID()).Msg("search response reported failure status")
		return nil
	}

	candidates := make([]Candidate, 0, len(payload.Subtitles))
	for _, entry := range payload.Subtitles {
		if entry.URL == "" {
			continue
		}

		label := entry.ReleaseName
		if label == "" {
			label = entry.Name
		}

		locator := entry.URL
		if !strings.HasPrefix(locator, "http") {
			locator = subDLDownloadBase + "/" + strings.TrimLeft(locator, "/")
		}

		candidates = append(candidates, Candidate{
			ProviderID:      p.ID(),
			ReleaseLabel:    label,
			DownloadLocator: locator,
			QualityHints:    releases.QualityHints(label),
			HearingImpaired: entry.HI,
			Popularity:      entry.DownloadCount,
		})
	}

	return candidates
}

func (p *SubDL) SearchByHash(ctx context.Context, hash string, size int64) []Candidate {
	return nil
}

func (p *SubDL) ResolveDownload(ctx context.Context, resourceID string) (string, error) {
	return "", ErrResolveUnsupported
}
