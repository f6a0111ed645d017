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
	PodnapisiID      = "podnapisi"
	podnapisiBaseURL = "https://www.podnapisi.net"
)

// Podnapisi supports identity search only. Search results carry a directly
// retrievable download URL, so there is no resolution round-trip and no
// hash lookup.
type Podnapisi struct {
	baseURL    string
	httpClient *http.Client
	cooldowns  *CooldownTracker
}

func NewPodnapisi(baseURL string, timeout time.Duration, cooldowns *CooldownTracker) *Podnapisi {
	if baseURL == "" {
		baseURL = podnapisiBaseURL
	}
	return &Podnapisi{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cooldowns:  cooldowns,
	}
}

func (p *Podnapisi) ID() string {
	return PodnapisiID
}

func (p *Podnapisi) Capabilities() Capabilities {
	return Capabilities{}
}

type podnapisiEntry struct {
	ID       string   `json:"id"`
	Releases []string `json:"custom_releases"`
	Download string   `json:"download"`
	Stats    struct {
		Downloads float64 `json:"downloads"`
	} `json:"stats"`
	Flags []string `json:"flags"`
}

type podnapisiSearchResponse struct {
	Data []podnapisiEntry `json:"data"`
}

func (p *Podnapisi) SearchByIdentity(ctx context.Context, identity mediaid.Identity) []Candidate {
	if !p.cooldowns.Eligible(p.ID()) {
		log.Debug().Str("provider", p.ID()).Msg("skipping search, provider in cooldown")
		return nil
	}

	params := url.Values{}
	params.Set("keywords", identity.IMDbID)
	if identity.Kind == mediaid.KindEpisode {
		params.Set("seasons", strconv.Itoa(identity.Season))
		params.Set("episodes", strconv.Itoa(identity.Episode))
		params.Set("movie_type", "tv-series")
	} else {
		params.Set("movie_type", "movie")
	}

	endpoint := fmt.Sprintf("%s/subtitles/search/advanced?%s", p.baseURL, params.Encode())

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

	var payload podnapisiSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Warn().Err(err).Str("provider", p.ID()).Msg("failed to decode search response")
		return nil
	}

	candidates := make([]Candidate, 0, len(payload.Data))
	for _, entry := range payload.Data {
		label := entry.ID
		if len(entry.Releases) > 0 {
			label = entry.Releases[0]
		}

		locator := entry.Download
		if locator == "" {
			locator = fmt.Sprintf("%s/subtitles/%s/download", p.baseURL, entry.ID)
		}

		candidates = append(candidates, Candidate{
			ProviderID:      p.ID(),
			ReleaseLabel:    label,
			DownloadLocator: locator,
			QualityHints:    releases.QualityHints(label),
			HearingImpaired: hasFlag(entry.Flags, "hearing_impaired"),
			Popularity:      entry.Stats.Downloads,
		})
	}

	return candidates
}

func (p *Podnapisi) SearchByHash(ctx context.Context, hash string, size int64) []Candidate {
	return nil
}

func (p *Podnapisi) ResolveDownload(ctx context.Context, resourceID string) (string, error) {
	return "", ErrResolveUnsupported
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
