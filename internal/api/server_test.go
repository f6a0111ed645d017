// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/subarr/internal/availability"
	"github.com/autobrr/subarr/internal/config"
	"github.com/autobrr/subarr/internal/mediaid"
	"github.com/autobrr/subarr/internal/providers"
	"github.com/autobrr/subarr/internal/resolve"
	"github.com/autobrr/subarr/internal/search"
)

type stubProvider struct {
	id         string
	caps       providers.Capabilities
	candidates []providers.Candidate
	link       string
	resolveErr error
}

func (s *stubProvider) ID() string { return s.id }

func (s *stubProvider) Capabilities() providers.Capabilities { return s.caps }

func (s *stubProvider) SearchByIdentity(ctx context.Context, identity mediaid.Identity) []providers.Candidate {
	return s.candidates
}

func (s *stubProvider) SearchByHash(ctx context.Context, hash string, size int64) []providers.Candidate {
	return nil
}

func (s *stubProvider) ResolveDownload(ctx context.Context, resourceID string) (string, error) {
	if s.resolveErr != nil {
		return "", s.resolveErr
	}
	return s.link, nil
}

func newTestServer(t *testing.T, provider providers.Provider) *Server {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("host = \"localhost\"\nport = 0\n"), 0o644))

	cfg, err := config.New(configPath)
	require.NoError(t, err)

	avail := availability.New(filepath.Join(t.TempDir(), "availability.json"), 7*24*time.Hour)
	tracker := providers.NewCooldownTracker(30 * time.Second)

	service, err := search.NewService(
		[]providers.Provider{provider},
		tracker,
		search.NewResultCache(time.Hour, nil),
		avail,
		search.Options{},
		nil,
	)
	require.NoError(t, err)

	return NewServer(&Dependencies{
		Config:            cfg,
		Version:           "test",
		SearchService:     service,
		Resolver:          resolve.NewResolver([]providers.Provider{provider}, time.Minute),
		AvailabilityCache: avail,
	})
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, &stubProvider{id: "opensubtitles"})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	provider := &stubProvider{
		id: "opensubtitles",
		candidates: []providers.Candidate{
			{ProviderID: "opensubtitles", ReleaseLabel: "Movie.2020.1080p.BluRay.x264-GROUP", DownloadLocator: "991", Popularity: 10},
		},
	}
	server := newTestServer(t, provider)

	body, err := json.Marshal(map[string]any{
		"videoId": "tt0133093",
		"target":  map[string]any{"filename": "Movie.2020.1080p.BluRay.x264-GROUP.mkv"},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count      int `json:"count"`
		Candidates []struct {
			MatchScore int  `json:"matchScore"`
			Scored     bool `json:"scored"`
		} `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, 90, resp.Candidates[0].MatchScore)
	assert.True(t, resp.Candidates[0].Scored)
}

func TestSearchEndpointRejectsBadVideoID(t *testing.T) {
	server := newTestServer(t, &stubProvider{id: "opensubtitles"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewReader([]byte(`{"videoId": "garbage"}`)))
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadEndpointRedirects(t *testing.T) {
	provider := &stubProvider{
		id:   "opensubtitles",
		caps: providers.Capabilities{ResolveDownload: true},
		link: "https://dl.example.com/991.srt",
	}
	server := newTestServer(t, provider)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/download/opensubtitles/991", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://dl.example.com/991.srt", rec.Header().Get("Location"))
}

func TestDownloadEndpointThrottled(t *testing.T) {
	provider := &stubProvider{
		id:         "opensubtitles",
		caps:       providers.Capabilities{ResolveDownload: true},
		resolveErr: &providers.ThrottledError{Provider: "opensubtitles", RetryAfter: 90 * time.Second},
	}
	server := newTestServer(t, provider)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/download/opensubtitles/991", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))
}

func TestAvailabilityEndpoint(t *testing.T) {
	provider := &stubProvider{
		id: "opensubtitles",
		candidates: []providers.Candidate{
			{ProviderID: "opensubtitles", ReleaseLabel: "Movie-GRP", DownloadLocator: "1"},
		},
	}
	server := newTestServer(t, provider)
	handler := server.Handler()

	// Unknown before any search.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/availability/tt0133093", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Known     bool `json:"known"`
		Available bool `json:"available"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Known)

	// A search populates the availability summary.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewReader([]byte(`{"videoId": "tt0133093"}`))))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/availability/tt0133093", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Known)
	assert.True(t, resp.Available)
}

func TestCacheStatsEndpoint(t *testing.T) {
	server := newTestServer(t, &stubProvider{id: "opensubtitles"})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "searchCache")
}
