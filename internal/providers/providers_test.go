// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/subarr/internal/mediaid"
)

func mustIdentity(t *testing.T, videoID string) mediaid.Identity {
	t.Helper()

	identity, err := mediaid.ParseVideoID(videoID)
	require.NoError(t, err)
	return identity
}

func TestPodnapisiSearchByIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subtitles/search/advanced", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "keywords=tt0133093")
		assert.Contains(t, r.URL.RawQuery, "movie_type=movie")

		_, _ = w.Write([]byte(`{
			"data": [
				{
					"id": "xYz1",
					"custom_releases": ["Movie.2020.720p.WEBRip-TEAM"],
					"download": "",
					"stats": {"downloads": 150},
					"flags": ["hearing_impaired"]
				}
			]
		}`))
	}))
	defer server.Close()

	provider := NewPodnapisi(server.URL, 5*time.Second, NewCooldownTracker(30*time.Second))

	candidates := provider.SearchByIdentity(context.Background(), mustIdentity(t, "tt0133093"))

	require.Len(t, candidates, 1)
	got := candidates[0]
	assert.Equal(t, PodnapisiID, got.ProviderID)
	assert.Equal(t, "Movie.2020.720p.WEBRip-TEAM", got.ReleaseLabel)
	assert.Equal(t, server.URL+"/subtitles/xYz1/download", got.DownloadLocator)
	assert.True(t, got.HearingImpaired)
	assert.Equal(t, float64(150), got.Popularity)
	assert.False(t, got.ExactHashMatch)
}

func TestPodnapisiUnsupportedCapabilities(t *testing.T) {
	provider := NewPodnapisi("", 5*time.Second, NewCooldownTracker(30*time.Second))

	assert.Equal(t, Capabilities{}, provider.Capabilities())
	assert.Nil(t, provider.SearchByHash(context.Background(), "abc", 1))

	_, err := provider.ResolveDownload(context.Background(), "xYz1")
	assert.ErrorIs(t, err, ErrResolveUnsupported)
}

func TestSubDLSearchByIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "api_key=secret")
		assert.Contains(t, r.URL.RawQuery, "imdb_id=tt0903747")
		assert.Contains(t, r.URL.RawQuery, "type=tv")
		assert.Contains(t, r.URL.RawQuery, "season_number=2")

		_, _ = w.Write([]byte(`{
			"status": true,
			"subtitles": [
				{"release_name": "Show.S02E13.1080p.WEB-DL-TEAM", "url": "/subtitle/abc123.zip", "hi": false, "download_count": 75},
				{"release_name": "broken entry without url", "url": ""}
			]
		}`))
	}))
	defer server.Close()

	provider := NewSubDL(server.URL, "secret", 5*time.Second, NewCooldownTracker(30*time.Second))

	candidates := provider.SearchByIdentity(context.Background(), mustIdentity(t, "tt0903747:2:13"))

	require.Len(t, candidates, 1)
	got := candidates[0]
	assert.Equal(t, SubDLID, got.ProviderID)
	assert.Equal(t, "Show.S02E13.1080p.WEB-DL-TEAM", got.ReleaseLabel)
	assert.Equal(t, "https://dl.subdl.com/subtitle/abc123.zip", got.DownloadLocator)
	assert.Equal(t, float64(75), got.Popularity)
}

func TestSubDLFailureStatusYieldsNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": false, "subtitles": []}`))
	}))
	defer server.Close()

	provider := NewSubDL(server.URL, "secret", 5*time.Second, NewCooldownTracker(30*time.Second))

	assert.Empty(t, provider.SearchByIdentity(context.Background(), mustIdentity(t, "tt0133093")))
}

func TestParseRetryAfter(t *testing.T) {
	t.Run("delay seconds", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{"Retry-After": []string{"90"}}}
		assert.Equal(t, 90*time.Second, parseRetryAfter(resp))
	})

	t.Run("missing header", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{}}
		assert.Zero(t, parseRetryAfter(resp))
	})

	t.Run("http date in the future", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{
			"Retry-After": []string{time.Now().Add(2 * time.Minute).UTC().Format(http.TimeFormat)},
		}}
		got := parseRetryAfter(resp)
		assert.Greater(t, got, time.Minute)
	})

	t.Run("garbage", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{"Retry-After": []string{"soon"}}}
		assert.Zero(t, parseRetryAfter(resp))
	})
}
