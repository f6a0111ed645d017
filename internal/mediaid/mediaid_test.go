// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package mediaid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityKey(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		want     string
	}{
		{
			name:     "movie",
			identity: Identity{IMDbID: "tt0133093", Kind: KindMovie},
			want:     "movie:tt0133093",
		},
		{
			name:     "episode",
			identity: Identity{IMDbID: "tt0903747", Kind: KindEpisode, Season: 2, Episode: 13},
			want:     "episode:tt0903747:2:13",
		},
		{
			name:     "same imdb id different kind never collides",
			identity: Identity{IMDbID: "tt0133093", Kind: KindEpisode, Season: 1, Episode: 1},
			want:     "episode:tt0133093:1:1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.identity.Key())
		})
	}
}

func TestIdentityKeyIncludesAllDistinguishingFields(t *testing.T) {
	movie := Identity{IMDbID: "tt1", Kind: KindMovie}
	episode := Identity{IMDbID: "tt1", Kind: KindEpisode, Season: 1, Episode: 1}
	otherEpisode := Identity{IMDbID: "tt1", Kind: KindEpisode, Season: 1, Episode: 2}

	assert.NotEqual(t, movie.Key(), episode.Key())
	assert.NotEqual(t, episode.Key(), otherEpisode.Key())
}

func TestIdentityValidate(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		wantErr  bool
	}{
		{name: "valid movie", identity: Identity{IMDbID: "tt0133093", Kind: KindMovie}},
		{name: "valid episode", identity: Identity{IMDbID: "tt0903747", Kind: KindEpisode, Season: 1, Episode: 1}},
		{name: "missing tt prefix", identity: Identity{IMDbID: "0133093", Kind: KindMovie}, wantErr: true},
		{name: "non numeric suffix", identity: Identity{IMDbID: "ttabc", Kind: KindMovie}, wantErr: true},
		{name: "empty suffix", identity: Identity{IMDbID: "tt", Kind: KindMovie}, wantErr: true},
		{name: "episode without season", identity: Identity{IMDbID: "tt0903747", Kind: KindEpisode, Episode: 1}, wantErr: true},
		{name: "unknown kind", identity: Identity{IMDbID: "tt0133093", Kind: "series"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.identity.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseVideoID(t *testing.T) {
	t.Run("movie", func(t *testing.T) {
		id, err := ParseVideoID("tt0133093")
		require.NoError(t, err)
		assert.Equal(t, Identity{IMDbID: "tt0133093", Kind: KindMovie}, id)
	})

	t.Run("episode", func(t *testing.T) {
		id, err := ParseVideoID("tt0903747:2:13")
		require.NoError(t, err)
		assert.Equal(t, Identity{IMDbID: "tt0903747", Kind: KindEpisode, Season: 2, Episode: 13}, id)
	})

	t.Run("garbage season", func(t *testing.T) {
		_, err := ParseVideoID("tt0903747:two:13")
		assert.Error(t, err)
	})

	t.Run("wrong segment count", func(t *testing.T) {
		_, err := ParseVideoID("tt0903747:2")
		assert.Error(t, err)
	})
}
