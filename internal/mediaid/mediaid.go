// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package mediaid identifies the piece of media a subtitle search is for.
package mediaid

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind distinguishes a standalone feature from an episode of a series.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "episode"
)

// Identity is the tuple identifying a piece of media. It is the cache and
// query key for the search and availability layers. Equality is structural;
// Season and Episode are only meaningful for KindEpisode.
type Identity struct {
	IMDbID  string `json:"imdbId"`
	Kind    Kind   `json:"kind"`
	Season  int    `json:"season,omitempty"`
	Episode int    `json:"episode,omitempty"`
}

// Key returns the deterministic cache key for this identity. Every
// distinguishing field participates so that a movie and an episode sharing
// an IMDb id never collide.
func (i Identity) Key() string {
	if i.Kind == KindEpisode {
		return fmt.Sprintf("%s:%s:%d:%d", i.Kind, i.IMDbID, i.Season, i.Episode)
	}
	return fmt.Sprintf("%s:%s", i.Kind, i.IMDbID)
}

func (i Identity) String() string {
	return i.Key()
}

// Validate checks the identity is well-formed: a "tt"-prefixed numeric IMDb
// id, a known kind, and positive season/episode numbers for episodes.
func (i Identity) Validate() error {
	if !validIMDbID(i.IMDbID) {
		return fmt.Errorf("invalid imdb id %q", i.IMDbID)
	}

	switch i.Kind {
	case KindMovie:
		return nil
	case KindEpisode:
		if i.Season <= 0 || i.Episode <= 0 {
			return fmt.Errorf("episode identity requires positive season and episode, got S%dE%d", i.Season, i.Episode)
		}
		return nil
	default:
		return fmt.Errorf("unknown media kind %q", i.Kind)
	}
}

func validIMDbID(id string) bool {
	if !strings.HasPrefix(id, "tt") {
		return false
	}
	digits := id[2:]
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseVideoID parses a stremio-style video id of the form "tt1234567" or
// "tt1234567:1:2" into an Identity.
func ParseVideoID(raw string) (Identity, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")

	switch len(parts) {
	case 1:
		id := Identity{IMDbID: parts[0], Kind: KindMovie}
		return id, id.Validate()
	case 3:
		season, err := strconv.Atoi(parts[1])
		if err != nil {
			return Identity{}, fmt.Errorf("invalid season in video id %q", raw)
		}
		episode, err := strconv.Atoi(parts[2])
		if err != nil {
			return Identity{}, fmt.Errorf("invalid episode in video id %q", raw)
		}
		id := Identity{IMDbID: parts[0], Kind: KindEpisode, Season: season, Episode: episode}
		return id, id.Validate()
	default:
		return Identity{}, fmt.Errorf("invalid video id %q", raw)
	}
}
