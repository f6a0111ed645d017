// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ParsedRelease
	}{
		{
			name:  "scene movie name",
			input: "Movie.2020.1080p.BluRay.x264-GROUP.mkv",
			want: ParsedRelease{
				Group:   "GROUP",
				Quality: Quality1080p,
				Source:  SourceBluRay,
				Codec:   CodecX264,
				Year:    "2020",
				Tokens:  tokenSet("movie", "2020", "1080p", "bluray", "x264", "group"),
			},
		},
		{
			name:  "web release with hevc alias",
			input: "Show.S01E02.2160p.WEB-DL.HEVC-team",
			want: ParsedRelease{
				Group:   "team",
				Quality: Quality2160p,
				Source:  SourceWEBDL,
				Codec:   CodecX265,
				Tokens:  tokenSet("show", "s01e02", "2160p", "web", "hevc", "team"),
			},
		},
		{
			name:  "hdtv fallback quality",
			input: "Show.S03E07.HDTV.x264-LOL",
			want: ParsedRelease{
				Group:   "LOL",
				Quality: QualityHDTV,
				Source:  SourceHDTV,
				Codec:   CodecX264,
				Tokens:  tokenSet("show", "s03e07", "hdtv", "x264", "lol"),
			},
		},
		{
			name:  "4k alias maps to 2160p",
			input: "Movie 2019 4K WEBRip x265-GRP.mp4",
			want: ParsedRelease{
				Group:   "GRP",
				Quality: Quality2160p,
				Source:  SourceWEBRip,
				Codec:   CodecX265,
				Year:    "2019",
				Tokens:  tokenSet("movie", "2019", "webrip", "x265", "grp"),
			},
		},
		{
			name:  "bluray beats webrip in precedence",
			input: "Movie.1080p.BluRay.WEBRip.x264-A",
			want: ParsedRelease{
				Group:   "A",
				Quality: Quality1080p,
				Source:  SourceBluRay,
				Codec:   CodecX264,
				Tokens:  tokenSet("movie", "1080p", "bluray", "webrip", "x264"),
			},
		},
		{
			name:  "no recognizable attributes",
			input: "some random file",
			want: ParsedRelease{
				Tokens: tokenSet("some", "random", "file"),
			},
		},
		{
			name:  "empty input",
			input: "",
			want:  ParsedRelease{Tokens: tokenSet()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input))
		})
	}
}

func TestParseYearBounds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bracketed year", input: "Movie [2010] 720p", want: "2010"},
		{name: "year at end", input: "Movie.1999", want: "1999"},
		{name: "out of range ignored", input: "Movie.2150.720p", want: ""},
		{name: "embedded digits ignored", input: "Movie20201080p", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input).Year)
		})
	}
}

func TestParseGroupHeuristic(t *testing.T) {
	t.Run("extension stripped before group", func(t *testing.T) {
		assert.Equal(t, "GROUP", Parse("Movie.1080p-GROUP.mkv").Group)
	})

	t.Run("no hyphen means no group", func(t *testing.T) {
		assert.Empty(t, Parse("Movie.1080p.BluRay.x264").Group)
	})

	t.Run("trailing hyphen means no group", func(t *testing.T) {
		assert.Empty(t, Parse("Movie.1080p-").Group)
	})
}

func TestParseIsDeterministic(t *testing.T) {
	input := "Movie.2020.1080p.BluRay.x264-GROUP.mkv"
	assert.Equal(t, Parse(input), Parse(input))
}

func tokenSet(tokens ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}
