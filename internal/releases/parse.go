// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package releases parses release names and scores subtitle candidates
// against a target video file name.
//
// The parser here is intentionally small and rule-based rather than a full
// release-name grammar: ranking must stay reproducible across versions, so
// the precedence lists below are fixed. Display-only enrichment goes through
// moistari/rls instead (see hints.go).
package releases

import (
	"regexp"
	"strings"
)

// Quality is a resolution tier recognized in a release name.
type Quality string

const (
	Quality2160p Quality = "2160p"
	Quality1080p Quality = "1080p"
	Quality720p  Quality = "720p"
	Quality480p  Quality = "480p"
	QualityHDTV  Quality = "HDTV"
)

// Source is the rip source recognized in a release name.
type Source string

const (
	SourceBluRay Source = "BluRay"
	SourceWEBRip Source = "WEBRip"
	SourceWEBDL  Source = "WEB-DL"
	SourceHDTV   Source = "HDTV"
	SourceDVDRip Source = "DVDRip"
)

// Codec is the video codec recognized in a release name.
type Codec string

const (
	CodecX265 Codec = "x265"
	CodecX264 Codec = "x264"
)

// ParsedRelease holds the structured tokens extracted from a release name.
// Fields the parser does not recognize stay at their zero value; nothing is
// ever guessed.
type ParsedRelease struct {
	Group   string
	Quality Quality
	Source  Source
	Codec   Codec
	Year    string

	// Tokens is the normalized token set used for fuzzy overlap scoring:
	// lowercased, separators collapsed, tokens of length <= 2 discarded.
	Tokens map[string]struct{}
}

var (
	yearRe      = regexp.MustCompile(`(?:^|[\s._\-\[\(])((?:19|20)\d{2})(?:[\s._\-\]\)]|$)`)
	separatorRe = regexp.MustCompile(`[\s._\-\[\]\(\)\+,]+`)
)

// videoExtensions are stripped from the tail of a name before group
// extraction so "-GROUP.mkv" yields "GROUP", not "GROUP.mkv".
var videoExtensions = map[string]struct{}{
	"mkv": {}, "mp4": {}, "avi": {}, "mov": {}, "wmv": {}, "m4v": {},
	"mpg": {}, "mpeg": {}, "ts": {}, "srt": {}, "sub": {}, "ass": {},
	"ssa": {}, "vtt": {},
}

// Parse extracts structured tokens from a free-text release or file name.
// It is deterministic: identical input always yields an identical result.
func Parse(name string) ParsedRelease {
	parsed := ParsedRelease{}
	if strings.TrimSpace(name) == "" {
		parsed.Tokens = map[string]struct{}{}
		return parsed
	}

	base := stripExtension(name)
	normalized := strings.ToLower(separatorRe.ReplaceAllString(base, " "))

	parsed.Group = extractGroup(base)
	parsed.Quality = detectQuality(normalized)
	parsed.Source = detectSource(normalized)
	parsed.Codec = detectCodec(normalized)
	parsed.Year = extractYear(base)
	parsed.Tokens = tokenize(normalized)

	return parsed
}

func stripExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return name
	}
	ext := strings.ToLower(name[idx+1:])
	if _, ok := videoExtensions[ext]; ok {
		return name[:idx]
	}
	return name
}

// extractGroup takes the token following the last hyphen. This is the same
// trailing-token heuristic the rest of the scoring pipeline was tuned
// against; names with multiple hyphens before the group or bracketed groups
// are knowingly not handled.
func extractGroup(base string) string {
	idx := strings.LastIndex(base, "-")
	if idx < 0 || idx == len(base)-1 {
		return ""
	}
	return strings.TrimSpace(base[idx+1:])
}

func detectQuality(normalized string) Quality {
	switch {
	case strings.Contains(normalized, "2160p"), strings.Contains(normalized, "4k"):
		return Quality2160p
	case strings.Contains(normalized, "1080p"):
		return Quality1080p
	case strings.Contains(normalized, "720p"):
		return Quality720p
	case strings.Contains(normalized, "480p"):
		return Quality480p
	case strings.Contains(normalized, "hdtv"):
		return QualityHDTV
	}
	return ""
}

func detectSource(normalized string) Source {
	switch {
	case containsAny(normalized, "bluray", "blu ray"):
		return SourceBluRay
	case containsAny(normalized, "webrip", "web rip"):
		return SourceWEBRip
	case containsAny(normalized, "webdl", "web dl"):
		return SourceWEBDL
	case strings.Contains(normalized, "hdtv"):
		return SourceHDTV
	case containsAny(normalized, "dvdrip", "dvd rip"):
		return SourceDVDRip
	}
	return ""
}

func detectCodec(normalized string) Codec {
	switch {
	case containsAny(normalized, "x265", "hevc"):
		return CodecX265
	case containsAny(normalized, "x264", "avc"):
		return CodecX264
	}
	return ""
}

func extractYear(base string) string {
	match := yearRe.FindStringSubmatch(base)
	if match == nil {
		return ""
	}
	return match[1]
}

func tokenize(normalized string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(normalized) {
		if len(tok) <= 2 {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
