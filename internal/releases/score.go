// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import "strings"

// Score weights. A verified hash match outranks any combination of
// name-derived signals, which top out at 90.
const (
	HashMatchScore = 100

	groupWeight   = 40
	qualityWeight = 20
	sourceWeight  = 15
	codecWeight   = 10
	maxTokenBonus = 5
)

// Score compares a candidate release name against the target video file
// name and returns a relevance score in [0, 100]. A candidate verified by
// file hash scores HashMatchScore regardless of its name.
//
// Unrecognized attributes never count: both sides must have extracted the
// attribute and agree for its weight to apply.
func Score(candidate, target ParsedRelease, exactHashMatch bool) int {
	if exactHashMatch {
		return HashMatchScore
	}

	score := 0

	if candidate.Group != "" && target.Group != "" && strings.EqualFold(candidate.Group, target.Group) {
		score += groupWeight
	}
	if candidate.Quality != "" && candidate.Quality == target.Quality {
		score += qualityWeight
	}
	if candidate.Source != "" && candidate.Source == target.Source {
		score += sourceWeight
	}
	if candidate.Codec != "" && candidate.Codec == target.Codec {
		score += codecWeight
	}

	common := 0
	for tok := range candidate.Tokens {
		if _, ok := target.Tokens[tok]; ok {
			common++
		}
	}
	if common > maxTokenBonus {
		common = maxTokenBonus
	}
	score += common

	return score
}
