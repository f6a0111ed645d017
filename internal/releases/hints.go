// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"strconv"
	"strings"

	"github.com/moistari/rls"
)

// QualityHints runs a release label through the full rls grammar and returns
// display-oriented attributes for API consumers. These never feed scoring;
// Parse/Score stay on the fixed rule set above so rankings do not shift when
// rls is upgraded.
func QualityHints(label string) map[string]string {
	if strings.TrimSpace(label) == "" {
		return nil
	}

	r := rls.ParseString(label)
	hints := make(map[string]string)

	if r.Resolution != "" {
		hints["resolution"] = r.Resolution
	}
	if r.Source != "" {
		hints["source"] = r.Source
	}
	if len(r.Codec) > 0 {
		hints["codec"] = strings.Join(r.Codec, ",")
	}
	if r.Group != "" {
		hints["group"] = r.Group
	}
	if r.Year > 0 {
		hints["year"] = strconv.Itoa(r.Year)
	}
	if len(r.Audio) > 0 {
		hints["audio"] = strings.Join(r.Audio, ",")
	}

	if len(hints) == 0 {
		return nil
	}
	return hints
}
