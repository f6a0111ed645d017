// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package providers

import (
	"net/http"
	"strconv"
	"time"
)

// parseRetryAfter extracts the server-suggested wait from a throttling
// response. It understands both delay-seconds and HTTP-date forms and
// returns zero when the header is absent or unparseable, which callers map
// to the configured default cooldown.
func parseRetryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}

	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}

	if at, err := http.ParseTime(raw); err == nil {
		delay := time.Until(at)
		if delay <= 0 {
			return 0
		}
		return delay
	}

	return 0
}

func isThrottled(resp *http.Response) bool {
	return resp.StatusCode == http.StatusTooManyRequests
}
