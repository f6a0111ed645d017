// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package providers defines the subtitle provider abstraction and the
// adapters for the supported upstream services.
//
// Adapters are failure-isolated by contract: a search call that hits a
// throttling response marks the cooldown tracker and comes back empty, and
// any other upstream problem is logged locally and also reduces to an empty
// result. Search errors never cross the adapter boundary; only download
// resolution propagates errors to its caller.
package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/autobrr/subarr/internal/mediaid"
)

// Capabilities is the explicit feature set of a provider variant. The
// orchestrator consults it instead of probing for behavior at runtime.
type Capabilities struct {
	// SearchByHash reports whether the provider can look up subtitles by
	// the content hash of the video file.
	SearchByHash bool

	// ResolveDownload reports whether the provider's search results are
	// indirections that need a second round-trip to mint a retrievable
	// link. Providers returning directly usable locators leave this false.
	ResolveDownload bool
}

// Candidate is one provider's proposed subtitle match for a content
// identity. It is immutable once produced by an adapter; ranking wraps it
// rather than mutating it.
type Candidate struct {
	ProviderID      string            `json:"providerId"`
	ReleaseLabel    string            `json:"releaseLabel"`
	DownloadLocator string            `json:"downloadLocator"`
	QualityHints    map[string]string `json:"qualityHints,omitempty"`
	HearingImpaired bool              `json:"hearingImpaired"`
	Popularity      float64           `json:"popularity"`
	ExactHashMatch  bool              `json:"exactHashMatch"`
}

// Provider is implemented by every upstream subtitle service adapter.
//
// SearchByIdentity is mandatory. SearchByHash and ResolveDownload are only
// called when the corresponding capability is advertised; calling them on a
// provider without the capability returns an error.
type Provider interface {
	ID() string
	Capabilities() Capabilities

	SearchByIdentity(ctx context.Context, identity mediaid.Identity) []Candidate
	SearchByHash(ctx context.Context, hash string, size int64) []Candidate

	// ResolveDownload exchanges an opaque download locator for a final
	// retrievable URL. Callers go through the resolve layer, never
	// directly; a throttled upstream surfaces as *ThrottledError.
	ResolveDownload(ctx context.Context, resourceID string) (string, error)
}

// ThrottledError reports that a provider refused a call because the
// upstream is rate limiting us. RetryAfter is the server-suggested wait, or
// the configured default when the upstream did not suggest one.
type ThrottledError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("provider %s throttled, retry after %s", e.Provider, e.RetryAfter)
}

// Is implements errors.Is matching on the error type.
func (e *ThrottledError) Is(target error) bool {
	_, ok := target.(*ThrottledError)
	return ok
}

// ErrResolveUnsupported is returned by ResolveDownload on providers whose
// search results are already retrievable.
var ErrResolveUnsupported = fmt.Errorf("provider does not support download resolution")
