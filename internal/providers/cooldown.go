// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package providers

import (
	"sync"
	"time"
)

// CooldownTracker holds the per-provider rate-limit state for the lifetime
// of the process. A provider is call-eligible iff now >= its cooldownUntil;
// a provider that has never been throttled is always eligible.
//
// State is memory only. Restarting the process resets all cooldowns, which
// is acceptable: the upstream will simply throttle again if we come back
// too early.
type CooldownTracker struct {
	mu              sync.RWMutex
	cooldownUntil   map[string]time.Time
	defaultCooldown time.Duration

	// now is split out for tests
	now func() time.Time
}

func NewCooldownTracker(defaultCooldown time.Duration) *CooldownTracker {
	return &CooldownTracker{
		cooldownUntil:   make(map[string]time.Time),
		defaultCooldown: defaultCooldown,
		now:             time.Now,
	}
}

// Eligible reports whether the provider may issue an upstream call now.
func (t *CooldownTracker) Eligible(providerID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	until, ok := t.cooldownUntil[providerID]
	if !ok {
		return true
	}
	return !t.now().Before(until)
}

// MarkThrottled records a throttling signal for the provider. A
// non-positive suggested duration falls back to the configured default.
// Last write wins; a later signal may shorten or lengthen the window.
// It returns the resulting cooldown deadline.
func (t *CooldownTracker) MarkThrottled(providerID string, suggested time.Duration) time.Time {
	if suggested <= 0 {
		suggested = t.defaultCooldown
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	until := t.now().Add(suggested)
	t.cooldownUntil[providerID] = until
	return until
}

// CooldownUntil returns the provider's current cooldown deadline. The bool
// is false when the provider has never been throttled.
func (t *CooldownTracker) CooldownUntil(providerID string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	until, ok := t.cooldownUntil[providerID]
	return until, ok
}

// RetryAfter returns how long the provider remains ineligible, or zero when
// it is eligible now.
func (t *CooldownTracker) RetryAfter(providerID string) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	until, ok := t.cooldownUntil[providerID]
	if !ok {
		return 0
	}
	remaining := until.Sub(t.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Snapshot returns a copy of all active cooldown deadlines, keyed by
// provider id. Expired entries are omitted.
func (t *CooldownTracker) Snapshot() map[string]time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	out := make(map[string]time.Time)
	for id, until := range t.cooldownUntil {
		if now.Before(until) {
			out[id] = until
		}
	}
	return out
}
