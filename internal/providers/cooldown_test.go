// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T, defaultCooldown time.Duration) (*CooldownTracker, *time.Time) {
	t.Helper()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewCooldownTracker(defaultCooldown)
	tracker.now = func() time.Time { return current }
	return tracker, &current
}

func TestCooldownTrackerEligibleByDefault(t *testing.T) {
	tracker, _ := newTestTracker(t, 30*time.Second)

	assert.True(t, tracker.Eligible("opensubtitles"))

	_, ok := tracker.CooldownUntil("opensubtitles")
	assert.False(t, ok)
	assert.Zero(t, tracker.RetryAfter("opensubtitles"))
}

func TestCooldownTrackerEnforcesWindow(t *testing.T) {
	tracker, current := newTestTracker(t, 30*time.Second)
	start := *current

	until := tracker.MarkThrottled("opensubtitles", 120*time.Second)
	assert.Equal(t, start.Add(120*time.Second), until)

	// Ineligible throughout the window, including the last second.
	*current = start.Add(119 * time.Second)
	assert.False(t, tracker.Eligible("opensubtitles"))
	assert.Equal(t, time.Second, tracker.RetryAfter("opensubtitles"))

	// Eligible again exactly at the deadline.
	*current = start.Add(120 * time.Second)
	assert.True(t, tracker.Eligible("opensubtitles"))

	*current = start.Add(121 * time.Second)
	assert.True(t, tracker.Eligible("opensubtitles"))
	assert.Zero(t, tracker.RetryAfter("opensubtitles"))
}

func TestCooldownTrackerDefaultApplied(t *testing.T) {
	tracker, current := newTestTracker(t, 30*time.Second)
	start := *current

	until := tracker.MarkThrottled("subdl", 0)
	assert.Equal(t, start.Add(30*time.Second), until)
}

func TestCooldownTrackerLastWriteWins(t *testing.T) {
	tracker, current := newTestTracker(t, 30*time.Second)
	start := *current

	tracker.MarkThrottled("podnapisi", 600*time.Second)

	// A later, shorter suggestion replaces the longer window.
	until := tracker.MarkThrottled("podnapisi", 10*time.Second)
	require.Equal(t, start.Add(10*time.Second), until)

	*current = start.Add(11 * time.Second)
	assert.True(t, tracker.Eligible("podnapisi"))
}

func TestCooldownTrackerIsolatedPerProvider(t *testing.T) {
	tracker, _ := newTestTracker(t, 30*time.Second)

	tracker.MarkThrottled("opensubtitles", 120*time.Second)

	assert.False(t, tracker.Eligible("opensubtitles"))
	assert.True(t, tracker.Eligible("podnapisi"))
	assert.True(t, tracker.Eligible("subdl"))
}

func TestCooldownTrackerSnapshot(t *testing.T) {
	tracker, current := newTestTracker(t, 30*time.Second)
	start := *current

	tracker.MarkThrottled("opensubtitles", 120*time.Second)
	tracker.MarkThrottled("subdl", 5*time.Second)

	*current = start.Add(10 * time.Second)

	snapshot := tracker.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, start.Add(120*time.Second), snapshot["opensubtitles"])
}
