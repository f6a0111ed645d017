// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package search

import (
	"sync"
	"time"

	"github.com/autobrr/subarr/internal/providers"
)

type cacheEntry struct {
	candidates []providers.Candidate
	cachedAt   time.Time
	expiresAt  time.Time
	hitCount   int64
}

// ResultCacheStats provides aggregated cache metrics for observability.
type ResultCacheStats struct {
	Entries    int       `json:"entries"`
	Hits       int64     `json:"hits"`
	Misses     int64     `json:"misses"`
	TTLMinutes int       `json:"ttlMinutes"`
	OldestAt   time.Time `json:"oldestAt,omitempty"`
}

// ResultCache is the memory-resident cache of merged candidate sets, keyed
// by content identity. Empty sets are cached like any other value so a
// search that legitimately found nothing does not trigger repeated upstream
// fan-out within the TTL window. State is lost on restart.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	hits    int64
	misses  int64
	metrics *ServiceMetrics

	// now is split out for tests
	now func() time.Time
}

// NewResultCache creates a result cache. metrics may be nil.
func NewResultCache(ttl time.Duration, metrics *ServiceMetrics) *ResultCache {
	return &ResultCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		metrics: metrics,
		now:     time.Now,
	}
}

// Get returns the cached candidate set for the key. An expired entry is
// removed on read and counted as a miss. The returned bool distinguishes a
// cached empty set from a miss.
func (c *ResultCache) Get(key string) ([]providers.Candidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if ok && c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		ok = false
	}

	if !ok {
		c.misses++
		if c.metrics != nil {
			c.metrics.CacheMissesTotal.Inc()
			c.metrics.CacheEntries.Set(float64(len(c.entries)))
		}
		return nil, false
	}

	entry.hitCount++
	c.hits++
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}

	out := make([]providers.Candidate, len(entry.candidates))
	copy(out, entry.candidates)
	return out, true
}

// Set stores the merged candidate set under the key, replacing any previous
// entry and restarting the TTL window.
func (c *ResultCache) Set(key string, candidates []providers.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]providers.Candidate, len(candidates))
	copy(stored, candidates)

	now := c.now()
	c.entries[key] = &cacheEntry{
		candidates: stored,
		cachedAt:   now,
		expiresAt:  now.Add(c.ttl),
	}

	if c.metrics != nil {
		c.metrics.CacheEntries.Set(float64(len(c.entries)))
	}
}

// Invalidate removes a single key.
func (c *ResultCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	if c.metrics != nil {
		c.metrics.CacheEntries.Set(float64(len(c.entries)))
	}
}

// Flush drops every entry. Hit and miss counters survive, they describe the
// process lifetime rather than the current cache contents.
func (c *ResultCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	if c.metrics != nil {
		c.metrics.CacheEntries.Set(0)
	}
}

// Sweep removes expired entries and returns how many were dropped. Sweeps
// do not touch the miss counter; only reads count as misses.
func (c *ResultCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	if c.metrics != nil {
		c.metrics.CacheEntries.Set(float64(len(c.entries)))
	}
	return removed
}

// Stats reports current cache state and lifetime hit/miss counters.
func (c *ResultCache) Stats() ResultCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := ResultCacheStats{
		Entries:    len(c.entries),
		Hits:       c.hits,
		Misses:     c.misses,
		TTLMinutes: int(c.ttl.Minutes()),
	}
	for _, entry := range c.entries {
		if stats.OldestAt.IsZero() || entry.cachedAt.Before(stats.OldestAt) {
			stats.OldestAt = entry.cachedAt
		}
	}
	return stats
}
