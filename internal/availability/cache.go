// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package availability keeps a long-lived, restart-durable summary of which
// content identities had any subtitle candidates at all. It stores only the
// boolean outcome and a count, never candidate data, so the file stays small
// and cheap to rewrite in full.
package availability

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Entry is the availability summary for one content identity.
type Entry struct {
	Available      bool      `json:"available"`
	CandidateCount int       `json:"candidateCount"`
	CheckedAt      time.Time `json:"checkedAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// Cache is the durable availability store. All reads and writes go through
// the in-memory map; Flush rewrites the whole backing file atomically when
// anything changed since the last flush.
type Cache struct {
	mu      sync.Mutex
	path    string
	ttl     time.Duration
	entries map[string]Entry

	// version increments on every mutation; flushedVersion tracks the
	// last snapshot written out, so a write racing a flush is never lost.
	version        uint64
	flushedVersion uint64

	// now is split out for tests
	now func() time.Time
}

func New(path string, ttl time.Duration) *Cache {
	return &Cache{
		path:    path,
		ttl:     ttl,
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Load reads the backing file into memory, dropping entries that expired
// while the process was down. An unavailable backing store is never fatal:
// a missing file is a normal first run, and an unreadable or corrupt file
// is discarded with a warning. Either way the cache starts empty and the
// next flush rewrites the file.
func (c *Cache) Load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", c.path).Msg("availability cache file is unreadable, starting empty")
		}
		return
	}

	var loaded map[string]Entry
	if err := json.Unmarshal(data, &loaded); err != nil {
		log.Warn().Err(err).Str("path", c.path).Msg("availability cache file is corrupt, starting empty")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	kept := 0
	for key, entry := range loaded {
		if !now.After(entry.ExpiresAt) {
			c.entries[key] = entry
			kept++
		}
	}
	if kept < len(loaded) {
		c.version++
	}

	log.Debug().Int("entries", kept).Int("expired", len(loaded)-kept).Msg("loaded availability cache")
}

// Record stores the outcome of a completed search for the key, stamping a
// fresh TTL window.
func (c *Cache) Record(key string, available bool, candidateCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = Entry{
		Available:      available,
		CandidateCount: candidateCount,
		CheckedAt:      now,
		ExpiresAt:      now.Add(c.ttl),
	}
	c.version++
}

// Get returns the availability summary for the key. An expired entry is
// removed on read and reported as absent.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	if c.now().After(entry.ExpiresAt) {
		delete(c.entries, key)
		c.version++
		return Entry{}, false
	}
	return entry, true
}

// Invalidate removes a single key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.version++
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) == 0 {
		return
	}
	c.entries = make(map[string]Entry)
	c.version++
}

// Sweep removes expired entries and returns how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.version++
	}
	return removed
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Flush rewrites the backing file when the in-memory state changed since
// the last successful flush. The write is atomic: a temp file in the same
// directory is renamed over the target, so a crash mid-write never leaves a
// truncated cache behind.
func (c *Cache) Flush() error {
	c.mu.Lock()
	if c.version == c.flushedVersion {
		c.mu.Unlock()
		return nil
	}
	snapshotVersion := c.version
	snapshot := make(map[string]Entry, len(c.entries))
	for key, entry := range c.entries {
		snapshot[key] = entry
	}
	c.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return err
	}

	c.mu.Lock()
	c.flushedVersion = snapshotVersion
	entries := len(snapshot)
	c.mu.Unlock()

	log.Debug().Int("entries", entries).Str("path", c.path).Msg("flushed availability cache")
	return nil
}
