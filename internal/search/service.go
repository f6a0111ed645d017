// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package search implements the aggregation orchestrator: concurrent
// provider fan-out, merge and dedup, result caching, and ranking against an
// optional target descriptor.
package search

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/subarr/internal/availability"
	"github.com/autobrr/subarr/internal/mediaid"
	"github.com/autobrr/subarr/internal/providers"
	"github.com/autobrr/subarr/internal/releases"
)

// ErrNoProvidersConfigured is returned by NewService when not a single
// provider is enabled. Running without providers would serve nothing but
// empty cached results, so startup refuses it outright.
var ErrNoProvidersConfigured = errors.New("no subtitle providers configured")

// TargetDescriptor describes the local video file a search wants subtitles
// for. All fields are optional; without a filename candidates are returned
// unranked, and without a hash the exact-match path is skipped.
type TargetDescriptor struct {
	Filename    string `json:"filename,omitempty"`
	ContentHash string `json:"contentHash,omitempty"`
	ContentSize int64  `json:"contentSize,omitempty"`
}

// RankedCandidate wraps an immutable provider candidate with its derived
// ranking. Scored distinguishes "no evidence to score against" from a
// computed score of zero.
type RankedCandidate struct {
	providers.Candidate
	MatchScore int  `json:"matchScore"`
	Scored     bool `json:"scored"`
}

// Options tunes orchestrator behaviour.
type Options struct {
	// ProviderTimeout bounds each individual provider call during fan-out.
	ProviderTimeout time.Duration

	// MaxResults bounds the merged candidate set regardless of mode, to
	// keep cached payloads small. CompactMode additionally trims each
	// provider's contribution to MaxResultsPerProvider during fan-out.
	CompactMode           bool
	MaxResults            int
	MaxResultsPerProvider int
}

// Service is the aggregation orchestrator.
type Service struct {
	providers    []providers.Provider
	cooldowns    *providers.CooldownTracker
	cache        *ResultCache
	availability *availability.Cache
	opts         Options
	metrics      *ServiceMetrics
}

// NewService creates the orchestrator. Provider order is registration
// order; merged results preserve it. metrics may be nil.
func NewService(provs []providers.Provider, cooldowns *providers.CooldownTracker, cache *ResultCache, avail *availability.Cache, opts Options, metrics *ServiceMetrics) (*Service, error) {
	if len(provs) == 0 {
		return nil, ErrNoProvidersConfigured
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 15 * time.Second
	}

	return &Service{
		providers:    provs,
		cooldowns:    cooldowns,
		cache:        cache,
		availability: avail,
		opts:         opts,
		metrics:      metrics,
	}, nil
}

// Search returns ranked subtitle candidates for the identity. The cache key
// is derived from the identity alone so unrelated target descriptors reuse
// the same cached candidate set; ranking runs on every call, hit or miss.
func (s *Service) Search(ctx context.Context, identity mediaid.Identity, target *TargetDescriptor) ([]RankedCandidate, error) {
	if err := identity.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid search identity")
	}

	if s.metrics != nil {
		s.metrics.SearchesTotal.Inc()
		timer := prometheusTimer(s.metrics)
		defer timer()
	}

	key := identity.Key()

	candidates, hit := s.cache.Get(key)
	if !hit {
		candidates = s.fanOut(ctx, identity, target)
		candidates = dedupe(candidates)
		if s.opts.MaxResults > 0 && len(candidates) > s.opts.MaxResults {
			candidates = candidates[:s.opts.MaxResults]
		}

		// Empty results are cached too, so content genuinely lacking
		// matches does not trigger repeated fan-out within the window.
		s.cache.Set(key, candidates)

		if s.availability != nil {
			s.availability.Record(key, len(candidates) > 0, len(candidates))
		}
	}

	log.Debug().
		Str("identity", key).
		Bool("cacheHit", hit).
		Int("candidates", len(candidates)).
		Msg("search completed")

	return s.rank(candidates, target), nil
}

// fanOut dispatches one call per provider concurrently. Calls are failure
// isolated: a provider that is in cooldown, errors, or times out simply
// contributes nothing and never delays or cancels its siblings. Results
// come back in provider registration order.
func (s *Service) fanOut(ctx context.Context, identity mediaid.Identity, target *TargetDescriptor) []providers.Candidate {
	results := make([][]providers.Candidate, len(s.providers))

	var wg sync.WaitGroup
	for i, provider := range s.providers {
		wg.Add(1)
		go func(slot int, p providers.Provider) {
			defer wg.Done()

			if s.cooldowns != nil && !s.cooldowns.Eligible(p.ID()) {
				if s.metrics != nil {
					s.metrics.ProviderThrottled.WithLabelValues(p.ID()).Inc()
				}
				return
			}

			callCtx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
			defer cancel()

			found := p.SearchByIdentity(callCtx, identity)

			if target != nil && target.ContentHash != "" && p.Capabilities().SearchByHash {
				found = append(found, p.SearchByHash(callCtx, target.ContentHash, target.ContentSize)...)
			}

			if s.opts.CompactMode && s.opts.MaxResultsPerProvider > 0 && len(found) > s.opts.MaxResultsPerProvider {
				found = found[:s.opts.MaxResultsPerProvider]
			}

			if s.metrics != nil {
				s.metrics.ProviderCandidates.WithLabelValues(p.ID()).Add(float64(len(found)))
			}
			results[slot] = found
		}(i, provider)
	}
	wg.Wait()

	var merged []providers.Candidate
	for _, found := range results {
		merged = append(merged, found...)
	}
	return merged
}

// dedupe collapses candidates that share a provider and download locator.
// When a hash search and an identity search both surfaced the same file,
// the hash-verified copy wins and keeps the earlier merge position.
func dedupe(candidates []providers.Candidate) []providers.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	index := make(map[string]int, len(candidates))
	out := make([]providers.Candidate, 0, len(candidates))

	for _, candidate := range candidates {
		key := candidate.ProviderID + "|" + candidate.DownloadLocator
		if pos, seen := index[key]; seen {
			if candidate.ExactHashMatch && !out[pos].ExactHashMatch {
				out[pos] = candidate
			}
			continue
		}
		index[key] = len(out)
		out = append(out, candidate)
	}
	return out
}

// rank scores and orders candidates against the target. Without a filename
// scoring is skipped entirely and the merge order is preserved; only
// hash-verified candidates carry a score in that case, since their match is
// established independently of any name evidence.
func (s *Service) rank(candidates []providers.Candidate, target *TargetDescriptor) []RankedCandidate {
	ranked := make([]RankedCandidate, len(candidates))

	if target == nil || target.Filename == "" {
		for i, candidate := range candidates {
			ranked[i] = RankedCandidate{Candidate: candidate}
			if candidate.ExactHashMatch {
				ranked[i].MatchScore = releases.HashMatchScore
				ranked[i].Scored = true
			}
		}
		return ranked
	}

	parsedTarget := releases.Parse(target.Filename)
	for i, candidate := range candidates {
		ranked[i] = RankedCandidate{
			Candidate:  candidate,
			MatchScore: releases.Score(releases.Parse(candidate.ReleaseLabel), parsedTarget, candidate.ExactHashMatch),
			Scored:     true,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].MatchScore != ranked[j].MatchScore {
			return ranked[i].MatchScore > ranked[j].MatchScore
		}
		return ranked[i].Popularity > ranked[j].Popularity
	})
	return ranked
}

// Invalidate drops the cached candidate set and availability summary for
// the identity, forcing the next search to fan out again.
func (s *Service) Invalidate(identity mediaid.Identity) {
	key := identity.Key()
	s.cache.Invalidate(key)
	if s.availability != nil {
		s.availability.Invalidate(key)
	}
}

// FlushCache drops every cached candidate set.
func (s *Service) FlushCache() {
	s.cache.Flush()
}

// CacheStats exposes the result cache counters.
func (s *Service) CacheStats() ResultCacheStats {
	return s.cache.Stats()
}

// Cooldowns exposes the active provider cooldown deadlines.
func (s *Service) Cooldowns() map[string]time.Time {
	if s.cooldowns == nil {
		return nil
	}
	return s.cooldowns.Snapshot()
}

func prometheusTimer(metrics *ServiceMetrics) func() {
	start := time.Now()
	return func() {
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}
}
