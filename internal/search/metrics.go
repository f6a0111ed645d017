// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ServiceMetrics contains Prometheus metrics for the search service
type ServiceMetrics struct {
	SearchDuration     prometheus.Histogram
	SearchesTotal      prometheus.Counter
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	CacheEntries       prometheus.Gauge
	ProviderCandidates *prometheus.CounterVec
	ProviderThrottled  *prometheus.CounterVec
}

// NewServiceMetrics creates and registers Prometheus metrics for the search service
func NewServiceMetrics() *ServiceMetrics {
	return &ServiceMetrics{
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "subarr_search_duration_seconds",
			Help:    "Time spent serving a subtitle search",
			Buckets: prometheus.DefBuckets,
		}),
		SearchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subarr_search_total",
			Help: "Total number of subtitle searches",
		}),
		CacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subarr_search_cache_hits_total",
			Help: "Total number of search result cache hits",
		}),
		CacheMissesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subarr_search_cache_misses_total",
			Help: "Total number of search result cache misses",
		}),
		CacheEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "subarr_search_cache_entries",
			Help: "Number of entries in the search result cache",
		}),
		ProviderCandidates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "subarr_provider_candidates_total",
			Help: "Total number of candidates returned by provider",
		}, []string{"provider"}),
		ProviderThrottled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "subarr_provider_cooldown_skips_total",
			Help: "Total number of provider dispatches skipped due to an active cooldown",
		}, []string{"provider"}),
	}
}
