// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package resolve mediates the second round-trip some providers need to
// turn a search result into a retrievable download link. Successful
// resolutions are cached for a short window and concurrent requests for the
// same resource are coalesced into a single upstream call.
package resolve

import (
	"context"
	"fmt"
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/autobrr/subarr/internal/providers"
)

// Resolver is the resolution layer in front of provider ResolveDownload
// calls. Failures are not cached: a failed resolution is shared with every
// caller coalesced onto it, but the next request tries upstream again.
type Resolver struct {
	registry map[string]providers.Provider
	cache    *ttlcache.Cache[string, string]
	group    singleflight.Group
}

func NewResolver(provs []providers.Provider, ttl time.Duration) *Resolver {
	registry := make(map[string]providers.Provider, len(provs))
	for _, p := range provs {
		registry[p.ID()] = p
	}

	return &Resolver{
		registry: registry,
		cache:    ttlcache.New(ttlcache.Options[string, string]{}.SetDefaultTTL(ttl)),
	}
}

// Resolve returns the final download URL for a provider resource. Within
// the TTL window repeated calls are served from cache; concurrent calls for
// the same resource before the first completes result in exactly one
// upstream call, with all callers receiving the same link or the same
// failure.
func (r *Resolver) Resolve(ctx context.Context, providerID, resourceID string) (string, error) {
	provider, ok := r.registry[providerID]
	if !ok {
		return "", fmt.Errorf("unknown provider %q", providerID)
	}
	if !provider.Capabilities().ResolveDownload {
		return "", providers.ErrResolveUnsupported
	}

	key := providerID + ":" + resourceID

	if link, ok := r.cache.Get(key); ok {
		return link, nil
	}

	link, err, shared := r.group.Do(key, func() (any, error) {
		// Re-check under the flight: a previous flight may have filled
		// the cache between our miss and this call.
		if link, ok := r.cache.Get(key); ok {
			return link, nil
		}

		// The flight is detached from the initiating caller so a
		// disconnect mid-resolution does not abort the coalesced
		// callers still awaiting the result.
		link, err := provider.ResolveDownload(context.WithoutCancel(ctx), resourceID)
		if err != nil {
			return "", err
		}

		r.cache.Set(key, link, ttlcache.DefaultTTL)
		return link, nil
	})
	if err != nil {
		return "", err
	}

	if shared {
		log.Debug().Str("provider", providerID).Str("resource", resourceID).Msg("resolution shared with concurrent callers")
	}

	return link.(string), nil
}
