// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/subarr/internal/providers"
	"github.com/autobrr/subarr/internal/resolve"
)

// DownloadHandler redirects download requests to the final provider URL
type DownloadHandler struct {
	resolver *resolve.Resolver
}

func NewDownloadHandler(resolver *resolve.Resolver) *DownloadHandler {
	return &DownloadHandler{resolver: resolver}
}

// Routes registers the download routes
func (h *DownloadHandler) Routes(r chi.Router) {
	r.Get("/download/{providerID}/{resourceID}", h.Download)
}

// Download resolves the opaque locator and answers with a redirect. A
// throttled provider maps to 429 with a Retry-After header so clients can
// back off the same way we do upstream.
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")
	resourceID := chi.URLParam(r, "resourceID")

	link, err := h.resolver.Resolve(r.Context(), providerID, resourceID)
	if err != nil {
		var throttled *providers.ThrottledError
		if errors.As(err, &throttled) {
			seconds := int(math.Ceil(throttled.RetryAfter.Seconds()))
			if seconds > 0 {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
			}
			RespondError(w, http.StatusTooManyRequests, "provider is rate limited")
			return
		}
		if errors.Is(err, providers.ErrResolveUnsupported) {
			RespondError(w, http.StatusBadRequest, "provider returns direct download locators")
			return
		}

		log.Error().Err(err).Str("provider", providerID).Str("resource", resourceID).Msg("download resolution failed")
		RespondError(w, http.StatusBadGateway, "failed to resolve download")
		return
	}

	http.Redirect(w, r, link, http.StatusFound)
}
