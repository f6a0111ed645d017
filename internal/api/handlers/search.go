// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/subarr/internal/availability"
	"github.com/autobrr/subarr/internal/mediaid"
	"github.com/autobrr/subarr/internal/search"
)

// SearchHandler handles subtitle search, availability, and cache endpoints
type SearchHandler struct {
	service      *search.Service
	availability *availability.Cache
}

func NewSearchHandler(service *search.Service, avail *availability.Cache) *SearchHandler {
	return &SearchHandler{
		service:      service,
		availability: avail,
	}
}

// Routes registers the search routes
func (h *SearchHandler) Routes(r chi.Router) {
	r.Post("/search", h.Search)

	r.Route("/availability/{videoID}", func(r chi.Router) {
		r.Get("/", h.GetAvailability)
		r.Delete("/", h.InvalidateAvailability)
	})

	r.Route("/cache", func(r chi.Router) {
		r.Get("/stats", h.GetCacheStats)
		r.Delete("/", h.FlushCaches)
	})

	r.Get("/cooldowns", h.GetCooldowns)
}

type searchRequest struct {
	// VideoID is "tt1234567" for a movie or "tt1234567:1:2" for an episode
	VideoID string                   `json:"videoId"`
	Target  *search.TargetDescriptor `json:"target,omitempty"`
}

type searchResponse struct {
	Identity   mediaid.Identity         `json:"identity"`
	Count      int                      `json:"count"`
	Candidates []search.RankedCandidate `json:"candidates"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, err := mediaid.ParseVideoID(req.VideoID)
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	candidates, err := h.service.Search(r.Context(), identity, req.Target)
	if err != nil {
		log.Error().Err(err).Str("videoId", req.VideoID).Msg("search failed")
		RespondError(w, http.StatusInternalServerError, "search failed")
		return
	}

	if candidates == nil {
		candidates = []search.RankedCandidate{}
	}

	RespondJSON(w, http.StatusOK, searchResponse{
		Identity:   identity,
		Count:      len(candidates),
		Candidates: candidates,
	})
}

type availabilityResponse struct {
	Known          bool       `json:"known"`
	Available      bool       `json:"available"`
	CandidateCount int        `json:"candidateCount,omitempty"`
	CheckedAt      *time.Time `json:"checkedAt,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
}

func (h *SearchHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	identity, err := mediaid.ParseVideoID(chi.URLParam(r, "videoID"))
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, ok := h.availability.Get(identity.Key())
	if !ok {
		RespondJSON(w, http.StatusOK, availabilityResponse{})
		return
	}

	RespondJSON(w, http.StatusOK, availabilityResponse{
		Known:          true,
		Available:      entry.Available,
		CandidateCount: entry.CandidateCount,
		CheckedAt:      &entry.CheckedAt,
		ExpiresAt:      &entry.ExpiresAt,
	})
}

func (h *SearchHandler) InvalidateAvailability(w http.ResponseWriter, r *http.Request) {
	identity, err := mediaid.ParseVideoID(chi.URLParam(r, "videoID"))
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.service.Invalidate(identity)
	RespondJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *SearchHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]any{
		"searchCache":         h.service.CacheStats(),
		"availabilityEntries": h.availability.Len(),
	})
}

func (h *SearchHandler) FlushCaches(w http.ResponseWriter, r *http.Request) {
	h.service.FlushCache()
	h.availability.Clear()
	RespondJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}

func (h *SearchHandler) GetCooldowns(w http.ResponseWriter, r *http.Request) {
	cooldowns := h.service.Cooldowns()
	if cooldowns == nil {
		cooldowns = map[string]time.Time{}
	}
	RespondJSON(w, http.StatusOK, cooldowns)
}
