package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loci/internal/interfaces"
	"github.com/ternarybob/loci/internal/models"
)

// FactsService generates personalized narrative facts for a place
type FactsService interface {
	GeneratePersonalizedFacts(ctx context.Context, email string, detail *models.PlaceDetail) (string, error)
}

// PlacesHandler serves saved-place listings and personalized place facts
type PlacesHandler struct {
	savedPlaces interfaces.SavedPlaceStorage
	placeCache  interfaces.PlaceCacheStorage
	places      interfaces.PlacesService
	facts       FactsService
	logger      arbor.ILogger
}

func NewPlacesHandler(savedPlaces interfaces.SavedPlaceStorage, placeCache interfaces.PlaceCacheStorage, places interfaces.PlacesService, facts FactsService, logger arbor.ILogger) *PlacesHandler {
	return &PlacesHandler{
		savedPlaces: savedPlaces,
		placeCache:  placeCache,
		places:      places,
		facts:       facts,
		logger:      logger,
	}
}

// ListSavedHandler handles GET /api/saved-places?email=
func (h *PlacesHandler) ListSavedHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		WriteError(w, http.StatusBadRequest, "email is required")
		return
	}

	places, err := h.savedPlaces.ListByOwner(r.Context(), email)
	if err != nil {
		h.logger.Error().Err(err).Str("email", email).Msg("Failed to list saved places")
		WriteError(w, http.StatusInternalServerError, "failed to list saved places")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(places),
		"places": places,
	})
}

type factsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	PlaceID  string `json:"place_id" validate:"required"`
	Location string `json:"location"`
}

// FactsHandler handles POST /api/places/facts. Generated facts are cached
// per (place, user); cache hits skip the agent loop entirely.
func (h *PlacesHandler) FactsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req factsRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cached, err := h.placeCache.GetEntry(r.Context(), req.PlaceID, req.Email)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		h.logger.Warn().Err(err).Str("place_id", req.PlaceID).Msg("Place cache lookup failed")
	}
	if cached != nil && cached.Facts != "" {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"place":  cached.Detail,
			"facts":  cached.Facts,
			"cached": true,
		})
		return
	}

	detail := h.fetchDetail(r.Context(), cached, req.PlaceID, req.Location)
	if detail == nil {
		WriteError(w, http.StatusNotFound, "place not found")
		return
	}

	facts, err := h.facts.GeneratePersonalizedFacts(r.Context(), req.Email, detail)
	if err != nil {
		h.logger.Error().Err(err).Str("place_id", req.PlaceID).Msg("Fact generation failed")
		WriteError(w, http.StatusBadGateway, "could not generate facts")
		return
	}

	entry := cached
	if entry == nil {
		entry = &models.PlaceCacheEntry{
			PlaceID: req.PlaceID,
			Email:   req.Email,
		}
	}
	entry.Detail = *detail
	entry.Facts = facts
	entry.UpdatedAt = time.Now()
	if err := h.placeCache.SaveEntry(r.Context(), entry); err != nil {
		h.logger.Warn().Err(err).Str("place_id", req.PlaceID).Msg("Failed to cache generated facts")
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"place":  detail,
		"facts":  facts,
		"cached": false,
	})
}

func (h *PlacesHandler) fetchDetail(ctx context.Context, cached *models.PlaceCacheEntry, placeID, location string) *models.PlaceDetail {
	if cached != nil && cached.Detail.PlaceID != "" {
		detail := cached.Detail
		return &detail
	}
	return h.places.FetchPlaceDetail(ctx, placeID, location)
}
