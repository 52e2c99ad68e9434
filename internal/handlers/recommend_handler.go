package handlers

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loci/internal/interfaces"
	"github.com/ternarybob/loci/internal/models"
)

// RecommendService is the slice of the recommendation service this handler needs
type RecommendService interface {
	InferPlaceTypes(ctx context.Context, email string) ([]string, error)
	FilterRelevantPlaces(ctx context.Context, email string, candidates []models.PlaceDetail, weatherHint string) ([]models.PlaceDetail, error)
	FilterRelevantPlacesForQuery(ctx context.Context, query, email string, candidates []models.PlaceDetail, weatherHint string) ([]models.PlaceDetail, error)
	RouteQuery(ctx context.Context, query string) (*models.SearchRoutingDecision, error)
}

// RecommendHandler serves the personalized recommendation endpoints
type RecommendHandler struct {
	recommend RecommendService
	places    interfaces.PlacesService
	logger    arbor.ILogger
}

func NewRecommendHandler(recommend RecommendService, places interfaces.PlacesService, logger arbor.ILogger) *RecommendHandler {
	return &RecommendHandler{
		recommend: recommend,
		places:    places,
		logger:    logger,
	}
}

type nearbyRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Location     string `json:"location" validate:"required"`
	RadiusMeters int    `json:"radius_meters"`
	Weather      string `json:"weather"`
}

// NearbyHandler handles POST /api/recommendations/nearby
func (h *RecommendHandler) NearbyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req nearbyRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	types, err := h.recommend.InferPlaceTypes(r.Context(), req.Email)
	if err != nil {
		h.logger.Error().Err(err).Str("email", req.Email).Msg("Type inference failed")
		WriteError(w, http.StatusBadGateway, "could not infer place types")
		return
	}

	candidates := h.places.SearchNearby(r.Context(), req.Location, req.RadiusMeters, types)
	if len(candidates) == 0 {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"places":         []models.PlaceDetail{},
			"inferred_types": types,
		})
		return
	}

	filtered, err := h.recommend.FilterRelevantPlaces(r.Context(), req.Email, candidates, req.Weather)
	if err != nil {
		h.logger.Error().Err(err).Str("email", req.Email).Msg("Relevance filter failed")
		WriteError(w, http.StatusBadGateway, "could not filter recommendations")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"places":         filtered,
		"inferred_types": types,
	})
}

type queryRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Location     string `json:"location" validate:"required"`
	Query        string `json:"query" validate:"required"`
	RadiusMeters int    `json:"radius_meters"`
	Weather      string `json:"weather"`
}

// QueryHandler handles POST /api/recommendations/query
func (h *RecommendHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req queryRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	decision, err := h.recommend.RouteQuery(r.Context(), req.Query)
	if err != nil {
		h.logger.Warn().Err(err).Str("query", req.Query).Msg("Query routing failed")
		WriteError(w, http.StatusBadGateway, "could not route query")
		return
	}

	var candidates []models.PlaceDetail
	if decision.UseTextSearch {
		candidates = h.places.SearchByText(r.Context(), decision.TextQuery, req.Location, req.RadiusMeters)
	} else {
		candidates = h.places.SearchNearby(r.Context(), req.Location, req.RadiusMeters, decision.PlaceTypes)
	}

	if len(candidates) == 0 {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"places":  []models.PlaceDetail{},
			"routing": decision,
		})
		return
	}

	filtered, err := h.recommend.FilterRelevantPlacesForQuery(r.Context(), req.Query, req.Email, candidates, req.Weather)
	if err != nil {
		h.logger.Error().Err(err).Str("email", req.Email).Msg("Query relevance filter failed")
		WriteError(w, http.StatusBadGateway, "could not filter recommendations")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"places":  filtered,
		"routing": decision,
	})
}
