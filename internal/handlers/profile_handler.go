package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loci/internal/interfaces"
	"github.com/ternarybob/loci/internal/models"
)

// ProfileHandler manages user recommendation profiles and bookmarks
type ProfileHandler struct {
	profiles interfaces.ProfileStorage
	logger   arbor.ILogger
}

func NewProfileHandler(profiles interfaces.ProfileStorage, logger arbor.ILogger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger,
	}
}

// ProfileHandler handles GET and PUT /api/profile
func (h *ProfileHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getProfile(w, r)
	case http.MethodPut:
		h.putProfile(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *ProfileHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		WriteError(w, http.StatusBadRequest, "email is required")
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), email)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "profile not found")
			return
		}
		h.logger.Error().Err(err).Str("email", email).Msg("Failed to load profile")
		WriteError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	WriteJSON(w, http.StatusOK, profile)
}

type profileRequest struct {
	Email           string   `json:"email" validate:"required,email"`
	DisplayName     string   `json:"display_name"`
	Interests       []string `json:"interests"`
	UserDescription string   `json:"user_description"`
}

func (h *ProfileHandler) putProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), req.Email)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		h.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to load profile for update")
		WriteError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if profile == nil {
		profile = &models.UserProfile{
			Email:     req.Email,
			Bookmarks: make(map[string]models.BookmarkedPlace),
		}
	}

	profile.DisplayName = req.DisplayName
	profile.Interests = req.Interests
	profile.UserDescription = req.UserDescription

	if err := h.profiles.SaveProfile(r.Context(), profile); err != nil {
		h.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to save profile")
		WriteError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	WriteJSON(w, http.StatusOK, profile)
}

type bookmarkRequest struct {
	Email   string `json:"email" validate:"required,email"`
	PlaceID string `json:"place_id" validate:"required"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Visited bool   `json:"visited"`
}

// BookmarksHandler handles POST and DELETE /api/profile/bookmarks
func (h *ProfileHandler) BookmarksHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.addBookmark(w, r)
	case http.MethodDelete:
		h.removeBookmark(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *ProfileHandler) addBookmark(w http.ResponseWriter, r *http.Request) {
	var req bookmarkRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), req.Email)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		WriteError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if profile == nil {
		profile = &models.UserProfile{Email: req.Email}
	}
	if profile.Bookmarks == nil {
		profile.Bookmarks = make(map[string]models.BookmarkedPlace)
	}

	profile.Bookmarks[req.PlaceID] = models.BookmarkedPlace{
		PlaceID:    req.PlaceID,
		Title:      req.Title,
		Summary:    req.Summary,
		Bookmarked: true,
		Visited:    req.Visited,
	}

	if err := h.profiles.SaveProfile(r.Context(), profile); err != nil {
		h.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to save bookmark")
		WriteError(w, http.StatusInternalServerError, "failed to save bookmark")
		return
	}

	WriteSuccess(w, "bookmark saved")
}

func (h *ProfileHandler) removeBookmark(w http.ResponseWriter, r *http.Request) {
	var req bookmarkRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "profile not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	if _, found := profile.Bookmarks[req.PlaceID]; !found {
		WriteError(w, http.StatusNotFound, "bookmark not found")
		return
	}
	delete(profile.Bookmarks, req.PlaceID)

	if err := h.profiles.SaveProfile(r.Context(), profile); err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to remove bookmark")
		return
	}

	WriteSuccess(w, "bookmark removed")
}
