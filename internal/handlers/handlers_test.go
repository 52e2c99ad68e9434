package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/loci/internal/common"
	"github.com/ternarybob/loci/internal/interfaces"
	"github.com/ternarybob/loci/internal/models"
)

type stubRecommend struct {
	types    []string
	filtered []models.PlaceDetail
	decision *models.SearchRoutingDecision
	routeErr error
}

func (s *stubRecommend) InferPlaceTypes(ctx context.Context, email string) ([]string, error) {
	return s.types, nil
}

func (s *stubRecommend) FilterRelevantPlaces(ctx context.Context, email string, candidates []models.PlaceDetail, weatherHint string) ([]models.PlaceDetail, error) {
	return s.filtered, nil
}

func (s *stubRecommend) FilterRelevantPlacesForQuery(ctx context.Context, query, email string, candidates []models.PlaceDetail, weatherHint string) ([]models.PlaceDetail, error) {
	return s.filtered, nil
}

func (s *stubRecommend) RouteQuery(ctx context.Context, query string) (*models.SearchRoutingDecision, error) {
	return s.decision, s.routeErr
}

type stubPlaces struct {
	nearby []models.PlaceDetail
	byText []models.PlaceDetail
	detail *models.PlaceDetail
}

func (s *stubPlaces) ResolvePlaceIDFromURL(ctx context.Context, url string) string { return "" }

func (s *stubPlaces) FetchPlaceDetail(ctx context.Context, placeID, origin string) *models.PlaceDetail {
	return s.detail
}

func (s *stubPlaces) SearchNearby(ctx context.Context, origin string, radiusMeters int, typeQueries []string) []models.PlaceDetail {
	return s.nearby
}

func (s *stubPlaces) SearchByText(ctx context.Context, query, origin string, radiusMeters int) []models.PlaceDetail {
	return s.byText
}

type memProfiles struct {
	profiles map[string]*models.UserProfile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{profiles: make(map[string]*models.UserProfile)}
}

func (m *memProfiles) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	m.profiles[strings.ToLower(p.Email)] = p
	return nil
}

func (m *memProfiles) GetProfile(ctx context.Context, email string) (*models.UserProfile, error) {
	if p, found := m.profiles[strings.ToLower(email)]; found {
		return p, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memProfiles) DeleteProfile(ctx context.Context, email string) error {
	delete(m.profiles, strings.ToLower(email))
	return nil
}

type memPlaceCache struct {
	entries map[string]*models.PlaceCacheEntry
}

func newMemPlaceCache() *memPlaceCache {
	return &memPlaceCache{entries: make(map[string]*models.PlaceCacheEntry)}
}

func (m *memPlaceCache) SaveEntry(ctx context.Context, e *models.PlaceCacheEntry) error {
	m.entries[e.PlaceID+"|"+strings.ToLower(e.Email)] = e
	return nil
}

func (m *memPlaceCache) GetEntry(ctx context.Context, placeID, email string) (*models.PlaceCacheEntry, error) {
	if e, found := m.entries[placeID+"|"+strings.ToLower(email)]; found {
		return e, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memPlaceCache) DeleteEntry(ctx context.Context, id string) error { return nil }

type stubFacts struct {
	facts string
	err   error
	calls int
}

func (s *stubFacts) GeneratePersonalizedFacts(ctx context.Context, email string, detail *models.PlaceDetail) (string, error) {
	s.calls++
	return s.facts, s.err
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.HealthHandler(rec, req)

	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestHealthHandlerWrongMethod(t *testing.T) {
	h := NewHealthHandler(common.GetLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.HealthHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNearbyHandler(t *testing.T) {
	recommend := &stubRecommend{
		types:    []string{"museum", "park"},
		filtered: []models.PlaceDetail{{PlaceID: "a", Title: "SFMOMA"}},
	}
	places := &stubPlaces{nearby: []models.PlaceDetail{
		{PlaceID: "a", Title: "SFMOMA"},
		{PlaceID: "b", Title: "Somewhere"},
	}}
	h := NewRecommendHandler(recommend, places, common.GetLogger())

	rec := postJSON(t, h.NearbyHandler, "/api/recommendations/nearby", map[string]interface{}{
		"email":    "alice@example.com",
		"location": "37.77,-122.41",
	})

	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success, resp.Error)

	data := resp.Data.(map[string]interface{})
	assert.Len(t, data["places"], 1)
	assert.Len(t, data["inferred_types"], 2)
}

func TestNearbyHandlerMissingEmail(t *testing.T) {
	h := NewRecommendHandler(&stubRecommend{}, &stubPlaces{}, common.GetLogger())

	rec := postJSON(t, h.NearbyHandler, "/api/recommendations/nearby", map[string]interface{}{
		"location": "37.77,-122.41",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryHandlerTextRoute(t *testing.T) {
	recommend := &stubRecommend{
		decision: &models.SearchRoutingDecision{UseTextSearch: true, TextQuery: "neapolitan pizza"},
		filtered: []models.PlaceDetail{{PlaceID: "p", Title: "Pizzeria"}},
	}
	places := &stubPlaces{byText: []models.PlaceDetail{{PlaceID: "p", Title: "Pizzeria"}}}
	h := NewRecommendHandler(recommend, places, common.GetLogger())

	rec := postJSON(t, h.QueryHandler, "/api/recommendations/query", map[string]interface{}{
		"email":    "alice@example.com",
		"location": "37.77,-122.41",
		"query":    "pizza near me",
	})

	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success, resp.Error)
	data := resp.Data.(map[string]interface{})
	assert.Len(t, data["places"], 1)
}

func TestQueryHandlerRoutingFailure(t *testing.T) {
	recommend := &stubRecommend{routeErr: fmt.Errorf("unparseable")}
	h := NewRecommendHandler(recommend, &stubPlaces{}, common.GetLogger())

	rec := postJSON(t, h.QueryHandler, "/api/recommendations/query", map[string]interface{}{
		"email":    "alice@example.com",
		"location": "37.77,-122.41",
		"query":    "???",
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestProfileRoundTrip(t *testing.T) {
	profiles := newMemProfiles()
	h := NewProfileHandler(profiles, common.GetLogger())

	body, _ := json.Marshal(map[string]interface{}{
		"email":     "alice@example.com",
		"interests": []string{"art", "hiking"},
	})
	req := httptest.NewRequest(http.MethodPut, "/api/profile", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ProfileHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/profile?email=alice@example.com", nil)
	rec = httptest.NewRecorder()
	h.ProfileHandler(rec, req)

	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "alice@example.com", data["email"])
}

func TestProfileNotFound(t *testing.T) {
	h := NewProfileHandler(newMemProfiles(), common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/profile?email=ghost@example.com", nil)
	rec := httptest.NewRecorder()
	h.ProfileHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookmarkAddAndRemove(t *testing.T) {
	profiles := newMemProfiles()
	h := NewProfileHandler(profiles, common.GetLogger())

	rec := postJSON(t, h.BookmarksHandler, "/api/profile/bookmarks", map[string]interface{}{
		"email":    "alice@example.com",
		"place_id": "ChIJx",
		"title":    "SFMOMA",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	profile, err := profiles.GetProfile(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Contains(t, profile.Bookmarks, "ChIJx")

	body, _ := json.Marshal(map[string]interface{}{
		"email":    "alice@example.com",
		"place_id": "ChIJx",
	})
	req := httptest.NewRequest(http.MethodDelete, "/api/profile/bookmarks", bytes.NewReader(body))
	delRec := httptest.NewRecorder()
	h.BookmarksHandler(delRec, req)
	require.Equal(t, http.StatusOK, delRec.Code)

	profile, _ = profiles.GetProfile(context.Background(), "alice@example.com")
	assert.NotContains(t, profile.Bookmarks, "ChIJx")
}

func TestFactsHandlerGeneratesAndCaches(t *testing.T) {
	cache := newMemPlaceCache()
	facts := &stubFacts{facts: "The canyon is over a mile deep."}
	places := &stubPlaces{detail: &models.PlaceDetail{PlaceID: "ChIJgc", Title: "Grand Canyon"}}
	h := NewPlacesHandler(nil, cache, places, facts, common.GetLogger())

	payload := map[string]interface{}{
		"email":    "alice@example.com",
		"place_id": "ChIJgc",
	}

	rec := postJSON(t, h.FactsHandler, "/api/places/facts", payload)
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success, resp.Error)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, false, data["cached"])
	assert.Equal(t, 1, facts.calls)

	// Second call hits the cache, no new generation
	rec = postJSON(t, h.FactsHandler, "/api/places/facts", payload)
	resp = decodeEnvelope(t, rec)
	require.True(t, resp.Success)
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["cached"])
	assert.Equal(t, 1, facts.calls)
}

func TestFactsHandlerUnknownPlace(t *testing.T) {
	h := NewPlacesHandler(nil, newMemPlaceCache(), &stubPlaces{}, &stubFacts{}, common.GetLogger())

	rec := postJSON(t, h.FactsHandler, "/api/places/facts", map[string]interface{}{
		"email":    "alice@example.com",
		"place_id": "missing",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTakeoutFolderHandlerValidation(t *testing.T) {
	// Missing path must fail validation before touching the service
	h := NewTakeoutHandler(nil, common.GetLogger())

	rec := postJSON(t, h.FolderHandler, "/api/takeout/folder", map[string]interface{}{
		"email": "alice@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
