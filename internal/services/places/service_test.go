package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/loci/internal/common"
)

func newTestService(t *testing.T, baseURL string) *Service {
	t.Helper()

	config := common.NewDefaultConfig()
	config.PlacesAPI.RateLimit = 0
	config.PlacesAPI.RequestTimeout = 5 * time.Second

	return &Service{
		config:        config,
		logger:        common.GetLogger(),
		apiKey:        "test-key",
		httpClient:    &http.Client{Timeout: 5 * time.Second},
		placesBaseURL: baseURL,
		mapsBaseURL:   baseURL,
	}
}

func TestDistributeBudget(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		n        int
		expected []int
	}{
		{"even split", 12, 3, []int{4, 4, 4}},
		{"remainder to earliest", 12, 5, []int{3, 3, 2, 2, 2}},
		{"single query", 12, 1, []int{12}},
		{"more queries than budget", 3, 5, []int{1, 1, 1, 0, 0}},
		{"two queries", 12, 2, []int{6, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			budgets := distributeBudget(tt.total, tt.n)
			assert.Equal(t, tt.expected, budgets)

			sum := 0
			for _, b := range budgets {
				sum += b
			}
			assert.Equal(t, tt.total, sum, "budgets must sum to total")
		})
	}
}

func TestDistributeBudgetZeroQueries(t *testing.T) {
	assert.Nil(t, distributeBudget(12, 0))
}

func TestTopReviews(t *testing.T) {
	reviews := []review{
		{Rating: 3, Text: &localizedText{Text: "okay"}},
		{Rating: 5, Text: &localizedText{Text: "great"}},
		{Rating: 4, Text: &localizedText{Text: "good"}},
		{Rating: 5, Text: &localizedText{Text: "also great"}},
	}

	top := topReviews(reviews, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "great", top[0].Text)
	assert.Equal(t, "also great", top[1].Text)
}

func TestTopReviewsEmpty(t *testing.T) {
	assert.Nil(t, topReviews(nil, 3))
}

func TestSearchByTextHonorsCap(t *testing.T) {
	pages := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/places:searchText", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		require.NotEmpty(t, r.Header.Get("X-Goog-FieldMask"))

		pages++
		resp := textSearchResponse{NextPageToken: "next"}
		for i := 0; i < searchPageSize; i++ {
			resp.Places = append(resp.Places, placeResult{
				ID:          fmt.Sprintf("place-%d-%d", pages, i),
				DisplayName: &localizedText{Text: "Test Place"},
			})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	results := svc.SearchByText(context.Background(), "coffee", "37.77,-122.41", 5000)

	assert.Len(t, results, svc.config.PlacesAPI.TextSearchCap)
	assert.Equal(t, 3, pages, "60 results at 20 per page is 3 pages")
}

func TestSearchByTextStopsWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := textSearchResponse{
			Places: []placeResult{{ID: "only-one", DisplayName: &localizedText{Text: "Solo"}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	results := svc.SearchByText(context.Background(), "coffee", "37.77,-122.41", 5000)

	require.Len(t, results, 1)
	assert.Equal(t, "only-one", results[0].PlaceID)
}

func TestSearchNearbySplitsBudget(t *testing.T) {
	var requestedSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req textSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requestedSizes = append(requestedSizes, req.PageSize)

		resp := textSearchResponse{}
		for i := 0; i < req.PageSize; i++ {
			resp.Places = append(resp.Places, placeResult{
				ID:          fmt.Sprintf("%s-%d", req.TextQuery, i),
				DisplayName: &localizedText{Text: req.TextQuery},
			})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	results := svc.SearchNearby(context.Background(), "37.77,-122.41", 5000, []string{"museum", "park", "cafe", "bar", "zoo"})

	assert.Equal(t, []int{3, 3, 2, 2, 2}, requestedSizes)
	assert.Len(t, results, svc.config.PlacesAPI.NearbyBudget)
}

func TestFetchPlaceDetailProjection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/places/test-id", r.URL.Path)

		place := placeResult{
			ID:               "test-id",
			DisplayName:      &localizedText{Text: "Golden Gate Park"},
			Location:         &latLng{Latitude: 37.7694, Longitude: -122.4862},
			FormattedAddress: "San Francisco, CA 94121, USA",
			AddressComponents: []addressComponent{
				{LongText: "San Francisco", ShortText: "SF", Types: []string{"locality"}},
				{LongText: "California", ShortText: "CA", Types: []string{"administrative_area_level_1"}},
				{LongText: "United States", ShortText: "US", Types: []string{"country"}},
				{LongText: "94121", ShortText: "94121", Types: []string{"postal_code"}},
			},
			Photos:           []photo{{Name: "places/test-id/photos/abc"}},
			Rating:           4.8,
			UserRatingCount:  98000,
			EditorialSummary: &localizedText{Text: "Sprawling urban park"},
			PrimaryType:      "park",
			Types:            []string{"park", "tourist_attraction"},
			WebsiteURI:       "https://goldengatepark.com",
		}
		json.NewEncoder(w).Encode(place)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	detail := svc.FetchPlaceDetail(context.Background(), "test-id", "37.7749,-122.4194")

	require.NotNil(t, detail)
	assert.Equal(t, "Golden Gate Park", detail.Title)
	assert.Equal(t, "San Francisco", detail.City)
	assert.Equal(t, "CA", detail.State)
	assert.Equal(t, "United States", detail.Country)
	assert.Equal(t, "94121", detail.PostalCode)
	assert.Greater(t, detail.DistanceMiles, 0.0)
	assert.Less(t, detail.DistanceMiles, 10.0)
	require.Len(t, detail.PhotoURLs, 1)
	assert.Contains(t, detail.PhotoURLs[0], "maxWidthPx=400")
}

func TestFetchPlaceDetailFailureReturnsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	assert.Nil(t, svc.FetchPlaceDetail(context.Background(), "missing", ""))
}

func TestResolvePlaceIDFromURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/maps/share", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta itemprop="name" content="Grand Canyon National Park"></head></html>`)
	})
	mux.HandleFunc("/place/queryautocomplete/json", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Grand Canyon National Park", r.URL.Query().Get("input"))
		json.NewEncoder(w).Encode(autocompleteResponse{
			Status:      "OK",
			Predictions: []prediction{{PlaceID: "ChIJFU2bda4SM4cRKSCRyb6pOB8"}},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc := newTestService(t, server.URL)
	placeID := svc.ResolvePlaceIDFromURL(context.Background(), server.URL+"/maps/share")
	assert.Equal(t, "ChIJFU2bda4SM4cRKSCRyb6pOB8", placeID)
}

func TestResolvePlaceIDFromURLNoName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head></head><body>nothing here</body></html>`)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	assert.Empty(t, svc.ResolvePlaceIDFromURL(context.Background(), server.URL+"/maps/share"))
}
