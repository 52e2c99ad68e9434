package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loci/internal/common"
	"github.com/ternarybob/loci/internal/interfaces"
	"github.com/ternarybob/loci/internal/models"
)

const (
	searchFieldMask = "places.id,places.displayName,places.location,places.formattedAddress," +
		"places.photos,places.reviews,places.userRatingCount,places.rating,places.editorialSummary," +
		"places.primaryType,places.types,places.websiteUri,places.currentOpeningHours,nextPageToken"

	detailFieldMask = "id,displayName,location,currentOpeningHours,formattedAddress,photos,reviews," +
		"userRatingCount,rating,editorialSummary,primaryType,types,websiteUri,addressComponents," +
		"plusCode,priceLevel,internationalPhoneNumber,nationalPhoneNumber,regularOpeningHours"

	searchReviewLimit = 3
	detailReviewLimit = 10
	photoMaxPx        = 400
	searchPageSize    = 20
)

// Service implements interfaces.PlacesService against the Places API (New).
type Service struct {
	config        *common.Config
	logger        arbor.ILogger
	apiKey        string
	httpClient    *http.Client
	placesBaseURL string
	mapsBaseURL   string

	rateLimitMutex sync.Mutex
	lastRequest    time.Time
}

// NewService creates a Places API client. The API key is resolved from the
// environment, the key-value store, or config, in that order.
func NewService(config *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) interfaces.PlacesService {
	apiKey, err := common.ResolveAPIKey(context.Background(), kvStorage, "places_api_key", config.PlacesAPI.APIKey)
	if err != nil {
		logger.Warn().Err(err).Msg("Places API key not configured - place resolution and search will return empty results")
	}

	return &Service{
		config: config,
		logger: logger,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: config.PlacesAPI.RequestTimeout,
		},
		placesBaseURL: "https://places.googleapis.com/v1",
		mapsBaseURL:   "https://maps.googleapis.com/maps/api",
	}
}

// waitForRateLimit enforces the minimum interval between outbound API calls
func (s *Service) waitForRateLimit() {
	s.rateLimitMutex.Lock()
	defer s.rateLimitMutex.Unlock()

	if !s.lastRequest.IsZero() {
		elapsed := time.Since(s.lastRequest)
		if elapsed < s.config.PlacesAPI.RateLimit {
			time.Sleep(s.config.PlacesAPI.RateLimit - elapsed)
		}
	}
	s.lastRequest = time.Now()
}

// ResolvePlaceIDFromURL resolves a shared maps link to a place ID. It fetches
// the page, reads the place name from the itemprop meta tag, then runs the
// name through query autocomplete. Returns "" on any failure.
func (s *Service) ResolvePlaceIDFromURL(ctx context.Context, mapsURL string) string {
	if s.apiKey == "" || mapsURL == "" {
		return ""
	}

	name := s.extractPlaceName(ctx, mapsURL)
	if name == "" {
		s.logger.Debug().Str("url", mapsURL).Msg("No place name found in maps page")
		return ""
	}

	placeID := s.autocompletePlaceID(ctx, name)
	if placeID == "" {
		s.logger.Debug().Str("name", name).Msg("Autocomplete returned no predictions")
	}
	return placeID
}

func (s *Service) extractPlaceName(ctx context.Context, mapsURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mapsURL, nil)
	if err != nil {
		return ""
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Failed to fetch maps page")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	name, _ := doc.Find(`meta[itemprop="name"]`).Attr("content")
	return strings.TrimSpace(name)
}

func (s *Service) autocompletePlaceID(ctx context.Context, input string) string {
	s.waitForRateLimit()

	endpoint := fmt.Sprintf("%s/place/queryautocomplete/json?input=%s&types=geocode&key=%s",
		s.mapsBaseURL, url.QueryEscape(input), s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ""
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Autocomplete request failed")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var result autocompleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ""
	}

	if len(result.Predictions) == 0 {
		return ""
	}
	return result.Predictions[0].PlaceID
}

// FetchPlaceDetail retrieves the full place record for a place ID. The origin
// is a "lat,lng" string used to compute distance; pass "" to skip distance.
// Returns nil on any failure.
func (s *Service) FetchPlaceDetail(ctx context.Context, placeID, origin string) *models.PlaceDetail {
	if s.apiKey == "" || placeID == "" {
		return nil
	}

	s.waitForRateLimit()

	endpoint := fmt.Sprintf("%s/places/%s", s.placesBaseURL, url.PathEscape(placeID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("X-Goog-Api-Key", s.apiKey)
	req.Header.Set("X-Goog-FieldMask", detailFieldMask)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn().Err(err).Str("place_id", placeID).Msg("Place detail request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Warn().
			Int("status", resp.StatusCode).
			Str("place_id", placeID).
			Str("body", string(body)).
			Msg("Place detail returned non-OK status")
		return nil
	}

	var place placeResult
	if err := json.NewDecoder(resp.Body).Decode(&place); err != nil {
		s.logger.Warn().Err(err).Str("place_id", placeID).Msg("Failed to decode place detail")
		return nil
	}

	detail := s.projectPlace(&place, origin, detailReviewLimit)
	s.applyAddressComponents(&place, detail)
	return detail
}

// SearchNearby runs one text search per type query, splitting the configured
// result budget evenly across the queries. Queries that fail or return
// nothing simply contribute no results.
func (s *Service) SearchNearby(ctx context.Context, origin string, radiusMeters int, typeQueries []string) []models.PlaceDetail {
	if s.apiKey == "" || len(typeQueries) == 0 {
		return []models.PlaceDetail{}
	}

	if radiusMeters <= 0 {
		radiusMeters = s.config.PlacesAPI.DefaultRadius
	}

	budgets := distributeBudget(s.config.PlacesAPI.NearbyBudget, len(typeQueries))
	results := make([]models.PlaceDetail, 0, s.config.PlacesAPI.NearbyBudget)

	for i, query := range typeQueries {
		if budgets[i] <= 0 {
			continue
		}

		page, _, err := s.searchTextPage(ctx, query, origin, radiusMeters, budgets[i], "")
		if err != nil {
			s.logger.Warn().Err(err).Str("query", query).Msg("Nearby search query failed")
			continue
		}

		for j := range page {
			if detail := s.projectPlace(&page[j], origin, searchReviewLimit); detail != nil {
				results = append(results, *detail)
			}
		}
	}

	s.logger.Info().
		Int("queries", len(typeQueries)).
		Int("results", len(results)).
		Msg("Nearby search complete")
	return results
}

// SearchByText runs a single text search, following page tokens until the
// configured result cap is reached or the API stops returning pages.
func (s *Service) SearchByText(ctx context.Context, query, origin string, radiusMeters int) []models.PlaceDetail {
	if s.apiKey == "" || query == "" {
		return []models.PlaceDetail{}
	}

	if radiusMeters <= 0 {
		radiusMeters = s.config.PlacesAPI.DefaultRadius
	}

	limit := s.config.PlacesAPI.TextSearchCap
	results := make([]models.PlaceDetail, 0, limit)
	pageToken := ""

	for len(results) < limit {
		page, nextToken, err := s.searchTextPage(ctx, query, origin, radiusMeters, searchPageSize, pageToken)
		if err != nil {
			s.logger.Warn().Err(err).Str("query", query).Msg("Text search page failed")
			break
		}

		for j := range page {
			if len(results) >= limit {
				break
			}
			if detail := s.projectPlace(&page[j], origin, searchReviewLimit); detail != nil {
				results = append(results, *detail)
			}
		}

		if nextToken == "" {
			break
		}
		pageToken = nextToken
	}

	s.logger.Info().
		Str("query", query).
		Int("results", len(results)).
		Msg("Text search complete")
	return results
}

func (s *Service) searchTextPage(ctx context.Context, query, origin string, radiusMeters, pageSize int, pageToken string) ([]placeResult, string, error) {
	s.waitForRateLimit()

	payload := textSearchRequest{
		TextQuery:      query,
		PageSize:       pageSize,
		PageToken:      pageToken,
		OpenNow:        true,
		RankPreference: "RELEVANCE",
	}

	if lat, lng, err := common.ParseLatLng(origin); err == nil {
		payload.LocationBias = &locationBias{
			Circle: circle{
				Center: latLng{Latitude: lat, Longitude: lng},
				Radius: float64(radiusMeters),
			},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal search request: %w", err)
	}

	endpoint := s.placesBaseURL + "/places:searchText"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", s.apiKey)
	req.Header.Set("X-Goog-FieldMask", searchFieldMask)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result textSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", fmt.Errorf("failed to decode search response: %w", err)
	}

	return result.Places, result.NextPageToken, nil
}

// projectPlace converts an API place into the domain model, computing
// distance from origin and keeping the top reviews by rating.
func (s *Service) projectPlace(place *placeResult, origin string, reviewLimit int) *models.PlaceDetail {
	if place == nil || place.ID == "" {
		return nil
	}

	detail := &models.PlaceDetail{
		PlaceID:         place.ID,
		Address:         place.FormattedAddress,
		Rating:          place.Rating,
		UserRatingCount: place.UserRatingCount,
		PrimaryType:     place.PrimaryType,
		Types:           place.Types,
		IntlPhoneNumber: place.IntlPhoneNumber,
		NatlPhoneNumber: place.NatlPhoneNumber,
		PriceLevel:      place.PriceLevel,
		WebsiteURI:      place.WebsiteURI,
	}

	if place.DisplayName != nil {
		detail.Title = place.DisplayName.Text
	}
	if place.EditorialSummary != nil {
		detail.EditorialSummary = place.EditorialSummary.Text
	}
	if place.PlusCode != nil {
		detail.PlusCode = place.PlusCode.GlobalCode
	}

	hours := place.CurrentOpeningHours
	if hours == nil {
		hours = place.RegularOpeningHours
	}
	if hours != nil {
		detail.OpeningHours = hours.WeekdayDescriptions
	}

	if place.Location != nil {
		detail.Location = models.Location{
			Latitude:  place.Location.Latitude,
			Longitude: place.Location.Longitude,
		}
		if lat, lng, err := common.ParseLatLng(origin); err == nil {
			detail.DistanceMiles = common.Distance(lat, lng, place.Location.Latitude, place.Location.Longitude)
		}
	}

	for _, p := range place.Photos {
		if p.Name != "" {
			detail.PhotoURLs = append(detail.PhotoURLs, s.photoURL(p.Name))
		}
	}

	detail.Reviews = topReviews(place.Reviews, reviewLimit)
	return detail
}

// applyAddressComponents fills city/state/country/postal code from the
// structured address components on a detail response.
func (s *Service) applyAddressComponents(place *placeResult, detail *models.PlaceDetail) {
	for _, comp := range place.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "locality":
				detail.City = comp.LongText
			case "administrative_area_level_1":
				detail.State = comp.ShortText
			case "country":
				detail.Country = comp.LongText
			case "postal_code":
				detail.PostalCode = comp.LongText
			}
		}
	}
}

func (s *Service) photoURL(photoName string) string {
	return fmt.Sprintf("%s/%s/media?key=%s&maxWidthPx=%d&maxHeightPx=%d",
		s.placesBaseURL, photoName, s.apiKey, photoMaxPx, photoMaxPx)
}

// topReviews returns the n highest-rated reviews, converted to the domain model.
func topReviews(reviews []review, n int) []models.Review {
	if len(reviews) == 0 {
		return nil
	}

	sorted := make([]review, len(reviews))
	copy(sorted, reviews)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]models.Review, 0, len(sorted))
	for _, r := range sorted {
		m := models.Review{
			Rating:       r.Rating,
			Time:         r.PublishTime,
			RelativeTime: r.RelativeTime,
		}
		if r.Text != nil {
			m.Text = r.Text.Text
		}
		if r.AuthorAttribution != nil {
			m.AuthorName = r.AuthorAttribution.DisplayName
			m.AuthorURL = r.AuthorAttribution.URI
			m.ProfilePhotoURL = r.AuthorAttribution.PhotoURI
		}
		out = append(out, m)
	}
	return out
}

// distributeBudget splits total across n queries: each gets the even share,
// and the remainder goes to the earliest queries one result at a time.
func distributeBudget(total, n int) []int {
	if n <= 0 {
		return nil
	}

	base := total / n
	remainder := total % n

	budgets := make([]int, n)
	for i := range budgets {
		budgets[i] = base
		if i < remainder {
			budgets[i]++
		}
	}
	return budgets
}
