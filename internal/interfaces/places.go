package interfaces

import (
	"context"

	"github.com/ternarybob/loci/internal/models"
)

// PlacesService defines the interface for place resolution and search.
//
// Failure semantics follow the pipeline contract: transport and upstream
// failures are converted to empty results at the point of call, never
// propagated as errors. FetchPlaceDetail distinguishes nil ("not found")
// from an empty search result ("no matches").
type PlacesService interface {
	// ResolvePlaceIDFromURL fetches a shared-link URL, extracts the place
	// name from page metadata, and resolves it to a place ID via
	// autocomplete. Returns "" when the page has no name metadata, no
	// prediction matches, or any transport/parse step fails.
	ResolvePlaceIDFromURL(ctx context.Context, url string) string

	// FetchPlaceDetail fetches a single place with the fixed field
	// projection, computing distance from origin ("lat,lng").
	// Returns nil on non-success status or transport failure.
	FetchPlaceDetail(ctx context.Context, placeID, origin string) *models.PlaceDetail

	// SearchNearby issues one text-search call per type query, partitioning
	// the total result budget as evenly as possible across queries, and
	// concatenates the results.
	SearchNearby(ctx context.Context, origin string, radiusMeters int, typeQueries []string) []models.PlaceDetail

	// SearchByText paginates a text search until the result cap is reached
	// or no continuation token remains. A failed page fetch stops pagination
	// and returns whatever was accumulated.
	SearchByText(ctx context.Context, query, origin string, radiusMeters int) []models.PlaceDetail
}
