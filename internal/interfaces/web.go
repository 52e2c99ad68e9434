package interfaces

import (
	"context"

	"github.com/ternarybob/loci/internal/models"
)

// WebSearchService defines the interface for the web search oracle
type WebSearchService interface {
	// Search runs a web search and returns up to n results
	Search(ctx context.Context, query string, n int) ([]models.SearchResult, error)
}

// ContentFetcher defines the interface for the page content oracle
type ContentFetcher interface {
	// Fetch retrieves a URL and returns its cleaned text content
	Fetch(ctx context.Context, url string) (string, error)
}
