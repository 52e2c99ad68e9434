package websearch

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/loci/internal/common"
	"github.com/ternarybob/loci/internal/interfaces"
	"github.com/ternarybob/loci/internal/models"
	"github.com/ternarybob/loci/internal/services/llm"
)

const searchTimeout = 2 * time.Minute

// Service implements interfaces.WebSearchService using the Gemini SDK with
// GoogleSearch grounding. Result links and titles come from the grounding
// chunks; the model's answer text becomes the snippet.
type Service struct {
	config *common.Config
	logger arbor.ILogger
	client *genai.Client
}

func NewService(ctx context.Context, config *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (interfaces.WebSearchService, error) {
	apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "gemini_api_key", config.Gemini.APIKey)
	if err != nil {
		return nil, fmt.Errorf("gemini API key not configured for web search: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Service{
		config: config,
		logger: logger,
		client: client,
	}, nil
}

// Search runs a grounded web search and returns up to n results. An empty
// result slice with a nil error means the search completed but nothing was
// grounded.
func (s *Service) Search(ctx context.Context, query string, n int) ([]models.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if n <= 0 {
		n = s.config.WebSearch.MaxResults
	}

	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	searchTool := &genai.Tool{GoogleSearch: &genai.GoogleSearch{}}
	genConfig := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{searchTool},
	}

	prompt := fmt.Sprintf(`Search the web for the following query and summarize what you find with specific facts.

Query: %s`, query)

	retryConfig := llm.NewTransportRetryConfig()

	var resp *genai.GenerateContentResponse
	var apiErr error

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		resp, apiErr = s.client.Models.GenerateContent(
			searchCtx,
			s.config.WebSearch.Model,
			[]*genai.Content{
				genai.NewContentFromText(prompt, genai.RoleUser),
			},
			genConfig,
		)
		if apiErr == nil {
			break
		}
		if attempt == retryConfig.MaxRetries {
			break
		}

		backoff := retryConfig.CalculateBackoff(attempt, llm.ExtractRetryDelay(apiErr))
		if !llm.IsRateLimitError(apiErr) {
			backoff = time.Duration(attempt+1) * 2 * time.Second
		}

		s.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Str("query", query).
			Err(apiErr).
			Msg("Retrying web search")

		select {
		case <-searchCtx.Done():
			return nil, searchCtx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return nil, fmt.Errorf("web search failed: %w", apiErr)
	}

	results := extractResults(resp, n)

	s.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Web search complete")
	return results, nil
}

func extractResults(resp *genai.GenerateContentResponse, n int) []models.SearchResult {
	results := []models.SearchResult{}
	if resp == nil || len(resp.Candidates) == 0 {
		return results
	}

	candidate := resp.Candidates[0]

	var summary string
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				summary += part.Text
			}
		}
	}

	if candidate.GroundingMetadata != nil && candidate.GroundingMetadata.GroundingChunks != nil {
		for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil {
				continue
			}
			results = append(results, models.SearchResult{
				Link:    chunk.Web.URI,
				Title:   chunk.Web.Title,
				Snippet: summary,
			})
			if len(results) >= n {
				break
			}
		}
	}

	// Grounding can come back empty even when the model answered. Surface the
	// answer as a linkless result so callers can still use it.
	if len(results) == 0 && summary != "" {
		results = append(results, models.SearchResult{Snippet: summary})
	}

	return results
}
