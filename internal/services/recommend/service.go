package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loci/internal/common"
	"github.com/ternarybob/loci/internal/interfaces"
	"github.com/ternarybob/loci/internal/models"
	"github.com/ternarybob/loci/internal/services/llm"
)

const (
	classifyAttempts = 3
	inferredTypeCap  = 9
	relevantPlaceCap = 12
)

// Service runs the oracle-backed classification and filtering stages that
// turn free-form model output into allow-listed structured results.
type Service struct {
	config      *common.Config
	logger      arbor.ILogger
	completion  interfaces.CompletionService
	profiles    interfaces.ProfileStorage
	savedPlaces interfaces.SavedPlaceStorage
}

func NewService(config *common.Config, completion interfaces.CompletionService, profiles interfaces.ProfileStorage, savedPlaces interfaces.SavedPlaceStorage, logger arbor.ILogger) *Service {
	return &Service{
		config:      config,
		logger:      logger,
		completion:  completion,
		profiles:    profiles,
		savedPlaces: savedPlaces,
	}
}

// InferPlaceTypes asks the oracle to pick place categories matching the
// user's taste. The result is always validated against the vocabulary and
// unioned with the fallback set; if every attempt parses to nothing, the
// fallback set alone is returned.
func (s *Service) InferPlaceTypes(ctx context.Context, email string) ([]string, error) {
	userContext := s.BuildUserContext(ctx, email)

	prompt := fmt.Sprintf(`Based on this user's profile and saved places, pick up to %d place categories they would most enjoy visiting.

%s
Allowed categories: %s

Respond with only a JSON array of category strings, e.g. ["museum", "cafe"].`,
		inferredTypeCap, userContext, strings.Join(Vocabulary, ", "))

	attempt := func(ctx context.Context) ([]string, error) {
		response, err := s.completion.Complete(ctx, prompt)
		if err != nil {
			return nil, err
		}

		tags, err := parseStringList(response)
		if err != nil {
			// Unparseable counts as empty so the capped retry kicks in
			s.logger.Warn().Err(err).Msg("Type inference response did not parse")
			return nil, nil
		}

		filtered := FilterToVocabulary(tags)
		if len(filtered) > inferredTypeCap {
			filtered = filtered[:inferredTypeCap]
		}
		return filtered, nil
	}

	inferred, err := llm.Retry(ctx, classifyAttempts, attempt, func(tags []string) bool {
		return len(tags) > 0
	})
	if err != nil {
		return nil, fmt.Errorf("type inference failed: %w", err)
	}

	result := unionFallback(inferred)
	s.logger.Debug().
		Str("email", email).
		Strs("types", result).
		Msg("Inferred place types")
	return result, nil
}

// FilterRelevantPlaces asks the oracle to rank the candidates for this user
// and returns the survivors in the oracle's order, capped. Identifiers the
// oracle invents are dropped.
func (s *Service) FilterRelevantPlaces(ctx context.Context, email string, candidates []models.PlaceDetail, weatherHint string) ([]models.PlaceDetail, error) {
	return s.filterCandidates(ctx, email, candidates, weatherHint, "")
}

// FilterRelevantPlacesForQuery is FilterRelevantPlaces with a free-text query
// foregrounded as the primary relevance signal.
func (s *Service) FilterRelevantPlacesForQuery(ctx context.Context, query, email string, candidates []models.PlaceDetail, weatherHint string) ([]models.PlaceDetail, error) {
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	return s.filterCandidates(ctx, email, candidates, weatherHint, query)
}

func (s *Service) filterCandidates(ctx context.Context, email string, candidates []models.PlaceDetail, weatherHint, query string) ([]models.PlaceDetail, error) {
	if len(candidates) == 0 {
		return []models.PlaceDetail{}, nil
	}

	userContext := s.BuildUserContext(ctx, email)

	var sb strings.Builder
	if query != "" {
		fmt.Fprintf(&sb, "The user is searching for: %q. Treat this as the primary relevance signal.\n\n", query)
	}
	fmt.Fprintf(&sb, "Pick the places from the candidate list below that best fit this user, ranked best first, at most %d.\n\n", relevantPlaceCap)
	sb.WriteString(userContext)
	if weatherHint != "" {
		fmt.Fprintf(&sb, "Current weather: %s\n", weatherHint)
	}
	sb.WriteString("\nCandidates:\n")
	for _, c := range candidates {
		fmt.Fprintf(&sb, "- %s: %s", c.PlaceID, c.Title)
		if len(c.Types) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(c.Types, ", "))
		}
		if c.Rating > 0 {
			fmt.Fprintf(&sb, " rated %.1f", c.Rating)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nRespond with only a JSON array of the chosen place IDs, best first.")

	response, err := s.completion.Complete(ctx, sb.String())
	if err != nil {
		return nil, fmt.Errorf("relevance filter failed: %w", err)
	}

	ids, err := parseStringList(response)
	if err != nil {
		return nil, fmt.Errorf("relevance filter response invalid: %w", err)
	}

	byID := make(map[string]*models.PlaceDetail, len(candidates))
	for i := range candidates {
		byID[candidates[i].PlaceID] = &candidates[i]
	}

	var filtered []models.PlaceDetail
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if len(filtered) >= relevantPlaceCap {
			break
		}
		candidate, known := byID[id]
		if !known || seen[id] {
			continue
		}
		filtered = append(filtered, *candidate)
		seen[id] = true
	}

	s.logger.Debug().
		Str("email", email).
		Int("candidates", len(candidates)).
		Int("kept", len(filtered)).
		Msg("Filtered relevant places")
	return filtered, nil
}

// RouteQuery asks the oracle whether a free-text query should be answered
// with a text search or a category search. A response that does not parse to
// exactly one of the two shapes is an error the caller must handle; there is
// no fallback routing.
func (s *Service) RouteQuery(ctx context.Context, query string) (*models.SearchRoutingDecision, error) {
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	prompt := fmt.Sprintf(`Decide how to answer this place search query: %q

Either route it to a free-text search (for specific names, cuisines, or phrases) or to a category search using the allowed categories below.

Allowed categories: %s

Respond with only a JSON object in one of these two shapes:
{"use_text_search": true, "text_query": "<search phrase>", "place_types": []}
{"use_text_search": false, "text_query": "", "place_types": ["<category>", ...]}`,
		query, strings.Join(Vocabulary, ", "))

	response, err := s.completion.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("query routing failed: %w", err)
	}

	payload, err := parseRoutingPayload(response)
	if err != nil {
		return nil, fmt.Errorf("query routing response invalid: %w", err)
	}

	if payload.UseTextSearch {
		if strings.TrimSpace(payload.TextQuery) == "" {
			return nil, fmt.Errorf("routing chose text search but gave no query")
		}
		return &models.SearchRoutingDecision{
			UseTextSearch: true,
			TextQuery:     strings.TrimSpace(payload.TextQuery),
		}, nil
	}

	types := FilterToVocabulary(payload.PlaceTypes)
	if len(types) == 0 {
		return nil, fmt.Errorf("routing chose category search but gave no valid categories")
	}
	return &models.SearchRoutingDecision{PlaceTypes: types}, nil
}

// unionFallback merges the fallback tags into inferred, preserving the
// inferred order first.
func unionFallback(inferred []string) []string {
	seen := make(map[string]bool, len(inferred)+len(FallbackTypes))
	out := make([]string, 0, len(inferred)+len(FallbackTypes))
	for _, tag := range inferred {
		if !seen[tag] {
			out = append(out, tag)
			seen[tag] = true
		}
	}
	for _, tag := range FallbackTypes {
		if !seen[tag] {
			out = append(out, tag)
			seen[tag] = true
		}
	}
	return out
}
