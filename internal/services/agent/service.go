package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loci/internal/common"
	"github.com/ternarybob/loci/internal/interfaces"
	"github.com/ternarybob/loci/internal/models"
)

// UserContextBuilder supplies the profile/history bundle used in prompts
type UserContextBuilder interface {
	BuildUserContext(ctx context.Context, email string) string
}

// Service runs the bounded fact-sufficiency loop: gather context about a
// place, ask the oracle whether it is enough, augment via web search and
// fetch when it is not, then synthesize one personalized paragraph.
type Service struct {
	config      *common.Config
	logger      arbor.ILogger
	completion  interfaces.CompletionService
	search      interfaces.WebSearchService
	fetcher     interfaces.ContentFetcher
	userContext UserContextBuilder
}

func NewService(config *common.Config, completion interfaces.CompletionService, search interfaces.WebSearchService, fetcher interfaces.ContentFetcher, userContext UserContextBuilder, logger arbor.ILogger) *Service {
	return &Service{
		config:      config,
		logger:      logger,
		completion:  completion,
		search:      search,
		fetcher:     fetcher,
		userContext: userContext,
	}
}

// GeneratePersonalizedFacts produces a single personalized paragraph about a
// place. The loop is a fold over AgentContext: every iteration produces a new
// context value, which keeps the state machine testable with canned oracles.
func (s *Service) GeneratePersonalizedFacts(ctx context.Context, email string, detail *models.PlaceDetail) (string, error) {
	if detail == nil || detail.PlaceID == "" {
		return "", fmt.Errorf("place detail required")
	}

	profileText := s.userContext.BuildUserContext(ctx, email)
	ac := models.NewAgentContext()

	// The place's own website is the best first source when it exists
	if detail.WebsiteURI != "" {
		if text, err := s.fetcher.Fetch(ctx, detail.WebsiteURI); err == nil && text != "" {
			ac = ac.WithSnippet(models.Snippet{
				Source: detail.WebsiteURI,
				Title:  detail.Title,
				Text:   text,
			})
		} else if err != nil {
			s.logger.Debug().Err(err).Str("url", detail.WebsiteURI).Msg("Website fetch failed, continuing without it")
		}
	}

	for {
		if s.isSufficient(ctx, detail, ac) {
			ac.Sufficient = true
			break
		}
		if ac.Iterations >= s.config.Agent.MaxIterations {
			s.logger.Debug().
				Str("place_id", detail.PlaceID).
				Int("iterations", ac.Iterations).
				Msg("Iteration limit reached, synthesizing with gathered context")
			break
		}

		next, usable := s.augment(ctx, detail, ac)
		ac = next
		if !usable {
			s.logger.Debug().
				Str("place_id", detail.PlaceID).
				Msg("Augmentation yielded nothing usable, synthesizing early")
			break
		}
	}

	return s.synthesize(ctx, detail, profileText, ac)
}

// isSufficient asks the yes/no oracle whether the gathered snippets are
// enough. An empty snippet set is automatically insufficient.
func (s *Service) isSufficient(ctx context.Context, detail *models.PlaceDetail, ac models.AgentContext) bool {
	if len(ac.Snippets) == 0 {
		return false
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are judging research notes about %s.\n\nNotes:\n", detail.Title)
	for _, snippet := range ac.Snippets {
		fmt.Fprintf(&sb, "--- %s (%s)\n%s\n", snippet.Title, snippet.Source, snippet.Text)
	}
	sb.WriteString("\nIs this enough material to write a short personalized paragraph of interesting facts about this place? Answer only yes or no.")

	response, err := s.completion.Complete(ctx, sb.String())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Sufficiency check failed, treating as insufficient")
		return false
	}

	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(response)), "yes")
}

// augment runs one search/fetch round. Returns the updated context plus
// whether the round produced anything usable; false is terminal.
func (s *Service) augment(ctx context.Context, detail *models.PlaceDetail, ac models.AgentContext) (models.AgentContext, bool) {
	query := detail.Title
	if len(ac.TriedQueries) > 0 {
		proposed, err := s.proposeQuery(ctx, detail, ac.TriedQueries)
		if err != nil || proposed == "" {
			return ac, false
		}
		query = proposed
	}
	ac = ac.WithQuery(query)

	results, err := s.search.Search(ctx, query, s.config.WebSearch.MaxResults)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query).Msg("Web search failed during augmentation")
		return ac, false
	}
	if !usableResults(results) {
		return ac, false
	}

	fetched := 0
	for _, result := range results {
		if result.Link == "" || ac.VisitedURLs[result.Link] {
			continue
		}

		time.Sleep(s.config.Agent.CallDelay)

		text, err := s.fetcher.Fetch(ctx, result.Link)
		if err != nil || text == "" {
			// Unfetchable page: keep the search snippet so something is gathered
			text = result.Snippet
		}
		if text == "" {
			continue
		}

		ac = ac.WithSnippet(models.Snippet{
			Source: result.Link,
			Title:  result.Title,
			Text:   text,
		})
		fetched++
	}

	if fetched == 0 {
		return ac, false
	}
	return ac.WithIteration(), true
}

// proposeQuery asks the oracle for a fresh search query, excluding ones
// already tried.
func (s *Service) proposeQuery(ctx context.Context, detail *models.PlaceDetail, tried []string) (string, error) {
	prompt := fmt.Sprintf(`Propose one concise web search query to learn more interesting facts about %s (%s).
Do not repeat any of these already-tried queries: %s
Respond with only the query text.`,
		detail.Title, detail.Address, strings.Join(tried, "; "))

	response, err := s.completion.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	query := strings.Trim(strings.TrimSpace(response), `"'`)
	for _, t := range tried {
		if strings.EqualFold(t, query) {
			return "", fmt.Errorf("oracle repeated a tried query: %s", query)
		}
	}
	return query, nil
}

// synthesize issues the final oracle call over everything gathered. This runs
// even when the loop terminated without sufficiency.
func (s *Service) synthesize(ctx context.Context, detail *models.PlaceDetail, profileText string, ac models.AgentContext) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write one engaging paragraph of personalized facts about %s for this user.\n\n", detail.Title)

	if profileText != "" {
		fmt.Fprintf(&sb, "User context:\n%s\n", profileText)
	}

	sb.WriteString("Place details:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", detail.Title)
	if detail.Address != "" {
		fmt.Fprintf(&sb, "- Address: %s\n", detail.Address)
	}
	if len(detail.Types) > 0 {
		fmt.Fprintf(&sb, "- Categories: %s\n", strings.Join(detail.Types, ", "))
	}
	if detail.Rating > 0 {
		fmt.Fprintf(&sb, "- Rating: %.1f (%d reviews)\n", detail.Rating, detail.UserRatingCount)
	}
	if detail.EditorialSummary != "" {
		fmt.Fprintf(&sb, "- Summary: %s\n", detail.EditorialSummary)
	}

	if len(ac.Snippets) > 0 {
		sb.WriteString("\nResearch notes:\n")
		for _, snippet := range ac.Snippets {
			fmt.Fprintf(&sb, "--- %s (%s)\n%s\n", snippet.Title, snippet.Source, snippet.Text)
		}
	}

	sb.WriteString("\nRespond with only the paragraph. Connect the facts to the user's interests where natural; do not mention the research notes.")

	response, err := s.completion.Complete(ctx, sb.String())
	if err != nil {
		return "", fmt.Errorf("fact synthesis failed: %w", err)
	}

	facts := strings.TrimSpace(response)
	if facts == "" {
		return "", fmt.Errorf("fact synthesis returned empty text")
	}

	s.logger.Debug().
		Str("place_id", detail.PlaceID).
		Int("snippets", len(ac.Snippets)).
		Int("iterations", ac.Iterations).
		Bool("sufficient", ac.Sufficient).
		Msg("Generated personalized facts")
	return facts, nil
}

// usableResults reports whether a search round returned anything worth
// fetching. A single linkless result is the search oracle's placeholder for
// "nothing found".
func usableResults(results []models.SearchResult) bool {
	for _, r := range results {
		if r.Link != "" {
			return true
		}
	}
	return false
}
