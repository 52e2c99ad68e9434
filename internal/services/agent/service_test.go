package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/loci/internal/common"
	"github.com/ternarybob/loci/internal/models"
)

// scriptedOracle answers prompts by matching markers, so tests can script
// the sufficiency, proposal, and synthesis calls independently
type scriptedOracle struct {
	sufficiency []string
	proposals   []string
	synthesis   string
	calls       []string
}

func (o *scriptedOracle) Complete(ctx context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "Answer only yes or no"):
		o.calls = append(o.calls, "sufficiency")
		if len(o.sufficiency) == 0 {
			return "no", nil
		}
		answer := o.sufficiency[0]
		o.sufficiency = o.sufficiency[1:]
		return answer, nil
	case strings.Contains(prompt, "Respond with only the query text"):
		o.calls = append(o.calls, "proposal")
		if len(o.proposals) == 0 {
			return "", fmt.Errorf("no proposal scripted")
		}
		proposal := o.proposals[0]
		o.proposals = o.proposals[1:]
		return proposal, nil
	default:
		o.calls = append(o.calls, "synthesis")
		return o.synthesis, nil
	}
}

func (o *scriptedOracle) Close() error { return nil }

type stubSearch struct {
	results map[string][]models.SearchResult
	queries []string
}

func (s *stubSearch) Search(ctx context.Context, query string, n int) ([]models.SearchResult, error) {
	s.queries = append(s.queries, query)
	if results, found := s.results[query]; found {
		return results, nil
	}
	// Linkless placeholder, the "nothing found" shape
	return []models.SearchResult{{Snippet: "no results"}}, nil
}

type stubFetcher struct {
	pages map[string]string
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if text, found := f.pages[url]; found {
		return text, nil
	}
	return "", fmt.Errorf("fetch failed: %s", url)
}

type stubContext struct{}

func (stubContext) BuildUserContext(ctx context.Context, email string) string {
	return "Interests: geology, hiking\n"
}

func newTestService(oracle *scriptedOracle, search *stubSearch, fetcher *stubFetcher) *Service {
	config := common.NewDefaultConfig()
	config.Agent.CallDelay = 0
	return NewService(config, oracle, search, fetcher, stubContext{}, common.GetLogger())
}

func grandCanyon() *models.PlaceDetail {
	return &models.PlaceDetail{
		PlaceID: "ChIJgrandcanyon",
		Title:   "Grand Canyon National Park",
		Address: "Arizona, USA",
		Types:   []string{"park", "tourist_attraction"},
		Rating:  4.8,
	}
}

func TestGenerateFactsPlaceholderSearchStopsEarly(t *testing.T) {
	oracle := &scriptedOracle{synthesis: "The Grand Canyon exposes two billion years of rock."}
	search := &stubSearch{results: map[string][]models.SearchResult{}}
	svc := newTestService(oracle, search, &stubFetcher{})

	facts, err := svc.GeneratePersonalizedFacts(context.Background(), "alice@example.com", grandCanyon())
	require.NoError(t, err)
	assert.NotEmpty(t, facts)

	// No website and no snippets: sufficiency is automatic-no, one search with
	// the place title, placeholder result ends the loop, synthesis still runs.
	assert.Equal(t, []string{"Grand Canyon National Park"}, search.queries)
	assert.Equal(t, []string{"synthesis"}, oracle.calls)
}

func TestGenerateFactsWebsiteSufficient(t *testing.T) {
	oracle := &scriptedOracle{
		sufficiency: []string{"yes"},
		synthesis:   "Given your love of hiking, the rim trail is a must.",
	}
	search := &stubSearch{}
	fetcher := &stubFetcher{pages: map[string]string{
		"https://nps.gov/grca": "Official park site content about trails and geology.",
	}}
	svc := newTestService(oracle, search, fetcher)

	place := grandCanyon()
	place.WebsiteURI = "https://nps.gov/grca"

	facts, err := svc.GeneratePersonalizedFacts(context.Background(), "alice@example.com", place)
	require.NoError(t, err)
	assert.NotEmpty(t, facts)

	assert.Empty(t, search.queries, "sufficient website content means no search")
	assert.Equal(t, []string{"sufficiency", "synthesis"}, oracle.calls)
}

func TestGenerateFactsAugmentsUntilSufficient(t *testing.T) {
	oracle := &scriptedOracle{
		sufficiency: []string{"no", "yes"},
		synthesis:   "The canyon's oldest rocks formed before complex life existed.",
	}
	search := &stubSearch{results: map[string][]models.SearchResult{
		"Grand Canyon National Park": {
			{Link: "https://geology.example/gc", Title: "Canyon geology", Snippet: "rock layers"},
		},
	}}
	fetcher := &stubFetcher{pages: map[string]string{
		"https://nps.gov/grca":       "Park overview.",
		"https://geology.example/gc": "Vishnu schist at the bottom is 1.8 billion years old.",
	}}
	svc := newTestService(oracle, search, fetcher)

	place := grandCanyon()
	place.WebsiteURI = "https://nps.gov/grca"

	facts, err := svc.GeneratePersonalizedFacts(context.Background(), "alice@example.com", place)
	require.NoError(t, err)
	assert.NotEmpty(t, facts)

	assert.Equal(t, []string{"Grand Canyon National Park"}, search.queries)
	assert.Equal(t, []string{"sufficiency", "sufficiency", "synthesis"}, oracle.calls)
}

func TestGenerateFactsHonorsIterationLimit(t *testing.T) {
	oracle := &scriptedOracle{
		proposals: []string{"grand canyon history", "grand canyon wildlife"},
		synthesis: "A condor's wingspan can top nine feet.",
	}
	search := &stubSearch{results: map[string][]models.SearchResult{
		"Grand Canyon National Park": {{Link: "https://a.example", Title: "A"}},
		"grand canyon history":       {{Link: "https://b.example", Title: "B"}},
		"grand canyon wildlife":      {{Link: "https://c.example", Title: "C"}},
	}}
	fetcher := &stubFetcher{pages: map[string]string{
		"https://a.example": "text a",
		"https://b.example": "text b",
		"https://c.example": "text c",
	}}
	svc := newTestService(oracle, search, fetcher)

	facts, err := svc.GeneratePersonalizedFacts(context.Background(), "alice@example.com", grandCanyon())
	require.NoError(t, err)
	assert.NotEmpty(t, facts)

	assert.Len(t, search.queries, 3, "augmentation is capped")
	assert.Equal(t, "synthesis", oracle.calls[len(oracle.calls)-1])
}

func TestGenerateFactsSkipsVisitedURLs(t *testing.T) {
	oracle := &scriptedOracle{
		sufficiency: []string{"no", "yes"},
		synthesis:   "paragraph",
	}
	search := &stubSearch{results: map[string][]models.SearchResult{
		"Grand Canyon National Park": {
			{Link: "https://nps.gov/grca", Title: "Already visited"},
			{Link: "https://fresh.example", Title: "Fresh"},
		},
	}}
	fetcher := &stubFetcher{pages: map[string]string{
		"https://nps.gov/grca":  "Park overview.",
		"https://fresh.example": "New material.",
	}}
	svc := newTestService(oracle, search, fetcher)

	place := grandCanyon()
	place.WebsiteURI = "https://nps.gov/grca"

	_, err := svc.GeneratePersonalizedFacts(context.Background(), "alice@example.com", place)
	require.NoError(t, err)
}

func TestGenerateFactsNilDetail(t *testing.T) {
	svc := newTestService(&scriptedOracle{}, &stubSearch{}, &stubFetcher{})
	_, err := svc.GeneratePersonalizedFacts(context.Background(), "alice@example.com", nil)
	assert.Error(t, err)
}

func TestUsableResults(t *testing.T) {
	assert.False(t, usableResults(nil))
	assert.False(t, usableResults([]models.SearchResult{{Snippet: "placeholder"}}))
	assert.True(t, usableResults([]models.SearchResult{{Link: "https://x"}}))
}
