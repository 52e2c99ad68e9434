package models

// SearchResult represents a single web search hit
type SearchResult struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Snippet is one unit of gathered context in the fact-generation loop
type Snippet struct {
	Source string `json:"source"`
	Title  string `json:"title"`
	Text   string `json:"text"`
}

// AgentContext carries the accumulated state of one fact-generation
// invocation. It lives only for the duration of that invocation; each loop
// iteration produces a new value rather than mutating shared state.
type AgentContext struct {
	Snippets     []Snippet
	TriedQueries []string
	VisitedURLs  map[string]bool
	Iterations   int
	Sufficient   bool
}

// NewAgentContext returns an empty loop context
func NewAgentContext() AgentContext {
	return AgentContext{
		VisitedURLs: make(map[string]bool),
	}
}

// WithSnippet returns a copy of the context with the snippet appended and
// its source URL marked visited
func (c AgentContext) WithSnippet(s Snippet) AgentContext {
	next := c
	next.Snippets = append(append([]Snippet{}, c.Snippets...), s)
	next.VisitedURLs = copyVisited(c.VisitedURLs)
	if s.Source != "" {
		next.VisitedURLs[s.Source] = true
	}
	return next
}

// WithIteration returns a copy of the context with the iteration count bumped
func (c AgentContext) WithIteration() AgentContext {
	next := c
	next.VisitedURLs = copyVisited(c.VisitedURLs)
	next.Iterations++
	return next
}

// WithQuery returns a copy of the context with the query recorded as tried
func (c AgentContext) WithQuery(query string) AgentContext {
	next := c
	next.TriedQueries = append(append([]string{}, c.TriedQueries...), query)
	next.VisitedURLs = copyVisited(c.VisitedURLs)
	return next
}

func copyVisited(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
