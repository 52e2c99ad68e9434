package models

// SearchRoutingDecision is the oracle's choice between a free-text search
// and a category (nearby) search. Exactly one payload is populated:
// TextQuery when UseTextSearch is true, PlaceTypes otherwise. An unparseable
// oracle response yields no decision at all rather than an empty one.
type SearchRoutingDecision struct {
	UseTextSearch bool     `json:"use_text_search"`
	TextQuery     string   `json:"text_query,omitempty"`
	PlaceTypes    []string `json:"place_types,omitempty"`
}
