package recommend

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripCodeFence removes a surrounding markdown code fence, if present.
// Models frequently wrap JSON answers in ```json blocks despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseStringList parses an oracle response expected to be a JSON array of
// strings. Falls back to extracting the first bracketed block when the model
// adds prose around the array.
func parseStringList(response string) ([]string, error) {
	text := stripCodeFence(response)

	var list []string
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return list, nil
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &list); err == nil {
			return list, nil
		}
	}

	return nil, fmt.Errorf("response is not a JSON string array: %q", truncateForError(response))
}

// routingPayload is the JSON shape the routing oracle is asked to produce
type routingPayload struct {
	UseTextSearch bool     `json:"use_text_search"`
	TextQuery     string   `json:"text_query"`
	PlaceTypes    []string `json:"place_types"`
}

func parseRoutingPayload(response string) (*routingPayload, error) {
	text := stripCodeFence(response)

	var payload routingPayload
	if err := json.Unmarshal([]byte(text), &payload); err == nil {
		return &payload, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err == nil {
			return &payload, nil
		}
	}

	return nil, fmt.Errorf("response is not a routing decision: %q", truncateForError(response))
}

func truncateForError(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
