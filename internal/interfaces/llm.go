package interfaces

import (
	"context"
)

// CompletionService defines the interface for the generative text oracle.
// Stateless: each call is a single prompt with no conversation memory.
type CompletionService interface {
	// Complete sends one prompt and returns the model's text response.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - prompt: Full prompt text, including any embedded context
	//
	// Returns:
	//   - string: Generated response text
	//   - error: Error if the completion fails
	Complete(ctx context.Context, prompt string) (string, error)

	// Close releases provider resources
	Close() error
}
