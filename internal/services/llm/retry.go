package llm

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TransportRetryConfig defines retry behavior for rate-limited API calls.
// Configured around observed quota windows of roughly a minute.
type TransportRetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// NewTransportRetryConfig returns a TransportRetryConfig with defaults
// suited to rate-limit handling.
func NewTransportRetryConfig() *TransportRetryConfig {
	return &TransportRetryConfig{
		MaxRetries:        3,
		InitialBackoff:    45 * time.Second,
		MaxBackoff:        90 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// IsRateLimitError checks if an error is an upstream rate limit error.
// Matches 429 status codes and RESOURCE_EXHAUSTED errors.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from an error
// message. Returns 0 if no delay is found.
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// CalculateBackoff computes the backoff duration for a given attempt.
// If apiDelay > 0 (from ExtractRetryDelay), it's used as the base;
// otherwise InitialBackoff. The result is capped at MaxBackoff.
func (c *TransportRetryConfig) CalculateBackoff(attempt int, apiDelay time.Duration) time.Duration {
	base := c.InitialBackoff
	if apiDelay > 0 {
		base = apiDelay
	}

	backoff := time.Duration(float64(base) * pow(c.BackoffMultiplier, float64(attempt)))
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}
	return backoff
}

// Retry calls fn up to maxAttempts times until acceptable returns true for
// its result. This is the semantic retry used by classification stages:
// transport errors are NOT retried here (the providers own those); only a
// successful-but-unacceptable result (e.g. empty after vocabulary
// filtering) triggers another attempt. The last result is returned
// regardless of acceptability so callers can apply their fallback.
func Retry[T any](ctx context.Context, maxAttempts int, fn func(context.Context) (T, error), acceptable func(T) bool) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		result, err = fn(ctx)
		if err != nil {
			return result, err
		}
		if acceptable(result) {
			return result, nil
		}
	}

	return result, nil
}

// pow calculates base^exp for float64
func pow(base, exp float64) float64 {
	result := 1.0
	for i := 0; i < int(exp); i++ {
		result *= base
	}
	return result
}
