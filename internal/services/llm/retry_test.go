package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryAcceptableFirstTry(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), 3, func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"museum"}, nil
	}, func(r []string) bool { return len(r) > 0 })

	require.NoError(t, err)
	assert.Equal(t, []string{"museum"}, result)
	assert.Equal(t, 1, calls)
}

func TestRetryUntilAcceptable(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), 3, func(ctx context.Context) ([]string, error) {
		calls++
		if calls < 2 {
			return nil, nil
		}
		return []string{"park"}, nil
	}, func(r []string) bool { return len(r) > 0 })

	require.NoError(t, err)
	assert.Equal(t, []string{"park"}, result)
	assert.Equal(t, 2, calls)
}

func TestRetryExhaustedReturnsLastResult(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), 3, func(ctx context.Context) ([]string, error) {
		calls++
		return []string{}, nil
	}, func(r []string) bool { return len(r) > 0 })

	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Equal(t, 3, calls)
}

func TestRetryErrorNotRetried(t *testing.T) {
	calls := 0
	boom := errors.New("upstream failure")
	_, err := Retry(context.Background(), 3, func(ctx context.Context) (string, error) {
		calls++
		return "", boom
	}, func(r string) bool { return r != "" })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Retry(ctx, 3, func(ctx context.Context) (string, error) {
		calls++
		return "", nil
	}, func(r string) bool { return r != "" })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestIsRateLimitError(t *testing.T) {
	assert.False(t, IsRateLimitError(nil))
	assert.False(t, IsRateLimitError(errors.New("connection refused")))
	assert.True(t, IsRateLimitError(errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED")))
	assert.True(t, IsRateLimitError(errors.New("quota exceeded for model")))
}

func TestExtractRetryDelay(t *testing.T) {
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(nil))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(errors.New("no hint here")))
	assert.Equal(t, 30*time.Second, ExtractRetryDelay(errors.New("rate limited. Please retry in 30s")))
	assert.Equal(t, 12500*time.Millisecond, ExtractRetryDelay(errors.New("retryDelay: 12.5s")))
}

func TestCalculateBackoff(t *testing.T) {
	cfg := NewTransportRetryConfig()

	assert.Equal(t, 45*time.Second, cfg.CalculateBackoff(0, 0))
	assert.Equal(t, 30*time.Second, cfg.CalculateBackoff(0, 30*time.Second))
	// Capped at MaxBackoff once the multiplier pushes past it.
	assert.Equal(t, 90*time.Second, cfg.CalculateBackoff(3, 0))
}
