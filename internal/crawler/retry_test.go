package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShouldRetry(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy()
	someErr := errors.New("boom")

	require.True(t, p.ShouldRetry(429, 0, someErr))
	require.True(t, p.ShouldRetry(500, 1, someErr))
	require.True(t, p.ShouldRetry(503, 2, someErr))
	require.True(t, p.ShouldRetry(0, 0, someErr))

	// Non-transient HTTP statuses are final.
	require.False(t, p.ShouldRetry(403, 0, someErr))
	require.False(t, p.ShouldRetry(404, 0, someErr))

	// Attempt ceiling.
	require.False(t, p.ShouldRetry(500, 3, someErr))

	// Cancellation is never retried.
	require.False(t, p.ShouldRetry(0, 0, context.Canceled))
	require.False(t, p.ShouldRetry(500, 0, context.DeadlineExceeded))
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy()
	for attempt := 0; attempt < 10; attempt++ {
		d := p.Backoff(attempt)
		require.Greater(t, d, time.Duration(0))
		require.LessOrEqual(t, d, p.maxDelay)
	}
	// The deterministic half of the delay grows with the attempt number.
	require.GreaterOrEqual(t, p.Backoff(4), p.baseDelay)
}
