package orchestrate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sitescout/harvester/internal/harvest"
)

func TestShouldRetryOnlyTransientErrors(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy(3)

	transient := &harvest.TransientError{URL: "https://example.edu", StatusCode: 503}
	permanent := &harvest.PermanentError{URL: "https://example.edu", StatusCode: 404}

	require.True(t, p.ShouldRetry(transient, 1))
	require.True(t, p.ShouldRetry(transient, 2))
	require.False(t, p.ShouldRetry(transient, 3), "attempts are exhausted")
	require.False(t, p.ShouldRetry(permanent, 1))
	require.False(t, p.ShouldRetry(errors.New("plain error"), 1))
	require.False(t, p.ShouldRetry(nil, 1))
}

func TestShouldRetryUnwrapsWrappedErrors(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy(3)
	wrapped := errors.Join(errors.New("context"), &harvest.TransientError{URL: "u", StatusCode: 429})
	require.True(t, p.ShouldRetry(wrapped, 1))
}

func TestBackoffGrowsAndStaysBounded(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy(10)
	for attempt := 1; attempt <= 10; attempt++ {
		d := p.Backoff(attempt)
		require.Greater(t, d, time.Duration(0))
		require.LessOrEqual(t, d, 5*time.Second)
	}
	// The deterministic half doubles per attempt: attempt 5's floor (2s)
	// always clears attempt 1's ceiling (250ms), jitter included.
	require.Greater(t, p.Backoff(5), p.Backoff(1))
}

func TestNewRetryPolicyDefault(t *testing.T) {
	t.Parallel()

	require.Equal(t, 3, NewRetryPolicy(0).MaxAttempts())
	require.Equal(t, 3, NewRetryPolicy(-5).MaxAttempts())
	require.Equal(t, 7, NewRetryPolicy(7).MaxAttempts())
}
