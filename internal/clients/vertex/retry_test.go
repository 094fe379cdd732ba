package vertex

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageBackoffBounds(t *testing.T) {
	assert.Equal(t, 2*time.Second, imageBackoff(1))
	assert.Equal(t, 4*time.Second, imageBackoff(2))
	assert.Equal(t, 8*time.Second, imageBackoff(3))
	assert.Equal(t, 16*time.Second, imageBackoff(4))
	assert.Equal(t, 60*time.Second, imageBackoff(6)) // capped
}

func TestVideoStartBackoffBounds(t *testing.T) {
	assert.Equal(t, 5*time.Second, videoStartBackoff(1)) // floored
	assert.Equal(t, 8*time.Second, videoStartBackoff(2))
	assert.Equal(t, 16*time.Second, videoStartBackoff(3))
	assert.Equal(t, 30*time.Second, videoStartBackoff(5)) // capped
}

func instantWait(int) time.Duration { return time.Millisecond }

func TestWithRetryRecoversFromTransientErrors(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 5, instantWait, func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: fmt.Errorf("429")}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsAtAttemptLimit(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, instantWait, func() error {
		calls++
		return &RetryableError{Err: fmt.Errorf("503")}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryDoesNotRetryTerminalErrors(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 5, instantWait, func() error {
		calls++
		return &SafetyError{Reason: "blocked"}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, 5, func(int) time.Duration { return time.Hour }, func() error {
		calls++
		return &RetryableError{Err: fmt.Errorf("429")}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
