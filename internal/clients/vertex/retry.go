package vertex

import (
	"context"
	"errors"
	"time"
)

const (
	imageMaxAttempts      = 5
	videoStartMaxAttempts = 3
)

// imageBackoff returns the wait before the next image attempt:
// min(60s, 2 * 2^(attempt-1)) with a 2s floor.
func imageBackoff(attempt int) time.Duration {
	d := time.Duration(2<<(attempt-1)) * time.Second
	if d < 2*time.Second {
		d = 2 * time.Second
	}
	if d > 60*time.Second {
		d = 60 * time.Second
	}
	return d
}

// videoStartBackoff returns the wait before the next LRO start attempt:
// min(30s, 2 * 2^attempt) with a 5s floor.
func videoStartBackoff(attempt int) time.Duration {
	d := time.Duration(2<<attempt) * time.Second
	if d < 5*time.Second {
		d = 5 * time.Second
	}
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

// withRetry runs fn up to attempts times, sleeping wait(attempt) between
// tries. Only RetryableError triggers another attempt; the final error is
// returned as-is.
func withRetry(ctx context.Context, attempts int, wait func(int) time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var retryable *RetryableError
		if !errors.As(err, &retryable) || attempt == attempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait(attempt)):
		}
	}
	return lastErr
}
