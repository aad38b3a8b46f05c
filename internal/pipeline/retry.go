package pipeline

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/citegest/internal/errs"
)

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// retry calls fn up to attempts times, backing off between retryable
// failures. Non-retryable errors and context cancellation stop at once.
func retry(ctx context.Context, attempts int, wait func(int) time.Duration, log *slog.Logger, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := range attempts {
		lastErr = fn()
		if lastErr == nil || !errs.IsRetryable(lastErr) || attempt == attempts-1 {
			return lastErr
		}
		log.Warn("retryable provider error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(wait(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
