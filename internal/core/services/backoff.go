package services

import (
	"context"
	"errors"
	"time"

	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/logger"
)

// Retry policy for rate-limited API calls. The budget tracker keeps us
// under the configured limits, but the provider can still throttle;
// when it does we back off exponentially a bounded number of times.
const (
	retryMaxAttempts = 4
	retryBaseDelay   = 2 * time.Second
	retryMaxDelay    = 30 * time.Second
)

// retrySleep is swapped out by tests to avoid real waiting.
var retrySleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// withRateLimitRetry runs fn, retrying only on domain.ErrRateLimited.
// Any other error, or exhaustion of attempts, is returned as is.
func withRateLimitRetry(ctx context.Context, fn func() error) error {
	delay := retryBaseDelay
	var err error
	for attempt := 1; attempt <= retryMaxAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrRateLimited) {
			return err
		}
		if attempt == retryMaxAttempts {
			break
		}

		logger.Warn("rate limited (attempt %d/%d), backing off %s", attempt, retryMaxAttempts, delay)
		if sleepErr := retrySleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
		delay *= 2
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}
	return err
}
