package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

// stubRetrySleep replaces the retry sleeper for the duration of a test
// and records the requested delays.
func stubRetrySleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := retrySleep
	retrySleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	t.Cleanup(func() { retrySleep = orig })
	return &slept
}

func TestWithRateLimitRetry_SuccessFirstTry(t *testing.T) {
	slept := stubRetrySleep(t)
	calls := 0

	err := withRateLimitRetry(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestWithRateLimitRetry_BacksOffExponentially(t *testing.T) {
	slept := stubRetrySleep(t)
	calls := 0

	err := withRateLimitRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("%w: throttled", domain.ErrRateLimited)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *slept)
}

func TestWithRateLimitRetry_OtherErrorsNotRetried(t *testing.T) {
	slept := stubRetrySleep(t)
	boom := errors.New("boom")
	calls := 0

	err := withRateLimitRetry(context.Background(), func() error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestWithRateLimitRetry_Exhaustion(t *testing.T) {
	stubRetrySleep(t)
	calls := 0

	err := withRateLimitRetry(context.Background(), func() error {
		calls++
		return domain.ErrRateLimited
	})

	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, retryMaxAttempts, calls)
}

func TestWithRateLimitRetry_ContextCancelled(t *testing.T) {
	stubRetrySleep(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRateLimitRetry(ctx, func() error {
		return domain.ErrRateLimited
	})

	assert.ErrorIs(t, err, context.Canceled)
}
