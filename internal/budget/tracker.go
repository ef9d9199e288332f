// Package budget enforces the two rolling-window API budgets.
package budget

import (
	"context"
	"sync"
	"time"

	"github.com/veldt-labs/bookrag/internal/logger"
)

// windowSize is the rolling accounting window.
const windowSize = time.Minute

// grant is one timestamped spend inside the window.
type grant struct {
	at   time.Time
	cost int
}

// window is a single rolling-window counter: a log of timestamped
// grants pruned to the last windowSize. The sum of live grants never
// exceeds capacity, over any window placement, because a grant only
// returns its cost once it has fully aged out.
type window struct {
	capacity int
	used     int
	grants   []grant
}

// prune drops grants older than the window, returning their cost.
func (w *window) prune(now time.Time) {
	cutoff := now.Add(-windowSize)
	i := 0
	for i < len(w.grants) && !w.grants[i].at.After(cutoff) {
		w.used -= w.grants[i].cost
		i++
	}
	w.grants = w.grants[i:]
}

// waitFor returns how long until cost fits, zero when it fits now.
// Assumes prune has run for the same now.
func (w *window) waitFor(now time.Time, cost int) time.Duration {
	if w.used+cost <= w.capacity {
		return 0
	}
	need := w.used + cost - w.capacity
	freed := 0
	for _, g := range w.grants {
		freed += g.cost
		if freed >= need {
			return g.at.Add(windowSize).Sub(now)
		}
	}
	return windowSize
}

// spend records a grant. Zero costs are not logged.
func (w *window) spend(now time.Time, cost int) {
	if cost == 0 {
		return
	}
	w.used += cost
	w.grants = append(w.grants, grant{at: now, cost: cost})
}

// Tracker tracks two independent rolling-window budgets: tokens per
// minute and requests per minute. One Tracker instance is shared by
// every caller that talks to the downstream API, so the aggregate rate
// stays bounded even when documents are processed concurrently.
type Tracker struct {
	mu     sync.Mutex
	tokens window
	reqs   window

	// now and sleep are swapped out by tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewTracker creates a tracker with per-minute capacities.
func NewTracker(tokensPerMin, requestsPerMin int) *Tracker {
	return &Tracker{
		tokens: window{capacity: tokensPerMin},
		reqs:   window{capacity: requestsPerMin},
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Acquire blocks until both budgets allow spending costTokens and
// costRequests, then consumes them. The two counters are attempted
// atomically-in-effect: when either would be exceeded, neither is
// consumed; Acquire sleeps the shorter of the two required waits and
// retries. A cost above a window's full capacity is clamped to the
// capacity, so an oversized batch consumes one whole window instead
// of blocking forever.
func (t *Tracker) Acquire(ctx context.Context, costTokens, costRequests int) error {
	if costTokens > t.tokens.capacity {
		logger.Warn("token cost %d above window capacity %d, clamping", costTokens, t.tokens.capacity)
		costTokens = t.tokens.capacity
	}
	if costRequests > t.reqs.capacity {
		logger.Warn("request cost %d above window capacity %d, clamping", costRequests, t.reqs.capacity)
		costRequests = t.reqs.capacity
	}

	for {
		wait, ok := t.tryReserve(costTokens, costRequests)
		if ok {
			return nil
		}

		logger.Debug("budget exceeded, sleeping %s (tokens=%d requests=%d)", wait, costTokens, costRequests)
		if err := t.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryReserve attempts both counters under the lock. On success both
// are consumed; otherwise neither is, and the shorter required wait
// is returned.
func (t *Tracker) tryReserve(costTokens, costRequests int) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.tokens.prune(now)
	t.reqs.prune(now)

	waitTokens := t.tokens.waitFor(now, costTokens)
	waitReqs := t.reqs.waitFor(now, costRequests)
	if waitTokens == 0 && waitReqs == 0 {
		t.tokens.spend(now, costTokens)
		t.reqs.spend(now, costRequests)
		return 0, true
	}

	wait := waitTokens
	if waitReqs > 0 && (waitTokens == 0 || waitReqs < waitTokens) {
		wait = waitReqs
	}
	return wait, false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
