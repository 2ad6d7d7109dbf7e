package transport

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Remaining-quota headers adopted when the server reports a tighter budget
// than the local estimate.
const (
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateReset     = "X-RateLimit-Reset"
	headerRetryAfter    = "Retry-After"
)

// Governor enforces a per-instance request budget with a token bucket. Each
// integration instance owns exactly one Governor; governors never coordinate
// with each other, so a blocked acquire on one instance cannot stall another.
type Governor struct {
	integration string
	now         func() time.Time

	mu        sync.Mutex
	bucket    *rate.Limiter
	holdUntil time.Time // server-advised pause, dominates the local bucket
}

// GovernorOptions configures a Governor from the connector's declared limits.
type GovernorOptions struct {
	Integration string
	Capacity    int        // burst capacity C
	Refill      rate.Limit // tokens per second R
	Now         func() time.Time
}

const (
	defaultCapacity = 10
	defaultRefill   = rate.Limit(5)
)

func NewGovernor(opts GovernorOptions) *Governor {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	refill := opts.Refill
	if refill <= 0 {
		refill = defaultRefill
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Governor{
		integration: opts.Integration,
		now:         now,
		bucket:      rate.NewLimiter(refill, capacity),
	}
}

// Acquire suspends the caller until budget for cost tokens is available, or
// until ctx is canceled. A server-advised hold is honored before the bucket
// is consulted.
func (g *Governor) Acquire(ctx context.Context, cost int) error {
	if cost <= 0 {
		cost = 1
	}
	if err := g.waitForHold(ctx); err != nil {
		return err
	}
	return g.bucket.WaitN(ctx, cost)
}

// TryAcquire is the non-blocking variant: it either takes the budget now or
// fails with a RateLimitError carrying the estimated wait.
func (g *Governor) TryAcquire(cost int) error {
	if cost <= 0 {
		cost = 1
	}

	g.mu.Lock()
	hold := g.holdUntil
	g.mu.Unlock()
	if wait := hold.Sub(g.now()); wait > 0 {
		return &RateLimitError{Integration: g.integration, RetryAfter: wait}
	}

	if g.bucket.AllowN(g.now(), cost) {
		return nil
	}
	rsv := g.bucket.ReserveN(g.now(), cost)
	wait := rsv.Delay()
	rsv.Cancel()
	return &RateLimitError{Integration: g.integration, RetryAfter: wait}
}

func (g *Governor) waitForHold(ctx context.Context) error {
	for {
		g.mu.Lock()
		hold := g.holdUntil
		g.mu.Unlock()

		wait := hold.Sub(g.now())
		if wait <= 0 {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// ObserveResponse adopts server-reported budget state. On a 429 the local
// budget is zeroed and the next refill is pinned to the server's Retry-After
// when present; server truth dominates the local estimate. Otherwise a
// remaining-quota header tighter than the bucket drains it down to match.
func (g *Governor) ObserveResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		g.drain()
		hold := time.Second
		if d, ok := retryAfterDuration(resp.Header.Get(headerRetryAfter)); ok {
			hold = d
		} else if d, ok := resetDuration(resp.Header.Get(headerRateReset), g.now()); ok {
			hold = d
		}
		g.mu.Lock()
		g.holdUntil = g.now().Add(hold)
		g.mu.Unlock()
		return
	}

	remaining, ok := headerInt(resp.Header, headerRateRemaining)
	if !ok {
		return
	}
	local := int(g.bucket.Tokens())
	if remaining < local {
		// Drain the difference so the local estimate is never more generous
		// than the server's.
		g.bucket.AllowN(g.now(), local-remaining)
	}
}

func (g *Governor) drain() {
	if tokens := int(g.bucket.Tokens()); tokens > 0 {
		g.bucket.AllowN(g.now(), tokens)
	}
}

func headerInt(h http.Header, key string) (int, bool) {
	v := strings.TrimSpace(h.Get(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func retryAfterDuration(header string) (time.Duration, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

func resetDuration(header string, now time.Time) (time.Duration, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, false
	}
	unix, err := strconv.ParseInt(header, 10, 64)
	if err != nil || unix <= 0 {
		return 0, false
	}
	wait := time.Unix(unix, 0).Sub(now)
	if wait <= 0 {
		return 0, false
	}
	return wait, true
}
