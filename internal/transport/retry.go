package transport

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy wraps an operation with bounded exponential-backoff retry on
// transient failures. Terminal failures (auth, non-429 4xx, validation,
// cancellation) surface immediately.
type RetryPolicy struct {
	MaxRetries int           // retries beyond the first attempt
	BaseDelay  time.Duration // first backoff step
	MaxDelay   time.Duration // backoff cap

	// Sleep is swappable for tests; nil means a ctx-aware timer sleep.
	Sleep func(context.Context, time.Duration) error
	// Rand supplies jitter; nil means the package-level source.
	Rand func(int64) int64
}

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 500 * time.Millisecond
	defaultMaxDelay   = 30 * time.Second
)

// DefaultRetryPolicy returns the policy used when a connector declares none.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: defaultMaxRetries,
		BaseDelay:  defaultBaseDelay,
		MaxDelay:   defaultMaxDelay,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	if p.Sleep == nil {
		p.Sleep = sleepWithContext
	}
	if p.Rand == nil {
		p.Rand = rand.Int63n
	}
	return p
}

// Execute runs op, retrying transient failures up to MaxRetries times.
// Exhausting the budget wraps the last transient cause in a
// RetryExhaustedError; with MaxRetries zero no retry happens and the cause
// surfaces unwrapped. Cancellation stops the loop immediately and is never
// retried.
func (p RetryPolicy) Execute(ctx context.Context, op func(attempt int) error) error {
	p = p.normalized()

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(attempt)
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
		if attempt == p.MaxRetries {
			if p.MaxRetries == 0 {
				return lastErr
			}
			return &RetryExhaustedError{Attempts: attempt + 1, Err: lastErr}
		}

		if err := p.Sleep(ctx, p.delay(attempt)); err != nil {
			return err
		}
	}
}

// delay is base * 2^attempt plus random jitter in [0, base), capped at
// MaxDelay.
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt && d < p.MaxDelay; i++ {
		d *= 2
	}
	d += time.Duration(p.Rand(int64(p.BaseDelay)))
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
