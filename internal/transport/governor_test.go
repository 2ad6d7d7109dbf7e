package transport

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestTryAcquireConsumesCapacityThenFails(t *testing.T) {
	g := NewGovernor(GovernorOptions{Integration: "demo", Capacity: 2, Refill: rate.Limit(1)})

	if err := g.TryAcquire(1); err != nil {
		t.Fatalf("first TryAcquire error: %v", err)
	}
	if err := g.TryAcquire(1); err != nil {
		t.Fatalf("second TryAcquire error: %v", err)
	}

	err := g.TryAcquire(1)
	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rateErr.RetryAfter <= 0 {
		t.Fatalf("expected positive RetryAfter, got %v", rateErr.RetryAfter)
	}
}

func TestAcquireSuspendsUntilRefill(t *testing.T) {
	g := NewGovernor(GovernorOptions{Integration: "demo", Capacity: 1, Refill: rate.Limit(100)})

	if err := g.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("Acquire error: %v", err)
	}

	start := time.Now()
	if err := g.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if waited := time.Since(start); waited < 5*time.Millisecond {
		t.Fatalf("expected suspended acquire to wait for refill, waited %v", waited)
	}
}

func TestAcquireHonorsCancellation(t *testing.T) {
	g := NewGovernor(GovernorOptions{Integration: "demo", Capacity: 1, Refill: rate.Limit(0.01)})
	if err := g.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("Acquire error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := g.Acquire(ctx, 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestObserveResponseZeroesBudgetOn429(t *testing.T) {
	g := NewGovernor(GovernorOptions{Integration: "demo", Capacity: 5, Refill: rate.Limit(1)})

	h := make(http.Header)
	h.Set("Retry-After", "2")
	g.ObserveResponse(&http.Response{StatusCode: http.StatusTooManyRequests, Header: h})

	err := g.TryAcquire(1)
	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError after 429, got %v", err)
	}
	if rateErr.RetryAfter < time.Second {
		t.Fatalf("expected server-advised wait to dominate, got %v", rateErr.RetryAfter)
	}
}

func TestObserveResponseAdoptsTighterRemaining(t *testing.T) {
	g := NewGovernor(GovernorOptions{Integration: "demo", Capacity: 10, Refill: rate.Limit(0.001)})

	h := make(http.Header)
	h.Set("X-RateLimit-Remaining", "1")
	g.ObserveResponse(&http.Response{StatusCode: http.StatusOK, Header: h})

	if err := g.TryAcquire(1); err != nil {
		t.Fatalf("expected one token left, got %v", err)
	}
	if err := g.TryAcquire(1); err == nil {
		t.Fatal("expected empty bucket after adopting server remaining")
	}
}

func TestGovernorsAreIndependent(t *testing.T) {
	blocked := NewGovernor(GovernorOptions{Integration: "a", Capacity: 1, Refill: rate.Limit(0.01)})
	free := NewGovernor(GovernorOptions{Integration: "b", Capacity: 1, Refill: rate.Limit(1)})

	if err := blocked.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("Acquire error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		done <- blocked.Acquire(ctx, 1)
	}()

	if err := free.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("independent governor blocked: %v", err)
	}
	if err := <-done; !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected blocked governor to time out, got %v", err)
	}
}
