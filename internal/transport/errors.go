package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

// AuthError reports a credential failure. Expired marks the case where a
// refresh was attempted and failed; retrying with the same credential is
// futile, so the retry policy treats auth failures as terminal.
type AuthError struct {
	Integration string
	Expired     bool
	Err         error
}

func (e *AuthError) Error() string {
	kind := "auth failed"
	if e.Expired {
		kind = "auth expired"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Integration, kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Integration, kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RateLimitError is returned by non-blocking budget acquisition when the
// bucket is empty, and carries the server-advised wait when one is known.
type RateLimitError struct {
	Integration string
	RetryAfter  time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limit exceeded, retry after %s", e.Integration, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limit exceeded", e.Integration)
}

// APIError is a non-2xx response surfaced to the caller with its status and
// (truncated) body.
type APIError struct {
	Integration string
	Method      string
	Path        string
	StatusCode  int
	Body        []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s %s: unexpected status %d", e.Integration, e.Method, e.Path, e.StatusCode)
}

// Temporary reports whether the response class is expected to self-resolve
// on retry.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// RetryExhaustedError wraps the last transient cause after the configured
// retry budget has been spent.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// isTransient partitions errors into the classes the retry policy may recover
// from. Cancellation, auth failures, and terminal API responses are never
// transient.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// Per-attempt deadlines are handled by the caller wrapping the
		// attempt; a canceled parent context must stop the loop.
		return false
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return false
	}

	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}

	if os.IsTimeout(err) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return true
	}

	// Plain network errors (connection refused, reset) are worth one more try.
	var netErr net.Error
	return errors.As(err, &netErr)
}
