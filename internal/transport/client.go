package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/opencomply/integration-core/internal/metrics"
)

const (
	defaultAttemptTimeout = 30 * time.Second
	maxBodySize           = 1 << 20 // 1 MiB
)

// Request describes one logical outbound call. Body is held as bytes so
// every attempt replays the identical payload. Idempotent must be set
// explicitly for the retry policy to re-issue the call; unmarked requests are
// never retried.
type Request struct {
	Method     string
	Path       string
	Query      url.Values
	Header     http.Header
	Body       []byte
	Cost       int
	Idempotent bool
}

// Response is the surfaced result of a successful (2xx) call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client is the single outbound HTTP entry point for one integration
// instance. Every call composes, in fixed order: credential refresh and
// signing, rate-governor admission, one network attempt, then the retry
// policy's decision to loop back to signing.
type Client struct {
	integration string
	baseURL     string
	auth        AuthStrategy
	governor    *Governor
	retry       RetryPolicy
	http        *http.Client
	attemptTO   time.Duration
	userAgent   string
}

// ClientOptions configures a transport client.
type ClientOptions struct {
	Integration    string
	BaseURL        string
	Auth           AuthStrategy
	Governor       *Governor
	Retry          RetryPolicy
	HTTPClient     *http.Client
	AttemptTimeout time.Duration
	UserAgent      string
}

// NewClient validates options and builds a client. Auth and governor are
// required: a connector must never issue ungoverned or unsigned calls.
func NewClient(opts ClientOptions) (*Client, error) {
	base, err := normalizeBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	if opts.Auth == nil {
		return nil, errors.New("auth strategy is required")
	}
	if opts.Governor == nil {
		return nil, errors.New("rate governor is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	attemptTO := opts.AttemptTimeout
	if attemptTO <= 0 {
		attemptTO = defaultAttemptTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "integration-core"
	}
	retry := opts.Retry
	if retry.MaxRetries == 0 && retry.BaseDelay == 0 && retry.MaxDelay == 0 {
		retry = DefaultRetryPolicy()
	}
	return &Client{
		integration: opts.Integration,
		baseURL:     base,
		auth:        opts.Auth,
		governor:    opts.Governor,
		retry:       retry,
		http:        httpClient,
		attemptTO:   attemptTO,
		userAgent:   userAgent,
	}, nil
}

// Call issues the request. Non-2xx, non-retryable responses surface as
// *APIError; exhausted transient failures as *RetryExhaustedError.
func (c *Client) Call(ctx context.Context, req Request) (*Response, error) {
	endpoint, err := c.endpoint(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	policy := c.retry
	if !req.Idempotent {
		policy.MaxRetries = 0
	}

	var out *Response
	execErr := policy.Execute(ctx, func(attempt int) error {
		if attempt > 0 {
			metrics.TransportRetriesTotal.WithLabelValues(c.integration).Inc()
		}
		resp, err := c.attempt(ctx, req, endpoint)
		if err != nil {
			metrics.TransportAttemptsTotal.WithLabelValues(c.integration, req.Method, "error").Inc()
			return err
		}
		metrics.TransportAttemptsTotal.WithLabelValues(c.integration, req.Method, "ok").Inc()
		out = resp
		return nil
	})
	if execErr != nil {
		return nil, execErr
	}
	return out, nil
}

// Ping issues the cheapest possible read-only call and reports reachability.
// It is the building block for ValidateConnection: expected auth and network
// failures come back as false, never as an error.
func (c *Client) Ping(ctx context.Context, path string) bool {
	if path == "" {
		path = "/"
	}
	resp, err := c.Call(ctx, Request{Method: http.MethodGet, Path: path, Idempotent: true})
	if err != nil {
		return false
	}
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// attempt performs exactly one network call: sign, gate, execute.
func (c *Client) attempt(ctx context.Context, req Request, endpoint string) (*Response, error) {
	// Signing happens first on every attempt since tokens may rotate
	// between attempts.
	if err := c.auth.RefreshIfNeeded(ctx); err != nil {
		return nil, err
	}

	waitStart := time.Now()
	if err := c.governor.Acquire(ctx, req.Cost); err != nil {
		return nil, err
	}
	if waited := time.Since(waitStart); waited > time.Millisecond {
		metrics.RateLimitWaitsTotal.WithLabelValues(c.integration).Inc()
		metrics.RateLimitWaitSeconds.WithLabelValues(c.integration).Observe(waited.Seconds())
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTO)
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, endpoint, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if err := c.auth.Sign(httpReq); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		// A per-attempt deadline is transient for the next attempt; a
		// canceled parent context is not.
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, &attemptTimeoutError{err: err}
		}
		return nil, err
	}
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}

	c.governor.ObserveResponse(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Integration: c.integration,
			Method:      req.Method,
			Path:        req.Path,
			StatusCode:  resp.StatusCode,
			Body:        respBody,
		}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

func (c *Client) endpoint(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	u.Path = joinPath(u.Path, path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	u.Fragment = ""
	return u.String(), nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = trimRightSlash(raw)
	if raw == "" {
		return "", errors.New("base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base URL %q must be http or https", raw)
	}
	return u.String(), nil
}

type attemptTimeoutError struct {
	err error
}

func (e *attemptTimeoutError) Error() string {
	return "attempt timed out: " + e.err.Error()
}

func (e *attemptTimeoutError) Timeout() bool { return true }

func joinPath(base, p string) string {
	base = trimRightSlash(base)
	if p == "" {
		return base
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return base + p
}

func trimRightSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
