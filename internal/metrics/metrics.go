package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "integrationcore"
)

var (
	rateWaitBuckets = []float64{.005, .01, .05, .1, .5, 1, 5, 15, 60, 300}

	// Transport metrics
	TransportAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transport_attempts_total",
		Help:      "Count of outbound network attempts, including retries.",
	}, []string{"integration", "method", "outcome"})

	TransportRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transport_retries_total",
		Help:      "Count of retried outbound calls.",
	}, []string{"integration"})

	RateLimitWaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_waits_total",
		Help:      "Count of calls that had to wait for rate-limit budget.",
	}, []string{"integration"})

	RateLimitWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rate_limit_wait_seconds",
		Help:      "Time spent waiting for rate-limit budget.",
		Buckets:   rateWaitBuckets,
	}, []string{"integration"})

	AuthRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_refreshes_total",
		Help:      "Count of credential refresh attempts.",
	}, []string{"integration", "outcome"})

	ConnectionChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connection_checks_total",
		Help:      "Count of periodic integration connection checks by outcome.",
	}, []string{"integration", "outcome"})

	// Webhook metrics
	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_requests_total",
		Help:      "Count of inbound webhook envelopes by verification outcome.",
	}, []string{"kind", "outcome"})

	// Evidence pipeline metrics
	EvidenceEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evidence_emitted_total",
		Help:      "Count of normalized evidence records by status.",
	}, []string{"integration", "status"})

	ControlTestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "control_tests_total",
		Help:      "Count of aggregated control test results by status.",
	}, []string{"integration", "status"})
)
