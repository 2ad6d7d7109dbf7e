// Package integration defines the polymorphic connector contract and the
// process-wide registry. A connector implements the base Integration
// interface and opts into capability interfaces; the registry and platform
// code dispatch on declared capability via type assertion, never on a class
// hierarchy.
package integration

import (
	"context"

	"github.com/opencomply/integration-core/internal/evidence"
)

// Integration is the base capability set every connector implements.
type Integration interface {
	// Descriptor returns the immutable identity of this instance's kind.
	Descriptor() Descriptor

	// ValidateConnection attempts the cheapest possible read-only call and
	// reports reachability. Expected auth and network failures come back as
	// false; only programmer error may panic or escape.
	ValidateConnection(ctx context.Context) bool

	// Metadata exposes connector-specific details for display.
	Metadata() map[string]string
}

// EvidenceCollector is the capability set for connectors that produce
// compliance evidence.
type EvidenceCollector interface {
	Integration
	CollectEvidence(ctx context.Context, controlID string) ([]evidence.Evidence, error)
	SupportedControls() []string
}

// Control is an opaque compliance requirement supplied by the platform. The
// core carries it without interpreting it.
type Control struct {
	ID       string
	Metadata map[string]string
}

// CloudProvider is the capability set for connectors that discover and test
// cloud resources.
type CloudProvider interface {
	Integration
	DiscoverResources(ctx context.Context) ([]Resource, error)
	TestSecurityControl(ctx context.Context, control Control) (evidence.TestResult, error)
	ClassifyResource(r Resource) string
}

// Notification is an outbound message routed through a Notifier connector.
type Notification struct {
	Channel string
	Subject string
	Body    string
}

// Notifier is the capability set for notification channels.
type Notifier interface {
	Integration
	Send(ctx context.Context, n Notification) error
	SupportedChannels() []string
}

// WebhookResponse is what a webhook handler returns to the sender. A non-2xx
// status signals the sender to retry per its own policy.
type WebhookResponse struct {
	Status int
	Body   []byte
}

// WebhookReceiver is the capability set for connectors that accept inbound
// payloads. HandleWebhook only ever sees payloads that passed signature
// verification.
type WebhookReceiver interface {
	Integration
	HandleWebhook(ctx context.Context, payload []byte) (WebhookResponse, error)
	SignatureHeader() string
	Secret() []byte
}
