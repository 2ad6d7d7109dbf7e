package generic

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/opencomply/integration-core/internal/integration"
)

const (
	id                     = "generic-webhook"
	defaultSignatureHeader = "X-Signature-256"
)

// Integration is a catch-all inbound webhook sink. It accepts any verified
// payload and acknowledges it, which makes it both a smoke-test target for a
// fresh deployment and a reference for writing real receivers.
type Integration struct {
	secret []byte
	header string
}

type Options struct {
	// Secret is the shared HMAC secret callers sign payloads with. An empty
	// secret keeps the route registered but rejects every delivery.
	Secret []byte
	// SignatureHeader overrides the header the signature is read from.
	SignatureHeader string
}

func New(opts Options) *Integration {
	header := strings.TrimSpace(opts.SignatureHeader)
	if header == "" {
		header = defaultSignatureHeader
	}
	return &Integration{secret: opts.Secret, header: header}
}

func (i *Integration) Descriptor() integration.Descriptor {
	return integration.Descriptor{
		ID:          id,
		DisplayName: "Generic Webhook",
		Version:     "1.0.0",
		Author:      "opencomply",
		Category:    integration.CategoryWebhook,
	}
}

// ValidateConnection reports whether the receiver can actually verify
// deliveries. There is no remote endpoint to probe.
func (i *Integration) ValidateConnection(_ context.Context) bool {
	return len(i.secret) > 0
}

func (i *Integration) Metadata() map[string]string {
	return map[string]string{
		"route":            "/webhooks/" + id,
		"signature_header": i.header,
	}
}

func (i *Integration) SignatureHeader() string { return i.header }

func (i *Integration) Secret() []byte { return i.secret }

func (i *Integration) HandleWebhook(_ context.Context, payload []byte) (integration.WebhookResponse, error) {
	slog.Info("webhook received", "integration", id, "bytes", len(payload))
	return integration.WebhookResponse{Status: http.StatusAccepted}, nil
}
