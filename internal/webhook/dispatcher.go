package webhook

import (
	"context"
	"fmt"
	"net/http"

	"github.com/opencomply/integration-core/internal/integration"
	"github.com/opencomply/integration-core/internal/metrics"
)

// Dispatcher routes verified envelopes to webhook-capable integrations from
// the registry. Verification gates dispatch: a handler never sees a payload
// that failed it.
type Dispatcher struct {
	Registry Lookup
}

// Lookup is the registry surface the dispatcher needs.
type Lookup interface {
	Get(id string) (integration.Integration, bool)
}

// Dispatch verifies and hands the envelope to the integration registered
// under kind. Unknown kinds and non-webhook integrations map to 404, failed
// verification to 401.
func (d *Dispatcher) Dispatch(ctx context.Context, kind string, env Envelope) (integration.WebhookResponse, error) {
	inst, ok := d.Registry.Get(kind)
	if !ok {
		metrics.WebhookRequestsTotal.WithLabelValues(kind, "unknown").Inc()
		return integration.WebhookResponse{Status: http.StatusNotFound}, fmt.Errorf("integration %q not registered", kind)
	}
	receiver, ok := inst.(integration.WebhookReceiver)
	if !ok {
		metrics.WebhookRequestsTotal.WithLabelValues(kind, "unsupported").Inc()
		return integration.WebhookResponse{Status: http.StatusNotFound}, fmt.Errorf("integration %q does not accept webhooks", kind)
	}

	if !Verify(env, receiver.Secret()) {
		metrics.WebhookRequestsTotal.WithLabelValues(kind, "rejected").Inc()
		return integration.WebhookResponse{Status: http.StatusUnauthorized}, &VerificationError{Kind: kind}
	}

	resp, err := receiver.HandleWebhook(ctx, env.Body)
	if err != nil {
		metrics.WebhookRequestsTotal.WithLabelValues(kind, "handler_error").Inc()
		if resp.Status == 0 {
			resp.Status = http.StatusInternalServerError
		}
		return resp, err
	}
	metrics.WebhookRequestsTotal.WithLabelValues(kind, "ok").Inc()
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	return resp, nil
}
