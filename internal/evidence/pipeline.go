package evidence

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opencomply/integration-core/internal/metrics"
)

// Classifier assigns a status to one raw item. It must be total over its
// input domain: unrecognized shapes map to StatusError, never to a panic or
// an error return.
type Classifier func(raw json.RawMessage) Status

// NormalizeOptions carries the connector-supplied pieces of normalization.
type NormalizeOptions struct {
	Integration string
	Type        Type
	Title       string
	Description string
	Classify    Classifier
}

// Pipeline is the deterministic transform from raw connector payloads to
// Evidence and TestResult values. Clock and NewID are swappable so golden
// outputs stay stable in tests.
type Pipeline struct {
	Clock func() time.Time
	NewID func() string
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		Clock: time.Now,
		NewID: func() string { return uuid.NewString() },
	}
}

func (p *Pipeline) clock() time.Time {
	if p.Clock == nil {
		return time.Now()
	}
	return p.Clock()
}

func (p *Pipeline) newID() string {
	if p.NewID == nil {
		return uuid.NewString()
	}
	return p.NewID()
}

// Normalize maps raw connector items into Evidence records for one control.
// A nil classifier, like a panicking one, yields StatusError rather than
// failing the batch.
func (p *Pipeline) Normalize(rawItems []json.RawMessage, controlID string, opts NormalizeOptions) []Evidence {
	now := p.clock()
	evType := opts.Type
	if evType == "" {
		evType = TypeAutomated
	}

	out := make([]Evidence, 0, len(rawItems))
	for _, raw := range rawItems {
		status := classify(opts.Classify, raw)
		out = append(out, Evidence{
			ID:          p.newID(),
			ControlID:   controlID,
			Type:        evType,
			Title:       strings.TrimSpace(opts.Title),
			Description: strings.TrimSpace(opts.Description),
			CollectedAt: now,
			Raw:         raw,
			Status:      status,
		})
		metrics.EvidenceEmittedTotal.WithLabelValues(opts.Integration, string(status)).Inc()
	}
	return out
}

// Test is normalize followed by aggregate.
func (p *Pipeline) Test(rawItems []json.RawMessage, controlID string, opts NormalizeOptions) TestResult {
	items := p.Normalize(rawItems, controlID, opts)
	result := Aggregate(controlID, items, p.clock())
	metrics.ControlTestsTotal.WithLabelValues(opts.Integration, string(result.Status)).Inc()
	return result
}

func classify(fn Classifier, raw json.RawMessage) (status Status) {
	if fn == nil {
		return StatusError
	}
	defer func() {
		if recover() != nil {
			status = StatusError
		}
	}()
	switch s := fn(raw); s {
	case StatusPass, StatusFail, StatusNotApplicable, StatusError:
		return s
	default:
		return StatusError
	}
}
