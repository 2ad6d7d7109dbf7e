package evidence

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
)

func fixedPipeline() *Pipeline {
	n := 0
	return &Pipeline{
		Clock: func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) },
		NewID: func() string { n++; return fmt.Sprintf("ev-%d", n) },
	}
}

func statusClassifier(t *testing.T) Classifier {
	t.Helper()
	return func(raw json.RawMessage) Status {
		var payload struct {
			Encrypted *bool `json:"encrypted"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil || payload.Encrypted == nil {
			return StatusError
		}
		if *payload.Encrypted {
			return StatusPass
		}
		return StatusFail
	}
}

func TestNormalizeAssignsStatusPerItem(t *testing.T) {
	p := fixedPipeline()
	raw := []json.RawMessage{
		json.RawMessage(`{"encrypted":true}`),
		json.RawMessage(`{"encrypted":false}`),
		json.RawMessage(`{"shape":"unknown"}`),
	}

	items := p.Normalize(raw, "CC-6.1", NormalizeOptions{
		Integration: "demo",
		Title:       "Bucket encryption",
		Classify:    statusClassifier(t),
	})
	if len(items) != 3 {
		t.Fatalf("expected 3 evidence records, got %d", len(items))
	}
	wantStatuses := []Status{StatusPass, StatusFail, StatusError}
	for i, item := range items {
		if item.Status != wantStatuses[i] {
			t.Fatalf("item %d status = %q, want %q", i, item.Status, wantStatuses[i])
		}
		if item.ControlID != "CC-6.1" {
			t.Fatalf("item %d controlID = %q", i, item.ControlID)
		}
		if item.Type != TypeAutomated {
			t.Fatalf("item %d type = %q, want automated", i, item.Type)
		}
		if item.ID == "" {
			t.Fatalf("item %d missing id", i)
		}
		if !strings.HasPrefix(item.ID, "ev-") {
			t.Fatalf("item %d id = %q, want injected generator output", i, item.ID)
		}
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	raw := []json.RawMessage{json.RawMessage(`{"encrypted":true}`)}
	a := fixedPipeline().Normalize(raw, "CC-1", NormalizeOptions{Integration: "demo", Classify: statusClassifier(t)})
	b := fixedPipeline().Normalize(raw, "CC-1", NormalizeOptions{Integration: "demo", Classify: statusClassifier(t)})

	if a[0].ID != b[0].ID || a[0].CollectedAt != b[0].CollectedAt || a[0].Status != b[0].Status {
		t.Fatalf("expected identical golden output, got %#v vs %#v", a[0], b[0])
	}
}

func TestNormalizePanickyClassifierMapsToError(t *testing.T) {
	p := fixedPipeline()
	panicky := func(json.RawMessage) Status { panic("unexpected shape") }

	items := p.Normalize([]json.RawMessage{json.RawMessage(`{}`)}, "CC-1", NormalizeOptions{
		Integration: "demo",
		Classify:    panicky,
	})
	if items[0].Status != StatusError {
		t.Fatalf("status = %q, want error", items[0].Status)
	}
}

func TestNormalizeNilClassifierMapsToError(t *testing.T) {
	p := fixedPipeline()
	items := p.Normalize([]json.RawMessage{json.RawMessage(`{}`)}, "CC-1", NormalizeOptions{Integration: "demo"})
	if items[0].Status != StatusError {
		t.Fatalf("status = %q, want error", items[0].Status)
	}
}

func TestNormalizeUnknownStatusMapsToError(t *testing.T) {
	p := fixedPipeline()
	weird := func(json.RawMessage) Status { return Status("maybe") }
	items := p.Normalize([]json.RawMessage{json.RawMessage(`{}`)}, "CC-1", NormalizeOptions{Integration: "demo", Classify: weird})
	if items[0].Status != StatusError {
		t.Fatalf("status = %q, want error", items[0].Status)
	}
}

func TestTestAggregatesNormalizedEvidence(t *testing.T) {
	p := fixedPipeline()
	raw := []json.RawMessage{
		json.RawMessage(`{"encrypted":true}`),
		json.RawMessage(`{"encrypted":false}`),
	}

	result := p.Test(raw, "CC-6.1", NormalizeOptions{Integration: "demo", Classify: statusClassifier(t)})
	if result.Status != StatusFail {
		t.Fatalf("status = %q, want fail", result.Status)
	}
	if len(result.Evidence) != 2 {
		t.Fatalf("evidence count = %d, want 2", len(result.Evidence))
	}
}
