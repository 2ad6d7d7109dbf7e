// Package evidence turns raw connector output into normalized compliance
// evidence and aggregates it into control test results. The package performs
// no I/O; every transform is deterministic.
package evidence

import (
	"encoding/json"
	"time"
)

// Status is the verdict carried by one evidence record.
type Status string

const (
	StatusPass          Status = "pass"
	StatusFail          Status = "fail"
	StatusNotApplicable Status = "not-applicable"
	StatusError         Status = "error"
)

// Type distinguishes automated collection from manually supplied evidence.
type Type string

const (
	TypeAutomated Type = "automated"
	TypeManual    Type = "manual"
)

// Evidence is a normalized record of a fact collected from a third-party
// system, tied to a compliance control. Append-only once emitted.
type Evidence struct {
	ID          string
	ControlID   string
	Type        Type
	Title       string
	Description string
	CollectedAt time.Time
	Raw         json.RawMessage
	Status      Status
}

// TestResult is the aggregated verdict for a control. Derived, never mutated
// after creation.
type TestResult struct {
	ControlID string
	Status    Status
	Evidence  []Evidence
	TestedAt  time.Time
}

// Aggregate folds evidence statuses into a verdict: any fail dominates, then
// any error, then any pass; no evidence or all not-applicable yields
// NOT_APPLICABLE. Error ranks above pass so a misclassified item can never be
// hidden by passing neighbors.
func Aggregate(controlID string, items []Evidence, testedAt time.Time) TestResult {
	status := StatusNotApplicable
	var anyPass, anyError bool
	for _, e := range items {
		switch e.Status {
		case StatusFail:
			status = StatusFail
		case StatusError:
			anyError = true
		case StatusPass:
			anyPass = true
		}
	}
	if status != StatusFail {
		switch {
		case anyError:
			status = StatusError
		case anyPass:
			status = StatusPass
		}
	}

	out := make([]Evidence, len(items))
	copy(out, items)
	return TestResult{
		ControlID: controlID,
		Status:    status,
		Evidence:  out,
		TestedAt:  testedAt,
	}
}
