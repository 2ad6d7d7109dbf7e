package integration

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDiscoverAllMergesCategories(t *testing.T) {
	now := time.Now()
	listers := []CategoryLister{
		{Category: "buckets", List: func(context.Context) ([]Resource, error) {
			return []Resource{{ID: "b1", Kind: "bucket", DiscoveredAt: now}}, nil
		}},
		{Category: "instances", List: func(context.Context) ([]Resource, error) {
			return []Resource{{ID: "a1", Kind: "instance", DiscoveredAt: now}}, nil
		}},
	}

	got, err := DiscoverAll(context.Background(), listers)
	if err != nil {
		t.Fatalf("DiscoverAll error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(got))
	}
	if got[0].ID != "a1" || got[1].ID != "b1" {
		t.Fatalf("expected deterministic order, got %s, %s", got[0].ID, got[1].ID)
	}
}

func TestDiscoverAllPreservesPartialResults(t *testing.T) {
	boom := errors.New("listing failed")
	listers := []CategoryLister{
		{Category: "buckets", List: func(context.Context) ([]Resource, error) {
			return []Resource{{ID: "b1", Kind: "bucket"}}, nil
		}},
		{Category: "instances", List: func(context.Context) ([]Resource, error) {
			return nil, boom
		}},
	}

	_, err := DiscoverAll(context.Background(), listers)
	var discErr *DiscoveryError
	if !errors.As(err, &discErr) {
		t.Fatalf("expected DiscoveryError, got %v", err)
	}
	if discErr.Category != "instances" {
		t.Fatalf("Category = %q, want instances", discErr.Category)
	}
	if len(discErr.Partial) != 1 || discErr.Partial[0].ID != "b1" {
		t.Fatalf("expected partial results preserved, got %#v", discErr.Partial)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestDiscoverAllEmpty(t *testing.T) {
	got, err := DiscoverAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("DiscoverAll error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no resources, got %d", len(got))
	}
}
