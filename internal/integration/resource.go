package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Resource is a discovered third-party asset. Immutable once returned.
type Resource struct {
	ID           string
	Kind         string
	Metadata     map[string]string
	DiscoveredAt time.Time
}

// DiscoveryError reports a partially failed discovery: the categories that
// listed successfully are preserved in Partial rather than discarded.
type DiscoveryError struct {
	Category string
	Partial  []Resource
	Err      error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery incomplete: category %q failed with %d resources recovered: %v", e.Category, len(e.Partial), e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// CategoryLister lists the resources of one category.
type CategoryLister struct {
	Category string
	List     func(ctx context.Context) ([]Resource, error)
}

// DiscoverAll fans category listings out concurrently and merges the
// results. If a category fails after others succeeded, the successful
// results are returned inside a DiscoveryError instead of being dropped.
func DiscoverAll(ctx context.Context, listers []CategoryLister) ([]Resource, error) {
	var (
		mu       sync.Mutex
		all      []Resource
		failed   string
		firstErr error
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, l := range listers {
		g.Go(func() error {
			items, err := l.List(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					failed = l.Category
					firstErr = err
				}
				// Other categories keep running; partial success is
				// preserved and reported.
				return nil
			}
			all = append(all, items...)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if firstErr != nil {
		return nil, &DiscoveryError{Category: failed, Partial: all, Err: firstErr}
	}
	return all, nil
}
