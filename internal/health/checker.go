package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/opencomply/integration-core/internal/integration"
	"github.com/opencomply/integration-core/internal/metrics"
)

// Registry is the surface the checker needs from the integration registry.
type Registry interface {
	All() []integration.Integration
}

// Checker periodically validates the connection of every registered
// integration so credential rot and revoked tokens surface before a
// collection run trips over them.
type Checker struct {
	Registry Registry
	Interval time.Duration
	// Timeout bounds each individual check. Zero means the run context alone
	// bounds it.
	Timeout time.Duration
}

func (c *Checker) Run(ctx context.Context) {
	if c.Registry == nil || c.Interval <= 0 {
		return
	}

	// Check immediately at startup.
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll validates every registered integration once.
func (c *Checker) CheckAll(ctx context.Context) {
	for _, inst := range c.Registry.All() {
		if ctx.Err() != nil {
			return
		}
		id := inst.Descriptor().ID

		checkCtx := ctx
		cancel := context.CancelFunc(func() {})
		if c.Timeout > 0 {
			checkCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		}
		ok := inst.ValidateConnection(checkCtx)
		cancel()

		if ok {
			metrics.ConnectionChecksTotal.WithLabelValues(id, "ok").Inc()
			slog.Debug("connection check passed", "integration", id)
			continue
		}
		metrics.ConnectionChecksTotal.WithLabelValues(id, "failed").Inc()
		slog.Warn("connection check failed", "integration", id)
	}
}
