package integration

import (
	"fmt"
	"strings"
	"sync"
)

// Registry is the process-wide catalog of live integration instances. It is
// explicit state passed into the components that need lookup; there is no
// package-level singleton. Instances register at process start or on demand
// and stay registered until explicit deregistration or Drain.
type Registry struct {
	mu        sync.RWMutex
	instances map[string]Integration
	order     []string // registration order, for stable listings
}

func NewRegistry() *Registry {
	return &Registry{
		instances: make(map[string]Integration),
	}
}

// Register adds an instance under its descriptor ID. IDs are globally unique
// within a registry; duplicates are rejected.
func (r *Registry) Register(i Integration) error {
	if i == nil {
		return fmt.Errorf("integration is nil")
	}
	desc := i.Descriptor()
	if err := desc.Validate(); err != nil {
		return err
	}
	id := normalizeID(desc.ID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.instances[id]; exists {
		return fmt.Errorf("integration %q already registered", id)
	}
	r.instances[id] = i
	r.order = append(r.order, id)
	return nil
}

// Get retrieves an instance by descriptor ID.
func (r *Registry) Get(id string) (Integration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.instances[normalizeID(id)]
	return i, ok
}

// All returns all registered instances in registration order.
func (r *Registry) All() []Integration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Integration, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.instances[id])
	}
	return out
}

// ListByCategory filters registered instances by descriptor category.
func (r *Registry) ListByCategory(c Category) []Integration {
	c = c.Normalize()
	var out []Integration
	for _, i := range r.All() {
		if i.Descriptor().Category.Normalize() == c {
			out = append(out, i)
		}
	}
	return out
}

// Capability names a specialized capability set for filtered lookups.
type Capability string

const (
	CapabilityEvidenceCollector Capability = "evidence-collector"
	CapabilityCloudProvider     Capability = "cloud-provider"
	CapabilityNotifier          Capability = "notifier"
	CapabilityWebhookReceiver   Capability = "webhook-receiver"
)

// ListByCapability filters registered instances by implemented capability
// interface, discovered by type assertion.
func (r *Registry) ListByCapability(c Capability) []Integration {
	var out []Integration
	for _, i := range r.All() {
		if Implements(i, c) {
			out = append(out, i)
		}
	}
	return out
}

// Implements reports whether an instance satisfies the named capability.
func Implements(i Integration, c Capability) bool {
	switch c {
	case CapabilityEvidenceCollector:
		_, ok := i.(EvidenceCollector)
		return ok
	case CapabilityCloudProvider:
		_, ok := i.(CloudProvider)
		return ok
	case CapabilityNotifier:
		_, ok := i.(Notifier)
		return ok
	case CapabilityWebhookReceiver:
		_, ok := i.(WebhookReceiver)
		return ok
	default:
		return false
	}
}

// Deregister removes an instance by ID. Removing an unknown ID is a no-op.
func (r *Registry) Deregister(id string) {
	id = normalizeID(id)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[id]; !ok {
		return
	}
	delete(r.instances, id)
	for idx, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:idx], r.order[idx+1:]...)
			break
		}
	}
}

// Drain removes every instance, for process teardown.
func (r *Registry) Drain() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = make(map[string]Integration)
	r.order = nil
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
