package integration

import (
	"fmt"
	"strings"
)

// Category buckets integrations for discovery and listing.
type Category string

const (
	CategoryCloudProvider     Category = "cloud-provider"
	CategoryEvidenceCollector Category = "evidence-collector"
	CategoryNotification      Category = "notification"
	CategoryWebhook           Category = "webhook"
	CategoryOther             Category = "other"
)

// Normalize lowercases and trims a category, mapping unknown values to other.
func (c Category) Normalize() Category {
	switch Category(strings.ToLower(strings.TrimSpace(string(c)))) {
	case CategoryCloudProvider:
		return CategoryCloudProvider
	case CategoryEvidenceCollector:
		return CategoryEvidenceCollector
	case CategoryNotification:
		return CategoryNotification
	case CategoryWebhook:
		return CategoryWebhook
	default:
		return CategoryOther
	}
}

// Descriptor is the immutable identity of an integration. ID must be unique
// within a registry and stable across versions.
type Descriptor struct {
	ID          string
	DisplayName string
	Version     string
	Author      string
	Category    Category
}

// Validate reports whether the descriptor can be registered.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("integration id is required")
	}
	if strings.TrimSpace(d.DisplayName) == "" {
		return fmt.Errorf("integration %q: display name is required", d.ID)
	}
	if strings.TrimSpace(d.Version) == "" {
		return fmt.Errorf("integration %q: version is required", d.ID)
	}
	return nil
}
