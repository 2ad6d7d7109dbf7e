package integration

import (
	"fmt"
	"net/url"
	"strings"
)

// OptionKind tags how a configuration option is handled and rendered.
type OptionKind string

const (
	OptionString OptionKind = "string"
	OptionSecret OptionKind = "secret"
	OptionURL    OptionKind = "url"
)

// Option declares one recognized configuration key for an integration kind.
type Option struct {
	Name     string
	Kind     OptionKind
	Required bool
}

// Schema is the set of options an integration kind recognizes. Configuration
// is validated against its schema before an instance is ever constructed.
type Schema struct {
	Options []Option
}

// Config is the flat option mapping for one integration instance. Each
// instance owns its config exclusively; configs are never shared.
type Config map[string]string

// ConfigError reports a bad or missing option. It is fatal at construction
// and never retried.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config option %q: %s", e.Option, e.Reason)
}

// Validate checks cfg against the schema: required options present, URL
// options parseable, unrecognized keys rejected.
func (s Schema) Validate(cfg Config) error {
	known := make(map[string]Option, len(s.Options))
	for _, opt := range s.Options {
		known[opt.Name] = opt
	}

	for key := range cfg {
		if _, ok := known[key]; !ok {
			return &ConfigError{Option: key, Reason: "not recognized"}
		}
	}

	for _, opt := range s.Options {
		value := strings.TrimSpace(cfg[opt.Name])
		if value == "" {
			if opt.Required {
				return &ConfigError{Option: opt.Name, Reason: "required"}
			}
			continue
		}
		if opt.Kind == OptionURL {
			u, err := url.Parse(value)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				return &ConfigError{Option: opt.Name, Reason: "must be an http(s) URL"}
			}
		}
	}
	return nil
}

// Redacted returns a copy of cfg safe for logging: secret options are
// replaced with a placeholder.
func (s Schema) Redacted(cfg Config) Config {
	secret := make(map[string]bool, len(s.Options))
	for _, opt := range s.Options {
		if opt.Kind == OptionSecret {
			secret[opt.Name] = true
		}
	}
	out := make(Config, len(cfg))
	for k, v := range cfg {
		if secret[k] {
			out[k] = "[redacted]"
		} else {
			out[k] = v
		}
	}
	return out
}
