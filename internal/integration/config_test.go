package integration

import (
	"errors"
	"testing"
)

func demoSchema() Schema {
	return Schema{Options: []Option{
		{Name: "apiKey", Kind: OptionSecret, Required: true},
		{Name: "endpoint", Kind: OptionURL},
		{Name: "region", Kind: OptionString},
	}}
}

func TestSchemaValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := Config{"apiKey": "tok", "endpoint": "https://api.example.test", "region": "eu"}
	if err := demoSchema().Validate(cfg); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
}

func TestSchemaValidateRequiredOption(t *testing.T) {
	err := demoSchema().Validate(Config{"region": "eu"})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Option != "apiKey" {
		t.Fatalf("Option = %q, want apiKey", cfgErr.Option)
	}
}

func TestSchemaValidateRejectsUnknownKey(t *testing.T) {
	err := demoSchema().Validate(Config{"apiKey": "tok", "surprise": "x"})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Option != "surprise" {
		t.Fatalf("expected unknown-key ConfigError, got %v", err)
	}
}

func TestSchemaValidateRejectsBadURL(t *testing.T) {
	err := demoSchema().Validate(Config{"apiKey": "tok", "endpoint": "not a url"})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Option != "endpoint" {
		t.Fatalf("expected endpoint ConfigError, got %v", err)
	}
}

func TestSchemaRedactedHidesSecrets(t *testing.T) {
	cfg := Config{"apiKey": "tok", "region": "eu"}
	red := demoSchema().Redacted(cfg)
	if red["apiKey"] != "[redacted]" {
		t.Fatalf("apiKey = %q, want redacted", red["apiKey"])
	}
	if red["region"] != "eu" {
		t.Fatalf("region = %q, want preserved", red["region"])
	}
	if cfg["apiKey"] != "tok" {
		t.Fatal("Redacted must not mutate the original config")
	}
}
