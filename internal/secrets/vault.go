package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
)

// RefScheme prefixes credential references that resolve through Vault.
// Everything else passed to Resolve is treated as a literal secret value, so
// configs can carry either form.
const RefScheme = "vault:"

type Options struct {
	Address   string
	Namespace string
	Token     string
}

// Source resolves credential references against a Vault KV v2 mount. The
// resolved values stay in memory only; they are never logged or persisted.
type Source struct {
	client *vaultapi.Client
}

func New(opts Options) (*Source, error) {
	address := strings.TrimSpace(opts.Address)
	if address == "" {
		return nil, errors.New("vault address is required")
	}
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, errors.New("vault token is required")
	}

	cfg := vaultapi.DefaultConfig()
	cfg.Address = address
	cfg.HttpClient = &http.Client{Timeout: 30 * time.Second}

	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client setup: %w", err)
	}
	if namespace := strings.TrimSpace(opts.Namespace); namespace != "" {
		client.SetNamespace(namespace)
	}
	client.SetToken(token)

	return &Source{client: client}, nil
}

// Ref is a parsed vault:<mount>/<path>#<field> reference.
type Ref struct {
	Mount string
	Path  string
	Field string
}

func ParseRef(raw string) (Ref, error) {
	rest := strings.TrimPrefix(strings.TrimSpace(raw), RefScheme)
	location, field, ok := strings.Cut(rest, "#")
	if !ok || strings.TrimSpace(field) == "" {
		return Ref{}, fmt.Errorf("credential reference %q missing #<field>", raw)
	}
	mount, path, ok := strings.Cut(strings.Trim(location, "/"), "/")
	if !ok || strings.TrimSpace(mount) == "" || strings.TrimSpace(path) == "" {
		return Ref{}, fmt.Errorf("credential reference %q missing <mount>/<path>", raw)
	}
	return Ref{
		Mount: strings.TrimSpace(mount),
		Path:  strings.Trim(strings.TrimSpace(path), "/"),
		Field: strings.TrimSpace(field),
	}, nil
}

// IsRef reports whether the value needs Vault resolution.
func IsRef(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), RefScheme)
}

// Resolve returns the secret value a reference points at. Literal values pass
// through untouched so callers can hold a single code path for both.
func (s *Source) Resolve(ctx context.Context, value string) (string, error) {
	if !IsRef(value) {
		return value, nil
	}
	ref, err := ParseRef(value)
	if err != nil {
		return "", err
	}

	readPath := ref.Mount + "/data/" + ref.Path
	secret, err := s.client.Logical().ReadWithContext(ctx, readPath)
	if err != nil {
		return "", fmt.Errorf("vault read %s: %w", readPath, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault secret %s/%s not found", ref.Mount, ref.Path)
	}

	// KV v2 nests the payload under a second "data" key.
	data := secret.Data
	if nested, ok := secret.Data["data"].(map[string]any); ok {
		data = nested
	}
	raw, ok := data[ref.Field]
	if !ok {
		return "", fmt.Errorf("vault secret %s/%s has no field %q", ref.Mount, ref.Path, ref.Field)
	}
	out, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("vault secret %s/%s field %q is not a string", ref.Mount, ref.Path, ref.Field)
	}
	return out, nil
}
