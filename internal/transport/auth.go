package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/opencomply/integration-core/internal/metrics"
)

// CredentialKind tags the shape of secret material a strategy holds.
type CredentialKind string

const (
	CredentialAPIKey CredentialKind = "api-key"
	CredentialOAuth2 CredentialKind = "oauth2"
	CredentialJWT    CredentialKind = "jwt"
)

// Credential is opaque secret material. It is owned by the strategy that
// holds it and never leaves the transport package in cleartext.
type Credential struct {
	Kind      CredentialKind
	Secret    string
	ExpiresAt time.Time
}

// String redacts the secret so a Credential can never leak through logs or
// formatted errors.
func (c Credential) String() string {
	return string(c.Kind) + ":[redacted]"
}

// LogValue keeps slog output redacted as well.
func (c Credential) LogValue() slog.Value {
	return slog.StringValue(c.String())
}

func (c Credential) expiresWithin(skew time.Duration, now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return now.Add(skew).After(c.ExpiresAt)
}

// AuthStrategy signs outbound requests and keeps its credential fresh. Sign
// is called once per attempt so rotated tokens are picked up between retries.
type AuthStrategy interface {
	Sign(req *http.Request) error
	RefreshIfNeeded(ctx context.Context) error
}

// APIKeyAuth injects a static secret into a request header.
type APIKeyAuth struct {
	Header string
	Prefix string // e.g. "Bearer ", empty for bare keys
	key    string
}

// NewAPIKeyAuth builds an API-key strategy. Header defaults to Authorization
// with a Bearer prefix.
func NewAPIKeyAuth(header, prefix, key string) (*APIKeyAuth, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("api key is required")
	}
	if strings.TrimSpace(header) == "" {
		header = "Authorization"
		if prefix == "" {
			prefix = "Bearer "
		}
	}
	return &APIKeyAuth{Header: header, Prefix: prefix, key: key}, nil
}

func (a *APIKeyAuth) Sign(req *http.Request) error {
	req.Header.Set(a.Header, a.Prefix+a.key)
	return nil
}

func (a *APIKeyAuth) RefreshIfNeeded(context.Context) error { return nil }

// OAuth2Auth holds an access/refresh token pair and exchanges the refresh
// token for a new access token when the access token is inside the skew
// window. Concurrent callers share one in-flight refresh.
type OAuth2Auth struct {
	integration string
	conf        *oauth2.Config
	skew        time.Duration
	now         func() time.Time

	group singleflight.Group

	mu           sync.Mutex
	cred         Credential
	refreshToken string
}

// OAuth2Options configures an OAuth2 strategy.
type OAuth2Options struct {
	Integration  string
	ClientID     string
	ClientSecret string
	TokenURL     string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Skew         time.Duration
	Now          func() time.Time
}

const defaultRefreshSkew = 60 * time.Second

func NewOAuth2Auth(opts OAuth2Options) (*OAuth2Auth, error) {
	if strings.TrimSpace(opts.TokenURL) == "" {
		return nil, errors.New("oauth2 token URL is required")
	}
	if strings.TrimSpace(opts.RefreshToken) == "" && strings.TrimSpace(opts.AccessToken) == "" {
		return nil, errors.New("oauth2 access or refresh token is required")
	}
	skew := opts.Skew
	if skew <= 0 {
		skew = defaultRefreshSkew
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &OAuth2Auth{
		integration: opts.Integration,
		conf: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: opts.TokenURL},
		},
		skew: skew,
		now:  now,
		cred: Credential{
			Kind:      CredentialOAuth2,
			Secret:    strings.TrimSpace(opts.AccessToken),
			ExpiresAt: opts.ExpiresAt,
		},
		refreshToken: strings.TrimSpace(opts.RefreshToken),
	}, nil
}

func (a *OAuth2Auth) Sign(req *http.Request) error {
	a.mu.Lock()
	token := a.cred.Secret
	a.mu.Unlock()
	if token == "" {
		return &AuthError{Integration: a.integration, Err: errors.New("no access token held")}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// RefreshIfNeeded exchanges the refresh token when the access token expires
// within the skew window. The exchange is single-flight per instance: a
// caller arriving while a refresh is outstanding awaits that refresh instead
// of issuing a duplicate.
func (a *OAuth2Auth) RefreshIfNeeded(ctx context.Context) error {
	a.mu.Lock()
	needed := a.cred.Secret == "" || a.cred.expiresWithin(a.skew, a.now())
	a.mu.Unlock()
	if !needed {
		return nil
	}

	_, err, _ := a.group.Do("refresh", func() (any, error) {
		err := a.refresh(ctx)
		metrics.AuthRefreshesTotal.WithLabelValues(a.integration, refreshOutcome(err)).Inc()
		return nil, err
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &AuthError{Integration: a.integration, Expired: true, Err: err}
	}
	return nil
}

func (a *OAuth2Auth) refresh(ctx context.Context) error {
	a.mu.Lock()
	refreshToken := a.refreshToken
	a.mu.Unlock()
	if refreshToken == "" {
		return errors.New("no refresh token held")
	}

	src := a.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.cred = Credential{Kind: CredentialOAuth2, Secret: token.AccessToken, ExpiresAt: token.Expiry}
	if token.RefreshToken != "" {
		a.refreshToken = token.RefreshToken
	}
	a.mu.Unlock()
	return nil
}

func refreshOutcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// JWTAuth mints short-lived HS256 tokens locally from a shared signing key
// and re-mints inside the skew window. Minting is single-flight so concurrent
// callers share one freshly minted token.
type JWTAuth struct {
	integration string
	issuer      string
	subject     string
	audience    string
	key         []byte
	lifetime    time.Duration
	skew        time.Duration
	now         func() time.Time

	group singleflight.Group

	mu   sync.Mutex
	cred Credential
}

// JWTOptions configures a JWT strategy.
type JWTOptions struct {
	Integration string
	Issuer      string
	Subject     string
	Audience    string
	SigningKey  []byte
	Lifetime    time.Duration
	Skew        time.Duration
	Now         func() time.Time
}

const defaultJWTLifetime = 5 * time.Minute

func NewJWTAuth(opts JWTOptions) (*JWTAuth, error) {
	if len(opts.SigningKey) == 0 {
		return nil, errors.New("jwt signing key is required")
	}
	lifetime := opts.Lifetime
	if lifetime <= 0 {
		lifetime = defaultJWTLifetime
	}
	skew := opts.Skew
	if skew <= 0 {
		skew = defaultRefreshSkew
	}
	if skew >= lifetime {
		return nil, errors.New("jwt refresh skew must be below token lifetime")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &JWTAuth{
		integration: opts.Integration,
		issuer:      opts.Issuer,
		subject:     opts.Subject,
		audience:    opts.Audience,
		key:         opts.SigningKey,
		lifetime:    lifetime,
		skew:        skew,
		now:         now,
	}, nil
}

func (a *JWTAuth) Sign(req *http.Request) error {
	a.mu.Lock()
	token := a.cred.Secret
	a.mu.Unlock()
	if token == "" {
		return &AuthError{Integration: a.integration, Err: errors.New("no token minted")}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (a *JWTAuth) RefreshIfNeeded(ctx context.Context) error {
	a.mu.Lock()
	needed := a.cred.Secret == "" || a.cred.expiresWithin(a.skew, a.now())
	a.mu.Unlock()
	if !needed {
		return nil
	}

	_, err, _ := a.group.Do("mint", func() (any, error) {
		err := a.mint()
		metrics.AuthRefreshesTotal.WithLabelValues(a.integration, refreshOutcome(err)).Inc()
		return nil, err
	})
	if err != nil {
		return &AuthError{Integration: a.integration, Expired: true, Err: err}
	}
	return ctx.Err()
}

func (a *JWTAuth) mint() error {
	issuedAt := a.now()
	expiry := issuedAt.Add(a.lifetime)

	builder := jwt.NewBuilder().
		IssuedAt(issuedAt).
		Expiration(expiry)
	if a.issuer != "" {
		builder = builder.Issuer(a.issuer)
	}
	if a.subject != "" {
		builder = builder.Subject(a.subject)
	}
	if a.audience != "" {
		builder = builder.Audience([]string{a.audience})
	}
	token, err := builder.Build()
	if err != nil {
		return err
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), a.key))
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.cred = Credential{Kind: CredentialJWT, Secret: string(signed), ExpiresAt: expiry}
	a.mu.Unlock()
	return nil
}
