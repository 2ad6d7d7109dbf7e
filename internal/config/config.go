package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr    = ":8080"
	defaultMetricsAddr = ":9090"

	defaultRetryMaxRetries = 3
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxDelay   = 30 * time.Second
	defaultAttemptTimeout  = 30 * time.Second
	defaultRefreshSkew     = 60 * time.Second

	defaultWebhookMaxBody = int64(1 << 20) // 1 MiB

	defaultHealthCheckInterval = 5 * time.Minute
)

// Config holds runtime settings for the integration core host.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	// Transport defaults applied to integration instances that do not
	// override them in their own configuration.
	RetryMaxRetries int
	RetryBaseDelay  time.Duration
	RetryMaxDelay   time.Duration
	AttemptTimeout  time.Duration
	RefreshSkew     time.Duration

	WebhookMaxBody int64

	HealthCheckInterval time.Duration

	// WebhookSecret is either a literal shared secret or a Vault reference
	// (vault:<mount>/<path>#<field>) for the built-in webhook receiver.
	WebhookSecret string

	VaultAddr      string
	VaultToken     string
	VaultNamespace string
}

// Load reads configuration from the environment, honoring a local .env file
// when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		HTTPAddr:        getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:     getenvDefault("METRICS_ADDR", defaultMetricsAddr),
		RetryMaxRetries: getenvIntDefault("RETRY_MAX_RETRIES", defaultRetryMaxRetries),
		RetryBaseDelay:  getenvDurationDefault("RETRY_BASE_DELAY", defaultRetryBaseDelay),
		RetryMaxDelay:   getenvDurationDefault("RETRY_MAX_DELAY", defaultRetryMaxDelay),
		AttemptTimeout:  getenvDurationDefault("ATTEMPT_TIMEOUT", defaultAttemptTimeout),
		RefreshSkew:     getenvDurationDefault("AUTH_REFRESH_SKEW", defaultRefreshSkew),
		WebhookMaxBody:  getenvInt64Default("WEBHOOK_MAX_BODY", defaultWebhookMaxBody),
		WebhookSecret:   strings.TrimSpace(os.Getenv("WEBHOOK_SECRET")),

		HealthCheckInterval: getenvDurationDefault("HEALTH_CHECK_INTERVAL", defaultHealthCheckInterval),
		VaultAddr:           strings.TrimSpace(os.Getenv("VAULT_ADDR")),
		VaultToken:          os.Getenv("VAULT_TOKEN"),
		VaultNamespace:      strings.TrimSpace(os.Getenv("VAULT_NAMESPACE")),
	}

	if cfg.RetryBaseDelay > cfg.RetryMaxDelay {
		return cfg, errors.New("RETRY_BASE_DELAY must not exceed RETRY_MAX_DELAY")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvInt64Default(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func getenvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
