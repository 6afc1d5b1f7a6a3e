package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Storefront API base URL (catalog, cart, checkout and auth live there)
	APIURL string
	// Zero disables the upstream timeout: a hung call hangs only its request.
	UpstreamTimeout time.Duration

	StaticBaseURL         string
	Currency              string
	CheckoutRedirectDelay time.Duration

	// sequenced | unordered
	SyncMode string

	// memory | redis
	StateBackend string
	RedisURL     string
	StateTTL     time.Duration

	// Empty disables activity events
	RabbitMQURL string

	ViewerCookie string

	// CORS
	CORSAllowOrigins []string
}

func Load() Config {
	cfg := Config{
		Port: getenv("PORT", "8090"),

		APIURL:          getenv("STOREFRONT_API_URL", "http://storefront-api:5000"),
		UpstreamTimeout: parseDuration(getenv("UPSTREAM_TIMEOUT", "0"), 0),

		StaticBaseURL:         getenv("STATIC_BASE_URL", "/static"),
		Currency:              getenv("CURRENCY_SYMBOL", "₽"),
		CheckoutRedirectDelay: parseDuration(getenv("CHECKOUT_REDIRECT_DELAY", "3s"), 3*time.Second),

		SyncMode: getenv("SYNC_MODE", "sequenced"),

		StateBackend: getenv("STATE_BACKEND", "memory"),
		RedisURL:     getenv("REDIS_URL", "redis://localhost:6379"),
		StateTTL:     parseDuration(getenv("STATE_TTL", "30m"), 30*time.Minute),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		ViewerCookie: getenv("VIEWER_COOKIE", "sf_viewer"),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
	}

	return cfg
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	switch c.SyncMode {
	case "sequenced", "unordered":
	default:
		return fmt.Errorf("SYNC_MODE must be sequenced or unordered, got %q", c.SyncMode)
	}
	switch c.StateBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("STATE_BACKEND must be memory or redis, got %q", c.StateBackend)
	}
	if c.UpstreamTimeout < 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must not be negative")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
