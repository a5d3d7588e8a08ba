package cache

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	str2duration "github.com/xhit/go-str2duration/v2"
)

const (
	// DefaultRedisURL is used when EnvRedisURL is unset.
	DefaultRedisURL = "redis://localhost:6379/0"

	// EnvRedisURL names the environment variable holding the remote store
	// connection target, in redis://host:port/db form.
	EnvRedisURL = "MEMOCACHE_REDIS_URL"

	// EnvDefaultTTL names the environment variable holding the default TTL
	// as a duration string such as "1h" or "90m".
	EnvDefaultTTL = "MEMOCACHE_DEFAULT_TTL"
)

// Config controls backend selection and façade defaults.
type Config struct {
	// RedisURL is the remote store connection target. Empty means
	// DefaultRedisURL.
	RedisURL string

	// DefaultTTL applies when Set is called with ttl <= 0. Zero means
	// DefaultTTL (1 hour).
	DefaultTTL time.Duration

	// ProbeTimeout bounds the one-time reachability probe. Zero means
	// DefaultProbeTimeout.
	ProbeTimeout time.Duration

	// QueryTimeout bounds each remote operation. Zero means
	// DefaultQueryTimeout.
	QueryTimeout time.Duration

	// Logger receives swallowed-error and fallback diagnostics. The zero
	// value logs nothing.
	Logger zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.RedisURL == "" {
		c.RedisURL = DefaultRedisURL
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = DefaultTTL
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = DefaultQueryTimeout
	}
	return c
}

// ConfigFromEnv builds a Config from the process environment. A malformed
// TTL value is ignored in favor of the default; configuration can degrade
// the cache but never break it.
func ConfigFromEnv() Config {
	cfg := Config{
		RedisURL: os.Getenv(EnvRedisURL),
	}
	if raw := os.Getenv(EnvDefaultTTL); raw != "" {
		if d, err := str2duration.ParseDuration(raw); err == nil && d > 0 {
			cfg.DefaultTTL = d
		}
	}
	return cfg.withDefaults()
}
