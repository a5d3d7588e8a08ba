package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Cache is the backend contract shared by the local TTL store and the Redis
// adapter. Backends return real errors; the Client façade is the layer that
// swallows them.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was present
	// and unexpired. Serialized backends return the raw []byte encoding.
	Get(ctx context.Context, key string) (bool, any, error)

	// Set stores a value with a TTL. If ttl <= 0 the backend's configured
	// default TTL is used.
	Set(ctx context.Context, key string, val any, ttl time.Duration) error

	// Hits returns how many times a key has been read since it was set.
	Hits(ctx context.Context, key string) (bool, int)

	// Expire removes a key. The bool reports whether it existed.
	Expire(ctx context.Context, key string) (bool, error)

	// Close shuts down the backend.
	Close() error
}

// DefaultTTL is used when a caller provides no TTL and none is configured.
const DefaultTTL = time.Hour

// DefaultQueryTimeout bounds each remote-store operation so a hung server
// cannot block a caller indefinitely.
const DefaultQueryTimeout = 5 * time.Second

// DefaultProbeTimeout bounds the one-time reachability probe.
const DefaultProbeTimeout = 2 * time.Second

type options struct {
	defaultTTL   time.Duration
	queryTimeout time.Duration
	sweepEvery   time.Duration
	prefix       string
	logger       zerolog.Logger
}

// Option configures a Cache backend or the Client façade.
type Option func(*options)

func defaultOptions() options {
	return options{
		defaultTTL:   DefaultTTL,
		queryTimeout: DefaultQueryTimeout,
		sweepEvery:   time.Minute,
		logger:       zerolog.Nop(),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTTL sets the default TTL applied when Set is called with ttl <= 0.
func WithTTL(d time.Duration) Option {
	return func(o *options) { o.defaultTTL = d }
}

// WithQueryTimeout sets the per-operation timeout for the Redis backend.
func WithQueryTimeout(d time.Duration) Option {
	return func(o *options) { o.queryTimeout = d }
}

// WithSweepInterval sets how often the in-memory store reclaims expired
// entries. Expiry correctness does not depend on the sweeper; reads check
// the deadline themselves.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) { o.sweepEvery = d }
}

// WithKeyPrefix namespaces keys on the Redis backend so multiple caches can
// share one Redis instance.
func WithKeyPrefix(p string) Option {
	return func(o *options) { o.prefix = p }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// GetAs retrieves a typed value from a backend. In-memory values are type
// asserted directly; serialized backends hand back []byte which is decoded
// from JSON.
func GetAs[T any](ctx context.Context, c Cache, key string) (bool, T, error) {
	var zero T
	found, val, err := c.Get(ctx, key)
	if !found || err != nil {
		return false, zero, err
	}
	if typed, ok := val.(T); ok {
		return true, typed, nil
	}
	if data, ok := val.([]byte); ok {
		var out T
		if err := json.Unmarshal(data, &out); err != nil {
			return false, zero, errors.Wrapf(err, "cache: decoding value for %q", key)
		}
		return true, out, nil
	}
	return false, zero, errors.Newf("cache: cannot convert value of type %T to %T", val, zero)
}
