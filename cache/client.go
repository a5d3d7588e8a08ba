package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Client is the public face of the cache. Every operation is best-effort:
// internal failures are logged and converted to a miss or a no-op, never
// surfaced, so breaking the cache can only cost performance, not
// correctness.
type Client struct {
	resolve func(ctx context.Context) Cache
	state   func() BackendState
	ttl     time.Duration
	log     zerolog.Logger
	closer  func() error
}

// New returns a Client that resolves its backend lazily through a Selector
// built from cfg. The first Get or Set triggers the probe.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	sel := NewSelector(cfg)
	return &Client{
		resolve: sel.Resolve,
		state:   sel.State,
		ttl:     cfg.DefaultTTL,
		log:     cfg.Logger,
		closer:  sel.Close,
	}
}

// NewWithBackend returns a Client pinned to the given backend, bypassing
// selection. Intended for tests and for callers that manage their own store.
func NewWithBackend(backend Cache, opts ...Option) *Client {
	o := applyOptions(opts)
	state := StateLocalFallback
	if _, ok := backend.(*redisCache); ok {
		state = StateRemoteActive
	}
	return &Client{
		resolve: func(context.Context) Cache { return backend },
		state:   func() BackendState { return state },
		ttl:     o.defaultTTL,
		log:     o.logger,
		closer:  backend.Close,
	}
}

// Get returns the value stored at key, or (nil, false) on a miss. Transport
// and decode failures count as misses.
func (c *Client) Get(ctx context.Context, key string) (any, bool) {
	found, val, err := c.resolve(ctx).Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache get failed, treating as miss")
		return nil, false
	}
	if !found {
		return nil, false
	}
	if data, ok := val.([]byte); ok {
		var decoded any
		if err := decodeValue(data, &decoded); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache decode failed, treating as miss")
			return nil, false
		}
		return decoded, true
	}
	return val, true
}

// Set stores val at key. A ttl <= 0 means the configured default. Failures
// are logged and dropped; Set never blocks the caller on an unreachable or
// erroring backend beyond the backend's own query timeout.
func (c *Client) Set(ctx context.Context, key string, val any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if err := c.resolve(ctx).Set(ctx, key, val, ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache set failed, value dropped")
	}
}

// Delete removes key, reporting whether it existed. Failures read as false.
func (c *Client) Delete(ctx context.Context, key string) bool {
	found, err := c.resolve(ctx).Expire(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache delete failed")
		return false
	}
	return found
}

// State reports which backend the client resolved to, or StateUnresolved
// before first use.
func (c *Client) State() BackendState {
	return c.state()
}

// Close shuts down the underlying backend.
func (c *Client) Close() error {
	return c.closer()
}

// GetTyped is the typed companion to Get. In-memory values are asserted
// directly; remote values are decoded from their JSON form. Decode
// mismatches count as misses.
func GetTyped[T any](ctx context.Context, c *Client, key string) (T, bool) {
	var zero T
	found, out, err := GetAs[T](ctx, c.resolve(ctx), key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache typed get failed, treating as miss")
		return zero, false
	}
	if !found {
		return zero, false
	}
	return out, true
}
