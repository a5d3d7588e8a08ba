package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// redisCache adapts a Redis client to the Cache contract. Values are stored
// as JSON in a hash (field "v" for the encoding, "h" for the hit count) and
// expiry is enforced by Redis itself, so no sweeper runs here.
type redisCache struct {
	client *redis.Client
	opts   options
}

var _ Cache = (*redisCache)(nil)

// NewRedis returns a Cache backed by Redis. The caller owns the client
// lifecycle; Close does not close it.
func NewRedis(client *redis.Client, opts ...Option) Cache {
	return &redisCache{
		client: client,
		opts:   applyOptions(opts),
	}
}

func (c *redisCache) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, c.opts.queryTimeout)
}

func (c *redisCache) key(key string) string {
	if c.opts.prefix == "" {
		return key
	}
	return c.opts.prefix + ":" + key
}

func (c *redisCache) Get(ctx context.Context, key string) (bool, any, error) {
	qctx, cancel := c.queryCtx(ctx)
	defer cancel()
	k := c.key(key)
	data, err := c.client.HGet(qctx, k, "v").Bytes()
	if err == redis.Nil {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, errors.Wrapf(err, "cache: redis get %q", key)
	}
	// Hit count is advisory; a failed increment never fails the read.
	c.client.HIncrBy(qctx, k, "h", 1)
	return true, data, nil
}

func (c *redisCache) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.opts.defaultTTL
	}
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "cache: encoding value for %q", key)
	}
	qctx, cancel := c.queryCtx(ctx)
	defer cancel()
	k := c.key(key)
	pipe := c.client.Pipeline()
	pipe.HSet(qctx, k, "v", data, "h", 0)
	pipe.Expire(qctx, k, ttl)
	if _, err := pipe.Exec(qctx); err != nil {
		return errors.Wrapf(err, "cache: redis set %q", key)
	}
	return nil
}

func (c *redisCache) Hits(ctx context.Context, key string) (bool, int) {
	qctx, cancel := c.queryCtx(ctx)
	defer cancel()
	hits, err := c.client.HGet(qctx, c.key(key), "h").Int()
	if err != nil {
		return false, 0
	}
	return true, hits
}

func (c *redisCache) Expire(ctx context.Context, key string) (bool, error) {
	qctx, cancel := c.queryCtx(ctx)
	defer cancel()
	n, err := c.client.Del(qctx, c.key(key)).Result()
	if err != nil {
		return false, errors.Wrapf(err, "cache: redis del %q", key)
	}
	return n > 0, nil
}

// Close is a no-op; the caller owns the redis.Client.
func (c *redisCache) Close() error {
	return nil
}
