package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	object    any
	expiresAt time.Time
	hits      int
}

// inMemoryCache is the process-local fallback store. It holds entries in a
// mutex-guarded map with no size bound; a long-running process with many
// distinct keys and long TTLs grows without limit.
type inMemoryCache struct {
	ctx     context.Context
	cancel  context.CancelFunc
	entries map[string]*entry
	mutex   sync.Mutex
	wg      sync.WaitGroup
	once    sync.Once
	opts    options
}

var _ Cache = (*inMemoryCache)(nil)

// NewInMemory returns an in-process TTL store. Expired entries are logically
// absent as soon as their deadline passes; a background sweeper reclaims
// their memory at the configured interval.
func NewInMemory(parent context.Context, opts ...Option) Cache {
	o := applyOptions(opts)
	ctx, cancel := context.WithCancel(parent)
	c := &inMemoryCache{
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
		opts:    o,
	}
	c.wg.Add(1)
	go c.sweep()
	return c
}

func (c *inMemoryCache) Get(_ context.Context, key string) (bool, any, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false, nil, nil
	}
	if e.expiresAt.Before(time.Now()) {
		delete(c.entries, key)
		return false, nil, nil
	}
	e.hits++
	return true, e.object, nil
}

func (c *inMemoryCache) Set(_ context.Context, key string, val any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.opts.defaultTTL
	}
	c.mutex.Lock()
	c.entries[key] = &entry{object: val, expiresAt: time.Now().Add(ttl)}
	c.mutex.Unlock()
	return nil
}

func (c *inMemoryCache) Hits(_ context.Context, key string) (bool, int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if e, ok := c.entries[key]; ok && !e.expiresAt.Before(time.Now()) {
		return true, e.hits
	}
	return false, 0
}

func (c *inMemoryCache) Expire(_ context.Context, key string) (bool, error) {
	c.mutex.Lock()
	_, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	c.mutex.Unlock()
	return ok, nil
}

func (c *inMemoryCache) Close() error {
	c.once.Do(func() {
		c.cancel()
		c.wg.Wait()
	})
	return nil
}

func (c *inMemoryCache) sweep() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.opts.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			c.mutex.Lock()
			for key, e := range c.entries {
				if e.expiresAt.Before(now) {
					delete(c.entries, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}
