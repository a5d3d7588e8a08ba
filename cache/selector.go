package cache

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// BackendState reports which store a Selector resolved to.
type BackendState int

const (
	// StateUnresolved means no cache operation has happened yet.
	StateUnresolved BackendState = iota
	// StateRemoteActive means the Redis probe succeeded and all operations
	// go to the remote store.
	StateRemoteActive
	// StateLocalFallback means the remote store was unreachable and all
	// operations go to the in-process store.
	StateLocalFallback
)

func (s BackendState) String() string {
	switch s {
	case StateRemoteActive:
		return "remote"
	case StateLocalFallback:
		return "local"
	default:
		return "unresolved"
	}
}

// Selector lazily picks a backend on first use and sticks with it for the
// lifetime of the process. Exactly one probe round-trip against the remote
// store happens, no matter how many goroutines race on first use; a failed
// probe is permanent and never retried.
type Selector struct {
	cfg     Config
	once    sync.Once
	mu      sync.Mutex
	state   BackendState
	backend Cache
}

// NewSelector returns an unresolved Selector. No connection is attempted
// until Resolve is called.
func NewSelector(cfg Config) *Selector {
	return &Selector{cfg: cfg.withDefaults()}
}

// Resolve returns the chosen backend, probing the remote store on the first
// call. Probe failure is not an error to the caller; it just means local.
func (s *Selector) Resolve(ctx context.Context) Cache {
	s.once.Do(func() {
		backend, state := s.probe(ctx)
		s.mu.Lock()
		s.backend = backend
		s.state = state
		s.mu.Unlock()
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend
}

// State reports the current backend state without triggering resolution.
func (s *Selector) State() BackendState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close shuts down the resolved backend, if any.
func (s *Selector) Close() error {
	s.mu.Lock()
	backend := s.backend
	s.mu.Unlock()
	if backend == nil {
		return nil
	}
	return backend.Close()
}

func (s *Selector) probe(ctx context.Context) (Cache, BackendState) {
	log := s.cfg.Logger
	backendOpts := []Option{
		WithTTL(s.cfg.DefaultTTL),
		WithQueryTimeout(s.cfg.QueryTimeout),
		WithLogger(log),
	}

	opts, err := redis.ParseURL(s.cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Str("url", s.cfg.RedisURL).
			Msg("invalid redis url, using local cache")
		return NewInMemory(context.Background(), backendOpts...), StateLocalFallback
	}

	client := redis.NewClient(opts)
	pctx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		client.Close()
		log.Warn().Err(err).Str("addr", opts.Addr).
			Msg("redis unreachable, using local cache")
		return NewInMemory(context.Background(), backendOpts...), StateLocalFallback
	}

	log.Debug().Str("addr", opts.Addr).Msg("redis reachable, using remote cache")
	return &ownedRedisCache{
		Cache:  NewRedis(client, backendOpts...),
		client: client,
	}, StateRemoteActive
}

// ownedRedisCache closes the redis.Client the Selector created, since no
// outside caller holds it.
type ownedRedisCache struct {
	Cache
	client *redis.Client
}

func (c *ownedRedisCache) Close() error {
	return c.client.Close()
}
