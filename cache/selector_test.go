package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorRemoteActive(t *testing.T) {
	mr := miniredis.RunT(t)
	sel := NewSelector(Config{RedisURL: "redis://" + mr.Addr()})
	defer sel.Close()

	assert.Equal(t, StateUnresolved, sel.State())
	backend := sel.Resolve(context.Background())
	require.NotNil(t, backend)
	assert.Equal(t, StateRemoteActive, sel.State())
}

func TestSelectorLocalFallbackOnUnreachable(t *testing.T) {
	// Nothing listens on this port; the probe fails fast.
	sel := NewSelector(Config{
		RedisURL:     "redis://127.0.0.1:1",
		ProbeTimeout: 200 * time.Millisecond,
	})
	defer sel.Close()

	backend := sel.Resolve(context.Background())
	require.NotNil(t, backend)
	assert.Equal(t, StateLocalFallback, sel.State())

	// The fallback store works.
	ctx := context.Background()
	assert.NoError(t, backend.Set(ctx, "key", "value", time.Minute))
	found, val, err := backend.Get(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value", val)
}

func TestSelectorLocalFallbackOnBadURL(t *testing.T) {
	sel := NewSelector(Config{RedisURL: "not-a-url"})
	defer sel.Close()

	sel.Resolve(context.Background())
	assert.Equal(t, StateLocalFallback, sel.State())
}

func TestSelectorResolutionIsSticky(t *testing.T) {
	mr := miniredis.RunT(t)
	sel := NewSelector(Config{
		RedisURL:     "redis://" + mr.Addr(),
		ProbeTimeout: 200 * time.Millisecond,
	})
	defer sel.Close()

	first := sel.Resolve(context.Background())
	assert.Equal(t, StateRemoteActive, sel.State())

	// Killing the server after resolution must not flip the state; there
	// is no re-probing.
	mr.Close()
	second := sel.Resolve(context.Background())
	assert.Same(t, first, second)
	assert.Equal(t, StateRemoteActive, sel.State())
}

func TestSelectorConcurrentFirstUse(t *testing.T) {
	sel := NewSelector(Config{
		RedisURL:     "redis://127.0.0.1:1",
		ProbeTimeout: 200 * time.Millisecond,
	})
	defer sel.Close()

	const n = 50
	backends := make([]Cache, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			backends[i] = sel.Resolve(context.Background())
		}(i)
	}
	wg.Wait()

	// Every caller got the one resolved backend.
	for i := 1; i < n; i++ {
		assert.Same(t, backends[0], backends[i])
	}
	assert.Equal(t, StateLocalFallback, sel.State())
}

func TestBackendStateString(t *testing.T) {
	assert.Equal(t, "unresolved", StateUnresolved.String())
	assert.Equal(t, "remote", StateRemoteActive.String())
	assert.Equal(t, "local", StateLocalFallback.String())
}
