package reload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestStatus(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/status", r.URL.Path)
		json.NewEncoder(w).Encode(Status{Enabled: true, AutoReload: false, ModuleCount: 3})
	})

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Enabled)
	assert.False(t, status.AutoReload)
	assert.Equal(t, 3, status.ModuleCount)
}

func TestModuleStates(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/modules", r.URL.Path)
		json.NewEncoder(w).Encode([]ModuleState{
			{Name: "pricing", Path: "modules/pricing", Loaded: true, LastReload: now},
			{Name: "billing", Path: "modules/billing", Loaded: false},
		})
	})

	states, err := c.ModuleStates(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "pricing", states[0].Name)
	assert.True(t, states[0].Loaded)
	assert.Equal(t, now, states[0].LastReload)
}

func TestReloadModule(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/reload/pricing", r.URL.Path)
		json.NewEncoder(w).Encode(Result{Success: true, ModuleName: "pricing", ReloadTimeMs: 42})
	})

	res, err := c.ReloadModule(context.Background(), "pricing")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "pricing", res.ModuleName)
	assert.Equal(t, int64(42), res.ReloadTimeMs)
}

func TestReloadModuleUnknown(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "unknown module"})
	})

	_, err := c.ReloadModule(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUnknownModule)
}

func TestSubsystemUninitialized(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Status(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestReloadAll(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/reload", r.URL.Path)
		json.NewEncoder(w).Encode([]Result{
			{Success: true, ModuleName: "pricing", ReloadTimeMs: 10},
			{Success: false, ModuleName: "billing", Error: "syntax error", ReloadTimeMs: 2},
		})
	})

	results, err := c.ReloadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.Equal(t, "syntax error", results[1].Error)
}

func TestSetAutoReload(t *testing.T) {
	var got map[string]bool
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/auto-reload", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.SetAutoReload(context.Background(), true))
	assert.Equal(t, map[string]bool{"enabled": true}, got)
}

func TestUnexpectedStatusWithErrorBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
	})

	_, err := c.Status(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestServerUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}))
	_, err := c.Status(context.Background())
	assert.Error(t, err)
}
