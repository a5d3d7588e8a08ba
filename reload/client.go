// Package reload is a typed HTTP client for the hot-reload control plane
// that runs alongside the cache in the larger application. The cache core
// does not depend on this package; it exists so callers can consume the
// reload subsystem's status/reload/toggle boundary without hand-rolling
// requests. The subsystem's internal reload mechanics are not modeled here.
package reload

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ErrUnavailable is returned when the reload subsystem reports 503, meaning
// it has not been initialized on the server side.
var ErrUnavailable = errors.New("reload: subsystem not initialized")

// ErrUnknownModule is returned when a reload targets a module the server
// does not know (HTTP 404).
var ErrUnknownModule = errors.New("reload: unknown module")

// Status is the subsystem's top-level state.
type Status struct {
	Enabled     bool `json:"enabled"`
	AutoReload  bool `json:"autoReload"`
	ModuleCount int  `json:"moduleCount"`
}

// ModuleState describes one tracked module.
type ModuleState struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Loaded     bool      `json:"loaded"`
	LastReload time.Time `json:"lastReload"`
}

// Result is the outcome of a reload request for one module.
type Result struct {
	Success      bool   `json:"success"`
	ModuleName   string `json:"moduleName"`
	Error        string `json:"error,omitempty"`
	ReloadTimeMs int64  `json:"reloadTimeMs"`
}

type apiError struct {
	Error string `json:"error"`
}

// Client talks to the reload control plane over HTTP.
type Client struct {
	baseURL string
	hc      *http.Client
	log     zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// New returns a Client for the control plane at baseURL.
func New(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 10 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status fetches the subsystem status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.do(ctx, http.MethodGet, "/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ModuleStates lists the state of every tracked module.
func (c *Client) ModuleStates(ctx context.Context) ([]ModuleState, error) {
	var out []ModuleState
	if err := c.do(ctx, http.MethodGet, "/modules", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReloadModule reloads a single module by name. Unknown modules return
// ErrUnknownModule.
func (c *Client) ReloadModule(ctx context.Context, name string) (*Result, error) {
	var out Result
	path := "/reload/" + url.PathEscape(name)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReloadAll reloads every tracked module, returning per-module results.
func (c *Client) ReloadAll(ctx context.Context) ([]Result, error) {
	var out []Result
	if err := c.do(ctx, http.MethodPost, "/reload", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetAutoReload toggles automatic reloading on file change.
func (c *Client) SetAutoReload(ctx context.Context, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.do(ctx, http.MethodPut, "/auto-reload", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "reload: encoding request body")
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "reload: building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.log.Debug().Str("method", method).Str("path", path).Msg("reload request")

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "reload: %s %s", method, path)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "reload: decoding %s response", path)
		}
		return nil
	case http.StatusNotFound:
		return ErrUnknownModule
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	default:
		var apiErr apiError
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return errors.Newf("reload: %s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return errors.Newf("reload: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}
}
