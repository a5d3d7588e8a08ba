package cache

import (
	"context"
	"reflect"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// MemoConfig configures a memoization wrapper.
type MemoConfig struct {
	// Prefix namespaces this wrapper's keys. Required; two wrappers with
	// different prefixes never share entries even for equal arguments.
	Prefix string

	// Name identifies the wrapped function in the key. Empty means the
	// function's declared name, read via the runtime.
	Name string

	// TTL for cached results. Zero means the client's default.
	TTL time.Duration
}

// Memoize wraps a single-argument function so that repeated calls with
// canonically equal arguments execute it once and serve the cached result
// thereafter. Errors from fn are returned as-is and never cached, so a
// failed call is retried on the next invocation. Concurrent callers with
// the same key are collapsed into one execution.
//
// There is no purity check; wrapping a side-effecting function suppresses
// its side effects on every hit. That trade-off belongs to the caller.
func Memoize[A, R any](c *Client, cfg MemoConfig, fn func(context.Context, A) (R, error)) func(context.Context, A) (R, error) {
	name := cfg.Name
	if name == "" {
		name = funcName(fn)
	}
	var group singleflight.Group
	return func(ctx context.Context, a A) (R, error) {
		key := MemoKey(cfg.Prefix, name, a)
		if cached, ok := GetTyped[R](ctx, c, key); ok {
			return cached, nil
		}
		out, err, _ := group.Do(key, func() (any, error) {
			// Re-check: a caller that missed before a concurrent flight
			// finished should not trigger a second execution.
			if cached, ok := GetTyped[R](ctx, c, key); ok {
				return cached, nil
			}
			result, err := fn(ctx, a)
			if err != nil {
				return nil, err
			}
			c.Set(ctx, key, result, cfg.TTL)
			return result, nil
		})
		if err != nil {
			var zero R
			return zero, err
		}
		return out.(R), nil
	}
}

// Memoize2 is Memoize for two-argument functions.
func Memoize2[A, B, R any](c *Client, cfg MemoConfig, fn func(context.Context, A, B) (R, error)) func(context.Context, A, B) (R, error) {
	name := cfg.Name
	if name == "" {
		name = funcName(fn)
	}
	var group singleflight.Group
	return func(ctx context.Context, a A, b B) (R, error) {
		key := MemoKey(cfg.Prefix, name, a, b)
		if cached, ok := GetTyped[R](ctx, c, key); ok {
			return cached, nil
		}
		out, err, _ := group.Do(key, func() (any, error) {
			if cached, ok := GetTyped[R](ctx, c, key); ok {
				return cached, nil
			}
			result, err := fn(ctx, a, b)
			if err != nil {
				return nil, err
			}
			c.Set(ctx, key, result, cfg.TTL)
			return result, nil
		})
		if err != nil {
			var zero R
			return zero, err
		}
		return out.(R), nil
	}
}

// funcName returns the bare declared name of fn, without package path.
// Method values carry a -fm suffix from the runtime; strip it.
func funcName(fn any) string {
	full := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	if i := strings.LastIndexByte(full, '/'); i >= 0 {
		full = full[i+1:]
	}
	if i := strings.IndexByte(full, '.'); i >= 0 {
		full = full[i+1:]
	}
	return strings.TrimSuffix(full, "-fm")
}
