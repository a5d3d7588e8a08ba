// Package cache is a best-effort, tiered caching layer. It prefers a shared
// Redis store and degrades to an in-process TTL map when Redis is
// unreachable, so callers never have to care which backend they got.
//
// # Backend selection
//
// The [Client] façade resolves its backend lazily through a [Selector] on
// the first operation: the configured Redis URL is probed once with a
// bounded Ping, and the outcome — remote or local — is permanent for the
// process. There is no re-probing and no recovery back to Redis; a process
// that starts degraded stays degraded. At most one probe round-trip happens
// even under concurrent first use.
//
// # Best-effort contract
//
// No Client operation returns an error. Transport failures, encode and
// decode failures all collapse to "miss" on read and "dropped" on write,
// with the detail preserved in the structured log. Total cache failure can
// slow a program down but can never change what it computes.
//
// # Memoization
//
// [Memoize] and [Memoize2] wrap a function so equal calls hit the cache
// instead of re-executing. Keys are prefix:name:fingerprint, where the
// fingerprint is the first 16 hex characters of a SHA-256 over the
// canonical JSON of the arguments. Map-typed arguments canonicalize with
// sorted keys, so argument ordering never splits cache entries. Arguments
// that cannot be encoded fall back to their textual form, which is lossy
// but keeps key derivation total.
//
// # Bounds
//
// The in-process store is unbounded: entries leave only by TTL. That is the
// intended design, not an oversight; a long-lived process caching many
// distinct keys with long TTLs should size its TTLs accordingly or run
// against Redis.
//
// # Serialization
//
// The Redis backend stores values as JSON, so anything encoding/json can
// round-trip works: scalars, maps, slices, exported struct fields.
// Unencodable values are dropped on write with a warning. The in-memory
// backend stores values as-is with no serialization constraints.
package cache
