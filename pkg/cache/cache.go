// Package cache provides the storage backends and key derivation used to
// reuse derived edge weights and route results across queries.
//
// Three backends implement [Cache]:
//
//   - [NullCache]: stores nothing; the default for one-shot CLI runs
//   - [FileCache]: JSON entries under a directory; the CLI cache
//   - [RedisCache]: a shared cache for the HTTP server
//
// Keys are derived by a [Keyer] from the content hash of the graph document
// plus every option that influences the result, so a cached entry can never
// be served for a different mode, time, profile or override layer.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	TTLWeights = 24 * time.Hour
	TTLRoute   = time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
// A ttl of zero stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
