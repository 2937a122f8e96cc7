// Package cache stores derived artifacts: layouts, projected render graphs
// and exports.
//
// Every cached value is a pure function of its inputs, so keys are hashes
// of those inputs (see [Keyer]) and entries never need invalidation, only
// expiry. Backends:
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [MemoryCache]: in-process map, for tests and a single server
//   - [RedisCache]: shared cache for several server instances
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// TTLs per artifact type.
const (
	TTLProjection = 10 * time.Minute
	TTLLayout     = 24 * time.Hour
	TTLExport     = 24 * time.Hour
)

// Cache is the interface for artifact storage backends.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}
