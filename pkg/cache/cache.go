// Package cache stores small byte blobs between runs.
//
// actgraph keeps one entry per platform URL: the fingerprint of the last
// schema it rendered. When the fingerprint is unchanged the run is skipped,
// which makes the tool cheap to schedule from cron.
//
// Backends:
//   - [FileCache]: JSON files under ~/.cache/actgraph (CLI default)
//   - [RedisCache]: shared state for several hosts running the same job
//   - [MemoryCache]: process-local TTL cache used by the HTTP server
//   - [NullCache]: disables caching
package cache

import (
	"context"
	"time"
)

// Cache is a key-value store for opaque byte slices.
type Cache interface {
	// Get returns the stored value and whether it was found.
	// Expired entries count as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLFingerprint is how long a schema fingerprint is remembered. A week
// without runs forces a fresh render even if nothing changed.
const TTLFingerprint = 7 * 24 * time.Hour

// TTLSchema is how long the HTTP server reuses a fetched schema.
const TTLSchema = 5 * time.Minute
