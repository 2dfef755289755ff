// Package cache provides content-addressed storage for rendered sketches.
//
// The batch pipeline stores encoded sketch artifacts under keys derived from
// the SHA-256 of the input file and every option that affects the output
// (intensity, format, JPEG quality). Re-running a conversion over unchanged
// inputs is then a cache lookup instead of a decode/blur/encode cycle.
//
// Implementations:
//   - [FileCache]: JSON entries under the user cache directory (CLI default)
//   - [NullCache]: never stores anything (--no-cache)
//
// Keys are produced by a [Keyer]; [NewScopedKeyer] prefixes every key so
// separate tools can share one directory without collisions.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values by key with an optional TTL.
type Cache interface {
	// Get returns the value for key and whether it was found.
	// Expired or corrupt entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Default TTLs for cached artifacts.
const (
	// TTLSketch is how long an encoded sketch stays valid.
	TTLSketch = 7 * 24 * time.Hour

	// TTLPreview is how long a side-by-side preview stays valid.
	TTLPreview = 24 * time.Hour
)
