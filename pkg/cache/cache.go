// Package cache provides pluggable byte caches for CDN bundles and
// registry metadata.
//
// Two backends are provided: [FileCache] for CLI usage (entries under the
// user cache directory) and [RedisCache] for server deployments where
// multiple processes share one cache. [NullCache] disables caching
// entirely, and [Scoped] prefixes keys so independent consumers can share
// one backend without collisions.
//
// Entries carry a TTL chosen by the caller. Bundles for a pinned
// name@version are immutable on the CDN, so they cache for days; registry
// metadata (dist-tags, resolved versions) moves and caches for minutes.
package cache

import (
	"context"
	"time"
)

// Suggested TTLs per entry class.
const (
	// TTLBundle applies to fetched module bundles. A published version
	// never changes, so the TTL only bounds disk usage.
	TTLBundle = 7 * 24 * time.Hour

	// TTLMetadata applies to registry metadata lookups, which must track
	// tag and release movement.
	TTLMetadata = time.Hour
)

// Cache stores opaque byte values by key. Implementations must be safe
// for concurrent use. A TTL of 0 or less means the entry never expires.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// NullCache is a no-op cache that never stores anything.
// Useful for testing or when caching should be disabled.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache {
	return &NullCache{}
}

// Get always returns a cache miss.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set does nothing.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Close does nothing.
func (c *NullCache) Close() error {
	return nil
}

// Ensure NullCache implements Cache.
var _ Cache = (*NullCache)(nil)
