// Package cache provides the key-value stores used by mftypes.
//
// Two concerns share the [Cache] interface:
//
//   - Install state: the manifest each remote delivered on its last
//     successful sync, used to prune files a remote no longer publishes.
//     Backed by [FileCache] on a developer machine or [RedisCache] when
//     several CI runners share one install cache.
//   - Manifest memoization: [LRUCache] keeps decoded manifests for the
//     duration of one process so repeated syncs against the same base URL
//     do not refetch.
//
// [NullCache] disables either concern.
//
// Keys are produced by a [Keyer] so every backend sees the same layout.
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/mftypes/pkg/errors"
)

// Cache is a byte-oriented key-value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	// A missing or expired key is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLs per entry kind.
const (
	// TTLState keeps install state until it is overwritten or cleared.
	TTLState time.Duration = 0

	// TTLManifest bounds how long a memoized remote manifest is trusted.
	TTLManifest = 5 * time.Minute
)

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Open creates the cache for backend. dir is used by the file backend
// (empty selects [DefaultDir]) and redisURL by the redis backend.
func Open(ctx context.Context, backend, dir, redisURL string) (Cache, error) {
	switch backend {
	case BackendFile, "":
		return NewFileCache(dir)
	case BackendRedis:
		if redisURL == "" {
			return nil, errors.New(errors.ErrCodeConfigMissing, "redis state backend requires a redis url")
		}
		return NewRedisCache(ctx, redisURL)
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown state backend %q", backend)
	}
}
