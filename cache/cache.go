// Package cache provides a byte-oriented caching contract and stackable
// layers implementing it: Disk (entries persisted by fscache), L1 (bounded,
// in-process, backed by ristretto) and L2 (Redis, fail-soft). Tiered chains
// any of them into a read-through, write-through hierarchy.
package cache

import (
	"bytes"
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrNotStored is returned when a layer refuses or fails to persist a value.
var ErrNotStored = errors.New("cache: value not stored")

// Cache is the public caching contract exposed to user logic.
type Cache interface {
	// Get retrieves a value by key. The boolean indicates a cache hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key with the given TTL. A zero TTL means the
	// entry has no automatic expiration.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// GetOrSet returns the cached value for key. On a cache miss it calls
	// loader exactly once, stores the result, and returns it.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error)
}

// ttlReader is implemented by layers that can tell how long a hit stays
// valid. A zero duration means the entry never expires. Tiered only promotes
// hits from layers implementing it.
type ttlReader interface {
	getTTL(ctx context.Context, key string) ([]byte, time.Duration, bool, error)
}

// readWriter is the subset of Cache that getOrSet builds on.
type readWriter interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// getOrSet returns the value held by c, or runs loader once per key across
// concurrent callers and stores its result. A failed store does not fail
// the call; the loaded value is still returned.
func getOrSet(ctx context.Context, c readWriter, loads *singleflight.Group, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok, err := c.Get(ctx, key); err != nil {
		return nil, err
	} else if ok {
		return v, nil
	}

	v, err, _ := loads.Do(key, func() (any, error) {
		val, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		_ = c.Set(ctx, key, val, ttl)
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	return bytes.Clone(v.([]byte)), nil
}
