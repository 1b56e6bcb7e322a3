package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Keksclan/goRawrCache/breaker"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// l2Breaker trips after a handful of consecutive Redis failures so an
// unreachable server costs one fast Allow check instead of a dial per call.
var l2Breaker = breaker.Config{
	FailureThreshold:   5,
	OpenTimeout:        10 * time.Second,
	HalfOpenMaxSuccess: 1,
}

// L2 is a Redis-backed cache layer. All operations fail soft: if Redis is
// unavailable, methods return a miss (or silently discard the write) instead
// of surfacing the error to the caller.
type L2 struct {
	rdb   *redis.Client
	br    *breaker.Breaker
	loads singleflight.Group
}

// NewL2 creates a new Redis-backed L2 cache.
func NewL2(addr, password string, db int) *L2 {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &L2{rdb: rdb, br: breaker.New(l2Breaker)}
}

// Get retrieves a value by key. Returns (nil, false, nil) on a miss or when
// Redis is unreachable.
func (l *L2) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, _, ok, err := l.getTTL(ctx, key)
	return v, ok, err
}

// getTTL reads the value and its PTTL in one round trip. A key without an
// expiry reports a zero duration.
func (l *L2) getTTL(ctx context.Context, key string) ([]byte, time.Duration, bool, error) {
	var (
		val []byte
		ttl time.Duration
	)
	err := l.br.Do(func() error {
		var (
			get  *redis.StringCmd
			pttl *redis.DurationCmd
		)
		_, err := l.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
			get = p.Get(ctx, key)
			pttl = p.PTTL(ctx, key)
			return nil
		})
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		val, _ = get.Bytes()
		ttl = pttl.Val()
		return nil
	})
	if err != nil || val == nil {
		return nil, 0, false, nil
	}
	switch {
	case ttl == -1:
		// Persistent key.
		ttl = 0
	case ttl <= 0:
		// Expired between GET and PTTL.
		return nil, 0, false, nil
	}
	return val, ttl, true, nil
}

// Set stores a value under key with the given TTL. A zero TTL means the entry
// has no automatic expiration. Errors are silently discarded (fail soft).
func (l *L2) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	_ = l.br.Do(func() error {
		return l.rdb.Set(ctx, key, val, ttl).Err()
	})
	return nil
}

// Delete removes key. Errors are silently discarded (fail soft).
func (l *L2) Delete(ctx context.Context, key string) error {
	_ = l.br.Do(func() error {
		return l.rdb.Del(ctx, key).Err()
	})
	return nil
}

// GetOrSet returns the cached value for key, calling loader once on a miss.
func (l *L2) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	return getOrSet(ctx, l, &l.loads, key, ttl, loader)
}

// Ping checks the Redis connection.
func (l *L2) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (l *L2) Close() error {
	return l.rdb.Close()
}
