package cache

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"
)

// l1Item is a value with its deadline. A zero deadline never expires.
// ristretto drops items on its own TTL as well; the deadline makes a hit
// agree with nowFunc down to the instant.
type l1Item struct {
	val      []byte
	deadline time.Time
}

// L1 is a bounded in-process cache backed by ristretto. It may evict
// entries before their TTL when full.
type L1 struct {
	rc      *ristretto.Cache[string, l1Item]
	loads   singleflight.Group
	nowFunc func() time.Time
}

// NewL1 creates a new L1 cache holding at most maxCost entries.
func NewL1(maxCost int64) (*L1, error) {
	rc, err := ristretto.NewCache(&ristretto.Config[string, l1Item]{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &L1{rc: rc, nowFunc: time.Now}, nil
}

// Get retrieves a value by key.
func (l *L1) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, _, ok, err := l.getTTL(ctx, key)
	return v, ok, err
}

func (l *L1) getTTL(_ context.Context, key string) ([]byte, time.Duration, bool, error) {
	it, ok := l.rc.Get(key)
	if !ok {
		return nil, 0, false, nil
	}
	var ttl time.Duration
	if !it.deadline.IsZero() {
		ttl = it.deadline.Sub(l.nowFunc())
		if ttl <= 0 {
			l.rc.Del(key)
			return nil, 0, false, nil
		}
	}
	return bytes.Clone(it.val), ttl, true, nil
}

// Set stores a value under key with the given TTL. A zero TTL means the
// entry has no automatic expiration.
func (l *L1) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	it := l1Item{val: bytes.Clone(val)}
	if ttl > 0 {
		it.deadline = l.nowFunc().Add(ttl)
	}
	if !l.rc.SetWithTTL(key, it, 1, ttl) {
		return ErrNotStored
	}
	l.rc.Wait()
	return nil
}

// Delete removes key.
func (l *L1) Delete(_ context.Context, key string) error {
	l.rc.Del(key)
	return nil
}

// GetOrSet returns the cached value for key. On a miss it calls loader once
// (deduplicating concurrent callers for the same key), stores the result, and
// returns it.
func (l *L1) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	return getOrSet(ctx, l, &l.loads, key, ttl, loader)
}

// Close stops ristretto's background goroutines.
func (l *L1) Close() {
	l.rc.Close()
}
