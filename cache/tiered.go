package cache

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// Tiered chains cache layers, nearest first (for example L1, Disk, L2).
// Reads walk the layers in order and promote a hit into every nearer layer;
// writes and deletes go to all layers, farthest first.
type Tiered struct {
	layers []Cache
	loads  singleflight.Group
}

// NewTiered creates a cache hierarchy from layers, nearest first.
func NewTiered(layers ...Cache) *Tiered {
	return &Tiered{layers: layers}
}

// Get returns the first hit. A hit below the first layer is promoted into
// every nearer layer for the rest of its lifetime, so a promoted copy never
// outlives its source. Hits from a layer that cannot report a lifetime are
// not promoted. An error from any layer stops the walk.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	for i, l := range t.layers {
		tl, known := l.(ttlReader)
		var (
			v   []byte
			ttl time.Duration
			ok  bool
			err error
		)
		if known {
			v, ttl, ok, err = tl.getTTL(ctx, key)
		} else {
			v, ok, err = l.Get(ctx, key)
		}
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		if known {
			for _, nearer := range t.layers[:i] {
				_ = nearer.Set(ctx, key, v, ttl)
			}
		}
		return v, true, nil
	}
	return nil, false, nil
}

// Set writes the value to every layer.
func (t *Tiered) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	var errs []error
	for i := len(t.layers) - 1; i >= 0; i-- {
		errs = append(errs, t.layers[i].Set(ctx, key, val, ttl))
	}
	return errors.Join(errs...)
}

// Delete removes key from every layer.
func (t *Tiered) Delete(ctx context.Context, key string) error {
	var errs []error
	for i := len(t.layers) - 1; i >= 0; i-- {
		errs = append(errs, t.layers[i].Delete(ctx, key))
	}
	return errors.Join(errs...)
}

// GetOrSet walks the layers and falls back to loader on a full miss,
// deduplicating concurrent loads for the same key. The loaded value is
// written to every layer.
func (t *Tiered) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	return getOrSet(ctx, t, &t.loads, key, ttl, loader)
}
