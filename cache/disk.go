package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Keksclan/goRawrCache/fscache"
	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
)

// noExpiry stands in for a zero TTL; fscache entries always carry an expiry.
const noExpiry = 100 * 365 * 24 * time.Hour

// ErrNotJSON is returned by Disk.Set for a value that is not a JSON document.
var ErrNotJSON = errors.New("cache: value is not JSON")

// Disk adapts an fscache.Store to the Cache contract. Values are JSON
// documents kept verbatim as the entry data, so entries written through
// the store, the gRPC service or the HTTP API are read back unchanged, and
// anything written here is visible to every Store rooted at the same
// directory.
type Disk struct {
	store *fscache.Store
	loads singleflight.Group
}

// NewDisk wraps store.
func NewDisk(store *fscache.Store) *Disk {
	return &Disk{store: store}
}

// Get returns the stored JSON for key. An invalid key is reported as an
// error wrapping fscache.ErrInvalidKey.
func (d *Disk) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, _, ok, err := d.getTTL(ctx, key)
	return v, ok, err
}

func (d *Disk) getTTL(_ context.Context, key string) ([]byte, time.Duration, bool, error) {
	if err := fscache.ValidateKey(key); err != nil {
		return nil, 0, false, err
	}
	var raw json.RawMessage
	ttl, ok := d.store.ScanTTL(key, &raw)
	if !ok {
		return nil, 0, false, nil
	}
	return raw, ttl, true, nil
}

// Set stores the JSON document val under key with the given TTL. A TTL of
// zero or less keeps the entry for a century.
func (d *Disk) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	if err := fscache.ValidateKey(key); err != nil {
		return err
	}
	if !json.Valid(val) {
		return fmt.Errorf("%w: %w: %q", ErrNotStored, ErrNotJSON, key)
	}
	if ttl <= 0 {
		ttl = noExpiry
	}
	if !d.store.Set(key, json.RawMessage(val), fscache.Duration(ttl)) {
		return fmt.Errorf("%w: %q", ErrNotStored, key)
	}
	return nil
}

// Delete removes key from disk.
func (d *Disk) Delete(_ context.Context, key string) error {
	if err := fscache.ValidateKey(key); err != nil {
		return err
	}
	if !d.store.Delete(key) {
		return fmt.Errorf("cache: delete %q failed", key)
	}
	return nil
}

// GetOrSet returns the stored value for key, calling loader once on a miss.
func (d *Disk) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	return getOrSet(ctx, d, &d.loads, key, ttl, loader)
}
