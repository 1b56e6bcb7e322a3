// Package fscache implements a filesystem-backed key/value cache with
// expiration. Every entry lives in its own file, named exactly after its
// key, holding a JSON envelope of {"lifetime": <unix expiry>, "data": <value>}.
//
// Reads go through an in-process shadow of raw file contents so a key is
// read from disk at most once per Store, unless it is rewritten or deleted.
// Expired, empty and undecodable files are removed lazily by the read that
// discovers them; there is no background sweeper.
//
// Public operations never return errors: an invalid key, an unencodable
// value or a failed file operation is reported as false (or the caller's
// default value). Only New can fail.
//
// A Store serializes its own operations with a single mutex. Nothing
// coordinates separate processes sharing a directory; the last writer on
// disk wins and each Store's shadow may go stale.
package fscache

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/goccy/go-json"
)

// Store is an Entry Store rooted at one directory.
type Store struct {
	dir       string
	now       func() time.Time
	log       logr.Logger
	observers []Observer

	mu sync.Mutex
	// shadow maps key to the raw bytes last read or written. A nil value
	// records that the file was absent when it was read.
	shadow map[string][]byte
}

// New resolves dir with ResolveDir and returns a Store rooted there.
func New(dir string, opts ...Option) (*Store, error) {
	cfg := config{
		now:    time.Now,
		logger: logr.Discard(),
	}
	for _, o := range opts {
		o(&cfg)
	}

	abs, err := ResolveDir(dir)
	if err != nil {
		return nil, err
	}

	return &Store{
		dir:      abs,
		now:      cfg.now,
		log:      cfg.logger.WithName("fscache"),
		observers: cfg.observers,
		shadow:    make(map[string][]byte),
	}, nil
}

// Dir returns the absolute directory holding the entry files.
func (s *Store) Dir() string {
	return s.dir
}

// Location returns the file path used for key. The key is not validated.
func (s *Store) Location(key string) string {
	return filepath.Join(s.dir, key)
}

// Set stores value under key for ttl (nil means DefaultLifetime). It reports
// false for an invalid key, a value the envelope cannot encode, or a failed
// write; in all those cases the previous file is left untouched.
func (s *Store) Set(key string, value any, ttl Lifetime) bool {
	if !ValidKey(key) {
		s.observe(EventSetFailed)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(key, value, ttl)
}

// Get returns the live value stored under key, or def when the key is
// invalid, absent, expired or unreadable.
func (s *Store) Get(key string, def any) any {
	if v, ok := s.Lookup(key); ok {
		return v
	}
	return def
}

// Lookup returns the live value stored under key and whether one was found.
// Unlike Has it does not care whether the value is empty.
func (s *Store) Lookup(key string) (any, bool) {
	if !ValidKey(key) {
		s.observe(EventMiss)
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.load(key)
	if !ok {
		return nil, false
	}
	v, err := e.value()
	if err != nil {
		return nil, false
	}
	return v, true
}

// Scan decodes the live value stored under key into dst, which must be a
// pointer. It reports false when there is no live value or it does not fit dst.
func (s *Store) Scan(key string, dst any) bool {
	if !ValidKey(key) {
		s.observe(EventMiss)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.load(key)
	if !ok {
		return false
	}
	return json.Unmarshal(e.data, dst) == nil
}

// ScanTTL is Scan that also reports how long the entry stays live. The
// duration runs to the end of the expiry second, so it is always positive
// for a hit.
func (s *Store) ScanTTL(key string, dst any) (time.Duration, bool) {
	if !ValidKey(key) {
		s.observe(EventMiss)
		return 0, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.load(key)
	if !ok || json.Unmarshal(e.data, dst) != nil {
		return 0, false
	}
	return time.Unix(e.expiry+1, 0).Sub(s.now()), true
}

// Has reports whether Get would return a non-empty value. A stored nil,
// false, 0, "", "0", empty list or empty map is indistinguishable from a
// missing entry here; use Lookup to test for presence alone.
func (s *Store) Has(key string) bool {
	return !empty(s.Get(key, nil))
}

// Delete removes the entry for key. When the file cannot be removed it is
// truncated instead, which later reads treat as absent. Deleting a missing
// key succeeds.
func (s *Store) Delete(key string) bool {
	if !ValidKey(key) {
		s.observe(EventDeleteFailed)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.remove(key) {
		s.observe(EventDeleteFailed)
		return false
	}
	s.observe(EventDelete)
	return true
}

// Touch rewrites a live entry with a new lifetime measured from now. It
// reports false when the entry is absent or already expired.
func (s *Store) Touch(key string, ttl Lifetime) bool {
	if !ValidKey(key) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.load(key)
	if !ok {
		return false
	}
	return s.set(key, e.data, ttl)
}

// GetMultiple calls Get for every key.
func (s *Store) GetMultiple(keys []string, def any) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = s.Get(k, def)
	}
	return out
}

// SetMultiple calls Set for every pair and reports whether at least one
// write succeeded.
func (s *Store) SetMultiple(values map[string]any, ttl Lifetime) bool {
	ok := false
	for k, v := range values {
		ok = s.Set(k, v, ttl) || ok
	}
	return ok
}

// DeleteMultiple calls Delete for every key and reports whether at least
// one deletion succeeded.
func (s *Store) DeleteMultiple(keys []string) bool {
	ok := false
	for _, k := range keys {
		ok = s.Delete(k) || ok
	}
	return ok
}

// All returns a copy of the shadow cache: raw stored bytes per key, as last
// read or written by this Store. A nil value means the file was absent when
// it was read. The bytes are not decoded and may be stale.
func (s *Store) All() map[string][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]byte, len(s.shadow))
	for k, v := range s.shadow {
		out[k] = bytes.Clone(v)
	}
	return out
}

func (s *Store) set(key string, value any, ttl Lifetime) bool {
	raw, err := encode(expiryAt(ttl, s.now()), value)
	if err != nil {
		s.log.Error(err, "value not stored", "key", key)
		s.observe(EventSetFailed)
		return false
	}
	if err := s.write(key, raw); err != nil {
		s.log.Error(err, "write failed", "key", key)
		s.observe(EventSetFailed)
		return false
	}

	s.shadow[key] = raw
	s.observe(EventSet)
	return true
}

// write replaces the file for key through a temporary sibling so a failed
// write never leaves a partial envelope behind. Temporary names contain a
// '~', which no valid key does.
func (s *Store) write(key string, raw []byte) error {
	f, err := os.CreateTemp(s.dir, key+"~*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	_, err = f.Write(raw)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmp, 0o644)
	}
	if err == nil {
		err = os.Rename(tmp, s.Location(key))
	}
	if err != nil {
		_ = os.Remove(tmp)
	}
	return err
}

// load returns the live entry for key, consulting the shadow before the
// disk. Empty, corrupt and expired files are removed on the way.
func (s *Store) load(key string) (entry, bool) {
	raw, cached := s.shadow[key]
	if !cached {
		data, err := os.ReadFile(s.Location(key))
		switch {
		case err == nil:
			raw = data
			if raw == nil {
				raw = []byte{}
			}
		case !errors.Is(err, fs.ErrNotExist):
			s.log.V(1).Info("entry not readable", "key", key, "error", err.Error())
		}
		s.shadow[key] = raw
	}
	if raw == nil {
		s.observe(EventMiss)
		return entry{}, false
	}

	e, err := decode(raw)
	if err != nil {
		s.log.V(1).Info("removing unreadable entry", "key", key, "reason", err.Error())
		s.remove(key)
		s.observe(EventCorrupt)
		s.observe(EventMiss)
		return entry{}, false
	}
	if !live(e.expiry, s.now()) {
		s.log.V(1).Info("removing expired entry", "key", key, "expiry", e.expiry)
		s.remove(key)
		s.observe(EventExpired)
		s.observe(EventMiss)
		return entry{}, false
	}

	s.observe(EventHit)
	return e, true
}

// File operations used by remove. Tests swap them to simulate failures.
var (
	lstatFile    = os.Lstat
	removeFile   = os.Remove
	truncateFile = os.Truncate
)

// remove deletes the file for name, falling back to truncation. It reports
// true when the end state is absent or empty. Only regular files are
// touched; anything else under the name is left alone and counts as absent.
func (s *Store) remove(name string) bool {
	delete(s.shadow, name)

	path := s.Location(name)
	fi, err := lstatFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return true
	case err != nil:
		s.log.Error(err, "entry could not be inspected", "key", name)
		return false
	case !fi.Mode().IsRegular():
		return true
	}

	rmErr := removeFile(path)
	if rmErr == nil || errors.Is(rmErr, fs.ErrNotExist) {
		return true
	}
	if err := truncateFile(path, 0); err != nil {
		s.log.Error(err, "entry could not be removed or truncated", "key", name, "removeError", rmErr.Error())
		return false
	}

	s.log.V(1).Info("entry truncated instead of removed", "key", name, "removeError", rmErr.Error())
	s.observe(EventTruncated)
	return true
}

func (s *Store) observe(ev Event) {
	for _, o := range s.observers {
		o.Observe(ev)
	}
}
