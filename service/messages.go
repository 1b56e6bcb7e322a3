package service

import "github.com/goccy/go-json"

// Values travel as raw JSON so any shape the store accepts round-trips
// without the server knowing its type.

// SetRequest stores Value under Key. A nil TTLSeconds selects the store's
// default lifetime.
type SetRequest struct {
	Key        string          `json:"key"`
	Value      json.RawMessage `json:"value"`
	TTLSeconds *int64          `json:"ttl_seconds,omitempty"`
}

// GetRequest fetches Key, answering Default when there is no live value.
type GetRequest struct {
	Key     string          `json:"key"`
	Default json.RawMessage `json:"default,omitempty"`
}

// GetResponse carries the value or the requested default.
type GetResponse struct {
	Value json.RawMessage `json:"value"`
	Found bool            `json:"found"`
}

// KeyRequest names a single entry.
type KeyRequest struct {
	Key string `json:"key"`
}

// TouchRequest gives Key a new lifetime measured from now.
type TouchRequest struct {
	Key        string `json:"key"`
	TTLSeconds *int64 `json:"ttl_seconds,omitempty"`
}

// PatternRequest selects entries by glob pattern.
type PatternRequest struct {
	Pattern string `json:"pattern"`
}

// KeysRequest names several entries.
type KeysRequest struct {
	Keys    []string        `json:"keys"`
	Default json.RawMessage `json:"default,omitempty"`
}

// ValuesResponse maps each requested key to its value or the default.
type ValuesResponse struct {
	Values map[string]json.RawMessage `json:"values"`
}

// SetMultipleRequest stores every pair in Values.
type SetMultipleRequest struct {
	Values     map[string]json.RawMessage `json:"values"`
	TTLSeconds *int64                     `json:"ttl_seconds,omitempty"`
}

// Empty is used by methods without arguments.
type Empty struct{}

// Result reports the boolean outcome of a store operation.
type Result struct {
	OK bool `json:"ok"`
}

// AllResponse is the store's shadow cache: raw envelope bytes per key, nil
// for keys last seen absent.
type AllResponse struct {
	Entries map[string][]byte `json:"entries"`
}

// PingRequest is the input for the Ping method.
type PingRequest struct {
	Message string `json:"message"`
}

// PingResponse echoes the message with the server time and cache directory.
type PingResponse struct {
	Message        string `json:"message"`
	ServerTimeUnix int64  `json:"server_time_unix"`
	Directory      string `json:"directory"`
}

// WatchRequest subscribes to store events by name ("set", "delete",
// "expired", ...). An empty list selects every event.
type WatchRequest struct {
	Events []string `json:"events,omitempty"`
}

// WatchEvent is one store event pushed to a watcher.
type WatchEvent struct {
	Event        string `json:"event"`
	TimeUnixNano int64  `json:"time_unix_nano"`
}

// CacheKey returns the key the request addresses.
func (r *SetRequest) CacheKey() string { return r.Key }

// CacheKey returns the key the request addresses.
func (r *GetRequest) CacheKey() string { return r.Key }

// CacheKey returns the key the request addresses.
func (r *KeyRequest) CacheKey() string { return r.Key }

// CacheKey returns the key the request addresses.
func (r *TouchRequest) CacheKey() string { return r.Key }

// cacheMsg is a marker interface satisfied by every message of this service.
type cacheMsg interface {
	isCacheMsg()
}

func (*SetRequest) isCacheMsg()         {}
func (*GetRequest) isCacheMsg()         {}
func (*GetResponse) isCacheMsg()        {}
func (*KeyRequest) isCacheMsg()         {}
func (*TouchRequest) isCacheMsg()       {}
func (*PatternRequest) isCacheMsg()     {}
func (*KeysRequest) isCacheMsg()        {}
func (*ValuesResponse) isCacheMsg()     {}
func (*SetMultipleRequest) isCacheMsg() {}
func (*Empty) isCacheMsg()              {}
func (*Result) isCacheMsg()             {}
func (*AllResponse) isCacheMsg()        {}
func (*PingRequest) isCacheMsg()        {}
func (*PingResponse) isCacheMsg()       {}
func (*WatchRequest) isCacheMsg()       {}
func (*WatchEvent) isCacheMsg()         {}
