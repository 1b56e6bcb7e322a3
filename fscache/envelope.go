package fscache

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var (
	errEmptyEntry   = errors.New("fscache: empty entry")
	errCorruptEntry = errors.New("fscache: corrupt entry")
)

// envelope is the on-disk shape of an entry.
type envelope struct {
	Lifetime int64 `json:"lifetime"`
	Data     any   `json:"data"`
}

// entry is a decoded envelope. data stays raw until a caller asks for it.
type entry struct {
	expiry int64
	data   json.RawMessage
}

func encode(expiry int64, value any) ([]byte, error) {
	raw, err := json.Marshal(envelope{Lifetime: expiry, Data: value})
	if err != nil {
		return nil, fmt.Errorf("fscache: encode: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (entry, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return entry{}, errEmptyEntry
	}

	var wire struct {
		Lifetime *int64          `json:"lifetime"`
		Data     json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return entry{}, fmt.Errorf("%w: %v", errCorruptEntry, err)
	}
	if wire.Lifetime == nil {
		return entry{}, fmt.Errorf("%w: missing lifetime", errCorruptEntry)
	}
	if isNull(wire.Data) {
		return entry{}, fmt.Errorf("%w: missing data", errCorruptEntry)
	}
	return entry{expiry: *wire.Lifetime, data: wire.Data}, nil
}

// value decodes the payload into generic JSON values.
func (e entry) value() (any, error) {
	var v any
	if err := json.Unmarshal(e.data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptEntry, err)
	}
	return v, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// empty mirrors the truthiness rule Has is defined by: nil, false, zero,
// "", "0" and empty lists or maps all count as empty.
func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == "" || t == "0"
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
