package fscache

import (
	"errors"
	"fmt"
)

// ErrInvalidKey is returned by ValidateKey for keys outside the [A-Za-z0-9_.-]+ grammar.
var ErrInvalidKey = errors.New("fscache: invalid key")

// ValidKey reports whether key may be used as an entry name. Keys are used
// verbatim as file names, so only ASCII letters, digits, underscore, hyphen
// and dot are accepted. There is no length limit.
func ValidKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		if !keyByte(key[i]) {
			return false
		}
	}
	return true
}

// ValidateKey is the error-returning form of ValidKey.
func ValidateKey(key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func keyByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '-', c == '.':
		return true
	}
	return false
}
