package fscache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrDirUnusable is returned when the cache directory cannot be created or read.
var ErrDirUnusable = errors.New("fscache: directory is not usable")

// DefaultDir is the directory used when New receives an empty path.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "goRawrCache", "FileSystemCache")
}

// ResolveDir turns dir into an absolute, existing, readable directory. An
// empty dir selects DefaultDir; relative paths (including "./x") resolve
// against the working directory. Missing directories are created with mode
// 0755.
func ResolveDir(dir string) (string, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDirUnusable, dir, err)
	}

	if _, err := os.Stat(abs); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrDirUnusable, abs, err)
		}
		// MkdirAll is subject to the umask; the leaf gets the exact mode.
		_ = os.Chmod(abs, 0o755)
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDirUnusable, abs, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrDirUnusable, abs)
	}
	f, err := os.Open(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not readable: %v", ErrDirUnusable, abs, err)
	}
	_ = f.Close()

	return abs, nil
}
