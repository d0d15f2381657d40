package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// fileLock is a cross-process file lock serializing registry.json reads and
// writes across miller processes sharing a base directory. Mirrors the
// embedding manager's download lock: same gofrs/flock dependency, a second
// concern.
type fileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

func newFileLock(dir string) *fileLock {
	path := filepath.Join(dir, ".registry.lock")
	return &fileLock{path: path, flock: flock.New(path)}
}

func (l *fileLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create registry lock directory: %w", err)
	}
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire registry lock: %w", err)
	}
	l.locked = true
	return nil
}

func (l *fileLock) Unlock() error {
	if !l.locked {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		l.locked = false
		return fmt.Errorf("failed to release registry lock: %w", err)
	}
	l.locked = false
	return nil
}
