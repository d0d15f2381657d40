package embedding

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// EmbeddingLock is a cross-process file lock serializing access to the
// embedding model/GPU resource a host's workspaces share: only one workspace
// may be loading, reloading, or batching through a GPU-backed provider at a
// time, so two miller processes never thrash a single Ollama instance by
// requesting different models at once. Works on Unix and Windows.
type EmbeddingLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewEmbeddingLock creates a lock file at <dir>/.embedding.lock.
func NewEmbeddingLock(dir string) *EmbeddingLock {
	path := filepath.Join(dir, ".embedding.lock")
	return &EmbeddingLock{path: path, flock: flock.New(path)}
}

// Lock acquires the lock, blocking until it is available.
func (l *EmbeddingLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire embedding lock: %w", err)
	}
	l.locked = true
	return nil
}

// TryLock attempts to acquire the lock without blocking.
func (l *EmbeddingLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire embedding lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call multiple times or when not held.
func (l *EmbeddingLock) Unlock() error {
	if !l.locked {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		l.locked = false
		return fmt.Errorf("failed to release embedding lock: %w", err)
	}
	l.locked = false
	return nil
}

func (l *EmbeddingLock) Path() string    { return l.path }
func (l *EmbeddingLock) IsLocked() bool  { return l.locked }
