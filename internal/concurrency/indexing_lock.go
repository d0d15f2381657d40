package concurrency

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// IndexingLock serializes indexer runs across every workspace a process
// manages: only one scan/batch may be in flight at a time, so two workspaces
// never contend for the same embedding/GPU resource mid-batch. Queries never
// take this lock — only index/reindex/watch-triggered batches do.
//
// Grounded on the teacher's BackgroundIndexer: a running flag guarded by a
// mutex, plus an on-disk lock file that lets a restarted process detect an
// indexing run that crashed mid-batch.
type IndexingLock struct {
	dataDir string

	mu      sync.Mutex
	running bool
	holder  string
}

// NewIndexingLock creates a lock whose crash-recovery marker lives at
// <dataDir>/indexing.lock.
func NewIndexingLock(dataDir string) *IndexingLock {
	return &IndexingLock{dataDir: dataDir}
}

// TryLock attempts to acquire the lock for the named workspace without
// blocking, writing the crash-recovery marker on success.
func (l *IndexingLock) TryLock(workspaceID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return false, nil
	}
	if err := l.writeMarker(workspaceID); err != nil {
		return false, err
	}
	l.running = true
	l.holder = workspaceID
	return true, nil
}

// Unlock releases the lock and removes the crash-recovery marker. Safe to
// call when not held.
func (l *IndexingLock) Unlock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.running = false
	l.holder = ""
	_ = os.Remove(l.markerPath())
}

// IsLocked reports whether an indexing run currently holds the lock, and if
// so, which workspace holds it.
func (l *IndexingLock) IsLocked() (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running, l.holder
}

// HasIncompleteMarker reports whether a prior process left a crash-recovery
// marker behind without cleaning it up — a sign the last indexing run never
// finished.
func (l *IndexingLock) HasIncompleteMarker() bool {
	_, err := os.Stat(l.markerPath())
	return err == nil
}

func (l *IndexingLock) markerPath() string {
	return filepath.Join(l.dataDir, "indexing.lock")
}

func (l *IndexingLock) writeMarker(workspaceID string) error {
	if err := os.MkdirAll(l.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create indexing lock directory: %w", err)
	}
	contents := fmt.Sprintf("%s\n%s\n", workspaceID, time.Now().Format(time.RFC3339))
	if err := os.WriteFile(l.markerPath(), []byte(contents), 0644); err != nil {
		return fmt.Errorf("failed to write indexing lock marker: %w", err)
	}
	return nil
}
