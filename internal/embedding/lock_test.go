package embedding

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddingLock_LockUnlock(t *testing.T) {
	dir := t.TempDir()
	lock := NewEmbeddingLock(dir)

	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	if _, err := os.Stat(lock.Path()); os.IsNotExist(err) {
		t.Error("lock file was not created")
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock() failed: %v", err)
	}
}

func TestEmbeddingLock_UnlockWithoutLock(t *testing.T) {
	lock := NewEmbeddingLock(t.TempDir())
	if err := lock.Unlock(); err != nil {
		t.Errorf("Unlock() without Lock() should not error: %v", err)
	}
}

func TestEmbeddingLock_TryLock_AlreadyLocked(t *testing.T) {
	dir := t.TempDir()

	lock1 := NewEmbeddingLock(dir)
	if err := lock1.Lock(); err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	defer func() { _ = lock1.Unlock() }()

	lock2 := NewEmbeddingLock(dir)
	acquired, err := lock2.TryLock()
	if err != nil {
		t.Fatalf("TryLock() error: %v", err)
	}
	if acquired {
		t.Error("TryLock() should return false when lock is held")
	}
}

func TestEmbeddingLock_Path(t *testing.T) {
	dir := "/some/dir"
	lock := NewEmbeddingLock(dir)

	expected := filepath.Join(dir, ".embedding.lock")
	if lock.Path() != expected {
		t.Errorf("Path() = %q, want %q", lock.Path(), expected)
	}
}

func TestEmbeddingLock_IsLocked(t *testing.T) {
	lock := NewEmbeddingLock(t.TempDir())

	if lock.IsLocked() {
		t.Error("new lock should not be locked")
	}
	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	if !lock.IsLocked() {
		t.Error("lock should be locked after Lock()")
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock() failed: %v", err)
	}
	if lock.IsLocked() {
		t.Error("lock should not be locked after Unlock()")
	}
}

func TestEmbeddingLock_CreatesDirectory(t *testing.T) {
	baseDir := t.TempDir()
	nestedDir := filepath.Join(baseDir, "nested", "dir", "for", "lock")

	lock := NewEmbeddingLock(nestedDir)
	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock() failed to create nested directory: %v", err)
	}
	defer func() { _ = lock.Unlock() }()

	if _, err := os.Stat(nestedDir); os.IsNotExist(err) {
		t.Error("Lock() did not create the nested directory")
	}
}
