// Package concurrency holds the process-wide synchronization primitives the
// tool layer shares across workspaces: the startup readiness gate, the
// cross-workspace indexing lock, and the embedding/GPU resource lock.
package concurrency

import (
	"context"
	"sync"
	"time"

	"github.com/standardbeagle/miller/internal/errs"
)

// DefaultBarrierTimeout is how long Wait blocks before surfacing a NotReady
// error naming the subsystem that never signaled.
const DefaultBarrierTimeout = 30 * time.Second

// InitBarrier is a one-shot readiness gate: tool handlers call Wait before
// touching Storage, the vector store, or the watcher, and block until Open
// signals that startup finished (or the deadline passes).
type InitBarrier struct {
	once    sync.Once
	ch      chan struct{}
	subject string

	mu  sync.Mutex
	err error
}

// NewInitBarrier creates a barrier naming the subsystem it gates, used only
// in the timeout error message (e.g. "storage", "vector index").
func NewInitBarrier(subject string) *InitBarrier {
	return &InitBarrier{ch: make(chan struct{}), subject: subject}
}

// Open signals that initialization finished. Safe to call more than once;
// only the first call's err is recorded and only the first call closes the
// channel.
func (b *InitBarrier) Open(err error) {
	b.once.Do(func() {
		b.mu.Lock()
		b.err = err
		b.mu.Unlock()
		close(b.ch)
	})
}

// Wait blocks until Open is called or timeout elapses (DefaultBarrierTimeout
// if timeout <= 0), whichever is first, and also returns early if ctx is
// canceled. Returns the error Open was called with, or a NotReady error
// naming the gated subsystem on timeout/cancellation.
func (b *InitBarrier) Wait(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultBarrierTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-b.ch:
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.err
	case <-ctx.Done():
		return errs.Wrap(errs.ErrCodeNotReady, ctx.Err())
	case <-timer.C:
		return errs.New(errs.ErrCodeNotReady, "timed out waiting for "+b.subject+" to become ready", nil)
	}
}

// IsOpen reports whether Open has already been called, without blocking.
func (b *InitBarrier) IsOpen() bool {
	select {
	case <-b.ch:
		return true
	default:
		return false
	}
}
