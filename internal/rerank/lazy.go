package rerank

import (
	"context"
	"log/slog"
	"sync"
)

// Loader constructs the real reranker backend on first use.
type Loader func(ctx context.Context) (Reranker, error)

// Lazy defers constructing the underlying reranker until its first call,
// and never surfaces a load failure to the caller: a failed or unavailable
// backend falls back to NoOpReranker for the rest of the process, matching
// the spec's transparent-pass-through requirement (§4.8) — rerank failures
// must never surface as tool errors.
type Lazy struct {
	load Loader

	once    sync.Once
	backend Reranker
	loadErr error
}

// NewLazy wraps load so the backend is constructed at most once per process.
func NewLazy(load Loader) *Lazy {
	return &Lazy{load: load}
}

func (l *Lazy) resolve(ctx context.Context) Reranker {
	l.once.Do(func() {
		backend, err := l.load(ctx)
		if err != nil {
			slog.Warn("reranker load failed, falling back to pass-through", slog.String("error", err.Error()))
			l.loadErr = err
			l.backend = NoOpReranker{}
			return
		}
		l.backend = backend
	})
	return l.backend
}

func (l *Lazy) Rerank(ctx context.Context, query string, documents []string, topK int) ([]Result, error) {
	backend := l.resolve(ctx)
	results, err := backend.Rerank(ctx, query, documents, topK)
	if err != nil {
		slog.Warn("rerank failed, passing through original order", slog.String("error", err.Error()))
		return NoOpReranker{}.Rerank(ctx, query, documents, topK)
	}
	return results, nil
}

func (l *Lazy) Available(ctx context.Context) bool {
	return l.resolve(ctx).Available(ctx)
}

func (l *Lazy) Close() error {
	if l.backend == nil {
		return nil
	}
	return l.backend.Close()
}

var _ Reranker = (*Lazy)(nil)
