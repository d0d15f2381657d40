package concurrency

import "github.com/standardbeagle/miller/internal/embedding"

// EmbeddingLock re-exports the embedding manager's cross-process GPU/model
// lock so tool handlers can depend on a single concurrency package for every
// primitive they need (init barrier, indexing lock, embedding lock) instead
// of reaching into internal/embedding directly for this one type.
type EmbeddingLock = embedding.EmbeddingLock

// NewEmbeddingLock is the concurrency package's forwarding constructor for
// EmbeddingLock.
func NewEmbeddingLock(dir string) *EmbeddingLock {
	return embedding.NewEmbeddingLock(dir)
}
