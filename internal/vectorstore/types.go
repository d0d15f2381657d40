// Package vectorstore provides semantic (HNSW) and lexical (FTS) search over
// indexed symbols: two independent retrieval channels that the query engine
// fuses with reciprocal rank fusion.
package vectorstore

import (
	"context"
	"fmt"
)

// VectorResult is one nearest-neighbor hit.
type VectorResult struct {
	ID       string  // symbol ID
	Distance float32 // lower is more similar (0-2 for cosine)
	Score    float32 // normalized similarity (0-1)
}

// Config configures the HNSW vector store.
type Config struct {
	// Dimensions is the embedding vector width, fixed per embedding model.
	Dimensions int
	// Metric is the distance metric: "cos" (cosine, default) or "l2" (euclidean).
	Metric string
	// M is HNSW max connections per layer.
	M int
	// EfSearch is HNSW query-time search width.
	EfSearch int
}

// DefaultConfig returns sensible defaults for a vector store of the given dimension.
func DefaultConfig(dimensions int) Config {
	return Config{
		Dimensions: dimensions,
		Metric:     "cos",
		M:          16,
		EfSearch:   20,
	}
}

// VectorStore is a semantic nearest-neighbor index over symbol embeddings.
type VectorStore interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Delete(ctx context.Context, ids []string) error
	AllIDs() []string
	Contains(id string) bool
	Count() int
	Save(path string) error
	Load(path string) error
	Close() error
}

// ErrDimensionMismatch indicates the embedding dimension no longer matches
// the vector store's configured width, typically because the embedding model
// changed without a reindex.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (reindex required)", e.Expected, e.Got)
}

// Document is one unit of lexical-searchable text, keyed by symbol ID.
type Document struct {
	ID      string // symbol ID
	Content string // signature + doc comment + body snippet, pre-concatenated by the caller
}

// FTSResult is one full-text search hit.
type FTSResult struct {
	SymbolID     string
	Score        float64
	MatchedTerms []string
}

// FTSStats summarizes an FTS index.
type FTSStats struct {
	DocumentCount int
}

// FTSIndex provides code-aware keyword search, scored by BM25.
type FTSIndex interface {
	Index(ctx context.Context, docs []*Document) error
	Search(ctx context.Context, query string, limit int) ([]*FTSResult, error)
	Delete(ctx context.Context, ids []string) error
	AllIDs() ([]string, error)
	Stats() FTSStats
	Save(path string) error
	Load(path string) error
	Close() error
}

// DefaultCodeStopWords are programming keywords filtered out of lexical search
// so queries aren't dominated by near-universal tokens.
var DefaultCodeStopWords = []string{
	"var", "let", "const", "func", "function", "def", "class",
	"return", "if", "else", "for", "while",
	"data", "result", "value", "item", "key", "err", "ctx", "tmp",
}
