// Package query is the stateless facade over Storage, the Vector Store, and
// the Embedding Manager: every read-only operation the tool surface exposes
// (search, lookup, references, call-path trace, type exploration,
// architecture mapping, rename planning, import validation) lives here as a
// pure function of its inputs and the workspace's current index state.
package query

import (
	"context"
	"time"

	"github.com/standardbeagle/miller/internal/extractor"
	"github.com/standardbeagle/miller/internal/rerank"
	"github.com/standardbeagle/miller/internal/storage"
	"github.com/standardbeagle/miller/internal/vectorstore"
)

// Embedder is the narrow slice of the embedding manager the query engine
// needs: turning a query string into the same vector space the indexer
// embedded symbols into.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Engine wires the three shared layers together. It holds no per-query
// state; every method is safe to call concurrently from multiple tool
// invocations, and a cancelled context must never leave Storage partially
// written (the engine is read-only with one exception: Rename's apply path,
// which is explicitly atomic per file).
type Engine struct {
	Store    *storage.Storage
	Vectors  vectorstore.VectorStore
	FTS      vectorstore.FTSIndex
	Embedder Embedder
	Reranker rerank.Reranker
	Classify Classifier

	Config Config
}

// Config holds tunables with spec-mandated defaults.
type Config struct {
	DefaultLimit int
	MaxLimit     int
	RRFConstant  int
	// ExpandLimit bounds how many callers/callees decorate each search
	// result when the expand flag is set (§4.7.1).
	ExpandLimit int
}

// DefaultConfig returns the spec's default tunables.
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 20,
		MaxLimit:     100,
		RRFConstant:  60,
		ExpandLimit:  5,
	}
}

// New builds an Engine with DefaultConfig and a pattern-based classifier.
func New(store *storage.Storage, vectors vectorstore.VectorStore, fts vectorstore.FTSIndex, embedder Embedder, reranker rerank.Reranker) *Engine {
	return &Engine{
		Store:    store,
		Vectors:  vectors,
		FTS:      fts,
		Embedder: embedder,
		Reranker: reranker,
		Classify: NewPatternClassifier(),
		Config:   DefaultConfig(),
	}
}

func (e *Engine) limit(requested int) int {
	if requested <= 0 {
		return e.Config.DefaultLimit
	}
	if requested > e.Config.MaxLimit {
		return e.Config.MaxLimit
	}
	return requested
}

// symbolText builds the text an embedder/cross-encoder sees for a symbol,
// matching the text the indexer embedded it with (internal/scanner's
// symbolEmbedText) so query-time and index-time representations agree.
func symbolText(sym extractor.Symbol) string {
	text := sym.Signature
	if sym.DocComment != "" {
		text = sym.DocComment + "\n" + text
	}
	return string(sym.Kind) + " " + sym.Name + "\n" + text
}

// timed returns elapsed milliseconds since start, for metadata fields like
// TraceResult.ExecutionTimeMs.
func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
