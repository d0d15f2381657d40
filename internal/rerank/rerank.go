// Package rerank scores (query, candidate) pairs with a cross-encoder to
// re-sort an already-retrieved candidate set. Unlike the bi-encoder used for
// the semantic retrieval channel, a cross-encoder jointly encodes the query
// and candidate text, which is far more accurate but too slow to run over an
// entire index — it only ever re-scores a small top-N pulled from a prior
// retrieval pass.
package rerank

import "context"

// Result is one reranked candidate.
type Result struct {
	// Index is the candidate's position in the input slice passed to Rerank.
	Index int
	// Score is the cross-encoder's relevance score (higher is more relevant).
	Score float64
	// Document is the candidate text that was scored.
	Document string
}

// Reranker scores and reorders candidates by relevance to a query.
type Reranker interface {
	// Rerank scores documents against query and returns them sorted by score
	// descending. topK caps the returned count; 0 returns all.
	Rerank(ctx context.Context, query string, documents []string, topK int) ([]Result, error)

	// Available reports whether the reranker's backing model is reachable.
	Available(ctx context.Context) bool

	// Close releases any held resources (idle connections, loaded model).
	Close() error
}

// NoOpReranker returns candidates in their original order, assigning
// decreasing scores so callers that sort on Score still get a stable order.
// Used when reranking is disabled, or as the fallback target a LazyReranker
// falls back to on load failure.
type NoOpReranker struct{}

func (NoOpReranker) Rerank(_ context.Context, _ string, documents []string, topK int) ([]Result, error) {
	results := make([]Result, len(documents))
	for i, doc := range documents {
		results[i] = Result{Index: i, Score: 1.0 - float64(i)*0.01, Document: doc}
	}
	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func (NoOpReranker) Available(context.Context) bool { return true }
func (NoOpReranker) Close() error                   { return nil }

var _ Reranker = NoOpReranker{}
