package query

import (
	"context"
	"path/filepath"

	"github.com/standardbeagle/miller/internal/errs"
	"github.com/standardbeagle/miller/internal/extractor"
	"github.com/standardbeagle/miller/internal/vectorstore"
)

// SearchOptions configures Search (§4.7.1).
type SearchOptions struct {
	Method      Method
	Limit       int
	Language    string
	FilePattern string // glob matched against the symbol's file path
	Rerank      bool
	Expand      bool
	ExpandLimit int // 0 uses Engine.Config.ExpandLimit
}

// SearchResult is one ranked symbol.
type SearchResult struct {
	Symbol       extractor.Symbol
	Score        float64
	BM25Score    float64
	VecScore     float64
	BM25Rank     int
	VecRank      int
	InBothLists  bool
	MatchedTerms []string
	Callers      []extractor.Symbol // populated when Expand is set
	Callees      []extractor.Symbol
}

// Search is the engine's primary entry point: resolve a method (auto-detect
// routes structural-looking queries to pattern/text search, everything else
// to hybrid), retrieve, optionally rerank the head of the list with a
// cross-encoder, and optionally decorate results with call-graph neighbors.
func (e *Engine) Search(ctx context.Context, q string, opts SearchOptions) ([]*SearchResult, error) {
	if q == "" {
		return nil, errs.New(errs.ErrCodeQueryEmpty, "query must not be empty", nil)
	}
	limit := e.limit(opts.Limit)
	method := ResolveMethod(opts.Method, q)

	var fused []*fusedResult
	var err error

	switch method {
	case MethodPattern, MethodText:
		fused, err = e.textOnly(ctx, q, limit)
		if err != nil {
			return nil, err
		}
		if len(fused) == 0 {
			// spec §4.7.1: text search yielding nothing falls back to semantic.
			fused, err = e.semanticOnly(ctx, q, limit)
			if err != nil {
				return nil, err
			}
		}
	case MethodSemantic:
		fused, err = e.semanticOnly(ctx, q, limit)
		if err != nil {
			return nil, err
		}
	default: // hybrid
		fused, err = e.hybrid(ctx, q, limit)
		if err != nil {
			return nil, err
		}
	}

	results := make([]*SearchResult, 0, len(fused))
	for _, fr := range fused {
		sym, err := e.Store.GetSymbol(fr.SymbolID)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeSearchFailed, err)
		}
		if sym == nil {
			continue // stale fusion entry: symbol deleted since last flush
		}
		if opts.Language != "" && sym.Language != opts.Language {
			continue
		}
		if opts.FilePattern != "" {
			if ok, _ := filepath.Match(opts.FilePattern, sym.FilePath); !ok {
				continue
			}
		}
		results = append(results, &SearchResult{
			Symbol: *sym, Score: fr.RRFScore, BM25Score: fr.BM25Score, VecScore: fr.VecScore,
			BM25Rank: fr.BM25Rank, VecRank: fr.VecRank, InBothLists: fr.InBothLists,
			MatchedTerms: fr.MatchedTerms,
		})
	}

	if opts.Rerank && e.Reranker != nil && len(results) > 0 {
		if err := e.rerankResults(ctx, q, results); err != nil {
			return nil, err
		}
	}

	if len(results) > limit {
		results = results[:limit]
	}

	if opts.Expand {
		expandLimit := opts.ExpandLimit
		if expandLimit <= 0 {
			expandLimit = e.Config.ExpandLimit
		}
		for _, r := range results {
			e.expandNeighbors(r, expandLimit)
		}
	}

	return results, nil
}

// rerankPoolSize bounds the candidate count handed to the cross-encoder,
// per spec §4.7.1: min(limit*2, 100).
func rerankPoolSize(limit int) int {
	pool := limit * 2
	if pool > 100 {
		pool = 100
	}
	return pool
}

func (e *Engine) rerankResults(ctx context.Context, q string, results []*SearchResult) error {
	pool := rerankPoolSize(len(results))
	if pool > len(results) {
		pool = len(results)
	}
	head := results[:pool]
	docs := make([]string, len(head))
	for i, r := range head {
		docs[i] = symbolText(r.Symbol)
	}

	scored, err := e.Reranker.Rerank(ctx, q, docs, 0)
	if err != nil {
		// Rerank failures degrade to original order, never a tool error
		// (spec §4.8 and §5 Failure isolation).
		return nil
	}
	for _, s := range scored {
		if s.Index >= 0 && s.Index < len(head) {
			head[s.Index].Score = s.Score
		}
	}
	sortResultsByScore(head)
	copy(results, head)
	return nil
}

func sortResultsByScore(results []*SearchResult) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}

func (e *Engine) textOnly(ctx context.Context, q string, limit int) ([]*fusedResult, error) {
	if e.FTS == nil {
		return nil, nil
	}
	hits, err := e.FTS.Search(ctx, q, limit)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeSearchFailed, err)
	}
	return rrfFuse(hits, nil, Weights{BM25: 1, Semantic: 0}, e.Config.RRFConstant), nil
}

func (e *Engine) semanticOnly(ctx context.Context, q string, limit int) ([]*fusedResult, error) {
	if e.Vectors == nil || e.Embedder == nil {
		return nil, nil
	}
	vec, err := e.Embedder.Embed(ctx, q)
	if err != nil {
		// degrade rather than fail the whole query: vector channel unavailable.
		return nil, nil
	}
	hits, err := e.Vectors.Search(ctx, vec, limit)
	if err != nil {
		return nil, nil
	}
	return rrfFuse(nil, hits, Weights{BM25: 0, Semantic: 1}, e.Config.RRFConstant), nil
}

// hybrid runs both retrieval channels and fuses them with classifier-chosen
// weights. Either channel failing (FTS unavailable, embedder or vector store
// erroring) degrades to whatever the other channel found rather than failing
// the query (spec §5 Failure isolation).
func (e *Engine) hybrid(ctx context.Context, q string, limit int) ([]*fusedResult, error) {
	var ftsHits []*vectorstore.FTSResult
	if e.FTS != nil {
		if hits, err := e.FTS.Search(ctx, q, limit); err == nil {
			ftsHits = hits
		}
	}

	var vecHits []*vectorstore.VectorResult
	if e.Vectors != nil && e.Embedder != nil {
		if vec, err := e.Embedder.Embed(ctx, q); err == nil {
			if hits, err := e.Vectors.Search(ctx, vec, limit); err == nil {
				vecHits = hits
			}
		}
	}

	_, weights, err := e.classify(ctx, q)
	if err != nil {
		weights = DefaultWeights()
	}

	return rrfFuse(ftsHits, vecHits, weights, e.Config.RRFConstant), nil
}

func (e *Engine) classify(ctx context.Context, q string) (QueryType, Weights, error) {
	if e.Classify == nil {
		return QueryTypeMixed, DefaultWeights(), nil
	}
	return e.Classify.Classify(ctx, q)
}

func (e *Engine) expandNeighbors(r *SearchResult, limit int) {
	if out, err := e.Store.OutgoingRelationships(r.Symbol.ID, string(extractor.RelationCall)); err == nil {
		for _, rel := range out {
			if rel.ToSymbolID == "" || len(r.Callees) >= limit {
				continue
			}
			if sym, err := e.Store.GetSymbol(rel.ToSymbolID); err == nil && sym != nil {
				r.Callees = append(r.Callees, *sym)
			}
		}
	}
	if in, err := e.Store.IncomingRelationships(r.Symbol.ID, string(extractor.RelationCall)); err == nil {
		for _, rel := range in {
			if rel.FromSymbolID == "" || len(r.Callers) >= limit {
				continue
			}
			if sym, err := e.Store.GetSymbol(rel.FromSymbolID); err == nil && sym != nil {
				r.Callers = append(r.Callers, *sym)
			}
		}
	}
}
