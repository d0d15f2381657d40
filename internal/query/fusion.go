package query

import (
	"sort"

	"github.com/standardbeagle/miller/internal/vectorstore"
)

// DefaultRRFConstant is the standard Reciprocal Rank Fusion smoothing
// parameter (k=60), empirically validated across domains and used by Azure
// AI Search, OpenSearch, and similar hybrid-search systems.
const DefaultRRFConstant = 60

// fusedResult is one symbol after RRF fusion of its lexical and semantic
// ranks.
type fusedResult struct {
	SymbolID     string
	RRFScore     float64
	BM25Score    float64
	BM25Rank     int
	VecScore     float64
	VecRank      int
	InBothLists  bool
	MatchedTerms []string
}

// rrfFuse combines FTS and vector results with Reciprocal Rank Fusion:
// RRF_score(d) = Σ weight_i / (k + rank_i), rank 1-indexed per source list.
// A document absent from one list still receives that list's contribution
// at missing_rank = max(len(a), len(b)) + 1, so it isn't simply ignored.
// Results are sorted by RRFScore desc, then InBothLists, then BM25Score
// desc, then SymbolID asc for determinism, and finally normalized to 0-1.
func rrfFuse(fts []*vectorstore.FTSResult, vec []*vectorstore.VectorResult, weights Weights, k int) []*fusedResult {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	if len(fts) == 0 && len(vec) == 0 {
		return nil
	}

	scores := make(map[string]*fusedResult, len(fts)+len(vec))
	get := func(id string) *fusedResult {
		if r, ok := scores[id]; ok {
			return r
		}
		r := &fusedResult{SymbolID: id}
		scores[id] = r
		return r
	}

	for rank, r := range fts {
		fr := get(r.SymbolID)
		fr.BM25Score = r.Score
		fr.BM25Rank = rank + 1
		fr.MatchedTerms = r.MatchedTerms
		fr.RRFScore += weights.BM25 / float64(k+rank+1)
	}
	for rank, r := range vec {
		fr := get(r.ID)
		fr.VecScore = float64(r.Score)
		fr.VecRank = rank + 1
		fr.RRFScore += weights.Semantic / float64(k+rank+1)
		if fr.BM25Rank > 0 {
			fr.InBothLists = true
		}
	}

	missingRank := len(fts)
	if len(vec) > missingRank {
		missingRank = len(vec)
	}
	missingRank++
	for _, r := range scores {
		if r.BM25Rank == 0 && r.VecRank > 0 {
			r.RRFScore += weights.BM25 / float64(k+missingRank)
		}
		if r.VecRank == 0 && r.BM25Rank > 0 {
			r.RRFScore += weights.Semantic / float64(k+missingRank)
		}
	}

	out := make([]*fusedResult, 0, len(scores))
	for _, r := range scores {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return lessFused(out[i], out[j]) })

	if len(out) > 0 && out[0].RRFScore > 0 {
		max := out[0].RRFScore
		for _, r := range out {
			r.RRFScore /= max
		}
	}
	return out
}

func lessFused(a, b *fusedResult) bool {
	if a.RRFScore != b.RRFScore {
		return a.RRFScore > b.RRFScore
	}
	if a.InBothLists != b.InBothLists {
		return a.InBothLists
	}
	if a.BM25Score != b.BM25Score {
		return a.BM25Score > b.BM25Score
	}
	return a.SymbolID < b.SymbolID
}
