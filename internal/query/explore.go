package query

import (
	"context"
	"sort"

	"github.com/standardbeagle/miller/internal/errs"
	"github.com/standardbeagle/miller/internal/extractor"
)

// TypeExploration is the result of exploring a type name (§4.7.5).
type TypeExploration struct {
	Implementations []extractor.Symbol
	Parents         []extractor.Symbol
	Children        []extractor.Symbol
	Returns         []extractor.Symbol // functions/methods whose signature returns this type
	Parameters      []extractor.Symbol // functions/methods taking this type as a parameter
}

// ExploreTypes resolves a type's implementations and class/interface
// hierarchy, each capped at limit. Returns/Parameters are derived from a
// plain signature substring match — the extractor doesn't carry a structured
// parameter/return type list, so this is the best a state-free query layer
// can do without re-parsing every signature.
func (e *Engine) ExploreTypes(_ context.Context, typeName string, limit int) (*TypeExploration, error) {
	if typeName == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "type_name must not be empty", nil)
	}
	if limit <= 0 {
		limit = 10
	}

	typeSyms, err := e.Store.FindSymbolsByName(typeName, "")
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeSearchFailed, err)
	}

	result := &TypeExploration{}
	seen := make(map[string]bool)
	for _, ts := range typeSyms {
		if in, err := e.Store.IncomingRelationships(ts.ID, string(extractor.RelationImplements)); err == nil {
			for _, rel := range in {
				appendUnique(&result.Implementations, rel.FromSymbolID, limit, seen, e)
			}
		}
		if in, err := e.Store.IncomingRelationships(ts.ID, string(extractor.RelationExtends)); err == nil {
			for _, rel := range in {
				appendUnique(&result.Children, rel.FromSymbolID, limit, seen, e)
			}
		}
		if out, err := e.Store.OutgoingRelationships(ts.ID, string(extractor.RelationExtends)); err == nil {
			for _, rel := range out {
				appendUnique(&result.Parents, rel.ToSymbolID, limit, seen, e)
			}
		}
	}

	candidates, err := e.signatureCandidates(typeName, limit*4)
	if err != nil {
		return nil, err
	}
	for _, sym := range candidates {
		if len(result.Returns) < limit && signatureReturns(sym.Signature, typeName) {
			result.Returns = append(result.Returns, sym)
		}
		if len(result.Parameters) < limit && signatureTakesParam(sym.Signature, typeName) {
			result.Parameters = append(result.Parameters, sym)
		}
	}

	return result, nil
}

// appendUnique resolves a symbol ID and appends it to dst if not already
// seen and dst hasn't reached limit.
func appendUnique(dst *[]extractor.Symbol, id string, limit int, seen map[string]bool, e *Engine) {
	if id == "" || seen[id] || len(*dst) >= limit {
		return
	}
	sym, err := e.Store.GetSymbol(id)
	if err != nil || sym == nil {
		return
	}
	seen[id] = true
	*dst = append(*dst, *sym)
}

// signatureCandidates is a small pool of function/method symbols whose
// signature text mentions typeName, used as a coarse proxy for return/param
// type matching.
func (e *Engine) signatureCandidates(_ string, limit int) ([]extractor.Symbol, error) {
	kinds := []extractor.SymbolKind{extractor.SymbolFunction, extractor.SymbolMethod}
	var out []extractor.Symbol
	for _, k := range kinds {
		syms, err := e.Store.SymbolsByKind(string(k), limit)
		if err != nil {
			continue
		}
		out = append(out, syms...)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Similarity finds symbols whose embedding is nearest the embedded query
// text, excluding the source symbol (§4.7.6).
func (e *Engine) Similarity(ctx context.Context, sourceSymbolID string, snippet string, minScore float64, limit int) ([]*SearchResult, error) {
	if e.Vectors == nil || e.Embedder == nil {
		return nil, errs.New(errs.ErrCodeSearchFailed, "vector search is unavailable", nil)
	}
	text := snippet
	var source *extractor.Symbol
	if sourceSymbolID != "" {
		sym, err := e.Store.GetSymbol(sourceSymbolID)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeSearchFailed, err)
		}
		if sym == nil {
			return nil, errs.New(errs.ErrCodeSymbolNotFound, "no symbol with that ID", nil)
		}
		source = sym
		text = symbolText(*sym)
	}
	if text == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "either a source symbol or a code snippet is required", nil)
	}
	if limit <= 0 {
		limit = e.Config.DefaultLimit
	}

	vec, err := e.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeEmbeddingFailed, err)
	}
	hits, err := e.Vectors.Search(ctx, vec, limit+1) // +1 to make room for excluding the source
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeSearchFailed, err)
	}

	results := make([]*SearchResult, 0, len(hits))
	for _, h := range hits {
		if source != nil && h.ID == source.ID {
			continue
		}
		if float64(h.Score) < minScore {
			continue
		}
		sym, err := e.Store.GetSymbol(h.ID)
		if err != nil || sym == nil {
			continue
		}
		results = append(results, &SearchResult{Symbol: *sym, Score: float64(h.Score), VecScore: float64(h.Score)})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func signatureReturns(signature, typeName string) bool {
	return containsWord(signature, typeName) && containsAny(signature, []string{") " + typeName, "->" + typeName, "-> " + typeName})
}

func signatureTakesParam(signature, typeName string) bool {
	return containsWord(signature, typeName) && !signatureReturns(signature, typeName)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if indexOf(s, sub) >= 0 {
			return true
		}
	}
	return false
}

func containsWord(s, word string) bool {
	return indexOf(s, word) >= 0
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// sortSymbolsByName is used by callers that want deterministic ordering for
// display (e.g. fast_explore's text/tree renderers).
func sortSymbolsByName(syms []extractor.Symbol) {
	sort.Slice(syms, func(i, j int) bool { return syms[i].Name < syms[j].Name })
}
