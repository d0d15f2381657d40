package query

import (
	"context"
	"sort"

	"github.com/standardbeagle/miller/internal/errs"
	"github.com/standardbeagle/miller/internal/extractor"
)

// usageKinds are the declaration kinds dead_code/hot_spots reason about —
// variables and imports are too noisy for "unreferenced" to be meaningful.
var usageKinds = []extractor.SymbolKind{
	extractor.SymbolFunction, extractor.SymbolMethod, extractor.SymbolClass, extractor.SymbolInterface,
}

// UsageCount pairs a symbol with how many places reference it.
type UsageCount struct {
	Symbol         extractor.Symbol
	ReferenceCount int
}

// DeadCode finds declarations with zero references anywhere in the
// workspace — no incoming relationship of any kind, and no identifier
// occurrence outside the symbol's own declaration. fast_explore's
// "dead_code" mode (spec.md §6); not itself a spec invariant, a
// supplemented enrichment of the exploration surface.
func (e *Engine) DeadCode(_ context.Context, limit int) ([]extractor.Symbol, error) {
	if limit <= 0 {
		limit = 10
	}
	var dead []extractor.Symbol
	for _, kind := range usageKinds {
		syms, err := e.Store.SymbolsByKind(string(kind), 0)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeSearchFailed, err)
		}
		for _, sym := range syms {
			count, err := e.referenceCount(sym)
			if err != nil {
				continue
			}
			if count == 0 {
				dead = append(dead, sym)
			}
		}
	}
	sortSymbolsByName(dead)
	if len(dead) > limit {
		dead = dead[:limit]
	}
	return dead, nil
}

// HotSpots ranks declarations by cross-file reference count, descending.
func (e *Engine) HotSpots(_ context.Context, limit int) ([]UsageCount, error) {
	if limit <= 0 {
		limit = 10
	}
	var ranked []UsageCount
	for _, kind := range usageKinds {
		syms, err := e.Store.SymbolsByKind(string(kind), 0)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeSearchFailed, err)
		}
		for _, sym := range syms {
			count, err := e.referenceCount(sym)
			if err != nil {
				continue
			}
			ranked = append(ranked, UsageCount{Symbol: sym, ReferenceCount: count})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].ReferenceCount != ranked[j].ReferenceCount {
			return ranked[i].ReferenceCount > ranked[j].ReferenceCount
		}
		return ranked[i].Symbol.Name < ranked[j].Symbol.Name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// referenceCount counts every incoming relationship plus every identifier
// occurrence elsewhere in the workspace sharing the symbol's name, excluding
// occurrences the symbol's own declaration body contains.
func (e *Engine) referenceCount(sym extractor.Symbol) (int, error) {
	in, err := e.Store.IncomingRelationships(sym.ID, "")
	if err != nil {
		return 0, err
	}
	ids, err := e.Store.IdentifiersByName(sym.Name)
	if err != nil {
		return 0, err
	}
	count := len(in)
	for _, id := range ids {
		if id.ContainingID == sym.ID {
			continue
		}
		count++
	}
	return count, nil
}
