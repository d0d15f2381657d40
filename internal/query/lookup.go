package query

import (
	"context"

	"github.com/standardbeagle/miller/internal/errs"
	"github.com/standardbeagle/miller/internal/extractor"
)

// LookupOptions narrows a name lookup (§4.7.2: exact match, no fuzzing).
type LookupOptions struct {
	Kind string // "" matches any symbol kind
	File string // "" matches any file; otherwise disambiguates among duplicates
}

// Lookup resolves a symbol by its exact declared name. Unlike Search, this
// never touches the retrieval index — it's a direct name match against the
// symbol table, so a renamed-but-not-reindexed symbol can't be found here
// (the caller wants the name as currently extracted, not as once embedded).
func (e *Engine) Lookup(_ context.Context, name string, opts LookupOptions) ([]extractor.Symbol, error) {
	if name == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "name must not be empty", nil)
	}
	matches, err := e.Store.FindSymbolsByName(name, opts.Kind)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeSearchFailed, err)
	}
	if opts.File == "" {
		return matches, nil
	}
	filtered := make([]extractor.Symbol, 0, len(matches))
	for _, sym := range matches {
		if sym.FilePath == opts.File {
			filtered = append(filtered, sym)
		}
	}
	return filtered, nil
}
