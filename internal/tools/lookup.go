package tools

import (
	"context"

	"github.com/standardbeagle/miller/internal/extractor"
	"github.com/standardbeagle/miller/internal/query"
)

// FastLookupParams is fast_lookup's parameter set: an exact-name symbol
// lookup, optionally disambiguated by file.
type FastLookupParams struct {
	Name      string
	File      string
	Workspace string
}

// FastLookupResult is fast_lookup's return value.
type FastLookupResult struct {
	Symbols []extractor.Symbol
}

func fastLookup(ctx context.Context, c *Context, p FastLookupParams) (*FastLookupResult, error) {
	ws, err := c.Resolve(p.Workspace)
	if err != nil {
		return nil, err
	}
	symbols, err := ws.Engine.Lookup(ctx, p.Name, query.LookupOptions{File: p.File})
	if err != nil {
		return nil, err
	}
	return &FastLookupResult{Symbols: symbols}, nil
}
