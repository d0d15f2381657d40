package tools

import (
	"context"

	"github.com/standardbeagle/miller/internal/query"
)

// ValidateImportsParams is validate_imports's parameter set. Language is
// accepted for parity with spec.md §6 but the parser already disambiguates
// Go/ES-module/Python import syntax from the snippet itself.
type ValidateImportsParams struct {
	CodeSnippet string
	Language    string
	Workspace   string
}

// ValidateImportsResult is validate_imports's return value.
type ValidateImportsResult struct {
	Checks []query.ImportCheck
}

func validateImports(ctx context.Context, c *Context, p ValidateImportsParams) (*ValidateImportsResult, error) {
	ws, err := c.Resolve(p.Workspace)
	if err != nil {
		return nil, err
	}
	checks, err := ws.Engine.ValidateImports(ctx, p.CodeSnippet, p.Language)
	if err != nil {
		return nil, err
	}
	return &ValidateImportsResult{Checks: checks}, nil
}
