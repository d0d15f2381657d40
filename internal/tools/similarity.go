package tools

import (
	"context"

	"github.com/standardbeagle/miller/internal/query"
	"github.com/standardbeagle/miller/internal/serialize"
)

// FindSimilarImplementationParams is find_similar_implementation's
// parameter set — a direct, standalone entry point to the same vector
// similarity search fast_explore's "similar" mode uses, for callers that
// want to compare a fresh code snippet rather than an indexed symbol.
type FindSimilarImplementationParams struct {
	CodeSnippet  string
	Limit        int
	MinScore     float64
	Language     string
	KindFilter   string
	Workspace    string
	OutputFormat serialize.Format
}

// FindSimilarImplementationResult is find_similar_implementation's return
// value.
type FindSimilarImplementationResult struct {
	Matches  []*query.SearchResult
	Rendered string
}

func findSimilarImplementation(ctx context.Context, c *Context, p FindSimilarImplementationParams) (*FindSimilarImplementationResult, error) {
	ws, err := c.Resolve(p.Workspace)
	if err != nil {
		return nil, err
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}
	minScore := p.MinScore
	if minScore <= 0 {
		minScore = 0.5
	}

	results, err := ws.Engine.Similarity(ctx, "", p.CodeSnippet, minScore, limit)
	if err != nil {
		return nil, err
	}
	filtered := make([]*query.SearchResult, 0, len(results))
	for _, r := range results {
		if p.Language != "" && r.Symbol.Language != p.Language {
			continue
		}
		if p.KindFilter != "" && string(r.Symbol.Kind) != p.KindFilter {
			continue
		}
		filtered = append(filtered, r)
	}

	rendered, err := serialize.Render(p.OutputFormat, serialize.DefaultAutoThreshold, serialize.Payload{
		Data: filtered, Count: len(filtered),
	})
	if err != nil {
		return nil, err
	}
	return &FindSimilarImplementationResult{Matches: filtered, Rendered: rendered}, nil
}
