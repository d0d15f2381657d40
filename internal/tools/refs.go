package tools

import (
	"context"
	"fmt"

	"github.com/standardbeagle/miller/internal/query"
	"github.com/standardbeagle/miller/internal/serialize"
)

// FastRefsParams is fast_refs's parameter set: every occurrence of a symbol
// by name (optionally disambiguated by the file containing the
// declaration).
type FastRefsParams struct {
	Symbol       string
	File         string
	Workspace    string
	OutputFormat serialize.Format
}

// FastRefsResult is fast_refs's return value: references grouped by file.
type FastRefsResult struct {
	References map[string][]query.Reference
	Rendered   string
}

func fastRefs(ctx context.Context, c *Context, p FastRefsParams) (*FastRefsResult, error) {
	ws, err := c.Resolve(p.Workspace)
	if err != nil {
		return nil, err
	}
	refs, err := ws.Engine.References(ctx, query.ReferencesOptions{Name: p.Symbol})
	if err != nil {
		return nil, err
	}
	if p.File != "" {
		if filtered, ok := refs[p.File]; ok {
			refs = map[string][]query.Reference{p.File: filtered}
		} else {
			refs = map[string][]query.Reference{}
		}
	}

	count := 0
	for _, v := range refs {
		count += len(v)
	}
	rendered, err := serialize.Render(p.OutputFormat, serialize.DefaultAutoThreshold, serialize.Payload{
		Data: refs, Count: count, Text: renderRefsText(refs),
	})
	if err != nil {
		return nil, err
	}
	return &FastRefsResult{References: refs, Rendered: rendered}, nil
}

func renderRefsText(refs map[string][]query.Reference) string {
	var lines []string
	for file, occurrences := range refs {
		for _, r := range occurrences {
			lines = append(lines, fmt.Sprintf("%s:%d: %s", file, r.Identifier.Position.Line+1, r.ContextLine))
		}
	}
	return serialize.Lines(lines)
}
