package tools

import (
	"context"

	"github.com/standardbeagle/miller/internal/query"
	"github.com/standardbeagle/miller/internal/serialize"
)

// RenameSymbolParams is rename_symbol's parameter set. update_imports is
// accepted for interface parity with spec.md §6 but the current rename
// implementation already rewrites every textual occurrence including import
// lines, so it has no separate effect — see DESIGN.md.
type RenameSymbolParams struct {
	OldName       string
	NewName       string
	Scope         string
	File          string
	DryRun        bool
	UpdateImports bool
	Workspace     string
	OutputFormat  serialize.Format
}

// RenameSymbolResult is rename_symbol's return value.
type RenameSymbolResult struct {
	Plan     *query.RenamePlan
	Applied  bool
	Rendered string
}

func renameSymbol(ctx context.Context, c *Context, p RenameSymbolParams) (*RenameSymbolResult, error) {
	ws, err := c.Resolve(p.Workspace)
	if err != nil {
		return nil, err
	}
	plan, err := ws.Engine.Rename(ctx, p.OldName, p.NewName, query.RenameOptions{Scope: p.Scope, File: p.File})
	if err != nil {
		return nil, err
	}

	applied := false
	if !p.DryRun {
		if err := ws.Engine.Apply(ctx, plan); err != nil {
			return nil, err
		}
		applied = true
	}

	rendered, err := serialize.Render(p.OutputFormat, serialize.DefaultAutoThreshold, serialize.Payload{
		Data: plan, Count: len(plan.Edits),
	})
	if err != nil {
		return nil, err
	}
	return &RenameSymbolResult{Plan: plan, Applied: applied, Rendered: rendered}, nil
}
