package tools

import (
	"context"
	"fmt"

	"github.com/standardbeagle/miller/internal/query"
	"github.com/standardbeagle/miller/internal/serialize"
)

// TraceCallPathParams is trace_call_path's parameter set.
type TraceCallPathParams struct {
	SymbolName   string
	Direction    query.Direction
	MaxDepth     int
	ContextFile  string
	Workspace    string
	OutputFormat serialize.Format
}

// TraceCallPathResult is trace_call_path's return value.
type TraceCallPathResult struct {
	Trace    *query.TraceResult
	Rendered string
}

func traceCallPath(ctx context.Context, c *Context, p TraceCallPathParams) (*TraceCallPathResult, error) {
	ws, err := c.Resolve(p.Workspace)
	if err != nil {
		return nil, err
	}
	trace, err := ws.Engine.Trace(ctx, p.SymbolName, query.TraceOptions{
		Direction: p.Direction, MaxDepth: p.MaxDepth, ContextFile: p.ContextFile,
	})
	if err != nil {
		return nil, err
	}

	format := p.OutputFormat
	if format == "" {
		format = serialize.FormatTree
	}
	rendered, err := serialize.Render(format, serialize.DefaultAutoThreshold, serialize.Payload{
		Data: trace, Count: trace.Metadata.TotalNodes, Tree: traceTreeNodes(trace.Roots),
	})
	if err != nil {
		return nil, err
	}
	return &TraceCallPathResult{Trace: trace, Rendered: rendered}, nil
}

// traceNode wraps query.TraceNode so this package's serialize.TreeNode
// rendering never needs internal/query to know about internal/serialize.
type traceNode struct{ n *query.TraceNode }

func (t traceNode) Label() string {
	return fmt.Sprintf("%s (%s) %s:%d [%s]", t.n.Name, t.n.Kind, t.n.File, t.n.Line+1, t.n.MatchType)
}

func (t traceNode) Children() []serialize.TreeNode {
	kids := make([]serialize.TreeNode, len(t.n.Children))
	for i, k := range t.n.Children {
		kids[i] = traceNode{k}
	}
	return kids
}

func traceTreeNodes(roots []*query.TraceNode) []serialize.TreeNode {
	nodes := make([]serialize.TreeNode, len(roots))
	for i, r := range roots {
		nodes[i] = traceNode{r}
	}
	return nodes
}
