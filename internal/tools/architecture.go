package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/standardbeagle/miller/internal/query"
	"github.com/standardbeagle/miller/internal/serialize"
)

// GetArchitectureMapParams is get_architecture_map's parameter set. This
// tool is workspace-global by design (spec.md §6 lists no workspace
// parameter for it), operating on whichever workspace the caller resolves
// via Workspace — defaulting to primary.
type GetArchitectureMapParams struct {
	Depth        int
	MinEdgeCount int
	Workspace    string
	OutputFormat serialize.Format
}

// GetArchitectureMapResult is get_architecture_map's return value.
type GetArchitectureMapResult struct {
	Map      any
	Rendered string
}

func getArchitectureMap(ctx context.Context, c *Context, p GetArchitectureMapParams) (*GetArchitectureMapResult, error) {
	ws, err := c.Resolve(p.Workspace)
	if err != nil {
		return nil, err
	}
	m, err := ws.Engine.Architecture(ctx, p.Depth, p.MinEdgeCount)
	if err != nil {
		return nil, err
	}

	format := p.OutputFormat
	if format == "" {
		format = "mermaid"
	}
	var rendered string
	if format == "mermaid" {
		rendered = renderMermaid(m.Nodes, m.Edges)
	} else {
		rendered, err = serialize.Render(format, serialize.DefaultAutoThreshold, serialize.Payload{Data: m, Count: len(m.Edges)})
		if err != nil {
			return nil, err
		}
	}
	return &GetArchitectureMapResult{Map: m, Rendered: rendered}, nil
}

// renderMermaid draws the dependency graph as a Mermaid flowchart, the
// spec's default output_format for get_architecture_map — rendered here
// rather than in internal/serialize since it is specific to this one tool's
// node/edge shape, not a reusable format other tools share.
func renderMermaid(nodes []string, edges []query.ArchitectureEdge) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "  %s[%q]\n", mermaidID(n), n)
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "  %s -->|%d| %s\n", mermaidID(e.From), e.Weight, mermaidID(e.To))
	}
	return b.String()
}

func mermaidID(path string) string {
	replacer := strings.NewReplacer("/", "_", ".", "_", "-", "_")
	id := replacer.Replace(path)
	if id == "" {
		id = "root"
	}
	return id
}
