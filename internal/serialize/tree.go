package serialize

import "strings"

// TreeNode is the minimal shape Render needs to draw a tree — satisfied by
// wrapping a query.TraceNode (or any similarly shaped result) without this
// package importing internal/query.
type TreeNode interface {
	Label() string
	Children() []TreeNode
}

// RenderTree draws roots as a box-drawing tree, the default output_format
// for trace_call_path (spec.md §6).
func RenderTree(roots []TreeNode) string {
	var b strings.Builder
	for _, root := range roots {
		b.WriteString(root.Label())
		b.WriteByte('\n')
		kids := root.Children()
		for i, kid := range kids {
			writeNode(&b, kid, "", i == len(kids)-1)
		}
	}
	return b.String()
}

func writeNode(b *strings.Builder, node TreeNode, prefix string, last bool) {
	connector := "├── "
	childPrefix := prefix + "│   "
	if last {
		connector = "└── "
		childPrefix = prefix + "    "
	}
	b.WriteString(prefix)
	b.WriteString(connector)
	b.WriteString(node.Label())
	b.WriteByte('\n')

	kids := node.Children()
	for i, kid := range kids {
		writeNode(b, kid, childPrefix, i == len(kids)-1)
	}
}
