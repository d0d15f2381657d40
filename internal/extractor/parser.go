package extractor

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Point is a zero-indexed row/column location, mirroring tree-sitter's own.
type Point struct {
	Row    uint32
	Column uint32
}

// Node is a language-agnostic AST node, decoupled from the tree-sitter C
// bindings so the rest of the extractor never touches *sitter.Node directly.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	HasError   bool
	Children   []*Node
	Field      string
}

// Tree is a parsed file.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// Parser wraps tree-sitter parsing behind the Node/Tree abstraction above.
type Parser struct {
	parser   *sitter.Parser
	registry *LanguageRegistry
}

// NewParser creates a parser using the shared default language registry.
func NewParser() *Parser {
	return &Parser{parser: sitter.NewParser(), registry: DefaultRegistry()}
}

// NewParserWithRegistry creates a parser bound to a custom registry (tests
// exercising added/limited language support use this).
func NewParserWithRegistry(registry *LanguageRegistry) *Parser {
	return &Parser{parser: sitter.NewParser(), registry: registry}
}

// Parse parses source as language and returns its AST.
func (p *Parser) Parse(ctx context.Context, source []byte, language string) (*Tree, error) {
	tsLang, ok := p.registry.GetTreeSitterLanguage(language)
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", language)
	}
	p.parser.SetLanguage(tsLang)

	tsTree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	if tsTree == nil {
		return nil, fmt.Errorf("failed to parse source: nil tree")
	}

	return &Tree{
		Root:     convertNode(tsTree.RootNode(), nil),
		Source:   source,
		Language: language,
	}, nil
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

func convertNode(tsNode *sitter.Node, fieldName *string) *Node {
	if tsNode == nil {
		return nil
	}
	node := &Node{
		Type:      tsNode.Type(),
		StartByte: tsNode.StartByte(),
		EndByte:   tsNode.EndByte(),
		StartPoint: Point{
			Row:    tsNode.StartPoint().Row,
			Column: tsNode.StartPoint().Column,
		},
		EndPoint: Point{
			Row:    tsNode.EndPoint().Row,
			Column: tsNode.EndPoint().Column,
		},
		HasError: tsNode.HasError(),
		Children: make([]*Node, 0, int(tsNode.ChildCount())),
	}
	if fieldName != nil {
		node.Field = *fieldName
	}
	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child == nil {
			continue
		}
		field := tsNode.FieldNameForChild(i)
		childNode := convertNode(child, &field)
		node.Children = append(node.Children, childNode)
	}
	return node
}

// FieldChild returns the first direct child tagged with the given tree-sitter
// field name (e.g. "name", "body"), or nil.
func (n *Node) FieldChild(field string) *Node {
	for _, c := range n.Children {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// GetContent returns the source slice a node spans.
func (n *Node) GetContent(source []byte) string {
	if n.StartByte >= n.EndByte || int(n.EndByte) > len(source) {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

// Position converts a node's start point into the extractor's Position type.
func (n *Node) Position() Position {
	return Position{Line: int(n.StartPoint.Row), Column: int(n.StartPoint.Column)}
}

// FindChildByType returns the first direct child with the given type.
func (n *Node) FindChildByType(nodeType string) *Node {
	for _, c := range n.Children {
		if c.Type == nodeType {
			return c
		}
	}
	return nil
}

// FindChildrenByType returns all direct children with the given type.
func (n *Node) FindChildrenByType(nodeType string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Type == nodeType {
			out = append(out, c)
		}
	}
	return out
}

// FindAllByType recursively collects every node matching nodeType.
func (n *Node) FindAllByType(nodeType string) []*Node {
	var out []*Node
	if n.Type == nodeType {
		out = append(out, n)
	}
	for _, c := range n.Children {
		out = append(out, c.FindAllByType(nodeType)...)
	}
	return out
}

// Walk traverses depth-first, calling fn for every node. Returning false from
// fn skips that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

func in(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
