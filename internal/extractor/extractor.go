package extractor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/miller/internal/errs"
)

// Extractor parses source files and produces their symbol/identifier/
// relationship graph. Safe for concurrent use: each call to Extract/ExtractBatch
// gets its own tree-sitter parser, since *sitter.Parser is not goroutine-safe.
type Extractor struct {
	registry *LanguageRegistry
}

// New returns an Extractor using the shared default language registry.
func New() *Extractor {
	return &Extractor{registry: DefaultRegistry()}
}

// LanguageForPath resolves the extractor language for a file path's extension,
// returning ("", false) for unsupported/binary files.
func (e *Extractor) LanguageForPath(path string) (string, bool) {
	cfg, ok := e.registry.GetByExtension(filepath.Ext(path))
	if !ok {
		return "", false
	}
	return cfg.Name, true
}

// Extract parses one file's content and returns its extracted graph.
func (e *Extractor) Extract(ctx context.Context, path string, content []byte) (*Result, error) {
	lang, ok := e.LanguageForPath(path)
	if !ok {
		return nil, errs.New(errs.ErrCodeInvalidInput, fmt.Sprintf("unsupported file extension: %s", path), nil)
	}

	parser := NewParserWithRegistry(e.registry)
	defer parser.Close()

	tree, err := parser.Parse(ctx, content, lang)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeExtractFailed, err)
	}

	cfg, _ := e.registry.GetByName(lang)
	res := &Result{FilePath: path, Language: lang}

	symbolsByNode := map[*Node]*Symbol{}
	walkSymbols(tree.Root, cfg, path, lang, content, nil, res, symbolsByNode)

	walkReferences(tree.Root, cfg, path, content, nil, res, symbolsByNode)
	walkImports(tree.Root, cfg, path, content, res)

	res.Malformed = treeHasError(tree.Root)
	return res, nil
}

// ExtractBatch extracts a set of files concurrently, bounded by workers.
// A per-file extraction failure is recorded in the returned map's error slot
// rather than aborting the whole batch (one malformed file must not block
// the rest of the workspace from indexing).
func (e *Extractor) ExtractBatch(ctx context.Context, files map[string][]byte, workers int) (map[string]*Result, map[string]error) {
	if workers <= 0 {
		workers = 1
	}
	results := make(map[string]*Result, len(files))
	failures := make(map[string]error)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, workers)

	for path, content := range files {
		path, content := path, content
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			res, err := e.Extract(gctx, path, content)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[path] = err
				return nil
			}
			results[path] = res
			return nil
		})
	}
	_ = g.Wait()
	return results, failures
}

// symbolID derives a deterministic, content-position-stable symbol ID.
func symbolID(path string, kind SymbolKind, name string, startByte uint32) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(name))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d", startByte)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func walkSymbols(n *Node, cfg *LanguageConfig, path, lang string, source []byte, parent *Symbol, res *Result, byNode map[*Node]*Symbol) {
	kind, matched := symbolKindOf(n.Type, cfg)
	if matched {
		sym := buildSymbol(n, cfg, path, lang, source, kind, parent)
		if sym != nil {
			res.Symbols = append(res.Symbols, *sym)
			byNode[n] = sym
			parent = sym
		}
	}
	for _, c := range n.Children {
		walkSymbols(c, cfg, path, lang, source, parent, res, byNode)
	}
}

func symbolKindOf(nodeType string, cfg *LanguageConfig) (SymbolKind, bool) {
	switch {
	case in(cfg.MethodTypes, nodeType):
		return SymbolMethod, true
	case in(cfg.FunctionTypes, nodeType):
		return SymbolFunction, true
	case in(cfg.ClassTypes, nodeType):
		return SymbolClass, true
	case in(cfg.InterfaceTypes, nodeType):
		return SymbolInterface, true
	case in(cfg.TypeDefTypes, nodeType):
		return SymbolType, true
	case in(cfg.ConstantTypes, nodeType):
		return SymbolConstant, true
	case in(cfg.VariableTypes, nodeType):
		return SymbolVariable, true
	default:
		return "", false
	}
}

func buildSymbol(n *Node, cfg *LanguageConfig, path, lang string, source []byte, kind SymbolKind, parent *Symbol) *Symbol {
	nameNode := n.FieldChild(cfg.NameField)
	if nameNode == nil {
		nameNode = firstIdentifierDescendant(n, cfg.IdentifierType)
	}
	if nameNode == nil {
		return nil
	}
	name := nameNode.GetContent(source)
	if name == "" {
		return nil
	}

	id := symbolID(path, kind, name, n.StartByte)
	sym := &Symbol{
		ID:          id,
		FilePath:    path,
		Name:        name,
		Kind:        kind,
		Language:    lang,
		Signature:   signatureLine(n, source),
		DocComment:  "",
		Start:       n.Position(),
		End:         Position{Line: int(n.EndPoint.Row), Column: int(n.EndPoint.Column)},
		StartByte:   n.StartByte,
		EndByte:     n.EndByte,
		ExportedAPI: isExported(name, lang),
	}
	if parent != nil {
		sym.ParentID = parent.ID
	}
	return sym
}

func firstIdentifierDescendant(n *Node, identifierType string) *Node {
	for _, c := range n.Children {
		if c.Type == identifierType || c.Type == "property_identifier" || c.Type == "type_identifier" {
			return c
		}
	}
	return nil
}

func signatureLine(n *Node, source []byte) string {
	content := n.GetContent(source)
	if idx := strings.IndexAny(content, "{\n"); idx > 0 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}

// isExported reports whether name is part of the package/module's public API,
// following each language's own convention rather than a single shared rule.
func isExported(name, lang string) bool {
	if name == "" {
		return false
	}
	switch lang {
	case "python":
		return !strings.HasPrefix(name, "_")
	default:
		return unicode.IsUpper(rune(name[0]))
	}
}

func walkReferences(n *Node, cfg *LanguageConfig, path string, source []byte, enclosing *Symbol, res *Result, byNode map[*Node]*Symbol) {
	if sym, ok := byNode[n]; ok {
		enclosing = sym
	}
	containing := enclosing
	if in(cfg.CallTypes, n.Type) {
		if callee := calleeName(n, cfg, source); callee != "" {
			rel := Relationship{
				ToName:   callee,
				Kind:     RelationCall,
				FilePath: path,
				Position: n.Position(),
			}
			if containing != nil {
				rel.FromSymbolID = containing.ID
			}
			res.Relationships = append(res.Relationships, rel)
			res.Identifiers = append(res.Identifiers, Identifier{
				Name:         callee,
				Kind:         IdentifierCall,
				FilePath:     path,
				ContainingID: rel.FromSymbolID,
				Position:     n.Position(),
			})
		}
	} else if n.Type == cfg.IdentifierType {
		if containing != nil {
			res.Identifiers = append(res.Identifiers, Identifier{
				Name:         n.GetContent(source),
				Kind:         IdentifierReference,
				FilePath:     path,
				ContainingID: containing.ID,
				Position:     n.Position(),
			})
		}
	}
	for _, c := range n.Children {
		walkReferences(c, cfg, path, source, enclosing, res, byNode)
	}
}

func calleeName(n *Node, cfg *LanguageConfig, source []byte) string {
	fn := n.FieldChild("function")
	if fn == nil && len(n.Children) > 0 {
		fn = n.Children[0]
	}
	if fn == nil {
		return ""
	}
	switch fn.Type {
	case cfg.IdentifierType:
		return fn.GetContent(source)
	case "selector_expression", "member_expression", "attribute":
		if field := fn.FieldChild("field"); field != nil {
			return field.GetContent(source)
		}
		if field := fn.FieldChild("property"); field != nil {
			return field.GetContent(source)
		}
		if field := fn.FieldChild("attribute"); field != nil {
			return field.GetContent(source)
		}
		if len(fn.Children) > 0 {
			return fn.Children[len(fn.Children)-1].GetContent(source)
		}
	}
	return ""
}

func walkImports(n *Node, cfg *LanguageConfig, path string, source []byte, res *Result) {
	if in(cfg.ImportTypes, n.Type) {
		for _, pathNode := range n.FindAllByType("interpreted_string_literal") {
			res.Imports = append(res.Imports, Import{
				FilePath: path,
				Path:     strings.Trim(pathNode.GetContent(source), `"`),
				Position: n.Position(),
			})
		}
		for _, pathNode := range n.FindAllByType("string") {
			res.Imports = append(res.Imports, Import{
				FilePath: path,
				Path:     strings.Trim(pathNode.GetContent(source), `"'`),
				Position: n.Position(),
			})
		}
		for _, pathNode := range n.FindAllByType("dotted_name") {
			res.Imports = append(res.Imports, Import{
				FilePath: path,
				Path:     pathNode.GetContent(source),
				Position: n.Position(),
			})
		}
	}
	for _, c := range n.Children {
		walkImports(c, cfg, path, source, res)
	}
}

func treeHasError(n *Node) bool {
	if n.HasError && n.Type == "ERROR" {
		return true
	}
	for _, c := range n.Children {
		if treeHasError(c) {
			return true
		}
	}
	return false
}
