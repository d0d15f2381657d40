package tools

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/standardbeagle/miller/internal/errs"
	"github.com/standardbeagle/miller/internal/extractor"
	"github.com/standardbeagle/miller/internal/serialize"
)

// GetSymbolsMode selects get_symbols's level of detail.
type GetSymbolsMode string

const (
	SymbolsStructure GetSymbolsMode = "structure"
	SymbolsMinimal   GetSymbolsMode = "minimal"
	SymbolsFull      GetSymbolsMode = "full"
)

// GetSymbolsParams is get_symbols's parameter set.
type GetSymbolsParams struct {
	FilePath     string
	Mode         GetSymbolsMode
	MaxDepth     int
	Target       string
	Limit        int
	Workspace    string
	OutputFormat serialize.Format
}

// SymbolNode is one entry of get_symbols's nested result: a symbol plus its
// ParentID-linked children up to max_depth, and its source text in full mode.
type SymbolNode struct {
	Symbol   extractor.Symbol
	Source   string
	Children []*SymbolNode
}

// GetSymbolsResult is get_symbols's return value.
type GetSymbolsResult struct {
	Nodes    []*SymbolNode
	Rendered string
}

func getSymbols(ctx context.Context, c *Context, p GetSymbolsParams) (*GetSymbolsResult, error) {
	if p.FilePath == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "file_path is required", nil)
	}
	ws, err := c.Resolve(p.Workspace)
	if err != nil {
		return nil, err
	}
	symbols, err := ws.Storage.SymbolsInFile(p.FilePath)
	if err != nil {
		return nil, err
	}
	if p.Target != "" {
		filtered := symbols[:0:0]
		for _, s := range symbols {
			if s.Name == p.Target {
				filtered = append(filtered, s)
			}
		}
		symbols = filtered
	}

	mode := p.Mode
	if mode == "" {
		mode = SymbolsStructure
	}
	maxDepth := p.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 1
	}

	var source []string
	if mode == SymbolsFull {
		source, _ = readSourceLines(p.FilePath)
	}

	nodes := buildSymbolTree(symbols, "", 0, maxDepth, mode, source)
	if p.Limit > 0 && len(nodes) > p.Limit {
		nodes = nodes[:p.Limit]
	}

	rendered, err := serialize.Render(p.OutputFormat, serialize.DefaultAutoThreshold, serialize.Payload{
		Data: nodes, Count: len(nodes),
	})
	if err != nil {
		return nil, err
	}
	return &GetSymbolsResult{Nodes: nodes, Rendered: rendered}, nil
}

// buildSymbolTree groups symbols into a ParentID forest. depth stops
// recursing into children once it reaches maxDepth (minimal mode ignores
// children entirely; structure/full both nest up to maxDepth).
func buildSymbolTree(symbols []extractor.Symbol, parentID string, depth, maxDepth int, mode GetSymbolsMode, source []string) []*SymbolNode {
	var nodes []*SymbolNode
	for _, sym := range symbols {
		if sym.ParentID != parentID {
			continue
		}
		node := &SymbolNode{Symbol: sym}
		if mode == SymbolsFull {
			node.Source = snippet(source, sym.Start.Line, sym.End.Line)
		}
		if mode != SymbolsMinimal && depth+1 < maxDepth {
			node.Children = buildSymbolTree(symbols, sym.ID, depth+1, maxDepth, mode, source)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func readSourceLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func snippet(lines []string, startLine, endLine int) string {
	if lines == nil || startLine < 0 || startLine >= len(lines) {
		return ""
	}
	if endLine >= len(lines) {
		endLine = len(lines) - 1
	}
	if endLine < startLine {
		endLine = startLine
	}
	return strings.Join(lines[startLine:endLine+1], "\n")
}
