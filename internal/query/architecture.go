package query

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/standardbeagle/miller/internal/errs"
)

// ArchitectureEdge is a weighted edge between two directory-prefix nodes.
type ArchitectureEdge struct {
	From   string
	To     string
	Weight int
}

// ArchitectureMap aggregates relationships to the directory level so a whole
// codebase's shape fits in one diagram (§4.7.7).
type ArchitectureMap struct {
	Nodes []string
	Edges []ArchitectureEdge
}

// Architecture aggregates every Relationship to directory prefixes of the
// given depth (1 = top-level directory, 2 = two levels, ...) and keeps edges
// whose aggregate weight is at least minEdgeCount.
func (e *Engine) Architecture(_ context.Context, depth int, minEdgeCount int) (*ArchitectureMap, error) {
	if depth <= 0 {
		depth = 2
	}
	if minEdgeCount <= 0 {
		minEdgeCount = 1
	}

	paths, err := e.Store.ListFilePaths()
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeSearchFailed, err)
	}

	weights := make(map[[2]string]int)
	nodes := make(map[string]bool)

	for _, path := range paths {
		symbols, err := e.Store.SymbolsInFile(path)
		if err != nil {
			continue
		}
		fromPrefix := dirPrefix(path, depth)
		nodes[fromPrefix] = true
		for _, sym := range symbols {
			out, err := e.Store.OutgoingRelationships(sym.ID, "")
			if err != nil {
				continue
			}
			for _, rel := range out {
				if rel.ToSymbolID == "" {
					continue
				}
				target, err := e.Store.GetSymbol(rel.ToSymbolID)
				if err != nil || target == nil {
					continue
				}
				toPrefix := dirPrefix(target.FilePath, depth)
				if toPrefix == fromPrefix {
					continue
				}
				nodes[toPrefix] = true
				weights[[2]string{fromPrefix, toPrefix}]++
			}
		}
	}

	edges := make([]ArchitectureEdge, 0, len(weights))
	for key, w := range weights {
		if w < minEdgeCount {
			continue
		}
		edges = append(edges, ArchitectureEdge{From: key[0], To: key[1], Weight: w})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Weight != edges[j].Weight {
			return edges[i].Weight > edges[j].Weight
		}
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	nodeList := make([]string, 0, len(nodes))
	for n := range nodes {
		nodeList = append(nodeList, n)
	}
	sort.Strings(nodeList)

	return &ArchitectureMap{Nodes: nodeList, Edges: edges}, nil
}

// dirPrefix truncates a file path to its first depth directory components.
func dirPrefix(path string, depth int) string {
	dir := filepath.ToSlash(filepath.Dir(path))
	if dir == "." {
		return "."
	}
	parts := strings.Split(dir, "/")
	if len(parts) > depth {
		parts = parts[:depth]
	}
	return strings.Join(parts, "/")
}
