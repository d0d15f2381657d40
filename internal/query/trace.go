package query

import (
	"context"
	"strings"
	"time"

	"github.com/standardbeagle/miller/internal/errs"
	"github.com/standardbeagle/miller/internal/extractor"
)

// Direction selects which side of the call graph Trace walks.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"
	DirectionDownstream Direction = "downstream"
	DirectionBoth       Direction = "both"
)

// MatchType records how a traced node's name was tied to its neighbor.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchVariant  MatchType = "variant"
	MatchSemantic MatchType = "semantic"
)

// TraceOptions configures a call-path trace (§4.7.4).
type TraceOptions struct {
	Direction   Direction
	MaxDepth    int // clamped to [1,10]
	ContextFile string
}

// TraceNode is one symbol in the traced call path.
type TraceNode struct {
	Name             string
	Kind             extractor.SymbolKind
	Language         string
	File             string
	Line             int
	Depth            int
	MatchType        MatchType
	RelationshipKind extractor.RelationshipKind
	Children         []*TraceNode
}

// TraceMetadata summarizes a completed trace.
type TraceMetadata struct {
	TotalNodes        int
	MaxDepthReached   int
	Truncated         bool
	LanguagesFound    []string
	MatchTypes        []string
	RelationshipKinds []string
	ExecutionTimeMs   float64
}

// TraceResult is the full output of Trace: one root per seed symbol, plus
// aggregate metadata across every branch.
type TraceResult struct {
	Roots    []*TraceNode
	Metadata TraceMetadata
}

// namingVariants groups identifier spellings that cross-language codebases
// use for the same concept, so a trace doesn't stop at a language boundary
// just because Go calls it UserService and TypeScript calls it IUserService.
var namingVariants = [][]string{
	{"iuser", "user", "users"},
	{"iuserservice", "userservice", "user_service"},
	{"userdto", "user"},
	{"irepository", "repository", "repo"},
	{"iservice", "service"},
	{"icontroller", "controller"},
	{"ihandler", "handler"},
}

// variantKey normalizes a name to the form namingVariants groups by: strip a
// leading capital-I interface prefix, lowercase, collapse snake/camel
// boundaries to nothing.
func variantKey(name string) string {
	lower := strings.ToLower(name)
	lower = strings.ReplaceAll(lower, "_", "")
	return lower
}

// variantGroup returns the canonical group index for a name, or -1 if it
// matches no known variant family.
func variantGroup(name string) int {
	key := variantKey(name)
	for i, group := range namingVariants {
		for _, v := range group {
			if key == v || key == v+"s" || strings.TrimSuffix(key, "s") == v {
				return i
			}
		}
	}
	return -1
}

// matchTypeFor classifies how candidate relates to the node it was reached
// from: identical name is exact, same naming-variant family is variant,
// anything else reached through the call graph is still presumed a real
// edge and classified semantic (no embedding call is made mid-trace — that
// would defeat the point of a fast structural traversal).
func matchTypeFor(from, to string) MatchType {
	if strings.EqualFold(from, to) {
		return MatchExact
	}
	fg, tg := variantGroup(from), variantGroup(to)
	if fg >= 0 && fg == tg {
		return MatchVariant
	}
	return MatchSemantic
}

// Trace walks the call graph from every symbol named symbolName, up to
// max_depth, merging the direct Call relationship edges with the identifier
// fallback the spec calls for when a call site's target wasn't resolved to a
// symbol ID at extraction time (common across a language boundary).
func (e *Engine) Trace(ctx context.Context, symbolName string, opts TraceOptions) (*TraceResult, error) {
	start := time.Now()
	if symbolName == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "symbol_name must not be empty", nil)
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}
	if maxDepth > 10 {
		maxDepth = 10
	}
	direction := opts.Direction
	if direction == "" {
		direction = DirectionDownstream
	}

	seeds, err := e.Store.FindSymbolsByName(symbolName, "")
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeSearchFailed, err)
	}
	if opts.ContextFile != "" {
		filtered := seeds[:0]
		for _, s := range seeds {
			if s.FilePath == opts.ContextFile {
				filtered = append(filtered, s)
			}
		}
		seeds = filtered
	}

	meta := TraceMetadata{}
	languages := make(map[string]bool)
	matchTypes := make(map[string]bool)
	relKinds := make(map[string]bool)

	roots := make([]*TraceNode, 0, len(seeds))
	for _, seed := range seeds {
		visited := map[string]bool{seed.ID: true}
		node := &TraceNode{
			Name: seed.Name, Kind: seed.Kind, Language: seed.Language,
			File: seed.FilePath, Line: seed.Start.Line, Depth: 0, MatchType: MatchExact,
		}
		languages[seed.Language] = true
		matchTypes[string(MatchExact)] = true
		e.expandTrace(ctx, node, seed, direction, maxDepth, visited, &meta, languages, matchTypes, relKinds)
		roots = append(roots, node)
		meta.TotalNodes++
	}

	meta.LanguagesFound = keysOf(languages)
	meta.MatchTypes = keysOf(matchTypes)
	meta.RelationshipKinds = keysOf(relKinds)
	meta.ExecutionTimeMs = elapsedMs(start)

	return &TraceResult{Roots: roots, Metadata: meta}, nil
}

func keysOf(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

// expandTrace depth-first expands one node's children up to maxDepth,
// breaking cycles with visited and checking ctx between expansions so a
// deadline-bound caller can abort a wide trace mid-walk.
func (e *Engine) expandTrace(ctx context.Context, node *TraceNode, sym extractor.Symbol, direction Direction, maxDepth int, visited map[string]bool, meta *TraceMetadata, languages, matchTypes, relKinds map[string]bool) {
	if node.Depth >= maxDepth {
		meta.Truncated = true
		return
	}
	if node.Depth > meta.MaxDepthReached {
		meta.MaxDepthReached = node.Depth
	}
	select {
	case <-ctx.Done():
		meta.Truncated = true
		return
	default:
	}

	var neighbors []extractor.Symbol
	var kinds []extractor.RelationshipKind

	if direction == DirectionDownstream || direction == DirectionBoth {
		callees, callKinds := e.resolveDownstream(sym)
		neighbors = append(neighbors, callees...)
		kinds = append(kinds, callKinds...)
	}
	if direction == DirectionUpstream || direction == DirectionBoth {
		callers, callKinds := e.resolveUpstream(sym)
		neighbors = append(neighbors, callers...)
		kinds = append(kinds, callKinds...)
	}

	for i, nb := range neighbors {
		if visited[nb.ID] {
			continue
		}
		visited[nb.ID] = true
		mt := matchTypeFor(sym.Name, nb.Name)
		languages[nb.Language] = true
		matchTypes[string(mt)] = true
		relKinds[string(kinds[i])] = true

		child := &TraceNode{
			Name: nb.Name, Kind: nb.Kind, Language: nb.Language, File: nb.FilePath,
			Line: nb.Start.Line, Depth: node.Depth + 1, MatchType: mt, RelationshipKind: kinds[i],
		}
		meta.TotalNodes++
		e.expandTrace(ctx, child, nb, direction, maxDepth, visited, meta, languages, matchTypes, relKinds)
		node.Children = append(node.Children, child)
		delete(visited, nb.ID)
	}
}

// resolveDownstream finds callees: direct Call edges out of sym, falling
// back to identifiers within sym's body whose call target never resolved to
// a symbol ID (e.g. a call across a language boundary the extractor couldn't
// bind), resolved here by name instead.
func (e *Engine) resolveDownstream(sym extractor.Symbol) ([]extractor.Symbol, []extractor.RelationshipKind) {
	var syms []extractor.Symbol
	var kinds []extractor.RelationshipKind
	seen := make(map[string]bool)

	if out, err := e.Store.OutgoingRelationships(sym.ID, string(extractor.RelationCall)); err == nil {
		for _, rel := range out {
			if rel.ToSymbolID == "" || seen[rel.ToSymbolID] {
				continue
			}
			callee, err := e.Store.GetSymbol(rel.ToSymbolID)
			if err != nil || callee == nil {
				continue
			}
			seen[callee.ID] = true
			syms = append(syms, *callee)
			kinds = append(kinds, rel.Kind)
		}
	}

	if calls, err := e.Store.IdentifiersByContainingSymbol(sym.ID, string(extractor.IdentifierCall)); err == nil {
		for _, id := range calls {
			candidates, err := e.Store.FindSymbolsByName(id.Name, "")
			if err != nil {
				continue
			}
			for _, cand := range candidates {
				if seen[cand.ID] {
					continue
				}
				seen[cand.ID] = true
				syms = append(syms, cand)
				kinds = append(kinds, extractor.RelationCall)
			}
		}
	}
	return syms, kinds
}

// resolveUpstream finds callers: the distinct symbols whose Call edges
// target sym — not the identifier occurrences themselves, per §4.7.4. Falls
// back to identifier occurrences of sym's name whose call target never
// resolved, in which case the caller is that occurrence's containing symbol.
func (e *Engine) resolveUpstream(sym extractor.Symbol) ([]extractor.Symbol, []extractor.RelationshipKind) {
	seen := make(map[string]bool)
	var syms []extractor.Symbol
	var kinds []extractor.RelationshipKind

	if in, err := e.Store.IncomingRelationships(sym.ID, string(extractor.RelationCall)); err == nil {
		for _, rel := range in {
			if rel.FromSymbolID == "" || seen[rel.FromSymbolID] {
				continue
			}
			caller, err := e.Store.GetSymbol(rel.FromSymbolID)
			if err != nil || caller == nil {
				continue
			}
			seen[caller.ID] = true
			syms = append(syms, *caller)
			kinds = append(kinds, rel.Kind)
		}
	}

	if ids, err := e.Store.IdentifiersByName(sym.Name); err == nil {
		for _, id := range ids {
			if id.Kind != extractor.IdentifierCall || id.ContainingID == "" || seen[id.ContainingID] {
				continue
			}
			caller, err := e.Store.GetSymbol(id.ContainingID)
			if err != nil || caller == nil || caller.ID == sym.ID {
				continue
			}
			seen[caller.ID] = true
			syms = append(syms, *caller)
			kinds = append(kinds, extractor.RelationCall)
		}
	}
	return syms, kinds
}
