package query

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/standardbeagle/miller/internal/extractor"
)

// ImportStatus classifies one parsed import against the indexed workspace.
type ImportStatus string

const (
	ImportValid     ImportStatus = "valid"
	ImportInvalid   ImportStatus = "invalid"
	ImportAmbiguous ImportStatus = "ambiguous"
	ImportPrivate   ImportStatus = "private"
)

// ImportCheck is one parsed import's validation result.
type ImportCheck struct {
	Name        string
	Status      ImportStatus
	Suggestions []string // nearest-name candidates, populated only when Status == invalid
}

var importLinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*import\s+"([^"]+)"\s*$`),                     // Go single import
	regexp.MustCompile(`^\s*import\s+\{([^}]+)\}\s+from\s+["'].+["']`),   // ES module named imports
	regexp.MustCompile(`^\s*import\s+(\w+)\s+from\s+["'].+["']`),        // ES module default import
	regexp.MustCompile(`^\s*from\s+\S+\s+import\s+(.+)$`),                // Python
	regexp.MustCompile(`^\s*import\s+(\S+)$`),                            // Python plain / Go fallback
)

// ValidateImports parses a code snippet's import statements and checks each
// imported name against Storage: valid (symbol exists and is exported),
// private (symbol exists but isn't exported), invalid (no such symbol, with
// nearest-name suggestions), or ambiguous (more than one exported symbol
// shares the name across unrelated packages) (§4.7.10).
func (e *Engine) ValidateImports(_ context.Context, snippet string, _ string) ([]ImportCheck, error) {
	names := parseImportNames(snippet)
	checks := make([]ImportCheck, 0, len(names))
	for _, name := range names {
		checks = append(checks, e.checkImport(name))
	}
	return checks, nil
}

func parseImportNames(snippet string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, line := range strings.Split(snippet, "\n") {
		for _, pat := range importLinePatterns {
			m := pat.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			for _, part := range strings.Split(m[1], ",") {
				name := strings.TrimSpace(part)
				name = lastPathSegment(name)
				if name == "" || seen[name] {
					continue
				}
				seen[name] = true
				names = append(names, name)
			}
			break
		}
	}
	return names
}

// lastPathSegment reduces a dotted or slashed import path to the identifier
// that would actually be looked up in Storage (e.g. "a/b/user" -> "user").
func lastPathSegment(path string) string {
	path = strings.Trim(path, `"'`)
	for _, sep := range []string{"/", "."} {
		if i := strings.LastIndex(path, sep); i >= 0 {
			path = path[i+1:]
		}
	}
	return strings.TrimSpace(path)
}

func (e *Engine) checkImport(name string) ImportCheck {
	matches, err := e.Store.FindSymbolsByName(name, "")
	if err != nil || len(matches) == 0 {
		return ImportCheck{Name: name, Status: ImportInvalid, Suggestions: e.nearestNames(name, 3)}
	}

	exported := 0
	for _, m := range matches {
		if m.ExportedAPI {
			exported++
		}
	}
	switch {
	case exported == 0:
		return ImportCheck{Name: name, Status: ImportPrivate}
	case exported > 1:
		return ImportCheck{Name: name, Status: ImportAmbiguous}
	default:
		return ImportCheck{Name: name, Status: ImportValid}
	}
}

// nearestNames returns up to limit symbol names with the smallest Levenshtein
// distance to name. No ecosystem fuzzy-matching library is wired anywhere
// else in this module, and the distance computation here is a handful of
// lines over an in-memory candidate pool — not worth a new dependency for.
func (e *Engine) nearestNames(name string, limit int) []string {
	kinds := []extractor.SymbolKind{
		extractor.SymbolFunction, extractor.SymbolMethod, extractor.SymbolClass,
		extractor.SymbolInterface, extractor.SymbolType,
	}
	type scored struct {
		name string
		dist int
	}
	var candidates []scored
	seen := make(map[string]bool)
	for _, k := range kinds {
		syms, err := e.Store.SymbolsByKind(string(k), 500)
		if err != nil {
			continue
		}
		for _, s := range syms {
			if seen[s.Name] {
				continue
			}
			seen[s.Name] = true
			candidates = append(candidates, scored{name: s.Name, dist: levenshtein(name, s.Name)})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	out := make([]string, 0, limit)
	for i := 0; i < len(candidates) && i < limit; i++ {
		out = append(out, candidates[i].name)
	}
	return out
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	la, lb := len(a), len(b)
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			cur[j] = min3(del, ins, sub)
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
