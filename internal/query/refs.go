package query

import (
	"bufio"
	"context"
	"os"
	"sort"

	"github.com/standardbeagle/miller/internal/errs"
	"github.com/standardbeagle/miller/internal/extractor"
)

// Reference is one occurrence of a symbol's name, with a few lines of
// surrounding source for context.
type Reference struct {
	Identifier    extractor.Identifier
	ContextBefore []string
	ContextLine   string
	ContextAfter  []string
}

// ReferencesOptions selects what References resolves against.
type ReferencesOptions struct {
	// TargetSymbolID, if set, is resolved to its declared name and every
	// identifier occurrence of that name is returned. Takes precedence over
	// Name.
	TargetSymbolID string
	Name           string
	ContextLines   int // lines of source shown before/after each hit; 0 = 2
}

// References finds every occurrence of a symbol's name across the index,
// grouped by file (§4.7.3). Identifiers aren't resolved to a target symbol ID
// at extraction time, so a target_symbol_id lookup first resolves the
// symbol's name and then falls back to the same name-match path as an
// unresolved query.
func (e *Engine) References(_ context.Context, opts ReferencesOptions) (map[string][]Reference, error) {
	name := opts.Name
	if opts.TargetSymbolID != "" {
		sym, err := e.Store.GetSymbol(opts.TargetSymbolID)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeSearchFailed, err)
		}
		if sym == nil {
			return nil, errs.New(errs.ErrCodeSymbolNotFound, "no symbol with that ID", nil)
		}
		name = sym.Name
	}
	if name == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "either target_symbol_id or name is required", nil)
	}

	ids, err := e.Store.IdentifiersByName(name)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeSearchFailed, err)
	}

	ctxLines := opts.ContextLines
	if ctxLines <= 0 {
		ctxLines = 2
	}

	byFile := make(map[string][]extractor.Identifier)
	for _, id := range ids {
		byFile[id.FilePath] = append(byFile[id.FilePath], id)
	}

	out := make(map[string][]Reference, len(byFile))
	for file, occurrences := range byFile {
		lines, err := readLines(file)
		refs := make([]Reference, 0, len(occurrences))
		for _, id := range occurrences {
			ref := Reference{Identifier: id}
			if err == nil {
				ref.ContextBefore, ref.ContextLine, ref.ContextAfter = surrounding(lines, id.Position.Line, ctxLines)
			}
			refs = append(refs, ref)
		}
		sort.Slice(refs, func(i, j int) bool {
			return refs[i].Identifier.Position.Line < refs[j].Identifier.Position.Line
		})
		out[file] = refs
	}
	return out, nil
}

// readLines loads a file's lines for context snippets. A missing or
// unreadable file degrades to no context rather than failing the whole
// references query — the index can reference files that moved since the
// last scan.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// surrounding returns up to n lines before and after the zero-indexed line,
// plus the line itself.
func surrounding(lines []string, line, n int) (before []string, at string, after []string) {
	if line < 0 || line >= len(lines) {
		return nil, "", nil
	}
	start := line - n
	if start < 0 {
		start = 0
	}
	end := line + n + 1
	if end > len(lines) {
		end = len(lines)
	}
	before = append(before, lines[start:line]...)
	at = lines[line]
	after = append(after, lines[line+1:end]...)
	return before, at, after
}
