package tools

import (
	"context"

	"github.com/standardbeagle/miller/internal/query"
	"github.com/standardbeagle/miller/internal/serialize"
)

// FastSearchParams is fast_search's parameter set (spec.md §6).
type FastSearchParams struct {
	Query        string
	Method       query.Method
	Limit        int
	Workspace    string
	OutputFormat serialize.Format
	Rerank       bool
	Expand       bool
	ExpandLimit  int
	Language     string
	FilePattern  string
}

// FastSearchResult is fast_search's return value: the raw matches plus the
// rendered string a text-mode caller wants directly.
type FastSearchResult struct {
	Matches  []*query.SearchResult
	Rendered string
}

func fastSearch(ctx context.Context, c *Context, p FastSearchParams) (*FastSearchResult, error) {
	ws, err := c.Resolve(p.Workspace)
	if err != nil {
		return nil, err
	}
	results, err := ws.Engine.Search(ctx, p.Query, query.SearchOptions{
		Method: p.Method, Limit: p.Limit, Language: p.Language, FilePattern: p.FilePattern,
		Rerank: p.Rerank, Expand: p.Expand, ExpandLimit: p.ExpandLimit,
	})
	if err != nil {
		return nil, err
	}
	rendered, err := renderSearchResults(p.OutputFormat, results)
	if err != nil {
		return nil, err
	}
	return &FastSearchResult{Matches: results, Rendered: rendered}, nil
}

// FastSearchMultiParams runs fast_search across several workspaces at once.
type FastSearchMultiParams struct {
	Query        string
	Method       query.Method
	Limit        int
	Workspaces   []string
	OutputFormat serialize.Format
	Rerank       bool
	Expand       bool
	ExpandLimit  int
	Language     string
	FilePattern  string
}

// FastSearchMultiResult groups each workspace's matches under its ID;
// a workspace that errors (not loaded, query failure) is omitted from
// Matches and named in Errors instead, so one bad workspace never fails
// the whole multi-search.
type FastSearchMultiResult struct {
	Matches  map[string][]*query.SearchResult
	Errors   map[string]string
	Rendered string
}

func fastSearchMulti(ctx context.Context, c *Context, p FastSearchMultiParams) (*FastSearchMultiResult, error) {
	workspaces := p.Workspaces
	if len(workspaces) == 0 {
		entries, err := c.Registry.List()
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			workspaces = append(workspaces, e.WorkspaceID)
		}
	}

	out := &FastSearchMultiResult{Matches: map[string][]*query.SearchResult{}, Errors: map[string]string{}}
	for _, wsRef := range workspaces {
		ws, err := c.Resolve(wsRef)
		if err != nil {
			out.Errors[wsRef] = err.Error()
			continue
		}
		results, err := ws.Engine.Search(ctx, p.Query, query.SearchOptions{
			Method: p.Method, Limit: p.Limit, Language: p.Language, FilePattern: p.FilePattern,
			Rerank: p.Rerank, Expand: p.Expand, ExpandLimit: p.ExpandLimit,
		})
		if err != nil {
			out.Errors[ws.Entry.WorkspaceID] = err.Error()
			continue
		}
		out.Matches[ws.Entry.WorkspaceID] = results
	}

	rendered, err := serialize.Render(p.OutputFormat, serialize.DefaultAutoThreshold, serialize.Payload{
		Data: out.Matches, Count: totalMatches(out.Matches),
	})
	if err != nil {
		return nil, err
	}
	out.Rendered = rendered
	return out, nil
}

func totalMatches(m map[string][]*query.SearchResult) int {
	n := 0
	for _, v := range m {
		n += len(v)
	}
	return n
}

func renderSearchResults(format serialize.Format, results []*query.SearchResult) (string, error) {
	return serialize.Render(format, serialize.DefaultAutoThreshold, serialize.Payload{
		Data: results, Count: len(results),
	})
}
