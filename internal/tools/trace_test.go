package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/miller/internal/extractor"
	"github.com/standardbeagle/miller/internal/query"
	"github.com/standardbeagle/miller/internal/serialize"
)

func TestTraceCallPath_DefaultsToTreeFormat(t *testing.T) {
	c, wsID := newTestContext(t)
	ws := c.Workspaces[wsID]
	require.NoError(t, ws.Storage.UpsertFile(storageFile("a.go")))
	require.NoError(t, ws.Storage.ReplaceFileGraph("a.go", []extractor.Symbol{
		{ID: "caller", FilePath: "a.go", Name: "Caller", Kind: extractor.SymbolFunction, Language: "go"},
		{ID: "callee", FilePath: "a.go", Name: "Callee", Kind: extractor.SymbolFunction, Language: "go"},
	}, nil, []extractor.Relationship{
		{FromSymbolID: "caller", ToSymbolID: "callee", Kind: extractor.RelationCall, FilePath: "a.go"},
	}))

	result, err := traceCallPath(context.Background(), c, TraceCallPathParams{
		SymbolName: "Caller", Direction: query.DirectionDownstream, Workspace: wsID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Rendered)
}

func TestTraceCallPath_RespectsExplicitFormat(t *testing.T) {
	c, wsID := newTestContext(t)
	ws := c.Workspaces[wsID]
	require.NoError(t, ws.Storage.UpsertFile(storageFile("a.go")))
	require.NoError(t, ws.Storage.ReplaceFileGraph("a.go", []extractor.Symbol{
		{ID: "caller", FilePath: "a.go", Name: "Caller", Kind: extractor.SymbolFunction, Language: "go"},
	}, nil, nil))

	result, err := traceCallPath(context.Background(), c, TraceCallPathParams{
		SymbolName: "Caller", Workspace: wsID, OutputFormat: serialize.FormatJSON,
	})
	require.NoError(t, err)
	assert.Contains(t, result.Rendered, "{")
}
