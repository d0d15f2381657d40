package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/miller/internal/extractor"
)

func TestFastLookup_ExactNameMatch(t *testing.T) {
	c, wsID := newTestContext(t)
	ws := c.Workspaces[wsID]
	require.NoError(t, ws.Storage.UpsertFile(storageFile("a.go")))
	require.NoError(t, ws.Storage.ReplaceFileGraph("a.go", []extractor.Symbol{
		{ID: "s1", FilePath: "a.go", Name: "Widget", Kind: extractor.SymbolClass, Language: "go"},
	}, nil, nil))

	result, err := fastLookup(context.Background(), c, FastLookupParams{Name: "Widget", Workspace: wsID})
	require.NoError(t, err)
	require.Len(t, result.Symbols, 1)
	assert.Equal(t, "s1", result.Symbols[0].ID)
}

func TestFastLookup_UnresolvedWorkspaceErrors(t *testing.T) {
	c, _ := newTestContext(t)
	_, err := fastLookup(context.Background(), c, FastLookupParams{Name: "Widget", Workspace: "nope"})
	assert.Error(t, err)
}
