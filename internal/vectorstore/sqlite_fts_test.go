package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteFTSIndex_IndexAndSearch(t *testing.T) {
	idx, err := NewSQLiteFTSIndex("", DefaultCodeStopWords)
	require.NoError(t, err)
	defer idx.Close()

	docs := []*Document{
		{ID: "s1", Content: "func getUserById(id string) User { return lookupUser(id) }"},
		{ID: "s2", Content: "func deleteWidget(w *Widget) error { return nil }"},
	}
	require.NoError(t, idx.Index(context.Background(), docs))

	results, err := idx.Search(context.Background(), "getUser", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "s1", results[0].SymbolID)
}

func TestSQLiteFTSIndex_DeleteAndAllIDs(t *testing.T) {
	idx, err := NewSQLiteFTSIndex("", nil)
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Index(context.Background(), []*Document{
		{ID: "s1", Content: "parseHTTPRequest"},
		{ID: "s2", Content: "writeHTTPResponse"},
	}))

	ids, err := idx.AllIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, ids)

	require.NoError(t, idx.Delete(context.Background(), []string{"s1"}))
	ids, err = idx.AllIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, ids)

	stats := idx.Stats()
	assert.Equal(t, 1, stats.DocumentCount)
}

func TestSQLiteFTSIndex_EmptyQuery(t *testing.T) {
	idx, err := NewSQLiteFTSIndex("", nil)
	require.NoError(t, err)
	defer idx.Close()

	results, err := idx.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTokenizeCode_SplitsIdentifiers(t *testing.T) {
	tokens := TokenizeCode("getUserByID")
	assert.Contains(t, tokens, "get")
	assert.Contains(t, tokens, "user")
	assert.Contains(t, tokens, "by")
}

func TestSplitCamelCase_KeepsAcronyms(t *testing.T) {
	assert.Equal(t, []string{"HTTP", "Handler"}, SplitCamelCase("HTTPHandler"))
	assert.Equal(t, []string{"parse", "HTTP", "Request"}, SplitCamelCase("parseHTTPRequest"))
}
