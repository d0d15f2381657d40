package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/miller/internal/extractor"
	"github.com/standardbeagle/miller/internal/vectorstore"
)

func TestSearch_EmptyQueryErrors(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	_, err := e.Search(context.Background(), "", SearchOptions{})
	assert.Error(t, err)
}

func TestSearch_TextMethodUsesFTS(t *testing.T) {
	e, store, fts, _ := newTestEngine(t)
	mustSymbol(t, store, extractor.Symbol{ID: "s1", FilePath: "a.go", Name: "ComputeTotals", Kind: extractor.SymbolFunction, Language: "go"})
	require.NoError(t, fts.Index(context.Background(), []*vectorstore.Document{{ID: "s1", Content: "ComputeTotals"}}))

	results, err := e.Search(context.Background(), "ComputeTotals", SearchOptions{Method: MethodText})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s1", results[0].Symbol.ID)
}

func TestSearch_TextFallsBackToSemanticWhenEmpty(t *testing.T) {
	e, store, _, vecs := newTestEngine(t)
	mustSymbol(t, store, extractor.Symbol{ID: "s1", FilePath: "a.go", Name: "ComputeTotals", Kind: extractor.SymbolFunction, Language: "go"})
	require.NoError(t, vecs.Add(context.Background(), []string{"s1"}, [][]float32{{float32('X')}}))

	results, err := e.Search(context.Background(), "X", SearchOptions{Method: MethodText})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s1", results[0].Symbol.ID)
}

func TestSearch_LanguageFilter(t *testing.T) {
	e, store, fts, _ := newTestEngine(t)
	mustSymbol(t, store, extractor.Symbol{ID: "s1", FilePath: "a.go", Name: "Foo", Kind: extractor.SymbolFunction, Language: "go"})
	mustSymbol(t, store, extractor.Symbol{ID: "s2", FilePath: "b.ts", Name: "Foo", Kind: extractor.SymbolFunction, Language: "typescript"})
	require.NoError(t, fts.Index(context.Background(), []*vectorstore.Document{
		{ID: "s1", Content: "Foo"}, {ID: "s2", Content: "Foo"},
	}))

	results, err := e.Search(context.Background(), "Foo", SearchOptions{Method: MethodText, Language: "go"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "go", results[0].Symbol.Language)
}

func TestSearch_ExpandDecoratesCallersAndCallees(t *testing.T) {
	e, store, fts, _ := newTestEngine(t)
	mustFileGraph(t, store, "a.go", "go",
		[]extractor.Symbol{
			{ID: "caller", FilePath: "a.go", Name: "Caller", Kind: extractor.SymbolFunction, Language: "go"},
			{ID: "callee", FilePath: "a.go", Name: "Callee", Kind: extractor.SymbolFunction, Language: "go"},
		}, nil,
		[]extractor.Relationship{{FromSymbolID: "caller", ToSymbolID: "callee", Kind: extractor.RelationCall, FilePath: "a.go"}},
	)
	require.NoError(t, fts.Index(context.Background(), []*vectorstore.Document{{ID: "caller", Content: "Caller"}}))

	results, err := e.Search(context.Background(), "Caller", SearchOptions{Method: MethodText, Expand: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Callees, 1)
	assert.Equal(t, "callee", results[0].Callees[0].ID)
}
