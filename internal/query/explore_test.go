package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/miller/internal/extractor"
)

func TestExploreTypes_EmptyNameErrors(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	_, err := e.ExploreTypes(context.Background(), "", 10)
	assert.Error(t, err)
}

func TestExploreTypes_FindsImplementations(t *testing.T) {
	e, store, _, _ := newTestEngine(t)
	mustFileGraph(t, store, "a.go", "go",
		[]extractor.Symbol{
			{ID: "iface", FilePath: "a.go", Name: "Storer", Kind: extractor.SymbolInterface, Language: "go"},
			{ID: "impl", FilePath: "a.go", Name: "SQLStore", Kind: extractor.SymbolClass, Language: "go"},
		}, nil,
		[]extractor.Relationship{{FromSymbolID: "impl", ToSymbolID: "iface", Kind: extractor.RelationImplements, FilePath: "a.go"}},
	)

	result, err := e.ExploreTypes(context.Background(), "Storer", 10)
	require.NoError(t, err)
	require.Len(t, result.Implementations, 1)
	assert.Equal(t, "impl", result.Implementations[0].ID)
}

func TestSimilarity_ExcludesSource(t *testing.T) {
	e, store, _, vecs := newTestEngine(t)
	src := extractor.Symbol{ID: "src", FilePath: "a.go", Name: "Foo", Kind: extractor.SymbolFunction, Language: "go", Signature: "func Foo()"}
	near := extractor.Symbol{ID: "near", FilePath: "b.go", Name: "Bar", Kind: extractor.SymbolFunction, Language: "go", Signature: "func Foo()"}
	mustSymbol(t, store, src)
	mustSymbol(t, store, near)

	srcVec, err := fakeEmbedder{}.Embed(context.Background(), symbolText(src))
	require.NoError(t, err)
	nearVec, err := fakeEmbedder{}.Embed(context.Background(), symbolText(near))
	require.NoError(t, err)
	require.NoError(t, vecs.Add(context.Background(), []string{"src", "near"}, [][]float32{srcVec, nearVec}))

	results, err := e.Similarity(context.Background(), "src", "", 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "near", results[0].Symbol.ID)
}

func TestSimilarity_RequiresSourceOrSnippet(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	_, err := e.Similarity(context.Background(), "", "", 0, 10)
	assert.Error(t, err)
}
