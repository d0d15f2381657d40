package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/miller/internal/extractor"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := Open("", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertAndGetFile(t *testing.T) {
	s := openTest(t)

	f := File{Path: "a.go", Language: "go", ContentHash: "h1", SizeBytes: 10, ModifiedUnix: 1, IndexedUnix: 2}
	require.NoError(t, s.UpsertFile(f))

	got, err := s.GetFile("a.go")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f, *got)

	f.ContentHash = "h2"
	require.NoError(t, s.UpsertFile(f))
	got, err = s.GetFile("a.go")
	require.NoError(t, err)
	assert.Equal(t, "h2", got.ContentHash)

	missing, err := s.GetFile("nope.go")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDiffAgainstScan(t *testing.T) {
	s := openTest(t)
	require.NoError(t, s.UpsertFile(File{Path: "a.go", Language: "go", ContentHash: "h1"}))
	require.NoError(t, s.UpsertFile(File{Path: "b.go", Language: "go", ContentHash: "h2"}))

	current := map[string]string{
		"a.go": "h1",   // unchanged
		"b.go": "h2x",  // modified
		"c.go": "h3",   // added
	}
	changes, err := s.DiffAgainstScan(current)
	require.NoError(t, err)

	byPath := map[string]ChangeKind{}
	for _, c := range changes {
		byPath[c.Path] = c.Kind
	}
	assert.Equal(t, ChangeUnchanged, byPath["a.go"])
	assert.Equal(t, ChangeModified, byPath["b.go"])
	assert.Equal(t, ChangeAdded, byPath["c.go"])
}

func TestDeleteFileCascades(t *testing.T) {
	s := openTest(t)
	require.NoError(t, s.UpsertFile(File{Path: "a.go", Language: "go", ContentHash: "h1"}))

	sym := extractor.Symbol{ID: "sym1", FilePath: "a.go", Name: "Foo", Kind: extractor.SymbolFunction, Language: "go"}
	require.NoError(t, s.ReplaceFileGraph("a.go", []extractor.Symbol{sym}, nil, nil))

	require.NoError(t, s.DeleteFile("a.go"))

	got, err := s.GetSymbol("sym1")
	require.NoError(t, err)
	assert.Nil(t, got)

	syms, err := s.SymbolsInFile("a.go")
	require.NoError(t, err)
	assert.Empty(t, syms)
}

func TestReplaceFileGraphAndLookup(t *testing.T) {
	s := openTest(t)
	require.NoError(t, s.UpsertFile(File{Path: "a.go", Language: "go", ContentHash: "h1"}))

	syms := []extractor.Symbol{
		{ID: "s1", FilePath: "a.go", Name: "Foo", Kind: extractor.SymbolFunction, Language: "go", ExportedAPI: true},
		{ID: "s2", FilePath: "a.go", Name: "helper", Kind: extractor.SymbolFunction, Language: "go"},
	}
	rels := []extractor.Relationship{
		{FromSymbolID: "s1", ToName: "helper", Kind: extractor.RelationCall, FilePath: "a.go"},
	}
	require.NoError(t, s.ReplaceFileGraph("a.go", syms, nil, rels))

	got, err := s.GetSymbol("s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Foo", got.Name)
	assert.True(t, got.ExportedAPI)

	found, err := s.FindSymbolsByName("helper", "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "s2", found[0].ID)

	inFile, err := s.SymbolsInFile("a.go")
	require.NoError(t, err)
	assert.Len(t, inFile, 2)

	// a second replace should fully supersede the first, not append
	require.NoError(t, s.ReplaceFileGraph("a.go", syms[:1], nil, nil))
	inFile, err = s.SymbolsInFile("a.go")
	require.NoError(t, err)
	assert.Len(t, inFile, 1)
}

func TestResolveRelationships(t *testing.T) {
	s := openTest(t)
	require.NoError(t, s.UpsertFile(File{Path: "a.go", Language: "go", ContentHash: "h1"}))

	syms := []extractor.Symbol{
		{ID: "caller", FilePath: "a.go", Name: "Foo", Kind: extractor.SymbolFunction, Language: "go"},
		{ID: "callee", FilePath: "a.go", Name: "helper", Kind: extractor.SymbolFunction, Language: "go"},
	}
	rels := []extractor.Relationship{
		{FromSymbolID: "caller", ToName: "helper", Kind: extractor.RelationCall, FilePath: "a.go"},
		{FromSymbolID: "caller", ToName: "doesNotExist", Kind: extractor.RelationCall, FilePath: "a.go"},
	}
	require.NoError(t, s.ReplaceFileGraph("a.go", syms, nil, rels))

	n, err := s.ResolveRelationships()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out, err := s.OutgoingRelationships("caller", "call")
	require.NoError(t, err)
	require.Len(t, out, 2)

	resolvedCount := 0
	for _, r := range out {
		if r.ToSymbolID == "callee" {
			resolvedCount++
		}
	}
	assert.Equal(t, 1, resolvedCount)

	in, err := s.IncomingRelationships("callee", "call")
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "caller", in[0].FromSymbolID)
}

func TestRecomputeReachabilityAndReaches(t *testing.T) {
	s := openTest(t)
	require.NoError(t, s.UpsertFile(File{Path: "a.go", Language: "go", ContentHash: "h1"}))

	syms := []extractor.Symbol{
		{ID: "a", FilePath: "a.go", Name: "A", Kind: extractor.SymbolFunction, Language: "go"},
		{ID: "b", FilePath: "a.go", Name: "B", Kind: extractor.SymbolFunction, Language: "go"},
		{ID: "c", FilePath: "a.go", Name: "C", Kind: extractor.SymbolFunction, Language: "go"},
	}
	rels := []extractor.Relationship{
		{FromSymbolID: "a", ToSymbolID: "b", ToName: "B", Kind: extractor.RelationCall, FilePath: "a.go"},
		{FromSymbolID: "b", ToSymbolID: "c", ToName: "C", Kind: extractor.RelationCall, FilePath: "a.go"},
	}
	require.NoError(t, s.ReplaceFileGraph("a.go", syms, nil, rels))

	require.NoError(t, s.RecomputeReachability([]string{"call"}, 5))

	reaches, depth, err := s.Reaches("a", "c", []string{"call"})
	require.NoError(t, err)
	assert.True(t, reaches)
	assert.Equal(t, 2, depth)

	reaches, _, err = s.Reaches("c", "a", []string{"call"})
	require.NoError(t, err)
	assert.False(t, reaches)

	// depth cap of 1 should not reach the 2-hop target
	require.NoError(t, s.RecomputeReachability([]string{"call"}, 1))
	reaches, _, err = s.Reaches("a", "c", []string{"call"})
	require.NoError(t, err)
	assert.False(t, reaches)
}

func TestStateAndStats(t *testing.T) {
	s := openTest(t)

	_, ok, err := s.GetState("embedding_model")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetState("embedding_model", "nomic-embed-text"))
	v, ok, err := s.GetState("embedding_model")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "nomic-embed-text", v)

	require.NoError(t, s.SetState("embedding_model", "bge-small"))
	v, _, err = s.GetState("embedding_model")
	require.NoError(t, err)
	assert.Equal(t, "bge-small", v)

	require.NoError(t, s.UpsertFile(File{Path: "a.go", Language: "go", ContentHash: "h1"}))
	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FileCount)
}

func TestVerifyReportsNoProblemsOnCleanStore(t *testing.T) {
	s := openTest(t)
	require.NoError(t, s.UpsertFile(File{Path: "a.go", Language: "go", ContentHash: "h1"}))
	sym := extractor.Symbol{ID: "s1", FilePath: "a.go", Name: "Foo", Kind: extractor.SymbolFunction, Language: "go"}
	require.NoError(t, s.ReplaceFileGraph("a.go", []extractor.Symbol{sym}, nil, nil))

	problems := s.Verify()
	assert.Empty(t, problems)
}
