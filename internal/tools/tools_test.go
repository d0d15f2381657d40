package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/miller/internal/concurrency"
	"github.com/standardbeagle/miller/internal/query"
	"github.com/standardbeagle/miller/internal/registry"
	"github.com/standardbeagle/miller/internal/rerank"
	"github.com/standardbeagle/miller/internal/storage"
	"github.com/standardbeagle/miller/internal/vectorstore"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text))}, nil
}

// newTestContext wires a single registered-and-loaded workspace against
// real (in-memory) storage/vectors/FTS, the way internal/query's own tests
// do, so tool handlers run against the genuine query.Engine rather than a
// mock of it.
func newTestContext(t *testing.T) (*Context, string) {
	t.Helper()
	dir := t.TempDir()

	reg, err := registry.Open(dir)
	require.NoError(t, err)

	entry, err := reg.Add("demo", dir, registry.KindPrimary)
	require.NoError(t, err)

	store, err := storage.Open("", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fts, err := vectorstore.NewFTSIndex("", nil, "")
	require.NoError(t, err)

	vecs, err := vectorstore.NewHNSWStore(vectorstore.DefaultConfig(1))
	require.NoError(t, err)

	engine := query.New(store, vecs, fts, fakeEmbedder{}, rerank.NoOpReranker{})

	c := NewContext(reg, nil,
		concurrency.NewIndexingLock(dir),
		concurrency.NewEmbeddingLock(dir),
		concurrency.NewInitBarrier("test"),
	)
	c.Workspaces[entry.WorkspaceID] = &Workspace{
		Entry: entry, Storage: store, Vectors: vecs, FTS: fts, Engine: engine,
	}
	return c, entry.WorkspaceID
}

func storageFile(path string) storage.File {
	return storage.File{Path: path, Language: "go", ContentHash: "h", SizeBytes: 1, ModifiedUnix: 1, IndexedUnix: 1}
}
