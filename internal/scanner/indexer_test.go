package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/miller/internal/extractor"
	"github.com/standardbeagle/miller/internal/storage"
	"github.com/standardbeagle/miller/internal/vectorstore"
)

// fakeEmbedder returns a fixed-width zero vector per text, enough to exercise
// the indexer's batching without a real embedding backend.
type fakeEmbedder struct{ calls int }

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	vecs := make([][]float32, len(texts))
	for i := range vecs {
		vecs[i] = []float32{0.1, 0.2, 0.3}
	}
	return vecs, nil
}

// fakeVectorStore records Add/Delete calls without doing real ANN search.
type fakeVectorStore struct {
	ids map[string]bool
}

func newFakeVectorStore() *fakeVectorStore { return &fakeVectorStore{ids: map[string]bool{}} }

func (v *fakeVectorStore) Add(_ context.Context, ids []string, _ [][]float32) error {
	for _, id := range ids {
		v.ids[id] = true
	}
	return nil
}
func (v *fakeVectorStore) Search(_ context.Context, _ []float32, _ int) ([]*vectorstore.VectorResult, error) {
	return nil, nil
}
func (v *fakeVectorStore) Delete(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(v.ids, id)
	}
	return nil
}
func (v *fakeVectorStore) AllIDs() []string {
	out := make([]string, 0, len(v.ids))
	for id := range v.ids {
		out = append(out, id)
	}
	return out
}
func (v *fakeVectorStore) Contains(id string) bool { return v.ids[id] }
func (v *fakeVectorStore) Count() int              { return len(v.ids) }
func (v *fakeVectorStore) Save(string) error        { return nil }
func (v *fakeVectorStore) Load(string) error        { return nil }
func (v *fakeVectorStore) Close() error             { return nil }

// fakeFTSIndex records Index/Delete calls without doing real lexical search.
type fakeFTSIndex struct {
	docs map[string]string
}

func newFakeFTSIndex() *fakeFTSIndex { return &fakeFTSIndex{docs: map[string]string{}} }

func (f *fakeFTSIndex) Index(_ context.Context, docs []*vectorstore.Document) error {
	for _, d := range docs {
		f.docs[d.ID] = d.Content
	}
	return nil
}
func (f *fakeFTSIndex) Search(_ context.Context, _ string, _ int) ([]*vectorstore.FTSResult, error) {
	return nil, nil
}
func (f *fakeFTSIndex) Delete(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(f.docs, id)
	}
	return nil
}
func (f *fakeFTSIndex) AllIDs() ([]string, error) {
	out := make([]string, 0, len(f.docs))
	for id := range f.docs {
		out = append(out, id)
	}
	return out, nil
}
func (f *fakeFTSIndex) Stats() vectorstore.FTSStats { return vectorstore.FTSStats{DocumentCount: len(f.docs)} }
func (f *fakeFTSIndex) Save(string) error            { return nil }
func (f *fakeFTSIndex) Load(string) error            { return nil }
func (f *fakeFTSIndex) Close() error                 { return nil }

func newTestIndexer(t *testing.T) (*Indexer, *storage.Storage, *fakeVectorStore, *fakeFTSIndex, *fakeEmbedder) {
	t.Helper()
	s, err := storage.Open("", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	sc, err := New()
	require.NoError(t, err)

	vec := newFakeVectorStore()
	fts := newFakeFTSIndex()
	emb := &fakeEmbedder{}

	idx := NewIndexer(sc, extractor.New(), s, vec, fts, emb)
	return idx, s, vec, fts, emb
}

const sampleGo = `package sample

func Hello() string {
	return "hi"
}
`

func TestIndexer_Run_AddsNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", sampleGo)

	idx, store, vec, fts, emb := newTestIndexer(t)

	stats, err := idx.Run(context.Background(), &ScanOptions{RootDir: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesAdded)
	assert.Equal(t, 1, stats.SymbolsIndexed)
	assert.Equal(t, 1, emb.calls)
	assert.Equal(t, 1, vec.Count())
	assert.Len(t, fts.docs, 1)

	got, err := store.GetFile("main.go")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestIndexer_Run_SecondPassIsNoOpWhenUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", sampleGo)

	idx, _, _, _, emb := newTestIndexer(t)

	_, err := idx.Run(context.Background(), &ScanOptions{RootDir: dir})
	require.NoError(t, err)

	stats, err := idx.Run(context.Background(), &ScanOptions{RootDir: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesUnchanged)
	assert.Equal(t, 0, stats.FilesAdded)
	assert.Equal(t, 1, emb.calls, "unchanged file must not be re-embedded")
}

func TestIndexer_Run_ModifiedFileReExtracts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", sampleGo)

	idx, store, _, _, _ := newTestIndexer(t)
	_, err := idx.Run(context.Background(), &ScanOptions{RootDir: dir})
	require.NoError(t, err)

	writeFile(t, dir, "main.go", sampleGo+"\nfunc Extra() {}\n")
	stats, err := idx.Run(context.Background(), &ScanOptions{RootDir: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesModified)

	symbols, err := store.SymbolsInFile("main.go")
	require.NoError(t, err)
	names := map[string]bool{}
	for _, s := range symbols {
		names[s.Name] = true
	}
	assert.True(t, names["Extra"])
}

func TestIndexer_Run_DeletedFileCascades(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", sampleGo)

	idx, store, vec, fts, _ := newTestIndexer(t)
	_, err := idx.Run(context.Background(), &ScanOptions{RootDir: dir})
	require.NoError(t, err)
	require.Equal(t, 1, vec.Count())

	require.NoError(t, os.Remove(filepath.Join(dir, "main.go")))

	stats, err := idx.Run(context.Background(), &ScanOptions{RootDir: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesDeleted)
	assert.Equal(t, 0, vec.Count())
	assert.Empty(t, fts.docs)

	got, err := store.GetFile("main.go")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIndexer_Run_FlushesAtSymbolThreshold(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", sampleGo)

	idx, _, _, _, emb := newTestIndexer(t)
	idx.SetBatchSize(1)

	_, err := idx.Run(context.Background(), &ScanOptions{RootDir: dir})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, emb.calls, 1)
}

func TestSymbolBuffer_FlushesAtThreshold(t *testing.T) {
	buf := newSymbolBuffer(2)
	assert.True(t, buf.empty())

	buf.add([]extractor.Symbol{{ID: "a"}})
	assert.False(t, buf.shouldFlush())

	buf.add([]extractor.Symbol{{ID: "b"}})
	assert.True(t, buf.shouldFlush())

	buf.reset()
	assert.True(t, buf.empty())
}
