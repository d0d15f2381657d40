package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/miller/internal/extractor"
	"github.com/standardbeagle/miller/internal/rerank"
	"github.com/standardbeagle/miller/internal/storage"
	"github.com/standardbeagle/miller/internal/vectorstore"
)

// fakeFTS is a minimal in-memory FTSIndex stand-in: substring match over
// indexed documents, scored by match count. Good enough to exercise the
// fusion and degrade paths without pulling in a real BM25 implementation.
type fakeFTS struct {
	docs map[string]string
}

func newFakeFTS() *fakeFTS { return &fakeFTS{docs: make(map[string]string)} }

func (f *fakeFTS) Index(_ context.Context, docs []*vectorstore.Document) error {
	for _, d := range docs {
		f.docs[d.ID] = d.Content
	}
	return nil
}
func (f *fakeFTS) Search(_ context.Context, query string, limit int) ([]*vectorstore.FTSResult, error) {
	var out []*vectorstore.FTSResult
	for id, content := range f.docs {
		if containsWord(content, query) {
			out = append(out, &vectorstore.FTSResult{SymbolID: id, Score: 1.0})
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
func (f *fakeFTS) Delete(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(f.docs, id)
	}
	return nil
}
func (f *fakeFTS) AllIDs() ([]string, error) {
	out := make([]string, 0, len(f.docs))
	for id := range f.docs {
		out = append(out, id)
	}
	return out, nil
}
func (f *fakeFTS) Stats() vectorstore.FTSStats { return vectorstore.FTSStats{DocumentCount: len(f.docs)} }
func (f *fakeFTS) Save(string) error           { return nil }
func (f *fakeFTS) Load(string) error           { return nil }
func (f *fakeFTS) Close() error                { return nil }

var _ vectorstore.FTSIndex = (*fakeFTS)(nil)

// fakeVectors is a minimal in-memory VectorStore: vectors are compared by
// exact-match id lookup keyed on the embedder's deterministic stub output.
type fakeVectors struct {
	vecs map[string][]float32
}

func newFakeVectors() *fakeVectors { return &fakeVectors{vecs: make(map[string][]float32)} }

func (v *fakeVectors) Add(_ context.Context, ids []string, vectors [][]float32) error {
	for i, id := range ids {
		v.vecs[id] = vectors[i]
	}
	return nil
}
func (v *fakeVectors) Search(_ context.Context, query []float32, k int) ([]*vectorstore.VectorResult, error) {
	var out []*vectorstore.VectorResult
	for id, vec := range v.vecs {
		if len(vec) > 0 && len(query) > 0 && vec[0] == query[0] {
			out = append(out, &vectorstore.VectorResult{ID: id, Score: 1.0})
		}
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}
func (v *fakeVectors) Delete(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(v.vecs, id)
	}
	return nil
}
func (v *fakeVectors) AllIDs() []string {
	out := make([]string, 0, len(v.vecs))
	for id := range v.vecs {
		out = append(out, id)
	}
	return out
}
func (v *fakeVectors) Contains(id string) bool { _, ok := v.vecs[id]; return ok }
func (v *fakeVectors) Count() int              { return len(v.vecs) }
func (v *fakeVectors) Save(string) error       { return nil }
func (v *fakeVectors) Load(string) error       { return nil }
func (v *fakeVectors) Close() error            { return nil }

var _ vectorstore.VectorStore = (*fakeVectors)(nil)

// fakeEmbedder deterministically maps text to a 1-dimensional vector keyed
// by its first byte, just enough to make fakeVectors' lookup meaningful.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return []float32{0}, nil
	}
	return []float32{float32(text[0])}, nil
}

func newTestEngine(t *testing.T) (*Engine, *storage.Storage, *fakeFTS, *fakeVectors) {
	t.Helper()
	store, err := storage.Open("", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fts := newFakeFTS()
	vecs := newFakeVectors()
	e := New(store, vecs, fts, fakeEmbedder{}, rerank.NoOpReranker{})
	return e, store, fts, vecs
}

func mustSymbol(t *testing.T, store *storage.Storage, sym extractor.Symbol) {
	t.Helper()
	mustFileGraph(t, store, sym.FilePath, sym.Language, []extractor.Symbol{sym}, nil, nil)
}

func mustFileGraph(t *testing.T, store *storage.Storage, path, language string, symbols []extractor.Symbol, ids []extractor.Identifier, rels []extractor.Relationship) {
	t.Helper()
	require.NoError(t, store.UpsertFile(storage.File{Path: path, Language: language, ContentHash: "h", SizeBytes: 1, ModifiedUnix: 1, IndexedUnix: 1}))
	require.NoError(t, store.ReplaceFileGraph(path, symbols, ids, rels))
}
