package rerank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpReranker_Rerank_PreservesOrder(t *testing.T) {
	documents := []string{"doc1", "doc2", "doc3"}

	results, err := NoOpReranker{}.Rerank(context.Background(), "query", documents, 0)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "doc1", results[0].Document)
	assert.InDelta(t, 1.0, results[0].Score, 0.001)
	assert.InDelta(t, 0.99, results[1].Score, 0.001)
}

func TestNoOpReranker_Rerank_RespectsTopK(t *testing.T) {
	documents := []string{"doc1", "doc2", "doc3", "doc4", "doc5"}

	results, err := NoOpReranker{}.Rerank(context.Background(), "query", documents, 3)

	require.NoError(t, err)
	assert.Len(t, results, 3)
}

type fakeBackend struct {
	rerankErr error
	called    int
}

func (f *fakeBackend) Rerank(_ context.Context, _ string, documents []string, _ int) ([]Result, error) {
	f.called++
	if f.rerankErr != nil {
		return nil, f.rerankErr
	}
	out := make([]Result, len(documents))
	for i, d := range documents {
		out[i] = Result{Index: i, Score: 1, Document: d}
	}
	return out, nil
}
func (f *fakeBackend) Available(context.Context) bool { return true }
func (f *fakeBackend) Close() error                   { return nil }

func TestLazy_LoadsBackendOnce(t *testing.T) {
	loads := 0
	backend := &fakeBackend{}
	lazy := NewLazy(func(context.Context) (Reranker, error) {
		loads++
		return backend, nil
	})

	_, err := lazy.Rerank(context.Background(), "q", []string{"a"}, 0)
	require.NoError(t, err)
	_, err = lazy.Rerank(context.Background(), "q", []string{"b"}, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, loads, "loader must run at most once")
	assert.Equal(t, 2, backend.called)
}

func TestLazy_FallsBackToNoOpOnLoadFailure(t *testing.T) {
	lazy := NewLazy(func(context.Context) (Reranker, error) {
		return nil, errors.New("model unavailable")
	})

	results, err := lazy.Rerank(context.Background(), "q", []string{"a", "b"}, 0)

	require.NoError(t, err, "a load failure must never surface as an error")
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Document)
}

func TestLazy_FallsBackToNoOpOnRerankFailure(t *testing.T) {
	backend := &fakeBackend{rerankErr: errors.New("request timed out")}
	lazy := NewLazy(func(context.Context) (Reranker, error) { return backend, nil })

	results, err := lazy.Rerank(context.Background(), "q", []string{"x", "y"}, 0)

	require.NoError(t, err, "a rerank failure must pass through the original order, not error")
	require.Len(t, results, 2)
	assert.Equal(t, "x", results[0].Document)
}
