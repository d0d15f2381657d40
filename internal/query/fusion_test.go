package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/miller/internal/vectorstore"
)

func TestRrfFuse_Basic(t *testing.T) {
	fts := []*vectorstore.FTSResult{{SymbolID: "a", Score: 2.0}, {SymbolID: "b", Score: 1.0}}
	vec := []*vectorstore.VectorResult{{ID: "b", Score: 0.9}, {ID: "a", Score: 0.8}}

	out := rrfFuse(fts, vec, DefaultWeights(), DefaultRRFConstant)
	require.Len(t, out, 2)
	for _, r := range out {
		assert.True(t, r.InBothLists)
	}
}

func TestRrfFuse_DocumentInOneListOnly(t *testing.T) {
	fts := []*vectorstore.FTSResult{{SymbolID: "only-fts", Score: 1.0}}
	vec := []*vectorstore.VectorResult{{ID: "only-vec", Score: 0.5}}

	out := rrfFuse(fts, vec, DefaultWeights(), DefaultRRFConstant)
	require.Len(t, out, 2)
	for _, r := range out {
		assert.False(t, r.InBothLists)
	}
}

func TestRrfFuse_TieBreak_PreferInBothLists(t *testing.T) {
	fts := []*vectorstore.FTSResult{{SymbolID: "both", Score: 1.0}, {SymbolID: "fts-only", Score: 1.0}}
	vec := []*vectorstore.VectorResult{{ID: "both", Score: 1.0}}

	out := rrfFuse(fts, vec, Weights{BM25: 0.5, Semantic: 0.5}, DefaultRRFConstant)
	require.Len(t, out, 2)
	assert.Equal(t, "both", out[0].SymbolID)
}

func TestRrfFuse_EmptyInputs(t *testing.T) {
	out := rrfFuse(nil, nil, DefaultWeights(), DefaultRRFConstant)
	assert.Nil(t, out)
}

func TestRrfFuse_ScoreNormalizedToUnitRange(t *testing.T) {
	fts := []*vectorstore.FTSResult{{SymbolID: "a"}, {SymbolID: "b"}, {SymbolID: "c"}}
	out := rrfFuse(fts, nil, DefaultWeights(), DefaultRRFConstant)
	require.NotEmpty(t, out)
	assert.Equal(t, 1.0, out[0].RRFScore)
	for _, r := range out {
		assert.LessOrEqual(t, r.RRFScore, 1.0)
		assert.GreaterOrEqual(t, r.RRFScore, 0.0)
	}
}

func TestRrfFuse_DeterministicOrderOnTies(t *testing.T) {
	fts := []*vectorstore.FTSResult{{SymbolID: "z"}, {SymbolID: "a"}}
	out1 := rrfFuse(fts, nil, DefaultWeights(), DefaultRRFConstant)
	out2 := rrfFuse(fts, nil, DefaultWeights(), DefaultRRFConstant)
	require.Equal(t, len(out1), len(out2))
	for i := range out1 {
		assert.Equal(t, out1[i].SymbolID, out2[i].SymbolID)
	}
}

func TestRrfFuse_CustomK(t *testing.T) {
	fts := []*vectorstore.FTSResult{{SymbolID: "a"}}
	lowK := rrfFuse(fts, nil, DefaultWeights(), 1)
	highK := rrfFuse(fts, nil, DefaultWeights(), 1000)
	require.Len(t, lowK, 1)
	require.Len(t, highK, 1)
	// both normalize to 1.0 with a single document regardless of k.
	assert.Equal(t, 1.0, lowK[0].RRFScore)
	assert.Equal(t, 1.0, highK[0].RRFScore)
}
