package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMethod_ExplicitPassesThrough(t *testing.T) {
	assert.Equal(t, MethodText, ResolveMethod(MethodText, "anything"))
}

func TestResolveMethod_AutoDetectsPattern(t *testing.T) {
	assert.Equal(t, MethodPattern, ResolveMethod(MethodAuto, "foo(bar: int) -> User"))
	assert.Equal(t, MethodPattern, ResolveMethod(MethodAuto, "a.b.c"))
}

func TestResolveMethod_AutoDefaultsToHybrid(t *testing.T) {
	assert.Equal(t, MethodHybrid, ResolveMethod(MethodAuto, "how does authentication work"))
	assert.Equal(t, MethodHybrid, ResolveMethod("", "connection pool"))
}

func TestPatternClassifier_ErrorCodeIsLexical(t *testing.T) {
	c := NewPatternClassifier()
	qt, w, err := c.Classify(context.Background(), "ERR_404_NOT_FOUND")
	require.NoError(t, err)
	assert.Equal(t, QueryTypeLexical, qt)
	assert.Equal(t, 0.85, w.BM25)
}

func TestPatternClassifier_CamelCaseIsLexical(t *testing.T) {
	c := NewPatternClassifier()
	qt, _, err := c.Classify(context.Background(), "findUserById")
	require.NoError(t, err)
	assert.Equal(t, QueryTypeLexical, qt)
}

func TestPatternClassifier_NaturalLanguageIsSemantic(t *testing.T) {
	c := NewPatternClassifier()
	qt, w, err := c.Classify(context.Background(), "how does the retry logic work")
	require.NoError(t, err)
	assert.Equal(t, QueryTypeSemantic, qt)
	assert.Equal(t, 0.80, w.Semantic)
}

func TestPatternClassifier_ShortPhraseIsMixed(t *testing.T) {
	c := NewPatternClassifier()
	qt, _, err := c.Classify(context.Background(), "retry queue")
	require.NoError(t, err)
	assert.Equal(t, QueryTypeMixed, qt)
}

func TestPatternClassifier_EmptyQueryIsMixed(t *testing.T) {
	c := NewPatternClassifier()
	qt, _, err := c.Classify(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, QueryTypeMixed, qt)
}
