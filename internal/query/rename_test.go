package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordBoundaryPattern_DoesNotMatchSubstring(t *testing.T) {
	pat := wordBoundaryPattern("get")
	assert.False(t, pat.MatchString("get_user"))
	assert.False(t, pat.MatchString("getUser"))
	assert.True(t, pat.MatchString("get(x)"))
	assert.True(t, pat.MatchString("return get"))
}

func TestWordBoundaryPattern_FindsAllOccurrences(t *testing.T) {
	pat := wordBoundaryPattern("foo")
	locs := pat.FindAllStringIndex("foo(foo, bar(foo))", -1)
	assert.Len(t, locs, 3)
}
