package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFTSIndex_DefaultsToSQLite(t *testing.T) {
	idx, err := NewFTSIndex("", nil, "")
	require.NoError(t, err)
	defer idx.Close()
	_, ok := idx.(*SQLiteFTSIndex)
	assert.True(t, ok)
}

func TestNewFTSIndex_UnknownBackend(t *testing.T) {
	_, err := NewFTSIndex("", nil, "carrier-pigeon")
	assert.Error(t, err)
}
