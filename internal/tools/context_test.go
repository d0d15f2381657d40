package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_EmptyAndPrimaryBothReturnPrimary(t *testing.T) {
	c, wsID := newTestContext(t)

	ws, err := c.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, wsID, ws.Entry.WorkspaceID)

	ws, err = c.Resolve("primary")
	require.NoError(t, err)
	assert.Equal(t, wsID, ws.Entry.WorkspaceID)
}

func TestResolve_ByWorkspaceIDAndByName(t *testing.T) {
	c, wsID := newTestContext(t)

	ws, err := c.Resolve(wsID)
	require.NoError(t, err)
	assert.Equal(t, wsID, ws.Entry.WorkspaceID)

	ws, err = c.Resolve("demo")
	require.NoError(t, err)
	assert.Equal(t, wsID, ws.Entry.WorkspaceID)
}

func TestResolve_RegisteredButNotLoadedIsNotReady(t *testing.T) {
	c, _ := newTestContext(t)
	entry, err := c.Registry.Add("other", t.TempDir(), "")
	require.NoError(t, err)

	_, err = c.Resolve(entry.WorkspaceID)
	assert.Error(t, err)
}

func TestResolve_UnknownWorkspaceErrors(t *testing.T) {
	c, _ := newTestContext(t)
	_, err := c.Resolve("does-not-exist")
	assert.Error(t, err)
}
