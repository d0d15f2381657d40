package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManageWorkspace_ListReturnsRegisteredEntries(t *testing.T) {
	c, wsID := newTestContext(t)
	result, err := manageWorkspace(context.Background(), c, ManageWorkspaceParams{Operation: WorkspaceOpList})
	require.NoError(t, err)
	found := false
	for _, e := range result.Entries {
		if e.WorkspaceID == wsID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestManageWorkspace_AddRegistersNewWorkspace(t *testing.T) {
	c, _ := newTestContext(t)
	result, err := manageWorkspace(context.Background(), c, ManageWorkspaceParams{
		Operation: WorkspaceOpAdd, Path: t.TempDir(), Name: "extra",
	})
	require.NoError(t, err)
	assert.Equal(t, "extra", result.Entry.Name)
}

func TestManageWorkspace_AddWithoutPathErrors(t *testing.T) {
	c, _ := newTestContext(t)
	_, err := manageWorkspace(context.Background(), c, ManageWorkspaceParams{Operation: WorkspaceOpAdd})
	assert.Error(t, err)
}

func TestManageWorkspace_RemoveRequiresWorkspaceID(t *testing.T) {
	c, _ := newTestContext(t)
	_, err := manageWorkspace(context.Background(), c, ManageWorkspaceParams{Operation: WorkspaceOpRemove})
	assert.Error(t, err)
}

func TestManageWorkspace_RemoveDeletesEntry(t *testing.T) {
	c, wsID := newTestContext(t)
	_, err := manageWorkspace(context.Background(), c, ManageWorkspaceParams{Operation: WorkspaceOpRemove, WorkspaceID: wsID})
	require.NoError(t, err)

	_, err = c.Registry.Get(wsID)
	assert.Error(t, err)
}

func TestManageWorkspace_HealthReportsOnLoadedWorkspace(t *testing.T) {
	c, wsID := newTestContext(t)
	result, err := manageWorkspace(context.Background(), c, ManageWorkspaceParams{Operation: WorkspaceOpHealth, WorkspaceID: wsID})
	require.NoError(t, err)
	assert.True(t, result.Healthy)
}

func TestManageWorkspace_CleanRequiresForce(t *testing.T) {
	c, wsID := newTestContext(t)
	_, err := manageWorkspace(context.Background(), c, ManageWorkspaceParams{Operation: WorkspaceOpClean, WorkspaceID: wsID})
	assert.Error(t, err)
}

func TestManageWorkspace_UnknownOperationErrors(t *testing.T) {
	c, _ := newTestContext(t)
	_, err := manageWorkspace(context.Background(), c, ManageWorkspaceParams{Operation: "bogus"})
	assert.Error(t, err)
}
