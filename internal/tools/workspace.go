package tools

import (
	"context"
	"os"

	"github.com/standardbeagle/miller/internal/errs"
	"github.com/standardbeagle/miller/internal/extractor"
	"github.com/standardbeagle/miller/internal/registry"
	"github.com/standardbeagle/miller/internal/scanner"
	"github.com/standardbeagle/miller/internal/storage"
)

// ManageWorkspaceOp selects manage_workspace's operation.
type ManageWorkspaceOp string

const (
	WorkspaceOpIndex   ManageWorkspaceOp = "index"
	WorkspaceOpList    ManageWorkspaceOp = "list"
	WorkspaceOpAdd     ManageWorkspaceOp = "add"
	WorkspaceOpRemove  ManageWorkspaceOp = "remove"
	WorkspaceOpStats   ManageWorkspaceOp = "stats"
	WorkspaceOpClean   ManageWorkspaceOp = "clean"
	WorkspaceOpRefresh ManageWorkspaceOp = "refresh"
	WorkspaceOpHealth  ManageWorkspaceOp = "health"
)

// ManageWorkspaceParams is manage_workspace's parameter set.
type ManageWorkspaceParams struct {
	Operation   ManageWorkspaceOp
	Path        string
	Name        string
	WorkspaceID string
	Force       bool
	Detailed    bool
}

// ManageWorkspaceResult is manage_workspace's return value. Only the fields
// relevant to the requested operation are populated.
type ManageWorkspaceResult struct {
	Entries  []registry.WorkspaceEntry
	Entry    registry.WorkspaceEntry
	Stats    *storage.Stats
	Run      *scanner.RunStats
	Healthy  bool
	Problems []string
}

func manageWorkspace(ctx context.Context, c *Context, p ManageWorkspaceParams) (*ManageWorkspaceResult, error) {
	switch p.Operation {
	case WorkspaceOpList, "":
		entries, err := c.Registry.List()
		if err != nil {
			return nil, err
		}
		return &ManageWorkspaceResult{Entries: entries}, nil

	case WorkspaceOpAdd:
		if p.Path == "" {
			return nil, errs.New(errs.ErrCodeInvalidInput, "path is required for add", nil)
		}
		kind := registry.KindReference
		entry, err := c.Registry.Add(p.Name, p.Path, kind)
		if err != nil {
			return nil, err
		}
		return &ManageWorkspaceResult{Entry: entry}, nil

	case WorkspaceOpRemove:
		if p.WorkspaceID == "" {
			return nil, errs.New(errs.ErrCodeInvalidInput, "workspace_id is required for remove", nil)
		}
		if err := c.Registry.Remove(p.WorkspaceID); err != nil {
			return nil, err
		}
		if p.Force {
			os.RemoveAll(c.Registry.Paths(p.WorkspaceID).Dir)
			delete(c.Workspaces, p.WorkspaceID)
		}
		return &ManageWorkspaceResult{}, nil

	case WorkspaceOpStats:
		entry, err := c.Registry.Get(p.WorkspaceID)
		if err != nil {
			return nil, err
		}
		result := &ManageWorkspaceResult{Entry: entry}
		if p.Detailed {
			ws, ok := c.Workspaces[p.WorkspaceID]
			if !ok {
				return nil, notReadyError(p.WorkspaceID)
			}
			st, err := ws.Storage.Stats()
			if err != nil {
				return nil, err
			}
			result.Stats = &st
		}
		return result, nil

	case WorkspaceOpHealth:
		ws, ok := c.Workspaces[p.WorkspaceID]
		if !ok {
			return nil, notReadyError(p.WorkspaceID)
		}
		problems := ws.Storage.Verify()
		return &ManageWorkspaceResult{Healthy: len(problems) == 0, Problems: problems}, nil

	case WorkspaceOpClean:
		if !p.Force {
			return nil, errs.New(errs.ErrCodeInvalidInput, "clean requires force=true", nil)
		}
		if ws, ok := c.Workspaces[p.WorkspaceID]; ok {
			ws.Storage.Close()
			delete(c.Workspaces, p.WorkspaceID)
		}
		paths := c.Registry.Paths(p.WorkspaceID)
		if err := os.RemoveAll(paths.Dir); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err)
		}
		return &ManageWorkspaceResult{}, nil

	case WorkspaceOpIndex, WorkspaceOpRefresh:
		entry, err := c.Registry.Get(p.WorkspaceID)
		if err != nil {
			return nil, err
		}
		ws, ok := c.Workspaces[p.WorkspaceID]
		if !ok {
			return nil, notReadyError(p.WorkspaceID)
		}
		locked, err := c.IndexingLock.TryLock(p.WorkspaceID)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, errs.New(errs.ErrCodeWorkspaceBusy, "workspace "+p.WorkspaceID+" is already indexing", nil)
		}
		defer c.IndexingLock.Unlock()

		sc, err := scanner.New()
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeIndexFailed, err)
		}
		idx := scanner.NewIndexer(sc, extractor.New(), ws.Storage, ws.Vectors, ws.FTS, c.Embedding)
		stats, err := idx.Run(ctx, &scanner.ScanOptions{RootDir: entry.AbsolutePath, RespectGitignore: true})
		if err != nil {
			return nil, err
		}
		reachKinds := []string{
			string(extractor.RelationCall), string(extractor.RelationExtends), string(extractor.RelationImplements),
		}
		if err := ws.Storage.RecomputeReachability(reachKinds, 10); err != nil {
			return nil, err
		}
		storeStats, err := ws.Storage.Stats()
		if err != nil {
			return nil, err
		}
		if err := c.Registry.UpdateStats(p.WorkspaceID, storeStats.SymbolCount, storeStats.FileCount); err != nil {
			return nil, err
		}
		return &ManageWorkspaceResult{Run: stats, Stats: &storeStats}, nil

	default:
		return nil, errs.New(errs.ErrCodeInvalidInput, "unknown manage_workspace operation \""+string(p.Operation)+"\"", nil)
	}
}
