// Package tools defines the typed contract for every operation spec.md §6
// exposes as a tool: one Params/Result pair per tool, a Context bundling the
// shared, process-wide state those handlers read, and a Dispatch entry
// point. Transport (JSON-RPC framing, progress streaming) and CLI glue stay
// out of this package by design — a real server hands Dispatch's result to
// whatever wire format it speaks.
package tools

import (
	"github.com/standardbeagle/miller/internal/concurrency"
	"github.com/standardbeagle/miller/internal/embedding"
	"github.com/standardbeagle/miller/internal/query"
	"github.com/standardbeagle/miller/internal/registry"
	"github.com/standardbeagle/miller/internal/storage"
	"github.com/standardbeagle/miller/internal/vectorstore"
	"github.com/standardbeagle/miller/internal/watcher"
)

// Workspace bundles one registered workspace's live handles: its storage
// and vector index, and a query engine wired to both plus the shared
// embedding manager.
type Workspace struct {
	Entry   registry.WorkspaceEntry
	Storage *storage.Storage
	Vectors vectorstore.VectorStore
	FTS     vectorstore.FTSIndex
	Engine  *query.Engine
	Watcher watcher.Watcher
}

// Context is the explicit container spec.md's DESIGN NOTES section asks
// for in place of implicit process-wide globals: built once at startup,
// torn down once at shutdown, never reconstructed mid-run.
type Context struct {
	Registry  *registry.Registry
	Embedding *embedding.Manager

	IndexingLock  *concurrency.IndexingLock
	EmbeddingLock *concurrency.EmbeddingLock
	InitBarrier   *concurrency.InitBarrier

	// Workspaces holds one live Workspace per registered workspace_id.
	// Populated by whatever owns the Context's lifecycle (cmd/ at startup,
	// manage_workspace's add/index operations at runtime).
	Workspaces map[string]*Workspace
}

// NewContext builds an empty Context ready to have workspaces added to it.
func NewContext(reg *registry.Registry, em *embedding.Manager, indexingLock *concurrency.IndexingLock, embeddingLock *concurrency.EmbeddingLock, barrier *concurrency.InitBarrier) *Context {
	return &Context{
		Registry:      reg,
		Embedding:     em,
		IndexingLock:  indexingLock,
		EmbeddingLock: embeddingLock,
		InitBarrier:   barrier,
		Workspaces:    make(map[string]*Workspace),
	}
}

// Resolve maps a tool's workspace parameter (a workspace_id, a registered
// name, or the literal "primary"/empty string) to its live Workspace.
func (c *Context) Resolve(workspaceRef string) (*Workspace, error) {
	if workspaceRef == "" || workspaceRef == "primary" {
		entry, err := c.Registry.Primary()
		if err != nil {
			return nil, err
		}
		return c.workspaceFor(entry)
	}

	if ws, ok := c.Workspaces[workspaceRef]; ok {
		return ws, nil
	}

	entries, err := c.Registry.List()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Name == workspaceRef {
			return c.workspaceFor(e)
		}
	}

	entry, err := c.Registry.Get(workspaceRef)
	if err != nil {
		return nil, err
	}
	return c.workspaceFor(entry)
}

func (c *Context) workspaceFor(entry registry.WorkspaceEntry) (*Workspace, error) {
	if ws, ok := c.Workspaces[entry.WorkspaceID]; ok {
		return ws, nil
	}
	return nil, notReadyError(entry.WorkspaceID)
}
