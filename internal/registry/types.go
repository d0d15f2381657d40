// Package registry tracks the set of workspaces a running miller process
// knows about: where each one lives on disk, whether it is the implicit
// default or an added reference, and coarse stats from its last index run.
package registry

import "time"

// WorkspaceKind distinguishes the implicit default workspace from ones
// explicitly added for cross-workspace search.
type WorkspaceKind string

const (
	KindPrimary   WorkspaceKind = "primary"
	KindReference WorkspaceKind = "reference"
)

// WorkspaceEntry is one row of the on-disk registry.
type WorkspaceEntry struct {
	WorkspaceID   string        `json:"workspace_id"`
	Name          string        `json:"name"`
	AbsolutePath  string        `json:"absolute_path"`
	Kind          WorkspaceKind `json:"kind"`
	CreatedTS     time.Time     `json:"created_ts"`
	LastIndexedTS time.Time     `json:"last_indexed_ts,omitzero"`
	SymbolCount   int           `json:"symbol_count"`
	FileCount     int           `json:"file_count"`
}

// IndexPaths are the on-disk locations a workspace's Storage and vector
// index live at, rooted under the registry's base directory.
type IndexPaths struct {
	Dir         string
	SymbolsDB   string
	VectorsDir  string
}
