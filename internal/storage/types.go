// Package storage is the relational store for one workspace's code index:
// files, symbols, identifiers, relationships, and precomputed reachability,
// persisted to SQLite with WAL mode and a single-writer connection pool.
package storage

import "github.com/standardbeagle/miller/internal/extractor"

// CurrentSchemaVersion is bumped whenever the table layout changes in a way
// that requires a full reindex rather than an in-place migration.
const CurrentSchemaVersion = 1

// File is one indexed source file.
type File struct {
	Path         string
	Language     string
	ContentHash  string
	SizeBytes    int64
	ModifiedUnix int64
	IndexedUnix  int64
}

// Symbol is the persisted form of extractor.Symbol plus the workspace it
// belongs to and a stable row identity for joins.
type Symbol = extractor.Symbol

// Identifier is the persisted form of extractor.Identifier.
type Identifier = extractor.Identifier

// Relationship is the persisted form of extractor.Relationship, with
// ToSymbolID resolved against Storage's own symbol table where possible.
type Relationship = extractor.Relationship

// ReachabilityRow is one precomputed transitive-closure edge: FromSymbolID
// can reach ToSymbolID within Depth hops via relationships of Kind.
type ReachabilityRow struct {
	FromSymbolID string
	ToSymbolID   string
	Depth        int
	Kind         string
}

// ChangeKind classifies how a scanned file differs from the stored index.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeUnchanged ChangeKind = "unchanged"
)

// FileChange is one entry in a scan-vs-index diff.
type FileChange struct {
	Path string
	Kind ChangeKind
}
