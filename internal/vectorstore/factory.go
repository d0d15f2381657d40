package vectorstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// FTSBackend selects which lexical index implementation a workspace uses.
type FTSBackend string

const (
	// FTSBackendSQLite uses SQLite FTS5 (default): concurrent multi-process
	// access via WAL mode, pure Go.
	FTSBackendSQLite FTSBackend = "sqlite"
	// FTSBackendBleve uses Bleve v2 over BoltDB: single-process only, but
	// offers Bleve's richer query syntax for callers that want it.
	FTSBackendBleve FTSBackend = "bleve"
)

// NewFTSIndex creates an FTSIndex using the requested backend. basePath has
// no extension — one is appended based on backend (.db for SQLite, .bleve
// for Bleve). An empty basePath opens an in-memory index, used by tests.
func NewFTSIndex(basePath string, stopWords []string, backend string) (FTSIndex, error) {
	switch backend {
	case string(FTSBackendSQLite), "":
		var path string
		if basePath != "" {
			path = basePath + ".db"
		}
		return NewSQLiteFTSIndex(path, stopWords)

	case string(FTSBackendBleve):
		var path string
		if basePath != "" {
			path = basePath + ".bleve"
		}
		return NewBleveFTSIndex(path, stopWords)

	default:
		return nil, fmt.Errorf("unknown FTS backend: %s (valid options: sqlite, bleve)", backend)
	}
}

// DetectFTSBackend reports which backend an existing on-disk index uses,
// for opening a workspace without re-reading its config.
func DetectFTSBackend(basePath string) FTSBackend {
	if fileExists(basePath + ".db") {
		return FTSBackendSQLite
	}
	if dirExists(basePath + ".bleve") {
		return FTSBackendBleve
	}
	return ""
}

// FTSIndexPath returns the full index path for backend under dataDir.
func FTSIndexPath(dataDir string, backend string) string {
	basePath := filepath.Join(dataDir, "fts")
	if backend == string(FTSBackendBleve) {
		return basePath + ".bleve"
	}
	return basePath + ".db"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
