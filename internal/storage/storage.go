package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure-Go SQLite driver (no cgo)

	"github.com/standardbeagle/miller/internal/errs"
)

// Storage is the relational store for one workspace. It owns a single-writer
// SQLite connection pool (WAL mode) and serializes all mutating operations
// behind writeMu so concurrent callers never interleave transactions.
type Storage struct {
	mu      sync.RWMutex
	writeMu sync.Mutex
	db      *sql.DB
	path    string
	closed  bool
}

// validateIntegrity opens path read-only and runs PRAGMA integrity_check plus
// a schema sanity check, mirroring the corruption-detection pattern used for
// the vector store's FTS index: corruption here means "reindex", not "crash".
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	db, err := sql.Open(driverName, path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='files'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("cannot query schema: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("table 'files' missing")
	}
	return nil
}

// Open creates or opens the relational store at path. An empty path opens an
// in-memory database, used by tests. cacheSizeMB configures the SQLite page
// cache (negative KB per SQLite convention is handled internally).
func Open(path string, cacheSizeMB int) (*Storage, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errs.Wrap(errs.ErrCodeFilePermission, err)
		}

		if validErr := validateIntegrity(path); validErr != nil {
			slog.Warn("storage_corrupted", slog.String("path", path), slog.String("error", validErr.Error()))
			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, errs.New(errs.ErrCodeCorruptIndex,
					fmt.Sprintf("store corrupted at %s and cannot remove: %v (original error: %v)", path, removeErr, validErr), removeErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
			slog.Info("storage_cleared", slog.String("path", path), slog.String("reason", "corruption detected, reindex required"))
		}
		dsn = path
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err)
	}

	// SQLite tolerates exactly one writer; force the pool to that shape so
	// the writeMu above is the only serialization point we need to reason about.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if cacheSizeMB <= 0 {
		cacheSizeMB = 64
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA cache_size = -%d", cacheSizeMB*1024),
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, errs.Wrap(errs.ErrCodeInternal, fmt.Errorf("pragma %q: %w", p, err))
		}
	}

	s := &Storage{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

	CREATE TABLE IF NOT EXISTS files (
		path TEXT PRIMARY KEY,
		language TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		modified_unix INTEGER NOT NULL,
		indexed_unix INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS symbols (
		id TEXT PRIMARY KEY,
		file_path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		language TEXT NOT NULL,
		signature TEXT,
		doc_comment TEXT,
		start_line INTEGER NOT NULL,
		start_col INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		end_col INTEGER NOT NULL,
		start_byte INTEGER NOT NULL,
		end_byte INTEGER NOT NULL,
		parent_id TEXT,
		exported_api INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_path);
	CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
	CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
	CREATE INDEX IF NOT EXISTS idx_symbols_parent ON symbols(parent_id);

	CREATE TABLE IF NOT EXISTS identifiers (
		file_path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		containing_symbol_id TEXT,
		line INTEGER NOT NULL,
		col INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_identifiers_file ON identifiers(file_path);
	CREATE INDEX IF NOT EXISTS idx_identifiers_name ON identifiers(name);

	CREATE TABLE IF NOT EXISTS relationships (
		from_symbol_id TEXT NOT NULL,
		to_symbol_id TEXT,
		to_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		file_path TEXT NOT NULL,
		line INTEGER NOT NULL,
		col INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_relationships_from ON relationships(from_symbol_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_to ON relationships(to_symbol_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_to_name ON relationships(to_name);

	CREATE TABLE IF NOT EXISTS reachability (
		from_symbol_id TEXT NOT NULL,
		to_symbol_id TEXT NOT NULL,
		depth INTEGER NOT NULL,
		kind TEXT NOT NULL,
		PRIMARY KEY (from_symbol_id, to_symbol_id, kind)
	);
	CREATE INDEX IF NOT EXISTS idx_reachability_from ON reachability(from_symbol_id);

	CREATE TABLE IF NOT EXISTS kv_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, fmt.Errorf("init schema: %w", err))
	}
	_, err := s.db.Exec("INSERT OR IGNORE INTO schema_version (version) VALUES (?)", CurrentSchemaVersion)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	return nil
}

// Close checkpoints the WAL and closes the database. Idempotent.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// Path returns the on-disk database path ("" for in-memory stores).
func (s *Storage) Path() string {
	return s.path
}
