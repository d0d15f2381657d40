package storage

import (
	"database/sql"

	"github.com/standardbeagle/miller/internal/errs"
)

// SetState persists a small piece of workspace-level state (e.g. the
// embedding dimension/model used to build the vector store, so a mismatch
// after a model change can be detected before it produces garbage scores).
func (s *Storage) SetState(key, value string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO kv_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	return nil
}

// GetState returns the stored value for key, or ("", false) if unset.
func (s *Storage) GetState(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Wrap(errs.ErrCodeInternal, err)
	}
	return value, true, nil
}

// Stats summarizes the workspace's current index size.
type Stats struct {
	FileCount         int
	SymbolCount       int
	RelationshipCount int
	ReachabilityRows  int
}

// Stats reports row counts across the core tables.
func (s *Storage) Stats() (Stats, error) {
	var st Stats
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&st.FileCount); err != nil {
		return st, errs.Wrap(errs.ErrCodeInternal, err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM symbols`).Scan(&st.SymbolCount); err != nil {
		return st, errs.Wrap(errs.ErrCodeInternal, err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM relationships`).Scan(&st.RelationshipCount); err != nil {
		return st, errs.Wrap(errs.ErrCodeInternal, err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM reachability`).Scan(&st.ReachabilityRows); err != nil {
		return st, errs.Wrap(errs.ErrCodeInternal, err)
	}
	return st, nil
}

// Verify checks the invariants a careful caller relies on: every symbol
// belongs to an indexed file, and every reachability row names symbols that
// still exist. It does not repair anything — callers should reindex or
// recompute reachability on failure.
func (s *Storage) Verify() []string {
	var problems []string

	var orphanSymbols int
	_ = s.db.QueryRow(`
		SELECT COUNT(*) FROM symbols s LEFT JOIN files f ON s.file_path = f.path WHERE f.path IS NULL
	`).Scan(&orphanSymbols)
	if orphanSymbols > 0 {
		problems = append(problems, "symbols reference files no longer indexed")
	}

	var danglingReach int
	_ = s.db.QueryRow(`
		SELECT COUNT(*) FROM reachability r
		LEFT JOIN symbols a ON r.from_symbol_id = a.id
		LEFT JOIN symbols b ON r.to_symbol_id = b.id
		WHERE a.id IS NULL OR b.id IS NULL
	`).Scan(&danglingReach)
	if danglingReach > 0 {
		problems = append(problems, "reachability rows reference symbols that no longer exist")
	}

	return problems
}
