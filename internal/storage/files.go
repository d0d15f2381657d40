package storage

import (
	"database/sql"
	"time"

	"github.com/standardbeagle/miller/internal/errs"
)

// UpsertFile records (or updates) one file's scan metadata.
func (s *Storage) UpsertFile(f File) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO files (path, language, content_hash, size_bytes, modified_unix, indexed_unix)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			language=excluded.language,
			content_hash=excluded.content_hash,
			size_bytes=excluded.size_bytes,
			modified_unix=excluded.modified_unix,
			indexed_unix=excluded.indexed_unix
	`, f.Path, f.Language, f.ContentHash, f.SizeBytes, f.ModifiedUnix, f.IndexedUnix)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	return nil
}

// GetFile returns the stored metadata for path, or (nil, nil) if not indexed.
func (s *Storage) GetFile(path string) (*File, error) {
	row := s.db.QueryRow(`SELECT path, language, content_hash, size_bytes, modified_unix, indexed_unix FROM files WHERE path = ?`, path)
	var f File
	if err := row.Scan(&f.Path, &f.Language, &f.ContentHash, &f.SizeBytes, &f.ModifiedUnix, &f.IndexedUnix); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errs.Wrap(errs.ErrCodeInternal, err)
	}
	return &f, nil
}

// ListFilePaths returns every indexed file path under the workspace.
func (s *Storage) ListFilePaths() ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM files ORDER BY path`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DeleteFile removes a file and cascades to its symbols/identifiers (the
// schema declares ON DELETE CASCADE); relationships/reachability rows that
// named one of the deleted symbols are cleaned up separately since SQLite FKs
// don't reach into those free-form to_symbol_id columns.
func (s *Storage) DeleteFile(path string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT id FROM symbols WHERE file_path = ?`, path)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return errs.Wrap(errs.ErrCodeInternal, err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	if _, err := tx.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	if _, err := tx.Exec(`DELETE FROM relationships WHERE file_path = ?`, path); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	for _, id := range ids {
		if _, err := tx.Exec(`DELETE FROM reachability WHERE from_symbol_id = ? OR to_symbol_id = ?`, id, id); err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err)
		}
		if _, err := tx.Exec(`DELETE FROM relationships WHERE to_symbol_id = ?`, id); err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err)
		}
	}
	return tx.Commit()
}

// DiffAgainstScan compares freshly computed (path -> content hash) pairs
// against the stored index and classifies each as added/modified/unchanged;
// any stored path absent from current is reported as deleted.
func (s *Storage) DiffAgainstScan(current map[string]string) ([]FileChange, error) {
	stored, err := s.allHashes()
	if err != nil {
		return nil, err
	}

	var changes []FileChange
	for path, hash := range current {
		old, ok := stored[path]
		switch {
		case !ok:
			changes = append(changes, FileChange{Path: path, Kind: ChangeAdded})
		case old != hash:
			changes = append(changes, FileChange{Path: path, Kind: ChangeModified})
		default:
			changes = append(changes, FileChange{Path: path, Kind: ChangeUnchanged})
		}
	}
	for path := range stored {
		if _, ok := current[path]; !ok {
			changes = append(changes, FileChange{Path: path, Kind: ChangeDeleted})
		}
	}
	return changes, nil
}

func (s *Storage) allHashes() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT path, content_hash FROM files`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err)
		}
		out[path] = hash
	}
	return out, rows.Err()
}

// Now returns the current unix timestamp; indirected so callers needing a
// stamped IndexedUnix don't each reimplement this.
func Now() int64 {
	return time.Now().Unix()
}
