package storage

import (
	"database/sql"

	"github.com/standardbeagle/miller/internal/errs"
	"github.com/standardbeagle/miller/internal/extractor"
)

// ReplaceFileGraph atomically replaces everything extracted from one file:
// its symbols, identifiers, and outgoing relationships. Used both for the
// initial index build and for incremental re-extraction after a watcher
// MODIFY event, so a file is never left half-updated if the process dies
// mid-write (the whole operation runs in a single transaction).
func (s *Storage) ReplaceFileGraph(path string, symbols []extractor.Symbol, identifiers []extractor.Identifier, relationships []extractor.Relationship) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM symbols WHERE file_path = ?`, path); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	if _, err := tx.Exec(`DELETE FROM identifiers WHERE file_path = ?`, path); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	if _, err := tx.Exec(`DELETE FROM relationships WHERE file_path = ?`, path); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}

	symStmt, err := tx.Prepare(`
		INSERT INTO symbols (id, file_path, name, kind, language, signature, doc_comment,
			start_line, start_col, end_line, end_col, start_byte, end_byte, parent_id, exported_api)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer symStmt.Close()

	for _, sym := range symbols {
		exported := 0
		if sym.ExportedAPI {
			exported = 1
		}
		if _, err := symStmt.Exec(sym.ID, sym.FilePath, sym.Name, string(sym.Kind), sym.Language,
			sym.Signature, sym.DocComment, sym.Start.Line, sym.Start.Column, sym.End.Line, sym.End.Column,
			sym.StartByte, sym.EndByte, nullIfEmpty(sym.ParentID), exported); err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err)
		}
	}

	idStmt, err := tx.Prepare(`
		INSERT INTO identifiers (file_path, name, kind, containing_symbol_id, line, col)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer idStmt.Close()

	for _, id := range identifiers {
		if _, err := idStmt.Exec(id.FilePath, id.Name, string(id.Kind), nullIfEmpty(id.ContainingID),
			id.Position.Line, id.Position.Column); err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err)
		}
	}

	relStmt, err := tx.Prepare(`
		INSERT INTO relationships (from_symbol_id, to_symbol_id, to_name, kind, file_path, line, col)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer relStmt.Close()

	for _, rel := range relationships {
		if _, err := relStmt.Exec(nullIfEmpty(rel.FromSymbolID), nullIfEmpty(rel.ToSymbolID), rel.ToName,
			string(rel.Kind), rel.FilePath, rel.Position.Line, rel.Position.Column); err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err)
		}
	}

	return tx.Commit()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// GetSymbol returns a symbol by its deterministic ID.
func (s *Storage) GetSymbol(id string) (*extractor.Symbol, error) {
	row := s.db.QueryRow(`
		SELECT id, file_path, name, kind, language, signature, doc_comment,
			start_line, start_col, end_line, end_col, start_byte, end_byte,
			COALESCE(parent_id, ''), exported_api
		FROM symbols WHERE id = ?`, id)
	return scanSymbol(row)
}

// FindSymbolsByName returns every symbol with an exact name match, optionally
// filtered by kind ("" means any kind).
func (s *Storage) FindSymbolsByName(name string, kind string) ([]extractor.Symbol, error) {
	query := `SELECT id, file_path, name, kind, language, signature, doc_comment,
		start_line, start_col, end_line, end_col, start_byte, end_byte, COALESCE(parent_id, ''), exported_api
		FROM symbols WHERE name = ?`
	args := []interface{}{name}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// SymbolsByKind returns up to limit symbols of the given kind, across the
// whole workspace. A limit <= 0 means unbounded.
func (s *Storage) SymbolsByKind(kind string, limit int) ([]extractor.Symbol, error) {
	query := `SELECT id, file_path, name, kind, language, signature, doc_comment,
		start_line, start_col, end_line, end_col, start_byte, end_byte, COALESCE(parent_id, ''), exported_api
		FROM symbols WHERE kind = ?`
	args := []interface{}{kind}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// SymbolsInFile returns every symbol declared in path, ordered by position.
func (s *Storage) SymbolsInFile(path string) ([]extractor.Symbol, error) {
	rows, err := s.db.Query(`
		SELECT id, file_path, name, kind, language, signature, doc_comment,
			start_line, start_col, end_line, end_col, start_byte, end_byte, COALESCE(parent_id, ''), exported_api
		FROM symbols WHERE file_path = ? ORDER BY start_line, start_col`, path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

func scanSymbols(rows *sql.Rows) ([]extractor.Symbol, error) {
	var out []extractor.Symbol
	for rows.Next() {
		sym, err := scanSymbolRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sym)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSymbol(row *sql.Row) (*extractor.Symbol, error) {
	sym, err := scanSymbolRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err)
	}
	return sym, nil
}

func scanSymbolRow(r rowScanner) (*extractor.Symbol, error) {
	var sym extractor.Symbol
	var kind string
	var exported int
	err := r.Scan(&sym.ID, &sym.FilePath, &sym.Name, &kind, &sym.Language, &sym.Signature, &sym.DocComment,
		&sym.Start.Line, &sym.Start.Column, &sym.End.Line, &sym.End.Column, &sym.StartByte, &sym.EndByte,
		&sym.ParentID, &exported)
	if err != nil {
		return nil, err
	}
	sym.Kind = extractor.SymbolKind(kind)
	sym.ExportedAPI = exported != 0
	return &sym, nil
}
