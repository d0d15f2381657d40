package storage

import (
	"github.com/standardbeagle/miller/internal/errs"
	"github.com/standardbeagle/miller/internal/extractor"
)

// IdentifiersByName returns every identifier occurrence with an exact name
// match, ordered by file then position. Identifiers are not resolved to a
// target symbol at extraction time, so this is the lookup References (§4.7.3)
// uses both for an unresolved-name query and, after GetSymbol resolves a
// target_symbol_id to its name, for a symbol-anchored one.
func (s *Storage) IdentifiersByName(name string) ([]extractor.Identifier, error) {
	rows, err := s.db.Query(`
		SELECT file_path, name, kind, COALESCE(containing_symbol_id, ''), line, col
		FROM identifiers WHERE name = ? ORDER BY file_path, line, col`, name)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer rows.Close()

	var out []extractor.Identifier
	for rows.Next() {
		var id extractor.Identifier
		var kind string
		if err := rows.Scan(&id.FilePath, &id.Name, &kind, &id.ContainingID, &id.Position.Line, &id.Position.Column); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err)
		}
		id.Kind = extractor.IdentifierKind(kind)
		out = append(out, id)
	}
	return out, rows.Err()
}

// IdentifiersByContainingSymbol returns every identifier occurrence recorded
// within a symbol's body, optionally filtered by kind. Trace's downstream
// expansion falls back to this when a call site's callee never resolved to a
// symbol ID at extraction time — common across a language boundary where the
// extractor couldn't bind the call target.
func (s *Storage) IdentifiersByContainingSymbol(symbolID string, kind string) ([]extractor.Identifier, error) {
	query := `SELECT file_path, name, kind, COALESCE(containing_symbol_id, ''), line, col
		FROM identifiers WHERE containing_symbol_id = ?`
	args := []interface{}{symbolID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer rows.Close()

	var out []extractor.Identifier
	for rows.Next() {
		var id extractor.Identifier
		var k string
		if err := rows.Scan(&id.FilePath, &id.Name, &k, &id.ContainingID, &id.Position.Line, &id.Position.Column); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err)
		}
		id.Kind = extractor.IdentifierKind(k)
		out = append(out, id)
	}
	return out, rows.Err()
}
