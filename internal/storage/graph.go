package storage

import (
	"github.com/standardbeagle/miller/internal/errs"
	"github.com/standardbeagle/miller/internal/extractor"
)

// ResolveRelationships fills in to_symbol_id for relationship rows whose
// target could only be named (not resolved) at extraction time, matching by
// exact name across the whole workspace. Cross-file calls are only
// resolvable once every file's symbols have been indexed, so this runs as a
// workspace-wide pass after a batch of files finishes extracting rather than
// per-file.
func (s *Storage) ResolveRelationships() (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rows, err := s.db.Query(`
		SELECT rowid, to_name FROM relationships WHERE to_symbol_id IS NULL
	`)
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeInternal, err)
	}
	type pending struct {
		rowid int64
		name  string
	}
	var todo []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.rowid, &p.name); err != nil {
			rows.Close()
			return 0, errs.Wrap(errs.ErrCodeInternal, err)
		}
		todo = append(todo, p)
	}
	rows.Close()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer tx.Rollback()

	lookup, err := tx.Prepare(`SELECT id FROM symbols WHERE name = ? LIMIT 1`)
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer lookup.Close()

	update, err := tx.Prepare(`UPDATE relationships SET to_symbol_id = ? WHERE rowid = ?`)
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer update.Close()

	resolved := 0
	for _, p := range todo {
		var id string
		err := lookup.QueryRow(p.name).Scan(&id)
		if err != nil {
			continue // unresolved: external symbol, builtin, or not yet indexed
		}
		if _, err := update.Exec(id, p.rowid); err != nil {
			return resolved, errs.Wrap(errs.ErrCodeInternal, err)
		}
		resolved++
	}

	return resolved, tx.Commit()
}

// OutgoingRelationships returns every relationship originating from symbolID.
func (s *Storage) OutgoingRelationships(symbolID string, kind string) ([]Relationship, error) {
	query := `SELECT from_symbol_id, COALESCE(to_symbol_id, ''), to_name, kind, file_path, line, col
		FROM relationships WHERE from_symbol_id = ?`
	args := []interface{}{symbolID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	return s.queryRelationships(query, args...)
}

// IncomingRelationships returns every relationship whose resolved target is symbolID.
func (s *Storage) IncomingRelationships(symbolID string, kind string) ([]Relationship, error) {
	query := `SELECT from_symbol_id, COALESCE(to_symbol_id, ''), to_name, kind, file_path, line, col
		FROM relationships WHERE to_symbol_id = ?`
	args := []interface{}{symbolID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	return s.queryRelationships(query, args...)
}

func (s *Storage) queryRelationships(query string, args ...interface{}) ([]Relationship, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer rows.Close()

	var out []Relationship
	for rows.Next() {
		var r Relationship
		var kind string
		if err := rows.Scan(&r.FromSymbolID, &r.ToSymbolID, &r.ToName, &kind, &r.FilePath, &r.Position.Line, &r.Position.Column); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err)
		}
		r.Kind = extractor.RelationshipKind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecomputeReachability rebuilds the full transitive closure for the given
// relationship kinds, bounded to maxDepth hops, via a breadth-first expansion
// from every symbol that has at least one outgoing edge of those kinds. This
// is the precomputation step that makes trace/explore queries O(1) lookups
// instead of live graph walks.
func (s *Storage) RecomputeReachability(kinds []string, maxDepth int) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	adjacency, err := s.loadAdjacency(kinds)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM reachability`); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}

	insert, err := tx.Prepare(`INSERT OR IGNORE INTO reachability (from_symbol_id, to_symbol_id, depth, kind) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	defer insert.Close()

	for _, kind := range kinds {
		edges := adjacency[kind]
		for from := range edges {
			visited := map[string]int{from: 0}
			queue := []string{from}
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				depth := visited[cur]
				if depth >= maxDepth {
					continue
				}
				for _, next := range edges[cur] {
					if _, seen := visited[next]; seen {
						continue
					}
					visited[next] = depth + 1
					queue = append(queue, next)
					if _, err := insert.Exec(from, next, depth+1, kind); err != nil {
						return errs.Wrap(errs.ErrCodeInternal, err)
					}
				}
			}
		}
	}

	return tx.Commit()
}

func (s *Storage) loadAdjacency(kinds []string) (map[string]map[string][]string, error) {
	adjacency := make(map[string]map[string][]string, len(kinds))
	for _, kind := range kinds {
		rows, err := s.db.Query(`SELECT from_symbol_id, to_symbol_id FROM relationships WHERE kind = ? AND to_symbol_id IS NOT NULL`, kind)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err)
		}
		edges := make(map[string][]string)
		for rows.Next() {
			var from, to string
			if err := rows.Scan(&from, &to); err != nil {
				rows.Close()
				return nil, errs.Wrap(errs.ErrCodeInternal, err)
			}
			edges[from] = append(edges[from], to)
		}
		rows.Close()
		adjacency[kind] = edges
	}
	return adjacency, nil
}

// Reaches reports whether from can reach to within maxDepth hops for any of
// kinds, per the precomputed reachability table.
func (s *Storage) Reaches(from, to string, kinds []string) (bool, int, error) {
	if len(kinds) == 0 {
		kinds = []string{"call"}
	}
	placeholders := make([]interface{}, 0, len(kinds)+2)
	placeholders = append(placeholders, from, to)
	query := `SELECT MIN(depth) FROM reachability WHERE from_symbol_id = ? AND to_symbol_id = ? AND kind IN (`
	for i, k := range kinds {
		if i > 0 {
			query += ","
		}
		query += "?"
		placeholders = append(placeholders, k)
	}
	query += ")"

	var depth *int
	if err := s.db.QueryRow(query, placeholders...).Scan(&depth); err != nil {
		return false, 0, errs.Wrap(errs.ErrCodeInternal, err)
	}
	if depth == nil {
		return false, 0, nil
	}
	return true, *depth, nil
}

