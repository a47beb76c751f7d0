package metadatastore

import "database/sql"

// ImportDependency is a directed edge: FileA imports FileB. FileB may be
// an unresolved token when the heuristic import resolver can't map an
// import statement to a file path; Resolved reflects that.
type ImportDependency struct {
	FileA     string
	FileB     string
	DepType   string
	Statement string
	Symbol    string
	Resolved  bool
}

// UpsertDependencies writes or replaces the given import edges.
func (s *Store) UpsertDependencies(deps []ImportDependency) error {
	if len(deps) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO dependencies (file_a, file_b, dep_type, statement, symbol, resolved)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_a, file_b, dep_type) DO UPDATE SET
			statement = excluded.statement, symbol = excluded.symbol, resolved = excluded.resolved
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range deps {
		resolved := 0
		if d.Resolved {
			resolved = 1
		}
		if _, err := stmt.Exec(d.FileA, d.FileB, d.DepType, d.Statement, nullIfEmpty(d.Symbol), resolved); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetDependencies returns the files that file imports (file is file_a).
func (s *Store) GetDependencies(file string) ([]ImportDependency, error) {
	return s.queryDeps("SELECT file_a, file_b, dep_type, statement, symbol, resolved FROM dependencies WHERE file_a = ?", file)
}

// GetDependents returns the files that import file (file is file_b) —
// the reverse-dependency edges used by impact analysis.
func (s *Store) GetDependents(file string) ([]ImportDependency, error) {
	return s.queryDeps("SELECT file_a, file_b, dep_type, statement, symbol, resolved FROM dependencies WHERE file_b = ?", file)
}

// AllDependencies returns every import edge in the store, for building an
// in-memory dependency graph (see internal/analyses.DependencyGraph).
func (s *Store) AllDependencies() ([]ImportDependency, error) {
	rows, err := s.db.Query("SELECT file_a, file_b, dep_type, statement, symbol, resolved FROM dependencies")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ImportDependency
	for rows.Next() {
		var d ImportDependency
		var symbol sql.NullString
		var resolved int
		if err := rows.Scan(&d.FileA, &d.FileB, &d.DepType, &d.Statement, &symbol, &resolved); err != nil {
			return nil, err
		}
		d.Symbol = symbol.String
		d.Resolved = resolved != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) queryDeps(query, file string) ([]ImportDependency, error) {
	rows, err := s.db.Query(query, file)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ImportDependency
	for rows.Next() {
		var d ImportDependency
		var symbol sql.NullString
		var resolved int
		if err := rows.Scan(&d.FileA, &d.FileB, &d.DepType, &d.Statement, &symbol, &resolved); err != nil {
			return nil, err
		}
		d.Symbol = symbol.String
		d.Resolved = resolved != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDependenciesForFile removes every edge where file is the
// importing side, ahead of re-parsing it during incremental indexing.
func (s *Store) DeleteDependenciesForFile(file string) error {
	_, err := s.db.Exec("DELETE FROM dependencies WHERE file_a = ?", file)
	return err
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
