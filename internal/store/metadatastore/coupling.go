package metadatastore

import (
	"database/sql"
	"time"

	"github.com/bobbin-dev/bobbin/internal/gitanalyzer"
)

// CoupledFile is one result of GetCoupling: a file found to co-change
// with the queried file, with its coupling score.
type CoupledFile struct {
	FilePath     string
	Score        float64
	CoChanges    int
	LastCoChange time.Time
}

// UpsertCoupling writes or replaces the coupling rows derived from a
// gitanalyzer.AnalyzeCoupling pass.
func (s *Store) UpsertCoupling(couplings []gitanalyzer.FileCoupling) error {
	if len(couplings) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO coupling (file_a, file_b, score, co_changes, last_co_change)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(file_a, file_b) DO UPDATE SET
			score = excluded.score, co_changes = excluded.co_changes, last_co_change = excluded.last_co_change
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range couplings {
		fa, fb := canonicalPair(c.FileA, c.FileB)
		var lastCoChange sql.NullString
		if !c.LastCoChange.IsZero() {
			lastCoChange = sql.NullString{String: c.LastCoChange.UTC().Format(time.RFC3339), Valid: true}
		}
		if _, err := stmt.Exec(fa, fb, c.Score, c.CoChanges, lastCoChange); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetCoupling returns up to limit files coupled to file, ordered by
// score descending.
func (s *Store) GetCoupling(file string, limit int) ([]CoupledFile, error) {
	rows, err := s.db.Query(`
		SELECT
			CASE WHEN file_a = ? THEN file_b ELSE file_a END AS other,
			score, co_changes, last_co_change
		FROM coupling
		WHERE file_a = ? OR file_b = ?
		ORDER BY score DESC
		LIMIT ?
	`, file, file, file, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CoupledFile
	for rows.Next() {
		var cf CoupledFile
		var lastCoChange sql.NullString
		if err := rows.Scan(&cf.FilePath, &cf.Score, &cf.CoChanges, &lastCoChange); err != nil {
			return nil, err
		}
		if lastCoChange.Valid {
			cf.LastCoChange, _ = time.Parse(time.RFC3339, lastCoChange.String)
		}
		out = append(out, cf)
	}
	return out, rows.Err()
}

// ClearCoupling deletes every coupling row, ahead of a fresh
// AnalyzeCoupling pass (e.g. during recalibration).
func (s *Store) ClearCoupling() error {
	_, err := s.db.Exec("DELETE FROM coupling")
	return err
}
