package metadatastore

import (
	"database/sql"
	"errors"
	"time"
)

// CalibrationRecord is one persisted calibration run: the commit sample
// and scoring snapshot used, the weights chosen, and the F1 they scored.
type CalibrationRecord struct {
	ID           int64
	SnapshotJSON string
	WeightsJSON  string
	F1           float64
	CreatedAt    time.Time
}

// InsertCalibration persists a calibration run.
func (s *Store) InsertCalibration(snapshotJSON, weightsJSON string, f1 float64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`
		INSERT INTO calibration (snapshot_json, weights_json, f1, created_at) VALUES (?, ?, ?, ?)
	`, snapshotJSON, weightsJSON, f1, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LatestCalibration returns the most recently inserted calibration
// record, and false if none exists.
func (s *Store) LatestCalibration() (CalibrationRecord, bool, error) {
	var r CalibrationRecord
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, snapshot_json, weights_json, f1, created_at
		FROM calibration ORDER BY id DESC LIMIT 1
	`).Scan(&r.ID, &r.SnapshotJSON, &r.WeightsJSON, &r.F1, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CalibrationRecord{}, false, nil
		}
		return CalibrationRecord{}, false, err
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return r, true, nil
}
