// Package metadatastore is the relational, single-writer SQLite store for
// coupling, dependency, and calibration data derived from git history and
// static analysis — data the vector/FTS store has no natural place for.
package metadatastore

import (
	"database/sql"
	"fmt"

	"github.com/bobbin-dev/bobbin/internal/bobbinerr"
	_ "github.com/mattn/go-sqlite3"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS coupling (
    file_a TEXT NOT NULL,
    file_b TEXT NOT NULL,
    score REAL NOT NULL,
    co_changes INTEGER NOT NULL,
    last_co_change TEXT,
    PRIMARY KEY (file_a, file_b)
);
CREATE INDEX IF NOT EXISTS idx_coupling_file_a ON coupling(file_a);
CREATE INDEX IF NOT EXISTS idx_coupling_file_b ON coupling(file_b);

CREATE TABLE IF NOT EXISTS dependencies (
    file_a TEXT NOT NULL,
    file_b TEXT NOT NULL,
    dep_type TEXT NOT NULL,
    statement TEXT NOT NULL,
    symbol TEXT,
    resolved INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (file_a, file_b, dep_type)
);
CREATE INDEX IF NOT EXISTS idx_dependencies_file_a ON dependencies(file_a);
CREATE INDEX IF NOT EXISTS idx_dependencies_file_b ON dependencies(file_b);

CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS calibration (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    snapshot_json TEXT NOT NULL,
    weights_json TEXT NOT NULL,
    f1 REAL NOT NULL,
    created_at TEXT NOT NULL
);
`

// Store is the relational metadata store. A single *sql.DB with
// SetMaxOpenConns(1) enforces the single-writer contract without an
// external lock file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, bobbinerr.New(bobbinerr.KindIO, "metadatastore.Open", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, bobbinerr.New(bobbinerr.KindIO, "metadatastore.Open", fmt.Errorf("create schema: %w", err))
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// canonicalPair returns (a, b) such that a < b, matching the table's
// canonical ordering so upsert/get never need to check both orderings.
func canonicalPair(fileA, fileB string) (string, string) {
	if fileB < fileA {
		return fileB, fileA
	}
	return fileA, fileB
}
