// Package vectorstore is the durable, process-local, embedded dual store
// for chunk content plus its vector and keyword indexes. It is keyed
// primarily by (repo, id) and backed by SQLite: one table for chunk rows,
// an FTS5 virtual table for keyword search, and a sqlite-vec vec0 virtual
// table for cosine similarity search.
package vectorstore

import (
	"database/sql"
	"fmt"
	"sync"

	sqlitevec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/bobbin-dev/bobbin/internal/bobbinerr"
	_ "github.com/mattn/go-sqlite3"
)

var registerVecOnce sync.Once

// Store is the embedded chunk store.
type Store struct {
	db        *sql.DB
	dimension int
}

// Open opens (creating if absent) the SQLite database at path and
// ensures its schema matches dimension. If an existing vector table was
// built with a different dimension, Open returns a bobbinerr of kind
// KindSchemaMismatch; the caller decides whether to wipe and re-index or
// restore the original model.
func Open(path string, dimension int) (*Store, error) {
	registerVecOnce.Do(sqlitevec.Auto)

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, bobbinerr.New(bobbinerr.KindIO, "vectorstore.Open", err)
	}
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, bobbinerr.New(bobbinerr.KindIO, "vectorstore.Open", err)
	}

	existingDim, hasVecTable, err := detectVectorDimension(db)
	if err != nil {
		db.Close()
		return nil, bobbinerr.New(bobbinerr.KindIO, "vectorstore.Open", err)
	}

	if hasVecTable && existingDim != dimension {
		db.Close()
		return nil, bobbinerr.New(bobbinerr.KindSchemaMismatch, "vectorstore.Open",
			fmt.Errorf("index was built with dimension %d, configured embedder has dimension %d", existingDim, dimension))
	}
	if !hasVecTable {
		if err := createVectorTable(db, dimension); err != nil {
			db.Close()
			return nil, bobbinerr.New(bobbinerr.KindIO, "vectorstore.Open", err)
		}
		if err := setMeta(db, "embedding_dimension", fmt.Sprint(dimension)); err != nil {
			db.Close()
			return nil, bobbinerr.New(bobbinerr.KindIO, "vectorstore.Open", err)
		}
	}
	if err := setMeta(db, "schema_version", schemaVersion); err != nil {
		db.Close()
		return nil, bobbinerr.New(bobbinerr.KindIO, "vectorstore.Open", err)
	}

	return &Store{db: db, dimension: dimension}, nil
}

func createVectorTable(db *sql.DB, dimension int) error {
	ddl := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS chunks_vec USING vec0(
		id TEXT PRIMARY KEY,
		embedding float[%d] distance_metric=cosine
	)`, dimension)
	_, err := db.Exec(ddl)
	return err
}

// detectVectorDimension reads the dimension recorded at the vector
// table's creation time, rather than introspecting vec0's schema (which
// sqlite-vec does not expose through sqlite_master in a portable way).
func detectVectorDimension(db *sql.DB) (dimension int, exists bool, err error) {
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='chunks_vec'").Scan(&count)
	if err != nil {
		return 0, false, err
	}
	if count == 0 {
		return 0, false, nil
	}
	v, ok, err := getMeta(db, "embedding_dimension")
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, true, nil
	}
	var d int
	fmt.Sscanf(v, "%d", &d)
	return d, true, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dimension returns the vector dimension this store was opened with.
func (s *Store) Dimension() int { return s.dimension }

// EnsureFTSIndex and EnsureVectorIndex are idempotent no-ops beyond Open:
// schema creation already guarantees both indexes exist, since unlike
// the teacher's per-file content index, chunk rows are written directly
// into FTS-backed storage rather than indexed in a later pass.
func (s *Store) EnsureFTSIndex() error { return nil }

// EnsureVectorIndex is idempotent; full is currently ignored because a
// flat vec0 scan is adequate until the corpus crosses a size where an
// IVF/tree index would be introduced as a sqlite-vec upgrade.
func (s *Store) EnsureVectorIndex(full bool) error { return nil }
