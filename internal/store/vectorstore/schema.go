package vectorstore

import (
	"database/sql"
	"fmt"
)

const schemaVersion = "1"

// createChunksTable holds everything about a chunk except its vector,
// which lives in the sibling chunks_vec virtual table so the embedding
// column can use sqlite-vec's fixed-width float array type.
const createChunksTable = `
CREATE TABLE IF NOT EXISTS chunks (
    id TEXT PRIMARY KEY,
    repo TEXT NOT NULL,
    file_path TEXT NOT NULL,
    language TEXT NOT NULL,
    chunk_type TEXT NOT NULL,
    category TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

const createChunksFTSTable = `
CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
    id UNINDEXED,
    name,
    content,
    tokenize = "unicode61 separators '._'"
)
`

const createStoreMetaTable = `
CREATE TABLE IF NOT EXISTS store_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
)
`

var chunksIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_chunks_repo ON chunks(repo)",
	"CREATE INDEX IF NOT EXISTS idx_chunks_file_path ON chunks(file_path)",
	"CREATE INDEX IF NOT EXISTS idx_chunks_language ON chunks(language)",
	"CREATE INDEX IF NOT EXISTS idx_chunks_chunk_type ON chunks(chunk_type)",
	"CREATE INDEX IF NOT EXISTS idx_chunks_category ON chunks(category)",
}

var ftsTriggers = []string{
	`CREATE TRIGGER IF NOT EXISTS chunks_fts_insert AFTER INSERT ON chunks BEGIN
		INSERT INTO chunks_fts(id, name, content) VALUES (new.id, new.name, new.content);
	END`,
	`CREATE TRIGGER IF NOT EXISTS chunks_fts_update AFTER UPDATE ON chunks BEGIN
		DELETE FROM chunks_fts WHERE id = old.id;
		INSERT INTO chunks_fts(id, name, content) VALUES (new.id, new.name, new.content);
	END`,
	`CREATE TRIGGER IF NOT EXISTS chunks_fts_delete AFTER DELETE ON chunks BEGIN
		DELETE FROM chunks_fts WHERE id = old.id;
	END`,
}

// createSchema creates every table except the vector table, which the
// caller creates separately once the embedder's dimension is known.
func createSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	for _, ddl := range []string{createChunksTable, createChunksFTSTable, createStoreMetaTable} {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, idx := range chunksIndexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}

	// FTS5 triggers must run outside the table-creating transaction, same
	// constraint as the virtual tables themselves.
	for _, trig := range ftsTriggers {
		if _, err := db.Exec(trig); err != nil {
			return fmt.Errorf("create fts trigger: %w", err)
		}
	}
	return nil
}

func getMeta(db *sql.DB, key string) (string, bool, error) {
	var v string
	err := db.QueryRow("SELECT value FROM store_meta WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func setMeta(db *sql.DB, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO store_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
