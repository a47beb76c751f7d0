package vectorstore

import (
	"fmt"
	"time"

	sqlitevec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/bobbin-dev/bobbin/internal/bobbinerr"
	"github.com/bobbin-dev/bobbin/internal/chunk"
)

// ChunkWithVector pairs a chunk with its embedding for upsert.
type ChunkWithVector struct {
	Chunk     chunk.Chunk
	Embedding []float32
}

// Upsert inserts or replaces chunks_with_vectors, keyed by chunk id. A
// single transaction covers the relational row, the FTS sync (handled by
// trigger), and the vector row (delete-then-insert, since vec0 doesn't
// support INSERT OR REPLACE).
func (s *Store) Upsert(entries []ChunkWithVector) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return bobbinerr.New(bobbinerr.KindIO, "vectorstore.Upsert", err)
	}
	defer tx.Rollback()

	upsertChunk, err := tx.Prepare(`
		INSERT INTO chunks (id, repo, file_path, language, chunk_type, category, name, content, start_line, end_line, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			repo = excluded.repo, file_path = excluded.file_path, language = excluded.language,
			chunk_type = excluded.chunk_type, category = excluded.category, name = excluded.name,
			content = excluded.content, start_line = excluded.start_line, end_line = excluded.end_line,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return bobbinerr.New(bobbinerr.KindIO, "vectorstore.Upsert", err)
	}
	defer upsertChunk.Close()

	deleteVec, err := tx.Prepare("DELETE FROM chunks_vec WHERE id = ?")
	if err != nil {
		return bobbinerr.New(bobbinerr.KindIO, "vectorstore.Upsert", err)
	}
	defer deleteVec.Close()

	insertVec, err := tx.Prepare("INSERT INTO chunks_vec (id, embedding) VALUES (?, ?)")
	if err != nil {
		return bobbinerr.New(bobbinerr.KindIO, "vectorstore.Upsert", err)
	}
	defer insertVec.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range entries {
		c := e.Chunk
		category := chunk.ClassifyFile(c.FilePath)
		if _, err := upsertChunk.Exec(c.ID, c.Repo, c.FilePath, c.Language, string(c.ChunkType),
			string(category), c.Name, c.Content, c.StartLine, c.EndLine, now, now); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", c.ID, err)
		}

		if _, err := deleteVec.Exec(c.ID); err != nil {
			return fmt.Errorf("clear stale vector for %s: %w", c.ID, err)
		}
		if len(e.Embedding) != s.dimension {
			return bobbinerr.New(bobbinerr.KindSchemaMismatch, "vectorstore.Upsert",
				fmt.Errorf("chunk %s embedding has dimension %d, store expects %d", c.ID, len(e.Embedding), s.dimension))
		}
		blob, err := sqlitevec.SerializeFloat32(e.Embedding)
		if err != nil {
			return fmt.Errorf("serialize embedding for %s: %w", c.ID, err)
		}
		if _, err := insertVec.Exec(c.ID, blob); err != nil {
			return fmt.Errorf("insert vector for %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return bobbinerr.New(bobbinerr.KindIO, "vectorstore.Upsert", err)
	}
	return nil
}

// DeleteByFile removes every chunk belonging to repo/filePath, used
// ahead of re-parsing a changed file during incremental indexing.
func (s *Store) DeleteByFile(repo, filePath string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return bobbinerr.New(bobbinerr.KindIO, "vectorstore.DeleteByFile", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query("SELECT id FROM chunks WHERE repo = ? AND file_path = ?", repo, filePath)
	if err != nil {
		return fmt.Errorf("select chunk ids: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()

	if _, err := tx.Exec("DELETE FROM chunks WHERE repo = ? AND file_path = ?", repo, filePath); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	for _, id := range ids {
		if _, err := tx.Exec("DELETE FROM chunks_vec WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete vector for %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return bobbinerr.New(bobbinerr.KindIO, "vectorstore.DeleteByFile", err)
	}
	return nil
}
