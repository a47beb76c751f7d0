package vectorstore

import (
	"database/sql"
	"fmt"
	"strings"

	sqlitevec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/bobbin-dev/bobbin/internal/bobbinerr"
	"github.com/bobbin-dev/bobbin/internal/chunk"
)

// ScoredChunk pairs a chunk with a raw, method-specific score: cosine
// similarity for vector search (higher is better), or FTS5's bm25 value
// negated in the query (-bm25) for keyword search (higher is better).
type ScoredChunk struct {
	Chunk chunk.Chunk
	Score float64
}

// Filters restricts a search to chunks matching all set fields.
type Filters struct {
	Repo      string
	Language  string
	ChunkType chunk.Type
}

func (f Filters) apply(where *[]string, args *[]any) {
	if f.Repo != "" {
		*where = append(*where, "c.repo = ?")
		*args = append(*args, f.Repo)
	}
	if f.Language != "" {
		*where = append(*where, "c.language = ?")
		*args = append(*args, f.Language)
	}
	if f.ChunkType != "" {
		*where = append(*where, "c.chunk_type = ?")
		*args = append(*args, string(f.ChunkType))
	}
}

// SearchByVector returns the k nearest chunks to vector by cosine
// similarity, optionally restricted to repo and filters.
func (s *Store) SearchByVector(vector []float32, k int, filters Filters) ([]ScoredChunk, error) {
	if len(vector) != s.dimension {
		return nil, bobbinerr.New(bobbinerr.KindSchemaMismatch, "vectorstore.SearchByVector",
			fmt.Errorf("query vector has dimension %d, store expects %d", len(vector), s.dimension))
	}
	blob, err := sqlitevec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("serialize query vector: %w", err)
	}

	// vec0's KNN form requires the match vector and k bound in the same
	// WHERE clause against the virtual table itself; filters on joined
	// columns can't be pushed into that clause, so they're applied in the
	// outer query against the already-fetched k nearest neighbors.
	filterClauses := []string{}
	filterArgs := []any{}
	filters.apply(&filterClauses, &filterArgs)
	filterSQL := ""
	if len(filterClauses) > 0 {
		filterSQL = "AND " + strings.Join(filterClauses, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.repo, c.file_path, c.language, c.chunk_type, c.name, c.content, c.start_line, c.end_line,
			1.0 - v.distance AS similarity
		FROM (
			SELECT id, distance FROM chunks_vec WHERE embedding MATCH ? AND k = ?
		) v
		JOIN chunks c ON c.id = v.id
		WHERE 1=1 %s
		ORDER BY v.distance ASC
	`, filterSQL)

	args := append([]any{blob, k}, filterArgs...)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()
	return scanScored(rows)
}

// FTS searches content and name via FTS5, ranked by bm25.
func (s *Store) FTS(query string, k int, filters Filters) ([]ScoredChunk, error) {
	where := []string{"chunks_fts MATCH ?"}
	args := []any{query}
	filterClauses := []string{}
	filters.apply(&filterClauses, &args)
	where = append(where, filterClauses...)
	args = append(args, k)

	sqlQuery := fmt.Sprintf(`
		SELECT c.id, c.repo, c.file_path, c.language, c.chunk_type, c.name, c.content, c.start_line, c.end_line,
			-bm25(chunks_fts) AS score
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.id
		WHERE %s
		ORDER BY score DESC
		LIMIT ?
	`, strings.Join(where, " AND "))

	rows, err := s.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("fts search: %w", err)
	}
	defer rows.Close()
	return scanScored(rows)
}

func scanScored(rows *sql.Rows) ([]ScoredChunk, error) {
	var out []ScoredChunk
	for rows.Next() {
		var c chunk.Chunk
		var chunkType string
		var score float64
		if err := rows.Scan(&c.ID, &c.Repo, &c.FilePath, &c.Language, &chunkType, &c.Name, &c.Content, &c.StartLine, &c.EndLine, &score); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		c.ChunkType = chunk.Type(chunkType)
		out = append(out, ScoredChunk{Chunk: c, Score: score})
	}
	return out, rows.Err()
}

// GetChunksForFile returns every chunk in repo/filePath ordered by
// start_line.
func (s *Store) GetChunksForFile(repo, filePath string) ([]chunk.Chunk, error) {
	rows, err := s.db.Query(`
		SELECT id, repo, file_path, language, chunk_type, name, content, start_line, end_line
		FROM chunks WHERE repo = ? AND file_path = ? ORDER BY start_line
	`, repo, filePath)
	if err != nil {
		return nil, fmt.Errorf("get chunks for file: %w", err)
	}
	defer rows.Close()

	var out []chunk.Chunk
	for rows.Next() {
		var c chunk.Chunk
		var chunkType string
		if err := rows.Scan(&c.ID, &c.Repo, &c.FilePath, &c.Language, &chunkType, &c.Name, &c.Content, &c.StartLine, &c.EndLine); err != nil {
			return nil, err
		}
		c.ChunkType = chunk.Type(chunkType)
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetAllFilePaths returns every distinct file_path indexed, optionally
// restricted to repo.
func (s *Store) GetAllFilePaths(repo string) ([]string, error) {
	query := "SELECT DISTINCT file_path FROM chunks"
	var args []any
	if repo != "" {
		query += " WHERE repo = ?"
		args = append(args, repo)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Stats summarizes store contents.
type Stats struct {
	TotalChunks int
	TotalFiles  int
	Languages   map[string]int
}

// GetStats returns aggregate counts, optionally restricted to repo.
func (s *Store) GetStats(repo string) (Stats, error) {
	where := ""
	var args []any
	if repo != "" {
		where = "WHERE repo = ?"
		args = append(args, repo)
	}
	stats := Stats{Languages: make(map[string]int)}
	if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM chunks %s", where), args...).Scan(&stats.TotalChunks); err != nil {
		return stats, err
	}
	if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(DISTINCT file_path) FROM chunks %s", where), args...).Scan(&stats.TotalFiles); err != nil {
		return stats, err
	}
	rows, err := s.db.Query(fmt.Sprintf("SELECT language, COUNT(*) FROM chunks %s GROUP BY language", where), args...)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var lang string
		var n int
		if err := rows.Scan(&lang, &n); err != nil {
			return stats, err
		}
		stats.Languages[lang] = n
	}
	return stats, rows.Err()
}

// ListRepos returns every distinct repo name with indexed chunks.
func (s *Store) ListRepos() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT repo FROM chunks ORDER BY repo")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
