package vectorstore

import (
	"path/filepath"
	"testing"

	"github.com/bobbin-dev/bobbin/internal/chunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, dimension int) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"), dimension)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func unitVector(dim, hot int) []float32 {
	v := make([]float32, dim)
	v[hot%dim] = 1
	return v
}

func TestUpsertAndSearchByVector(t *testing.T) {
	s := openTestStore(t, 4)

	err := s.Upsert([]ChunkWithVector{
		{
			Chunk: chunk.Chunk{
				ID: "c1", Repo: "r", FilePath: "a.go", Language: "go",
				ChunkType: chunk.TypeFunction, Name: "Foo", Content: "func Foo() {}",
				StartLine: 1, EndLine: 3,
			},
			Embedding: unitVector(4, 0),
		},
		{
			Chunk: chunk.Chunk{
				ID: "c2", Repo: "r", FilePath: "b.go", Language: "go",
				ChunkType: chunk.TypeFunction, Name: "Bar", Content: "func Bar() {}",
				StartLine: 1, EndLine: 3,
			},
			Embedding: unitVector(4, 1),
		},
	})
	require.NoError(t, err)

	results, err := s.SearchByVector(unitVector(4, 0), 2, Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "c1", results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestUpsertIsIdempotentByID(t *testing.T) {
	s := openTestStore(t, 2)
	c := ChunkWithVector{
		Chunk: chunk.Chunk{
			ID: "c1", Repo: "r", FilePath: "a.go", Language: "go",
			ChunkType: chunk.TypeFunction, Content: "v1", StartLine: 1, EndLine: 1,
		},
		Embedding: []float32{1, 0},
	}
	require.NoError(t, s.Upsert([]ChunkWithVector{c}))

	c.Chunk.Content = "v2"
	require.NoError(t, s.Upsert([]ChunkWithVector{c}))

	chunks, err := s.GetChunksForFile("r", "a.go")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "v2", chunks[0].Content)
}

func TestFTSFindsContentAndName(t *testing.T) {
	s := openTestStore(t, 2)
	require.NoError(t, s.Upsert([]ChunkWithVector{{
		Chunk: chunk.Chunk{
			ID: "c1", Repo: "r", FilePath: "auth.go", Language: "go",
			ChunkType: chunk.TypeFunction, Name: "Authenticate",
			Content: "func Authenticate(token string) error", StartLine: 1, EndLine: 2,
		},
		Embedding: []float32{0, 1},
	}}))

	results, err := s.FTS("Authenticate", 10, Filters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].Chunk.ID)
}

func TestDeleteByFileRemovesVectorAndFTSRows(t *testing.T) {
	s := openTestStore(t, 2)
	require.NoError(t, s.Upsert([]ChunkWithVector{{
		Chunk:     chunk.Chunk{ID: "c1", Repo: "r", FilePath: "a.go", Language: "go", Content: "hello world", StartLine: 1, EndLine: 1},
		Embedding: []float32{1, 0},
	}}))

	require.NoError(t, s.DeleteByFile("r", "a.go"))

	chunks, err := s.GetChunksForFile("r", "a.go")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	ftsResults, err := s.FTS("hello", 10, Filters{})
	require.NoError(t, err)
	assert.Empty(t, ftsResults)

	vecResults, err := s.SearchByVector([]float32{1, 0}, 10, Filters{})
	require.NoError(t, err)
	assert.Empty(t, vecResults)
}

func TestOpenDetectsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	s, err := Open(path, 4)
	require.NoError(t, err)
	s.Close()

	_, err = Open(path, 8)
	assert.Error(t, err)
}

func TestFiltersRestrictVectorSearch(t *testing.T) {
	s := openTestStore(t, 2)
	require.NoError(t, s.Upsert([]ChunkWithVector{
		{
			Chunk:     chunk.Chunk{ID: "c1", Repo: "r1", FilePath: "a.go", Language: "go", Content: "x", StartLine: 1, EndLine: 1},
			Embedding: []float32{1, 0},
		},
		{
			Chunk:     chunk.Chunk{ID: "c2", Repo: "r2", FilePath: "b.py", Language: "python", Content: "x", StartLine: 1, EndLine: 1},
			Embedding: []float32{1, 0},
		},
	}))

	results, err := s.SearchByVector([]float32{1, 0}, 10, Filters{Repo: "r1"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].Chunk.ID)
}
