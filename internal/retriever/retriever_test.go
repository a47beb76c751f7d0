package retriever

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bobbin-dev/bobbin/internal/chunk"
	"github.com/bobbin-dev/bobbin/internal/embedder"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRetriever(t *testing.T) (*Retriever, *vectorstore.Store) {
	t.Helper()
	store, err := vectorstore.Open(filepath.Join(t.TempDir(), "test.db"), 32)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	mock := embedder.NewMockEmbedder(32)
	return New(store, mock, nil), store
}

func seed(t *testing.T, store *vectorstore.Store, emb embedder.Embedder, entries ...chunk.Chunk) {
	t.Helper()
	ctx := context.Background()
	var batch []vectorstore.ChunkWithVector
	for _, c := range entries {
		vec, err := emb.Embed(ctx, c.Content)
		require.NoError(t, err)
		batch = append(batch, vectorstore.ChunkWithVector{Chunk: c, Embedding: vec})
	}
	require.NoError(t, store.Upsert(batch))
}

func TestSearchHybridFusesBothLegs(t *testing.T) {
	r, store := newTestRetriever(t)
	mock := embedder.NewMockEmbedder(32)
	seed(t, store, mock,
		chunk.Chunk{ID: "c1", Repo: "r", FilePath: "auth.go", Language: "go", ChunkType: chunk.TypeFunction, Name: "Authenticate", Content: "func Authenticate(token string) error", StartLine: 1, EndLine: 3},
		chunk.Chunk{ID: "c2", Repo: "r", FilePath: "unrelated.go", Language: "go", ChunkType: chunk.TypeFunction, Name: "Ping", Content: "func Ping() {}", StartLine: 1, EndLine: 1},
	)

	outcome, err := r.Search(context.Background(), "Authenticate", DefaultConfig(), vectorstore.Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, outcome.Results)
	assert.Equal(t, "c1", outcome.Results[0].Chunk.ID)
}

func TestSearchDemotesDocumentationChunks(t *testing.T) {
	r, store := newTestRetriever(t)
	mock := embedder.NewMockEmbedder(32)
	seed(t, store, mock,
		chunk.Chunk{ID: "doc1", Repo: "r", FilePath: "docs/guide.md", Language: "markdown", ChunkType: chunk.TypeSection, Name: "Guide", Content: "widget configuration guide", StartLine: 1, EndLine: 5},
		chunk.Chunk{ID: "src1", Repo: "r", FilePath: "widget.go", Language: "go", ChunkType: chunk.TypeFunction, Name: "Widget", Content: "widget configuration guide", StartLine: 1, EndLine: 5},
	)

	cfg := DefaultConfig()
	cfg.DocDemotion = 0.5
	outcome, err := r.Search(context.Background(), "widget configuration guide", cfg, vectorstore.Filters{})
	require.NoError(t, err)
	require.Len(t, outcome.Results, 2)
	assert.Equal(t, "src1", outcome.Results[0].Chunk.ID)
}

func TestSearchBreaksTiesByFilePathAndStartLine(t *testing.T) {
	r, store := newTestRetriever(t)
	mock := embedder.NewMockEmbedder(32)
	seed(t, store, mock,
		chunk.Chunk{ID: "a2", Repo: "r", FilePath: "a.go", Language: "go", Content: "identical", StartLine: 10, EndLine: 10},
		chunk.Chunk{ID: "a1", Repo: "r", FilePath: "a.go", Language: "go", Content: "identical", StartLine: 1, EndLine: 1},
	)

	outcome, err := r.Search(context.Background(), "identical", DefaultConfig(), vectorstore.Filters{})
	require.NoError(t, err)
	require.Len(t, outcome.Results, 2)
	assert.Equal(t, "a1", outcome.Results[0].Chunk.ID)
}

func TestPreprocessKeywordQueryStripsInterrogatives(t *testing.T) {
	assert.Equal(t, "the auth token get validated", preprocessKeywordQuery("How does the auth token get validated?"))
}

func TestSearchModeKeywordOnlySkipsEmbedding(t *testing.T) {
	r, store := newTestRetriever(t)
	mock := embedder.NewMockEmbedder(32)
	seed(t, store, mock, chunk.Chunk{ID: "c1", Repo: "r", FilePath: "a.go", Content: "unique_token_xyz", StartLine: 1, EndLine: 1})

	cfg := DefaultConfig()
	cfg.Mode = ModeKeyword
	outcome, err := r.Search(context.Background(), "unique_token_xyz", cfg, vectorstore.Filters{})
	require.NoError(t, err)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, float64(0), outcome.TopSemanticScore)
}
