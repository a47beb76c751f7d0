package assembler

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bobbin-dev/bobbin/internal/chunk"
	"github.com/bobbin-dev/bobbin/internal/embedder"
	"github.com/bobbin-dev/bobbin/internal/gitanalyzer"
	"github.com/bobbin-dev/bobbin/internal/retriever"
	"github.com/bobbin-dev/bobbin/internal/store/metadatastore"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGit is a minimal gitanalyzer.Analyzer stand-in for bridge tests,
// avoiding a real repository just to exercise blame/commit-files wiring.
type fakeGit struct {
	blame       map[string][]gitanalyzer.BlameLine
	commitFiles map[string][]string
}

func (f *fakeGit) AnalyzeCoupling(ctx context.Context, depth, threshold int, since string) ([]gitanalyzer.FileCoupling, error) {
	return nil, nil
}
func (f *fakeGit) GetFileChurn(ctx context.Context, since string) (map[string]int, error) {
	return nil, nil
}
func (f *fakeGit) GetFileHistory(ctx context.Context, file string, limit int) ([]gitanalyzer.Commit, error) {
	return nil, nil
}
func (f *fakeGit) ListCommits(ctx context.Context, limit int) ([]gitanalyzer.Commit, error) {
	return nil, nil
}
func (f *fakeGit) BlameLines(ctx context.Context, file string, start, end int) ([]gitanalyzer.BlameLine, error) {
	return f.blame[file], nil
}
func (f *fakeGit) GetCommitFiles(ctx context.Context, commitHash string) ([]string, error) {
	return f.commitFiles[commitHash], nil
}
func (f *fakeGit) GetDiffFiles(ctx context.Context, spec gitanalyzer.DiffSpec) ([]gitanalyzer.FileDiff, error) {
	return nil, nil
}
func (f *fakeGit) GetChangedFiles(ctx context.Context, since string) ([]string, error) {
	return nil, nil
}

func newTestAssembler(t *testing.T, git gitanalyzer.Analyzer) (*Assembler, *vectorstore.Store, *metadatastore.Store, embedder.Embedder) {
	t.Helper()
	vecStore, err := vectorstore.Open(filepath.Join(t.TempDir(), "vec.db"), 32)
	require.NoError(t, err)
	t.Cleanup(func() { vecStore.Close() })

	metaStore, err := metadatastore.Open(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { metaStore.Close() })

	mock := embedder.NewMockEmbedder(32)
	r := retriever.New(vecStore, mock, nil)
	return New(r, vecStore, metaStore, git), vecStore, metaStore, mock
}

func indexChunks(t *testing.T, store *vectorstore.Store, emb embedder.Embedder, entries ...chunk.Chunk) {
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

func TestAssembleDirectSeedOnly(t *testing.T) {
	a, vecStore, _, mock := newTestAssembler(t, &fakeGit{})
	indexChunks(t, vecStore, mock,
		chunk.Chunk{ID: "c1", Repo: "r", FilePath: "auth.go", Language: "go", ChunkType: chunk.TypeFunction, Name: "Authenticate", Content: "func Authenticate(token string) error", StartLine: 1, EndLine: 3},
	)

	cfg := DefaultConfig()
	cfg.Depth = 0
	bundle, err := a.Assemble(context.Background(), "Authenticate", cfg, vectorstore.Filters{})
	require.NoError(t, err)
	require.Len(t, bundle.Files, 1)
	assert.Equal(t, "auth.go", bundle.Files[0].Path)
	assert.Equal(t, RelevanceDirect, bundle.Files[0].Relevance)
	assert.Equal(t, 1, bundle.Summary.DirectHits)
}

func TestAssembleExpandsCoupledFiles(t *testing.T) {
	a, vecStore, metaStore, mock := newTestAssembler(t, &fakeGit{})
	indexChunks(t, vecStore, mock,
		chunk.Chunk{ID: "c1", Repo: "r", FilePath: "auth.go", Language: "go", ChunkType: chunk.TypeFunction, Name: "Authenticate", Content: "func Authenticate(token string) error", StartLine: 1, EndLine: 3},
		chunk.Chunk{ID: "c2", Repo: "r", FilePath: "session.go", Language: "go", ChunkType: chunk.TypeFunction, Name: "NewSession", Content: "func NewSession() {}", StartLine: 1, EndLine: 1},
	)
	require.NoError(t, metaStore.UpsertCoupling([]gitanalyzer.FileCoupling{
		{FileA: "auth.go", FileB: "session.go", Score: 0.8, CoChanges: 6},
	}))

	cfg := DefaultConfig()
	cfg.Depth = 1
	bundle, err := a.Assemble(context.Background(), "Authenticate", cfg, vectorstore.Filters{})
	require.NoError(t, err)

	var paths []string
	for _, f := range bundle.Files {
		paths = append(paths, f.Path)
	}
	assert.Contains(t, paths, "auth.go")
	assert.Contains(t, paths, "session.go")
	assert.Equal(t, 1, bundle.Summary.CoupledAdditions)
}

func TestAssembleBridgesDocToSourceViaBlame(t *testing.T) {
	git := &fakeGit{
		blame:       map[string][]gitanalyzer.BlameLine{"docs/guide.md": {{Line: 1, Commit: "abc123"}}},
		commitFiles: map[string][]string{"abc123": {"docs/guide.md", "widget.go"}},
	}
	a, vecStore, _, mock := newTestAssembler(t, git)
	indexChunks(t, vecStore, mock,
		chunk.Chunk{ID: "doc1", Repo: "r", FilePath: "docs/guide.md", Language: "markdown", ChunkType: chunk.TypeSection, Name: "Guide", Content: "widget configuration guide", StartLine: 1, EndLine: 5},
		chunk.Chunk{ID: "src1", Repo: "r", FilePath: "widget.go", Language: "go", ChunkType: chunk.TypeFunction, Name: "Widget", Content: "func Widget() {}", StartLine: 1, EndLine: 1},
	)

	cfg := DefaultConfig()
	cfg.Depth = 0
	cfg.Retrieval.Mode = retriever.ModeKeyword
	bundle, err := a.Assemble(context.Background(), "widget configuration guide", cfg, vectorstore.Filters{})
	require.NoError(t, err)

	var bridged bool
	for _, f := range bundle.Files {
		if f.Path == "widget.go" {
			bridged = true
			assert.Equal(t, RelevanceBridged, f.Relevance)
		}
	}
	assert.True(t, bridged, "expected widget.go pulled in via provenance bridging")
	assert.Equal(t, 1, bundle.Summary.BridgedAdditions)
}

func TestAssembleOmitsChunkExceedingPerChunkCap(t *testing.T) {
	a, vecStore, _, mock := newTestAssembler(t, &fakeGit{})
	bigContent := ""
	for i := 0; i < 100; i++ {
		bigContent += "line\n"
	}
	indexChunks(t, vecStore, mock,
		chunk.Chunk{ID: "big1", Repo: "r", FilePath: "big.go", Language: "go", Content: bigContent, StartLine: 1, EndLine: 100},
	)

	cfg := DefaultConfig()
	cfg.Depth = 0
	cfg.BudgetLines = 10
	bundle, err := a.Assemble(context.Background(), "line", cfg, vectorstore.Filters{})
	require.NoError(t, err)
	assert.Empty(t, bundle.Files, "a 100-line chunk exceeds half of a 10-line budget and must be dropped, not truncated")
	assert.Equal(t, 10, bundle.Budget.MaxLines)
	assert.Equal(t, 0, bundle.Budget.UsedLines)
}

func TestAssembleRespectsLineBudget(t *testing.T) {
	a, vecStore, _, mock := newTestAssembler(t, &fakeGit{})
	indexChunks(t, vecStore, mock,
		chunk.Chunk{ID: "small1", Repo: "r", FilePath: "small.go", Language: "go", Content: "line\nline\nline\n", StartLine: 1, EndLine: 3},
	)

	cfg := DefaultConfig()
	cfg.Depth = 0
	cfg.BudgetLines = 10
	bundle, err := a.Assemble(context.Background(), "line", cfg, vectorstore.Filters{})
	require.NoError(t, err)
	require.Len(t, bundle.Files, 1)
	assert.LessOrEqual(t, bundle.Budget.UsedLines, 10)
	assert.Equal(t, 10, bundle.Budget.MaxLines)
}

func TestAssembleShowDocsFalseExcludesDocumentation(t *testing.T) {
	a, vecStore, _, mock := newTestAssembler(t, &fakeGit{})
	indexChunks(t, vecStore, mock,
		chunk.Chunk{ID: "doc1", Repo: "r", FilePath: "docs/guide.md", Language: "markdown", Content: "setup instructions", StartLine: 1, EndLine: 2},
	)

	cfg := DefaultConfig()
	cfg.Depth = 0
	cfg.ShowDocs = false
	bundle, err := a.Assemble(context.Background(), "setup instructions", cfg, vectorstore.Filters{})
	require.NoError(t, err)
	assert.Empty(t, bundle.Files)
}
