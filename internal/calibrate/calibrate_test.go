package calibrate

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobbin-dev/bobbin/internal/assembler"
	"github.com/bobbin-dev/bobbin/internal/chunk"
	"github.com/bobbin-dev/bobbin/internal/embedder"
	"github.com/bobbin-dev/bobbin/internal/gitanalyzer"
	"github.com/bobbin-dev/bobbin/internal/retriever"
	"github.com/bobbin-dev/bobbin/internal/store/metadatastore"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGit struct {
	commits     []gitanalyzer.Commit
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
	return f.commits, nil
}
func (f *fakeGit) BlameLines(ctx context.Context, file string, start, end int) ([]gitanalyzer.BlameLine, error) {
	return nil, nil
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

func TestRunScoresGridAndPicksBest(t *testing.T) {
	vecStore, err := vectorstore.Open(filepath.Join(t.TempDir(), "vec.db"), 32)
	require.NoError(t, err)
	t.Cleanup(func() { vecStore.Close() })
	metaStore, err := metadatastore.Open(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { metaStore.Close() })

	mock := embedder.NewMockEmbedder(32)
	ctx := context.Background()
	vec, err := mock.Embed(ctx, "fix authentication token validation bug")
	require.NoError(t, err)
	require.NoError(t, vecStore.Upsert([]vectorstore.ChunkWithVector{{
		Chunk: chunk.Chunk{ID: "c1", Repo: "r", FilePath: "auth.go", Language: "go", Content: "fix authentication token validation bug", StartLine: 1, EndLine: 1},
		Embedding: vec,
	}}))

	git := &fakeGit{
		commits: []gitanalyzer.Commit{
			{Hash: "h1", Message: "fix authentication token validation bug"},
		},
		commitFiles: map[string][]string{"h1": {"auth.go"}},
	}

	r := retriever.New(vecStore, mock, nil)
	a := assembler.New(r, vecStore, metaStore, git)

	cfg := Config{
		MaxCommits:      10,
		MaxFilesChanged: 20,
		SemanticWeights: []float64{0.6},
		DocDemotions:    []float64{0.75},
		RRFKs:           []float64{60},
	}
	result, err := Run(ctx, cfg, git, a, "r")
	require.NoError(t, err)
	assert.Equal(t, 1, result.SampleSize)
	assert.Greater(t, result.Best.F1, 0.0)
}

func TestCollectSamplesSkipsRevertsAndLargeRefactors(t *testing.T) {
	git := &fakeGit{
		commits: []gitanalyzer.Commit{
			{Hash: "h1", Message: "Revert \"bad change\""},
			{Hash: "h2", Message: "sweeping refactor"},
			{Hash: "h3", Message: "fix bug in parser"},
		},
		commitFiles: map[string][]string{
			"h1": {"a.go"},
			"h2": {"a.go", "b.go", "c.go", "d.go", "e.go", "f.go"},
			"h3": {"parser.go"},
		},
	}
	cfg := Config{MaxCommits: 10, MaxFilesChanged: 3}
	samples, err := collectSamples(context.Background(), git, cfg)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "fix bug in parser", samples[0].query)
}

func TestFileLevelScorePerfectMatch(t *testing.T) {
	predicted := map[string]bool{"a.go": true, "b.go": true}
	actual := map[string]bool{"a.go": true, "b.go": true}
	p, r, f1 := fileLevelScore(predicted, actual)
	assert.Equal(t, 1.0, p)
	assert.Equal(t, 1.0, r)
	assert.Equal(t, 1.0, f1)
}

func TestShouldRecalibrateNoPriorSnapshot(t *testing.T) {
	assert.True(t, ShouldRecalibrate(GuardInput{HasPriorSnapshot: false}))
}

func TestShouldRecalibrateChunkCountDrift(t *testing.T) {
	assert.True(t, ShouldRecalibrate(GuardInput{
		HasPriorSnapshot: true, PriorChunkCount: 100, CurrentChunkCount: 130,
		PriorLanguage: "go", CurrentLanguage: "go",
		PriorSampledAt: time.Now(), Now: time.Now(),
	}))
}

func TestShouldRecalibrateStaleAfter30Days(t *testing.T) {
	now := time.Now()
	assert.True(t, ShouldRecalibrate(GuardInput{
		HasPriorSnapshot: true, PriorChunkCount: 100, CurrentChunkCount: 105,
		PriorLanguage: "go", CurrentLanguage: "go",
		PriorSampledAt: now.Add(-31 * 24 * time.Hour), Now: now,
	}))
}

func TestShouldRecalibrateFreshSnapshotSkipped(t *testing.T) {
	now := time.Now()
	assert.False(t, ShouldRecalibrate(GuardInput{
		HasPriorSnapshot: true, PriorChunkCount: 100, CurrentChunkCount: 105,
		PriorLanguage: "go", CurrentLanguage: "go",
		PriorSampledAt: now.Add(-5 * 24 * time.Hour), Now: now,
	}))
}
