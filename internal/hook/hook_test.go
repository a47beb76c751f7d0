package hook

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

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

type noopGit struct{}

func (noopGit) AnalyzeCoupling(ctx context.Context, depth, threshold int, since string) ([]gitanalyzer.FileCoupling, error) {
	return nil, nil
}
func (noopGit) GetFileChurn(ctx context.Context, since string) (map[string]int, error) { return nil, nil }
func (noopGit) GetFileHistory(ctx context.Context, file string, limit int) ([]gitanalyzer.Commit, error) {
	return nil, nil
}
func (noopGit) ListCommits(ctx context.Context, limit int) ([]gitanalyzer.Commit, error) { return nil, nil }
func (noopGit) BlameLines(ctx context.Context, file string, start, end int) ([]gitanalyzer.BlameLine, error) {
	return nil, nil
}
func (noopGit) GetCommitFiles(ctx context.Context, commitHash string) ([]string, error) { return nil, nil }
func (noopGit) GetDiffFiles(ctx context.Context, spec gitanalyzer.DiffSpec) ([]gitanalyzer.FileDiff, error) {
	return nil, nil
}
func (noopGit) GetChangedFiles(ctx context.Context, since string) ([]string, error) { return nil, nil }

func newTestRunner(t *testing.T, cfg Config) (*Runner, *vectorstore.Store, embedder.Embedder) {
	t.Helper()
	dir := t.TempDir()
	vecStore, err := vectorstore.Open(filepath.Join(dir, "vec.db"), 32)
	require.NoError(t, err)
	t.Cleanup(func() { vecStore.Close() })
	metaStore, err := metadatastore.Open(filepath.Join(dir, "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { metaStore.Close() })

	mock := embedder.NewMockEmbedder(32)
	r := retriever.New(vecStore, mock, nil)
	a := assembler.New(r, vecStore, metaStore, &noopGit{})

	runner := NewRunner(a, cfg, filepath.Join(dir, "hook-state.json"), filepath.Join(dir, "metrics.jsonl"), nil)
	return runner, vecStore, mock
}

func indexOne(t *testing.T, store *vectorstore.Store, emb embedder.Embedder, c chunk.Chunk) {
	t.Helper()
	ctx := context.Background()
	vec, err := emb.Embed(ctx, c.Content)
	require.NoError(t, err)
	require.NoError(t, store.Upsert([]vectorstore.ChunkWithVector{{Chunk: c, Embedding: vec}}))
}

func readMetricsEvents(t *testing.T, path string) []Event {
	t.Helper()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	defer f.Close()
	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	return events
}

func TestProcessGatesOnShortPrompt(t *testing.T) {
	cfg := DefaultConfig()
	runner, _, _ := newTestRunner(t, cfg)

	out := runner.Process(context.Background(), Request{Prompt: "hi", SessionID: "s1"})
	assert.Empty(t, out.HookSpecificOutput.AdditionalContext)

	events := readMetricsEvents(t, runner.metrics.path)
	require.Len(t, events, 1)
	assert.Equal(t, EventHookGateSkip, events[0].EventType)
}

func TestProcessGatesOnLowSemanticScore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GateThreshold = 2.0 // impossible to clear, forces the gate
	runner, vecStore, mock := newTestRunner(t, cfg)
	indexOne(t, vecStore, mock, chunk.Chunk{ID: "c1", Repo: "r", FilePath: "auth.go", Language: "go", Content: "func Authenticate() error", StartLine: 1, EndLine: 1})

	out := runner.Process(context.Background(), Request{Prompt: "how does authentication work here", SessionID: "s1"})
	assert.Empty(t, out.HookSpecificOutput.AdditionalContext)

	events := readMetricsEvents(t, runner.metrics.path)
	require.Len(t, events, 1)
	assert.Equal(t, EventHookGateSkip, events[0].EventType)
}

func TestProcessInjectsAndDedupsSecondIdenticalCall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GateThreshold = 0
	runner, vecStore, mock := newTestRunner(t, cfg)
	indexOne(t, vecStore, mock, chunk.Chunk{ID: "c1", Repo: "r", FilePath: "auth.go", Language: "go", Content: "func Authenticate() error", StartLine: 1, EndLine: 1})

	req := Request{Prompt: "how does authentication work here", SessionID: "s1"}
	first := runner.Process(context.Background(), req)
	assert.NotEmpty(t, first.HookSpecificOutput.AdditionalContext)

	second := runner.Process(context.Background(), req)
	assert.Empty(t, second.HookSpecificOutput.AdditionalContext)

	events := readMetricsEvents(t, runner.metrics.path)
	require.Len(t, events, 2)
	assert.Equal(t, EventHookInjection, events[0].EventType)
	assert.Equal(t, EventHookDedupSkip, events[1].EventType)
}

func TestFormatBundleSectionsSourceBeforeDocs(t *testing.T) {
	bundle := assembler.ContextBundle{
		Files: []assembler.FileEntry{
			{Path: "docs/guide.md", Language: "markdown", Chunks: []assembler.ChunkView{{Chunk: chunk.Chunk{ID: "d1"}, Content: "setup guide"}}},
			{Path: "auth.go", Language: "go", Chunks: []assembler.ChunkView{{Chunk: chunk.Chunk{ID: "c1"}, Content: "func Authenticate() error"}}},
		},
	}
	text := formatBundle(bundle, true)
	srcIdx := indexOf(text, "## Source Files")
	docIdx := indexOf(text, "## Documentation")
	require.GreaterOrEqual(t, srcIdx, 0)
	require.GreaterOrEqual(t, docIdx, 0)
	assert.Less(t, srcIdx, docIdx)
}

func TestFormatBundleOmitsDocsWhenShowDocsFalse(t *testing.T) {
	bundle := assembler.ContextBundle{
		Files: []assembler.FileEntry{
			{Path: "docs/guide.md", Language: "markdown", Chunks: []assembler.ChunkView{{Chunk: chunk.Chunk{ID: "d1"}, Content: "setup guide"}}},
		},
	}
	text := formatBundle(bundle, false)
	assert.Empty(t, text)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
