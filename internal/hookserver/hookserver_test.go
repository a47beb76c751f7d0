package hookserver

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobbin-dev/bobbin/internal/assembler"
	"github.com/bobbin-dev/bobbin/internal/embedder"
	"github.com/bobbin-dev/bobbin/internal/gitanalyzer"
	"github.com/bobbin-dev/bobbin/internal/hook"
	"github.com/bobbin-dev/bobbin/internal/retriever"
	"github.com/bobbin-dev/bobbin/internal/store/metadatastore"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
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

func newTestAssembler(t *testing.T) *assembler.Assembler {
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
	return assembler.New(r, vecStore, metaStore, &noopGit{})
}

// TestNewRegistersAllFourTools mirrors the teacher's own mcp-go test
// idiom: the library doesn't expose registered tools for inspection,
// so registration is verified by requiring that it doesn't panic and
// the returned server is usable.
func TestNewRegistersAllFourTools(t *testing.T) {
	a := newTestAssembler(t)
	dir := t.TempDir()
	errLog := log.New(io.Discard, "test: ", log.LstdFlags)

	invalidate := func(repo, filePath string) {}
	soleRepo := func() (string, error) { return "demo", nil }

	var srv *Server
	require.NotPanics(t, func() {
		srv = New("bobbin-test", "0.0.0", a, hook.DefaultConfig(),
			filepath.Join(dir, "hook-state.json"), filepath.Join(dir, "metrics.jsonl"), errLog,
			invalidate, soleRepo)
	})
	assert.NotNil(t, srv)
	assert.NotNil(t, srv.mcp)
}

func TestVariantConfigOverridesLeaveBaseUntouched(t *testing.T) {
	base := hook.DefaultConfig()
	base.DedupEnabled = true
	base.GateThreshold = 0.5
	base.MinPromptLength = 20

	sessionCfg := base
	sessionCfg.DedupEnabled = false
	assert.True(t, base.DedupEnabled, "base config must stay untouched by the session-context override")
	assert.False(t, sessionCfg.DedupEnabled)

	primeCfg := base
	primeCfg.DedupEnabled = false
	primeCfg.GateThreshold = 0
	primeCfg.MinPromptLength = 0
	assert.Equal(t, 0.5, base.GateThreshold, "base config must stay untouched by the prime-context override")
	assert.Zero(t, primeCfg.GateThreshold)
	assert.Zero(t, primeCfg.MinPromptLength)
}
