package gitanalyzer

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These are integration tests against the real git binary; they run
// sequentially (no t.Parallel()) to avoid resource exhaustion spawning
// many git processes at once.

func TestAnalyzer(t *testing.T) {
	ctx := context.Background()

	t.Run("GetFileChurn counts commits per file", func(t *testing.T) {
		dir := createTestRepo(t)
		writeAndCommit(t, dir, "a.go", "package a\n", "touch a")
		writeAndCommit(t, dir, "a.go", "package a\n// v2\n", "touch a again")
		writeAndCommit(t, dir, "b.go", "package b\n", "touch b")

		churn, err := New(dir).GetFileChurn(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 2, churn["a.go"])
		assert.Equal(t, 1, churn["b.go"])
	})

	t.Run("GetFileHistory newest first", func(t *testing.T) {
		dir := createTestRepo(t)
		writeAndCommit(t, dir, "a.go", "v1\n", "first")
		writeAndCommit(t, dir, "a.go", "v2\n", "second")

		commits, err := New(dir).GetFileHistory(ctx, "a.go", 10)
		require.NoError(t, err)
		require.Len(t, commits, 2)
		assert.Equal(t, "second", commits[0].Message)
		assert.Equal(t, "first", commits[1].Message)
	})

	t.Run("AnalyzeCoupling finds co-changed pairs", func(t *testing.T) {
		dir := createTestRepo(t)
		for i := 0; i < 3; i++ {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte(contentN(i)), 0644))
			require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte(contentN(i)), 0644))
			runGit(t, dir, "add", ".")
			runGit(t, dir, "commit", "-m", "touch both")
		}

		couplings, err := New(dir).AnalyzeCoupling(ctx, 20, 2, "")
		require.NoError(t, err)
		require.Len(t, couplings, 1)
		assert.Equal(t, "a.go", couplings[0].FileA)
		assert.Equal(t, "b.go", couplings[0].FileB)
		assert.Equal(t, 3, couplings[0].CoChanges)
	})

	t.Run("GetCommitFiles lists touched paths", func(t *testing.T) {
		dir := createTestRepo(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("a"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("b"), 0644))
		runGit(t, dir, "add", ".")
		runGit(t, dir, "commit", "-m", "add a and b")
		hash := revParse(t, dir, "HEAD")

		files, err := New(dir).GetCommitFiles(ctx, hash)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a.go", "b.go"}, files)
	})

	t.Run("BlameLines attributes lines to commits", func(t *testing.T) {
		dir := createTestRepo(t)
		writeAndCommit(t, dir, "a.go", "line1\nline2\nline3\n", "add three lines")

		blame, err := New(dir).BlameLines(ctx, "a.go", 1, 3)
		require.NoError(t, err)
		require.Len(t, blame, 3)
		for _, bl := range blame {
			assert.NotEmpty(t, bl.Commit)
		}
	})

	t.Run("GetDiffFiles reports unstaged additions", func(t *testing.T) {
		dir := createTestRepo(t)
		writeAndCommit(t, dir, "a.go", "line1\n", "initial")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("line1\nline2\n"), 0644))

		diffs, err := New(dir).GetDiffFiles(ctx, DiffSpec{Kind: DiffUnstaged})
		require.NoError(t, err)
		require.Len(t, diffs, 1)
		assert.Equal(t, "a.go", diffs[0].Path)
		assert.Equal(t, StatusModified, diffs[0].Status)
		assert.Equal(t, []int{2}, diffs[0].AddedLines)
	})

	t.Run("GetChangedFiles since a prior commit", func(t *testing.T) {
		dir := createTestRepo(t)
		writeAndCommit(t, dir, "a.go", "v1\n", "first")
		first := revParse(t, dir, "HEAD")
		writeAndCommit(t, dir, "b.go", "v1\n", "second")

		files, err := New(dir).GetChangedFiles(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, []string{"b.go"}, files)
	})

	t.Run("empty history yields empty collections, not errors", func(t *testing.T) {
		dir := t.TempDir()
		cmd := exec.Command("git", "init", "-b", "main")
		cmd.Dir = dir
		require.NoError(t, cmd.Run())

		a := New(dir)
		churn, err := a.GetFileChurn(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, churn)

		couplings, err := a.AnalyzeCoupling(ctx, 50, 2, "")
		require.NoError(t, err)
		assert.Empty(t, couplings)
	})

	t.Run("non-repo directory surfaces a typed error", func(t *testing.T) {
		dir := t.TempDir()
		_, err := New(dir).GetFileHistory(ctx, "a.go", 10)
		assert.Error(t, err)
	})
}

func contentN(n int) string {
	return "content-" + string(rune('a'+n)) + "\n"
}

func createTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cmd := exec.Command("git", "init", "-b", "main")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	return dir
}

func writeAndCommit(t *testing.T, dir, name, content, message string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	runGit(t, dir, "add", name)
	runGit(t, dir, "commit", "-m", message)
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func revParse(t *testing.T, dir, ref string) string {
	t.Helper()
	cmd := exec.Command("git", "rev-parse", ref)
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err)
	return string(out)[:40]
}
