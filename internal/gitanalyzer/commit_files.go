package gitanalyzer

import "context"

// GetCommitFiles returns the files touched by commitHash via
// `git diff-tree --name-only -r --root` (--root so a root commit lists
// the files it added instead of nothing).
func (a *analyzer) GetCommitFiles(ctx context.Context, commitHash string) ([]string, error) {
	return a.runLines(ctx, "diff-tree", "--no-commit-id", "--name-only", "-r", "--root", commitHash)
}

// GetChangedFiles returns the files changed between sinceCommit and HEAD,
// for incremental indexing.
func (a *analyzer) GetChangedFiles(ctx context.Context, sinceCommit string) ([]string, error) {
	if sinceCommit == "" {
		return nil, nil
	}
	return a.runLines(ctx, "diff", "--name-only", sinceCommit, "HEAD")
}
