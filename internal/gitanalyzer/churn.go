package gitanalyzer

import (
	"context"
	"strings"
)

// GetFileChurn runs a single `git log --name-only` pass and returns the
// number of commits touching each file since the given date expression
// (e.g. "30 days ago" or "2024-01-01"), passed to git as --since. An
// empty since means the entire history.
func (a *analyzer) GetFileChurn(ctx context.Context, since string) (map[string]int, error) {
	args := []string{"log", "--name-only", "--pretty=format:"}
	if since != "" {
		args = append(args, "--since="+since)
	}
	lines, err := a.runLines(ctx, args...)
	if err != nil {
		return nil, err
	}
	churn := make(map[string]int, len(lines))
	for _, line := range lines {
		f := strings.TrimSpace(line)
		if f == "" {
			continue
		}
		churn[f]++
	}
	return churn, nil
}
