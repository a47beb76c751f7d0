package gitanalyzer

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// ListCommits returns up to limit commits reachable from HEAD, newest
// first, excluding merge commits. Used by the calibrator to sample a
// commit history independent of any one file.
func (a *analyzer) ListCommits(ctx context.Context, limit int) ([]Commit, error) {
	args := []string{"log", "--no-merges", "--pretty=format:%H\x1f%an\x1f%cI\x1f%s"}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}

	lines, err := a.runLines(ctx, args...)
	if err != nil {
		return nil, err
	}
	commits := make([]Commit, 0, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, "\x1f", 4)
		if len(parts) != 4 {
			continue
		}
		date, _ := time.Parse(time.RFC3339, parts[2])
		commits = append(commits, Commit{
			Hash:    parts[0],
			Author:  parts[1],
			Date:    date,
			Message: parts[3],
		})
	}
	return commits, nil
}
