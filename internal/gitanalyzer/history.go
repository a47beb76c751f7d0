package gitanalyzer

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// GetFileHistory returns up to limit commits touching file, newest first,
// with message and author.
func (a *analyzer) GetFileHistory(ctx context.Context, file string, limit int) ([]Commit, error) {
	args := []string{
		"log",
		"--pretty=format:%H\x1f%an\x1f%cI\x1f%s",
	}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	args = append(args, "--", file)

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
