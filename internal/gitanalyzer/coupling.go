package gitanalyzer

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// AnalyzeCoupling walks commits newest-first up to depth, recording the
// set of touched files per commit, then emits a FileCoupling for every
// unordered file pair whose co-change count reaches threshold.
func (a *analyzer) AnalyzeCoupling(ctx context.Context, depth, threshold int, sinceCommit string) ([]FileCoupling, error) {
	// \x1e marks the start of each commit record, \x1f separates its hash
	// from its commit date; neither byte can appear in a git pretty-format
	// expansion or a file path, so splitting on them is unambiguous.
	args := []string{"log", "--name-only", "--pretty=format:%x1e%H%x1f%cI", "-n", strconv.Itoa(depth)}
	if sinceCommit != "" {
		args = append(args, sinceCommit+"..HEAD")
	}
	out, err := a.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	type pairKey struct{ a, b string }
	counts := make(map[pairKey]int)
	lastSeen := make(map[pairKey]time.Time)

	for _, record := range strings.Split(out, "\x1e") {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		lines := strings.Split(record, "\n")
		header := strings.SplitN(lines[0], "\x1f", 2)
		var commitTime time.Time
		if len(header) == 2 {
			commitTime, _ = time.Parse(time.RFC3339, header[1])
		}

		var files []string
		for _, line := range lines[1:] {
			f := strings.TrimSpace(line)
			if f != "" {
				files = append(files, f)
			}
		}
		if len(files) < 2 {
			continue
		}
		for i := 0; i < len(files); i++ {
			for j := i + 1; j < len(files); j++ {
				fa, fb := files[i], files[j]
				if fb < fa {
					fa, fb = fb, fa
				}
				key := pairKey{fa, fb}
				counts[key]++
				if commitTime.After(lastSeen[key]) {
					lastSeen[key] = commitTime
				}
			}
		}
	}

	var result []FileCoupling
	for key, n := range counts {
		if n < threshold {
			continue
		}
		result = append(result, FileCoupling{
			FileA:        key.a,
			FileB:        key.b,
			CoChanges:    n,
			Score:        couplingScore(n),
			LastCoChange: lastSeen[key],
		})
	}
	return result, nil
}

// couplingScore squashes a raw co-change count into (0,1) via a simple
// saturating curve, so repeated co-changes keep adding signal without
// letting a handful of very hot pairs dominate every ranking.
func couplingScore(coChanges int) float64 {
	n := float64(coChanges)
	return n / (n + 3)
}
