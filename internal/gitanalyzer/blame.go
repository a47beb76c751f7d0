package gitanalyzer

import (
	"context"
	"fmt"
	"strings"
)

// BlameLines returns the per-line (commit, line) attribution for
// file[start:end] via `git blame --porcelain`. Porcelain format repeats
// the full commit metadata only the first time a hash is seen in the
// blame output, but every line's header line starts with the full hash,
// so the hash is parsed from each header line.
func (a *analyzer) BlameLines(ctx context.Context, file string, start, end int) ([]BlameLine, error) {
	out, err := a.run(ctx, "blame", "--porcelain", "-L", fmt.Sprintf("%d,%d", start, end), "--", file)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	var result []BlameLine
	lines := strings.Split(out, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			continue
		}
		// A header line has the form: "<hash> <orig-line> <final-line> [<num-lines>]"
		fields := strings.Fields(line)
		if len(fields) >= 3 && isHexHash(fields[0]) {
			finalLine := atoiSafe(fields[2])
			result = append(result, BlameLine{Line: finalLine, Commit: fields[0]})
		}
	}
	return result, nil
}

func isHexHash(s string) bool {
	if len(s) < 7 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}
