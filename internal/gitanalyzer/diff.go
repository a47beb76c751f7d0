package gitanalyzer

import (
	"context"
	"strconv"
	"strings"
)

// GetDiffFiles parses `git diff` output for the requested comparison into
// per-file status plus added/removed line numbers. Binary files are
// reported with Binary=true and no line numbers.
func (a *analyzer) GetDiffFiles(ctx context.Context, spec DiffSpec) ([]FileDiff, error) {
	base := diffBaseArgs(spec)

	statusLines, err := a.runLines(ctx, append(append([]string{"diff"}, base...), "--find-renames", "--name-status")...)
	if err != nil {
		return nil, err
	}
	if len(statusLines) == 0 {
		return nil, nil
	}

	diffs := make([]FileDiff, 0, len(statusLines))
	for _, line := range statusLines {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		code := fields[0]
		fd := FileDiff{}
		switch {
		case strings.HasPrefix(code, "A"):
			fd.Status = StatusAdded
			fd.Path = fields[1]
		case strings.HasPrefix(code, "D"):
			fd.Status = StatusDeleted
			fd.Path = fields[1]
		case strings.HasPrefix(code, "R"):
			fd.Status = StatusRenamed
			if len(fields) >= 3 {
				fd.RenamedFrom = fields[1]
				fd.Path = fields[2]
			} else {
				fd.Path = fields[1]
			}
		default:
			fd.Status = StatusModified
			fd.Path = fields[1]
		}

		added, removed, binary, err := a.diffHunks(ctx, base, fd.Path)
		if err != nil {
			return nil, err
		}
		fd.AddedLines = added
		fd.RemovedLines = removed
		fd.Binary = binary
		diffs = append(diffs, fd)
	}
	return diffs, nil
}

func diffBaseArgs(spec DiffSpec) []string {
	switch spec.Kind {
	case DiffStaged:
		return []string{"--cached"}
	case DiffBranch:
		return []string{spec.Branch + "...HEAD"}
	case DiffRange:
		return []string{spec.Range}
	default:
		return nil
	}
}

// diffHunks returns the added (new-side) and removed (old-side) line
// numbers for one file, parsed from a zero-context unified diff.
func (a *analyzer) diffHunks(ctx context.Context, base []string, path string) (added, removed []int, binary bool, err error) {
	args := append(append([]string{"diff"}, base...), "-U0", "--", path)
	out, err := a.run(ctx, args...)
	if err != nil {
		return nil, nil, false, err
	}
	if strings.Contains(out, "Binary files") {
		return nil, nil, true, nil
	}

	var oldLine, newLine int
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			oldLine, newLine = parseHunkHeader(line)
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			continue
		case strings.HasPrefix(line, "+"):
			added = append(added, newLine)
			newLine++
		case strings.HasPrefix(line, "-"):
			removed = append(removed, oldLine)
			oldLine++
		}
	}
	return added, removed, false, nil
}

// parseHunkHeader reads "@@ -oldStart,oldCount +newStart,newCount @@" and
// returns the starting line numbers for each side.
func parseHunkHeader(header string) (oldStart, newStart int) {
	parts := strings.Fields(header)
	for _, p := range parts {
		switch {
		case strings.HasPrefix(p, "-"):
			oldStart = firstInt(p[1:])
		case strings.HasPrefix(p, "+"):
			newStart = firstInt(p[1:])
		}
	}
	return oldStart, newStart
}

func firstInt(s string) int {
	comma := strings.IndexByte(s, ',')
	if comma >= 0 {
		s = s[:comma]
	}
	n, _ := strconv.Atoi(s)
	return n
}
