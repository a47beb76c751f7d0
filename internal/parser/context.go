package parser

import (
	"strings"

	"github.com/bobbin-dev/bobbin/internal/chunk"
)

// enrichWithContext populates FullContext on each chunk with its own text
// plus up to contextLines of surrounding source, clipped to the file. The
// embedder reads FullContext when present; all ranking, display and budget
// math elsewhere uses Content only.
func enrichWithContext(chunks []chunk.Chunk, content []byte, contextLines int) {
	lines := strings.Split(string(content), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	for i := range chunks {
		c := &chunks[i]
		start := c.StartLine - contextLines
		if start < 1 {
			start = 1
		}
		end := c.EndLine + contextLines
		if end > len(lines) {
			end = len(lines)
		}
		c.FullContext = extractLines(lines, start, end)
	}
}
