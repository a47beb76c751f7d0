package parser

import (
	"strings"

	"github.com/bobbin-dev/bobbin/internal/chunk"
)

const (
	defaultWindow  = 50
	defaultOverlap = 10
)

// fallbackChunks splits content into overlapping line windows. Used when no
// structural parser is registered for the language, or when structural
// parsing fails.
func fallbackChunks(filePath string, content []byte, language string, window, overlap int) []chunk.Chunk {
	lines := strings.Split(string(content), "\n")
	// Split on "\n" leaves a trailing "" entry for files ending in a
	// newline; drop it so line numbers stay 1-based and inclusive.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil
	}
	if window <= 0 {
		window = defaultWindow
	}
	if overlap < 0 || overlap >= window {
		overlap = 0
	}

	var chunks []chunk.Chunk
	step := window - overlap
	for start := 0; start < len(lines); start += step {
		end := start + window
		if end > len(lines) {
			end = len(lines)
		}
		text := strings.Join(lines[start:end], "\n")
		chunks = append(chunks, chunk.Chunk{
			FilePath:  filePath,
			Language:  language,
			ChunkType: chunk.TypeModule,
			StartLine: start + 1,
			EndLine:   end,
			Content:   text,
		})
		if end == len(lines) {
			break
		}
	}
	return chunks
}
