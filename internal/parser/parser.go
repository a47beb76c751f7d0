// Package parser maps file bytes to an ordered sequence of typed chunks
// Structural parsing covers Rust, TypeScript/JavaScript,
// Python, Go, Java, C/C++ and Markdown; anything else, or anything that
// fails to parse, falls back to line-window chunking. The parser never
// panics on malformed input.
package parser

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/bobbin-dev/bobbin/internal/chunk"
)

// Options configures a parse call.
type Options struct {
	// Language overrides auto-detection by extension.
	Language string
	// ContextLines, when > 0, enables full_context enrichment: chunk text
	// plus up to this many surrounding source lines, clipped to the file.
	ContextLines int
	// ContextEnabledLanguages restricts enrichment to these languages; empty
	// means all languages configured with ContextLines > 0.
	ContextEnabledLanguages []string
}

// Parser is the structural chunker contract.
type Parser interface {
	// Parse maps file bytes to an ordered sequence of Chunks. It never
	// returns a fatal error for malformed input: on parse failure it falls
	// back to line-window chunking and returns a nil error.
	Parse(ctx context.Context, filePath string, content []byte, opts Options) ([]chunk.Chunk, error)
}

// DetectLanguage maps a file extension to a lower-case language tag. It
// returns "" when the extension is unrecognized.
func DetectLanguage(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".go":
		return "go"
	case ".ts", ".tsx", ".mts", ".cts":
		return "typescript"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".py", ".pyi":
		return "python"
	case ".rs":
		return "rust"
	case ".c", ".h":
		return "c"
	case ".cc", ".cpp", ".cxx", ".hpp", ".hh":
		return "cpp"
	case ".java":
		return "java"
	case ".rb":
		return "ruby"
	case ".php":
		return "php"
	case ".md", ".mdx", ".markdown":
		return "markdown"
	default:
		return ""
	}
}

// New returns the default multi-language Parser, routing Go through go/ast,
// Rust/TypeScript/JavaScript/Python/Java/C/C++/Ruby/PHP through tree-sitter,
// Markdown through a dedicated section/table/code-block splitter, and
// everything else through the line-window fallback.
func New() Parser {
	return &multiParser{
		treeSitter: newTreeSitterParser(),
		markdown:   newMarkdownParser(),
	}
}

type multiParser struct {
	treeSitter *treeSitterParser
	markdown   *markdownParser
}

func (p *multiParser) Parse(ctx context.Context, filePath string, content []byte, opts Options) ([]chunk.Chunk, error) {
	lang := opts.Language
	if lang == "" {
		lang = DetectLanguage(filePath)
	}

	var chunks []chunk.Chunk
	var err error

	switch lang {
	case "go":
		chunks, err = parseGoFile(filePath, content)
	case "markdown":
		chunks, err = p.markdown.Parse(filePath, content)
	case "rust", "typescript", "javascript", "python", "java", "c", "cpp", "ruby", "php":
		chunks, err = p.treeSitter.Parse(filePath, content, lang)
	default:
		chunks = nil
	}

	if err != nil || len(chunks) == 0 {
		chunks = fallbackChunks(filePath, content, lang, defaultWindow, defaultOverlap)
	}

	if opts.ContextLines > 0 && enrichmentEnabled(lang, opts.ContextEnabledLanguages) {
		enrichWithContext(chunks, content, opts.ContextLines)
	}

	for i := range chunks {
		chunks[i] = chunks[i].WithID()
	}
	return chunks, nil
}

func enrichmentEnabled(lang string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == lang {
			return true
		}
	}
	return false
}
