package parser

import (
	"strings"

	"github.com/bobbin-dev/bobbin/internal/chunk"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	astext "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/extension"
	gmtext "github.com/yuin/goldmark/text"
)

// markdownParser splits a markdown document into one section chunk per
// heading (breadcrumb name, span until the next heading of the same or
// a higher level, i.e. one with as many or fewer #), standalone table
// and fenced-code-block chunks, and a single doc
// chunk for a leading YAML frontmatter block.
type markdownParser struct {
	md goldmark.Markdown
}

func newMarkdownParser() *markdownParser {
	return &markdownParser{
		md: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

type headingMark struct {
	level int
	title string
	start int // byte offset
}

func (p *markdownParser) Parse(filePath string, content []byte) ([]chunk.Chunk, error) {
	offsets := lineOffsets(content)
	var chunks []chunk.Chunk

	if fm, end := extractFrontmatter(content); fm != "" {
		chunks = append(chunks, chunk.Chunk{
			FilePath:  filePath,
			Language:  "markdown",
			ChunkType: chunk.TypeDoc,
			Name:      "frontmatter",
			StartLine: 1,
			EndLine:   byteToLine(offsets, end),
			Content:   fm,
		})
	}

	doc := p.md.Parser().Parse(gmtext.NewReader(content))

	var headings []headingMark
	var tables []*astext.Table
	var codeBlocks []*ast.FencedCodeBlock

	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case *ast.Heading:
			headings = append(headings, headingMark{
				level: v.Level,
				title: headingText(v, content),
				start: headingStart(v, content),
			})
		case *astext.Table:
			tables = append(tables, v)
		case *ast.FencedCodeBlock:
			codeBlocks = append(codeBlocks, v)
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(doc)

	for i, h := range headings {
		end := len(content)
		for j := i + 1; j < len(headings); j++ {
			if headings[j].level <= h.level {
				end = headings[j].start
				break
			}
		}
		name := breadcrumb(headings, i)
		startLine := byteToLine(offsets, h.start)
		endLine := byteToLine(offsets, end)
		if endLine > startLine {
			endLine--
		}
		chunks = append(chunks, chunk.Chunk{
			FilePath:  filePath,
			Language:  "markdown",
			ChunkType: chunk.TypeSection,
			Name:      name,
			StartLine: startLine,
			EndLine:   endLine,
			Content:   sliceLines(content, offsets, startLine, endLine),
		})
	}

	for _, t := range tables {
		start, end := nodeLineSpan(t, content, offsets)
		chunks = append(chunks, chunk.Chunk{
			FilePath:  filePath,
			Language:  "markdown",
			ChunkType: chunk.TypeTable,
			StartLine: start,
			EndLine:   end,
			Content:   sliceLines(content, offsets, start, end),
		})
	}

	for _, cb := range codeBlocks {
		start, end := nodeLineSpan(cb, content, offsets)
		lang := string(cb.Language(content))
		chunks = append(chunks, chunk.Chunk{
			FilePath:  filePath,
			Language:  "markdown",
			ChunkType: chunk.TypeCodeBlock,
			Name:      lang,
			StartLine: start,
			EndLine:   end,
			Content:   sliceLines(content, offsets, start, end),
		})
	}

	return chunks, nil
}

func breadcrumb(headings []headingMark, idx int) string {
	var stack []string
	level := headings[idx].level
	stack = append(stack, headings[idx].title)
	for i := idx - 1; i >= 0 && level > 1; i-- {
		if headings[i].level < level {
			stack = append([]string{headings[i].title}, stack...)
			level = headings[i].level
		}
	}
	return strings.Join(stack, " > ")
}

func headingText(h *ast.Heading, source []byte) string {
	var sb strings.Builder
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
	}
	return sb.String()
}

func headingStart(h *ast.Heading, source []byte) int {
	lines := h.Lines()
	if lines.Len() > 0 {
		return lines.At(0).Start
	}
	return 0
}

func nodeLineSpan(n ast.Node, source []byte, offsets []int) (int, int) {
	lines := n.Lines()
	if lines.Len() == 0 {
		return 1, 1
	}
	first := lines.At(0)
	last := lines.At(lines.Len() - 1)
	return byteToLine(offsets, first.Start), byteToLine(offsets, last.Stop)
}

// extractFrontmatter returns the raw "---\n...\n---" block (including
// delimiters) at the head of the file, and its end byte offset, or ("", 0)
// if none is present.
func extractFrontmatter(content []byte) (string, int) {
	const delim = "---"
	s := string(content)
	if !strings.HasPrefix(s, delim+"\n") {
		return "", 0
	}
	rest := s[len(delim)+1:]
	idx := strings.Index(rest, "\n"+delim)
	if idx < 0 {
		return "", 0
	}
	end := len(delim) + 1 + idx + 1 + len(delim)
	return s[:end], end
}

func lineOffsets(content []byte) []int {
	offsets := []int{0}
	for i, b := range content {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// byteToLine converts a byte offset to a 1-based line number via binary
// search over precomputed line-start offsets.
func byteToLine(offsets []int, pos int) int {
	lo, hi := 0, len(offsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if offsets[mid] <= pos {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

func sliceLines(content []byte, offsets []int, startLine, endLine int) string {
	lines := strings.Split(string(content), "\n")
	if startLine < 1 || startLine > len(lines) {
		return ""
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if endLine < startLine {
		endLine = startLine
	}
	return strings.Join(lines[startLine-1:endLine], "\n")
}
