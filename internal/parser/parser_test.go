package parser

import (
	"context"
	"testing"

	"github.com/bobbin-dev/bobbin/internal/chunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "go", DetectLanguage("pkg/foo.go"))
	assert.Equal(t, "markdown", DetectLanguage("README.md"))
	assert.Equal(t, "rust", DetectLanguage("src/lib.rs"))
	assert.Equal(t, "", DetectLanguage("data.bin"))
}

func TestParseGoFileExtractsFunctionsAndTypes(t *testing.T) {
	src := []byte(`package sample

// Greeter says hello.
type Greeter struct {
	Name string
}

func (g *Greeter) Greet() string {
	return "hello " + g.Name
}

func New(name string) *Greeter {
	return &Greeter{Name: name}
}
`)

	p := New()
	chunks, err := p.Parse(context.Background(), "sample.go", src, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var names []string
	var types []chunk.Type
	for _, c := range chunks {
		names = append(names, c.Name)
		types = append(types, c.ChunkType)
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, "go", c.Language)
	}
	assert.Contains(t, names, "Greeter")
	assert.Contains(t, names, "Greeter.Greet")
	assert.Contains(t, names, "New")
	assert.Contains(t, types, chunk.TypeStruct)
	assert.Contains(t, types, chunk.TypeMethod)
	assert.Contains(t, types, chunk.TypeFunction)
}

func TestParseGoFileOnSyntaxErrorFallsBackToLineWindows(t *testing.T) {
	src := []byte("package sample\n\nfunc broken( {\n")

	p := New()
	chunks, err := p.Parse(context.Background(), "broken.go", src, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, chunk.TypeModule, chunks[0].ChunkType)
}

func TestParseMarkdownProducesSectionsAndCodeBlocks(t *testing.T) {
	src := []byte(`# Title

Intro text.

## Usage

Run it like this:

` + "```go\nfmt.Println(\"hi\")\n```" + `

## Config

| Key | Value |
|-----|-------|
| a   | b     |
`)

	p := New()
	chunks, err := p.Parse(context.Background(), "doc.md", src, Options{})
	require.NoError(t, err)

	var sections, tables, codeBlocks int
	var names []string
	for _, c := range chunks {
		switch c.ChunkType {
		case chunk.TypeSection:
			sections++
			names = append(names, c.Name)
		case chunk.TypeTable:
			tables++
		case chunk.TypeCodeBlock:
			codeBlocks++
		}
	}
	assert.Equal(t, 3, sections)
	assert.Equal(t, 1, tables)
	assert.Equal(t, 1, codeBlocks)
	assert.Contains(t, names, "Title > Usage")
	assert.Contains(t, names, "Title > Config")
}

func TestParseMarkdownExtractsFrontmatter(t *testing.T) {
	src := []byte("---\ntitle: Hello\n---\n\n# Body\n\ntext\n")

	p := New()
	chunks, err := p.Parse(context.Background(), "doc.md", src, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, chunk.TypeDoc, chunks[0].ChunkType)
	assert.Contains(t, chunks[0].Content, "title: Hello")
}

func TestParseUnknownLanguageFallsBackToLineWindows(t *testing.T) {
	lines := ""
	for i := 0; i < 120; i++ {
		lines += "line of text\n"
	}

	p := New()
	chunks, err := p.Parse(context.Background(), "notes.txt", []byte(lines), Options{})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 50, chunks[0].EndLine)
	assert.Equal(t, 41, chunks[1].StartLine)
}

func TestParseWithContextLinesPopulatesFullContext(t *testing.T) {
	src := []byte(`package sample

func A() {}

func B() {}

func C() {}
`)
	p := New()
	chunks, err := p.Parse(context.Background(), "sample.go", src, Options{ContextLines: 2})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.NotEmpty(t, c.FullContext)
	}
}

func TestParseAssignsStableIDForIdenticalInput(t *testing.T) {
	src := []byte("package sample\n\nfunc A() {}\n")
	p := New()
	first, err := p.Parse(context.Background(), "sample.go", src, Options{})
	require.NoError(t, err)
	second, err := p.Parse(context.Background(), "sample.go", src, Options{})
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
}
