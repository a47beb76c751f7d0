package parser

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/bobbin-dev/bobbin/internal/chunk"
)

// parseGoFile extracts function, method, struct, interface and top-level
// declarations using go/ast. Doc
// comments attached by go/parser.ParseComments are folded into the chunk
// that follows them ("leading comments are attached to
// the following declaration").
func parseGoFile(filePath string, content []byte) ([]chunk.Chunk, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filePath, content, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(content), "\n")
	var chunks []chunk.Chunk

	for _, decl := range node.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			chunks = append(chunks, goFuncChunk(d, fset, lines, filePath))
		case *ast.GenDecl:
			chunks = append(chunks, goGenDeclChunks(d, fset, lines, filePath)...)
		}
	}
	return chunks, nil
}

func goFuncChunk(d *ast.FuncDecl, fset *token.FileSet, lines []string, filePath string) chunk.Chunk {
	start := fset.Position(d.Pos()).Line
	if d.Doc != nil {
		start = fset.Position(d.Doc.Pos()).Line
	}
	end := fset.Position(d.End()).Line

	ct := chunk.TypeFunction
	name := d.Name.Name
	if d.Recv != nil && len(d.Recv.List) > 0 {
		ct = chunk.TypeMethod
		name = receiverTypeName(d.Recv.List[0].Type) + "." + name
	}

	return chunk.Chunk{
		FilePath:  filePath,
		Language:  "go",
		ChunkType: ct,
		Name:      name,
		StartLine: start,
		EndLine:   end,
		Content:   extractLines(lines, start, end),
	}
}

func goGenDeclChunks(d *ast.GenDecl, fset *token.FileSet, lines []string, filePath string) []chunk.Chunk {
	var chunks []chunk.Chunk
	for _, spec := range d.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}
		start := fset.Position(d.Pos()).Line
		if d.Doc != nil {
			start = fset.Position(d.Doc.Pos()).Line
		}
		end := fset.Position(ts.End()).Line

		var ct chunk.Type
		switch ts.Type.(type) {
		case *ast.StructType:
			ct = chunk.TypeStruct
		case *ast.InterfaceType:
			ct = chunk.TypeInterface
		default:
			ct = chunk.TypeModule
		}

		chunks = append(chunks, chunk.Chunk{
			FilePath:  filePath,
			Language:  "go",
			ChunkType: ct,
			Name:      ts.Name.Name,
			StartLine: start,
			EndLine:   end,
			Content:   extractLines(lines, start, end),
		})
	}
	return chunks
}

func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return ""
	}
}

// extractLines returns the 1-based inclusive [start,end] line span joined
// with newlines, clipped to the available lines.
func extractLines(lines []string, start, end int) string {
	if start < 1 || start > len(lines) {
		return ""
	}
	if end > len(lines) {
		end = len(lines)
	}
	if end < start {
		end = start
	}
	return strings.Join(lines[start-1:end], "\n")
}
