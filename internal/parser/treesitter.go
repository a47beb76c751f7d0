package parser

import (
	"strings"

	"github.com/bobbin-dev/bobbin/internal/chunk"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tsc "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tsjava "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tsphp "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tspython "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tsruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	tsrust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tstypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// nodeKind maps a tree-sitter node kind to the chunk.Type it produces. Only
// node kinds that represent a standalone, nameable unit are listed; this
// mirrors the per-language category lists used by each grammar.
type nodeKind struct {
	kind string
	typ  chunk.Type
}

var languageNodeKinds = map[string][]nodeKind{
	"rust": {
		{"function_item", chunk.TypeFunction},
		{"struct_item", chunk.TypeStruct},
		{"enum_item", chunk.TypeEnum},
		{"trait_item", chunk.TypeTrait},
		{"impl_item", chunk.TypeImpl},
		{"mod_item", chunk.TypeModule},
	},
	"typescript": {
		{"function_declaration", chunk.TypeFunction},
		{"method_definition", chunk.TypeMethod},
		{"class_declaration", chunk.TypeClass},
		{"interface_declaration", chunk.TypeInterface},
	},
	"javascript": {
		{"function_declaration", chunk.TypeFunction},
		{"method_definition", chunk.TypeMethod},
		{"class_declaration", chunk.TypeClass},
	},
	"python": {
		{"function_definition", chunk.TypeFunction},
		{"class_definition", chunk.TypeClass},
	},
	"java": {
		{"method_declaration", chunk.TypeMethod},
		{"constructor_declaration", chunk.TypeMethod},
		{"class_declaration", chunk.TypeClass},
		{"interface_declaration", chunk.TypeInterface},
		{"enum_declaration", chunk.TypeEnum},
	},
	"c": {
		{"function_definition", chunk.TypeFunction},
		{"struct_specifier", chunk.TypeStruct},
		{"enum_specifier", chunk.TypeEnum},
	},
	"cpp": {
		{"function_definition", chunk.TypeFunction},
		{"class_specifier", chunk.TypeClass},
		{"struct_specifier", chunk.TypeStruct},
		{"enum_specifier", chunk.TypeEnum},
	},
	"ruby": {
		{"method", chunk.TypeMethod},
		{"class", chunk.TypeClass},
		{"module", chunk.TypeModule},
	},
	"php": {
		{"function_definition", chunk.TypeFunction},
		{"method_declaration", chunk.TypeMethod},
		{"class_declaration", chunk.TypeClass},
		{"interface_declaration", chunk.TypeInterface},
	},
}

// treeSitterParser walks a tree-sitter parse tree collecting nodes whose
// kind is a nameable declaration for the language, per languageNodeKinds.
type treeSitterParser struct {
	languages map[string]*sitter.Language
}

func newTreeSitterParser() *treeSitterParser {
	return &treeSitterParser{
		languages: map[string]*sitter.Language{
			"rust":       sitter.NewLanguage(tsrust.Language()),
			"typescript": sitter.NewLanguage(tstypescript.LanguageTypescript()),
			"javascript": sitter.NewLanguage(tstypescript.LanguageTypescript()),
			"python":     sitter.NewLanguage(tspython.Language()),
			"java":       sitter.NewLanguage(tsjava.Language()),
			"c":          sitter.NewLanguage(tsc.Language()),
			"cpp":        sitter.NewLanguage(tsc.Language()),
			"ruby":       sitter.NewLanguage(tsruby.Language()),
			"php":        sitter.NewLanguage(tsphp.LanguagePHP()),
		},
	}
}

func (p *treeSitterParser) Parse(filePath string, content []byte, language string) ([]chunk.Chunk, error) {
	lang, ok := p.languages[language]
	if !ok {
		return nil, nil
	}
	kinds, ok := languageNodeKinds[language]
	if !ok {
		return nil, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang); err != nil {
		return nil, err
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()

	lines := strings.Split(string(content), "\n")
	var chunks []chunk.Chunk

	walkTSNode(tree.RootNode(), func(n *sitter.Node) bool {
		for _, nk := range kinds {
			if n.Kind() == nk.kind {
				start := int(n.StartPosition().Row) + 1
				end := int(n.EndPosition().Row) + 1
				name := tsNodeName(n, content)
				chunks = append(chunks, chunk.Chunk{
					FilePath:  filePath,
					Language:  language,
					ChunkType: nk.typ,
					Name:      name,
					StartLine: start,
					EndLine:   end,
					Content:   extractLines(lines, start, end),
				})
				break
			}
		}
		return true
	})
	return chunks, nil
}

func walkTSNode(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walkTSNode(n.Child(uint(i)), visit)
	}
}

func tsNodeName(n *sitter.Node, source []byte) string {
	name := n.ChildByFieldName("name")
	if name == nil {
		return ""
	}
	return string(source[name.StartByte():name.EndByte()])
}
