package hook

import (
	"strings"

	"github.com/bobbin-dev/bobbin/internal/assembler"
	"github.com/bobbin-dev/bobbin/internal/chunk"
)

// formatBundle renders a bundle as the additionalContext string: a
// "Source Files" section (source, test, and config files together)
// ahead of a "Documentation" section, each file listing its admitted
// chunks in order.
func formatBundle(bundle assembler.ContextBundle, showDocs bool) string {
	var sourceFiles, docFiles []assembler.FileEntry
	for _, f := range bundle.Files {
		if chunk.ClassifyFile(f.Path) == chunk.CategoryDocumentation {
			docFiles = append(docFiles, f)
			continue
		}
		sourceFiles = append(sourceFiles, f)
	}

	var b strings.Builder
	if len(sourceFiles) > 0 {
		b.WriteString("## Source Files\n\n")
		writeFiles(&b, sourceFiles)
	}
	if showDocs && len(docFiles) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## Documentation\n\n")
		writeFiles(&b, docFiles)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeFiles(b *strings.Builder, files []assembler.FileEntry) {
	for _, f := range files {
		b.WriteString("### ")
		b.WriteString(f.Path)
		b.WriteString("\n\n")
		for _, c := range f.Chunks {
			if c.Content == "" {
				continue
			}
			b.WriteString("```")
			b.WriteString(f.Language)
			b.WriteString("\n")
			b.WriteString(c.Content)
			if !strings.HasSuffix(c.Content, "\n") {
				b.WriteString("\n")
			}
			b.WriteString("```\n\n")
		}
	}
}
