package cli

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bobbin-dev/bobbin/internal/store/metadatastore"
)

// Import-statement patterns for the languages common enough in an
// indexed repo to make reverse-dependency analysis (impact/deps/refs)
// worth the extraction cost. Anything else is left with zero dependency
// edges rather than guessed at.
var (
	goImportRe = regexp.MustCompile(`"([^"]+)"`)
	pyImportRe = regexp.MustCompile(`(?m)^\s*(?:from\s+([.\w]+)\s+import|import\s+([.\w]+))`)
	jsImportRe = regexp.MustCompile(`(?m)(?:import[^'"]*from\s*|require\()\s*['"]([^'"]+)['"]`)
	rustUseRe  = regexp.MustCompile(`(?m)^\s*use\s+([\w:]+)`)
)

// extractImportStatements returns the raw module/path tokens a file
// references, per language. Go import blocks are scanned with a plain
// quoted-string regex rather than go/parser since only the path string
// matters here, not a full AST.
func extractImportStatements(language string, content []byte) []string {
	text := string(content)
	var out []string
	switch language {
	case "go":
		for _, m := range goImportRe.FindAllStringSubmatch(importBlock(text), -1) {
			out = append(out, m[1])
		}
	case "python":
		for _, m := range pyImportRe.FindAllStringSubmatch(text, -1) {
			if m[1] != "" {
				out = append(out, m[1])
			} else if m[2] != "" {
				out = append(out, m[2])
			}
		}
	case "typescript", "javascript":
		for _, m := range jsImportRe.FindAllStringSubmatch(text, -1) {
			out = append(out, m[1])
		}
	case "rust":
		for _, m := range rustUseRe.FindAllStringSubmatch(text, -1) {
			out = append(out, m[1])
		}
	}
	return out
}

// importBlock extracts the content of Go's "import (...)" block plus any
// single-line "import \"...\"" statements, so the quoted-string regex
// above doesn't pick up unrelated string literals elsewhere in the file.
func importBlock(text string) string {
	var b strings.Builder
	lines := strings.Split(text, "\n")
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "import (") {
			inBlock = true
			continue
		}
		if inBlock {
			if trimmed == ")" {
				inBlock = false
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
			continue
		}
		if strings.HasPrefix(trimmed, "import \"") {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// resolveImport maps a raw import token to one of the repo's own indexed
// files by suffix match on path components, reporting false when
// nothing matches (e.g. a third-party package); buildDependencyRows
// drops such unresolved imports.
func resolveImport(token string, allFiles []string) (string, bool) {
	token = strings.Trim(token, "./")
	if token == "" {
		return "", false
	}
	parts := strings.FieldsFunc(token, func(r rune) bool { return r == '/' || r == '.' || r == ':' })
	if len(parts) == 0 {
		return "", false
	}
	tail := parts[len(parts)-1]

	for _, f := range allFiles {
		base := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		dir := filepath.Base(filepath.Dir(f))
		if base == tail || dir == tail {
			return f, true
		}
	}
	return "", false
}

// buildDependencyRows extracts and heuristically resolves every import
// edge for one file against the full set of indexed files.
func buildDependencyRows(filePath, language string, content []byte, allFiles []string) []metadatastore.ImportDependency {
	var rows []metadatastore.ImportDependency
	for _, tok := range extractImportStatements(language, content) {
		target, resolved := resolveImport(tok, allFiles)
		if !resolved {
			continue
		}
		if target == filePath {
			continue
		}
		rows = append(rows, metadatastore.ImportDependency{
			FileA:     filePath,
			FileB:     target,
			DepType:   "import",
			Statement: tok,
			Resolved:  true,
		})
	}
	return rows
}
