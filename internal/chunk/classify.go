package chunk

import (
	"path"
	"strings"
)

// ClassifyFile assigns a file_path to a Category using suffix, basename and
// path-component heuristics. It is a pure function: the same
// path always yields the same category, which the retriever, the hook
// sectioning, and the provenance bridge all rely on.
func ClassifyFile(filePath string) Category {
	lower := strings.ToLower(filePath)
	base := strings.ToLower(path.Base(filePath))
	ext := path.Ext(base)

	for _, comp := range strings.Split(lower, "/") {
		switch comp {
		case "test", "tests", "__tests__", "spec", "specs":
			return CategoryTest
		}
	}
	if strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") ||
		strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.go") ||
		strings.HasSuffix(base, "_test.py") {
		return CategoryTest
	}

	switch ext {
	case ".md", ".mdx", ".rst", ".adoc", ".txt":
		return CategoryDocumentation
	}
	switch base {
	case "readme", "readme.md", "changelog.md", "changelog", "contributing.md":
		return CategoryDocumentation
	}
	if strings.HasPrefix(lower, "docs/") || strings.Contains(lower, "/docs/") {
		return CategoryDocumentation
	}

	switch ext {
	case ".toml", ".yaml", ".yml", ".ini", ".cfg", ".conf":
		return CategoryConfig
	}
	switch base {
	case "dockerfile", "makefile", ".gitignore", ".env", ".env.example",
		"go.mod", "go.sum", "package.json", "cargo.toml", "pyproject.toml":
		return CategoryConfig
	}

	return CategorySource
}
