package cli

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bobbin-dev/bobbin/internal/config"
)

// discoverFiles walks root and returns every regular file path (relative
// to root) matching cfg.Index.Include and not matching cfg.Index.Exclude.
// Patterns are matched with filepath.Match against the file's
// root-relative, slash-separated path, following the teacher's
// stdlib-only approach to include/exclude filtering rather than pulling
// in a separate glob library.
func discoverFiles(root string, cfg config.IndexConfig) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if skipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !matchesAny(rel, cfg.Include) {
			return nil
		}
		if matchesAny(rel, cfg.Exclude) {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	return out, err
}

var alwaysSkipDir = map[string]bool{
	".git": true, ".bobbin": true,
}

func skipDir(rel string) bool {
	return alwaysSkipDir[filepath.Base(rel)]
}

func matchesAny(path string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, path); ok {
			return true
		}
		// "**/*" and directory-prefix patterns like "vendor/**" don't mean
		// what filepath.Match thinks they mean; fall back to a basename
		// match and a path-prefix match so the common glob shapes in
		// config.Default() still work without a dedicated glob library.
		if ok, _ := filepath.Match(p, filepath.Base(path)); ok {
			return true
		}
		if prefix, isTree := cutTreeSuffix(p); isTree && hasPathPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// cutTreeSuffix recognizes the "dir/**" shape and returns ("dir", true).
func cutTreeSuffix(pattern string) (string, bool) {
	const suffix = "/**"
	if len(pattern) > len(suffix) && pattern[len(pattern)-len(suffix):] == suffix {
		return pattern[:len(pattern)-len(suffix)], true
	}
	if pattern == "**/*" {
		return "", true
	}
	return "", false
}

func hasPathPrefix(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	return path == prefix || (len(path) > len(prefix) && path[:len(prefix)+1] == prefix+"/")
}

func readFile(root, relPath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(root, relPath))
}
