package embedder

import (
	"fmt"
	"os"
	"path/filepath"
)

// knownModel describes a well-known model in the registry.
type knownModel struct {
	// repo is the Hugging-Face-style identifier used to derive the cache
	// subdirectory and the download source.
	repo              string
	dimension         int
	maxSequenceLength int
}

// registry enumerates the small set of well-known models the embedder
// names directly. Unknown names resolve to a local filesystem model
// directory instead (expects model.onnx and tokenizer.json).
var registry = map[string]knownModel{
	"minilm-l6-v2":      {repo: "sentence-transformers/all-MiniLM-L6-v2", dimension: 384, maxSequenceLength: 256},
	"minilm-l12-v2":     {repo: "sentence-transformers/all-MiniLM-L12-v2", dimension: 384, maxSequenceLength: 256},
	"bge-small-en-v1.5": {repo: "BAAI/bge-small-en-v1.5", dimension: 384, maxSequenceLength: 512},
	"bge-base-en-v1.5":  {repo: "BAAI/bge-base-en-v1.5", dimension: 768, maxSequenceLength: 512},
	"gte-small":         {repo: "thenlper/gte-small", dimension: 384, maxSequenceLength: 512},
	"gte-base":          {repo: "thenlper/gte-base", dimension: 768, maxSequenceLength: 512},
	"nomic-embed-text":  {repo: "nomic-ai/nomic-embed-text-v1.5", dimension: 768, maxSequenceLength: 8192},
}

// resolveModel resolves a configured model name to an on-disk model
// directory and known/overridden dimension and sequence length. Unknown
// names are treated as filesystem paths; if that path does not exist, an
// error is returned: unknown names resolve either to a local
// filesystem model directory or to an error.
func resolveModel(cfg Config) (dir string, dimension int, maxSeqLen int, err error) {
	if km, ok := registry[cfg.Model]; ok {
		dimension, maxSeqLen = km.dimension, km.maxSequenceLength
		dir = filepath.Join(cacheDir(cfg.CacheDir), sanitizeRepoName(km.repo))
	} else {
		dir = cfg.Model
		if st, statErr := os.Stat(dir); statErr != nil || !st.IsDir() {
			return "", 0, 0, fmt.Errorf("embedder: unknown model %q is neither a registry name nor an existing directory", cfg.Model)
		}
		dimension = cfg.Dimension
		maxSeqLen = cfg.MaxSequenceLength
	}

	if cfg.Dimension > 0 {
		dimension = cfg.Dimension
	}
	if cfg.MaxSequenceLength > 0 {
		maxSeqLen = cfg.MaxSequenceLength
	}
	return dir, dimension, maxSeqLen, nil
}

func cacheDir(override string) string {
	if override != "" {
		return override
	}
	if d, err := os.UserCacheDir(); err == nil {
		return filepath.Join(d, "bobbin", "models")
	}
	return filepath.Join(os.TempDir(), "bobbin-models")
}

func sanitizeRepoName(repo string) string {
	out := make([]byte, 0, len(repo))
	for i := 0; i < len(repo); i++ {
		if repo[i] == '/' {
			out = append(out, '_')
		} else {
			out = append(out, repo[i])
		}
	}
	return string(out)
}
