package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/bobbin-dev/bobbin/internal/assembler"
	"github.com/bobbin-dev/bobbin/internal/bobbinerr"
	"github.com/bobbin-dev/bobbin/internal/config"
	"github.com/bobbin-dev/bobbin/internal/embedder"
	"github.com/bobbin-dev/bobbin/internal/gitanalyzer"
	"github.com/bobbin-dev/bobbin/internal/retriever"
	"github.com/bobbin-dev/bobbin/internal/store/metadatastore"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
)

// bobbinDir is the on-disk layout name every command resolves relative
// to the repo root: config.toml, the two SQLite stores, hook state and
// metrics, and the writer lock all live under here.
const bobbinDir = ".bobbin"

// env bundles everything a command needs once the repo root and config
// are resolved: the dual store, the embedder, the git analyzer, and the
// retriever/assembler built on top of them. Commands that work on the
// index (search, status, deps...) open it through openEnv; commands
// that don't need an existing index (init) never call openEnv.
type env struct {
	root string
	cfg  *config.Config

	vec  *vectorstore.Store
	meta *metadatastore.Store
	emb  embedder.Embedder
	git  gitanalyzer.Analyzer

	retriever *retriever.Retriever
	assembler *assembler.Assembler
}

// findRepoRoot walks upward from start looking for a .bobbin directory,
// matching the "missing index" contract: KindNotInitialized is the one
// error the CLI maps to exit code 2 without the user having done
// anything wrong beyond not running `init` yet.
func findRepoRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", bobbinerr.New(bobbinerr.KindIO, "findRepoRoot", err)
	}
	for {
		if info, statErr := os.Stat(filepath.Join(dir, bobbinDir)); statErr == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", bobbinerr.New(bobbinerr.KindNotInitialized, "findRepoRoot",
				fmt.Errorf("no %s directory found above %s; run `bobbin init`", bobbinDir, start))
		}
		dir = parent
	}
}

// openEnv resolves the repo root, loads config, and opens the dual
// store plus the embedder/git/retriever/assembler stack on top of it.
func openEnv() (*env, error) {
	root, err := findRepoRoot(repoRoot)
	if err != nil {
		return nil, err
	}

	cfg, err := config.NewLoader(root).Load()
	if err != nil {
		return nil, bobbinerr.New(bobbinerr.KindConfigInvalid, "openEnv", err)
	}

	emb, err := embedderFor(cfg)
	if err != nil {
		return nil, err
	}

	vec, err := vectorstore.Open(filepath.Join(root, bobbinDir, "vectors.db"), emb.Dimension())
	if err != nil {
		return nil, err
	}
	meta, err := metadatastore.Open(filepath.Join(root, bobbinDir, "metadata.db"))
	if err != nil {
		vec.Close()
		return nil, bobbinerr.New(bobbinerr.KindIO, "openEnv", err)
	}

	git := gitanalyzer.New(root)
	lastCommit := func(filePath string) (int64, bool) {
		history, err := git.GetFileHistory(context.Background(), filePath, 1)
		if err != nil || len(history) == 0 {
			return 0, false
		}
		return history[0].Date.Unix(), true
	}

	retr := retriever.New(vec, emb, lastCommit)
	asm := assembler.New(retr, vec, meta, git)

	return &env{root: root, cfg: cfg, vec: vec, meta: meta, emb: emb, git: git, retriever: retr, assembler: asm}, nil
}

// embedderFor resolves the shared-process embedder for cfg's model,
// loading it on first use (see internal/embedder's process-wide cache).
func embedderFor(cfg *config.Config) (embedder.Embedder, error) {
	emb, err := embedder.Get(embedder.Config{
		Model:     cfg.Embedding.Model,
		BatchSize: cfg.Embedding.BatchSize,
	})
	if err != nil {
		return nil, bobbinerr.New(bobbinerr.KindEmbedderFailure, "embedderFor", err)
	}
	return emb, nil
}

// Close releases the store handles. The embedder is shared-process
// state (internal/embedder's cache) and is never closed here; only
// explicit process teardown (none of these short-lived CLI commands)
// calls embedder.Teardown.
func (e *env) Close() {
	if e.vec != nil {
		e.vec.Close()
	}
	if e.meta != nil {
		e.meta.Close()
	}
}

// acquireWriterLock takes the single-writer advisory lock on .bobbin/
// for commands that mutate the stores (index, calibrate's persist
// step, watch). Readers never call this.
func acquireWriterLock(root string) (*flock.Flock, error) {
	lockPath := filepath.Join(root, bobbinDir, "writer.lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, bobbinerr.New(bobbinerr.KindIO, "acquireWriterLock", err)
	}
	if !ok {
		return nil, bobbinerr.New(bobbinerr.KindIO, "acquireWriterLock",
			fmt.Errorf("another bobbin process is writing to %s", root))
	}
	return lock, nil
}

// printJSON marshals v as indented JSON to stdout, the shared --json
// rendering path every command uses instead of hand-rolled formatting.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
