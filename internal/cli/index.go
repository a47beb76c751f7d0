package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bobbin-dev/bobbin/internal/bobbinerr"
	"github.com/bobbin-dev/bobbin/internal/chunk"
	"github.com/bobbin-dev/bobbin/internal/config"
	"github.com/bobbin-dev/bobbin/internal/gitanalyzer"
	"github.com/bobbin-dev/bobbin/internal/parser"
	"github.com/bobbin-dev/bobbin/internal/store/metadatastore"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
)

var indexFull bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Parse, embed and store the repository's chunks",
	Long: `index walks the repo under --repo, applying index.include/exclude from
.bobbin/config.toml, parses every matched file into structural chunks,
embeds them, and writes the result into .bobbin/{vectors,metadata}.db.

Unchanged files (same content hash as the last run) are skipped unless
--full forces a complete reindex.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexFull, "full", false, "reindex every file regardless of content hash")
}

// indexBatchConcurrency bounds how many embedding batches run at once;
// the embedder itself is one ONNX runtime session so this mostly overlaps
// parsing/IO of the next batch with the inference of the current one.
const indexBatchConcurrency = 4

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	root, err := findRepoRoot(repoRoot)
	if err != nil {
		return err
	}
	lock, err := acquireWriterLock(root)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	cfg, err := config.NewLoader(root).Load()
	if err != nil {
		return bobbinerr.New(bobbinerr.KindConfigInvalid, "index", err)
	}

	emb, err := embedderFor(cfg)
	if err != nil {
		return err
	}

	vec, err := vectorstore.Open(dbPath(root, "vectors.db"), emb.Dimension())
	if err != nil {
		return err
	}
	defer vec.Close()
	meta, err := metadatastore.Open(dbPath(root, "metadata.db"))
	if err != nil {
		return bobbinerr.New(bobbinerr.KindIO, "index", err)
	}
	defer meta.Close()

	files, err := discoverFiles(root, cfg.Index)
	if err != nil {
		return bobbinerr.New(bobbinerr.KindIO, "index", err)
	}

	var bar *progressbar.ProgressBar
	if !quiet && !jsonOutput {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Indexing"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files/s"),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowElapsedTimeOnFinish(),
		)
	}

	p := parser.New()
	repoName := filepath.Base(root)

	type parsed struct {
		file    string
		lang    string
		chunks  []chunk.Chunk
		content []byte
		hash    string
	}

	toEmbed := make([]parsed, 0, len(files))
	skipped := 0
	for _, f := range files {
		content, readErr := readFile(root, f)
		if readErr != nil {
			continue
		}
		hash := contentHash(content)
		if !indexFull {
			if prev, ok, _ := meta.GetMeta("filehash:" + f); ok && prev == hash {
				skipped++
				if bar != nil {
					bar.Add(1)
				}
				continue
			}
		}

		lang := parser.DetectLanguage(f)
		chunks, parseErr := p.Parse(ctx, f, content, parser.Options{
			ContextLines:            cfg.Embedding.Context.ContextLines,
			ContextEnabledLanguages: cfg.Embedding.Context.EnabledLanguages,
		})
		if parseErr != nil {
			if verbose {
				fmt.Fprintf(os.Stderr, "index: %s: %v\n", f, parseErr)
			}
			continue
		}
		for i := range chunks {
			chunks[i].Repo = repoName
			chunks[i].FileHash = hash
			chunks[i] = chunks[i].WithID()
		}
		toEmbed = append(toEmbed, parsed{file: f, lang: lang, chunks: chunks, content: content, hash: hash})
		if bar != nil {
			bar.Add(1)
		}
	}

	var g errgroup.Group
	g.SetLimit(indexBatchConcurrency)
	var totalChunks atomic.Int64
	for _, item := range toEmbed {
		item := item
		g.Go(func() error {
			if len(item.chunks) == 0 {
				return nil
			}
			texts := make([]string, len(item.chunks))
			for i, c := range item.chunks {
				texts[i] = c.Content
			}
			vectors, embErr := emb.EmbedBatch(ctx, texts)
			if embErr != nil {
				return bobbinerr.New(bobbinerr.KindEmbedderFailure, "index", embErr)
			}
			entries := make([]vectorstore.ChunkWithVector, len(item.chunks))
			for i, c := range item.chunks {
				entries[i] = vectorstore.ChunkWithVector{Chunk: c, Embedding: vectors[i]}
			}
			if err := vec.DeleteByFile(repoName, item.file); err != nil {
				return err
			}
			if err := vec.Upsert(entries); err != nil {
				return err
			}
			if err := meta.DeleteDependenciesForFile(item.file); err != nil {
				return err
			}
			deps := buildDependencyRows(item.file, item.lang, item.content, files)
			if err := meta.UpsertDependencies(deps); err != nil {
				return err
			}
			if err := meta.SetMeta("filehash:"+item.file, item.hash); err != nil {
				return err
			}
			totalChunks.Add(int64(len(item.chunks)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if cfg.Git.CouplingEnabled {
		git := gitanalyzer.New(root)
		coupling, cErr := git.AnalyzeCoupling(ctx, cfg.Git.CouplingDepth, 2, "")
		if cErr == nil {
			_ = meta.UpsertCoupling(coupling)
		}
	}

	if jsonOutput {
		return printJSON(map[string]any{
			"indexed": len(toEmbed),
			"skipped": skipped,
			"chunks":  totalChunks.Load(),
		})
	}
	if !quiet {
		fmt.Printf("Indexed %d files (%d chunks), skipped %d unchanged\n", len(toEmbed), totalChunks.Load(), skipped)
	}
	return nil
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func dbPath(root, name string) string {
	return filepath.Join(root, bobbinDir, name)
}
