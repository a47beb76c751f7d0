package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/parser"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
	"github.com/bobbin-dev/bobbin/internal/watch"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the repository and reindex files as they change",
	Long: `watch holds the writer lock for its whole run, debouncing
filesystem events into batches and reindexing each changed file (or
deleting it from the store) as the batch fires, and invalidating the
file in this process's own assembler cache. A separate "serve"
process keeps its own cache, which watch does not reach. Runs until
interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period before a batch of changes is processed")
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	root := e.root

	lock, err := acquireWriterLock(root)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	vec, meta, emb, cfg := e.vec, e.meta, e.emb, e.cfg
	repoName := filepath.Base(root)
	p := parser.New()

	matcher := func(path string) bool {
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return false
		}
		rel = filepath.ToSlash(rel)
		return matchesAny(rel, cfg.Index.Include) && !matchesAny(rel, cfg.Index.Exclude)
	}

	w, err := watch.New([]string{root}, matcher, watch.WithDebounce(watchDebounce))
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	reindexOne := func(absPath string) {
		rel, relErr := filepath.Rel(root, absPath)
		if relErr != nil {
			return
		}
		rel = filepath.ToSlash(rel)
		content, readErr := readFile(root, rel)
		if readErr != nil {
			return
		}
		hash := contentHash(content)
		lang := parser.DetectLanguage(rel)
		chunks, parseErr := p.Parse(ctx, rel, content, parser.Options{
			ContextLines:            cfg.Embedding.Context.ContextLines,
			ContextEnabledLanguages: cfg.Embedding.Context.EnabledLanguages,
		})
		if parseErr != nil {
			if verbose {
				fmt.Fprintf(os.Stderr, "watch: %s: %v\n", rel, parseErr)
			}
			return
		}
		for i := range chunks {
			chunks[i].Repo = repoName
			chunks[i].FileHash = hash
			chunks[i] = chunks[i].WithID()
		}
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		var vectors [][]float32
		if len(texts) > 0 {
			vectors, parseErr = emb.EmbedBatch(ctx, texts)
			if parseErr != nil {
				fmt.Fprintf(os.Stderr, "watch: embed %s: %v\n", rel, parseErr)
				return
			}
		}
		entries := make([]vectorstore.ChunkWithVector, len(chunks))
		for i, c := range chunks {
			entries[i] = vectorstore.ChunkWithVector{Chunk: c, Embedding: vectors[i]}
		}
		_ = vec.DeleteByFile(repoName, rel)
		_ = vec.Upsert(entries)
		_ = meta.DeleteDependenciesForFile(rel)

		allFiles, _ := vec.GetAllFilePaths(repoName)
		_ = meta.UpsertDependencies(buildDependencyRows(rel, lang, content, append(allFiles, rel)))
		_ = meta.SetMeta("filehash:"+rel, hash)

		e.assembler.InvalidateFile(repoName, rel)
	}

	deleteOne := func(absPath string) {
		rel, relErr := filepath.Rel(root, absPath)
		if relErr != nil {
			return
		}
		rel = filepath.ToSlash(rel)
		_ = vec.DeleteByFile(repoName, rel)
		_ = meta.DeleteDependenciesForFile(rel)
		e.assembler.InvalidateFile(repoName, rel)
	}

	if !quiet {
		fmt.Printf("Watching %s (debounce=%s). Ctrl-C to stop.\n", root, watchDebounce)
	}

	w.Start(ctx, func(set watch.ChangeSet) {
		for _, f := range set.Changed {
			reindexOne(f)
		}
		for _, f := range set.Deleted {
			deleteOne(f)
		}
		if !quiet && (len(set.Changed) > 0 || len(set.Deleted) > 0) {
			fmt.Printf("reindexed %d, removed %d\n", len(set.Changed), len(set.Deleted))
		}
	})

	<-ctx.Done()
	return nil
}
