package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/analyses"
	"github.com/bobbin-dev/bobbin/internal/assembler"
)

var (
	primeBudget int
	primeTop    int
)

var primeCmd = &cobra.Command{
	Use:   "prime",
	Short: "Warm the embedder and assemble orientation context for a fresh session",
	Long: `prime loads the embedder into this process's model cache (the
cache does not outlive the process, so later commands load the model
again) and assembles a context
bundle seeded from the repo's current hotspots, a quick "what matters
here" primer for a session with no prompt yet. Unlike "hook
prime-context", this is a plain CLI entry point: no stdin JSON, no gate
or dedup state.`,
	RunE: runPrime,
}

func init() {
	rootCmd.AddCommand(primeCmd)
	primeCmd.Flags().IntVar(&primeBudget, "budget", 300, "max lines in the orientation bundle")
	primeCmd.Flags().IntVar(&primeTop, "top", 5, "number of hotspot files to seed from")
}

func runPrime(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	repo, err := soleRepo(e)
	if err != nil {
		return err
	}

	ctx := context.Background()
	churn, err := e.git.GetFileChurn(ctx, "")
	if err != nil {
		return err
	}
	hs := analyses.NewHotspots(e.vec)
	hotspots, err := hs.Analyze(repo, churn, primeTop)
	if err != nil {
		return err
	}

	var seeds []assembler.SeedChunk
	for _, h := range hotspots {
		chunks, cErr := e.vec.GetChunksForFile(repo, h.FilePath)
		if cErr != nil || len(chunks) == 0 {
			continue
		}
		seeds = append(seeds, assembler.SeedChunk{Chunk: chunks[0], Score: h.Score, MatchType: "hotspot"})
	}
	if len(seeds) == 0 {
		if jsonOutput {
			return printJSON(map[string]any{"hotspots": hotspots, "bundle": nil})
		}
		if !quiet {
			fmt.Println("No hotspots found to prime from; index may be empty.")
		}
		return nil
	}

	cfg := assembler.DefaultConfig()
	cfg.BudgetLines = primeBudget
	cfg.ContentMode = assembler.ContentPreview

	bundle, err := e.assembler.AssembleFromSeeds(ctx, seeds, cfg)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(map[string]any{"hotspots": hotspots, "bundle": bundle})
	}
	if quiet {
		return nil
	}
	fmt.Printf("Primed from %d hotspot(s), %d files in bundle (%d/%d lines)\n",
		len(seeds), bundle.Summary.TotalFiles, bundle.Budget.UsedLines, bundle.Budget.MaxLines)
	for _, f := range bundle.Files {
		fmt.Printf("  %s (%s)\n", f.Path, f.Relevance)
	}
	return nil
}
