package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/assembler"
)

var (
	relatedBudget int
	relatedDepth  int
)

var relatedCmd = &cobra.Command{
	Use:   "related <file>",
	Short: "Assemble a context bundle seeded from one file's chunks",
	Long: `related skips search entirely and expands directly from every
chunk in <file>: its coupled files and bridged documentation, packed
into the same line budget as "context".`,
	Args: cobra.ExactArgs(1),
	RunE: runRelated,
}

func init() {
	rootCmd.AddCommand(relatedCmd)
	relatedCmd.Flags().IntVar(&relatedBudget, "budget", 0, "max lines (0 uses the configured default)")
	relatedCmd.Flags().IntVar(&relatedDepth, "depth", -1, "coupling expansion depth, 0-3 (-1 uses the configured default)")
}

func runRelated(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	repo, err := soleRepo(e)
	if err != nil {
		return err
	}
	chunks, err := e.vec.GetChunksForFile(repo, args[0])
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no indexed chunks for %s", args[0])
	}

	seeds := make([]assembler.SeedChunk, len(chunks))
	for i, c := range chunks {
		seeds[i] = assembler.SeedChunk{Chunk: c, Score: 1, MatchType: "seed"}
	}

	cfg := assembler.DefaultConfig()
	cfg.CouplingThreshold = e.cfg.Git.CouplingThreshold
	if relatedBudget > 0 {
		cfg.BudgetLines = relatedBudget
	}
	if relatedDepth >= 0 {
		cfg.Depth = relatedDepth
	}

	bundle, err := e.assembler.AssembleFromSeeds(context.Background(), seeds, cfg)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(bundle)
	}
	if quiet {
		return nil
	}
	for _, f := range bundle.Files {
		fmt.Printf("%s (%s)\n", f.Path, f.Relevance)
	}
	return nil
}

// soleRepo resolves the one repo name to scope file lookups by, erroring
// if the index spans more than one (related/refs/impact and the other
// file-scoped commands take a bare file path, not a repo-qualified one).
func soleRepo(e *env) (string, error) {
	repos, err := e.vec.ListRepos()
	if err != nil {
		return "", err
	}
	switch len(repos) {
	case 0:
		return "", fmt.Errorf("index is empty; run `bobbin index` first")
	case 1:
		return repos[0], nil
	default:
		return "", fmt.Errorf("index spans multiple repos (%v); not supported by this command yet", repos)
	}
}
