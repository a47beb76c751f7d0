package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/assembler"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
)

var (
	contextBudget int
	contextDepth  int
	contextDocs   bool
)

var contextCmd = &cobra.Command{
	Use:   "context <query>",
	Short: "Assemble a budgeted context bundle for a query",
	Long: `context runs search, expands via file coupling, bridges
documentation to the source it describes, then packs the result into a
line budget — the same pipeline the hook injects from.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.Flags().IntVar(&contextBudget, "budget", 0, "max lines (0 uses the configured default)")
	contextCmd.Flags().IntVar(&contextDepth, "depth", -1, "coupling expansion depth, 0-3 (-1 uses the configured default)")
	contextCmd.Flags().BoolVar(&contextDocs, "docs", true, "include documentation files")
}

func runContext(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	cfg := assembler.DefaultConfig()
	cfg.Retrieval.Limit = e.cfg.Search.DefaultLimit
	cfg.Retrieval.SemanticWeight = e.cfg.Search.SemanticWeight
	cfg.Retrieval.RRFK = e.cfg.Search.RRFK
	cfg.Retrieval.DocDemotion = e.cfg.Search.DocDemotion
	cfg.Retrieval.RecencyHalfLifeDays = e.cfg.Search.RecencyHalfLifeDays
	cfg.Retrieval.RecencyWeight = e.cfg.Search.RecencyWeight
	cfg.CouplingThreshold = e.cfg.Git.CouplingThreshold
	cfg.ShowDocs = contextDocs
	if contextBudget > 0 {
		cfg.BudgetLines = contextBudget
	}
	if contextDepth >= 0 {
		cfg.Depth = contextDepth
	}

	bundle, err := e.assembler.Assemble(context.Background(), args[0], cfg, vectorstore.Filters{})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(bundle)
	}
	if quiet {
		return nil
	}
	fmt.Printf("# %s (%d/%d lines, %d files)\n\n", bundle.Query, bundle.Budget.UsedLines, bundle.Budget.MaxLines, bundle.Summary.TotalFiles)
	for _, f := range bundle.Files {
		fmt.Printf("## %s (%s)\n", f.Path, f.Relevance)
		for _, c := range f.Chunks {
			fmt.Println(c.Content)
		}
		fmt.Println()
	}
	return nil
}
