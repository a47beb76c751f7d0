package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/retriever"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
)

var grepLimit int

var grepCmd = &cobra.Command{
	Use:   "grep <query>",
	Short: "Keyword-only (FTS) search over the indexed chunks",
	Long: `grep runs the same store as search but forces keyword mode,
for exact-token lookups where a semantic match would be noise.`,
	Args: cobra.ExactArgs(1),
	RunE: runGrep,
}

func init() {
	rootCmd.AddCommand(grepCmd)
	grepCmd.Flags().IntVar(&grepLimit, "limit", 0, "max results (0 uses the configured default)")
}

func runGrep(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	cfg := retriever.Config{Limit: e.cfg.Search.DefaultLimit, Mode: retriever.ModeKeyword}
	if grepLimit > 0 {
		cfg.Limit = grepLimit
	}

	outcome, err := e.retriever.Search(context.Background(), args[0], cfg, vectorstore.Filters{})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(outcome.Results)
	}
	if quiet {
		return nil
	}
	for _, r := range outcome.Results {
		fmt.Printf("%s:%d-%d  %s\n", r.Chunk.FilePath, r.Chunk.StartLine, r.Chunk.EndLine, r.Chunk.Name)
	}
	return nil
}
