package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/retriever"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
)

var (
	searchLimit    int
	searchMode     string
	searchLanguage string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Hybrid semantic/keyword search over the indexed chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max results (0 uses the configured default)")
	searchCmd.Flags().StringVar(&searchMode, "mode", "", "hybrid, semantic, or keyword (default: hybrid)")
	searchCmd.Flags().StringVar(&searchLanguage, "language", "", "restrict to one language")
}

func runSearch(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	cfg := retriever.Config{
		Limit:               e.cfg.Search.DefaultLimit,
		Mode:                retriever.ModeHybrid,
		SemanticWeight:      e.cfg.Search.SemanticWeight,
		RRFK:                e.cfg.Search.RRFK,
		DocDemotion:         e.cfg.Search.DocDemotion,
		RecencyHalfLifeDays: e.cfg.Search.RecencyHalfLifeDays,
		RecencyWeight:       e.cfg.Search.RecencyWeight,
	}
	if searchLimit > 0 {
		cfg.Limit = searchLimit
	}
	if searchMode != "" {
		cfg.Mode = retriever.Mode(searchMode)
	}

	outcome, err := e.retriever.Search(context.Background(), args[0], cfg, vectorstore.Filters{Language: searchLanguage})
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
		fmt.Printf("%.3f  %s:%d-%d  %s\n", r.Score, r.Chunk.FilePath, r.Chunk.StartLine, r.Chunk.EndLine, r.Chunk.Name)
	}
	return nil
}
