package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/analyses"
)

var refsLimit int

var refsCmd = &cobra.Command{
	Use:   "refs <symbol>",
	Short: "Find likely definitions and usages of a symbol",
	Long: `refs is a best-effort FTS lookup: it has no type information
and no call graph, so treat results as leads rather than a guaranteed
reference list.`,
	Args: cobra.ExactArgs(1),
	RunE: runRefs,
}

func init() {
	rootCmd.AddCommand(refsCmd)
	refsCmd.Flags().IntVar(&refsLimit, "limit", 20, "max results")
}

func runRefs(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	repo, err := soleRepo(e)
	if err != nil {
		return err
	}

	refs := analyses.NewRefs(e.vec)
	results, err := refs.Find(repo, args[0], refsLimit)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(results)
	}
	if quiet {
		return nil
	}
	for _, r := range results {
		fmt.Printf("%-12s %s:%d-%d  %s\n", r.Kind, r.Chunk.FilePath, r.Chunk.StartLine, r.Chunk.EndLine, r.Chunk.Name)
	}
	return nil
}
