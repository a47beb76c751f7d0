package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/analyses"
)

var (
	impactLimit int
	impactMode  string
)

var impactCmd = &cobra.Command{
	Use:   "impact <file>",
	Short: "Estimate blast radius of changing a file",
	Long: `impact combines file coupling, import dependents and semantic
neighbors (mode "combined"), or any one of them alone, into a ranked
list of files likely affected by a change to <file>.`,
	Args: cobra.ExactArgs(1),
	RunE: runImpact,
}

func init() {
	rootCmd.AddCommand(impactCmd)
	impactCmd.Flags().IntVar(&impactLimit, "limit", 20, "max results")
	impactCmd.Flags().StringVar(&impactMode, "mode", "combined", "combined, coupling, semantic, or deps")
}

func runImpact(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	repo, err := soleRepo(e)
	if err != nil {
		return err
	}

	imp, err := analyses.NewImpact(e.meta, e.vec)
	if err != nil {
		return err
	}

	mode := analyses.ImpactMode(impactMode)
	var vector []float32
	if mode == analyses.ImpactCombined || mode == analyses.ImpactSemantic {
		chunks, cErr := e.vec.GetChunksForFile(repo, args[0])
		if cErr == nil && len(chunks) > 0 {
			vector, _ = e.emb.Embed(context.Background(), chunks[0].Content)
		}
	}

	results, err := imp.Analyze(args[0], vector, mode, repo, impactLimit)
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
		fmt.Printf("%.3f  %-30s via=%v\n", r.Score, r.FilePath, r.Via)
	}
	return nil
}
