package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/calibrate"
)

var benchmarkMaxCommits int

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Score the repo's current retriever configuration against history",
	Long: `benchmark runs calibrate's commit-sampling evaluation harness
against a single point — the config.toml values already in effect —
rather than sweeping a grid, and never persists. Use it to check
whether the current weights still hold up before reaching for
"calibrate".`,
	RunE: runBenchmark,
}

func init() {
	rootCmd.AddCommand(benchmarkCmd)
	benchmarkCmd.Flags().IntVar(&benchmarkMaxCommits, "max-commits", 0, "commits to sample (0 uses the default of 50)")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	repo, err := soleRepo(e)
	if err != nil {
		return err
	}

	cfg := calibrate.DefaultConfig()
	cfg.SemanticWeights = []float64{e.cfg.Search.SemanticWeight}
	cfg.DocDemotions = []float64{e.cfg.Search.DocDemotion}
	cfg.RRFKs = []float64{e.cfg.Search.RRFK}
	if benchmarkMaxCommits > 0 {
		cfg.MaxCommits = benchmarkMaxCommits
	}

	result, err := calibrate.Run(context.Background(), cfg, e.git, e.assembler, repo)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}
	if quiet {
		return nil
	}
	fmt.Printf("Sampled %d commits. Precision=%.3f Recall=%.3f F1=%.3f\n",
		result.SampleSize, result.Best.Precision, result.Best.Recall, result.Best.F1)
	return nil
}
