package cli

import (
	"context"
	"fmt"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/calibrate"
)

var (
	calibrateMaxCommits int
	calibratePersist    bool
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Sweep retriever weights against sampled commit history",
	Long: `calibrate samples recent, non-merge, non-revert commits, uses
each commit message as a query and its touched files as ground truth,
sweeps semantic_weight x doc_demotion x rrf_k, and reports (or, with
--persist, stores) the best-scoring point.`,
	RunE: runCalibrate,
}

func init() {
	rootCmd.AddCommand(calibrateCmd)
	calibrateCmd.Flags().IntVar(&calibrateMaxCommits, "max-commits", 0, "commits to sample (0 uses the default of 50)")
	calibrateCmd.Flags().BoolVar(&calibratePersist, "persist", false, "write the winning point to the metadata store")
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	var lock *flock.Flock
	if calibratePersist {
		lock, err = acquireWriterLock(e.root)
		if err != nil {
			return err
		}
		defer lock.Unlock()
	}

	repo, err := soleRepo(e)
	if err != nil {
		return err
	}

	cfg := calibrate.DefaultConfig()
	if calibrateMaxCommits > 0 {
		cfg.MaxCommits = calibrateMaxCommits
	}

	result, err := calibrate.Run(context.Background(), cfg, e.git, e.assembler, repo)
	if err != nil {
		return err
	}

	if calibratePersist && result.SampleSize > 0 {
		stats, statErr := e.vec.GetStats(repo)
		if statErr == nil {
			snapshot := calibrate.Snapshot{ChunkCount: stats.TotalChunks, SampledAt: result.SampledAt}
			if persistErr := calibrate.Persist(e.meta, snapshot, result.Best); persistErr != nil {
				return persistErr
			}
		}
	}

	if jsonOutput {
		return printJSON(result)
	}
	if quiet {
		return nil
	}
	fmt.Printf("Sampled %d commits. Best: semantic_weight=%.2f doc_demotion=%.2f rrf_k=%.0f (F1=%.3f)\n",
		result.SampleSize, result.Best.SemanticWeight, result.Best.DocDemotion, result.Best.RRFK, result.Best.F1)
	return nil
}
