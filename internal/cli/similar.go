package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/analyses"
)

var (
	similarThreshold float64
	similarLimit     int
	similarClusters  bool
	similarMaxScan   int
)

var similarCmd = &cobra.Command{
	Use:   "similar [file]",
	Short: "Find near-duplicate chunks",
	Long: `similar <file> reports chunks similar to that file's content.
With --clusters, or with no file argument, it scans the whole repo and
groups mutually similar chunks into clusters instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSimilar,
}

func init() {
	rootCmd.AddCommand(similarCmd)
	similarCmd.Flags().Float64Var(&similarThreshold, "threshold", 0.85, "minimum cosine similarity")
	similarCmd.Flags().IntVar(&similarLimit, "limit", 10, "max results per chunk of the file")
	similarCmd.Flags().BoolVar(&similarClusters, "clusters", false, "scan the whole repo for duplicate clusters")
	similarCmd.Flags().IntVar(&similarMaxScan, "max-scanned", 5000, "cap on chunks scanned by --clusters")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	repo, err := soleRepo(e)
	if err != nil {
		return err
	}

	sim := analyses.NewSimilarity(e.vec, e.emb)
	ctx := context.Background()

	if similarClusters || len(args) == 0 {
		clusters, pairs, cErr := sim.Clusters(ctx, repo, similarThreshold, similarMaxScan)
		if cErr != nil {
			return cErr
		}
		if jsonOutput {
			return printJSON(map[string]any{"clusters": clusters, "pairs": pairs})
		}
		if quiet {
			return nil
		}
		for _, c := range clusters {
			fmt.Printf("cluster: %v\n", c.ChunkIDs)
		}
		return nil
	}

	chunks, err := e.vec.GetChunksForFile(repo, args[0])
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no indexed chunks for %s", args[0])
	}

	var pairs []analyses.SimilarPair
	for _, c := range chunks {
		neighbors, nErr := sim.NeighborsOf(ctx, repo, c.Content, c.ID, similarThreshold, similarLimit)
		if nErr != nil {
			return nErr
		}
		pairs = append(pairs, neighbors...)
	}

	if jsonOutput {
		return printJSON(pairs)
	}
	if quiet {
		return nil
	}
	for _, p := range pairs {
		fmt.Printf("%.3f  %s\n", p.Similarity, p.FilePathB)
	}
	return nil
}
