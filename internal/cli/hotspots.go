package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/analyses"
)

var (
	hotspotsLimit int
	hotspotsSince string
)

var hotspotsCmd = &cobra.Command{
	Use:   "hotspots",
	Short: "Rank source files by churn and structural complexity",
	RunE:  runHotspots,
}

func init() {
	rootCmd.AddCommand(hotspotsCmd)
	hotspotsCmd.Flags().IntVar(&hotspotsLimit, "limit", 20, "max results")
	hotspotsCmd.Flags().StringVar(&hotspotsSince, "since", "", "git date expression to compute churn from, e.g. \"30 days ago\" (default: all history)")
}

func runHotspots(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	repo, err := soleRepo(e)
	if err != nil {
		return err
	}

	churn, err := e.git.GetFileChurn(context.Background(), hotspotsSince)
	if err != nil {
		return err
	}

	hs := analyses.NewHotspots(e.vec)
	results, err := hs.Analyze(repo, churn, hotspotsLimit)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(results)
	}
	if quiet {
		return nil
	}
	for _, h := range results {
		fmt.Printf("%.3f  churn=%-4d complexity=%.3f  %s\n", h.Score, h.Churn, h.Complexity, h.FilePath)
	}
	return nil
}
