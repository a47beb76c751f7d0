package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/analyses"
	"github.com/bobbin-dev/bobbin/internal/gitanalyzer"
)

var (
	reviewStaged bool
	reviewBranch string
	reviewRange  string
	reviewLimit  int
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Summarize the impact of the current diff",
	Long: `review resolves a diff (working tree changes by default, or
--staged/--branch/--range), then for every changed file reports the
other files an impact analysis says are likely affected — a quick
"what else should I look at" pass before sending a change out.`,
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.Flags().BoolVar(&reviewStaged, "staged", false, "review the staged diff instead of the working tree")
	reviewCmd.Flags().StringVar(&reviewBranch, "branch", "", "review the diff against this branch's merge-base")
	reviewCmd.Flags().StringVar(&reviewRange, "range", "", "review an explicit commit range, e.g. abc123..def456")
	reviewCmd.Flags().IntVar(&reviewLimit, "limit", 10, "max impacted files per changed file")
}

type reviewEntry struct {
	File     string                  `json:"file"`
	Status   string                  `json:"status"`
	Impacted []analyses.ImpactedFile `json:"impacted"`
}

func runReview(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	repo, err := soleRepo(e)
	if err != nil {
		return err
	}

	spec := gitanalyzer.DiffSpec{Kind: gitanalyzer.DiffUnstaged}
	switch {
	case reviewRange != "":
		spec = gitanalyzer.DiffSpec{Kind: gitanalyzer.DiffRange, Range: reviewRange}
	case reviewBranch != "":
		spec = gitanalyzer.DiffSpec{Kind: gitanalyzer.DiffBranch, Branch: reviewBranch}
	case reviewStaged:
		spec = gitanalyzer.DiffSpec{Kind: gitanalyzer.DiffStaged}
	}

	diffs, err := e.git.GetDiffFiles(context.Background(), spec)
	if err != nil {
		return err
	}

	imp, err := analyses.NewImpact(e.meta, e.vec)
	if err != nil {
		return err
	}

	var entries []reviewEntry
	for _, d := range diffs {
		if d.Status == gitanalyzer.StatusDeleted {
			entries = append(entries, reviewEntry{File: d.Path, Status: d.Status.String()})
			continue
		}
		var vector []float32
		if chunks, cErr := e.vec.GetChunksForFile(repo, d.Path); cErr == nil && len(chunks) > 0 {
			vector, _ = e.emb.Embed(context.Background(), chunks[0].Content)
		}
		impacted, iErr := imp.Analyze(d.Path, vector, analyses.ImpactCombined, repo, reviewLimit)
		if iErr != nil {
			return iErr
		}
		entries = append(entries, reviewEntry{File: d.Path, Status: d.Status.String(), Impacted: impacted})
	}

	if jsonOutput {
		return printJSON(entries)
	}
	if quiet {
		return nil
	}
	if len(entries) == 0 {
		fmt.Println("No changes found.")
		return nil
	}
	for _, entry := range entries {
		fmt.Printf("%s (%s)\n", entry.File, entry.Status)
		for _, imp := range entry.Impacted {
			fmt.Printf("    %.3f  %s\n", imp.Score, imp.FilePath)
		}
	}
	return nil
}
