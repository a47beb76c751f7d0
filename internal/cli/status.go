package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the index state for the repository",
	Long: `status reports chunk/file counts, language breakdown and the
dependency edge count for the repo at --repo, without
touching the index.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusReport struct {
	Root         string         `json:"root"`
	Repos        []string       `json:"repos"`
	TotalChunks  int            `json:"total_chunks"`
	TotalFiles   int            `json:"total_files"`
	Languages    map[string]int `json:"languages"`
	Dependencies int            `json:"dependency_edges"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	repos, err := e.vec.ListRepos()
	if err != nil {
		return err
	}
	stats, err := e.vec.GetStats("")
	if err != nil {
		return err
	}
	deps, err := e.meta.AllDependencies()
	if err != nil {
		return err
	}

	report := statusReport{
		Root:         e.root,
		Repos:        repos,
		TotalChunks:  stats.TotalChunks,
		TotalFiles:   stats.TotalFiles,
		Languages:    stats.Languages,
		Dependencies: len(deps),
	}

	if jsonOutput {
		return printJSON(report)
	}
	if quiet {
		return nil
	}
	fmt.Printf("Root: %s\n", report.Root)
	fmt.Printf("Repos: %v\n", report.Repos)
	fmt.Printf("Files: %d  Chunks: %d  Dependency edges: %d\n", report.TotalFiles, report.TotalChunks, report.Dependencies)
	langs := make([]string, 0, len(report.Languages))
	for l := range report.Languages {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	for _, l := range langs {
		fmt.Printf("  %-14s %d\n", l, report.Languages[l])
	}
	return nil
}
