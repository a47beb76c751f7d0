package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/analyses"
)

var (
	depsDepth     int
	depsDirection string
)

var depsCmd = &cobra.Command{
	Use:   "deps <file>",
	Short: "List a file's import dependencies or dependents",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeps,
}

func init() {
	rootCmd.AddCommand(depsCmd)
	depsCmd.Flags().IntVar(&depsDepth, "depth", 1, "max hops to follow, 0 for unlimited")
	depsCmd.Flags().StringVar(&depsDirection, "direction", "dependencies", "dependencies (what this imports) or dependents (what imports this)")
}

func runDeps(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	graph, err := analyses.BuildDependencyGraph(e.meta)
	if err != nil {
		return err
	}

	var files []string
	switch depsDirection {
	case "dependents":
		files, err = graph.Dependents(args[0], depsDepth)
	default:
		files, err = graph.Dependencies(args[0], depsDepth)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(map[string]any{"file": args[0], "direction": depsDirection, "results": files})
	}
	if quiet {
		return nil
	}
	if len(files) == 0 {
		fmt.Println("(none)")
		return nil
	}
	for _, f := range files {
		fmt.Println(f)
	}
	return nil
}
