package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <file>",
	Short: "Show recent commits touching a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "max commits")
}

func runHistory(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	commits, err := e.git.GetFileHistory(context.Background(), args[0], historyLimit)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(commits)
	}
	if quiet {
		return nil
	}
	for _, c := range commits {
		fmt.Printf("%s  %s  %s  %s\n", c.Hash[:min(8, len(c.Hash))], c.Date.Format("2006-01-02"), c.Author, c.Message)
	}
	return nil
}
