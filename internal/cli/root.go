package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bobbin-dev/bobbin/internal/bobbinerr"
)

var (
	repoRoot   string
	jsonOutput bool
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bobbin",
	Short: "Bobbin - local-first code context engine",
	Long: `Bobbin indexes a repository into a structural chunk store and serves
hybrid semantic/lexical retrieval, context assembly and derived analyses
(impact, hotspots, similarity, references) entirely on the local machine.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(bobbinerr.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&repoRoot, "repo", ".", "repository root")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	viper.BindPFlag("repo", rootCmd.PersistentFlags().Lookup("repo"))
	viper.SetEnvPrefix("BOBBIN")
	viper.AutomaticEnv()
}
