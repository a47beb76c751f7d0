package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/bobbinerr"
	"github.com/bobbin-dev/bobbin/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .bobbin/ configuration directory in the repository",
	Long: `init writes a default .bobbin/config.toml for the repository at --repo,
without touching any existing index. Run it once per repo before the
first "bobbin index".`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing .bobbin/config.toml")
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(repoRoot)
	if err != nil {
		return bobbinerr.New(bobbinerr.KindIO, "init", err)
	}

	configPath := filepath.Join(root, bobbinDir, "config.toml")
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return bobbinerr.New(bobbinerr.KindConfigInvalid, "init",
			fmt.Errorf("%s already exists; pass --force to overwrite", configPath))
	}

	if err := config.Write(root, config.Default()); err != nil {
		return bobbinerr.New(bobbinerr.KindIO, "init", err)
	}

	if jsonOutput {
		return printJSON(map[string]string{"status": "initialized", "root": root})
	}
	if !quiet {
		fmt.Printf("Initialized %s\n", filepath.Join(root, bobbinDir))
	}
	return nil
}
