package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/analyses"
	"github.com/bobbin-dev/bobbin/internal/assembler"
	"github.com/bobbin-dev/bobbin/internal/hook"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "AI-editor hook integration: inject context, manage installation",
}

func init() {
	rootCmd.AddCommand(hookCmd)
	hookCmd.AddCommand(
		hookInjectContextCmd,
		hookSessionContextCmd,
		hookPrimeContextCmd,
		hookPostToolUseCmd,
		hookStatusCmd,
		hookInstallCmd,
		hookUninstallCmd,
		hookInstallGitHookCmd,
		hookUninstallGitHookCmd,
		hookHotTopicsCmd,
	)
}

// hookConfigFromEnv maps the repo's [hooks] config onto a hook.Config.
func hookConfigFromEnv(e *env) hook.Config {
	return hook.Config{
		Threshold:       e.cfg.Hooks.Threshold,
		Budget:          e.cfg.Hooks.Budget,
		ContentMode:     assembler.ContentMode(e.cfg.Hooks.ContentMode),
		MinPromptLength: e.cfg.Hooks.MinPromptLength,
		GateThreshold:   e.cfg.Hooks.GateThreshold,
		DedupEnabled:    e.cfg.Hooks.DedupEnabled,
		ShowDocs:        e.cfg.Hooks.ShowDocs,
	}
}

// runHookVariant opens the env, builds a Runner over the repo's [hooks]
// config (adjusted by adjust, if non-nil), reads one JSON Request from
// stdin, and writes the resulting Output as JSON to stdout. Per the hook
// contract, any failure still produces a valid (possibly empty) Output
// and a clean exit.
func runHookVariant(adjust func(*hook.Config)) error {
	e, err := openEnv()
	if err != nil {
		return json.NewEncoder(os.Stdout).Encode(hook.Output{})
	}
	defer e.Close()

	cfg := hookConfigFromEnv(e)
	if adjust != nil {
		adjust(&cfg)
	}

	var req hook.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		return json.NewEncoder(os.Stdout).Encode(hook.Output{})
	}

	errLog := log.New(os.Stderr, "bobbin hook: ", log.LstdFlags)
	runner := hook.NewRunner(e.assembler, cfg, filepath.Join(e.root, bobbinDir, "hook-state.json"),
		filepath.Join(e.root, bobbinDir, "metrics.jsonl"), errLog)

	out := runner.Process(context.Background(), req)
	return json.NewEncoder(os.Stdout).Encode(out)
}

var hookInjectContextCmd = &cobra.Command{
	Use:   "inject-context",
	Short: "Run the gated, deduplicated hook pipeline on a stdin prompt event",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHookVariant(nil)
	},
}

var hookSessionContextCmd = &cobra.Command{
	Use:   "session-context",
	Short: "Like inject-context, scoped to session start (dedup disabled)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHookVariant(func(cfg *hook.Config) { cfg.DedupEnabled = false })
	},
}

var hookPrimeContextCmd = &cobra.Command{
	Use:   "prime-context",
	Short: "Like inject-context, but never gated or deduplicated",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHookVariant(func(cfg *hook.Config) {
			cfg.DedupEnabled = false
			cfg.GateThreshold = 0
			cfg.MinPromptLength = 0
		})
	},
}

type postToolUseEvent struct {
	FilePath string `json:"file_path"`
	Repo     string `json:"repo"`
}

var hookPostToolUseCmd = &cobra.Command{
	Use:   "post-tool-use",
	Short: "Invalidate a file's cached chunks after an editor tool wrote it",
	Long: `post-tool-use reads one {file_path, repo} JSON event from stdin
and evicts that file from the chunk cache of the assembler this
command opens. That cache belongs to this one-shot process; the
eviction does not reach the cache of a separate long-lived process.
It never fails the caller: a store that cannot be opened or an event
that cannot be decoded is a silent no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return nil
		}
		defer e.Close()

		var ev postToolUseEvent
		if err := json.NewDecoder(os.Stdin).Decode(&ev); err != nil || ev.FilePath == "" {
			return nil
		}
		repo := ev.Repo
		if repo == "" {
			repo, _ = soleRepo(e)
		}
		e.assembler.InvalidateFile(repo, ev.FilePath)
		return nil
	},
}

var hookStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether hook state/metrics files exist and the last injection",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := findRepoRoot(repoRoot)
		if err != nil {
			return err
		}
		statePath := filepath.Join(root, bobbinDir, "hook-state.json")
		metricsPath := filepath.Join(root, bobbinDir, "metrics.jsonl")
		report := map[string]any{
			"state_file":     statePath,
			"state_exists":   fileExists(statePath),
			"metrics_file":   metricsPath,
			"metrics_exists": fileExists(metricsPath),
		}
		if jsonOutput {
			return printJSON(report)
		}
		if !quiet {
			fmt.Printf("state: %s (exists=%v)\nmetrics: %s (exists=%v)\n",
				statePath, report["state_exists"], metricsPath, report["metrics_exists"])
		}
		return nil
	},
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Print the editor hook configuration snippet for this repo",
	Long: `install doesn't modify an editor's own settings (that wiring
is editor-specific and out of scope here); it prints the stdin/stdout
command line an editor's hook configuration should point at, for the
caller to paste into their own settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := findRepoRoot(repoRoot)
		if err != nil {
			return err
		}
		snippet := map[string]string{
			"command":       "bobbin hook inject-context --repo " + root,
			"post_tool_use": "bobbin hook post-tool-use --repo " + root,
		}
		if jsonOutput {
			return printJSON(snippet)
		}
		if !quiet {
			fmt.Printf("Prompt hook:        %s\n", snippet["command"])
			fmt.Printf("Post-tool-use hook: %s\n", snippet["post_tool_use"])
		}
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove hook state and metrics files for this repo",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := findRepoRoot(repoRoot)
		if err != nil {
			return err
		}
		removed := 0
		for _, name := range []string{"hook-state.json", "metrics.jsonl"} {
			p := filepath.Join(root, bobbinDir, name)
			if err := os.Remove(p); err == nil {
				removed++
			}
		}
		if jsonOutput {
			return printJSON(map[string]int{"removed": removed})
		}
		if !quiet {
			fmt.Printf("Removed %d hook file(s)\n", removed)
		}
		return nil
	},
}

const gitHookMarker = "# installed by bobbin hook install-git-hook"

var hookInstallGitHookCmd = &cobra.Command{
	Use:   "install-git-hook",
	Short: "Install a post-commit git hook that reindexes changed files",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := findRepoRoot(repoRoot)
		if err != nil {
			return err
		}
		hookPath := filepath.Join(root, ".git", "hooks", "post-commit")
		script := "#!/bin/sh\n" + gitHookMarker + "\nbobbin index --repo \"" + root + "\" >/dev/null 2>&1 || true\n"
		if err := os.WriteFile(hookPath, []byte(script), 0o755); err != nil {
			return err
		}
		if !quiet {
			fmt.Printf("Installed %s\n", hookPath)
		}
		return nil
	},
}

var hookUninstallGitHookCmd = &cobra.Command{
	Use:   "uninstall-git-hook",
	Short: "Remove the post-commit git hook installed by install-git-hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := findRepoRoot(repoRoot)
		if err != nil {
			return err
		}
		hookPath := filepath.Join(root, ".git", "hooks", "post-commit")
		content, err := os.ReadFile(hookPath)
		if err != nil {
			if !quiet {
				fmt.Println("No git hook installed")
			}
			return nil
		}
		if !strings.Contains(string(content), gitHookMarker) {
			return fmt.Errorf("%s was not installed by bobbin; refusing to remove", hookPath)
		}
		if err := os.Remove(hookPath); err != nil {
			return err
		}
		if !quiet {
			fmt.Printf("Removed %s\n", hookPath)
		}
		return nil
	},
}

var hookHotTopicsCmd = &cobra.Command{
	Use:   "hot-topics",
	Short: "Write .bobbin/hot-topics.md from the current hotspot ranking",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		repo, err := soleRepo(e)
		if err != nil {
			return err
		}
		churn, err := e.git.GetFileChurn(context.Background(), "")
		if err != nil {
			return err
		}
		hs := analyses.NewHotspots(e.vec)
		results, err := hs.Analyze(repo, churn, 20)
		if err != nil {
			return err
		}

		var b strings.Builder
		b.WriteString("# Hot Topics\n\n")
		for _, h := range results {
			fmt.Fprintf(&b, "- **%s** (score=%.3f, churn=%d)\n", h.FilePath, h.Score, h.Churn)
		}
		outPath := filepath.Join(e.root, bobbinDir, "hot-topics.md")
		if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
			return err
		}
		if !quiet {
			fmt.Printf("Wrote %s\n", outPath)
		}
		return nil
	},
}
