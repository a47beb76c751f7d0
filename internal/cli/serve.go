package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bobbin-dev/bobbin/internal/hookserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a long-lived MCP server over the hook pipeline",
	Long: `serve keeps the embedder and assembler warm behind an MCP
stdio server instead of paying their cold-load cost on every
inject-context invocation. It exposes the same three gated prompt
variants as "bobbin hook" (inject/session/prime-context) plus
post-tool-use invalidation as MCP tools; it does not expose raw
search/context/deps/impact as a general-purpose protocol surface.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	errLog := log.New(os.Stderr, "bobbin serve: ", log.LstdFlags)
	cfg := hookConfigFromEnv(e)
	statePath := filepath.Join(e.root, bobbinDir, "hook-state.json")
	metricsPath := filepath.Join(e.root, bobbinDir, "metrics.jsonl")

	invalidate := func(repo, filePath string) { e.assembler.InvalidateFile(repo, filePath) }
	resolveRepo := func() (string, error) { return soleRepo(e) }

	srv := hookserver.New("bobbin", getVersion(), e.assembler, cfg, statePath, metricsPath, errLog, invalidate, resolveRepo)

	fmt.Fprintf(os.Stderr, "bobbin serve: repo=%s, tools=[bobbin_inject_context bobbin_session_context bobbin_prime_context bobbin_post_tool_use]\n", e.root)
	if err := srv.Serve(); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}
