// Package hookserver wraps the hook subsystem's stdin/stdout JSON
// contract in a long-lived stdio MCP server, so a host editor pays the
// embedder/assembler cold-load cost once per session instead of once
// per prompt. It exposes no retrieval primitives of its own: every
// tool is a thin pass-through to an already-configured hook.Runner or
// the assembler's cache invalidation, the same three gate/dedup
// variants and the post-tool-use invalidation the CLI's `bobbin hook`
// subcommand family perform one-shot.
package hookserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobbin-dev/bobbin/internal/assembler"
	"github.com/bobbin-dev/bobbin/internal/hook"
)

// Server hosts the hook subsystem behind MCP's stdio transport.
type Server struct {
	mcp *server.MCPServer
}

// New builds the three prompt-event Runners (inject/session/prime,
// each a variant of base the same way the CLI's runHookVariant adjusts
// a copy per invocation) plus the post-tool-use invalidation callback,
// and registers one MCP tool per operation.
func New(name, version string, a *assembler.Assembler, base hook.Config, statePath, metricsPath string, errLog *log.Logger, invalidate func(repo, filePath string), soleRepo func() (string, error)) *Server {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(true))

	injectCfg := base
	sessionCfg := base
	sessionCfg.DedupEnabled = false
	primeCfg := base
	primeCfg.DedupEnabled = false
	primeCfg.GateThreshold = 0
	primeCfg.MinPromptLength = 0

	addPromptTool(s, "bobbin_inject_context",
		"Run the gated, deduplicated hook pipeline for a prompt event and return the formatted context bundle.",
		hook.NewRunner(a, injectCfg, statePath, metricsPath, errLog))
	addPromptTool(s, "bobbin_session_context",
		"Like bobbin_inject_context, scoped to session start (dedup disabled).",
		hook.NewRunner(a, sessionCfg, statePath, metricsPath, errLog))
	addPromptTool(s, "bobbin_prime_context",
		"Like bobbin_inject_context, but never gated or deduplicated — for a cold-start orientation pass.",
		hook.NewRunner(a, primeCfg, statePath, metricsPath, errLog))
	addPostToolUseTool(s, invalidate, soleRepo)

	return &Server{mcp: s}
}

// Serve blocks on stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func addPromptTool(s *server.MCPServer, name, description string, runner *hook.Runner) {
	tool := mcp.NewTool(
		name,
		mcp.WithDescription(description),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("The user's prompt text")),
		mcp.WithString("cwd", mcp.Description("Working directory the prompt was issued from")),
		mcp.WithString("session_id", mcp.Description("Editor session identifier, for dedup/metrics")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		req := hook.Request{
			Prompt:    stringArg(argsMap, "prompt"),
			Cwd:       stringArg(argsMap, "cwd"),
			SessionID: stringArg(argsMap, "session_id"),
		}
		out := runner.Process(ctx, req)
		data, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("marshal hook output: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func addPostToolUseTool(s *server.MCPServer, invalidate func(repo, filePath string), soleRepo func() (string, error)) {
	tool := mcp.NewTool(
		"bobbin_post_tool_use",
		mcp.WithDescription("Invalidate a file's cached chunks after an editor tool wrote it, so the next context tool call doesn't serve stale content."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Repo-relative path of the file that was written")),
		mcp.WithString("repo", mcp.Description("Repo name, if the index spans more than one")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		filePath := stringArg(argsMap, "file_path")
		if filePath == "" {
			return mcp.NewToolResultError("file_path parameter is required"), nil
		}
		repo := stringArg(argsMap, "repo")
		if repo == "" {
			if r, err := soleRepo(); err == nil {
				repo = r
			}
		}
		invalidate(repo, filePath)
		return mcp.NewToolResultText(`{"ok":true}`), nil
	})
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}
