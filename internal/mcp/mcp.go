// Package mcp provides the contractcheck MCP server, registering the
// check, validate and inspect tools and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/contractcheck"
	"github.com/deixis/contractcheck/internal/config"
	"github.com/deixis/contractcheck/internal/report"
	"github.com/deixis/contractcheck/internal/runner"
	"github.com/deixis/contractcheck/internal/workflow"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers. The engine is
// replaced, never mutated, when a session reports its workspace root; calls
// already running keep the engine they started with.
type handler struct {
	mu     sync.RWMutex
	engine *workflow.Engine

	store report.Store
	diffs report.DiffWriter
}

// NewServer creates an MCP server with all contractcheck tools registered.
// Reports are saved to store; diffs may be nil to skip writing diff inputs.
func NewServer(cfg *config.Config, r *runner.Runner, store report.Store, diffs report.DiffWriter, workspace string) *mcp.Server {
	h := &handler{
		engine: &workflow.Engine{
			Config:    cfg,
			Runner:    r,
			Workspace: workspace,
			Store:     store,
			Diffs:     diffs,
		},
		store: store,
		diffs: diffs,
	}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateWorkspaceFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "contractcheck", Version: contractcheck.Version}, opts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "cc_check",
		Description: `Run a contract-test program once and verify that it failed its contract check.

In release mode (debug=false) the program must exit with the sentinel code (255) and write nothing.
In debug mode it must write a diagnostic to stderr that matches the expected-output template.
Results are stored for drill-down via cc_inspect.`,
	}, h.checkHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "cc_validate",
		Description: `Run a program that prints contract violations and exits normally, and compare its stderr
line by line with an expected file. Every mismatching line is reported.`,
	}, h.validateHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "cc_inspect",
		Description: `Drill into a stored cc_check or cc_validate run.

Use the run_id from the tool output. Section selects what to show:
summary, stdout, stderr, pattern, diff or mismatches. Defaults to everything.`,
	}, h.inspectHandler)

	return s
}

// updateWorkspaceFromRoots queries the client for MCP roots and updates the
// handler's engine and runner if a valid root is returned. This is called
// during session initialization, before any tool calls.
func (h *handler) updateWorkspaceFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil || len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}

	loaded, err := config.Load(u.Path)
	if err != nil {
		return
	}
	h.useWorkspace(loaded)
}

// useWorkspace switches the handler to a fresh engine and runner rooted at
// the loaded workspace.
func (h *handler) useWorkspace(loaded *config.LoadResult) {
	eng := &workflow.Engine{
		Config: loaded.Config,
		Runner: &runner.Runner{
			Workspace: loaded.Root,
			Timeout:   loaded.Config.Timeout(),
			MaxOutput: loaded.Config.MaxOutputBytes(),
		},
		Workspace: loaded.Root,
		Store:     h.store,
		Diffs:     h.diffs,
	}

	h.mu.Lock()
	h.engine = eng
	h.mu.Unlock()
}

func (h *handler) currentEngine() *workflow.Engine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
