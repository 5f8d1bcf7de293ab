package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deixis/contractcheck/internal/config"
	"github.com/deixis/contractcheck/internal/report"
	"github.com/deixis/contractcheck/internal/runner"
	"github.com/deixis/contractcheck/internal/workflow"
)

// setup creates a full contractcheck MCP server + client over in-memory
// transports. workspaceDir should be a prepared fixture directory.
func setup(t *testing.T, workspaceDir string) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{}
	disk := report.NewDiskStoreAt(t.TempDir())
	store := report.NewLRUStore(5, disk)
	r := &runner.Runner{
		Workspace: workspaceDir,
		Timeout:   10 * time.Second,
		MaxOutput: cfg.MaxOutputBytes(),
	}

	server := NewServer(cfg, r, store, disk, workspaceDir)

	ct, st := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	require.NoError(t, err, "server.Connect")

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err, "client.Connect")

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})

	return cs
}

// copyFixture copies a testdata fixture into the test directory of a fresh
// workspace, stripping the .txt extension and marking files executable.
func copyFixture(t *testing.T, fixture string) string {
	t.Helper()
	srcDir := filepath.Join("testdata", fixture)
	workspace := t.TempDir()
	dstDir := filepath.Join(workspace, config.DefaultTestDir)
	require.NoError(t, os.MkdirAll(dstDir, 0o755))

	entries, err := os.ReadDir(srcDir)
	require.NoError(t, err, "reading fixture %s", fixture)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(srcDir, e.Name()))
		require.NoError(t, err)
		dst := filepath.Join(dstDir, strings.TrimSuffix(e.Name(), ".txt"))
		require.NoError(t, os.WriteFile(dst, data, 0o755))
	}
	return workspace
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool(%s)", name)
	return res
}

func resultText(r *mcp.CallToolResult) string {
	var parts []string
	for _, c := range r.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func runIDOf(t *testing.T, text string) string {
	t.Helper()
	for _, line := range strings.Split(text, "\n") {
		if id, ok := strings.CutPrefix(line, "Run: "); ok {
			return id
		}
	}
	require.FailNow(t, "no Run ID found in output", text)
	return ""
}

func TestListTools(t *testing.T) {
	cs := setup(t, t.TempDir())
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"cc_check", "cc_validate", "cc_inspect"}, names)
}

// --- cc_check ---

func TestCCCheck_ReleasePass(t *testing.T) {
	dir := copyFixture(t, "contracts")
	cs := setup(t, dir)
	res := callTool(t, cs, "cc_check", map[string]any{"process": "fail-expects"})
	text := resultText(res)
	require.False(t, res.IsError, text)
	assert.Contains(t, text, "Status: PASS")
	assert.Contains(t, text, "Process: ./test/fail-expects (release)")
}

func TestCCCheck_DebugPass(t *testing.T) {
	dir := copyFixture(t, "contracts")
	cs := setup(t, dir)
	res := callTool(t, cs, "cc_check", map[string]any{
		"process":  "fail-assert",
		"debug":    true,
		"expected": "{{source}}:7: assertion `argc == 0` failed in `main`",
	})
	assert.Contains(t, resultText(res), "Status: PASS")
}

func TestCCCheck_UnexpectedSuccess(t *testing.T) {
	dir := copyFixture(t, "contracts")
	cs := setup(t, dir)
	text := resultText(callTool(t, cs, "cc_check", map[string]any{"process": "fail-ensures"}))
	assert.Contains(t, text, "Status: FAIL")
	assert.Contains(t, text, "has unexpectedly succeeded.")
}

func TestCCCheck_MismatchThenInspect(t *testing.T) {
	dir := copyFixture(t, "contracts")
	cs := setup(t, dir)
	res := callTool(t, cs, "cc_check", map[string]any{
		"process":  "fail-assert",
		"debug":    true,
		"expected": "{{source}}:7: pre-condition `argc == 0` failed in `main`",
	})
	text := resultText(res)
	require.Contains(t, text, "Violation: output-mismatch")
	assert.Contains(t, text, "Diff:")
	assert.Contains(t, text, "Expected text:")
	assert.Contains(t, text, "cc_inspect")

	insp := callTool(t, cs, "cc_inspect", map[string]any{"run_id": runIDOf(t, text), "section": "stderr"})
	inspText := resultText(insp)
	require.False(t, insp.IsError, inspText)
	assert.Contains(t, inspText, "assertion `argc == 0` failed")
}

func TestCCCheck_WorkingDirectory(t *testing.T) {
	dir := copyFixture(t, "contracts")
	cs := setup(t, dir)

	res := callTool(t, cs, "cc_check", map[string]any{"process": "fail-expects", "dir": "test"})
	assert.False(t, res.IsError, resultText(res))
	assert.Contains(t, resultText(res), "Status: PASS")

	res = callTool(t, cs, "cc_check", map[string]any{"process": "fail-expects", "dir": ".."})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "outside workspace")
}

func TestCCCheck_MissingProgram(t *testing.T) {
	cs := setup(t, t.TempDir())
	res := callTool(t, cs, "cc_check", map[string]any{"process": "fail-missing"})
	assert.True(t, res.IsError, resultText(res))
}

func TestCCCheck_MissingProcess(t *testing.T) {
	cs := setup(t, t.TempDir())
	_, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "cc_check",
		Arguments: map[string]any{"debug": true},
	})
	assert.Error(t, err)
}

// --- cc_validate ---

func TestCCValidate_Pass(t *testing.T) {
	dir := copyFixture(t, "contracts")
	cs := setup(t, dir)
	res := callTool(t, cs, "cc_validate", map[string]any{
		"process":       "test/violation",
		"expected_file": "test/violation.expected",
	})
	assert.Contains(t, resultText(res), "Status: PASS")
}

func TestCCValidate_WorkingDirectory(t *testing.T) {
	dir := copyFixture(t, "contracts")
	cs := setup(t, dir)
	res := callTool(t, cs, "cc_validate", map[string]any{
		"process":       "test/violation",
		"expected_file": "test/violation.expected",
		"dir":           "test",
	})
	assert.Contains(t, resultText(res), "Status: PASS")
}

func TestCCValidate_LineMismatch(t *testing.T) {
	dir := copyFixture(t, "contracts")
	expected := filepath.Join(dir, "other.expected")
	require.NoError(t, os.WriteFile(expected, []byte("b.cpp:3: pre-condition `x > 0` failed in `f`\n  anything\n"), 0o644))
	cs := setup(t, dir)
	res := callTool(t, cs, "cc_validate", map[string]any{
		"process":       "test/violation",
		"expected_file": expected,
	})
	text := resultText(res)
	require.Contains(t, text, "Violation: line-mismatch")
	assert.Contains(t, text, "Line 1:")
	assert.Contains(t, text, "Line 2:")

	insp := callTool(t, cs, "cc_inspect", map[string]any{"run_id": runIDOf(t, text), "section": "mismatches"})
	assert.Contains(t, resultText(insp), "Mismatches:\nLine 1:")
}

// --- cc_inspect ---

func TestCCInspect_MissingRunID(t *testing.T) {
	cs := setup(t, t.TempDir())
	_, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "cc_inspect",
		Arguments: map[string]any{"section": "stderr"},
	})
	assert.Error(t, err)
}

func TestCCInspect_InvalidRunID(t *testing.T) {
	cs := setup(t, t.TempDir())
	res := callTool(t, cs, "cc_inspect", map[string]any{"run_id": "nonexistent-id"})
	assert.True(t, res.IsError)
}

func TestCCInspect_UnknownSection(t *testing.T) {
	dir := copyFixture(t, "contracts")
	cs := setup(t, dir)
	text := resultText(callTool(t, cs, "cc_check", map[string]any{"process": "fail-expects"}))

	res := callTool(t, cs, "cc_inspect", map[string]any{"run_id": runIDOf(t, text), "section": "symbols"})
	assert.True(t, res.IsError)
}

func TestFormatInspectOutput_All(t *testing.T) {
	rep := &report.Report{
		ID:       "abc",
		Kind:     report.Check,
		Process:  "./test/fail-expects",
		ExitCode: 1,
		Stderr:   "boom\n",
	}
	got := formatInspectOutput(rep, sections)
	for _, want := range []string{
		"Run: abc (check)",
		"FAIL ./test/fail-expects (release)",
		"Exit: exit code 1",
		"Stdout: (empty)",
		"Stderr:\n    boom\n",
		"Mismatches: (none)",
	} {
		assert.Contains(t, got, want)
	}
}

// --- workspace roots ---

func newTestHandler(t *testing.T, workspace string) *handler {
	t.Helper()
	store := report.NewLRUStore(5, report.NewDiskStoreAt(t.TempDir()))
	return &handler{
		engine: &workflow.Engine{
			Config:    &config.Config{},
			Runner:    &runner.Runner{Workspace: workspace, Timeout: 10 * time.Second, MaxOutput: 1 << 20},
			Workspace: workspace,
			Store:     store,
		},
		store: store,
	}
}

func TestUseWorkspace_ReplacesEngine(t *testing.T) {
	h := newTestHandler(t, "/initial")
	before := h.currentEngine()

	root := t.TempDir()
	h.useWorkspace(&config.LoadResult{Config: &config.Config{RawTimeout: "3s"}, Root: root})

	after := h.currentEngine()
	require.NotSame(t, before, after)
	assert.Equal(t, "/initial", before.Workspace, "the previous engine is left untouched")
	assert.Equal(t, "/initial", before.Runner.(*runner.Runner).Workspace)

	assert.Equal(t, root, after.Workspace)
	r := after.Runner.(*runner.Runner)
	assert.Equal(t, root, r.Workspace)
	assert.Equal(t, 3*time.Second, r.Timeout)
	assert.Same(t, h.store, after.Store)
}

func TestUseWorkspace_ConcurrentWithChecks(t *testing.T) {
	dir := copyFixture(t, "contracts")
	h := newTestHandler(t, dir)
	loaded := &config.LoadResult{Config: &config.Config{}, Root: dir}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.useWorkspace(loaded)
		}()
		go func() {
			defer wg.Done()
			rep, err := h.currentEngine().Check(context.Background(), workflow.CheckRequest{Process: "fail-expects"})
			if err == nil && !rep.Passed {
				err = assert.AnError
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
