// Package workflow provides the execution engine behind the check and
// validate commands. It resolves the program under test, runs it once,
// hands the result to the verify package, and records a report. It is
// consumed by both the MCP server and the CLI commands.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/deixis/contractcheck/internal/config"
	"github.com/deixis/contractcheck/internal/report"
	"github.com/deixis/contractcheck/internal/runner"
	"github.com/deixis/contractcheck/internal/template"
)

// CommandRunner executes commands within a workspace.
// Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, argv []string, cwd string) (*runner.Result, error)
}

// Engine holds shared dependencies for all workflow operations.
type Engine struct {
	Config    *config.Config
	Runner    CommandRunner
	Workspace string            // root that relative paths resolve against
	Store     report.Store      // optional; receives every report
	Diffs     report.DiffWriter // optional; receives mismatch texts
	Logger    *slog.Logger      // optional; defaults to slog.Default()
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Program is a resolved executable under test.
type Program struct {
	Path    string // absolute path passed to the runner
	Display string // name used in messages, e.g. ./test/fail-expects
}

// ResolveProgram locates name. Absolute names are used as given. Relative
// names resolve against the test-output directory when underTestDir is
// set, and against the workspace otherwise.
func (e *Engine) ResolveProgram(name string, underTestDir bool) (Program, error) {
	if name == "" {
		return Program{}, fmt.Errorf("process name is required")
	}
	if filepath.IsAbs(name) {
		return Program{Path: filepath.Clean(name), Display: name}, nil
	}

	rel := name
	if underTestDir {
		dir := e.Config.TestDir()
		if filepath.IsAbs(dir) {
			path := filepath.Join(dir, name)
			return Program{Path: path, Display: path}, nil
		}
		rel = filepath.Join(dir, name)
	}
	return Program{
		Path:    filepath.Join(e.Workspace, rel),
		Display: "./" + filepath.ToSlash(filepath.Clean(rel)),
	}, nil
}

// readFile reads path, resolving it against the workspace when relative.
func (e *Engine) readFile(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.Workspace, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading expected output: %w", err)
	}
	return string(data), nil
}

// Table returns the percent-scheme category table: the built-in rows
// extended with any configured categories.
func (e *Engine) Table() template.Table {
	extra := make(template.Table, len(e.Config.Categories))
	for name, c := range e.Config.Categories {
		extra[name] = template.Row{Operator: c.Operator, Left: c.Left, Right: c.Right, Category: name}
	}
	return template.DefaultTable().With(extra)
}

// save records r in the store, logging rather than failing: the verdict
// has already been reached.
func (e *Engine) save(r *report.Report) {
	if e.Store == nil {
		return
	}
	if err := e.Store.Save(r); err != nil {
		e.logger().Warn("saving report", "run", r.ID, "error", err)
	}
}

func newReport(kind report.Kind, prog Program, res *runner.Result) *report.Report {
	return &report.Report{
		ID:        res.RunID,
		Kind:      kind,
		Process:   prog.Display,
		Passed:    true,
		ExitCode:  res.ExitCode,
		Signal:    res.Signal,
		Stdout:    string(res.Stdout),
		Stderr:    string(res.Stderr),
		Truncated: res.Truncated,
	}
}
