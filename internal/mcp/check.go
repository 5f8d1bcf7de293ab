package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/contractcheck/internal/report"
	"github.com/deixis/contractcheck/internal/workflow"
)

type checkParams struct {
	Process      string `json:"process" jsonschema:"name of the compiled test program, resolved under the test directory (e.g. fail-expects), or an absolute path"`
	Debug        bool   `json:"debug,omitempty" jsonschema:"true when the program was built with debugging symbols and must print a diagnostic"`
	Expected     string `json:"expected,omitempty" jsonschema:"expected stderr template, required in debug mode unless expected_file is set"`
	ExpectedFile string `json:"expected_file,omitempty" jsonschema:"path to a file holding the expected stderr template"`
	Scheme       string `json:"scheme,omitempty" jsonschema:"template scheme: regex (default) or percent"`
	Category     string `json:"category,omitempty" jsonschema:"percent-scheme category such as not_equal_to; derived from the program name when empty"`
	Dir          string `json:"dir,omitempty" jsonschema:"directory to run the program from, relative to the workspace root (default: the root)"`
}

func (h *handler) checkHandler(ctx context.Context, req *mcp.CallToolRequest, params checkParams) (*mcp.CallToolResult, any, error) {
	rep, err := h.currentEngine().Check(ctx, workflow.CheckRequest{
		Process:      params.Process,
		Debug:        params.Debug,
		Expected:     params.Expected,
		ExpectedFile: params.ExpectedFile,
		Scheme:       params.Scheme,
		Category:     params.Category,
		Dir:          params.Dir,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("check failed: %v", err))
	}
	return textResult(formatReport(rep))
}

type validateParams struct {
	Process      string `json:"process" jsonschema:"path of the program to run, relative to the workspace or absolute"`
	ExpectedFile string `json:"expected_file" jsonschema:"path to the file holding the expected stderr, one pattern per line"`
	Dir          string `json:"dir,omitempty" jsonschema:"directory to run the program from, relative to the workspace root (default: the root)"`
}

func (h *handler) validateHandler(ctx context.Context, req *mcp.CallToolRequest, params validateParams) (*mcp.CallToolResult, any, error) {
	rep, err := h.currentEngine().Validate(ctx, workflow.ValidateRequest{
		Process:      params.Process,
		ExpectedFile: params.ExpectedFile,
		Dir:          params.Dir,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("validate failed: %v", err))
	}
	return textResult(formatReport(rep))
}

func formatReport(rep *report.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Status: %s\n", rep.Status())
	fmt.Fprintf(&b, "Run: %s\n", rep.ID)
	if rep.Kind == report.Check {
		fmt.Fprintf(&b, "Process: %s (%s)\n", rep.Process, rep.Mode())
	} else {
		fmt.Fprintf(&b, "Process: %s\n", rep.Process)
	}
	fmt.Fprintf(&b, "Exit: %s\n", rep.Exit())
	fmt.Fprintln(&b)

	if rep.Passed {
		fmt.Fprintln(&b, "The program behaved as expected.")
		return b.String()
	}

	fmt.Fprintf(&b, "Violation: %s\n", rep.Violation)
	fmt.Fprintf(&b, "%s %s\n", rep.Process, rep.Message)

	if rep.Diff != "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Diff:")
		b.WriteString(rep.Diff)
		if !strings.HasSuffix(rep.Diff, "\n") {
			fmt.Fprintln(&b)
		}
	}
	if rep.ExpectedPath != "" {
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "Expected text: %s\n", rep.ExpectedPath)
		fmt.Fprintf(&b, "Actual text: %s\n", rep.ActualPath)
	}
	if len(rep.Mismatches) > 0 {
		fmt.Fprintln(&b)
		writeMismatches(&b, rep.Mismatches)
	}

	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Inspect with cc_inspect(run_id=%q, section=\"stderr\").\n", rep.ID)
	return b.String()
}

func writeMismatches(b *strings.Builder, mismatches []report.LineMismatch) {
	for _, m := range mismatches {
		fmt.Fprintf(b, "Line %d:\n\tExpected:\t%s\n\tActual:  \t%s\n", m.Line, m.Expected, m.Actual)
	}
}
