package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/contractcheck/internal/report"
)

type inspectParams struct {
	RunID   string `json:"run_id" jsonschema:"the run ID from a cc_check or cc_validate result"`
	Section string `json:"section,omitempty" jsonschema:"one of summary, stdout, stderr, pattern, diff, mismatches; empty shows everything"`
}

var sections = []string{"summary", "stdout", "stderr", "pattern", "diff", "mismatches"}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}

	rep, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}

	show := sections
	if params.Section != "" {
		if !validSection(params.Section) {
			return errorResult(fmt.Sprintf("unknown section %q: want one of %s", params.Section, strings.Join(sections, ", ")))
		}
		show = []string{params.Section}
	}

	return textResult(formatInspectOutput(rep, show))
}

func validSection(s string) bool {
	for _, v := range sections {
		if v == s {
			return true
		}
	}
	return false
}

func formatInspectOutput(rep *report.Report, show []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s (%s)\n", rep.ID, rep.Kind)

	for _, s := range show {
		switch s {
		case "summary":
			fmt.Fprintln(&b, rep.Summary())
			fmt.Fprintf(&b, "Exit: %s\n", rep.Exit())
			if rep.Message != "" {
				fmt.Fprintf(&b, "Message: %s\n", rep.Message)
			}
			if rep.Truncated {
				fmt.Fprintln(&b, "Output was truncated.")
			}
		case "stdout":
			writeBlock(&b, "Stdout", rep.Stdout)
		case "stderr":
			writeBlock(&b, "Stderr", rep.Stderr)
		case "pattern":
			writeBlock(&b, "Pattern", rep.Pattern)
		case "diff":
			writeBlock(&b, "Diff", rep.Diff)
		case "mismatches":
			fmt.Fprintln(&b)
			if len(rep.Mismatches) == 0 {
				fmt.Fprintln(&b, "Mismatches: (none)")
				continue
			}
			fmt.Fprintln(&b, "Mismatches:")
			writeMismatches(&b, rep.Mismatches)
		}
	}
	return b.String()
}

func writeBlock(b *strings.Builder, title, text string) {
	fmt.Fprintln(b)
	if text == "" {
		fmt.Fprintf(b, "%s: (empty)\n", title)
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintf(b, "    %s\n", line)
	}
}
