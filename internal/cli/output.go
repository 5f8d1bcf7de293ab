package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/deixis/contractcheck/internal/report"
)

// Exit codes for CLI commands.
const (
	ExitSuccess = 0 // Program behaved as expected
	ExitFailure = 1 // Verification failed, or the check could not be carried out
	ExitUsage   = 2 // Invalid flags or arguments
)

// Error codes used in JSON error responses.
const (
	ErrCodeUsage    = "E_USAGE"
	ErrCodeInternal = "E_INTERNAL"
)

// ExitError represents an error with a specific exit code.
// An ExitError with neither Message nor Err has already been reported and
// only carries the exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitUsage)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// silent returns an already-reported error carrying code.
func silent(code int) *ExitError {
	return &ExitError{Code: code}
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok", "fail" or "error"
	Data   any       `json:"data,omitempty"`  // report or other payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// printer renders command results in the configured format.
type printer struct {
	format  string
	verbose bool
	out     io.Writer
	errOut  io.Writer
	palette palette
}

func newPrinter(opts *RootOptions, cmd *cobra.Command) *printer {
	return &printer{
		format:  opts.Format,
		verbose: opts.Verbose,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		palette: newPalette(cmd.ErrOrStderr(), opts.Color),
	}
}

// report prints rep. A passing report goes to stdout; in text mode a
// failing one goes to stderr and yields an exit code of ExitFailure.
func (p *printer) report(rep *report.Report) error {
	if p.format == "json" {
		status := "ok"
		if !rep.Passed {
			status = "fail"
		}
		if err := json.NewEncoder(p.out).Encode(CLIResponse{Status: status, Data: rep}); err != nil {
			return err
		}
	} else {
		w := p.out
		if !rep.Passed {
			w = p.errOut
		}
		fmt.Fprint(w, renderReport(rep, p.palette, p.verbose))
	}

	if !rep.Passed {
		return silent(ExitFailure)
	}
	return nil
}

// fail reports err. In JSON mode the error is written to stdout and an
// already-reported error is returned; in text mode err is returned as is.
func (p *printer) fail(err error) error {
	if p.format != "json" {
		return err
	}
	code := GetExitCode(err)
	errCode := ErrCodeInternal
	if code == ExitUsage {
		errCode = ErrCodeUsage
	}
	resp := CLIResponse{Status: "error", Error: &CLIError{Code: errCode, Message: err.Error()}}
	if encErr := json.NewEncoder(p.out).Encode(resp); encErr != nil {
		return err
	}
	return silent(code)
}

// palette colours parts of the text report.
type palette struct {
	pass, fail func(string) string
	add, del   func(string) string
	hunk, dim  func(string) string
}

func plainPalette() palette {
	id := func(s string) string { return s }
	return palette{pass: id, fail: id, add: id, del: id, hunk: id, dim: id}
}

// newPalette returns a lipgloss palette for w. In auto mode colour is used
// only when w supports it.
func newPalette(w io.Writer, mode string) palette {
	if mode == "never" {
		return plainPalette()
	}
	r := lipgloss.NewRenderer(w)
	if mode == "always" {
		r.SetColorProfile(termenv.ANSI256)
	} else if r.ColorProfile() == termenv.Ascii {
		return plainPalette()
	}

	render := func(s lipgloss.Style) func(string) string { return s.Render }
	return palette{
		pass: render(r.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))),
		fail: render(r.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))),
		add:  render(r.NewStyle().Foreground(lipgloss.Color("46"))),
		del:  render(r.NewStyle().Foreground(lipgloss.Color("196"))),
		hunk: render(r.NewStyle().Foreground(lipgloss.Color("86"))),
		dim:  render(r.NewStyle().Foreground(lipgloss.Color("240"))),
	}
}

// renderReport formats rep as human-readable text.
func renderReport(rep *report.Report, p palette, verbose bool) string {
	var b strings.Builder

	status := p.pass("PASS")
	if !rep.Passed {
		status = p.fail("FAIL")
	}
	fmt.Fprintf(&b, "%s %s", status, rep.Process)
	if rep.Kind == report.Check {
		fmt.Fprintf(&b, " (%s)", rep.Mode())
	}
	if !rep.Passed && rep.Violation != "" {
		fmt.Fprintf(&b, ": %s", rep.Violation)
	}
	b.WriteString("\n")

	if verbose {
		fmt.Fprintln(&b, p.dim(fmt.Sprintf("  run %s, %s", rep.ID, rep.Exit())))
		if rep.Truncated {
			fmt.Fprintln(&b, p.dim("  output was truncated"))
		}
	}
	if rep.Passed {
		return b.String()
	}

	fmt.Fprintf(&b, "Error: %s %s\n", rep.Process, rep.Message)

	if rep.Diff != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(strings.TrimRight(rep.Diff, "\n"), "\n") {
			b.WriteString(colourDiffLine(line, p))
			b.WriteString("\n")
		}
	}
	if rep.ExpectedPath != "" {
		b.WriteString("\n")
		fmt.Fprintf(&b, "Expected text: %s\n", rep.ExpectedPath)
		fmt.Fprintf(&b, "Actual text:   %s\n", rep.ActualPath)
	}
	for _, m := range rep.Mismatches {
		fmt.Fprintf(&b, "Line %d:\n\tExpected:\t%s\n\tActual:  \t%s\n", m.Line, m.Expected, m.Actual)
	}
	if verbose && rep.Pattern != "" {
		b.WriteString("\n")
		fmt.Fprintf(&b, "Pattern: %s\n", rep.Pattern)
	}
	return b.String()
}

func colourDiffLine(line string, p palette) string {
	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		return p.dim(line)
	case strings.HasPrefix(line, "@@"):
		return p.hunk(line)
	case strings.HasPrefix(line, "+"):
		return p.add(line)
	case strings.HasPrefix(line, "-"):
		return p.del(line)
	}
	return line
}
