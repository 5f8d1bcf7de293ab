// Package report provides structured persistence and retrieval of
// verification runs. Reports are stored as typed structs and can be
// inspected after the fact by run ID.
package report

import (
	"fmt"
	"strings"
)

// Kind identifies the type of a run.
type Kind string

const (
	// Check is a failing-program check (release/debug rules, template match).
	Check Kind = "check"
	// Validate is a strict line-by-line validation.
	Validate Kind = "validate"
)

// Store persists and retrieves reports.
type Store interface {
	Save(report *Report) error
	Load(runID string) (*Report, error)
}

// DiffWriter persists the normalized texts a mismatch diff was built from.
type DiffWriter interface {
	WriteDiffInputs(runID, expected, actual string) (expectedPath, actualPath string, err error)
}

// Report holds the structured outcome of one run.
type Report struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Process string `json:"process"`
	Debug   bool   `json:"debug,omitempty"`
	Passed  bool   `json:"passed"`

	// Failure fields.
	Violation string `json:"violation,omitempty"` // verify.Kind of the failed check
	Message   string `json:"message,omitempty"`

	// Execution fields.
	ExitCode  int    `json:"exit_code"`
	Signal    string `json:"signal,omitempty"`
	Stdout    string `json:"stdout,omitempty"`
	Stderr    string `json:"stderr,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`

	// Mismatch fields.
	Pattern      string         `json:"pattern,omitempty"`
	Diff         string         `json:"diff,omitempty"`
	ExpectedPath string         `json:"expected_path,omitempty"`
	ActualPath   string         `json:"actual_path,omitempty"`
	Mismatches   []LineMismatch `json:"mismatches,omitempty"`
}

// LineMismatch is one line rejected by a strict validation.
type LineMismatch struct {
	Line     int    `json:"line"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Mode returns "debug" or "release".
func (r *Report) Mode() string {
	if r.Debug {
		return "debug"
	}
	return "release"
}

// Status returns "PASS" or "FAIL".
func (r *Report) Status() string {
	if r.Passed {
		return "PASS"
	}
	return "FAIL"
}

// Exit describes how the process terminated.
func (r *Report) Exit() string {
	if r.Signal != "" {
		return fmt.Sprintf("signal %s", r.Signal)
	}
	return fmt.Sprintf("exit code %d", r.ExitCode)
}

// Summary returns a one-line description of the run.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", r.Status(), r.Process)
	if r.Kind == Check {
		fmt.Fprintf(&b, " (%s)", r.Mode())
	}
	if !r.Passed && r.Violation != "" {
		fmt.Fprintf(&b, ": %s", r.Violation)
	}
	return b.String()
}
