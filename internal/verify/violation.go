package verify

import (
	"fmt"
	"strings"
)

// Kind classifies a verification failure.
type Kind string

const (
	// UnexpectedSuccess: the program exited 0 but was expected to fail a contract.
	UnexpectedSuccess Kind = "unexpected-success"
	// UnexpectedStdout: the program wrote to stdout.
	UnexpectedStdout Kind = "unexpected-stdout"
	// UnexpectedStderr: a release build wrote diagnostic text.
	UnexpectedStderr Kind = "unexpected-stderr"
	// WrongExitCode: a release build did not exit with the sentinel.
	WrongExitCode Kind = "wrong-exit-code"
	// MissingStderr: a debug build wrote no diagnostic text.
	MissingStderr Kind = "missing-stderr"
	// OutputMismatch: stderr did not match the expected template.
	OutputMismatch Kind = "output-mismatch"

	// UnexpectedFailure: the strict validator's program exited non-zero.
	UnexpectedFailure Kind = "unexpected-failure"
	// LineCountMismatch: expected and actual output differ in line count.
	LineCountMismatch Kind = "line-count-mismatch"
	// LineMismatch: one or more lines did not match.
	LineMismatch Kind = "line-mismatch"
)

// Violation is a failed check. It is terminal for the run that produced it.
type Violation struct {
	Kind    Kind
	Process string
	Message string

	// Set for OutputMismatch.
	Expected string // normalized expected text
	Actual   string // normalized actual text
	Pattern  string // rendered regex the actual text was matched against
	Diff     string // unified diff between Expected and Actual

	// Set for LineMismatch.
	Mismatches []LineMismatchDetail
}

// LineMismatchDetail describes one line the strict validator rejected.
type LineMismatchDetail struct {
	Line     int    `json:"line"` // 1-based
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

func (v *Violation) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", v.Process, v.Message)

	switch v.Kind {
	case OutputMismatch:
		if v.Diff != "" {
			fmt.Fprintf(&b, "\n\n%s", v.Diff)
		} else {
			fmt.Fprintf(&b, "\n\nexpected: %s\nactual:   %s", v.Expected, v.Actual)
		}
	case LineMismatch:
		for _, m := range v.Mismatches {
			fmt.Fprintf(&b, "\nLine %d:\n\tExpected:\t%s\n\tActual:  \t%s", m.Line, m.Expected, m.Actual)
		}
	}
	return b.String()
}

func violation(kind Kind, process, format string, args ...any) *Violation {
	return &Violation{Kind: kind, Process: process, Message: fmt.Sprintf(format, args...)}
}
