// Package verify decides whether a contract-test program behaved as
// expected. The functions here are pure: they take an execution result
// produced elsewhere and never start a process.
package verify

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/deixis/contractcheck/internal/runner"
	"github.com/deixis/contractcheck/internal/template"
)

// DefaultSentinel is the exit code a release build returns when a contract
// check fails.
const DefaultSentinel = 255

// Invocation describes one check of a contract-test program.
type Invocation struct {
	Process  string             // executable under test, as reported in messages
	Debug    bool               // build carries diagnostic text
	Expected *template.Template // expected stderr; required in debug mode
	Category string             // test category, see template.CategoryOf
	TestKind string             // percent-scheme table key, see template.TestKind
	Table    template.Table     // percent-scheme rows; nil means template.DefaultTable
	Sentinel int                // release-mode exit code; 0 means DefaultSentinel
}

// NewInvocation fills Category and TestKind from the process name.
func NewInvocation(process string, debug bool, expected *template.Template) Invocation {
	return Invocation{
		Process:  process,
		Debug:    debug,
		Expected: expected,
		Category: template.CategoryOf(process),
		TestKind: template.TestKind(process),
	}
}

func (inv Invocation) sentinel() int {
	if inv.Sentinel != 0 {
		return inv.Sentinel
	}
	return DefaultSentinel
}

// Check runs the failing-program checks against res in order and returns
// the first Violation, or nil when every check passes. Errors that are
// not violations (a timed-out run, a template that cannot be rendered or
// compiled) are returned as plain errors.
func Check(inv Invocation, res *runner.Result) error {
	if res.TimedOut {
		return fmt.Errorf("%s: %w", inv.Process, runner.ErrTimedOut)
	}

	if res.ExitCode == 0 && !res.Signaled() {
		return violation(UnexpectedSuccess, inv.Process, "has unexpectedly succeeded.")
	}

	if len(res.Stdout) > 0 {
		return violation(UnexpectedStdout, inv.Process, "should not be writing to stdout.")
	}

	if !inv.Debug {
		if len(res.Stderr) > 0 {
			return violation(UnexpectedStderr, inv.Process, "wrote to stderr when building in a release mode.\n%s", res.Stderr)
		}
		if !exitedWithSentinel(res, inv.sentinel()) {
			if res.Signaled() {
				return violation(WrongExitCode, inv.Process, "was terminated by signal %q when it should have returned %d", res.Signal, inv.sentinel())
			}
			return violation(WrongExitCode, inv.Process, "returned %d when it should have returned %d", res.ExitCode, inv.sentinel())
		}
		return nil
	}

	if len(res.Stderr) == 0 {
		return violation(MissingStderr, inv.Process, "did not write to stderr while debugging symbols are present.")
	}

	return matchOutput(inv, Normalize(string(res.Stderr)))
}

// exitedWithSentinel reports whether the process returned the sentinel or
// aborted, which a release build treats as equivalent.
func exitedWithSentinel(res *runner.Result, sentinel int) bool {
	if res.Signaled() {
		return res.Signal == syscall.SIGABRT.String()
	}
	return res.ExitCode == sentinel
}

func matchOutput(inv Invocation, actual string) error {
	if inv.Expected == nil {
		return fmt.Errorf("%s: no expected output given for a debug build", inv.Process)
	}

	tmpl := normalizeTemplate(inv.Expected)
	ctx := template.Extract(actual, inv.Category)
	if tmpl.Scheme == template.SchemePercent {
		table := inv.Table
		if table == nil {
			table = template.DefaultTable()
		}
		row, err := table.Lookup(inv.TestKind)
		if err != nil {
			return fmt.Errorf("%s: %w", inv.Process, err)
		}
		ctx.Row = &row
	}

	pattern, err := tmpl.Render(ctx)
	if err != nil {
		return fmt.Errorf("%s: rendering expected output: %w", inv.Process, err)
	}
	ok, err := template.Match(pattern, actual)
	if err != nil {
		return fmt.Errorf("%s: %w", inv.Process, err)
	}
	if ok {
		return nil
	}

	expected := tmpl.Display(ctx)
	return &Violation{
		Kind:     OutputMismatch,
		Process:  inv.Process,
		Message:  "wrote unexpected diagnostic text to stderr.",
		Expected: expected,
		Actual:   actual,
		Pattern:  pattern,
		Diff:     Diff(expected, actual),
	}
}

// normalizeTemplate returns a copy of t whose literals use LF line
// endings, as the stderr it is matched against does.
func normalizeTemplate(t *template.Template) *template.Template {
	out := &template.Template{Scheme: t.Scheme, Tokens: make([]template.Token, len(t.Tokens))}
	for i, tok := range t.Tokens {
		if tok.Kind == template.Literal {
			tok.Text = Normalize(tok.Text)
		}
		out.Tokens[i] = tok
	}
	return out
}

// Normalize converts CRLF line endings to LF.
func Normalize(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
