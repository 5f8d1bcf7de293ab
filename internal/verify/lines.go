package verify

import (
	"fmt"
	"strings"

	"github.com/deixis/contractcheck/internal/runner"
	"github.com/deixis/contractcheck/internal/template"
)

// escapes are the metacharacters Escape quotes, in the order they are
// replaced.
var escapes = []string{"[", "]", "*", "+", "(", ")", "."}

// addressPattern survives escaping so expected files can match addresses.
const addressPattern = `0x[\da-f]+`

// Escape quotes the regex metacharacters [ ] * + ( ) . in s. The address
// pattern 0x[\da-f]+ is left as a pattern.
func Escape(s string) string {
	for _, c := range escapes {
		s = strings.ReplaceAll(s, c, `\`+c)
	}
	return strings.ReplaceAll(s, `0x\[\da-f\]\+`, addressPattern)
}

// Unescape reverses Escape.
func Unescape(s string) string {
	for _, c := range escapes {
		s = strings.ReplaceAll(s, `\`+c, c)
	}
	return s
}

// ValidateLines is the strict validator for programs that print contract
// violation text and then exit normally. The program must exit 0, write
// nothing to stdout, and write to stderr; every stderr line must then match
// the corresponding escaped expected line. All mismatching lines are
// reported, not only the first.
func ValidateLines(process, expected string, res *runner.Result) error {
	if res.TimedOut {
		return fmt.Errorf("%s: %w", process, runner.ErrTimedOut)
	}
	if res.Signaled() {
		return violation(UnexpectedFailure, process, "was terminated by signal %q", res.Signal)
	}
	if res.ExitCode != 0 {
		return violation(UnexpectedFailure, process, "unexpectedly failed with code %d", res.ExitCode)
	}
	if len(res.Stdout) > 0 {
		return violation(UnexpectedStdout, process, "shouldn't be writing to stdout.")
	}
	if len(res.Stderr) == 0 {
		return violation(MissingStderr, process, "should've written something to stderr, but didn't.")
	}

	want := strings.Split(Escape(Normalize(expected)), "\n")
	got := strings.Split(Normalize(string(res.Stderr)), "\n")
	if len(want) != len(got) {
		return violation(LineCountMismatch, process, "Mismatch between array sizes: expected %d lines, got %d.", len(want), len(got))
	}

	var mismatches []LineMismatchDetail
	for i := range want {
		ok, err := template.Match(want[i], got[i])
		if err != nil {
			return fmt.Errorf("%s: line %d: %w", process, i+1, err)
		}
		if !ok {
			mismatches = append(mismatches, LineMismatchDetail{
				Line:     i + 1,
				Expected: Unescape(want[i]),
				Actual:   got[i],
			})
		}
	}
	if len(mismatches) > 0 {
		v := violation(LineMismatch, process, "wrote %d mismatching lines.", len(mismatches))
		v.Mismatches = mismatches
		return v
	}
	return nil
}
