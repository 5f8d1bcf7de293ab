package verify

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/deixis/contractcheck/internal/runner"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, `f\(int\) \[3\] a\*b\+c\.`, Escape("f(int) [3] a*b+c."))
	assert.Equal(t, `ptr 0x[\da-f]+ \(null\)`, Escape(`ptr 0x[\da-f]+ (null)`))
}

func TestEscapeUnescape_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[a-z0-9 \[\]*+().'"]{0,60}`).Draw(t, "s")
		if got := Unescape(Escape(s)); got != s {
			t.Fatalf("Unescape(Escape(%q)) = %q", s, got)
		}
	})
}

func TestValidateLines_Passes(t *testing.T) {
	expected := "'-3'\n(1, 2)\nptr 0x[\\da-f]+\n"
	stderr := "'-3'\n(1, 2)\nptr 0x7ffd5e2a\n"

	err := ValidateLines("./test/print", expected, &runner.Result{Stderr: []byte(stderr)})
	assert.NoError(t, err)
}

func TestValidateLines_UnexpectedFailure(t *testing.T) {
	err := ValidateLines("./test/print", "x", &runner.Result{ExitCode: 134})
	v := requireViolation(t, err, UnexpectedFailure)
	assert.Equal(t, "./test/print unexpectedly failed with code 134", v.Error())
}

func TestValidateLines_TerminatedBySignal(t *testing.T) {
	err := ValidateLines("./test/print", "x", &runner.Result{ExitCode: -1, Signal: "aborted"})
	v := requireViolation(t, err, UnexpectedFailure)
	assert.Equal(t, `./test/print was terminated by signal "aborted"`, v.Error())
}

func TestValidateLines_Stdout(t *testing.T) {
	err := ValidateLines("./test/print", "x", &runner.Result{Stdout: []byte("x"), Stderr: []byte("x")})
	requireViolation(t, err, UnexpectedStdout)
}

func TestValidateLines_MissingStderr(t *testing.T) {
	err := ValidateLines("./test/print", "x", &runner.Result{})
	requireViolation(t, err, MissingStderr)
}

func TestValidateLines_ArraySizeMismatch(t *testing.T) {
	err := ValidateLines("./test/print", "a\nb\nc", &runner.Result{Stderr: []byte("a\nb")})
	v := requireViolation(t, err, LineCountMismatch)
	assert.Contains(t, v.Message, "Mismatch between array sizes")
	assert.Empty(t, v.Mismatches)
}

func TestValidateLines_LineCountProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		line := rapid.StringMatching(`[a-z ]{0,10}`)
		want := rapid.SliceOfN(line, 1, 10).Draw(t, "want")
		got := rapid.SliceOfN(line, 1, 10).Draw(t, "got")
		if len(want) == len(got) {
			got = append(got, "extra")
		}

		err := ValidateLines("./p", strings.Join(want, "\n"), &runner.Result{Stderr: []byte(strings.Join(got, "\n") + "x")})
		var v *Violation
		if !errors.As(err, &v) || v.Kind != LineCountMismatch {
			t.Fatalf("err = %v, want %s", err, LineCountMismatch)
		}
	})
}

func TestValidateLines_ReportsEveryMismatch(t *testing.T) {
	expected := "one\ntwo (2)\nthree\nfour"
	stderr := "one\ntwo [2]\nthree\nfive"

	err := ValidateLines("./test/print", expected, &runner.Result{Stderr: []byte(stderr)})
	v := requireViolation(t, err, LineMismatch)

	require.Len(t, v.Mismatches, 2)
	assert.Equal(t, LineMismatchDetail{Line: 2, Expected: "two (2)", Actual: "two [2]"}, v.Mismatches[0])
	assert.Equal(t, LineMismatchDetail{Line: 4, Expected: "four", Actual: "five"}, v.Mismatches[1])
	assert.Contains(t, v.Error(), "Line 2:\n\tExpected:\ttwo (2)\n\tActual:  \ttwo [2]")
}

func TestValidateLines_CRLF(t *testing.T) {
	err := ValidateLines("./test/print", "a\nb\n", &runner.Result{Stderr: []byte("a\r\nb\r\n")})
	assert.NoError(t, err)
}

func TestValidateLines_InvalidPattern(t *testing.T) {
	err := ValidateLines("./test/print", "?", &runner.Result{Stderr: []byte("?")})
	require.Error(t, err)
	var v *Violation
	assert.False(t, errors.As(err, &v))
}

func TestDiff(t *testing.T) {
	assert.Empty(t, Diff("a\nb\n", "a\nb\n"))

	d := Diff("a\nb\nc\n", "a\nB\nc\n")
	assert.Contains(t, d, "--- expected\n+++ actual\n")
	assert.Contains(t, d, "-b\n+B\n")
}
