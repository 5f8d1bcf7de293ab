package verify

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified line diff from expected to actual, or "" when the
// texts are line-for-line identical.
func Diff(expected, actual string) string {
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		// Only writer errors are possible and a strings.Builder has none.
		return ""
	}
	return text
}
