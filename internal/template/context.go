package template

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNoCategory is returned when a percent placeholder is rendered without
// a category row.
var ErrNoCategory = errors.New("percent placeholders need a test category")

// Context holds the run-specific values placeholders resolve to.
type Context struct {
	Addresses []string // 0x followed by 16 hex digits, in output order
	Offsets   []string // +0x… return offsets, in output order
	Source    string   // source file of the failing test
	Entries   []string // stack-frame entries tied to the test binary
	Columns   []string // column numbers after a file:line: prefix
	Row       *Row     // category row for the percent scheme
}

var (
	addressRe = regexp.MustCompile(`0x[0-9a-fA-F]{16}\b`)
	offsetRe  = regexp.MustCompile(`\+0x[0-9a-fA-F]+`)
	columnRe  = regexp.MustCompile(`[^\s:]+:\d+:(\d+)`)
)

// Extract collects placeholder values from the actual output of a run.
// category is the token derived from the executable name (see CategoryOf);
// when empty, source and entry values are not extracted.
func Extract(actual, category string) Context {
	ctx := Context{
		Addresses: addressRe.FindAllString(actual, -1),
		Offsets:   offsetRe.FindAllString(actual, -1),
	}
	for _, m := range columnRe.FindAllStringSubmatch(actual, -1) {
		ctx.Columns = append(ctx.Columns, m[1])
	}

	if category == "" {
		return ctx
	}
	quoted := regexp.QuoteMeta(category)

	sourceRe := regexp.MustCompile("[^\\s:'\"`(]*" + quoted + `\.(?:cpp|cxx|cc|c)\b`)
	ctx.Source = sourceRe.FindString(actual)

	// Stack frames are printed indented, as "<binary>(symbol+0x1d)" by
	// backtrace_symbols or "<binary>:\t<symbol>" once demangled.
	entryRe := regexp.MustCompile(`(?m)^[ \t]+([^\s(:]*` + quoted + `[^\s(:]*)[(:]`)
	for _, m := range entryRe.FindAllStringSubmatch(actual, -1) {
		ctx.Entries = append(ctx.Entries, m[1])
	}
	return ctx
}

// value returns the idx-th value of kind k.
func (c Context) value(k Kind, idx int) (string, bool, error) {
	switch k {
	case Address:
		return at(c.Addresses, idx)
	case Offset:
		return at(c.Offsets, idx)
	case Entry:
		return at(c.Entries, idx)
	case Column:
		return at(c.Columns, idx)
	case Source:
		return c.Source, c.Source != "", nil
	case Percent:
		if c.Row == nil {
			return "", false, ErrNoCategory
		}
		values := c.Row.values()
		if idx >= len(values) {
			return "", false, fmt.Errorf("template has more than %d %% placeholders", len(values))
		}
		return values[idx], true, nil
	}
	return "", false, fmt.Errorf("no value for %s placeholder", k)
}

func at(values []string, idx int) (string, bool, error) {
	if idx < len(values) {
		return values[idx], true, nil
	}
	return "", false, nil
}
