package template

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Categories are the families of contract tests. Each names the source
// file a failing test program is compiled from.
var Categories = []string{"fail-expects", "fail-assert", "fail-ensures"}

// CategoryOf returns the test category embedded in an executable name,
// or "" when the name carries none.
func CategoryOf(process string) string {
	name := strings.ToLower(baseName(process))
	for _, c := range Categories {
		if strings.Contains(name, c) {
			return c
		}
	}
	return ""
}

// TestKind normalizes an executable name to a category-table key:
// the category prefix is dropped, the rest lower-cased with dashes turned
// into underscores. "fail-ensures-not-equal-to" becomes "not_equal_to".
func TestKind(process string) string {
	name := strings.ToLower(baseName(process))
	if c := CategoryOf(name); c != "" {
		name = name[strings.Index(name, c)+len(c):]
	}
	name = strings.Trim(name, "-_.")
	return strings.ReplaceAll(name, "-", "_")
}

// baseName returns the file name of process without a Windows ".exe"
// suffix. Other dots are part of the name: "cjdb.fail-ensures-less" keeps
// its project prefix.
func baseName(process string) string {
	name := filepath.Base(process)
	if strings.EqualFold(filepath.Ext(name), ".exe") {
		name = name[:len(name)-len(".exe")]
	}
	return name
}

// Row is one entry of the percent-scheme lookup table.
type Row struct {
	Operator string
	Left     string
	Right    string
	Category string
}

func (r Row) values() []string {
	return []string{r.Operator, r.Left, r.Right, r.Category}
}

// Table maps a normalized test kind to its row.
type Table map[string]Row

// DefaultTable returns the rows for the comparison kinds exercised by the
// post-condition tests.
func DefaultTable() Table {
	return Table{
		"equal_to":      {Operator: "==", Left: "argc", Right: "0", Category: "equal_to"},
		"not_equal_to":  {Operator: "!=", Left: "argc", Right: "1", Category: "not_equal_to"},
		"less":          {Operator: "<", Left: "argc", Right: "0", Category: "less"},
		"less_equal":    {Operator: "<=", Left: "argc", Right: "0", Category: "less_equal"},
		"greater_equal": {Operator: ">=", Left: "argc", Right: "4", Category: "greater_equal"},
		"greater":       {Operator: ">", Left: "argc", Right: "4", Category: "greater"},
	}
}

// With returns a copy of t extended with extra. Rows in extra win; a row
// without a Category is given its key.
func (t Table) With(extra Table) Table {
	out := make(Table, len(t)+len(extra))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range extra {
		if v.Category == "" {
			v.Category = k
		}
		out[k] = v
	}
	return out
}

// Lookup returns the row for kind.
func (t Table) Lookup(kind string) (Row, error) {
	if r, ok := t[kind]; ok {
		return r, nil
	}
	known := make([]string, 0, len(t))
	for k := range t {
		known = append(known, k)
	}
	sort.Strings(known)
	return Row{}, fmt.Errorf("unknown test category %q: known categories are %s", kind, strings.Join(known, ", "))
}
