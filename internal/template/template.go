// Package template models expected-output templates for contract
// diagnostics.
//
// A template is regex source in which some sub-patterns stand for values
// that differ from run to run (pointer addresses, return offsets, absolute
// source paths, stack-frame entries, column numbers). Parse splits the
// template into literal regex fragments and placeholders; Render resolves
// each placeholder from a Context extracted from the actual output and
// produces the final pattern.
//
// Two placeholder schemes exist:
//
//   - SchemeRegex: named placeholders ({{address}}, {{offset}}, {{source}},
//     {{entry}}, {{column}}) plus the raw sub-patterns older templates use
//     for addresses and offsets (0x[\da-f]{16}, \+0x[\da-f]+).
//   - SchemePercent: every single % is filled, in order, from the
//     category row: operator, left operand, right operand, category name.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies a template token.
type Kind int

const (
	Literal Kind = iota
	Address
	Offset
	Source
	Entry
	Column
	Percent
)

func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Address:
		return "address"
	case Offset:
		return "offset"
	case Source:
		return "source"
	case Entry:
		return "entry"
	case Column:
		return "column"
	case Percent:
		return "percent"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Scheme selects how placeholders are spelled in a template.
type Scheme string

const (
	SchemeRegex   Scheme = "regex"
	SchemePercent Scheme = "percent"
)

// ParseScheme validates a scheme name. The empty string means SchemeRegex.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case "", SchemeRegex:
		return SchemeRegex, nil
	case SchemePercent:
		return SchemePercent, nil
	}
	return "", fmt.Errorf("unknown template scheme %q: must be %q or %q", s, SchemeRegex, SchemePercent)
}

// Token is either a literal regex fragment or a placeholder.
type Token struct {
	Kind Kind
	Text string // regex source for literals, original spelling for placeholders
}

// Template is a parsed expected-output template.
type Template struct {
	Scheme Scheme
	Tokens []Token
}

// namedPlaceholders maps {{name}} spellings to their kind.
var namedPlaceholders = map[string]Kind{
	"address": Address,
	"offset":  Offset,
	"source":  Source,
	"entry":   Entry,
	"column":  Column,
}

// legacyPlaceholders are raw sub-patterns that older templates use in place
// of a named placeholder. Checked before escape handling since they begin
// with a backslash or contain one.
var legacyPlaceholders = []struct {
	text string
	kind Kind
}{
	{`0x[\da-f]{16}`, Address},
	{`0x[0-9a-f]{16}`, Address},
	{`\+0x[\da-f]+`, Offset},
	{`\+0x[0-9a-f]+`, Offset},
}

// genericPatterns are used when a placeholder has no value in the Context.
var genericPatterns = map[Kind]string{
	Address: `0x[\da-f]{16}`,
	Offset:  `\+0x[\da-f]+`,
	Source:  `\S+`,
	Entry:   `\S+`,
	Column:  `\d+`,
}

// Parse splits text into tokens according to scheme.
func Parse(text string, scheme Scheme) (*Template, error) {
	if scheme == "" {
		scheme = SchemeRegex
	}
	t := &Template{Scheme: scheme}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.Tokens = append(t.Tokens, Token{Kind: Literal, Text: lit.String()})
			lit.Reset()
		}
	}
	emit := func(k Kind, text string) {
		flush()
		t.Tokens = append(t.Tokens, Token{Kind: k, Text: text})
	}

	for i := 0; i < len(text); {
		rest := text[i:]

		if scheme == SchemeRegex {
			if k, n := matchLegacy(rest); n > 0 {
				emit(k, rest[:n])
				i += n
				continue
			}
		}

		// Escape pairs are copied through untouched so that an escaped
		// brace or percent never opens a placeholder.
		if rest[0] == '\\' && len(rest) > 1 {
			lit.WriteString(rest[:2])
			i += 2
			continue
		}

		switch scheme {
		case SchemeRegex:
			if strings.HasPrefix(rest, "{{") {
				end := strings.Index(rest, "}}")
				if end < 0 {
					return nil, fmt.Errorf("unterminated placeholder at offset %d", i)
				}
				name := strings.TrimSpace(rest[2:end])
				k, ok := namedPlaceholders[name]
				if !ok {
					return nil, fmt.Errorf("unknown placeholder {{%s}} at offset %d", name, i)
				}
				emit(k, rest[:end+2])
				i += end + 2
				continue
			}
		case SchemePercent:
			if strings.HasPrefix(rest, "%%") {
				lit.WriteByte('%')
				i += 2
				continue
			}
			if rest[0] == '%' {
				emit(Percent, "%")
				i++
				continue
			}
		default:
			return nil, fmt.Errorf("unknown template scheme %q", scheme)
		}

		lit.WriteByte(rest[0])
		i++
	}
	flush()
	return t, nil
}

func matchLegacy(s string) (Kind, int) {
	for _, p := range legacyPlaceholders {
		if strings.HasPrefix(s, p.text) {
			return p.kind, len(p.text)
		}
	}
	return Literal, 0
}

// Count returns the number of tokens of kind k.
func (t *Template) Count(k Kind) int {
	n := 0
	for _, tok := range t.Tokens {
		if tok.Kind == k {
			n++
		}
	}
	return n
}

// Render resolves every placeholder from ctx and returns the final regex
// source. Address, offset, entry and column placeholders are filled
// positionally: the n-th placeholder of a kind takes the n-th value of that
// kind. Resolved values are quoted; placeholders without a value fall back
// to a generic pattern. Percent placeholders must all resolve.
func (t *Template) Render(ctx Context) (string, error) {
	var b strings.Builder
	next := make(map[Kind]int)
	for _, tok := range t.Tokens {
		if tok.Kind == Literal {
			b.WriteString(tok.Text)
			continue
		}
		idx := next[tok.Kind]
		next[tok.Kind]++

		v, ok, err := ctx.value(tok.Kind, idx)
		if err != nil {
			return "", err
		}
		if ok {
			b.WriteString(regexp.QuoteMeta(v))
		} else {
			b.WriteString(genericPatterns[tok.Kind])
		}
	}
	return b.String(), nil
}

// Display renders the template as readable text for diffs: regex escapes
// in literals are dropped, resolved values appear verbatim, and unresolved
// placeholders keep their original spelling.
func (t *Template) Display(ctx Context) string {
	var b strings.Builder
	next := make(map[Kind]int)
	for _, tok := range t.Tokens {
		if tok.Kind == Literal {
			b.WriteString(unescapeRegex(tok.Text))
			continue
		}
		idx := next[tok.Kind]
		next[tok.Kind]++

		if v, ok, err := ctx.value(tok.Kind, idx); err == nil && ok {
			b.WriteString(v)
		} else {
			b.WriteString(tok.Text)
		}
	}
	return b.String()
}

// unescapeRegex drops the backslash from escaped punctuation. Escapes of
// letters and digits (\d, \s, \1) carry meaning and are kept.
func unescapeRegex(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && isPunct(s[i+1]) {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isPunct(c byte) bool {
	return c < 0x80 && !('a' <= c && c <= 'z') && !('A' <= c && c <= 'Z') && !('0' <= c && c <= '9') && c != ' '
}

// Match reports whether text matches pattern at its start. Trailing text
// (a stack trace after the diagnostic, say) is permitted.
func Match(pattern, text string) (bool, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return false, fmt.Errorf("compiling expected output: %w", err)
	}
	return re.MatchString(text), nil
}
