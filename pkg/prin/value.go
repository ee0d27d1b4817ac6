package prin

import "strings"

// The reader and printer share a small value vocabulary mirroring the data
// shapes the printer dispatches over. Collections keep element order;
// maps are ordered pair sequences so printing is deterministic and keys
// need not be comparable.

// Symbol is a bare identifier.
type Symbol string

func (s Symbol) String() string { return string(s) }

// Keyword is an interned name; printed with a leading colon.
type Keyword string

func (k Keyword) String() string { return ":" + string(k) }

// Char is a single character; printed readably as a backslash literal.
type Char rune

// List prints in parentheses.
type List []any

// Vector prints in square brackets.
type Vector []any

// Set prints as #{...}.
type Set []any

// MapEntry is one key-value pair of a Map.
type MapEntry struct {
	Key any
	Val any
}

// Map is an ordered sequence of entries; prints in braces.
type Map []MapEntry

// Equal reports structural equality between two values produced by the
// reader or built from the vocabulary types.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case List:
		bv, ok := b.(List)
		return ok && seqEqual(av, bv)
	case Vector:
		bv, ok := b.(Vector)
		return ok && seqEqual(av, bv)
	case Set:
		bv, ok := b.(Set)
		return ok && setEqual(av, bv)
	case Map:
		bv, ok := b.(Map)
		if !ok || len(av) != len(bv) {
			return false
		}
		for _, e := range av {
			if !mapContains(bv, e) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func seqEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func setEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		found := false
		for _, y := range b {
			if Equal(x, y) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func mapContains(m Map, e MapEntry) bool {
	for _, f := range m {
		if Equal(e.Key, f.Key) && Equal(e.Val, f.Val) {
			return true
		}
	}
	return false
}

// quoteString renders s as a readable double-quoted literal.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

var namedChars = map[rune]string{
	'\n': "newline",
	' ':  "space",
	'\t': "tab",
	'\r': "return",
	'\b': "backspace",
	'\f': "formfeed",
}

var charNames = map[string]rune{
	"newline":   '\n',
	"space":     ' ',
	"tab":       '\t',
	"return":    '\r',
	"backspace": '\b',
	"formfeed":  '\f',
}
