package prin

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// reader is a lexical scanner over EDN-style data: lists, vectors, maps,
// sets, strings, characters, numbers, symbols, and keywords. Commas count
// as whitespace; ";" starts a line comment.
type reader struct {
	src  string
	pos  int
	line int // 0-based; reported 1-based
	col  int
}

// ReadString reads a single value from s. Trailing content other than
// whitespace and comments is an error.
func ReadString(s string) (any, error) {
	r := &reader{src: s}
	v, err := r.readValue()
	if err != nil {
		return nil, err
	}
	r.skipSpace()
	if r.pos < len(r.src) {
		return nil, r.errorf("unexpected trailing content")
	}
	return v, nil
}

// ReadAll reads every value in s.
func ReadAll(s string) ([]any, error) {
	r := &reader{src: s}
	var vals []any
	for {
		r.skipSpace()
		if r.pos >= len(r.src) {
			return vals, nil
		}
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
}

func (r *reader) errorf(format string, args ...any) error {
	return &ReadError{
		Line:   r.line + 1,
		Column: r.col + 1,
		Inner:  errors.Errorf(format, args...),
	}
}

func (r *reader) peek() byte {
	if r.pos >= len(r.src) {
		return 0
	}
	return r.src[r.pos]
}

func (r *reader) next() byte {
	c := r.src[r.pos]
	r.pos++
	if c == '\n' {
		r.line++
		r.col = 0
	} else {
		r.col++
	}
	return c
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ','
}

func (r *reader) skipSpace() {
	for r.pos < len(r.src) {
		c := r.peek()
		if isSpace(c) {
			r.next()
			continue
		}
		if c == ';' {
			for r.pos < len(r.src) && r.peek() != '\n' {
				r.next()
			}
			continue
		}
		return
	}
}

func (r *reader) readValue() (any, error) {
	r.skipSpace()
	if r.pos >= len(r.src) {
		return nil, r.errorf("unexpected end of input")
	}
	switch c := r.peek(); c {
	case '(':
		r.next()
		elems, err := r.readSeq(')')
		if err != nil {
			return nil, err
		}
		return List(elems), nil
	case '[':
		r.next()
		elems, err := r.readSeq(']')
		if err != nil {
			return nil, err
		}
		return Vector(elems), nil
	case '{':
		r.next()
		return r.readMap()
	case '#':
		if r.pos+1 < len(r.src) && r.src[r.pos+1] == '{' {
			r.next()
			r.next()
			elems, err := r.readSeq('}')
			if err != nil {
				return nil, err
			}
			return Set(elems), nil
		}
		return nil, r.errorf("unexpected dispatch character %q", string(r.src[r.pos:min(r.pos+2, len(r.src))]))
	case ')', ']', '}':
		return nil, r.errorf("unexpected %q", string(c))
	case '"':
		return r.readString()
	case '\\':
		return r.readChar()
	default:
		return r.readAtom()
	}
}

func (r *reader) readSeq(close byte) ([]any, error) {
	var elems []any
	for {
		r.skipSpace()
		if r.pos >= len(r.src) {
			return nil, r.errorf("unterminated collection, expected %q", string(close))
		}
		if r.peek() == close {
			r.next()
			return elems, nil
		}
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
}

func (r *reader) readMap() (any, error) {
	var m Map
	for {
		r.skipSpace()
		if r.pos >= len(r.src) {
			return nil, r.errorf("unterminated map")
		}
		if r.peek() == '}' {
			r.next()
			return m, nil
		}
		k, err := r.readValue()
		if err != nil {
			return nil, err
		}
		r.skipSpace()
		if r.pos >= len(r.src) || r.peek() == '}' {
			return nil, r.errorf("map literal has an odd number of forms")
		}
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		m = append(m, MapEntry{Key: k, Val: v})
	}
}

func (r *reader) readString() (any, error) {
	r.next() // opening quote
	var b strings.Builder
	for {
		if r.pos >= len(r.src) {
			return nil, r.errorf("unterminated string literal")
		}
		c := r.next()
		switch c {
		case '"':
			return b.String(), nil
		case '\\':
			if r.pos >= len(r.src) {
				return nil, r.errorf("unterminated string literal")
			}
			e := r.next()
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				return nil, r.errorf("unsupported escape \\%s", string(e))
			}
		default:
			b.WriteByte(c)
		}
	}
}

func (r *reader) readChar() (any, error) {
	r.next() // backslash
	start := r.pos
	for r.pos < len(r.src) && !isSpace(r.peek()) && !isDelim(r.peek()) {
		r.next()
	}
	name := r.src[start:r.pos]
	if name == "" {
		return nil, r.errorf("dangling character literal")
	}
	if ch, ok := charNames[name]; ok {
		return Char(ch), nil
	}
	ch, size := utf8.DecodeRuneInString(name)
	if size != len(name) {
		return nil, r.errorf("unknown character name %q", name)
	}
	return Char(ch), nil
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '[', ']', '{', '}', '"', ';':
		return true
	}
	return false
}

func (r *reader) readAtom() (any, error) {
	start := r.pos
	for r.pos < len(r.src) && !isSpace(r.peek()) && !isDelim(r.peek()) {
		r.next()
	}
	text := r.src[start:r.pos]
	switch text {
	case "nil":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if strings.HasPrefix(text, ":") {
		if len(text) == 1 {
			return nil, r.errorf("empty keyword")
		}
		return Keyword(text[1:]), nil
	}
	if c := text[0]; c == '+' || c == '-' || unicode.IsDigit(rune(c)) {
		if len(text) > 1 || unicode.IsDigit(rune(c)) {
			if n, err := strconv.ParseInt(text, 0, 64); err == nil {
				return n, nil
			}
			if f, err := strconv.ParseFloat(text, 64); err == nil {
				return f, nil
			}
			if unicode.IsDigit(rune(c)) || (len(text) > 1 && unicode.IsDigit(rune(text[1]))) {
				return nil, r.errorf("invalid number %q", text)
			}
		}
	}
	return Symbol(text), nil
}
