package prin

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Control is a compiled format control string. Compiling once and executing
// many times avoids re-parsing the directive syntax per call.
type Control struct {
	src  string
	segs []segment
}

// Format applies a `~`-directive control string to args, writing to w with
// default options.
func Format(w io.Writer, control string, args ...any) error {
	c, err := Compile(control)
	if err != nil {
		return err
	}
	return c.Execute(w, nil, args...)
}

// Render applies a control string to args and returns the result.
func Render(control string, args ...any) (string, error) {
	var b strings.Builder
	if err := Format(&b, control, args...); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Execute runs the compiled control against args. Text already written to w
// before an error stays written.
func (c *Control) Execute(w io.Writer, opts *Options, args ...any) error {
	s := NewStream(w, opts)
	x := &exec{
		ctl: c,
		s:   s,
		p:   &printer{s: s},
		cur: &argCursor{args: args},
	}
	err := x.run(c.segs)
	if esc := (*escapeSignal)(nil); errors.As(err, &esc) {
		err = nil // ~^ at top level just stops processing
	}
	if err != nil {
		return err
	}
	return s.Flush()
}

// segment is either literal text or a directive.
type segment struct {
	text string
	dir  *directive
}

type paramKind int

const (
	paramInt       paramKind = iota
	paramChar                // 'x
	paramFromArg             // v
	paramRemaining           // #
	paramEmpty               // elided slot
)

type param struct {
	kind paramKind
	n    int
	ch   rune
}

// directive is one compiled `~` directive. Bracketed forms (conditionals,
// iteration, case conversion, justification, logical blocks) carry their
// sub-clauses as trees.
type directive struct {
	ch     byte // canonical lowercase directive character
	params []param
	colon  bool
	at     bool
	offset int // 1-based offset of the '~' in the control string

	// bracketed forms
	clauses    [][]segment
	seps       []*directive // separator directives between clauses
	elseClause int          // clause index following ~:;, or -1
	closeColon bool
	closeAt    bool
}

// maxParams bounds the explicit parameter count per directive; exceeding it
// is a compile error.
var maxParams = map[byte]int{
	'a': 4, 's': 4, 'w': 0, 'd': 4, 'b': 4, 'o': 4, 'x': 4,
	'r': 5, 'p': 0, 'c': 0,
	'f': 5, 'e': 7, 'g': 7, '$': 4,
	'%': 1, '&': 1, '|': 1, '~': 1,
	't': 2, '*': 1, '?': 0, '^': 3, '_': 0, 'i': 1,
	'(': 0, '[': 1, '{': 1, '<': 4,
	';': 2, ')': 0, ']': 0, '}': 0, '>': 0,
}

var bracketClose = map[byte]byte{
	'(': ')',
	'[': ']',
	'{': '}',
	'<': '>',
}

// Compile parses a control string into an executable form. Malformed
// directives are reported with the 1-based character offset of the
// offending directive.
func Compile(control string) (*Control, error) {
	p := &ctlParser{src: control}
	segs, err := p.parseBody(0)
	if err != nil {
		return nil, err
	}
	return &Control{src: control, segs: segs}, nil
}

type ctlParser struct {
	src string
	pos int
}

func (p *ctlParser) errorAt(offset int, format string, args ...any) error {
	return NewDirectiveError(errors.Errorf(format, args...), p.src, offset)
}

// parseBody parses segments until a closing directive matching close, or
// end of input when close is zero. Clause separators (~;) are rejected
// here; bracketed directives parse their clauses via parseClauses.
func (p *ctlParser) parseBody(close byte) ([]segment, error) {
	clauses, _, closing, err := p.parseClauses(close, 0)
	if err != nil {
		return nil, err
	}
	if len(clauses) != 1 {
		off := p.pos
		if closing != nil {
			off = closing.offset
		}
		return nil, p.errorAt(off, "~; not allowed outside a bracket directive")
	}
	return clauses[0], nil
}

// parseClauses parses `~;`-separated clauses until the given closing
// directive character (zero for end of input). openOffset is used for
// unterminated-bracket errors.
func (p *ctlParser) parseClauses(close byte, openOffset int) (clauses [][]segment, seps []*directive, closing *directive, err error) {
	var cur []segment
	for {
		if p.pos >= len(p.src) {
			if close != 0 {
				return nil, nil, nil, p.errorAt(openOffset, "unterminated ~%c directive, missing ~%c", closeToOpen(close), close)
			}
			clauses = append(clauses, cur)
			return clauses, seps, nil, nil
		}

		if idx := strings.IndexByte(p.src[p.pos:], '~'); idx != 0 {
			if idx < 0 {
				cur = append(cur, segment{text: p.src[p.pos:]})
				p.pos = len(p.src)
				continue
			}
			cur = append(cur, segment{text: p.src[p.pos : p.pos+idx]})
			p.pos += idx
			continue
		}

		d, lit, err := p.parseDirective()
		if err != nil {
			return nil, nil, nil, err
		}
		if d == nil {
			if lit != "" {
				cur = append(cur, segment{text: lit})
			}
			continue
		}

		switch d.ch {
		case close:
			clauses = append(clauses, cur)
			return clauses, seps, d, nil
		case ')', ']', '}', '>':
			return nil, nil, nil, p.errorAt(d.offset, "unmatched closing directive ~%c", d.ch)
		case ';':
			if close == 0 {
				return nil, nil, nil, p.errorAt(d.offset, "~; not allowed outside a bracket directive")
			}
			clauses = append(clauses, cur)
			seps = append(seps, d)
			cur = nil
		case '(', '[', '{', '<':
			sub, subSeps, subClosing, err := p.parseClauses(bracketClose[d.ch], d.offset)
			if err != nil {
				return nil, nil, nil, err
			}
			d.clauses = sub
			d.seps = subSeps
			d.closeColon = subClosing.colon
			d.closeAt = subClosing.at
			d.elseClause = -1
			for i, sep := range subSeps {
				if sep.colon {
					d.elseClause = i + 1
				}
			}
			cur = append(cur, segment{dir: d})
		default:
			cur = append(cur, segment{dir: d})
		}
	}
}

func closeToOpen(close byte) byte {
	for open, c := range bracketClose {
		if c == close {
			return open
		}
	}
	return close
}

// parseDirective parses one directive starting at '~'. A tilde-newline is
// resolved at compile time and returned as literal text (possibly empty)
// with a nil directive.
func (p *ctlParser) parseDirective() (*directive, string, error) {
	offset := p.pos + 1 // 1-based
	p.pos++             // consume '~'

	d := &directive{offset: offset}

	// Parameters: comma-separated, each slot an integer, 'x character, v
	// (take from args), # (remaining arg count), or elided.
	for p.pos < len(p.src) {
		var pr param
		got := true
		switch c := p.src[p.pos]; {
		case c >= '0' && c <= '9', c == '+', c == '-':
			start := p.pos
			if c == '+' || c == '-' {
				p.pos++
			}
			digits := 0
			for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
				p.pos++
				digits++
			}
			if digits == 0 {
				return nil, "", p.errorAt(offset, "sign without digits in directive parameter")
			}
			n := 0
			neg := false
			for _, ch := range p.src[start:p.pos] {
				switch ch {
				case '+':
				case '-':
					neg = true
				default:
					n = n*10 + int(ch-'0')
				}
			}
			if neg {
				n = -n
			}
			pr = param{kind: paramInt, n: n}
		case c == '\'':
			p.pos++
			if p.pos >= len(p.src) {
				return nil, "", p.errorAt(offset, "missing character after ' in directive parameter")
			}
			pr = param{kind: paramChar, ch: rune(p.src[p.pos])}
			p.pos++
		case c == 'v', c == 'V':
			pr = param{kind: paramFromArg}
			p.pos++
		case c == '#':
			pr = param{kind: paramRemaining}
			p.pos++
		default:
			got = false
		}

		if p.pos < len(p.src) && p.src[p.pos] == ',' {
			// Comma continues the parameter list; an empty slot before
			// it records an elided parameter.
			if !got {
				pr = param{kind: paramEmpty}
			}
			d.params = append(d.params, pr)
			p.pos++
			continue
		}
		if got {
			d.params = append(d.params, pr)
		}
		break
	}

	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ':':
			if d.colon {
				return nil, "", p.errorAt(offset, "repeated : flag")
			}
			d.colon = true
			p.pos++
		case '@':
			if d.at {
				return nil, "", p.errorAt(offset, "repeated @ flag")
			}
			d.at = true
			p.pos++
		default:
			goto dirChar
		}
	}

dirChar:
	if p.pos >= len(p.src) {
		return nil, "", p.errorAt(offset, "control string ends inside a directive")
	}

	c := p.src[p.pos]
	p.pos++

	if c == '\n' {
		// ~<newline>: plain skips the newline and following whitespace;
		// : keeps the whitespace; @ keeps the newline.
		lit := ""
		if d.at {
			lit = "\n"
		}
		if d.colon {
			return nil, lit, nil
		}
		for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
			p.pos++
		}
		return nil, lit, nil
	}

	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	d.ch = c

	max, known := maxParams[c]
	if !known {
		return nil, "", p.errorAt(offset, "unknown directive character %q", string(c))
	}
	if len(d.params) > max {
		return nil, "", p.errorAt(offset, "too many parameters for ~%c (%d allowed)", c, max)
	}
	return d, "", nil
}

// argCursor walks the positional arguments; ~* can move it backward or to
// an absolute index.
type argCursor struct {
	args []any
	i    int
}

func (c *argCursor) hasNext() bool  { return c.i < len(c.args) }
func (c *argCursor) remaining() int { return len(c.args) - c.i }

func (c *argCursor) next() (any, bool) {
	if c.i >= len(c.args) {
		return nil, false
	}
	v := c.args[c.i]
	c.i++
	return v, true
}

func (c *argCursor) back(n int) {
	c.i -= n
	if c.i < 0 {
		c.i = 0
	}
}

func (c *argCursor) jump(i int) {
	switch {
	case i < 0:
		c.i = 0
	case i > len(c.args):
		c.i = len(c.args)
	default:
		c.i = i
	}
}

// escapeSignal is the internal control-flow error raised by ~^ and caught
// by iteration, justification, and the top-level executor.
type escapeSignal struct {
	outer bool // ~:^ terminates the whole iteration, not just the sublist
}

func (e *escapeSignal) Error() string { return "format escape (~^)" }

// exec is the runtime state of one Execute call.
type exec struct {
	ctl *Control
	s   *Stream
	p   *printer
	cur *argCursor
}

func (x *exec) run(segs []segment) error {
	for _, seg := range segs {
		if seg.dir == nil {
			x.s.Text(seg.text)
			continue
		}
		if err := x.runDirective(seg.dir); err != nil {
			return err
		}
	}
	return nil
}

func (x *exec) fail(d *directive, err error) error {
	var de *DirectiveError
	if errors.As(err, &de) {
		return err
	}
	return NewDirectiveError(err, x.ctl.src, d.offset)
}

func (x *exec) nextArg(d *directive) (any, error) {
	v, ok := x.cur.next()
	if !ok {
		return nil, x.fail(d, &ArgumentError{Directive: string(d.ch)})
	}
	return v, nil
}

// intParam resolves the idx'th parameter as an integer, applying v/# and
// the default for elided slots.
func (x *exec) intParam(d *directive, idx, def int) (int, error) {
	if idx >= len(d.params) {
		return def, nil
	}
	switch pr := d.params[idx]; pr.kind {
	case paramInt:
		return pr.n, nil
	case paramEmpty:
		return def, nil
	case paramRemaining:
		return x.cur.remaining(), nil
	case paramFromArg:
		v, err := x.nextArg(d)
		if err != nil {
			return 0, err
		}
		if v == nil {
			return def, nil
		}
		n, ok := toInt(v)
		if !ok {
			return 0, x.fail(d, errors.Errorf("v parameter for ~%c must be an integer, got %T", d.ch, v))
		}
		return int(n), nil
	case paramChar:
		return 0, x.fail(d, errors.Errorf("~%c expected an integer parameter, got character %q", d.ch, string(pr.ch)))
	default:
		return def, nil
	}
}

// charParam resolves the idx'th parameter as a character.
func (x *exec) charParam(d *directive, idx int, def rune) (rune, error) {
	if idx >= len(d.params) {
		return def, nil
	}
	switch pr := d.params[idx]; pr.kind {
	case paramChar:
		return pr.ch, nil
	case paramEmpty:
		return def, nil
	case paramFromArg:
		v, err := x.nextArg(d)
		if err != nil {
			return 0, err
		}
		switch cv := v.(type) {
		case Char:
			return rune(cv), nil
		case rune:
			return cv, nil
		case string:
			if len(cv) > 0 {
				return []rune(cv)[0], nil
			}
		}
		return 0, x.fail(d, errors.Errorf("v parameter for ~%c must be a character, got %T", d.ch, v))
	case paramInt:
		return 0, x.fail(d, errors.Errorf("~%c expected a character parameter, got integer %d", d.ch, pr.n))
	default:
		return def, nil
	}
}

// paramSet reports whether an explicit (non-elided) parameter was given.
func (d *directive) paramSet(idx int) bool {
	return idx < len(d.params) && d.params[idx].kind != paramEmpty
}
