package prin

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

func (x *exec) runDirective(d *directive) error {
	switch d.ch {
	case 'a':
		return x.runPrint(d, false)
	case 's':
		return x.runPrint(d, true)
	case 'w':
		arg, err := x.nextArg(d)
		if err != nil {
			return err
		}
		return x.p.writeValue(arg)
	case 'd':
		return x.runInteger(d, 10, 0)
	case 'b':
		return x.runInteger(d, 2, 0)
	case 'o':
		return x.runInteger(d, 8, 0)
	case 'x':
		return x.runInteger(d, 16, 0)
	case 'r':
		return x.runRadix(d)
	case 'p':
		return x.runPlural(d)
	case 'c':
		return x.runChar(d)
	case 'f':
		return x.runFixedFloat(d)
	case 'e':
		return x.runExpFloat(d)
	case 'g':
		return x.runGeneralFloat(d)
	case '$':
		return x.runCurrency(d)
	case '%':
		n, err := x.intParam(d, 0, 1)
		if err != nil {
			return err
		}
		x.s.Text(strings.Repeat("\n", n))
	case '&':
		n, err := x.intParam(d, 0, 1)
		if err != nil {
			return err
		}
		if x.s.pendingColumn() > 0 {
			x.s.Text("\n")
		}
		if n > 1 {
			x.s.Text(strings.Repeat("\n", n-1))
		}
	case '|':
		n, err := x.intParam(d, 0, 1)
		if err != nil {
			return err
		}
		x.s.Text(strings.Repeat("\f", n))
	case '~':
		n, err := x.intParam(d, 0, 1)
		if err != nil {
			return err
		}
		x.s.Text(strings.Repeat("~", n))
	case 't':
		return x.runTab(d)
	case '*':
		return x.runGoto(d)
	case '?':
		return x.runRecursive(d)
	case '^':
		return x.runEscape(d)
	case '_':
		kind := Linear
		switch {
		case d.colon && d.at:
			kind = Mandatory
		case d.colon:
			kind = Fill
		case d.at:
			kind = Miser
		}
		x.s.Newline(kind)
	case 'i':
		n, err := x.intParam(d, 0, 0)
		if err != nil {
			return err
		}
		rel := IndentBlock
		if d.colon {
			rel = IndentCurrent
		}
		x.s.Indent(rel, n)
	case '(':
		return x.runCase(d)
	case '[':
		return x.runConditional(d)
	case '{':
		return x.runIteration(d)
	case '<':
		if d.closeColon {
			return x.runLogicalBlock(d)
		}
		return x.runJustification(d)
	case ';':
		return x.fail(d, errors.New("~; not allowed outside a bracket directive"))
	default:
		return x.fail(d, errors.Errorf("unknown directive ~%c", d.ch))
	}
	return nil
}

/* ~a / ~s */

func (x *exec) runPrint(d *directive, readably bool) error {
	arg, err := x.nextArg(d)
	if err != nil {
		return err
	}
	if arg == nil && d.colon {
		arg = List(nil) // ~:a prints nil as ()
	}
	str, err := x.renderValue(arg, readably)
	if err != nil {
		return err
	}
	if len(d.params) == 0 {
		x.s.Text(str)
		return nil
	}
	mincol, err := x.intParam(d, 0, 0)
	if err != nil {
		return err
	}
	colinc, err := x.intParam(d, 1, 1)
	if err != nil {
		return err
	}
	minpad, err := x.intParam(d, 2, 0)
	if err != nil {
		return err
	}
	padchar, err := x.charParam(d, 3, ' ')
	if err != nil {
		return err
	}
	x.s.Text(padString(str, mincol, colinc, minpad, padchar, d.at))
	return nil
}

// renderValue prints v flat (unlimited width) using the stream's options.
func (x *exec) renderValue(v any, readably bool) (string, error) {
	opts := x.s.opts
	opts.Width = 0
	opts.Readably = readably
	var b strings.Builder
	s := NewStream(&b, &opts)
	p := &printer{s: s}
	if err := p.writeValue(v); err != nil {
		return "", err
	}
	if err := s.Flush(); err != nil {
		return "", err
	}
	return b.String(), nil
}

// padString pads s with padchar out to at least mincol, growing in colinc
// steps beyond a baseline of minpad pad characters. padLeft right-justifies.
func padString(s string, mincol, colinc, minpad int, padchar rune, padLeft bool) string {
	if colinc < 1 {
		colinc = 1
	}
	pad := minpad
	if w := displayWidth(s); w+pad < mincol {
		need := mincol - w - pad
		steps := (need + colinc - 1) / colinc
		pad += steps * colinc
	}
	if pad <= 0 {
		return s
	}
	padding := strings.Repeat(string(padchar), pad)
	if padLeft {
		return padding + s
	}
	return s + padding
}

/* ~d ~b ~o ~x and the numeric tail of ~r */

func (x *exec) runInteger(d *directive, base, shift int) error {
	arg, err := x.nextArg(d)
	if err != nil {
		return err
	}
	mincol, err := x.intParam(d, shift+0, 0)
	if err != nil {
		return err
	}
	padchar, err := x.charParam(d, shift+1, ' ')
	if err != nil {
		return err
	}
	commachar, err := x.charParam(d, shift+2, ',')
	if err != nil {
		return err
	}
	interval, err := x.intParam(d, shift+3, 3)
	if err != nil {
		return err
	}

	n, ok := toInt(arg)
	if !ok {
		// Non-numbers print aesthetically, as if by ~a.
		str, err := x.renderValue(arg, false)
		if err != nil {
			return err
		}
		x.s.Text(padString(str, mincol, 1, 0, padchar, true))
		return nil
	}

	str := formatInteger(n, base, d.colon, d.at, commachar, interval)
	x.s.Text(padString(str, mincol, 1, 0, padchar, true))
	return nil
}

func formatInteger(n int64, base int, group, sign bool, commachar rune, interval int) string {
	neg := n < 0
	digits := formatUintDigits(absInt64(n), base)
	if group && interval > 0 {
		digits = groupDigits(digits, commachar, interval)
	}
	switch {
	case neg:
		return "-" + digits
	case sign:
		return "+" + digits
	default:
		return digits
	}
}

func groupDigits(digits string, commachar rune, interval int) string {
	var b strings.Builder
	lead := len(digits) % interval
	if lead == 0 {
		lead = interval
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += interval {
		b.WriteRune(commachar)
		b.WriteString(digits[i : i+interval])
	}
	return b.String()
}

/* ~r */

func (x *exec) runRadix(d *directive) error {
	if len(d.params) > 0 {
		base, err := x.intParam(d, 0, 10)
		if err != nil {
			return err
		}
		if base < 2 || base > 36 {
			return x.fail(d, errors.Errorf("~r radix must be between 2 and 36, got %d", base))
		}
		return x.runInteger(d, base, 1)
	}

	arg, err := x.nextArg(d)
	if err != nil {
		return err
	}
	n, ok := toInt(arg)
	if !ok {
		return x.fail(d, errors.Errorf("~r requires an integer argument, got %T", arg))
	}

	switch {
	case d.colon && d.at:
		x.s.Text(romanNumeral(n, true))
	case d.at:
		x.s.Text(romanNumeral(n, false))
	case d.colon:
		x.s.Text(englishOrdinal(n))
	default:
		x.s.Text(englishCardinal(n))
	}
	return nil
}

/* ~p */

func (x *exec) runPlural(d *directive) error {
	if d.colon {
		x.cur.back(1)
	}
	arg, err := x.nextArg(d)
	if err != nil {
		return err
	}
	n, ok := toInt(arg)
	singular := ok && n == 1
	if d.at {
		if singular {
			x.s.Text("y")
		} else {
			x.s.Text("ies")
		}
		return nil
	}
	if !singular {
		x.s.Text("s")
	}
	return nil
}

/* ~c */

func (x *exec) runChar(d *directive) error {
	arg, err := x.nextArg(d)
	if err != nil {
		return err
	}
	r, ok := toRune(arg)
	if !ok {
		return x.fail(d, errors.Errorf("~c requires a character argument, got %T", arg))
	}
	switch {
	case d.at:
		if name, named := namedChars[r]; named {
			x.s.Text(`\` + name)
		} else {
			x.s.Text(`\` + string(r))
		}
	case d.colon:
		if name, named := namedChars[r]; named {
			x.s.Text(name)
		} else {
			x.s.Text(string(r))
		}
	default:
		x.s.Text(string(r))
	}
	return nil
}

/* ~t */

func (x *exec) runTab(d *directive) error {
	colnum, err := x.intParam(d, 0, 1)
	if err != nil {
		return err
	}
	colinc, err := x.intParam(d, 1, 1)
	if err != nil {
		return err
	}
	cur := x.s.pendingColumn()
	if d.at {
		// Relative: colnum spaces, then round up to a colinc multiple.
		spaces := colnum
		if colinc > 0 {
			if rem := (cur + spaces) % colinc; rem != 0 {
				spaces += colinc - rem
			}
		}
		if spaces > 0 {
			x.s.Text(strings.Repeat(" ", spaces))
		}
		return nil
	}
	switch {
	case cur < colnum:
		x.s.Text(strings.Repeat(" ", colnum-cur))
	case cur == colnum:
		// already there
	case colinc > 0:
		spaces := colinc - (cur-colnum)%colinc
		x.s.Text(strings.Repeat(" ", spaces))
	}
	return nil
}

/* ~* */

func (x *exec) runGoto(d *directive) error {
	switch {
	case d.at:
		n, err := x.intParam(d, 0, 0)
		if err != nil {
			return err
		}
		x.cur.jump(n)
	case d.colon:
		n, err := x.intParam(d, 0, 1)
		if err != nil {
			return err
		}
		x.cur.back(n)
	default:
		n, err := x.intParam(d, 0, 1)
		if err != nil {
			return err
		}
		for ; n > 0; n-- {
			if _, ok := x.cur.next(); !ok {
				return x.fail(d, &ArgumentError{Directive: "*"})
			}
		}
	}
	return nil
}

/* ~? */

func (x *exec) runRecursive(d *directive) error {
	arg, err := x.nextArg(d)
	if err != nil {
		return err
	}
	ctlStr, ok := arg.(string)
	if !ok {
		return x.fail(d, errors.Errorf("~? requires a control string argument, got %T", arg))
	}
	sub, err := Compile(ctlStr)
	if err != nil {
		return x.fail(d, err)
	}

	cur := x.cur
	if !d.at {
		listArg, err := x.nextArg(d)
		if err != nil {
			return err
		}
		items, ok := toList(listArg)
		if !ok {
			return x.fail(d, errors.Errorf("~? requires an argument list, got %T", listArg))
		}
		cur = &argCursor{args: items}
	}

	old := x.ctl
	x.ctl = sub
	err = x.runWith(cur, sub.segs)
	x.ctl = old
	if esc := (*escapeSignal)(nil); errors.As(err, &esc) {
		return nil // ~^ inside ~? stops the sub-format only
	}
	return err
}

/* ~^ */

func (x *exec) runEscape(d *directive) error {
	escape := false
	switch len(d.params) {
	case 0:
		escape = !x.cur.hasNext()
	case 1:
		n, err := x.intParam(d, 0, 0)
		if err != nil {
			return err
		}
		escape = n == 0
	case 2:
		a, err := x.intParam(d, 0, 0)
		if err != nil {
			return err
		}
		b, err := x.intParam(d, 1, 0)
		if err != nil {
			return err
		}
		escape = a == b
	default:
		a, err := x.intParam(d, 0, 0)
		if err != nil {
			return err
		}
		b, err := x.intParam(d, 1, 0)
		if err != nil {
			return err
		}
		c, err := x.intParam(d, 2, 0)
		if err != nil {
			return err
		}
		escape = a <= b && b <= c
	}
	if escape {
		return &escapeSignal{outer: d.colon}
	}
	return nil
}

/* ~( case conversion */

func (x *exec) runCase(d *directive) error {
	str, err := x.capture(d.clauses[0], x.cur)
	switch {
	case d.colon && d.at:
		str = strings.ToUpper(str)
	case d.colon:
		str = capitalizeWords(str)
	case d.at:
		str = capitalizeFirst(str)
	default:
		str = strings.ToLower(str)
	}
	x.s.Text(str)
	return err
}

func capitalizeWords(s string) string {
	var b strings.Builder
	inWord := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if inWord {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			inWord = true
		} else {
			b.WriteRune(r)
			inWord = false
		}
	}
	return b.String()
}

func capitalizeFirst(s string) string {
	var b strings.Builder
	done := false
	for _, r := range s {
		switch {
		case !done && unicode.IsLetter(r):
			b.WriteRune(unicode.ToUpper(r))
			done = true
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

/* ~[ conditionals */

func (x *exec) runConditional(d *directive) error {
	switch {
	case d.colon:
		if len(d.clauses) != 2 {
			return x.fail(d, errors.Errorf("~:[ requires exactly two clauses, got %d", len(d.clauses)))
		}
		arg, err := x.nextArg(d)
		if err != nil {
			return err
		}
		if truthy(arg) {
			return x.run(d.clauses[1])
		}
		return x.run(d.clauses[0])

	case d.at:
		if len(d.clauses) != 1 {
			return x.fail(d, errors.Errorf("~@[ requires exactly one clause, got %d", len(d.clauses)))
		}
		arg, err := x.nextArg(d)
		if err != nil {
			return err
		}
		if truthy(arg) {
			x.cur.back(1) // the clause re-reads the tested argument
			return x.run(d.clauses[0])
		}
		return nil

	default:
		var idx int
		if d.paramSet(0) {
			n, err := x.intParam(d, 0, 0)
			if err != nil {
				return err
			}
			idx = n
		} else {
			arg, err := x.nextArg(d)
			if err != nil {
				return err
			}
			n, ok := toInt(arg)
			if !ok {
				return x.fail(d, errors.Errorf("~[ requires an integer argument, got %T", arg))
			}
			idx = int(n)
		}
		limit := len(d.clauses)
		if d.elseClause >= 0 {
			limit = d.elseClause
		}
		if idx >= 0 && idx < limit {
			return x.run(d.clauses[idx])
		}
		if d.elseClause >= 0 {
			return x.run(d.clauses[d.elseClause])
		}
		return nil
	}
}

func truthy(v any) bool {
	return v != nil && v != false
}

/* ~{ iteration */

func (x *exec) runIteration(d *directive) error {
	body := d.clauses[0]
	if len(body) == 0 {
		// An empty body takes its control string from the arguments.
		arg, err := x.nextArg(d)
		if err != nil {
			return err
		}
		ctlStr, ok := arg.(string)
		if !ok {
			return x.fail(d, errors.Errorf("~{~} with an empty body requires a control string argument, got %T", arg))
		}
		sub, err := Compile(ctlStr)
		if err != nil {
			return x.fail(d, err)
		}
		body = sub.segs
	}

	maxIter := -1
	if d.paramSet(0) {
		n, err := x.intParam(d, 0, -1)
		if err != nil {
			return err
		}
		maxIter = n
	}
	atLeastOnce := d.closeColon

	sublists := d.colon

	var cur *argCursor
	if d.at {
		cur = x.cur
	} else {
		arg, err := x.nextArg(d)
		if err != nil {
			return err
		}
		items, ok := toList(arg)
		if !ok {
			return x.fail(d, errors.Errorf("~{ requires a list argument, got %T", arg))
		}
		cur = &argCursor{args: items}
	}

	if sublists {
		return x.iterateSublists(d, body, cur, maxIter, atLeastOnce)
	}
	return x.iterateFlat(d, body, cur, maxIter, atLeastOnce)
}

func (x *exec) iterateFlat(d *directive, body []segment, cur *argCursor, maxIter int, atLeastOnce bool) error {
	n := 0
	zeroRuns := 0
	for {
		if maxIter >= 0 && n >= maxIter {
			return nil
		}
		if !cur.hasNext() && !(atLeastOnce && n == 0) {
			return nil
		}
		before := cur.i
		err := x.runWith(cur, body)
		if esc := (*escapeSignal)(nil); errors.As(err, &esc) {
			return nil
		}
		if err != nil {
			return err
		}
		n++
		if cur.i == before {
			zeroRuns++
			if zeroRuns >= 2 {
				return x.fail(d, &LoopError{Directive: "{"})
			}
		} else {
			zeroRuns = 0
		}
	}
}

func (x *exec) iterateSublists(d *directive, body []segment, cur *argCursor, maxIter int, atLeastOnce bool) error {
	n := 0
	for {
		if maxIter >= 0 && n >= maxIter {
			return nil
		}
		if !cur.hasNext() && !(atLeastOnce && n == 0) {
			return nil
		}
		arg, _ := cur.next()
		items, ok := toList(arg)
		if !ok {
			return x.fail(d, errors.Errorf("~:{ requires a list of lists, got element %T", arg))
		}
		err := x.runWith(&argCursor{args: items}, body)
		if esc := (*escapeSignal)(nil); errors.As(err, &esc) {
			if esc.outer {
				return nil
			}
			// plain ~^ ends only the current sublist
		} else if err != nil {
			return err
		}
		n++
	}
}

// runWith runs segments against a different argument cursor.
func (x *exec) runWith(cur *argCursor, segs []segment) error {
	old := x.cur
	x.cur = cur
	err := x.run(segs)
	x.cur = old
	return err
}

// capture renders segments into a string using a flat (unlimited width)
// stream, sharing the given cursor.
func (x *exec) capture(segs []segment, cur *argCursor) (string, error) {
	opts := x.s.opts
	opts.Width = 0
	var b strings.Builder
	s := NewStream(&b, &opts)
	sub := &exec{ctl: x.ctl, s: s, p: &printer{s: s}, cur: cur}
	err := sub.run(segs)
	if ferr := s.Flush(); err == nil {
		err = ferr
	}
	return b.String(), err
}

/* ~:< logical blocks */

// literalText flattens clause segments that must be literal (logical block
// prefixes and suffixes).
func literalText(segs []segment) (string, bool) {
	var b strings.Builder
	for _, seg := range segs {
		if seg.dir != nil {
			return "", false
		}
		b.WriteString(seg.text)
	}
	return b.String(), true
}

func (x *exec) runLogicalBlock(d *directive) error {
	prefix, suffix := "", ""
	perLine := ""
	if d.colon {
		prefix, suffix = "(", ")"
	}

	body := d.clauses[0]
	switch len(d.clauses) {
	case 1:
	case 2:
		p, ok := literalText(d.clauses[0])
		if !ok {
			return x.fail(d, errors.New("logical block prefix must be literal text"))
		}
		prefix = p
		if d.seps[0].at {
			perLine = p
			prefix = ""
		}
		body = d.clauses[1]
	case 3:
		p, ok := literalText(d.clauses[0])
		if !ok {
			return x.fail(d, errors.New("logical block prefix must be literal text"))
		}
		sfx, ok := literalText(d.clauses[2])
		if !ok {
			return x.fail(d, errors.New("logical block suffix must be literal text"))
		}
		prefix, suffix = p, sfx
		if d.seps[0].at {
			perLine = p
			prefix = ""
		}
		body = d.clauses[1]
	default:
		return x.fail(d, errors.Errorf("logical block allows at most three clauses, got %d", len(d.clauses)))
	}

	cur := x.cur
	if !d.at {
		arg, err := x.nextArg(d)
		if err != nil {
			return err
		}
		items, ok := toList(arg)
		if !ok {
			items = []any{arg}
		}
		cur = &argCursor{args: items}
	}

	if perLine != "" {
		x.s.BeginPerLine(perLine, perLine, suffix)
	} else {
		x.s.Begin(prefix, suffix)
	}
	err := x.runWith(cur, body)
	x.s.End()
	if esc := (*escapeSignal)(nil); errors.As(err, &esc) {
		return nil
	}
	return err
}

/* ~< justification */

func (x *exec) runJustification(d *directive) error {
	mincol, err := x.intParam(d, 0, 0)
	if err != nil {
		return err
	}
	colinc, err := x.intParam(d, 1, 1)
	if err != nil {
		return err
	}
	minpad, err := x.intParam(d, 2, 0)
	if err != nil {
		return err
	}
	padchar, err := x.charParam(d, 3, ' ')
	if err != nil {
		return err
	}
	if colinc < 1 {
		colinc = 1
	}

	clauses := d.clauses
	var overflow string
	var overflowSep *directive
	if len(d.seps) > 0 && d.seps[0].colon {
		text, err := x.capture(clauses[0], x.cur)
		if err != nil {
			if esc := (*escapeSignal)(nil); !errors.As(err, &esc) {
				return err
			}
		}
		overflow = text
		overflowSep = d.seps[0]
		clauses = clauses[1:]
	}

	var segs []string
	for _, clause := range clauses {
		text, err := x.capture(clause, x.cur)
		if esc := (*escapeSignal)(nil); errors.As(err, &esc) {
			// Only fully processed segments participate.
			break
		}
		if err != nil {
			return err
		}
		segs = append(segs, text)
	}
	if len(segs) == 0 {
		return nil
	}

	gapBefore := d.colon
	gapAfter := d.at
	if len(segs) == 1 && !gapBefore && !gapAfter {
		gapBefore = true // single segment right-justifies
	}
	gaps := len(segs) - 1
	if gapBefore {
		gaps++
	}
	if gapAfter {
		gaps++
	}

	total := 0
	for _, t := range segs {
		total += displayWidth(t)
	}
	width := total + gaps*minpad
	if width < mincol {
		width = mincol
	}
	if over := width - mincol; mincol > 0 && over%colinc != 0 {
		width += colinc - over%colinc
	}
	padTotal := width - total

	if overflowSep != nil {
		spare, err := x.intParam(overflowSep, 0, 0)
		if err != nil {
			return err
		}
		lineWidth, err := x.intParam(overflowSep, 1, x.s.opts.Width)
		if err != nil {
			return err
		}
		if lineWidth > 0 && x.s.pendingColumn()+width+spare > lineWidth {
			x.s.Text(overflow)
		}
	}

	pads := distributePad(padTotal, gaps)
	gi := 0
	if gapBefore {
		x.s.Text(strings.Repeat(string(padchar), pads[gi]))
		gi++
	}
	for i, t := range segs {
		if i > 0 {
			x.s.Text(strings.Repeat(string(padchar), pads[gi]))
			gi++
		}
		x.s.Text(t)
	}
	if gapAfter {
		x.s.Text(strings.Repeat(string(padchar), pads[gi]))
	}
	return nil
}

// distributePad splits padTotal across gaps as evenly as possible, giving
// leftover columns to the leftmost gaps.
func distributePad(padTotal, gaps int) []int {
	pads := make([]int, gaps)
	if gaps == 0 {
		return pads
	}
	base := padTotal / gaps
	extra := padTotal % gaps
	for i := range pads {
		pads[i] = base
		if i < extra {
			pads[i]++
		}
	}
	return pads
}

/* coercions */

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		if i, ok := toInt(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}

func toRune(v any) (rune, bool) {
	switch c := v.(type) {
	case Char:
		return rune(c), true
	case rune:
		return c, true
	case string:
		rs := []rune(c)
		if len(rs) == 1 {
			return rs[0], true
		}
		return 0, false
	default:
		return 0, false
	}
}

// toList flattens a collection argument into a positional argument list.
func toList(v any) ([]any, bool) {
	switch l := v.(type) {
	case nil:
		return nil, true
	case List:
		return l, true
	case Vector:
		return l, true
	case Set:
		return l, true
	case []any:
		return l, true
	case Map:
		flat := make([]any, 0, len(l)*2)
		for _, e := range l {
			flat = append(flat, e.Key, e.Val)
		}
		return flat, true
	default:
		return nil, false
	}
}

func absInt64(n int64) uint64 {
	if n < 0 {
		return uint64(-n)
	}
	return uint64(n)
}
