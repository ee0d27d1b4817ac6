package prin

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

type streamMode int

const (
	// modeWriting passes output straight through to the sink.
	modeWriting streamMode = iota
	// modeBuffering holds tokens back until the fate of a pending
	// conditional newline is known.
	modeBuffering
)

// Stream is a stateful pretty-printing sink. Output is appended as text,
// logical-block boundaries, indentation changes, and conditional newlines;
// the stream buffers pending tokens and decides where lines actually break
// based on whether content fits within the configured width.
//
// A Stream is owned by a single caller for the duration of a print; it is
// not safe for concurrent use.
type Stream struct {
	w    *columnWriter
	opts Options

	block *logicalBlock // top of the block stack; never nil
	mode  streamMode
	buf   []token
	pos   int    // position in the virtual output stream
	white string // trailing whitespace withheld from the sink

	err error
}

// NewStream creates a pretty-printing stream over out. A nil opts uses
// DefaultOptions.
func NewStream(out io.Writer, opts *Options) *Stream {
	return &Stream{
		w:     newColumnWriter(out),
		opts:  normalizeOptions(opts),
		block: &logicalBlock{},
	}
}

// Column reports the current output column.
func (s *Stream) Column() int { return s.w.col }

// Line reports the current output line, starting at 0.
func (s *Stream) Line() int { return s.w.line }

// Options returns the stream's configuration.
func (s *Stream) Options() Options { return s.opts }

// pendingColumn is the column output would reach if the buffered span were
// committed without any breaks.
func (s *Stream) pendingColumn() int {
	return s.w.col + spanWidth(s.buf) + displayWidth(s.white)
}

// Begin opens a logical block with an optional prefix and suffix.
func (s *Stream) Begin(prefix, suffix string) {
	s.begin(prefix, "", suffix)
}

// BeginPerLine opens a logical block whose perLinePrefix is re-written after
// every line break inside the block.
func (s *Stream) BeginPerLine(prefix, perLinePrefix, suffix string) {
	s.begin(prefix, perLinePrefix, suffix)
}

func (s *Stream) begin(prefix, perLinePrefix, suffix string) {
	lb := &logicalBlock{
		parent:        s.block,
		prefix:        prefix,
		perLinePrefix: perLinePrefix,
		suffix:        suffix,
	}
	s.block = lb
	if s.mode == modeWriting {
		s.writeWhitespace()
		if prefix != "" {
			s.w.writeString(prefix)
		}
		lb.startCol = s.w.col
		lb.indent = s.w.col
	} else {
		start := s.pos
		s.pos += displayWidth(prefix)
		s.addToBuffer(token{kind: tokStart, block: lb, startPos: start, endPos: s.pos})
	}
}

// End closes the current logical block, writing its suffix.
func (s *Stream) End() {
	lb := s.block
	if lb.parent == nil {
		s.setErr(errors.New("End without matching Begin"))
		return
	}
	if s.mode == modeWriting {
		s.writeWhitespace()
		if lb.suffix != "" {
			s.w.writeString(lb.suffix)
		}
	} else {
		start := s.pos
		s.pos += displayWidth(lb.suffix)
		s.addToBuffer(token{kind: tokEnd, block: lb, startPos: start, endPos: s.pos})
	}
	s.block = lb.parent
}

// Indent sets the current block's indentation target to offset plus either
// the block's start column or the current column.
func (s *Stream) Indent(rel IndentRel, offset int) {
	if s.mode == modeWriting {
		s.writeWhitespace()
		base := s.block.startCol
		if rel == IndentCurrent {
			base = s.w.col
		}
		s.block.indent = base + offset
	} else {
		s.addToBuffer(token{
			kind: tokIndent, block: s.block,
			rel: rel, offset: offset,
			startPos: s.pos, endPos: s.pos,
		})
	}
}

// Newline requests a conditional line break of the given kind. The stream
// switches into buffering mode until the break can be resolved.
func (s *Stream) Newline(kind NewlineKind) {
	s.mode = modeBuffering
	s.addToBuffer(token{
		kind: tokNewline, nl: kind, block: s.block,
		startPos: s.pos, endPos: s.pos,
	})
}

// Text appends literal text. Literal newlines embedded in the text commit
// any buffered output and break unconditionally.
func (s *Stream) Text(str string) {
	if str == "" {
		return
	}
	if strings.ContainsRune(str, '\n') {
		str = s.writeInitialLines(str)
		if str == "" {
			return
		}
	}
	trimmed := strings.TrimRight(str, " \t")
	white := str[len(trimmed):]
	if s.mode == modeWriting {
		s.writeWhitespace()
		s.w.writeString(trimmed)
		s.white = white
	} else {
		start := s.pos
		s.pos += displayWidth(str)
		s.addToBuffer(token{
			kind: tokText, block: s.block,
			data: trimmed, trailing: white,
			startPos: start, endPos: s.pos,
		})
	}
}

// Write implements io.Writer so formatted output can be funneled through the
// stream with the fmt package.
func (s *Stream) Write(p []byte) (int, error) {
	s.Text(string(p))
	return len(p), nil
}

// Flush resolves and writes all buffered tokens and reports the first error
// encountered, if any.
func (s *Stream) Flush() error {
	s.flushBuffer()
	s.mode = modeWriting
	if s.err != nil {
		return s.err
	}
	return s.w.err
}

func (s *Stream) setErr(err error) {
	if s.err == nil {
		s.err = err
	}
}

// writeWhitespace commits withheld trailing whitespace; called before any
// structural write so a break never strands spaces at the end of a line.
func (s *Stream) writeWhitespace() {
	if s.white != "" {
		s.w.writeString(s.white)
		s.white = ""
	}
}

// writeInitialLines handles text containing literal newlines. Everything up
// to the last newline is committed (flushing any buffered tokens first) and
// the remainder after the last newline is returned for normal processing.
func (s *Stream) writeInitialLines(str string) string {
	idx := strings.LastIndexByte(str, '\n')
	head, rest := str[:idx], str[idx+1:]
	lines := strings.Split(head, "\n")
	prefix := s.block.perLinePrefix

	first := lines[0]
	if s.mode == modeBuffering {
		start := s.pos
		s.pos += displayWidth(first)
		s.addToBuffer(token{
			kind: tokText, block: s.block, data: first,
			startPos: start, endPos: s.pos,
		})
		s.flushBuffer()
	} else {
		s.writeWhitespace()
		s.w.writeString(first)
	}
	s.w.writeByte('\n')
	if prefix != "" {
		s.w.writeString(prefix)
	}
	for _, l := range lines[1:] {
		s.w.writeString(l)
		s.w.writeByte('\n')
		if prefix != "" {
			s.w.writeString(prefix)
		}
	}
	s.white = ""
	s.mode = modeWriting
	return rest
}

// addToBuffer enqueues a token and resolves as much of the buffer as the
// page width forces.
func (s *Stream) addToBuffer(t token) {
	s.buf = append(s.buf, t)
	s.writeLine()
}

// writeLine repeatedly resolves the leading newline of the buffer while the
// buffered span exceeds the remaining width.
func (s *Stream) writeLine() {
	for !s.fits(s.buf) {
		next := s.writeTokenString(s.buf)
		if len(next) == len(s.buf) {
			break
		}
		s.buf = next
	}
}

// flushBuffer writes everything still buffered, resolving pending newlines
// per kind, and forces out any trailing whitespace.
func (s *Stream) flushBuffer() {
	s.writeLine()
	if len(s.buf) > 0 {
		s.writeTokens(s.buf, true)
		s.buf = s.buf[:0]
	}
}

// fits reports whether the buffered span starting at the current column
// stays strictly inside the page width.
func (s *Stream) fits(toks []token) bool {
	if s.opts.Width <= 0 {
		return true
	}
	return s.w.col+spanWidth(toks) < s.opts.Width
}

// writeTokenString resolves the front of the buffer: tokens before the first
// newline are written verbatim, then the newline is resolved against its
// section. Returns what remains buffered.
func (s *Stream) writeTokenString(tokens []token) []token {
	i := 0
	for i < len(tokens) && tokens[i].kind != tokNewline {
		i++
	}
	if i > 0 {
		s.writeTokens(tokens[:i], false)
	}
	b := tokens[i:]
	if len(b) == 0 {
		return b
	}

	section, remainder := splitSection(b)
	sub := subSection(b)
	newl := b[0]

	result := b
	if s.breakNeeded(newl, section, sub) {
		s.emitNewline(newl.block)
		result = b[1:]
	}

	if !s.fits(result) {
		// The section itself is too long: recurse into it so nested
		// newlines get a chance to break before giving up.
		rem2 := s.writeTokenString(section)
		if len(rem2) == len(section) {
			// No progress; write the section flat and move on.
			s.writeTokens(section, false)
			result = remainder
		} else {
			result = make([]token, 0, len(rem2)+len(remainder))
			result = append(result, rem2...)
			result = append(result, remainder...)
		}
	}
	return result
}

// splitSection splits a buffer whose first token is a newline into the
// section (tokens up to the next newline at an enclosing block level) and
// the remainder starting at that newline.
func splitSection(b []token) (section, remainder []token) {
	lb := b[0].block
	rest := b[1:]
	for i := range rest {
		t := &rest[i]
		if t.kind == tokNewline && t.block.ancestorOf(lb) {
			return rest[:i], rest[i:]
		}
	}
	return rest, nil
}

// subSection is like splitSection but also stops at newlines of the same
// block, yielding the immediately following chunk used by fill newlines.
func subSection(b []token) []token {
	lb := b[0].block
	rest := b[1:]
	for i := range rest {
		t := &rest[i]
		if t.kind == tokNewline && (t.block == lb || t.block.ancestorOf(lb)) {
			return rest[:i]
		}
	}
	return rest
}

func (s *Stream) breakNeeded(t token, section, sub []token) bool {
	lb := t.block
	switch t.nl {
	case Mandatory:
		return true
	case Linear:
		return s.linearBreak(lb, section)
	case Miser:
		return s.miserBreak(lb, section)
	case Fill:
		return lb.intraBlockNL || !s.fits(sub) || s.miserBreak(lb, section)
	default:
		return false
	}
}

func (s *Stream) linearBreak(lb *logicalBlock, section []token) bool {
	return lb.doneNL || !s.fits(section)
}

func (s *Stream) miserBreak(lb *logicalBlock, section []token) bool {
	if s.opts.MiserWidth <= 0 || s.opts.Width <= 0 {
		return false
	}
	if lb.startCol < s.opts.Width-s.opts.MiserWidth {
		return false
	}
	return s.linearBreak(lb, section)
}

// emitNewline commits a line break for lb: newline, per-line prefix, indent
// spaces, and break-state propagation to every ancestor.
func (s *Stream) emitNewline(lb *logicalBlock) {
	s.w.writeByte('\n')
	s.white = ""
	prefix := lb.perLinePrefix
	if prefix != "" {
		s.w.writeString(prefix)
	}
	if n := lb.indent - displayWidth(prefix); n > 0 {
		s.w.writeString(strings.Repeat(" ", n))
	}
	lb.intraBlockNL = false
	lb.doneNL = true
	for p := lb.parent; p != nil; p = p.parent {
		p.doneNL = true
		p.intraBlockNL = true
	}
}

// writeTokens writes a run of tokens verbatim. Unresolved newlines inside
// the run still break when mandatory or when their block has already broken.
func (s *Stream) writeTokens(toks []token, forceTrailing bool) {
	for i := range toks {
		t := &toks[i]
		if t.kind != tokNewline {
			s.writeWhitespace()
		}
		switch t.kind {
		case tokText:
			s.w.writeString(t.data)
			s.white = t.trailing
		case tokStart:
			lb := t.block
			if lb.prefix != "" {
				s.w.writeString(lb.prefix)
			}
			lb.startCol = s.w.col
			lb.indent = s.w.col
		case tokEnd:
			if t.block.suffix != "" {
				s.w.writeString(t.block.suffix)
			}
		case tokIndent:
			lb := t.block
			base := lb.startCol
			if t.rel == IndentCurrent {
				base = s.w.col
			}
			lb.indent = base + t.offset
		case tokNewline:
			if t.nl == Mandatory || (t.nl != Fill && t.block.doneNL) {
				s.emitNewline(t.block)
			} else {
				s.writeWhitespace()
			}
			s.white = ""
		}
	}
	if forceTrailing {
		s.writeWhitespace()
	}
}
