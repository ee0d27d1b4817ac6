package prin

import (
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// columnWriter wraps a raw character sink and tracks the current column and
// line number as text passes through. Columns are measured in display cells
// (ANSI escape sequences contribute zero width) so colorized atoms don't
// skew line-fit decisions.
type columnWriter struct {
	out  io.Writer
	col  int
	line int
	err  error // first write error, surfaced by Stream.Flush
}

func newColumnWriter(out io.Writer) *columnWriter {
	return &columnWriter{out: out}
}

func (w *columnWriter) writeString(s string) {
	if s == "" {
		return
	}
	if w.err == nil {
		_, w.err = io.WriteString(w.out, s)
	}
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		w.line += strings.Count(s, "\n")
		w.col = ansi.StringWidth(s[idx+1:])
	} else {
		w.col += ansi.StringWidth(s)
	}
}

func (w *columnWriter) writeByte(c byte) {
	if w.err == nil {
		_, w.err = w.out.Write([]byte{c})
	}
	if c == '\n' {
		w.line++
		w.col = 0
	} else {
		w.col++
	}
}

// displayWidth reports how many columns s occupies when written.
func displayWidth(s string) int {
	return ansi.StringWidth(s)
}
