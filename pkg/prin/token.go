package prin

// NewlineKind selects the break policy of a conditional newline.
type NewlineKind int

const (
	// Linear breaks if the enclosing block has already broken, or if the
	// section up to the next outer-level newline doesn't fit.
	Linear NewlineKind = iota
	// Miser behaves like Linear, but only once the block starts close
	// enough to the right margin (within the configured miser width).
	Miser
	// Fill breaks only when the immediately following chunk doesn't fit,
	// like word wrap.
	Fill
	// Mandatory always breaks.
	Mandatory
)

func (k NewlineKind) String() string {
	switch k {
	case Linear:
		return "linear"
	case Miser:
		return "miser"
	case Fill:
		return "fill"
	case Mandatory:
		return "mandatory"
	default:
		return "unknown"
	}
}

// IndentRel selects the base column an Indent offset is applied to.
type IndentRel int

const (
	// IndentBlock indents relative to the column where the current
	// logical block started.
	IndentBlock IndentRel = iota
	// IndentCurrent indents relative to the current output column.
	IndentCurrent
)

type tokenKind int

const (
	tokText tokenKind = iota
	tokStart
	tokEnd
	tokIndent
	tokNewline
)

// token is one element of the pending output buffer. The kind set is closed,
// so a plain struct with a tag beats an interface hierarchy here. startPos
// and endPos index into a virtual output stream; their difference is the
// token's width contribution when testing whether a span fits.
type token struct {
	kind  tokenKind
	block *logicalBlock

	// tokText
	data     string
	trailing string // trailing whitespace, withheld until we know no break follows

	// tokIndent
	rel    IndentRel
	offset int

	// tokNewline
	nl NewlineKind

	startPos int
	endPos   int
}

// spanWidth is the total width of a contiguous buffered run.
func spanWidth(toks []token) int {
	if len(toks) == 0 {
		return 0
	}
	return toks[len(toks)-1].endPos - toks[0].startPos
}
