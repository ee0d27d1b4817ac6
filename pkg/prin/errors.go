package prin

import (
	"fmt"
	"strings"
)

// DirectiveError reports a malformed directive or a runtime failure inside a
// format control string. Offset is the 1-based character offset of the
// offending directive in the original control string.
type DirectiveError struct {
	Control string
	Offset  int
	Inner   error
}

func NewDirectiveError(inner error, control string, offset int) *DirectiveError {
	return &DirectiveError{
		Control: control,
		Offset:  offset,
		Inner:   inner,
	}
}

func (e *DirectiveError) Unwrap() error {
	return e.Inner
}

func (e *DirectiveError) Error() string {
	if e.Control == "" {
		return e.Inner.Error()
	}
	return e.formatWithSnippet()
}

// formatWithSnippet renders the error with the control string and a caret
// pointing at the offending offset, in the style of a compiler diagnostic.
func (e *DirectiveError) formatWithSnippet() string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("error: %s\n", e.Inner))
	result.WriteString(fmt.Sprintf("  --> directive at offset %d\n", e.Offset))
	result.WriteString("   |\n")
	result.WriteString(fmt.Sprintf("   | %s\n", e.Control))

	col := e.Offset - 1
	if col < 0 {
		col = 0
	}
	if col > len(e.Control) {
		col = len(e.Control)
	}
	result.WriteString(fmt.Sprintf("   | %s^\n", strings.Repeat(" ", col)))

	return result.String()
}

// ArgumentError reports that a control string requested more positional
// arguments than were supplied.
type ArgumentError struct {
	Directive string
}

func (e *ArgumentError) Error() string {
	if e.Directive == "" {
		return "ran out of arguments"
	}
	return fmt.Sprintf("ran out of arguments for ~%s", e.Directive)
}

// LoopError reports that an iteration directive made no progress through its
// arguments across consecutive iterations.
type LoopError struct {
	Directive string
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("infinite loop in ~%s directive: iteration consumed no arguments", e.Directive)
}

// ReadError reports a syntax error in reader input, with a 1-based line and
// column.
type ReadError struct {
	Line   int
	Column int
	Inner  error
}

func (e *ReadError) Unwrap() error {
	return e.Inner
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Inner)
}
