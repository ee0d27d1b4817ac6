package prin

import (
	"context"
	"strings"
	"testing"

	"github.com/dagger/testctx"
	"github.com/dagger/testctx/oteltest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type FormatSuite struct{}

func TestFormat(tT *testing.T) {
	testctx.New(tT,
		oteltest.WithTracing[*testing.T](),
		oteltest.WithLogging[*testing.T](),
	).RunTests(FormatSuite{})
}

func render(t *testctx.T, control string, args ...any) string {
	out, err := Render(control, args...)
	require.NoError(t, err, control)
	return out
}

func (FormatSuite) TestBasicDirectives(ctx context.Context, t *testctx.T) {
	require.Equal(t, "cart has 1 item", render(t, "~a has ~d item~:p", "cart", 1))
	require.Equal(t, "cart has 3 items", render(t, "~a has ~d item~:p", "cart", 3))
	require.Equal(t, `"quoted"`, render(t, "~s", "quoted"))
	require.Equal(t, "raw", render(t, "~a", "raw"))
	require.Equal(t, "(1 2)", render(t, "~w", List{int64(1), int64(2)}))
	require.Equal(t, "~a", render(t, "~~a"))
	require.Equal(t, "a\nb", render(t, "a~%b"))
}

func (FormatSuite) TestNilAsEmptyList(ctx context.Context, t *testctx.T) {
	require.Equal(t, "nil", render(t, "~a", nil))
	require.Equal(t, "()", render(t, "~:a", nil))
}

func (FormatSuite) TestPadding(ctx context.Context, t *testctx.T) {
	require.Equal(t, "abc       |", render(t, "~10a|", "abc"))
	require.Equal(t, "       abc", render(t, "~10@a", "abc"))
	require.Equal(t, "abc***", render(t, "~6,,,'*a", "abc"))
	require.Equal(t, "   42", render(t, "~vd", 5, 42))
}

func (FormatSuite) TestIntegers(ctx context.Context, t *testctx.T) {
	require.Equal(t, "1234", render(t, "~d", 1234))
	require.Equal(t, "1,234,567", render(t, "~:d", 1234567))
	require.Equal(t, "+42", render(t, "~@d", 42))
	require.Equal(t, "-42", render(t, "~d", -42))
	require.Equal(t, "00000042", render(t, "~8,'0d", 42))
	require.Equal(t, "101", render(t, "~b", 5))
	require.Equal(t, "777", render(t, "~o", 511))
	require.Equal(t, "ff", render(t, "~x", 255))
	require.Equal(t, "101", render(t, "~2r", 5))
}

func (FormatSuite) TestRadixSpelling(ctx context.Context, t *testctx.T) {
	require.Equal(t, "zero", render(t, "~r", 0))
	require.Equal(t, "forty-two", render(t, "~r", 42))
	require.Equal(t, "minus seven", render(t, "~r", -7))
	require.Equal(t, "one thousand, two hundred thirty-four", render(t, "~r", 1234))
	require.Equal(t, "third", render(t, "~:r", 3))
	require.Equal(t, "twentieth", render(t, "~:r", 20))
	require.Equal(t, "one hundredth", render(t, "~:r", 100))
	require.Equal(t, "MCMXCIX", render(t, "~@r", 1999))
	require.Equal(t, "IIII", render(t, "~:@r", 4))
}

func (FormatSuite) TestPlural(ctx context.Context, t *testctx.T) {
	require.Equal(t, "", render(t, "~p", 1))
	require.Equal(t, "s", render(t, "~p", 2))
	require.Equal(t, "1 puppy", render(t, "~d pupp~:@p", 1))
	require.Equal(t, "3 puppies", render(t, "~d pupp~:@p", 3))
}

func (FormatSuite) TestChars(ctx context.Context, t *testctx.T) {
	require.Equal(t, "x", render(t, "~c", Char('x')))
	require.Equal(t, "newline", render(t, "~:c", Char('\n')))
	require.Equal(t, `\newline`, render(t, "~@c", Char('\n')))
	require.Equal(t, `\x`, render(t, "~@c", Char('x')))
}

func (FormatSuite) TestFloats(ctx context.Context, t *testctx.T) {
	require.Equal(t, "3.14", render(t, "~,2f", 3.14159))
	require.Equal(t, "  1.5", render(t, "~5f", 1.5))
	require.Equal(t, "+1.5", render(t, "~@f", 1.5))
	require.Equal(t, "1.23E+3", render(t, "~,2e", 1234.0))
	require.Equal(t, "2.50", render(t, "~$", 2.5))
	require.Equal(t, "  2.50", render(t, "~,,6$", 2.5))
	require.Equal(t, "-0.50", render(t, "~$", -0.5))
}

func (FormatSuite) TestFreshLineAndTab(ctx context.Context, t *testctx.T) {
	require.Equal(t, "cd", render(t, "~&cd"))
	require.Equal(t, "ab\ncd", render(t, "ab~&cd"))
	require.Equal(t, "ab        cd", render(t, "~a~10t~a", "ab", "cd"))
}

func (FormatSuite) TestGoto(ctx context.Context, t *testctx.T) {
	require.Equal(t, "13", render(t, "~a~*~a", 1, 2, 3))
	require.Equal(t, "55", render(t, "~a~:*~a", 5))
	require.Equal(t, "121", render(t, "~a~a~0@*~a", 1, 2))
}

func (FormatSuite) TestCaseConversion(ctx context.Context, t *testctx.T) {
	require.Equal(t, "hello world", render(t, "~(~a~)", "HELLO World"))
	require.Equal(t, "Hello World", render(t, "~:(~a~)", "hello world"))
	require.Equal(t, "Hello world", render(t, "~@(~a~)", "hello world"))
	require.Equal(t, "HELLO WORLD", render(t, "~:@(~a~)", "hello world"))
}

func (FormatSuite) TestConditionals(ctx context.Context, t *testctx.T) {
	require.Equal(t, "zero", render(t, "~[zero~;one~;two~:;many~]", 0))
	require.Equal(t, "one", render(t, "~[zero~;one~;two~:;many~]", 1))
	require.Equal(t, "many", render(t, "~[zero~;one~;two~:;many~]", 5))

	require.Equal(t, "no", render(t, "~:[no~;yes~]", false))
	require.Equal(t, "no", render(t, "~:[no~;yes~]", nil))
	require.Equal(t, "yes", render(t, "~:[no~;yes~]", true))

	require.Equal(t, "", render(t, "~@[x = ~a~]", nil))
	require.Equal(t, "x = 5", render(t, "~@[x = ~a~]", 5))

	// A # parameter selects the clause by remaining argument count.
	require.Equal(t, "none", render(t, "~#[none~;one~;two~]"))
	require.Equal(t, "one", render(t, "~#[none~;one~;two~]", "x"))
}

func (FormatSuite) TestIteration(ctx context.Context, t *testctx.T) {
	nums := List{int64(1), int64(2), int64(3)}

	require.Equal(t, "1 2 3 ", render(t, "~{~a ~}", nums))
	require.Equal(t, "1, 2, 3", render(t, "~{~a~^, ~}", nums))
	require.Equal(t, "1 2 ", render(t, "~2{~a ~}", nums))
	require.Equal(t, "1-2-3-", render(t, "~@{~a-~}", 1, 2, 3))

	pairs := List{List{int64(1), int64(2)}, List{int64(3), int64(4)}}
	require.Equal(t, "(1 2) (3 4) ", render(t, "~:{(~a ~a) ~}", pairs))
}

func (FormatSuite) TestRecursive(ctx context.Context, t *testctx.T) {
	require.Equal(t, "<1> and x", render(t, "~? and ~a", "<~a>", List{int64(1)}, "x"))
	require.Equal(t, "<1> and x", render(t, "~@? and ~a", "<~a>", 1, "x"))
}

func (FormatSuite) TestTildeNewline(ctx context.Context, t *testctx.T) {
	require.Equal(t, "ab", render(t, "a~\n  b"))
	require.Equal(t, "a  b", render(t, "a~:\n  b"))
	require.Equal(t, "a\nb", render(t, "a~@\n  b"))
}

func (FormatSuite) TestJustification(ctx context.Context, t *testctx.T) {
	require.Equal(t, "       foo", render(t, "~10<~a~>", "foo"))
	require.Equal(t, "ab      cd", render(t, "~10<~a~;~a~>", "ab", "cd"))
	require.Equal(t, "    ab    ", render(t, "~10:@<~a~>", "ab"))
}

func (FormatSuite) TestLogicalBlock(ctx context.Context, t *testctx.T) {
	c, err := Compile("~:<~a ~_~a~:>")
	require.NoError(t, err)

	pair := List{Symbol("a"), Symbol("b")}

	var wide strings.Builder
	require.NoError(t, c.Execute(&wide, &Options{Width: 80, Radix: 10}, pair))
	require.Equal(t, "(a b)", wide.String())

	var narrow strings.Builder
	require.NoError(t, c.Execute(&narrow, &Options{Width: 4, Radix: 10}, pair))
	require.Equal(t, "(a\n b)", narrow.String())
}

func (FormatSuite) TestLogicalBlockPerLinePrefix(ctx context.Context, t *testctx.T) {
	c, err := Compile("~<;; ~@;~a ~_~a~:>")
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, c.Execute(&b, &Options{Width: 4, Radix: 10}, List{Symbol("a"), Symbol("b")}))
	require.Equal(t, ";; a\n;; b", b.String())
}

func (FormatSuite) TestCompileErrors(ctx context.Context, t *testctx.T) {
	_, err := Compile("abc~q")
	require.Error(t, err)
	var de *DirectiveError
	require.True(t, errors.As(err, &de))
	require.Equal(t, 4, de.Offset)
	require.Contains(t, err.Error(), "unknown directive")

	_, err = Compile("~{never closed")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unterminated")

	_, err = Compile("stray ~; separator")
	require.Error(t, err)
	require.Contains(t, err.Error(), "bracket")
}

func (FormatSuite) TestMissingArguments(ctx context.Context, t *testctx.T) {
	_, err := Render("~a and ~a", "only")
	require.Error(t, err)

	var de *DirectiveError
	require.True(t, errors.As(err, &de))

	var ae *ArgumentError
	require.True(t, errors.As(err, &ae))
	require.Contains(t, err.Error(), "ran out of arguments")
}

func (FormatSuite) TestLoopGuard(ctx context.Context, t *testctx.T) {
	_, err := Render("~{~a~:*~}", List{int64(1)})
	require.Error(t, err)

	var le *LoopError
	require.True(t, errors.As(err, &le))
}
