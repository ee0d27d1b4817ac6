package prin

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/dagger/testctx"
	"github.com/dagger/testctx/oteltest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Exit(oteltest.Main(m))
}

type StreamSuite struct{}

func TestStream(tT *testing.T) {
	testctx.New(tT,
		oteltest.WithTracing[*testing.T](),
		oteltest.WithLogging[*testing.T](),
	).RunTests(StreamSuite{})
}

func (StreamSuite) TestFitsOnOneLine(ctx context.Context, t *testctx.T) {
	var b strings.Builder
	s := NewStream(&b, &Options{Width: 20})
	s.Begin("(", ")")
	s.Text("aaa")
	s.Text(" ")
	s.Newline(Linear)
	s.Text("bbb")
	s.End()
	require.NoError(t, s.Flush())
	require.Equal(t, "(aaa bbb)", b.String())
}

func (StreamSuite) TestEmptyBlockIsJustDelimiters(ctx context.Context, t *testctx.T) {
	var b strings.Builder
	s := NewStream(&b, &Options{Width: 3})
	s.Begin("(", ")")
	s.End()
	require.NoError(t, s.Flush())
	require.Equal(t, "()", b.String())
}

func (StreamSuite) TestLinearBreaksWhenOverflowing(ctx context.Context, t *testctx.T) {
	var b strings.Builder
	s := NewStream(&b, &Options{Width: 8})
	s.Begin("(", ")")
	s.Text("aaa")
	s.Text(" ")
	s.Newline(Linear)
	s.Text("bbb")
	s.End()
	require.NoError(t, s.Flush())
	require.Equal(t, "(aaa\n bbb)", b.String())
}

func (StreamSuite) TestLinearBreaksAllOrNone(ctx context.Context, t *testctx.T) {
	var b strings.Builder
	s := NewStream(&b, &Options{Width: 7})
	s.Begin("(", ")")
	s.Text("aa")
	s.Text(" ")
	s.Newline(Linear)
	s.Text("bb")
	s.Text(" ")
	s.Newline(Linear)
	s.Text("cc")
	s.End()
	require.NoError(t, s.Flush())

	// Once one linear newline in a block breaks, they all do.
	require.Equal(t, "(aa\n bb\n cc)", b.String())
}

func (StreamSuite) TestMandatoryAlwaysBreaks(ctx context.Context, t *testctx.T) {
	var b strings.Builder
	s := NewStream(&b, &Options{Width: 80})
	s.Begin("(", ")")
	s.Text("aa")
	s.Text(" ")
	s.Newline(Mandatory)
	s.Text("bb")
	s.End()
	require.NoError(t, s.Flush())
	require.Equal(t, "(aa\n bb)", b.String())

	// Trailing whitespace must not survive ahead of a break.
	require.NotContains(t, b.String(), " \n")
}

func (StreamSuite) TestFillWrapsLikeWords(ctx context.Context, t *testctx.T) {
	var b strings.Builder
	s := NewStream(&b, &Options{Width: 10})
	s.Begin("(", ")")
	for i, word := range []string{"aa", "bb", "cc", "dd"} {
		if i > 0 {
			s.Text(" ")
			s.Newline(Fill)
		}
		s.Text(word)
	}
	s.End()
	require.NoError(t, s.Flush())

	// Fill packs as many chunks per line as the width allows.
	require.Equal(t, "(aa bb cc\n dd)", b.String())
}

func (StreamSuite) TestMiserInactiveNeverBreaks(ctx context.Context, t *testctx.T) {
	var b strings.Builder
	s := NewStream(&b, &Options{Width: 10, MiserWidth: 0})
	s.Text("xxxxxx")
	s.Begin("(", ")")
	s.Text("a")
	s.Text(" ")
	s.Newline(Miser)
	s.Text("b")
	s.End()
	require.NoError(t, s.Flush())
	require.Equal(t, "xxxxxx(a b)", b.String())
}

func (StreamSuite) TestMiserNearMargin(ctx context.Context, t *testctx.T) {
	var b strings.Builder
	s := NewStream(&b, &Options{Width: 10, MiserWidth: 5})
	s.Text("xxxxxx")
	s.Begin("(", ")")
	s.Text("a")
	s.Text(" ")
	s.Newline(Miser)
	s.Text("b")
	s.End()
	require.NoError(t, s.Flush())
	require.Equal(t, "xxxxxx(a\n       b)", b.String())
}

func (StreamSuite) TestPerLinePrefix(ctx context.Context, t *testctx.T) {
	var b strings.Builder
	s := NewStream(&b, &Options{Width: 6})
	s.BeginPerLine("; ", "; ", "")
	s.Text("aa")
	s.Text(" ")
	s.Newline(Linear)
	s.Text("bb")
	s.End()
	require.NoError(t, s.Flush())
	require.Equal(t, "; aa\n; bb", b.String())
}

func (StreamSuite) TestIndentCurrent(ctx context.Context, t *testctx.T) {
	var b strings.Builder
	s := NewStream(&b, &Options{Width: 12})
	s.Begin("(", ")")
	s.Text("foo ")
	s.Indent(IndentCurrent, 0)
	s.Text("aaa")
	s.Text(" ")
	s.Newline(Linear)
	s.Text("bbb")
	s.End()
	require.NoError(t, s.Flush())
	require.Equal(t, "(foo aaa\n     bbb)", b.String())
}

func (StreamSuite) TestLiteralNewlineCommitsBuffer(ctx context.Context, t *testctx.T) {
	var b strings.Builder
	s := NewStream(&b, &Options{Width: 80})
	s.Begin("(", ")")
	s.Text("aa")
	s.Text(" ")
	s.Newline(Linear)
	s.Text("b\nc")
	s.End()
	require.NoError(t, s.Flush())

	// The literal newline flushes pending tokens and breaks in place; the
	// unresolved linear newline before it stays a space.
	require.Equal(t, "(aa b\nc)", b.String())
}

func (StreamSuite) TestUnlimitedWidth(ctx context.Context, t *testctx.T) {
	var b strings.Builder
	s := NewStream(&b, &Options{Width: 0})
	s.Begin("(", ")")
	s.Text(strings.Repeat("a", 200))
	s.Text(" ")
	s.Newline(Linear)
	s.Text("b")
	s.End()
	require.NoError(t, s.Flush())
	require.NotContains(t, b.String(), "\n")
}

func (StreamSuite) TestEndWithoutBegin(ctx context.Context, t *testctx.T) {
	var b strings.Builder
	s := NewStream(&b, nil)
	s.End()
	err := s.Flush()
	require.Error(t, err)
	require.Contains(t, err.Error(), "End without matching Begin")
}

func (StreamSuite) TestColumnIgnoresAnsiEscapes(ctx context.Context, t *testctx.T) {
	var b strings.Builder
	s := NewStream(&b, nil)
	s.Text("\x1b[31maa\x1b[0m")
	require.Equal(t, 2, s.Column())
}

func (StreamSuite) TestSinkErrorSurfaces(ctx context.Context, t *testctx.T) {
	s := NewStream(failWriter{}, nil)
	s.Text("anything")
	err := s.Flush()
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}
