// Package ioctx carries process stdio through contexts so commands write to
// whatever the caller wired up, and tests can capture output without touching
// the real os streams.
package ioctx

import (
	"context"
	"io"
)

type stdinKey struct{}
type stdoutKey struct{}
type stderrKey struct{}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, io.EOF }

func StdinFromContext(ctx context.Context) io.Reader {
	reader := ctx.Value(stdinKey{})
	if reader == nil {
		return emptyReader{}
	}
	return reader.(io.Reader)
}

func StdinToContext(ctx context.Context, r io.Reader) context.Context {
	return context.WithValue(ctx, stdinKey{}, r)
}

func StdoutFromContext(ctx context.Context) io.Writer {
	writer := ctx.Value(stdoutKey{})
	if writer == nil {
		return io.Discard
	}
	return writer.(io.Writer)
}

func StdoutToContext(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, stdoutKey{}, w)
}

func StderrFromContext(ctx context.Context) io.Writer {
	writer := ctx.Value(stderrKey{})
	if writer == nil {
		return io.Discard
	}
	return writer.(io.Writer)
}

func StderrToContext(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, stderrKey{}, w)
}
