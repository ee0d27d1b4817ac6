package lsp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prin-fmt/prin/pkg/prin"
)

func startServer(t *testing.T) (*LangHandler, *jrpc2.Client) {
	t.Helper()
	h := NewHandler(prin.DefaultOptions())
	loc := server.NewLocal(h, &server.LocalOptions{
		Server: &jrpc2.ServerOptions{AllowPush: true},
	})
	h.SetServer(loc.Server)
	t.Cleanup(func() { _ = loc.Close() })
	return h, loc.Client
}

func TestInitialize(t *testing.T) {
	_, client := startServer(t)

	var res InitializeResult
	err := client.CallResult(context.Background(), "initialize", InitializeParams{
		RootURI: toURI("/workspace"),
	}, &res)
	require.NoError(t, err)

	assert.Equal(t, TDSKFull, res.Capabilities.TextDocumentSync)
	assert.True(t, res.Capabilities.DocumentFormattingProvider)
}

func TestFormatting(t *testing.T) {
	ctx := context.Background()
	_, client := startServer(t)

	uri := toURI("/workspace/data.edn")
	_, err := client.Call(ctx, "textDocument/didOpen", DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{
			URI:        uri,
			LanguageID: "edn",
			Version:    1,
			Text:       "{:a    1,,,:b 2}",
		},
	})
	require.NoError(t, err)

	var edits []TextEdit
	err = client.CallResult(ctx, "textDocument/formatting", DocumentFormattingParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
	}, &edits)
	require.NoError(t, err)

	require.Len(t, edits, 1)
	assert.Equal(t, "{:a 1, :b 2}\n", edits[0].NewText)
	assert.Equal(t, Position{Line: 0, Character: 0}, edits[0].Range.Start)
}

func TestFormattingAlreadyClean(t *testing.T) {
	ctx := context.Background()
	_, client := startServer(t)

	uri := toURI("/workspace/data.edn")
	_, err := client.Call(ctx, "textDocument/didOpen", DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{
			URI:     uri,
			Version: 1,
			Text:    "{:a 1, :b 2}\n",
		},
	})
	require.NoError(t, err)

	var edits []TextEdit
	err = client.CallResult(ctx, "textDocument/formatting", DocumentFormattingParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
	}, &edits)
	require.NoError(t, err)
	assert.Empty(t, edits)
}

func TestFormattingUnknownDocument(t *testing.T) {
	_, client := startServer(t)

	var edits []TextEdit
	err := client.CallResult(context.Background(), "textDocument/formatting", DocumentFormattingParams{
		TextDocument: TextDocumentIdentifier{URI: toURI("/nope.edn")},
	}, &edits)
	require.Error(t, err)
}

func TestDidChangeUpdatesText(t *testing.T) {
	ctx := context.Background()
	h, client := startServer(t)

	uri := toURI("/workspace/data.edn")
	_, err := client.Call(ctx, "textDocument/didOpen", DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{URI: uri, Version: 1, Text: "1"},
	})
	require.NoError(t, err)

	_, err = client.Call(ctx, "textDocument/didChange", DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{URI: uri, Version: 2},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: "[1 2]"}},
	})
	require.NoError(t, err)

	f := h.file(uri)
	require.NotNil(t, f)
	assert.Equal(t, "[1 2]", f.Text)
	assert.Equal(t, 2, f.Version)
	assert.Empty(t, f.Diagnostics)

	_, err = client.Call(ctx, "textDocument/didClose", DidCloseTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	assert.Nil(t, h.file(uri))
}

func TestReadErrorDiagnostics(t *testing.T) {
	h := NewHandler(prin.DefaultOptions())

	uri := toURI("/workspace/bad.edn")
	h.openFile(uri, "edn", 1)
	require.NoError(t, h.updateFile(context.Background(), uri, "[1\n 2 }", nil))

	f := h.file(uri)
	require.NotNil(t, f)
	require.Len(t, f.Diagnostics, 1)

	diag := f.Diagnostics[0]
	assert.Equal(t, SeverityError, diag.Severity)
	assert.Equal(t, 1, diag.Range.Start.Line)
	assert.Contains(t, diag.Message, "unexpected")
}

func TestWorkspaceConfigOverridesWidth(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "prin.toml"), []byte("width = 8\n"), 0o644))

	ctx := context.Background()
	_, client := startServer(t)

	var res InitializeResult
	require.NoError(t, client.CallResult(ctx, "initialize", InitializeParams{
		RootURI: toURI(root),
	}, &res))

	uri := toURI(filepath.Join(root, "data.edn"))
	_, err := client.Call(ctx, "textDocument/didOpen", DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{URI: uri, Version: 1, Text: "(aaa bbb)"},
	})
	require.NoError(t, err)

	var edits []TextEdit
	require.NoError(t, client.CallResult(ctx, "textDocument/formatting", DocumentFormattingParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
	}, &edits))

	require.Len(t, edits, 1)
	assert.Equal(t, "(aaa\n bbb)\n", edits[0].NewText)
}

func TestURIConversion(t *testing.T) {
	path := "/some/dir/file.edn"
	uri := toURI(path)
	assert.Equal(t, DocumentURI("file:///some/dir/file.edn"), uri)

	back, err := fromURI(uri)
	require.NoError(t, err)
	assert.Equal(t, path, back)

	_, err = fromURI(DocumentURI("https://example.com"))
	require.Error(t, err)
}
