package lsp

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"unicode"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/pkg/errors"

	"github.com/prin-fmt/prin/pkg/prin"
)

// NewHandler creates the JSON-RPC handler for this language server. The
// options are the formatting defaults; a prin.toml discovered from the
// workspace root overrides them.
func NewHandler(opts prin.Options) *LangHandler {
	h := &LangHandler{
		files: make(map[DocumentURI]*File),
		opts:  opts,
	}
	h.methods = handler.Map{
		"initialize":              handler.New(h.handleInitialize),
		"shutdown":                handler.New(h.handleShutdown),
		"textDocument/didOpen":    handler.New(h.handleTextDocumentDidOpen),
		"textDocument/didChange":  handler.New(h.handleTextDocumentDidChange),
		"textDocument/didSave":    handler.New(h.handleTextDocumentDidSave),
		"textDocument/didClose":   handler.New(h.handleTextDocumentDidClose),
		"exit":                    handler.New(h.handleExit),
		"textDocument/formatting": handler.New(h.handleTextDocumentFormatting),
	}
	return h
}

type LangHandler struct {
	mu       sync.Mutex
	files    map[DocumentURI]*File
	rootPath string
	opts     prin.Options

	methods handler.Map
	srv     *jrpc2.Server
}

// File is one open document and its current reader diagnostics.
type File struct {
	LanguageID  string
	Text        string
	Version     int
	Diagnostics []Diagnostic
}

// Assign implements jrpc2.Assigner.
func (h *LangHandler) Assign(ctx context.Context, method string) jrpc2.Handler {
	return h.methods.Assign(ctx, method)
}

// SetServer stores the server so the handler can push notifications back to
// the client.
func (h *LangHandler) SetServer(srv *jrpc2.Server) {
	h.srv = srv
}

func isWindowsDrivePath(path string) bool {
	if len(path) < 4 {
		return false
	}
	return unicode.IsLetter(rune(path[0])) && path[1] == ':'
}

func isWindowsDriveURI(uri string) bool {
	if len(uri) < 4 {
		return false
	}
	return uri[0] == '/' && unicode.IsLetter(rune(uri[1])) && uri[2] == ':'
}

func fromURI(uri DocumentURI) (string, error) {
	u, err := url.ParseRequestURI(string(uri))
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", errors.Errorf("only file URIs are supported, got %v", u.Scheme)
	}
	if isWindowsDriveURI(u.Path) {
		u.Path = u.Path[1:]
	}
	return u.Path, nil
}

func toURI(path string) DocumentURI {
	if isWindowsDrivePath(path) {
		path = "/" + path
	}
	return DocumentURI((&url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(path),
	}).String())
}

func (h *LangHandler) logMessage(ctx context.Context, typ MessageType, message string) {
	if h.srv == nil {
		return
	}
	_ = h.srv.Notify(ctx, "window/logMessage", &LogMessageParams{
		Type:    typ,
		Message: message,
	})
}

func (h *LangHandler) openFile(uri DocumentURI, languageID string, version int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[uri] = &File{
		LanguageID: languageID,
		Version:    version,
	}
}

func (h *LangHandler) closeFile(uri DocumentURI) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.files, uri)
}

func (h *LangHandler) file(uri DocumentURI) *File {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.files[uri]
}

// updateFile replaces a document's text, re-reads it for diagnostics, and
// publishes them to the client.
func (h *LangHandler) updateFile(ctx context.Context, uri DocumentURI, text string, version *int) error {
	h.mu.Lock()
	f, ok := h.files[uri]
	if !ok {
		h.mu.Unlock()
		return errors.Errorf("document not found: %v", uri)
	}
	f.Text = text
	if version != nil {
		f.Version = *version
	}
	f.Diagnostics = readDiagnostics(text)
	diags := f.Diagnostics
	version = &f.Version
	h.mu.Unlock()

	h.publishDiagnostics(ctx, uri, *version, diags)
	return nil
}

// readDiagnostics reports reader errors in text as LSP diagnostics.
func readDiagnostics(text string) []Diagnostic {
	diags := []Diagnostic{}
	_, err := prin.ReadAll(text)
	if err == nil {
		return diags
	}

	pos := Position{}
	var re *prin.ReadError
	if errors.As(err, &re) {
		pos = Position{Line: re.Line - 1, Character: re.Column - 1}
	}
	diags = append(diags, Diagnostic{
		Range:    Range{Start: pos, End: Position{Line: pos.Line, Character: pos.Character + 1}},
		Severity: SeverityError,
		Source:   "prin",
		Message:  err.Error(),
	})
	return diags
}

func (h *LangHandler) publishDiagnostics(ctx context.Context, uri DocumentURI, version int, diags []Diagnostic) {
	if h.srv == nil {
		return
	}
	err := h.srv.Notify(ctx, "textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: diags,
	})
	if err != nil {
		h.logMessage(ctx, LogWarning, fmt.Sprintf("publish diagnostics: %v", err))
	}
}

// formatOptions resolves the effective formatting options for the workspace:
// the handler defaults overlaid with any prin.toml found at the root.
func (h *LangHandler) formatOptions() prin.Options {
	h.mu.Lock()
	root := h.rootPath
	h.mu.Unlock()

	opts := h.opts
	if root == "" {
		return opts
	}
	_, config, err := prin.FindFileConfig(root)
	if err != nil || config == nil {
		return opts
	}
	return config.Apply(opts)
}
