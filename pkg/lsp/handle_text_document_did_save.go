package lsp

import (
	"context"

	"github.com/creachadair/jrpc2"
)

func (h *LangHandler) handleTextDocumentDidSave(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params DidSaveTextDocumentParams
	if err := req.UnmarshalParams(&params); err != nil {
		return nil, err
	}

	// Clients only include the text when includeText is requested; without it
	// the in-memory copy from didChange is already current.
	if params.Text == "" {
		return nil, nil
	}
	return nil, h.updateFile(ctx, params.TextDocument.URI, params.Text, nil)
}
