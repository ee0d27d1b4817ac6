package lsp

import (
	"context"

	"github.com/creachadair/jrpc2"
)

func (h *LangHandler) handleShutdown(ctx context.Context, req *jrpc2.Request) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files = make(map[DocumentURI]*File)
	return nil, nil
}
