package lsp

import (
	"context"

	"github.com/creachadair/jrpc2"
)

func (h *LangHandler) handleExit(ctx context.Context, req *jrpc2.Request) (any, error) {
	if h.srv != nil {
		h.srv.Stop()
	}
	return nil, nil
}
