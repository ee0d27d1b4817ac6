package lsp

import (
	"context"
	"strings"

	"github.com/creachadair/jrpc2"

	"github.com/prin-fmt/prin/pkg/prin"
)

func (h *LangHandler) handleTextDocumentFormatting(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params DocumentFormattingParams
	if err := req.UnmarshalParams(&params); err != nil {
		return nil, err
	}

	f := h.file(params.TextDocument.URI)
	if f == nil {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "document not found: %v", params.TextDocument.URI)
	}

	opts := h.formatOptions()
	formatted, err := prin.FormatValue(f.Text, &opts)
	if err != nil {
		// Reader errors are already surfaced as diagnostics; formatting
		// just declines to edit.
		return []TextEdit{}, nil
	}

	if formatted == f.Text {
		return []TextEdit{}, nil
	}

	return []TextEdit{
		{
			Range:   fullRange(f.Text),
			NewText: formatted,
		},
	}, nil
}

// fullRange spans an entire document, for whole-file replacement edits.
func fullRange(text string) Range {
	lines := strings.Count(text, "\n")
	lastLine := text
	if idx := strings.LastIndexByte(text, '\n'); idx >= 0 {
		lastLine = text[idx+1:]
	}
	return Range{
		Start: Position{Line: 0, Character: 0},
		End:   Position{Line: lines, Character: len(lastLine)},
	}
}
