package lsp

import (
	"context"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/yui-knk/norikra"
)

// Formatting handles textDocument/formatting requests.
func (s *Server) Formatting(_ context.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	s.logger.Debug("Formatting", zap.String("uri", string(params.TextDocument.URI)))

	// Need a valid parse to format
	doc, ok := s.analyzedDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	formatted := norikra.Format(doc.Analysis.Statement)
	if strings.HasSuffix(doc.Content, "\n") {
		formatted += "\n"
	}

	if formatted == doc.Content {
		return []protocol.TextEdit{}, nil
	}

	// Return a single edit that replaces the entire document
	lines := strings.Count(doc.Content, "\n")
	lastLineLen := len(doc.Content) - strings.LastIndex(doc.Content, "\n") - 1

	return []protocol.TextEdit{
		{
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   protocol.Position{Line: uint32(lines), Character: uint32(lastLineLen)}, //nolint:gosec
			},
			NewText: formatted,
		},
	}, nil
}
