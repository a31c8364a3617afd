package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/yui-knk/norikra/analysis"
)

// DocumentHighlight handles textDocument/documentHighlight requests.
// On a field or a FROM entry it highlights every declaration of the stream
// and every field read from it.
func (s *Server) DocumentHighlight(_ context.Context, params *protocol.DocumentHighlightParams) ([]protocol.DocumentHighlight, error) {
	s.logger.Debug("DocumentHighlight",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.analyzedDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	q := doc.Analysis
	pos := analysis.PositionToLexer(params.Position.Line, params.Position.Character)

	if acc := analysis.AccessAt(q, pos); acc != nil {
		switch {
		case acc.Ambiguous:
			return highlightAmbiguous(q, acc), nil
		case acc.Owner != "":
			return highlightStream(q, acc.Owner), nil
		default:
			return []protocol.DocumentHighlight{readHighlight(acc)}, nil
		}
	}

	if _, m := analysis.MemberAt(q, pos); m != nil {
		if m.Derived() {
			return []protocol.DocumentHighlight{{Range: spanToRange(m.Span()), Kind: protocol.DocumentHighlightKindText}}, nil
		}

		return highlightStream(q, m.Stream), nil
	}

	return nil, nil
}

func highlightStream(q *analysis.AnalyzedQuery, stream string) []protocol.DocumentHighlight {
	var highlights []protocol.DocumentHighlight

	for _, m := range analysis.MembersOf(q, stream) {
		highlights = append(highlights, protocol.DocumentHighlight{
			Range: spanToRange(m.Span()),
			Kind:  protocol.DocumentHighlightKindText,
		})
	}

	for _, acc := range analysis.AccessesOf(q, stream) {
		highlights = append(highlights, readHighlight(acc))
	}

	return highlights
}

// highlightAmbiguous highlights the unqualified uses of the same field in
// the same scope.
func highlightAmbiguous(q *analysis.AnalyzedQuery, target *analysis.PropertyAccess) []protocol.DocumentHighlight {
	var highlights []protocol.DocumentHighlight

	for _, acc := range analysis.FieldReferences(q, target) {
		highlights = append(highlights, readHighlight(acc))
	}

	return highlights
}

func readHighlight(acc *analysis.PropertyAccess) protocol.DocumentHighlight {
	return protocol.DocumentHighlight{
		Range: spanToRange(acc.Span()),
		Kind:  protocol.DocumentHighlightKindRead,
	}
}
