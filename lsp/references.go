package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/yui-knk/norikra/analysis"
)

// References handles textDocument/references requests.
// Finds every use of the stream name, alias or field under the cursor.
func (s *Server) References(_ context.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	s.logger.Debug("References",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character),
		zap.Bool("includeDeclaration", params.Context.IncludeDeclaration))

	doc, ok := s.analyzedDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	q := doc.Analysis
	pos := analysis.PositionToLexer(params.Position.Line, params.Position.Character)
	includeDecl := params.Context.IncludeDeclaration

	var spans []analysis.Span

	switch sym := symbolAt(q, pos); sym.kind {
	case symbolStream:
		spans = streamReferenceSpans(q, sym.name, includeDecl)

	case symbolAlias:
		spans = aliasReferenceSpans(q, sym.member, includeDecl)

	case symbolField:
		// Fields are declared by the event type, outside the statement.
		for _, acc := range analysis.FieldReferences(q, sym.access) {
			spans = append(spans, acc.Span())
		}

	case symbolNone:
	}

	return locations(doc.URI, spans), nil
}

// streamReferenceSpans returns the stream name tokens of the FROM entries of
// stream and of the qualifiers spelling it. Alias-qualified fields do not
// spell the name and are left out.
func streamReferenceSpans(q *analysis.AnalyzedQuery, stream string, includeDecl bool) []analysis.Span {
	members, qualified := analysis.StreamReferences(q, stream)

	var spans []analysis.Span

	if includeDecl {
		for _, m := range members {
			if span, ok := m.NameSpan(); ok {
				spans = append(spans, span)
			}
		}
	}

	for _, acc := range qualified {
		if span, ok := acc.QualifierSpan(); ok {
			spans = append(spans, span)
		}
	}

	return spans
}

// aliasReferenceSpans returns the alias token of m and the qualifiers using it.
func aliasReferenceSpans(q *analysis.AnalyzedQuery, m *analysis.Member, includeDecl bool) []analysis.Span {
	var spans []analysis.Span

	if includeDecl {
		if span, ok := m.AliasSpan(); ok {
			spans = append(spans, span)
		}
	}

	for _, acc := range analysis.AliasReferences(q, m) {
		if span, ok := acc.QualifierSpan(); ok {
			spans = append(spans, span)
		}
	}

	return spans
}
