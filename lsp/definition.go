package lsp

import (
	"context"

	"github.com/alecthomas/participle/v2/lexer"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/yui-knk/norikra/analysis"
)

// symbolKind identifies what kind of name is under the cursor.
type symbolKind int

const (
	symbolNone symbolKind = iota
	symbolStream
	symbolAlias
	symbolField
)

// symbol is the name under the cursor.
type symbol struct {
	kind symbolKind
	name string

	// span covers the token under the cursor; the whole chain for fields.
	span analysis.Span

	// member is the FROM entry the name declares or refers to. Nil for an
	// ambiguous field.
	member *analysis.Member

	// access is set when the cursor is on a property chain rather than a
	// FROM entry.
	access *analysis.PropertyAccess
}

// symbolAt finds the stream name, alias or field at pos. A qualifier counts
// as the stream or alias it names; the rest of a chain is the field.
func symbolAt(q *analysis.AnalyzedQuery, pos lexer.Position) symbol {
	if acc := analysis.AccessAt(q, pos); acc != nil {
		if span, ok := acc.QualifierSpan(); ok && span.Contains(pos) {
			kind := symbolStream
			if acc.QualifierKind == analysis.QualifierAlias {
				kind = symbolAlias
			}

			return symbol{kind: kind, name: acc.Qualifier, span: span, member: acc.Member, access: acc}
		}

		return symbol{kind: symbolField, name: acc.PathString(), span: acc.Span(), member: acc.Member, access: acc}
	}

	_, m := analysis.MemberAt(q, pos)
	if m == nil {
		return symbol{}
	}

	if span, ok := m.AliasSpan(); ok && span.Contains(pos) {
		return symbol{kind: symbolAlias, name: m.Alias, span: span, member: m}
	}

	if span, ok := m.NameSpan(); ok {
		return symbol{kind: symbolStream, name: m.Stream, span: span, member: m}
	}

	return symbol{}
}

// Definition handles textDocument/definition requests.
// Qualifiers and fields jump to the FROM entry they read from; an ambiguous
// field lists every entry of its scope.
func (s *Server) Definition(_ context.Context, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	s.logger.Debug("Definition",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.analyzedDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	q := doc.Analysis
	pos := analysis.PositionToLexer(params.Position.Line, params.Position.Character)

	sym := symbolAt(q, pos)

	// A FROM entry is its own declaration.
	if sym.access == nil {
		return nil, nil
	}

	var spans []analysis.Span

	switch sym.kind {
	case symbolAlias:
		if span, ok := sym.member.AliasSpan(); ok {
			spans = append(spans, span)
		}

	case symbolStream:
		spans = append(spans, declarationSpan(sym.member))

	case symbolField:
		for _, m := range analysis.Declarations(q, sym.access) {
			spans = append(spans, declarationSpan(m))
		}
	}

	return locations(doc.URI, spans), nil
}

// declarationSpan is the stream name of an entry, or the whole entry for a
// derived source.
func declarationSpan(m *analysis.Member) analysis.Span {
	if span, ok := m.NameSpan(); ok {
		return span
	}

	return m.Span()
}

func locations(uri protocol.DocumentURI, spans []analysis.Span) []protocol.Location {
	if len(spans) == 0 {
		return nil
	}

	out := make([]protocol.Location, 0, len(spans))
	for _, span := range spans {
		out = append(out, protocol.Location{URI: uri, Range: spanToRange(span)})
	}

	return out
}
