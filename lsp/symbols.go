package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/yui-knk/norikra/analysis"
)

// DocumentSymbol handles textDocument/documentSymbol requests.
// Returns the streams of each FROM clause, with the fields read from them,
// nested by subquery.
func (s *Server) DocumentSymbol(_ context.Context, params *protocol.DocumentSymbolParams) ([]any, error) {
	s.logger.Debug("DocumentSymbol",
		zap.String("uri", string(params.TextDocument.URI)))

	doc, ok := s.analyzedDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	b := &symbolBuilder{q: doc.Analysis, seen: make(map[string]bool)}
	symbols := b.scope(0)

	// Convert to []any for the protocol
	result := make([]any, len(symbols))
	for i, sym := range symbols {
		result[i] = sym
	}

	return result, nil
}

type symbolBuilder struct {
	q *analysis.AnalyzedQuery

	// Streams whose fields were already listed.
	seen map[string]bool
}

func (b *symbolBuilder) scope(id int) []protocol.DocumentSymbol {
	scope := b.q.Scopes.Scopes[id]

	var symbols []protocol.DocumentSymbol

	derived := make(map[int]bool)

	for _, m := range scope.Members {
		if !m.Derived() {
			symbols = append(symbols, b.stream(m))

			continue
		}

		sym := protocol.DocumentSymbol{
			Name:           "(subquery)",
			Detail:         m.Alias,
			Kind:           protocol.SymbolKindNamespace,
			Range:          spanToRange(m.Span()),
			SelectionRange: spanToRange(m.Span()),
		}

		for _, child := range scope.Children {
			if b.q.Scopes.Scopes[child].Statement == m.Def.Subquery {
				derived[child] = true
				sym.Children = b.scope(child)
			}
		}

		symbols = append(symbols, sym)
	}

	for _, child := range scope.Children {
		if derived[child] {
			continue
		}

		stmt := b.q.Scopes.Scopes[child].Statement
		rng := spanToRange(analysis.Span{Start: stmt.Pos, End: stmt.EndPos})

		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           "subquery",
			Kind:           protocol.SymbolKindNamespace,
			Range:          rng,
			SelectionRange: rng,
			Children:       b.scope(child),
		})
	}

	return symbols
}

func (b *symbolBuilder) stream(m *analysis.Member) protocol.DocumentSymbol {
	rng := spanToRange(m.Span())

	sym := protocol.DocumentSymbol{
		Name:           m.Stream,
		Detail:         m.Alias,
		Kind:           protocol.SymbolKindClass,
		Range:          rng,
		SelectionRange: rng,
	}

	if b.seen[m.Stream] {
		return sym
	}

	b.seen[m.Stream] = true

	listed := make(map[string]bool)

	for _, acc := range analysis.AccessesOf(b.q, m.Stream) {
		path := acc.PathString()
		if path == "" || listed[path] {
			continue
		}

		listed[path] = true
		sym.Children = append(sym.Children, protocol.DocumentSymbol{
			Name:           path,
			Kind:           protocol.SymbolKindField,
			Range:          spanToRange(acc.Span()),
			SelectionRange: spanToRange(acc.Span()),
		})
	}

	return sym
}
