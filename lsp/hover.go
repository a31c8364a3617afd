package lsp

import (
	"context"
	"fmt"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/yui-knk/norikra/analysis"
)

// Hover handles textDocument/hover requests.
func (s *Server) Hover(_ context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.logger.Debug("Hover",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.analyzedDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	q := doc.Analysis
	pos := analysis.PositionToLexer(params.Position.Line, params.Position.Character)

	var (
		content string
		rng     protocol.Range
	)

	// Accesses inside a stream filter are more specific than the stream.
	if acc := analysis.AccessAt(q, pos); acc != nil {
		content, rng = hoverAccess(q, acc), spanToRange(acc.Span())
	} else if _, m := analysis.MemberAt(q, pos); m != nil {
		content, rng = hoverMember(q, m), spanToRange(m.Span())
	}

	if content == "" {
		return nil, nil //nolint:nilnil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: content,
		},
		Range: rangePtr(rng),
	}, nil
}

// hoverAccess generates hover content for a property access.
func hoverAccess(q *analysis.AnalyzedQuery, acc *analysis.PropertyAccess) string {
	var b strings.Builder

	switch {
	case acc.Ambiguous:
		fmt.Fprintf(&b, "**Field** `%s`\n\n", acc.PathString())
		fmt.Fprintf(&b, "Ambiguous: may belong to any of %s.", memberList(q.Scopes.Scopes[acc.Scope]))

		return b.String()

	case acc.Derived:
		fmt.Fprintf(&b, "**Field** `%s` of a derived source", acc.PathString())

		return b.String()

	case acc.EventReference():
		fmt.Fprintf(&b, "**Event** of stream `%s`", acc.Owner)

	default:
		fmt.Fprintf(&b, "**Field** `%s` of stream `%s`", acc.PathString(), acc.Owner)
	}

	var notes []string

	if acc.QualifierKind == analysis.QualifierAlias {
		notes = append(notes, fmt.Sprintf("- **Alias:** `%s`", acc.Qualifier))
	}

	if acc.Pinned {
		notes = append(notes, "- Read by the stream's filter or views")
	}

	if len(notes) > 0 {
		b.WriteString("\n\n" + strings.Join(notes, "\n"))
	}

	return b.String()
}

// hoverMember generates hover content for a FROM entry.
func hoverMember(q *analysis.AnalyzedQuery, m *analysis.Member) string {
	var b strings.Builder

	if m.Derived() {
		b.WriteString("**Derived source**")

		if m.Alias != "" {
			fmt.Fprintf(&b, " as `%s`", m.Alias)
		}

		return b.String()
	}

	fmt.Fprintf(&b, "**Stream** `%s`", m.Stream)

	if m.Alias != "" {
		fmt.Fprintf(&b, " as `%s`", m.Alias)
	}

	fields := q.Attribution.Fields.Of(m.Stream)
	if len(fields) == 0 {
		b.WriteString("\n\nNo fields read.")

		return b.String()
	}

	b.WriteString("\n\n**Fields read:**\n")

	for _, f := range fields {
		fmt.Fprintf(&b, "- `%s`\n", f)
	}

	return b.String()
}

func memberList(scope *analysis.Scope) string {
	names := make([]string, 0, len(scope.Members))
	for _, m := range scope.Members {
		names = append(names, "`"+m.Name()+"`")
	}

	return strings.Join(names, ", ")
}
