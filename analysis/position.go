package analysis

import (
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/yui-knk/norikra"
)

// Contains reports whether pos lies in the span. The end is exclusive; a
// span without an end contains only its start.
func (s Span) Contains(pos lexer.Position) bool {
	if before(pos, s.Start) {
		return false
	}

	if s.End == (lexer.Position{}) {
		return !before(s.Start, pos)
	}

	return before(pos, s.End)
}

func before(a, b lexer.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}

	return a.Column < b.Column
}

func streamSpan(def *norikra.StreamDef) Span {
	return Span{Start: def.Pos, End: def.EndPos}
}

func chainSpan(c *norikra.Chain) Span {
	return Span{Start: c.Pos, End: c.EndPos}
}

// Span returns the source range of a FROM entry.
func (m *Member) Span() Span {
	return streamSpan(m.Def)
}

// Span returns the source range of the whole chain, method calls included.
func (a *PropertyAccess) Span() Span {
	return chainSpan(a.Chain)
}

// PositionToLexer converts LSP 0-based line/character to participle's 1-based line/column.
func PositionToLexer(line, character uint32) lexer.Position {
	return lexer.Position{
		Line:   int(line) + 1,
		Column: int(character) + 1,
	}
}

// AccessAt returns the innermost property access whose chain contains pos.
func AccessAt(q *AnalyzedQuery, pos lexer.Position) *PropertyAccess {
	if q.Attribution == nil {
		return nil
	}

	var best *PropertyAccess

	for _, acc := range q.Attribution.Accesses {
		if !acc.Span().Contains(pos) {
			continue
		}

		if best == nil || before(best.Chain.Pos, acc.Chain.Pos) {
			best = acc
		}
	}

	return best
}

// MemberAt returns the innermost FROM entry containing pos, together with
// the scope declaring it. A derived source contains the entries of its
// subquery, which win.
func MemberAt(q *AnalyzedQuery, pos lexer.Position) (*Scope, *Member) {
	if q.Scopes == nil {
		return nil, nil
	}

	var (
		bestScope  *Scope
		bestMember *Member
	)

	for _, scope := range q.Scopes.Scopes {
		for _, m := range scope.Members {
			if !m.Span().Contains(pos) {
				continue
			}

			if bestMember == nil || before(bestMember.Def.Pos, m.Def.Pos) {
				bestScope, bestMember = scope, m
			}
		}
	}

	return bestScope, bestMember
}

// AccessesOf returns the accesses attributed to stream, in attribution order.
func AccessesOf(q *AnalyzedQuery, stream string) []*PropertyAccess {
	if q.Attribution == nil {
		return nil
	}

	var out []*PropertyAccess

	for _, acc := range q.Attribution.Accesses {
		if acc.Owner == stream {
			out = append(out, acc)
		}
	}

	return out
}

// MembersOf returns every FROM entry of any scope that reads stream.
func MembersOf(q *AnalyzedQuery, stream string) []*Member {
	if q.Scopes == nil {
		return nil
	}

	return membersOf(q.Scopes, stream)
}

// StreamReferences returns the places that spell the name of stream: its
// FROM entries and the accesses qualified by the stream name. These are the
// sites RewriteEventTypeName renames.
func StreamReferences(q *AnalyzedQuery, stream string) ([]*Member, []*PropertyAccess) {
	if q.Scopes == nil || q.Attribution == nil {
		return nil, nil
	}

	return membersOf(q.Scopes, stream), qualifiedBy(q.Attribution.Accesses, stream)
}

// AliasReferences returns the accesses qualified by the alias of m.
func AliasReferences(q *AnalyzedQuery, m *Member) []*PropertyAccess {
	if q.Attribution == nil || m.Alias == "" {
		return nil
	}

	var out []*PropertyAccess

	for _, acc := range q.Attribution.Accesses {
		if acc.QualifierKind == QualifierAlias && acc.Member == m {
			out = append(out, acc)
		}
	}

	return out
}

// FieldReferences returns the accesses reading the same field as target,
// target included. Ambiguous fields match only within their scope.
func FieldReferences(q *AnalyzedQuery, target *PropertyAccess) []*PropertyAccess {
	if q.Attribution == nil {
		return nil
	}

	path := target.PathString()

	var out []*PropertyAccess

	for _, acc := range q.Attribution.Accesses {
		if acc.PathString() != path || acc.Ambiguous != target.Ambiguous {
			continue
		}

		switch {
		case target.Ambiguous:
			if acc.Scope != target.Scope {
				continue
			}
		case target.Derived:
			if acc.Member != target.Member {
				continue
			}
		default:
			if acc.Derived || acc.Owner != target.Owner {
				continue
			}
		}

		out = append(out, acc)
	}

	return out
}

// Declarations returns the FROM entries an access may read from: the one it
// resolves to, or every entry of its scope when it is ambiguous.
func Declarations(q *AnalyzedQuery, acc *PropertyAccess) []*Member {
	if acc.Member != nil {
		return []*Member{acc.Member}
	}

	if q.Scopes == nil || acc.Scope >= len(q.Scopes.Scopes) {
		return nil
	}

	return q.Scopes.Scopes[acc.Scope].Members
}

// NameSpan returns the source range of the stream name of a FROM entry. It
// is false for a derived source.
func (m *Member) NameSpan() (Span, bool) {
	if m.Derived() {
		return Span{}, false
	}

	return tokenSpan(m.Def.Pos, m.Stream), true
}

// AliasSpan returns the source range of the declared alias.
func (m *Member) AliasSpan() (Span, bool) {
	tok, ok := m.Def.AliasToken()
	if !ok {
		return Span{}, false
	}

	return tokenSpan(tok.Pos, tok.Value), true
}

// QualifierSpan returns the source range of the explicit qualifier.
func (a *PropertyAccess) QualifierSpan() (Span, bool) {
	if a.Qualifier == "" {
		return Span{}, false
	}

	return tokenSpan(a.Chain.Pos, a.Qualifier), true
}

func tokenSpan(start lexer.Position, text string) Span {
	end := start
	end.Offset += len(text)
	end.Column += utf8.RuneCountInString(text)

	return Span{Start: start, End: end}
}
