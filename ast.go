// Package norikra provides a parser and canonical renderer for EPL, the
// SQL-like continuous query language, together with the configuration shared
// by the analysis tooling built on top of it.
package norikra

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Statement is a complete EPL statement. Nested statements (subqueries) use
// the same type.
type Statement struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Insert  *string       `parser:"('insert' 'into' @Ident)?"`
	Select  *SelectClause `parser:"'select' @@"`
	From    *FromClause   `parser:"'from' @@"`
	Where   *Expr         `parser:"('where' @@)?"`
	GroupBy []*Expr       `parser:"('group' 'by' @@ (',' @@)*)?"`
	Having  *Expr         `parser:"('having' @@)?"`
	OrderBy []*OrderItem  `parser:"('order' 'by' @@ (',' @@)*)?"`
	Limit   *string       `parser:"('limit' @Number"`
	Offset  *string       `parser:"('offset' @Number)?)?"`
}

// SelectClause is the projection of a statement: either "*" or a list of items.
type SelectClause struct {
	Distinct bool          `parser:"@'distinct'?"`
	Star     bool          `parser:"( @'*'"`
	Items    []*SelectItem `parser:"| @@ (',' @@)* )"`
}

// SelectItem is one projected expression with an optional output name.
type SelectItem struct {
	Expr  *Expr   `parser:"@@"`
	Alias *string `parser:"('as'? @Ident)?"`
}

// FromClause lists the stream definitions a statement reads from.
type FromClause struct {
	Streams []*StreamDef `parser:"@@ (',' @@)*"`
	Joins   []*Join      `parser:"@@*"`
}

// Join is an explicit join against another stream.
// Kind is empty for a plain join, otherwise one of inner, left, right, full.
type Join struct {
	Kind   string     `parser:"( @('left' | 'right' | 'full') 'outer' | @'inner' )? 'join'"`
	Stream *StreamDef `parser:"@@"`
	On     *Expr      `parser:"'on' @@"`
}

// StreamDef declares a stream in a FROM clause: an event type name with
// optional filter and views, or a parenthesized subquery acting as a derived
// source.
type StreamDef struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Tokens []lexer.Token

	Subquery       *Statement    `parser:"( '(' @@ ')'"`
	Name           string        `parser:"| @Ident"`
	Filter         *StreamFilter `parser:"  @@? )"`
	Views          []*View       `parser:"('.' @@)*"`
	Alias          *string       `parser:"('as'? @Ident)?"`
	Unidirectional bool          `parser:"@'unidirectional'?"`
}

// StreamFilter holds the filter expressions of a stream, e.g. StreamB(size > 10).
type StreamFilter struct {
	Exprs []*Expr `parser:"'(' (@@ (',' @@)*)? ')'"`
}

// View is a data window or view applied to a stream, e.g. win:time_batch(10 sec).
type View struct {
	Namespace string  `parser:"@Ident ':'"`
	Name      string  `parser:"@Ident '('"`
	Args      []*Expr `parser:"(@@ (',' @@)*)? ')'"`
}

// OrderItem is one ORDER BY expression.
type OrderItem struct {
	Expr      *Expr   `parser:"@@"`
	Direction *string `parser:"@('asc' | 'desc')?"`
}

// Expr is a disjunction of conjunctions.
type Expr struct {
	Or []*AndExpr `parser:"@@ ('or' @@)*"`
}

// AndExpr is a conjunction of possibly negated comparisons.
type AndExpr struct {
	And []*NotExpr `parser:"@@ ('and' @@)*"`
}

// NotExpr is a comparison with an optional leading NOT.
type NotExpr struct {
	Not        bool        `parser:"@'not'?"`
	Comparison *Comparison `parser:"@@"`
}

// Comparison is an operand optionally followed by a comparison tail.
type Comparison struct {
	Left *Additive    `parser:"@@"`
	Tail *CompareTail `parser:"@@?"`
}

// CompareTail is the right-hand side of a comparison. Exactly one field is set.
type CompareTail struct {
	Binary  *BinaryTail  `parser:"  @@"`
	Is      *IsTail      `parser:"| @@"`
	In      *InTail      `parser:"| @@"`
	Between *BetweenTail `parser:"| @@"`
	Like    *LikeTail    `parser:"| @@"`
}

// BinaryTail is "op operand" for the relational operators.
type BinaryTail struct {
	Op    string    `parser:"@('=' | '!=' | '<>' | '<=' | '>=' | '<' | '>')"`
	Right *Additive `parser:"@@"`
}

// IsTail is "IS [NOT] NULL".
type IsTail struct {
	Not bool `parser:"'is' @'not'? 'null'"`
}

// InTail is "[NOT] IN (values...)" or "[NOT] IN (subquery)".
type InTail struct {
	Not      bool       `parser:"@'not'? 'in' '('"`
	Subquery *Statement `parser:"( @@"`
	Values   []*Expr    `parser:"| @@ (',' @@)* ) ')'"`
}

// BetweenTail is "[NOT] BETWEEN low AND high".
type BetweenTail struct {
	Not  bool      `parser:"@'not'? 'between'"`
	Low  *Additive `parser:"@@ 'and'"`
	High *Additive `parser:"@@"`
}

// LikeTail is "[NOT] LIKE pattern [ESCAPE 'c']".
type LikeTail struct {
	Not     bool      `parser:"@'not'? 'like'"`
	Pattern *Additive `parser:"@@"`
	Escape  *string   `parser:"('escape' @String)?"`
}

// Additive is a chain of +, - and || operations.
type Additive struct {
	Left  *Multiplicative `parser:"@@"`
	Right []*AddOp        `parser:"@@*"`
}

// AddOp is one additive operator with its right operand.
type AddOp struct {
	Op      string          `parser:"@('+' | '-' | '||')"`
	Operand *Multiplicative `parser:"@@"`
}

// Multiplicative is a chain of *, / and % operations.
type Multiplicative struct {
	Left  *Unary   `parser:"@@"`
	Right []*MulOp `parser:"@@*"`
}

// MulOp is one multiplicative operator with its right operand.
type MulOp struct {
	Op      string `parser:"@('*' | '/' | '%')"`
	Operand *Unary `parser:"@@"`
}

// Unary is a primary with an optional sign.
type Unary struct {
	Sign    *string  `parser:"@('-' | '+')?"`
	Primary *Primary `parser:"@@"`
}

// Primary is an atomic expression. Exactly one field is set.
type Primary struct {
	Subquery *Statement  `parser:"  '(' @@ ')'"`
	Exists   *Statement  `parser:"| 'exists' '(' @@ ')'"`
	Case     *CaseExpr   `parser:"| @@"`
	Paren    *Expr       `parser:"| '(' @@ ')'"`
	Time     *TimePeriod `parser:"| @@"`
	Literal  *Literal    `parser:"| @@"`
	Chain    *Chain      `parser:"| @@"`
}

// CaseExpr is a CASE expression, with or without a subject.
type CaseExpr struct {
	Subject *Expr         `parser:"'case' @@?"`
	Whens   []*WhenClause `parser:"@@+"`
	Else    *Expr         `parser:"('else' @@)? 'end'"`
}

// WhenClause is one WHEN ... THEN ... arm.
type WhenClause struct {
	Cond   *Expr `parser:"'when' @@"`
	Result *Expr `parser:"'then' @@"`
}

// TimePeriod is a time literal such as "1 min 30 sec".
type TimePeriod struct {
	Parts []*TimePart `parser:"@@+"`
}

// TimePart is one number-unit pair of a time period.
type TimePart struct {
	Value string `parser:"@Number"`
	Unit  string `parser:"@('msec' | 'millisecond' | 'milliseconds' | 'sec' | 'second' | 'seconds' | 'min' | 'minute' | 'minutes' | 'hour' | 'hours' | 'day' | 'days' | 'week' | 'weeks' | 'year' | 'years')"` //nolint:lll
}

// Literal is a constant value. Numbers keep their source text.
type Literal struct {
	Number *string `parser:"  @Number"`
	String *string `parser:"| @String"`
	Bool   *string `parser:"| @('true' | 'false')"`
	Null   bool    `parser:"| @'null'"`
}

// Chain is a dotted sequence of segments: a property access, a method call
// on a property, a function call, or any mix such as opts.num.$0.length().
type Chain struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Segments []*Segment `parser:"@@ ('.' @@)*"`
}

// Segment is one element of a Chain. Call is non-nil when the segment is
// invoked with parentheses.
type Segment struct {
	Name string    `parser:"@Ident"`
	Call *CallArgs `parser:"@@?"`
}

// CallArgs are the arguments of a function or method call.
type CallArgs struct {
	Distinct bool    `parser:"'(' @'distinct'?"`
	Star     bool    `parser:"( @'*'"`
	Args     []*Expr `parser:"| @@ (',' @@)* )? ')'"`
}

// PropertyLen returns the number of leading segments that form a property
// path, i.e. the segments before the first call.
func (c *Chain) PropertyLen() int {
	for i, seg := range c.Segments {
		if seg.Call != nil {
			return i
		}
	}

	return len(c.Segments)
}

// Names returns the segment names of the chain.
func (c *Chain) Names() []string {
	names := make([]string, len(c.Segments))
	for i, seg := range c.Segments {
		names[i] = seg.Name
	}

	return names
}

// AliasOrName returns the name a stream is referenced by inside the
// statement: its alias when present, otherwise its event type name.
func (s *StreamDef) AliasOrName() string {
	if s.Alias != nil {
		return *s.Alias
	}

	return s.Name
}

// AliasToken returns the source token of the declared alias. Only
// "unidirectional" may follow the alias, so it is the last identifier of
// the definition.
func (s *StreamDef) AliasToken() (lexer.Token, bool) {
	if s.Alias == nil {
		return lexer.Token{}, false
	}

	for i := len(s.Tokens) - 1; i >= 0; i-- {
		if tok := s.Tokens[i]; tok.Type == TokenIdent && tok.Value == *s.Alias {
			return tok, true
		}
	}

	return lexer.Token{}, false
}
