package norikra

import (
	"strconv"
	"strings"
)

// Format renders a statement back into canonical EPL text: lower-case
// keywords, single spaces around binary operators, ", " between list items
// and double-quoted strings. Parentheses appear exactly where the statement
// has a parenthesized node.
func Format(s *Statement) string {
	var b strings.Builder

	f := &formatter{b: &b}
	f.formatStatement(s)

	return b.String()
}

// FormatExpr renders a single expression.
func FormatExpr(e *Expr) string {
	var b strings.Builder

	f := &formatter{b: &b}
	f.formatExpr(e)

	return b.String()
}

// FormatChain renders a property or call chain, e.g. "opts.num.$0.length()".
func FormatChain(c *Chain) string {
	var b strings.Builder

	f := &formatter{b: &b}
	f.formatChain(c)

	return b.String()
}

type formatter struct {
	b *strings.Builder
}

func (f *formatter) write(s string) {
	f.b.WriteString(s)
}

func (f *formatter) formatStatement(s *Statement) {
	if s.Insert != nil {
		f.write("insert into " + *s.Insert + " ")
	}

	f.write("select ")
	f.formatSelect(s.Select)

	f.write(" from ")
	f.formatFrom(s.From)

	if s.Where != nil {
		f.write(" where ")
		f.formatExpr(s.Where)
	}

	if len(s.GroupBy) > 0 {
		f.write(" group by ")
		f.formatExprList(s.GroupBy)
	}

	if s.Having != nil {
		f.write(" having ")
		f.formatExpr(s.Having)
	}

	if len(s.OrderBy) > 0 {
		f.write(" order by ")

		for i, item := range s.OrderBy {
			if i > 0 {
				f.write(", ")
			}

			f.formatExpr(item.Expr)

			if item.Direction != nil {
				f.write(" " + strings.ToLower(*item.Direction))
			}
		}
	}

	if s.Limit != nil {
		f.write(" limit " + *s.Limit)

		if s.Offset != nil {
			f.write(" offset " + *s.Offset)
		}
	}
}

func (f *formatter) formatSelect(sel *SelectClause) {
	if sel.Distinct {
		f.write("distinct ")
	}

	if sel.Star {
		f.write("*")

		return
	}

	for i, item := range sel.Items {
		if i > 0 {
			f.write(", ")
		}

		f.formatExpr(item.Expr)

		if item.Alias != nil {
			f.write(" as " + *item.Alias)
		}
	}
}

func (f *formatter) formatFrom(from *FromClause) {
	for i, stream := range from.Streams {
		if i > 0 {
			f.write(", ")
		}

		f.formatStream(stream)
	}

	for _, join := range from.Joins {
		switch kind := strings.ToLower(join.Kind); kind {
		case "":
			f.write(" join ")
		case "inner":
			f.write(" inner join ")
		default:
			f.write(" " + kind + " outer join ")
		}

		f.formatStream(join.Stream)
		f.write(" on ")
		f.formatExpr(join.On)
	}
}

func (f *formatter) formatStream(s *StreamDef) {
	if s.Subquery != nil {
		f.write("(")
		f.formatStatement(s.Subquery)
		f.write(")")
	} else {
		f.write(s.Name)

		if s.Filter != nil {
			f.write("(")
			f.formatExprList(s.Filter.Exprs)
			f.write(")")
		}
	}

	for _, v := range s.Views {
		f.write("." + v.Namespace + ":" + v.Name + "(")
		f.formatExprList(v.Args)
		f.write(")")
	}

	if s.Alias != nil {
		f.write(" as " + *s.Alias)
	}

	if s.Unidirectional {
		f.write(" unidirectional")
	}
}

func (f *formatter) formatExprList(exprs []*Expr) {
	for i, e := range exprs {
		if i > 0 {
			f.write(", ")
		}

		f.formatExpr(e)
	}
}

func (f *formatter) formatExpr(e *Expr) {
	for i, and := range e.Or {
		if i > 0 {
			f.write(" or ")
		}

		for j, not := range and.And {
			if j > 0 {
				f.write(" and ")
			}

			if not.Not {
				f.write("not ")
			}

			f.formatComparison(not.Comparison)
		}
	}
}

func (f *formatter) formatComparison(c *Comparison) {
	f.formatAdditive(c.Left)

	if c.Tail == nil {
		return
	}

	t := c.Tail

	switch {
	case t.Binary != nil:
		f.write(" " + t.Binary.Op + " ")
		f.formatAdditive(t.Binary.Right)

	case t.Is != nil:
		if t.Is.Not {
			f.write(" is not null")
		} else {
			f.write(" is null")
		}

	case t.In != nil:
		f.write(f.negated(t.In.Not, "in") + " (")

		if t.In.Subquery != nil {
			f.formatStatement(t.In.Subquery)
		} else {
			f.formatExprList(t.In.Values)
		}

		f.write(")")

	case t.Between != nil:
		f.write(f.negated(t.Between.Not, "between") + " ")
		f.formatAdditive(t.Between.Low)
		f.write(" and ")
		f.formatAdditive(t.Between.High)

	case t.Like != nil:
		f.write(f.negated(t.Like.Not, "like") + " ")
		f.formatAdditive(t.Like.Pattern)

		if t.Like.Escape != nil {
			f.write(" escape " + strconv.Quote(*t.Like.Escape))
		}
	}
}

func (f *formatter) negated(not bool, keyword string) string {
	if not {
		return " not " + keyword
	}

	return " " + keyword
}

func (f *formatter) formatAdditive(a *Additive) {
	f.formatMultiplicative(a.Left)

	for _, op := range a.Right {
		f.write(" " + op.Op + " ")
		f.formatMultiplicative(op.Operand)
	}
}

func (f *formatter) formatMultiplicative(m *Multiplicative) {
	f.formatUnary(m.Left)

	for _, op := range m.Right {
		f.write(" " + op.Op + " ")
		f.formatUnary(op.Operand)
	}
}

func (f *formatter) formatUnary(u *Unary) {
	if u.Sign != nil {
		f.write(*u.Sign)
	}

	f.formatPrimary(u.Primary)
}

func (f *formatter) formatPrimary(p *Primary) {
	switch {
	case p.Subquery != nil:
		f.write("(")
		f.formatStatement(p.Subquery)
		f.write(")")

	case p.Exists != nil:
		f.write("exists (")
		f.formatStatement(p.Exists)
		f.write(")")

	case p.Case != nil:
		f.formatCase(p.Case)

	case p.Paren != nil:
		f.write("(")
		f.formatExpr(p.Paren)
		f.write(")")

	case p.Time != nil:
		for i, part := range p.Time.Parts {
			if i > 0 {
				f.write(" ")
			}

			f.write(part.Value + " " + part.Unit)
		}

	case p.Literal != nil:
		f.write(f.formatLiteral(p.Literal))

	case p.Chain != nil:
		f.formatChain(p.Chain)
	}
}

func (f *formatter) formatCase(c *CaseExpr) {
	f.write("case")

	if c.Subject != nil {
		f.write(" ")
		f.formatExpr(c.Subject)
	}

	for _, w := range c.Whens {
		f.write(" when ")
		f.formatExpr(w.Cond)
		f.write(" then ")
		f.formatExpr(w.Result)
	}

	if c.Else != nil {
		f.write(" else ")
		f.formatExpr(c.Else)
	}

	f.write(" end")
}

func (f *formatter) formatLiteral(l *Literal) string {
	switch {
	case l.Number != nil:
		return *l.Number
	case l.String != nil:
		return strconv.Quote(*l.String)
	case l.Bool != nil:
		return strings.ToLower(*l.Bool)
	case l.Null:
		return "null"
	}

	return ""
}

func (f *formatter) formatChain(c *Chain) {
	for i, seg := range c.Segments {
		if i > 0 {
			f.write(".")
		}

		f.write(seg.Name)

		if seg.Call == nil {
			continue
		}

		f.write("(")

		if seg.Call.Distinct {
			f.write("distinct ")
		}

		if seg.Call.Star {
			f.write("*")
		} else {
			f.formatExprList(seg.Call.Args)
		}

		f.write(")")
	}
}
