package analysis

import (
	"github.com/yui-knk/norikra"
)

// visitor walks the expressions of a single statement level in textual order.
// Nested statements are handed to stmt and not descended into; chain receives
// every property/call chain together with the stream definition whose filter
// or view parameters contain it (nil outside FROM entries).
type visitor struct {
	chain func(c *norikra.Chain, pin *norikra.StreamDef)
	stmt  func(s *norikra.Statement)
}

func (v *visitor) statement(s *norikra.Statement) {
	if s.Select != nil {
		for _, item := range s.Select.Items {
			v.expr(item.Expr, nil)
		}
	}

	if s.From != nil {
		for _, def := range s.From.Streams {
			v.stream(def)
		}

		for _, join := range s.From.Joins {
			v.stream(join.Stream)
			v.expr(join.On, nil)
		}
	}

	v.expr(s.Where, nil)

	for _, e := range s.GroupBy {
		v.expr(e, nil)
	}

	v.expr(s.Having, nil)

	for _, item := range s.OrderBy {
		v.expr(item.Expr, nil)
	}
}

func (v *visitor) stream(def *norikra.StreamDef) {
	if def.Subquery != nil {
		v.stmt(def.Subquery)
	}

	if def.Filter != nil {
		for _, e := range def.Filter.Exprs {
			v.expr(e, def)
		}
	}

	for _, view := range def.Views {
		for _, e := range view.Args {
			v.expr(e, def)
		}
	}
}

func (v *visitor) expr(e *norikra.Expr, pin *norikra.StreamDef) {
	if e == nil {
		return
	}

	for _, and := range e.Or {
		for _, not := range and.And {
			v.comparison(not.Comparison, pin)
		}
	}
}

func (v *visitor) comparison(c *norikra.Comparison, pin *norikra.StreamDef) {
	v.additive(c.Left, pin)

	t := c.Tail
	if t == nil {
		return
	}

	switch {
	case t.Binary != nil:
		v.additive(t.Binary.Right, pin)
	case t.In != nil:
		if t.In.Subquery != nil {
			v.stmt(t.In.Subquery)
		}

		for _, e := range t.In.Values {
			v.expr(e, pin)
		}
	case t.Between != nil:
		v.additive(t.Between.Low, pin)
		v.additive(t.Between.High, pin)
	case t.Like != nil:
		v.additive(t.Like.Pattern, pin)
	}
}

func (v *visitor) additive(a *norikra.Additive, pin *norikra.StreamDef) {
	v.multiplicative(a.Left, pin)

	for _, op := range a.Right {
		v.multiplicative(op.Operand, pin)
	}
}

func (v *visitor) multiplicative(m *norikra.Multiplicative, pin *norikra.StreamDef) {
	v.primary(m.Left.Primary, pin)

	for _, op := range m.Right {
		v.primary(op.Operand.Primary, pin)
	}
}

func (v *visitor) primary(p *norikra.Primary, pin *norikra.StreamDef) {
	switch {
	case p.Subquery != nil:
		v.stmt(p.Subquery)
	case p.Exists != nil:
		v.stmt(p.Exists)
	case p.Case != nil:
		v.expr(p.Case.Subject, pin)

		for _, w := range p.Case.Whens {
			v.expr(w.Cond, pin)
			v.expr(w.Result, pin)
		}

		v.expr(p.Case.Else, pin)
	case p.Paren != nil:
		v.expr(p.Paren, pin)
	case p.Chain != nil:
		v.chain(p.Chain, pin)

		for _, seg := range p.Chain.Segments {
			if seg.Call == nil {
				continue
			}

			for _, arg := range seg.Call.Args {
				v.expr(arg, pin)
			}
		}
	}
}
