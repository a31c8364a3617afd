package norikra_test

import (
	"testing"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/yui-knk/norikra"
)

func ptr[T any](v T) *T {
	return &v
}

var astOpts = cmp.Options{
	cmpopts.IgnoreTypes(lexer.Position{}, []lexer.Token{}),
	cmpopts.EquateEmpty(),
}

func primaryExpr(p *norikra.Primary) *norikra.Additive {
	return &norikra.Additive{Left: &norikra.Multiplicative{Left: &norikra.Unary{Primary: p}}}
}

func chainOf(names ...string) *norikra.Chain {
	c := &norikra.Chain{}
	for _, n := range names {
		c.Segments = append(c.Segments, &norikra.Segment{Name: n})
	}

	return c
}

func exprOf(left *norikra.Additive, tail *norikra.CompareTail) *norikra.Expr {
	return &norikra.Expr{Or: []*norikra.AndExpr{{
		And: []*norikra.NotExpr{{Comparison: &norikra.Comparison{Left: left, Tail: tail}}},
	}}}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected *norikra.Statement
	}{
		{
			name:  "projection with filtered, aliased stream",
			input: "select a from S(x > 1) as s",
			expected: &norikra.Statement{
				Select: &norikra.SelectClause{
					Items: []*norikra.SelectItem{{Expr: exprOf(primaryExpr(&norikra.Primary{Chain: chainOf("a")}), nil)}},
				},
				From: &norikra.FromClause{
					Streams: []*norikra.StreamDef{{
						Name: "S",
						Filter: &norikra.StreamFilter{Exprs: []*norikra.Expr{
							exprOf(
								primaryExpr(&norikra.Primary{Chain: chainOf("x")}),
								&norikra.CompareTail{Binary: &norikra.BinaryTail{
									Op:    ">",
									Right: primaryExpr(&norikra.Primary{Literal: &norikra.Literal{Number: ptr("1")}}),
								}},
							),
						}},
						Alias: ptr("s"),
					}},
				},
			},
		},
		{
			name:  "star with view and container path",
			input: "SELECT * FROM S.win:length(10) WHERE opts.$0 IS NULL",
			expected: &norikra.Statement{
				Select: &norikra.SelectClause{Star: true},
				From: &norikra.FromClause{
					Streams: []*norikra.StreamDef{{
						Name: "S",
						Views: []*norikra.View{{
							Namespace: "win",
							Name:      "length",
							Args: []*norikra.Expr{
								exprOf(primaryExpr(&norikra.Primary{Literal: &norikra.Literal{Number: ptr("10")}}), nil),
							},
						}},
					}},
				},
				Where: exprOf(
					primaryExpr(&norikra.Primary{Chain: chainOf("opts", "$0")}),
					&norikra.CompareTail{Is: &norikra.IsTail{}},
				),
			},
		},
		{
			name:  "join kind is normalized",
			input: "select a from A as x LEFT OUTER JOIN B as y on x.k = y.k",
			expected: &norikra.Statement{
				Select: &norikra.SelectClause{
					Items: []*norikra.SelectItem{{Expr: exprOf(primaryExpr(&norikra.Primary{Chain: chainOf("a")}), nil)}},
				},
				From: &norikra.FromClause{
					Streams: []*norikra.StreamDef{{Name: "A", Alias: ptr("x")}},
					Joins: []*norikra.Join{{
						Kind:   "left",
						Stream: &norikra.StreamDef{Name: "B", Alias: ptr("y")},
						On: exprOf(
							primaryExpr(&norikra.Primary{Chain: chainOf("x", "k")}),
							&norikra.CompareTail{Binary: &norikra.BinaryTail{
								Op:    "=",
								Right: primaryExpr(&norikra.Primary{Chain: chainOf("y", "k")}),
							}},
						),
					}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := norikra.Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}

			if diff := cmp.Diff(tt.expected, got, astOpts); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Chains(t *testing.T) {
	t.Parallel()

	stmt, err := norikra.Parse("select opts.num.$0.length(), count(distinct x), Math.abs(-1) from S")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	items := stmt.Select.Items
	if len(items) != 3 {
		t.Fatalf("got %d select items, want 3", len(items))
	}

	tests := []struct {
		name        string
		item        int
		names       []string
		propertyLen int
	}{
		{"method on container element", 0, []string{"opts", "num", "$0", "length"}, 3},
		{"aggregate", 1, []string{"count"}, 0},
		{"static call", 2, []string{"Math", "abs"}, 1},
	}

	for _, tt := range tests {
		chain := items[tt.item].Expr.Or[0].And[0].Comparison.Left.Left.Left.Primary.Chain
		if chain == nil {
			t.Fatalf("%s: item %d is not a chain", tt.name, tt.item)
		}

		if diff := cmp.Diff(tt.names, chain.Names()); diff != "" {
			t.Errorf("%s: Names() mismatch (-want +got):\n%s", tt.name, diff)
		}

		if got := chain.PropertyLen(); got != tt.propertyLen {
			t.Errorf("%s: PropertyLen() = %d, want %d", tt.name, got, tt.propertyLen)
		}
	}

	count := items[1].Expr.Or[0].And[0].Comparison.Left.Left.Left.Primary.Chain.Segments[0].Call
	if !count.Distinct {
		t.Error("count(distinct x): Distinct = false, want true")
	}
}

func TestParse_Subqueries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		check func(t *testing.T, s *norikra.Statement)
	}{
		{
			name:  "scalar subquery in where",
			input: "select * from RfidEvent as RFID where 'Dock 1' = (select name from Zones where zoneId = RFID.zoneId)",
			check: func(t *testing.T, s *norikra.Statement) {
				t.Helper()

				right := s.Where.Or[0].And[0].Comparison.Tail.Binary.Right
				if right.Left.Left.Primary.Subquery == nil {
					t.Error("expected subquery on the right of =")
				}
			},
		},
		{
			name:  "parenthesized expression is not a subquery",
			input: "select * from S where (a + 1) > 2",
			check: func(t *testing.T, s *norikra.Statement) {
				t.Helper()

				p := s.Where.Or[0].And[0].Comparison.Left.Left.Left.Primary
				if p.Paren == nil || p.Subquery != nil {
					t.Errorf("expected paren expression, got %+v", p)
				}
			},
		},
		{
			name:  "derived stream",
			input: "select t.a from (select a from S) as t",
			check: func(t *testing.T, s *norikra.Statement) {
				t.Helper()

				def := s.From.Streams[0]
				if def.Subquery == nil || def.Name != "" || def.AliasOrName() != "t" {
					t.Errorf("expected derived stream aliased t, got %+v", def)
				}
			},
		},
		{
			name:  "in subquery",
			input: "select * from S where id not in (select id from T)",
			check: func(t *testing.T, s *norikra.Statement) {
				t.Helper()

				in := s.Where.Or[0].And[0].Comparison.Tail.In
				if in == nil || !in.Not || in.Subquery == nil {
					t.Errorf("expected NOT IN subquery, got %+v", in)
				}
			},
		},
		{
			name:  "exists",
			input: "select * from S where not exists (select * from T)",
			check: func(t *testing.T, s *norikra.Statement) {
				t.Helper()

				not := s.Where.Or[0].And[0]
				if !not.Not || not.Comparison.Left.Left.Left.Primary.Exists == nil {
					t.Errorf("expected NOT EXISTS, got %+v", not)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stmt, err := norikra.Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}

			tt.check(t, stmt)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"select only", "select"},
		{"missing from", "select a"},
		{"missing stream", "select a from"},
		{"dangling where", "select a from S where"},
		{"dangling operator", "SELECT a FROM S WHERE x >"},
		{"unclosed filter", "select a from S(x > 1"},
		{"trailing tokens", "select a from S as s t"},
		{"lexer error", "select @ from S"},
		{"view without namespace", "select a from S.length(10)"},
		{"outer without side", "select a from A outer join B on a = b"},
		{"keyword stream name", "select a from (select a from Inner) as d"},
		{"keyword alias", "select a from S as left"},
		{"bracket index", "select b.c[0] from S"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stmt, err := norikra.Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) expected error, got %s", tt.input, norikra.Format(stmt))
			}

			if stmt != nil {
				t.Errorf("Parse(%q) returned a statement alongside error", tt.input)
			}
		})
	}
}

func TestMustParse(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("MustParse() did not panic on invalid input")
		}
	}()

	_ = norikra.MustParse("select from")
}

func TestGrammar(t *testing.T) {
	t.Parallel()

	if norikra.Grammar() == "" {
		t.Error("Grammar() returned empty EBNF")
	}
}

func TestStreamDef_AliasToken(t *testing.T) {
	t.Parallel()

	stmt := norikra.MustParse("select * from StreamA(x > 1).win:length(a) as a unidirectional, StreamB")

	tok, ok := stmt.From.Streams[0].AliasToken()
	if !ok {
		t.Fatal("AliasToken() found no alias")
	}

	if tok.Value != "a" || tok.Pos.Line != 1 || tok.Pos.Column != 47 {
		t.Errorf("AliasToken() = %q at %s, want \"a\" at 1:47", tok.Value, tok.Pos)
	}

	if _, ok := stmt.From.Streams[1].AliasToken(); ok {
		t.Error("AliasToken() found an alias on a stream without one")
	}
}
