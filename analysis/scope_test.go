package analysis_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yui-knk/norikra"
	"github.com/yui-knk/norikra/analysis"
)

type scopeShape struct {
	Parent   int
	Children []int
	Members  []string
}

func shapeOf(tree *analysis.ScopeTree) []scopeShape {
	shapes := make([]scopeShape, 0, len(tree.Scopes))

	for _, s := range tree.Scopes {
		shape := scopeShape{Parent: s.Parent, Children: s.Children, Members: []string{}}
		for _, m := range s.Members {
			label := m.Stream
			if m.Derived() {
				label = "(derived)"
			}

			if m.Alias != "" {
				label += " as " + m.Alias
			}

			shape.Members = append(shape.Members, label)
		}

		shapes = append(shapes, shape)
	}

	return shapes
}

func TestBuildScopeTree(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		wantScopes  []scopeShape
		wantTargets []string
	}{
		{
			name:        "single stream",
			input:       "select a from TestTable.win:time_batch(10 sec)",
			wantScopes:  []scopeShape{{Parent: -1, Members: []string{"TestTable"}}},
			wantTargets: []string{"TestTable"},
		},
		{
			name:  "comma join keeps declaration order",
			input: "select * from StreamB as b, StreamA as a",
			wantScopes: []scopeShape{
				{Parent: -1, Members: []string{"StreamB as b", "StreamA as a"}},
			},
			wantTargets: []string{"StreamB", "StreamA"},
		},
		{
			name:  "explicit joins follow comma streams",
			input: "select * from A as x, B as y left outer join C as z on x.k = z.k inner join D on D.k = y.k",
			wantScopes: []scopeShape{
				{Parent: -1, Members: []string{"A as x", "B as y", "C as z", "D"}},
			},
			wantTargets: []string{"A", "B", "C", "D"},
		},
		{
			name:  "subqueries in select and where",
			input: "select zoneId, (select name from Zones where zoneId = RfidEvent.zoneId) as name from RfidEvent where exists (select * from Other)",
			wantScopes: []scopeShape{
				{Parent: -1, Children: []int{1, 2}, Members: []string{"RfidEvent"}},
				{Parent: 0, Members: []string{"Zones"}},
				{Parent: 0, Members: []string{"Other"}},
			},
			wantTargets: []string{"RfidEvent", "Zones", "Other"},
		},
		{
			name:  "nested subqueries are pre-order",
			input: "select * from A where x in (select y from B where exists (select * from C)) and z = (select w from D)",
			wantScopes: []scopeShape{
				{Parent: -1, Children: []int{1, 3}, Members: []string{"A"}},
				{Parent: 0, Children: []int{2}, Members: []string{"B"}},
				{Parent: 1, Members: []string{"C"}},
				{Parent: 0, Members: []string{"D"}},
			},
			wantTargets: []string{"A", "B", "C", "D"},
		},
		{
			name:  "subquery in stream filter precedes where",
			input: "select * from A(x = (select y from B)) where z = (select w from C)",
			wantScopes: []scopeShape{
				{Parent: -1, Children: []int{1, 2}, Members: []string{"A"}},
				{Parent: 0, Members: []string{"B"}},
				{Parent: 0, Members: []string{"C"}},
			},
			wantTargets: []string{"A", "B", "C"},
		},
		{
			name:  "subquery in view parameters and join predicate",
			input: "select * from A.win:length((select n from N)) as a join B as b on a.k = (select k from K)",
			wantScopes: []scopeShape{
				{Parent: -1, Children: []int{1, 2}, Members: []string{"A as a", "B as b"}},
				{Parent: 0, Members: []string{"N"}},
				{Parent: 0, Members: []string{"K"}},
			},
			wantTargets: []string{"A", "B", "N", "K"},
		},
		{
			name:  "derived source is a child scope, not a target",
			input: "select t.a from (select a from S) as t",
			wantScopes: []scopeShape{
				{Parent: -1, Children: []int{1}, Members: []string{"(derived) as t"}},
				{Parent: 0, Members: []string{"S"}},
			},
			wantTargets: []string{"S"},
		},
		{
			name:  "repeated stream is one target",
			input: "select * from A where x = (select y from A as a2) and z in (select w from B, A)",
			wantScopes: []scopeShape{
				{Parent: -1, Children: []int{1, 2}, Members: []string{"A"}},
				{Parent: 0, Members: []string{"A as a2"}},
				{Parent: 0, Members: []string{"B", "A"}},
			},
			wantTargets: []string{"A", "B"},
		},
		{
			name:  "subqueries in group by, having and order by",
			input: "select k from S group by (select g from G) having count(*) > (select h from H) order by (select o from O)",
			wantScopes: []scopeShape{
				{Parent: -1, Children: []int{1, 2, 3}, Members: []string{"S"}},
				{Parent: 0, Members: []string{"G"}},
				{Parent: 0, Members: []string{"H"}},
				{Parent: 0, Members: []string{"O"}},
			},
			wantTargets: []string{"S", "G", "H", "O"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree := analysis.BuildScopeTree(norikra.MustParse(tt.input))

			if diff := cmp.Diff(tt.wantScopes, shapeOf(tree)); diff != "" {
				t.Errorf("scopes mismatch (-want +got):\n%s", diff)
			}

			if diff := cmp.Diff(tt.wantTargets, tree.Targets()); diff != "" {
				t.Errorf("Targets() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScopeTree_Ancestors(t *testing.T) {
	t.Parallel()

	tree := analysis.BuildScopeTree(norikra.MustParse(
		"select * from A where exists (select * from B where exists (select * from C))"))

	if diff := cmp.Diff([]int{1, 0}, tree.Ancestors(2)); diff != "" {
		t.Errorf("Ancestors(2) mismatch (-want +got):\n%s", diff)
	}

	if got := tree.Ancestors(0); len(got) != 0 {
		t.Errorf("Ancestors(0) = %v, want none", got)
	}

	if tree.Root().Statement == nil {
		t.Error("Root().Statement is nil")
	}
}

func TestMember_Name(t *testing.T) {
	t.Parallel()

	tree := analysis.BuildScopeTree(norikra.MustParse("select * from A as x, B"))
	members := tree.Root().Members

	if got := members[0].Name(); got != "x" {
		t.Errorf("Name() = %q, want x", got)
	}

	if got := members[1].Name(); got != "B" {
		t.Errorf("Name() = %q, want B", got)
	}
}
