package analysis_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yui-knk/norikra"
	"github.com/yui-knk/norikra/analysis"
)

func attribute(t *testing.T, input string) *analysis.Attribution {
	t.Helper()

	stmt, err := norikra.Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", input, err)
	}

	return analysis.Attribute(analysis.BuildScopeTree(stmt))
}

func TestAttribute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		input         string
		wantTargets   []string
		wantAll       []string
		wantByStream  map[string][]string
		wantAmbiguous []string
	}{
		{
			name:        "single stream",
			input:       `SELECT count(*) AS cnt FROM TestTable.win:time_batch(10 sec) WHERE path="/" AND size > 100 and param.length() > 0`,
			wantTargets: []string{"TestTable"},
			wantAll:     []string{"param", "path", "size"},
			wantByStream: map[string][]string{
				"TestTable": {"param", "path", "size"},
			},
			wantAmbiguous: []string{},
		},
		{
			name:        "static library call with alias",
			input:       `SELECT count(*) AS cnt FROM TestTable.win:time_batch(10 sec) AS source WHERE source.path="/" AND Math.abs(-1 * source.size) > 3`,
			wantTargets: []string{"TestTable"},
			wantAll:     []string{"path", "size"},
			wantByStream: map[string][]string{
				"TestTable": {"path", "size"},
			},
			wantAmbiguous: []string{},
		},
		{
			name:        "join",
			input:       `select product, max(sta.size) as maxsize from StreamA.win:keepall() as sta, StreamB(size > 10).win:time(20 sec) as stb where sta.data.substr(0,8) = stb.header AND Math.abs(sta.size) > 3`,
			wantTargets: []string{"StreamA", "StreamB"},
			wantAll:     []string{"data", "header", "size"},
			wantByStream: map[string][]string{
				"StreamA": {"data", "size"},
				"StreamB": {"header", "size"},
			},
			wantAmbiguous: []string{"product"},
		},
		{
			name:        "correlated subquery in where",
			input:       `select * from RfidEvent as RFID where "Dock 1" = (select name from Zones.std:unique(zoneName) where zoneId = RFID.zoneId)`,
			wantTargets: []string{"RfidEvent", "Zones"},
			wantAll:     []string{"name", "zoneId", "zoneName"},
			wantByStream: map[string][]string{
				"RfidEvent": {"zoneId"},
				"Zones":     {"name", "zoneId", "zoneName"},
			},
			wantAmbiguous: []string{},
		},
		{
			name:        "correlated subquery in select",
			input:       `select zoneId, (select name from Zones.std:unique(zoneName) where zoneId = RfidEvent.zoneId) as name from RfidEvent`,
			wantTargets: []string{"RfidEvent", "Zones"},
			wantAll:     []string{"name", "zoneId", "zoneName"},
			wantByStream: map[string][]string{
				"RfidEvent": {"zoneId"},
				"Zones":     {"name", "zoneId", "zoneName"},
			},
			wantAmbiguous: []string{},
		},
		{
			name:        "subquery inside stream filter",
			input:       `select * from BarData(ticker='MSFT', sub(closePrice, (select movAgv from SMA20Stream(ticker='MSFT').std:lastevent())) > 0)`,
			wantTargets: []string{"BarData", "SMA20Stream"},
			wantAll:     []string{"closePrice", "movAgv", "ticker"},
			wantByStream: map[string][]string{
				"BarData":     {"closePrice", "ticker"},
				"SMA20Stream": {"movAgv", "ticker"},
			},
			wantAmbiguous: []string{},
		},
		{
			name:        "container fields",
			input:       `SELECT count(*) AS cnt FROM TestTable.win:time_batch(10 sec) WHERE params.path="/" AND size > 100 and opts.$0 > 0`,
			wantTargets: []string{"TestTable"},
			wantAll:     []string{"opts.$0", "params.path", "size"},
			wantByStream: map[string][]string{
				"TestTable": {"opts.$0", "params.path", "size"},
			},
			wantAmbiguous: []string{},
		},
		{
			name:        "deep container fields and method calls",
			input:       `SELECT count(*) AS cnt FROM TestTable.win:time_batch(10 sec) WHERE params.$$path.$1="/" AND size.$0.bytes > 100 and opts.num.$0.length() > 0`,
			wantTargets: []string{"TestTable"},
			wantAll:     []string{"opts.num.$0", "params.$$path.$1", "size.$0.bytes"},
			wantByStream: map[string][]string{
				"TestTable": {"opts.num.$0", "params.$$path.$1", "size.$0.bytes"},
			},
			wantAmbiguous: []string{},
		},
		{
			name:        "derived source fields belong to its inner stream",
			input:       `select t.a, b from (select a, b from S) as t`,
			wantTargets: []string{"S"},
			wantAll:     []string{"a", "b"},
			wantByStream: map[string][]string{
				"S": {"a", "b"},
			},
			wantAmbiguous: []string{},
		},
		{
			name:        "correlation across two levels",
			input:       `select * from A as x where exists (select * from B where B.k = x.k and exists (select * from C where C.v = x.v))`,
			wantTargets: []string{"A", "B", "C"},
			wantAll:     []string{"k", "v"},
			wantByStream: map[string][]string{
				"A": {"k", "v"},
				"B": {"k"},
				"C": {"v"},
			},
			wantAmbiguous: []string{},
		},
		{
			name:        "explicit join with unqualified field",
			input:       `select a from S1 as s left outer join S2 as t on s.id = t.id`,
			wantTargets: []string{"S1", "S2"},
			wantAll:     []string{"id"},
			wantByStream: map[string][]string{
				"S1": {"id"},
				"S2": {"id"},
			},
			wantAmbiguous: []string{"a"},
		},
		{
			name:        "stream name qualifier on aliased stream",
			input:       `select StreamA.x, b.y from StreamA as a, StreamB as b`,
			wantTargets: []string{"StreamA", "StreamB"},
			wantAll:     []string{"x", "y"},
			wantByStream: map[string][]string{
				"StreamA": {"x"},
				"StreamB": {"y"},
			},
			wantAmbiguous: []string{},
		},
		{
			name:        "whole event reference is not a field",
			input:       `select s, count(*) from S as s`,
			wantTargets: []string{"S"},
			wantAll:     []string{},
			wantByStream: map[string][]string{
				"S": {},
			},
			wantAmbiguous: []string{},
		},
		{
			name:        "fields in case, in, between and like",
			input:       `select case when x > 1 then y else z end from S where w in (1, u) and v between lo and hi and name like pat`,
			wantTargets: []string{"S"},
			wantAll:     []string{"hi", "lo", "name", "pat", "u", "v", "w", "x", "y", "z"},
			wantByStream: map[string][]string{
				"S": {"hi", "lo", "name", "pat", "u", "v", "w", "x", "y", "z"},
			},
			wantAmbiguous: []string{},
		},
		{
			name:        "group by, having and order by",
			input:       `select k, count(*) from S group by k having sum(v) > 0 order by k desc`,
			wantTargets: []string{"S"},
			wantAll:     []string{"k", "v"},
			wantByStream: map[string][]string{
				"S": {"k", "v"},
			},
			wantAmbiguous: []string{},
		},
		{
			name:        "unknown qualifier is part of the path",
			input:       `select req.param.length() from S`,
			wantTargets: []string{"S"},
			wantAll:     []string{"req.param"},
			wantByStream: map[string][]string{
				"S": {"req.param"},
			},
			wantAmbiguous: []string{},
		},
		{
			name:        "library class without call is a field",
			input:       `select Date, String.valueOf(n) from S`,
			wantTargets: []string{"S"},
			wantAll:     []string{"Date", "n"},
			wantByStream: map[string][]string{
				"S": {"Date", "n"},
			},
			wantAmbiguous: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fields := attribute(t, tt.input).Fields

			if diff := cmp.Diff(tt.wantTargets, fields.Targets()); diff != "" {
				t.Errorf("Targets() mismatch (-want +got):\n%s", diff)
			}

			if diff := cmp.Diff(tt.wantAll, fields.All()); diff != "" {
				t.Errorf("All() mismatch (-want +got):\n%s", diff)
			}

			for stream, want := range tt.wantByStream {
				if diff := cmp.Diff(want, fields.Of(stream)); diff != "" {
					t.Errorf("Of(%q) mismatch (-want +got):\n%s", stream, diff)
				}
			}

			if diff := cmp.Diff(tt.wantAmbiguous, fields.Ambiguous()); diff != "" {
				t.Errorf("Ambiguous() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFieldMap_UnknownStream(t *testing.T) {
	t.Parallel()

	fields := attribute(t, `select a from S`).Fields

	got := fields.Of("NoSuchStream")
	if got == nil || len(got) != 0 {
		t.Errorf("Of(unknown) = %#v, want empty non-nil slice", got)
	}
}

func TestFieldMap_SingleStreamNeverAmbiguous(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`select a, b.c, d.$0.e from S`,
		`select * from S(x > 1).win:length(y) where z = 1`,
		`select a from S as s where exists (select b from T where c = s.d)`,
	}

	for _, input := range inputs {
		if got := attribute(t, input).Fields.Ambiguous(); len(got) != 0 {
			t.Errorf("Ambiguous() for %q = %v, want none", input, got)
		}
	}
}

func TestAttribute_Accesses(t *testing.T) {
	t.Parallel()

	attr := attribute(t, `select sta.data.substr(0, 8), StreamB.size, product from StreamA as sta, StreamB(size > 10)`)

	type access struct {
		Qualifier string
		Kind      analysis.QualifierKind
		Path      string
		Owner     string
		Ambiguous bool
		Pinned    bool
		Member    string
	}

	var got []access
	for _, a := range attr.Accesses {
		var member string
		if a.Member != nil {
			member = a.Member.Name()
		}

		got = append(got, access{a.Qualifier, a.QualifierKind, a.PathString(), a.Owner, a.Ambiguous, a.Pinned, member})
	}

	want := []access{
		{Qualifier: "sta", Kind: analysis.QualifierAlias, Path: "data", Owner: "StreamA", Member: "sta"},
		{Qualifier: "StreamB", Kind: analysis.QualifierStream, Path: "size", Owner: "StreamB", Member: "StreamB"},
		{Path: "product", Ambiguous: true},
		{Path: "size", Owner: "StreamB", Pinned: true, Member: "StreamB"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Accesses mismatch (-want +got):\n%s", diff)
	}
}

func TestPathRenderingMatchesSource(t *testing.T) {
	t.Parallel()

	input := `select params.$$path.$1, size.$0.bytes, opts.num.$0.length() from S`

	for _, p := range attribute(t, input).Fields.All() {
		if !strings.Contains(input, p) {
			t.Errorf("path %q does not occur in %q", p, input)
		}
	}
}
