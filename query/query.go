// Package query holds named EPL queries and answers which streams each one
// reads and which fields it reads from them.
package query

import (
	"sync"

	"github.com/yui-knk/norikra"
	"github.com/yui-knk/norikra/analysis"
)

// Query is a named EPL statement with an optional group label.
//
// Targets and fields are computed on first access and cached for the
// lifetime of the Query. Once populated the cache is read-only, so a Query
// may be shared between goroutines.
type Query struct {
	name       string
	group      string
	hasGroup   bool
	expression string

	once   sync.Once
	fields *analysis.FieldMap
	err    error
}

// Option configures a Query.
type Option func(*Query)

// WithGroup sets the group label of the query.
func WithGroup(group string) Option {
	return func(q *Query) {
		q.group = group
		q.hasGroup = true
	}
}

// New creates a query. The expression is not parsed until targets or fields
// are requested.
func New(name, expression string, opts ...Option) *Query {
	q := &Query{
		name:       name,
		expression: expression,
	}

	for _, opt := range opts {
		opt(q)
	}

	return q
}

// Name returns the query name.
func (q *Query) Name() string {
	return q.name
}

// Group returns the group label and whether one was set.
func (q *Query) Group() (string, bool) {
	return q.group, q.hasGroup
}

// Expression returns the statement text as given.
func (q *Query) Expression() string {
	return q.expression
}

// Dup returns a copy with the same name, group and expression and an empty
// cache.
func (q *Query) Dup() *Query {
	d := New(q.name, q.expression)
	d.group = q.group
	d.hasGroup = q.hasGroup

	return d
}

func (q *Query) analyze() (*analysis.FieldMap, error) {
	q.once.Do(func() {
		stmt, err := norikra.Parse(q.expression)
		if err != nil {
			q.err = err

			return
		}

		q.fields = analysis.Attribute(analysis.BuildScopeTree(stmt)).Fields
	})

	return q.fields, q.err
}

// Targets returns the distinct stream names the query reads, in order of
// first appearance. A parse error is returned on every call.
func (q *Query) Targets() ([]string, error) {
	fields, err := q.analyze()
	if err != nil {
		return nil, err
	}

	return fields.Targets(), nil
}

// Fields returns the sorted field paths read from any target. Paths that
// cannot be attributed to one stream are not included.
func (q *Query) Fields() ([]string, error) {
	fields, err := q.analyze()
	if err != nil {
		return nil, err
	}

	return fields.All(), nil
}

// FieldsOf returns the sorted field paths read from stream. The result is
// empty for a stream the query does not read.
func (q *Query) FieldsOf(stream string) ([]string, error) {
	fields, err := q.analyze()
	if err != nil {
		return nil, err
	}

	return fields.Of(stream), nil
}

// AmbiguousFields returns the sorted unqualified field paths of joins that
// cannot be attributed to a single stream.
func (q *Query) AmbiguousFields() ([]string, error) {
	fields, err := q.analyze()
	if err != nil {
		return nil, err
	}

	return fields.Ambiguous(), nil
}
