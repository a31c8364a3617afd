package analysis

import (
	"slices"
	"strings"

	"github.com/yui-knk/norikra"
)

// QualifierKind tells how the leading segment of a property access was
// resolved.
type QualifierKind int

// Qualifier kinds.
const (
	QualifierNone QualifierKind = iota
	QualifierStream
	QualifierAlias
)

func (k QualifierKind) String() string {
	switch k {
	case QualifierStream:
		return "stream"
	case QualifierAlias:
		return "alias"
	default:
		return "none"
	}
}

// PropertyAccess is a property chain found in an expression, classified by
// the stream that owns it.
type PropertyAccess struct {
	Chain *norikra.Chain

	// Scope is the index of the scope whose clauses contain the chain.
	Scope int

	// Qualifier is the leading segment when it names a visible stream or
	// alias, empty otherwise.
	Qualifier     string
	QualifierKind QualifierKind

	// Path are the property segments after the qualifier, up to the first
	// method call. Empty when the chain references a whole event.
	Path []string

	// Owner is the stream the access belongs to. Empty when Ambiguous or
	// when the owner is a derived source.
	Owner     string
	Ambiguous bool
	Derived   bool

	// Member is the FROM entry the access resolves to, nil when Ambiguous.
	Member *Member

	// Pinned is set for accesses inside a stream's filter or view parameters.
	Pinned bool
}

// PathString renders the path with "." separators, e.g. "params.$$path.$1".
func (a *PropertyAccess) PathString() string {
	return strings.Join(a.Path, ".")
}

// EventReference reports whether the access names a whole event rather than
// one of its fields.
func (a *PropertyAccess) EventReference() bool {
	return len(a.Path) == 0
}

// Attribution is the result of classifying every property access of a
// statement.
type Attribution struct {
	// Accesses in scope order, then textual order within each scope.
	Accesses []*PropertyAccess
	Fields   *FieldMap
}

// Attribute classifies the property accesses of every scope of the tree.
func Attribute(tree *ScopeTree) *Attribution {
	a := &Attribution{Fields: newFieldMap(tree.Targets())}

	for _, scope := range tree.Scopes {
		v := &visitor{
			chain: func(c *norikra.Chain, pin *norikra.StreamDef) {
				acc := tree.classify(scope.ID, c, pin)
				if acc == nil {
					return
				}

				a.Accesses = append(a.Accesses, acc)
				a.Fields.add(acc)
			},
			stmt: func(*norikra.Statement) {},
		}
		v.statement(scope.Statement)
	}

	return a
}

// classify returns nil for chains that are not property accesses: plain
// function calls and static calls on library classes.
func (t *ScopeTree) classify(id int, c *norikra.Chain, pin *norikra.StreamDef) *PropertyAccess {
	n := c.PropertyLen()
	if n == 0 {
		return nil
	}

	names := c.Names()

	if m, kind, ok := t.resolve(id, names[0]); ok {
		return &PropertyAccess{
			Chain:         c,
			Scope:         id,
			Qualifier:     names[0],
			QualifierKind: kind,
			Path:          names[1:n],
			Owner:         m.Stream,
			Derived:       m.Derived(),
			Member:        m,
			Pinned:        pin != nil,
		}
	}

	if n == 1 && n < len(names) && IsKnownLibraryClass(names[0]) {
		return nil
	}

	acc := &PropertyAccess{
		Chain:  c,
		Scope:  id,
		Path:   names[:n],
		Pinned: pin != nil,
	}

	members := t.Scopes[id].Members

	var owner *Member

	switch {
	case pin != nil:
		owner = t.memberFor(id, pin)
	case len(members) == 1:
		owner = members[0]
	}

	if owner == nil {
		acc.Ambiguous = true

		return acc
	}

	acc.Owner = owner.Stream
	acc.Derived = owner.Derived()
	acc.Member = owner

	return acc
}

// FieldMap holds the field paths read from each target stream plus the paths
// that could not be attributed to a single stream.
type FieldMap struct {
	targets   []string
	fields    map[string]map[string]struct{}
	ambiguous map[string]struct{}
}

func newFieldMap(targets []string) *FieldMap {
	m := &FieldMap{
		targets:   targets,
		fields:    make(map[string]map[string]struct{}, len(targets)),
		ambiguous: make(map[string]struct{}),
	}

	for _, t := range targets {
		m.fields[t] = make(map[string]struct{})
	}

	return m
}

func (m *FieldMap) add(a *PropertyAccess) {
	if a.EventReference() {
		return
	}

	path := a.PathString()

	switch {
	case a.Ambiguous:
		m.ambiguous[path] = struct{}{}
	case a.Derived:
		// Fields of a derived source are already attributed inside its scope.
	default:
		m.fields[a.Owner][path] = struct{}{}
	}
}

// Targets returns the target streams in first-discovery order.
func (m *FieldMap) Targets() []string {
	return slices.Clone(m.targets)
}

// All returns the sorted distinct field paths of all targets. Ambiguous
// paths are not included.
func (m *FieldMap) All() []string {
	all := make(map[string]struct{})

	for _, set := range m.fields {
		for p := range set {
			all[p] = struct{}{}
		}
	}

	return sortedKeys(all)
}

// Of returns the sorted field paths of stream, empty for an unknown stream.
func (m *FieldMap) Of(stream string) []string {
	return sortedKeys(m.fields[stream])
}

// Ambiguous returns the sorted paths that could not be attributed.
func (m *FieldMap) Ambiguous() []string {
	return sortedKeys(m.ambiguous)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
