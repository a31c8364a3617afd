package analysis

import (
	"github.com/yui-knk/norikra"
)

// ScopeTree is the tree of FROM-clause levels of a statement. Scopes are
// stored flat in pre-order: index 0 is the outermost statement and every
// child appears after its parent, in the order its subquery occurs in the
// text.
type ScopeTree struct {
	Scopes []*Scope
}

// Scope is one FROM-clause level.
type Scope struct {
	ID int

	// Parent is the index of the enclosing scope, -1 for the root.
	Parent int

	// Children are the indexes of the scopes of subqueries appearing
	// anywhere in this statement's clauses, including derived FROM entries.
	Children []int

	// Members are the FROM entries in declaration order: comma-separated
	// streams first, then joined streams.
	Members []*Member

	Statement *norikra.Statement
}

// Member is a stream declared in a scope.
type Member struct {
	// Stream is the event type name. Empty for a derived source, i.e. a
	// parenthesized subquery in FROM.
	Stream string

	// Alias is the declared alias, empty when none is given.
	Alias string

	Def *norikra.StreamDef
}

// Derived reports whether the member is a subquery rather than an event type.
func (m *Member) Derived() bool {
	return m.Def.Subquery != nil
}

// Name returns the name the member is referenced by: its alias when
// declared, otherwise its stream name.
func (m *Member) Name() string {
	if m.Alias != "" {
		return m.Alias
	}

	return m.Stream
}

// BuildScopeTree builds the scope tree of a statement.
func BuildScopeTree(stmt *norikra.Statement) *ScopeTree {
	t := &ScopeTree{}
	t.build(stmt, -1)

	return t
}

func (t *ScopeTree) build(stmt *norikra.Statement, parent int) int {
	scope := &Scope{
		ID:        len(t.Scopes),
		Parent:    parent,
		Statement: stmt,
	}
	t.Scopes = append(t.Scopes, scope)

	if stmt.From != nil {
		for _, def := range stmt.From.Streams {
			scope.Members = append(scope.Members, newMember(def))
		}

		for _, join := range stmt.From.Joins {
			scope.Members = append(scope.Members, newMember(join.Stream))
		}
	}

	v := &visitor{
		chain: func(*norikra.Chain, *norikra.StreamDef) {},
		stmt: func(s *norikra.Statement) {
			scope.Children = append(scope.Children, t.build(s, scope.ID))
		},
	}
	v.statement(stmt)

	return scope.ID
}

func newMember(def *norikra.StreamDef) *Member {
	m := &Member{Def: def}
	if def.Subquery == nil {
		m.Stream = def.Name
	}

	if def.Alias != nil {
		m.Alias = *def.Alias
	}

	return m
}

// Root returns the outermost scope.
func (t *ScopeTree) Root() *Scope {
	return t.Scopes[0]
}

// Targets returns the distinct stream names declared anywhere in the tree,
// in first-discovery order: a scope's members before its children's.
func (t *ScopeTree) Targets() []string {
	seen := make(map[string]bool)
	targets := []string{}

	for _, scope := range t.Scopes {
		for _, m := range scope.Members {
			if m.Stream == "" || seen[m.Stream] {
				continue
			}

			seen[m.Stream] = true
			targets = append(targets, m.Stream)
		}
	}

	return targets
}

// Ancestors returns the indexes of the enclosing scopes of id, innermost first.
func (t *ScopeTree) Ancestors(id int) []int {
	var out []int
	for p := t.Scopes[id].Parent; p >= 0; p = t.Scopes[p].Parent {
		out = append(out, p)
	}

	return out
}

// resolve finds the member a qualifier names, looking in scope id and then
// its ancestors. Within one scope aliases take precedence over stream names.
func (t *ScopeTree) resolve(id int, name string) (*Member, QualifierKind, bool) {
	for ; id >= 0; id = t.Scopes[id].Parent {
		members := t.Scopes[id].Members

		for _, m := range members {
			if m.Alias != "" && m.Alias == name {
				return m, QualifierAlias, true
			}
		}

		for _, m := range members {
			if m.Stream != "" && m.Stream == name {
				return m, QualifierStream, true
			}
		}
	}

	return nil, QualifierNone, false
}

// memberFor returns the member of scope id declared by def.
func (t *ScopeTree) memberFor(id int, def *norikra.StreamDef) *Member {
	for _, m := range t.Scopes[id].Members {
		if m.Def == def {
			return m
		}
	}

	return nil
}
