package analysis

import (
	"strings"

	"github.com/yui-knk/norikra"
)

// FieldSeparator joins the segments of a flattened container path.
const FieldSeparator = "$"

// RewriteEventTypeName renames event types throughout stmt. Stream
// declarations at every nesting depth whose name is a key of mapping are
// renamed, as are property accesses qualified by such a stream name.
// Alias-qualified accesses are left alone. Unmapped names are untouched.
// The statement is modified in place and returned.
func RewriteEventTypeName(stmt *norikra.Statement, mapping map[string]string) *norikra.Statement {
	tree := BuildScopeTree(stmt)

	// Classify before renaming so qualifiers still match their declarations.
	accesses := Attribute(tree).Accesses

	// Matching uses the names recorded at classification, so renames never
	// chain into each other.
	for from, to := range mapping {
		for _, m := range membersOf(tree, from) {
			m.Def.Name = to
		}

		for _, acc := range qualifiedBy(accesses, from) {
			acc.Chain.Segments[0].Name = to
		}
	}

	return stmt
}

func membersOf(tree *ScopeTree, stream string) []*Member {
	var out []*Member

	for _, scope := range tree.Scopes {
		for _, m := range scope.Members {
			if !m.Derived() && m.Stream == stream {
				out = append(out, m)
			}
		}
	}

	return out
}

// qualifiedBy returns the accesses written as stream.field, not through an
// alias.
func qualifiedBy(accesses []*PropertyAccess, stream string) []*PropertyAccess {
	var out []*PropertyAccess

	for _, acc := range accesses {
		if acc.QualifierKind == QualifierStream && acc.Qualifier == stream {
			out = append(out, acc)
		}
	}

	return out
}

// RewriteEventFieldName flattens nested container paths into single
// identifiers joined by FieldSeparator, so that result.$0.size becomes
// result$$0$size. Accesses explicitly qualified by a stream name that is a
// key of mapping get the mapped qualifier; alias-qualified and unqualified
// accesses keep their qualifier text. Method calls following a path are kept.
// The statement is modified in place and returned.
//
// The rewrite is not idempotent: a renamed qualifier no longer names a
// declared stream, so a second pass folds it into the path. An unqualified
// path is already a single identifier after the first pass and survives a
// second pass unchanged.
func RewriteEventFieldName(stmt *norikra.Statement, mapping map[string]string) *norikra.Statement {
	tree := BuildScopeTree(stmt)

	for _, acc := range Attribute(tree).Accesses {
		encodeAccess(acc, mapping)
	}

	return stmt
}

func encodeAccess(acc *PropertyAccess, mapping map[string]string) {
	c := acc.Chain

	start := 0
	if acc.Qualifier != "" {
		start = 1

		if acc.QualifierKind == QualifierStream {
			if to, ok := mapping[acc.Qualifier]; ok {
				c.Segments[0].Name = to
			}
		}
	}

	if len(acc.Path) < 2 {
		return
	}

	end := start + len(acc.Path)

	segments := make([]*norikra.Segment, 0, len(c.Segments)-len(acc.Path)+1)
	segments = append(segments, c.Segments[:start]...)
	segments = append(segments, &norikra.Segment{Name: EncodeFieldPath(acc.Path)})
	segments = append(segments, c.Segments[end:]...)

	c.Segments = segments
}

// EncodeFieldPath joins path segments with FieldSeparator.
func EncodeFieldPath(path []string) string {
	return strings.Join(path, FieldSeparator)
}
