package analysis

import (
	"fmt"
	"strings"
)

// Rule represents a semantic analysis check.
// Inspired by go/analysis.Analyzer pattern.
type Rule struct {
	// Name is a short identifier for the rule (used in diagnostic codes).
	Name string

	// Doc is a brief description of what the rule checks.
	Doc string

	// Severity is the default severity for diagnostics from this rule.
	Severity DiagnosticSeverity

	// Run executes the rule and appends any diagnostics to the query.
	Run func(q *AnalyzedQuery)
}

// DefaultRules returns all built-in semantic analysis rules.
func DefaultRules() []*Rule {
	return []*Rule{
		// Error-level checks.
		duplicateAliasRule,

		// Warning-level checks.
		ambiguousFieldRule,
		shadowedLibraryClassRule,

		// Hint-level checks.
		unreadStreamRule,
	}
}

func report(q *AnalyzedQuery, severity DiagnosticSeverity, code string, span Span, msg string) {
	q.Diagnostics = append(q.Diagnostics, Diagnostic{
		Span:     span,
		Severity: severity,
		Message:  msg,
		Code:     code,
		Source:   diagnosticSource,
	})
}

// ----------------------------------------------------------------------------
// Rule: duplicate-alias
// ----------------------------------------------------------------------------

var duplicateAliasRule = &Rule{
	Name:     "duplicate-alias",
	Doc:      "Reports streams of one FROM clause that are referenced by the same name.",
	Severity: SeverityError,
	Run:      checkDuplicateAliases,
}

func checkDuplicateAliases(q *AnalyzedQuery) {
	for _, scope := range q.Scopes.Scopes {
		seen := make(map[string]bool)

		for _, m := range scope.Members {
			name := m.Name()
			if name == "" {
				continue
			}

			if seen[name] {
				report(q, SeverityError, "duplicate-alias", streamSpan(m.Def), fmt.Sprintf("duplicate stream name %q in FROM clause", name))
			}

			seen[name] = true
		}
	}
}

// ----------------------------------------------------------------------------
// Rule: ambiguous-field
// ----------------------------------------------------------------------------

var ambiguousFieldRule = &Rule{
	Name:     "ambiguous-field",
	Doc:      "Reports unqualified fields in joins that cannot be attributed to one stream.",
	Severity: SeverityWarning,
	Run:      checkAmbiguousFields,
}

func checkAmbiguousFields(q *AnalyzedQuery) {
	for _, acc := range q.Attribution.Accesses {
		if !acc.Ambiguous {
			continue
		}

		var names []string
		for _, m := range q.Scopes.Scopes[acc.Scope].Members {
			names = append(names, m.Name())
		}

		report(q, SeverityWarning, "ambiguous-field", chainSpan(acc.Chain), fmt.Sprintf(
			"ambiguous field %q: qualify it with one of %s", acc.PathString(), strings.Join(names, ", ")))
	}
}

// ----------------------------------------------------------------------------
// Rule: shadowed-library-class
// ----------------------------------------------------------------------------

var shadowedLibraryClassRule = &Rule{
	Name:     "shadowed-library-class",
	Doc:      "Reports stream names and aliases that hide a library class such as Math.",
	Severity: SeverityWarning,
	Run:      checkShadowedLibraryClasses,
}

func checkShadowedLibraryClasses(q *AnalyzedQuery) {
	for _, scope := range q.Scopes.Scopes {
		for _, m := range scope.Members {
			name := m.Name()
			if pkg, ok := LibraryClassPackage(name); ok {
				report(q, SeverityWarning, "shadowed-library-class", streamSpan(m.Def), fmt.Sprintf(
					"stream %q hides library class %s.%s; calls on it are read as field accesses", name, pkg, name))
			}
		}
	}
}

// ----------------------------------------------------------------------------
// Rule: unread-stream
// ----------------------------------------------------------------------------

var unreadStreamRule = &Rule{
	Name:     "unread-stream",
	Doc:      "Reports streams from which no field is read.",
	Severity: SeverityHint,
	Run:      checkUnreadStreams,
}

func checkUnreadStreams(q *AnalyzedQuery) {
	// Unqualified fields of a join may belong to any of its streams.
	hasAmbiguous := make(map[int]bool)
	// Selecting a whole event reads every field of its stream.
	wholeEvent := make(map[string]bool)

	for _, acc := range q.Attribution.Accesses {
		switch {
		case acc.Ambiguous:
			hasAmbiguous[acc.Scope] = true
		case acc.EventReference() && !acc.Derived:
			wholeEvent[acc.Owner] = true
		}
	}

	reported := make(map[string]bool)

	for _, scope := range q.Scopes.Scopes {
		if scope.Statement.Select.Star || hasAmbiguous[scope.ID] {
			continue
		}

		for _, m := range scope.Members {
			if m.Derived() || reported[m.Stream] || wholeEvent[m.Stream] {
				continue
			}

			if len(q.Attribution.Fields.Of(m.Stream)) == 0 {
				reported[m.Stream] = true
				report(q, SeverityHint, "unread-stream", streamSpan(m.Def), fmt.Sprintf("no field of stream %q is read", m.Stream))
			}
		}
	}
}
