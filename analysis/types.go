// Package analysis resolves which streams an EPL statement reads and which
// fields it reads from each, and rewrites statements in terms of that
// resolution.
package analysis

import (
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/yui-knk/norikra"
)

// AnalyzedQuery holds semantic analysis results for a single statement.
type AnalyzedQuery struct {
	// Name identifies the query in diagnostics output.
	Name string

	Expression string

	// Statement is the parsed statement. Nil if parsing failed.
	Statement *norikra.Statement

	// ParseError holds the parse error if parsing failed.
	ParseError error

	// Scopes and Attribution are nil if parsing failed.
	Scopes      *ScopeTree
	Attribution *Attribution

	// Diagnostics contains all errors and warnings found during analysis.
	Diagnostics []Diagnostic
}

// Span is a range in the expression text.
type Span struct {
	Start lexer.Position
	End   lexer.Position
}

// Diagnostic represents an error or warning found during analysis.
type Diagnostic struct {
	Span     Span
	Severity DiagnosticSeverity
	Message  string
	Code     string // e.g., "duplicate-alias", "ambiguous-field"
	Source   string // "norikra"
}

// DiagnosticSeverity indicates the severity of a diagnostic.
type DiagnosticSeverity int

// Diagnostic severity constants.
const (
	SeverityError DiagnosticSeverity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

func (s DiagnosticSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// HasErrors reports whether any diagnostic is an error.
func (q *AnalyzedQuery) HasErrors() bool {
	for _, d := range q.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}

	return false
}
