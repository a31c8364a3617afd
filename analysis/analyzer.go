package analysis

import (
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/yui-knk/norikra"
)

const diagnosticSource = "norikra"

// Analyzer performs semantic analysis on EPL statements.
type Analyzer struct {
	// rules is the set of semantic checks to run.
	rules []*Rule
}

// NewAnalyzer creates a new analyzer with default rules.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		rules: DefaultRules(),
	}
}

// NewAnalyzerWithRules creates an analyzer with custom rules.
func NewAnalyzerWithRules(rules []*Rule) *Analyzer {
	return &Analyzer{
		rules: rules,
	}
}

// Analyze parses and analyzes a statement.
func (a *Analyzer) Analyze(name, expression string) *AnalyzedQuery {
	result := &AnalyzedQuery{
		Name:        name,
		Expression:  expression,
		Diagnostics: []Diagnostic{},
	}

	stmt, err := norikra.Parse(expression)
	if err != nil {
		result.ParseError = err
		result.Diagnostics = append(result.Diagnostics, parseErrorToDiagnostic(err))

		return result
	}

	a.run(result, stmt)

	return result
}

// AnalyzeStatement analyzes an already parsed statement.
func (a *Analyzer) AnalyzeStatement(name string, stmt *norikra.Statement) *AnalyzedQuery {
	result := &AnalyzedQuery{
		Name:        name,
		Expression:  norikra.Format(stmt),
		Diagnostics: []Diagnostic{},
	}

	a.run(result, stmt)

	return result
}

func (a *Analyzer) run(result *AnalyzedQuery, stmt *norikra.Statement) {
	result.Statement = stmt
	result.Scopes = BuildScopeTree(stmt)
	result.Attribution = Attribute(result.Scopes)

	for _, rule := range a.rules {
		rule.Run(result)
	}
}

// parseErrorToDiagnostic converts a parse error to a diagnostic.
func parseErrorToDiagnostic(err error) Diagnostic {
	span := Span{}
	msg := err.Error()

	// participle errors and *norikra.LexerError both carry a position.
	type positioned interface {
		Position() lexer.Position
	}

	type participleError interface {
		positioned
		Message() string
	}

	switch pe := err.(type) {
	case participleError:
		pos := pe.Position()
		span = Span{Start: pos, End: pos}
		msg = pe.Message()
	case positioned:
		pos := pe.Position()
		span = Span{Start: pos, End: pos}
	}

	return Diagnostic{
		Span:     span,
		Severity: SeverityError,
		Message:  msg,
		Code:     "parse-error",
		Source:   diagnosticSource,
	}
}
