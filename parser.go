package norikra

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// eplLexer is the custom lexer for EPL statements.
var eplLexer = newEPLLexer()

// The grammar relies on ordered choice with backtracking (a parenthesized
// subquery is tried before a parenthesized expression, a time period before a
// plain number), so lookahead is unbounded.
var parser = participle.MustBuild[Statement](
	participle.Lexer(eplLexer),
	participle.Unquote("String"),
	participle.Elide("Whitespace", "Comment"),
	participle.Map(lowerKeyword, "Keyword"),
	participle.UseLookahead(participle.MaxLookahead),
)

// lowerKeyword normalizes keywords so captured values such as join kinds are
// always lower case.
func lowerKeyword(tok lexer.Token) (lexer.Token, error) {
	tok.Value = strings.ToLower(tok.Value)

	return tok, nil
}

// Parse parses a single EPL statement. Errors are participle errors carrying
// the position of the offending token. The function is safe for concurrent use.
func Parse(expression string) (*Statement, error) {
	stmt, err := parser.ParseString("", expression)
	if err != nil {
		return nil, err
	}

	return stmt, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// statically known statements.
func MustParse(expression string) *Statement {
	stmt, err := Parse(expression)
	if err != nil {
		panic(err)
	}

	return stmt
}

// ExportedLexer returns the lexer definition for testing purposes.
//
//nolint:revive // unexported-return: intentionally returns unexported type for internal test use
func ExportedLexer() *eplDefinition {
	return eplLexer
}

// Grammar returns the EBNF of the statement grammar.
func Grammar() string {
	return parser.String()
}
