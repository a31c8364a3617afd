package query

import (
	"errors"
	"fmt"

	"github.com/yui-knk/norikra"
	"github.com/yui-knk/norikra/analysis"
)

// ErrUnknownRewriteKind is returned for a rewrite kind other than
// RewriteTypeNames and RewriteFieldNames.
var ErrUnknownRewriteKind = errors.New("query: unknown rewrite kind")

// RewriteKind selects a rewrite pass.
type RewriteKind int

// Rewrite kinds.
const (
	RewriteTypeNames RewriteKind = iota + 1
	RewriteFieldNames
)

func (k RewriteKind) String() string {
	switch k {
	case RewriteTypeNames:
		return "types"
	case RewriteFieldNames:
		return "fields"
	default:
		return "unknown"
	}
}

// ParseRewriteKind returns the kind named "types" or "fields".
func ParseRewriteKind(s string) (RewriteKind, error) {
	switch s {
	case "types":
		return RewriteTypeNames, nil
	case "fields":
		return RewriteFieldNames, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRewriteKind, s)
	}
}

// RewriteEventTypeName renames the event types of stmt in place and returns
// it. See analysis.RewriteEventTypeName.
func RewriteEventTypeName(stmt *norikra.Statement, mapping map[string]string) *norikra.Statement {
	return analysis.RewriteEventTypeName(stmt, mapping)
}

// RewriteEventFieldName flattens the container paths of stmt in place and
// returns it. See analysis.RewriteEventFieldName.
func RewriteEventFieldName(stmt *norikra.Statement, mapping map[string]string) *norikra.Statement {
	return analysis.RewriteEventFieldName(stmt, mapping)
}

// RewriteExpression parses text, applies one rewrite pass and renders the
// result as canonical text.
func RewriteExpression(text string, kind RewriteKind, mapping map[string]string) (string, error) {
	stmt, err := norikra.Parse(text)
	if err != nil {
		return "", err
	}

	switch kind {
	case RewriteTypeNames:
		RewriteEventTypeName(stmt, mapping)
	case RewriteFieldNames:
		RewriteEventFieldName(stmt, mapping)
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownRewriteKind, kind)
	}

	return norikra.Format(stmt), nil
}
