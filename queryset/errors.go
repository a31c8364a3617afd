// Package queryset loads named EPL queries from YAML files and selects
// queries by filter expressions.
package queryset

import (
	"errors"
	"fmt"
)

// Sentinel errors for query set operations.
var (
	// ErrQuerySetNotFound is returned when no query set file exists at the given path.
	ErrQuerySetNotFound = errors.New("queryset: not found")

	// ErrInvalidQuerySet is returned when a file is not a list of query definitions.
	ErrInvalidQuerySet = errors.New("queryset: invalid query set")

	// ErrDuplicateQuery is returned when two queries of one set share a name.
	ErrDuplicateQuery = errors.New("queryset: duplicate query")

	// ErrParseError is returned when a query expression fails to parse.
	ErrParseError = errors.New("queryset: parse error")

	// ErrFilterNotBool is returned when a filter expression does not yield a boolean.
	ErrFilterNotBool = errors.New("queryset: filter did not return a boolean")
)

// LoadError provides details about a failed query set load.
type LoadError struct {
	// Path is the filesystem path that failed to load.
	Path string
	// Query is the name of the offending query, empty when the whole file failed.
	Query string
	// Cause is the underlying error.
	Cause error
}

func (e *LoadError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("failed to load %q (query %s): %v", e.Path, e.Query, e.Cause)
	}

	return fmt.Sprintf("failed to load %q: %v", e.Path, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
