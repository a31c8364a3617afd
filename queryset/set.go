package queryset

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/yui-knk/norikra/query"
)

// Definition is one entry of a query set file.
//
//	- name: rfid-zones
//	  group: tracking
//	  expression: select * from RfidEvent as RFID where ...
type Definition struct {
	Name       string  `yaml:"name"`
	Group      *string `yaml:"group"`
	Expression string  `yaml:"expression"`
}

// Set is a loaded query set.
type Set struct {
	// Path is the absolute filesystem path of the file.
	Path string

	// Queries in file order.
	Queries []*query.Query
}

// Decode parses a query set file.
func Decode(data []byte) ([]Definition, error) {
	var defs []Definition

	err := yaml.Unmarshal(data, &defs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuerySet, err)
	}

	for i, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", ErrInvalidQuerySet, i)
		}

		if d.Expression == "" {
			return nil, fmt.Errorf("%w: query %s has no expression", ErrInvalidQuerySet, d.Name)
		}
	}

	return defs, nil
}

// NewSet builds a set from definitions. Every expression is parsed so that
// a set never holds a query whose targets cannot be computed.
func NewSet(path string, defs []Definition) (*Set, error) {
	s := &Set{Path: path}
	seen := make(map[string]bool, len(defs))

	for _, d := range defs {
		if seen[d.Name] {
			return nil, &LoadError{Path: path, Query: d.Name, Cause: ErrDuplicateQuery}
		}

		seen[d.Name] = true

		var opts []query.Option
		if d.Group != nil {
			opts = append(opts, query.WithGroup(*d.Group))
		}

		q := query.New(d.Name, d.Expression, opts...)

		if _, err := q.Targets(); err != nil {
			return nil, &LoadError{Path: path, Query: d.Name, Cause: fmt.Errorf("%w: %w", ErrParseError, err)}
		}

		s.Queries = append(s.Queries, q)
	}

	return s, nil
}

// Get returns the query with the given name, or nil.
func (s *Set) Get(name string) *query.Query {
	for _, q := range s.Queries {
		if q.Name() == name {
			return q
		}
	}

	return nil
}

// Targets returns the sorted distinct streams read by any query of the set.
func (s *Set) Targets() []string {
	var all []string

	for _, q := range s.Queries {
		// Every query was parsed by NewSet.
		targets, _ := q.Targets()
		all = append(all, targets...)
	}

	slices.Sort(all)

	return slices.Compact(all)
}
