package queryset

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/yui-knk/norikra/query"
)

// filterEnv is the environment a filter expression is evaluated against,
// e.g. `"Zones" in targets && group == "tracking"`.
type filterEnv struct {
	Name       string   `expr:"name"`
	Group      string   `expr:"group"`
	Expression string   `expr:"expression"`
	Targets    []string `expr:"targets"`
	Fields     []string `expr:"fields"`
}

func newFilterEnv(q *query.Query) (filterEnv, error) {
	targets, err := q.Targets()
	if err != nil {
		return filterEnv{}, err
	}

	fields, err := q.Fields()
	if err != nil {
		return filterEnv{}, err
	}

	group, _ := q.Group()

	return filterEnv{
		Name:       q.Name(),
		Group:      group,
		Expression: q.Expression(),
		Targets:    targets,
		Fields:     fields,
	}, nil
}

// Filter returns the queries of set for which the boolean expression holds.
// An empty expression matches every query. It fails if:
// - The expression fails to compile
// - The expression fails to evaluate
// - The expression doesn't return a boolean.
func Filter(set *Set, exprStr string) ([]*query.Query, error) {
	if strings.TrimSpace(exprStr) == "" {
		return set.Queries, nil
	}

	program, err := expr.Compile(exprStr, expr.Env(filterEnv{}))
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", exprStr, err)
	}

	var matched []*query.Query

	for _, q := range set.Queries {
		env, err := newFilterEnv(q)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", q.Name(), err)
		}

		output, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("evaluate filter %q on %s: %w", exprStr, q.Name(), err)
		}

		ok, isBool := output.(bool)
		if !isBool {
			return nil, fmt.Errorf("%w: %q returned %T", ErrFilterNotBool, exprStr, output)
		}

		if ok {
			matched = append(matched, q)
		}
	}

	return matched, nil
}
