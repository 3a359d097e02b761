package execution

import (
	"minidb/pkg/sql"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// Filter passes through only the child tuples that satisfy a condition
// tree, preserving order.
type Filter struct {
	child Operator
	cond  sql.Condition
}

// NewFilter wraps child with cond.
func NewFilter(child Operator, cond sql.Condition) *Filter {
	return &Filter{child: child, cond: cond}
}

func (f *Filter) Next() (*tuple.Tuple, error) {
	for {
		t, err := f.child.Next()
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, nil
		}
		if EvalCondition(f.cond, t) {
			return t, nil
		}
	}
}

func (f *Filter) Close() error {
	return f.child.Close()
}

// EvalCondition evaluates a condition tree against one tuple. A simple
// comparison looks its column up by name in the tuple's schema and is
// false when the column is absent; comparisons follow the value rules
// (anything involving NULL or mismatched types is false).
func EvalCondition(c sql.Condition, t *tuple.Tuple) bool {
	switch c := c.(type) {
	case sql.Simple:
		idx := t.Schema.IndexOf(c.Column)
		if idx < 0 {
			return false
		}
		return types.Compare(t.Values[idx], c.Op, c.Value)
	case sql.And:
		return EvalCondition(c.Left, t) && EvalCondition(c.Right, t)
	case sql.Or:
		return EvalCondition(c.Left, t) || EvalCondition(c.Right, t)
	case sql.Not:
		return !EvalCondition(c.Inner, t)
	default:
		return false
	}
}
