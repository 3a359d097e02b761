package execution

import (
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// Project narrows each child tuple to the columns at the given indices,
// deep-copying text bytes so the projection owns its storage outright.
type Project struct {
	child   Operator
	indices []int
	schema  *tuple.Schema
}

// NewProject wraps child, keeping the columns at indices; schema
// describes the projected row shape.
func NewProject(child Operator, indices []int, schema *tuple.Schema) *Project {
	return &Project{child: child, indices: indices, schema: schema}
}

func (p *Project) Next() (*tuple.Tuple, error) {
	t, err := p.child.Next()
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}

	values := make([]types.Value, len(p.indices))
	for i, idx := range p.indices {
		v := t.Values[idx]
		if v.Type == types.Text && !v.Null {
			cp := make([]byte, len(v.TextVal))
			copy(cp, v.TextVal)
			v.TextVal = cp
		}
		values[i] = v
	}
	return tuple.New(p.schema, values), nil
}

func (p *Project) Close() error {
	return p.child.Close()
}
