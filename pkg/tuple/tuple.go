package tuple

import (
	"minidb/pkg/primitives"
	"minidb/pkg/types"
)

// Tuple is a typed row: an ordered sequence of Values paired with the
// Schema that describes them. A Tuple returned from an executor is owned
// by the caller; text byte slices embedded in Values must be deep-copied
// by any operator that outlives its source (Project, NestedLoopJoin).
type Tuple struct {
	Schema *Schema
	Values []types.Value
	// RID is set when the tuple was read from a heap file, identifying
	// where it lives on disk. Tuples built by Project/NestedLoopJoin leave
	// it zero.
	RID primitives.RID
}

// New builds a Tuple from schema-conformant values.
func New(schema *Schema, values []types.Value) *Tuple {
	return &Tuple{Schema: schema, Values: values}
}

// Clone deep-copies a tuple, including any text byte slices, so the copy
// shares no backing storage with the original. Operators that must
// outlive their input tuple (Project, NestedLoopJoin) clone what they
// keep.
func (t *Tuple) Clone() *Tuple {
	values := make([]types.Value, len(t.Values))
	for i, v := range t.Values {
		if v.Type == types.Text && !v.Null {
			cp := make([]byte, len(v.TextVal))
			copy(cp, v.TextVal)
			v.TextVal = cp
		}
		values[i] = v
	}
	return &Tuple{Schema: t.Schema, Values: values, RID: t.RID}
}

// Get returns the value at the given column index.
func (t *Tuple) Get(idx int) types.Value {
	return t.Values[idx]
}
