package execution

import (
	"minidb/pkg/storage/heap"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// NestedLoopJoin emits, for each left tuple, the concatenation with
// every right-table row whose join column matches. The right heap is
// rescanned from the beginning for each left tuple, so output order is
// left order outer, right scan order inner.
type NestedLoopJoin struct {
	left        Operator
	rightHeap   *heap.File
	rightSchema *tuple.Schema
	leftCol     int
	rightCol    int
	merged      *tuple.Schema

	curLeft *tuple.Tuple
	rightIt *heap.Iterator
}

// NewNestedLoopJoin joins left against the rows of rightHeap on
// left.Values[leftCol] == right.Values[rightCol]; merged is the
// concatenated schema.
func NewNestedLoopJoin(left Operator, rightHeap *heap.File, rightSchema *tuple.Schema, leftCol, rightCol int, merged *tuple.Schema) *NestedLoopJoin {
	return &NestedLoopJoin{
		left:        left,
		rightHeap:   rightHeap,
		rightSchema: rightSchema,
		leftCol:     leftCol,
		rightCol:    rightCol,
		merged:      merged,
	}
}

func (j *NestedLoopJoin) Next() (*tuple.Tuple, error) {
	for {
		if j.curLeft == nil {
			t, err := j.left.Next()
			if err != nil {
				return nil, err
			}
			if t == nil {
				return nil, nil
			}
			j.curLeft = t
			j.rightIt = j.rightHeap.Scan()
		}

		rec, err := j.rightIt.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			j.rightIt.Close()
			j.rightIt = nil
			j.curLeft = nil
			continue
		}

		right, err := tuple.Deserialize(rec.Data, j.rightSchema)
		if err != nil {
			return nil, err
		}
		if !types.Compare(j.curLeft.Values[j.leftCol], types.Eq, right.Values[j.rightCol]) {
			continue
		}
		return j.merge(j.curLeft, right), nil
	}
}

// merge concatenates the two rows, deep-copying text on both sides so
// the output tuple owns all of its bytes.
func (j *NestedLoopJoin) merge(left, right *tuple.Tuple) *tuple.Tuple {
	values := make([]types.Value, 0, len(left.Values)+len(right.Values))
	for _, v := range append(append([]types.Value(nil), left.Values...), right.Values...) {
		if v.Type == types.Text && !v.Null {
			cp := make([]byte, len(v.TextVal))
			copy(cp, v.TextVal)
			v.TextVal = cp
		}
		values = append(values, v)
	}
	return tuple.New(j.merged, values)
}

func (j *NestedLoopJoin) Close() error {
	if j.rightIt != nil {
		j.rightIt.Close()
		j.rightIt = nil
	}
	return j.left.Close()
}
