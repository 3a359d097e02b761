package execution

import (
	"math"

	"github.com/pkg/errors"

	"minidb/pkg/primitives"
	"minidb/pkg/storage/heap"
	"minidb/pkg/storage/index/btree"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// IndexScan streams the rows whose indexed column satisfies "op key",
// in ascending key order. The RID list is materialized from the tree on
// the first Next call; subsequent calls drain it, fetching each row from
// the heap.
type IndexScan struct {
	tree   *btree.BTree
	heapF  *heap.File
	schema *tuple.Schema
	op     types.CompareOp
	key    int64

	rids         []primitives.RID
	pos          int
	materialized bool
}

// NewIndexScan builds an index scan. The != operator cannot be served by
// a single tree probe and is rejected; the planner never chooses an
// index for it.
func NewIndexScan(tree *btree.BTree, heapF *heap.File, schema *tuple.Schema, op types.CompareOp, key int64) (*IndexScan, error) {
	if op == types.Ne {
		return nil, errors.New("index scan does not support !=")
	}
	return &IndexScan{tree: tree, heapF: heapF, schema: schema, op: op, key: key}, nil
}

func (s *IndexScan) materialize() {
	switch s.op {
	case types.Eq:
		if rid, ok := s.tree.Search(s.key); ok {
			s.rids = []primitives.RID{rid}
		}
	case types.Ge:
		s.rids = s.tree.RangeScan(s.key, math.MaxInt64)
	case types.Gt:
		if s.key != math.MaxInt64 {
			s.rids = s.tree.RangeScan(s.key+1, math.MaxInt64)
		}
	case types.Le:
		s.rids = s.tree.RangeScan(math.MinInt64, s.key)
	case types.Lt:
		if s.key != math.MinInt64 {
			s.rids = s.tree.RangeScan(math.MinInt64, s.key-1)
		}
	}
	s.materialized = true
}

func (s *IndexScan) Next() (*tuple.Tuple, error) {
	if !s.materialized {
		s.materialize()
	}
	for s.pos < len(s.rids) {
		rid := s.rids[s.pos]
		s.pos++
		data, err := s.heapF.Get(rid)
		if err != nil {
			return nil, err
		}
		if data == nil {
			// The row was deleted after indexing; skip the stale entry.
			continue
		}
		t, err := tuple.Deserialize(data, s.schema)
		if err != nil {
			return nil, err
		}
		t.RID = rid
		return t, nil
	}
	return nil, nil
}

func (s *IndexScan) Close() error {
	s.rids = nil
	return nil
}
