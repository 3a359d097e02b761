package execution

import (
	"minidb/pkg/storage/heap"
	"minidb/pkg/tuple"
)

// SeqScan streams every live row of a heap file in page/slot order,
// deserializing each record against the table schema.
type SeqScan struct {
	schema *tuple.Schema
	it     *heap.Iterator
}

// NewSeqScan opens a sequential scan over heapF.
func NewSeqScan(heapF *heap.File, schema *tuple.Schema) *SeqScan {
	return &SeqScan{schema: schema, it: heapF.Scan()}
}

func (s *SeqScan) Next() (*tuple.Tuple, error) {
	rec, err := s.it.Next()
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	t, err := tuple.Deserialize(rec.Data, s.schema)
	if err != nil {
		return nil, err
	}
	t.RID = rec.RID
	return t, nil
}

func (s *SeqScan) Close() error {
	s.it.Close()
	return nil
}
