// Package catalog owns the name-to-table registry and the Table type
// that ties a schema, its heap storage, and its per-column B+Tree
// indexes together.
package catalog

import (
	"minidb/pkg/logging"
	"minidb/pkg/primitives"
	"minidb/pkg/storage/buffer"
	"minidb/pkg/storage/heap"
	"minidb/pkg/storage/index/btree"
	"minidb/pkg/storage/page"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

var log = logging.For("catalog")

// Table owns its schema, its heap file, and one B+Tree per indexed
// column. Inserting through the table keeps every index in sync.
type Table struct {
	name    string
	schema  *tuple.Schema
	heapF   *heap.File
	disk    *page.DiskManager
	pool    *buffer.Pool
	indexes map[string]*btree.BTree
}

// Name returns the table's registered name.
func (t *Table) Name() string { return t.name }

// Schema returns the table's owned schema.
func (t *Table) Schema() *tuple.Schema { return t.schema }

// Heap returns the table's heap file.
func (t *Table) Heap() *heap.File { return t.heapF }

// Index returns the B+Tree for a column, or nil when the column has no
// index.
func (t *Table) Index(column string) *btree.BTree {
	return t.indexes[column]
}

// Insert stores the tuple in the heap, then feeds the new RID to every
// index keyed by that tuple's indexed column values.
func (t *Table) Insert(tp *tuple.Tuple) (primitives.RID, error) {
	rid, err := t.heapF.Insert(tp)
	if err != nil {
		return primitives.RID{}, err
	}
	for column, idx := range t.indexes {
		pos := t.schema.IndexOf(column)
		v := tp.Values[pos]
		if v.Null {
			continue
		}
		idx.Insert(v.IntVal, rid)
	}
	return rid, nil
}

// CreateIndex builds a B+Tree over the named column by scanning every
// live row. Non-integer columns are silently ignored; rebuilding an
// existing index replaces it.
func (t *Table) CreateIndex(column string) error {
	pos := t.schema.IndexOf(column)
	if pos < 0 {
		return nil
	}
	if t.schema.Columns[pos].Type != types.Integer {
		return nil
	}

	idx := btree.New()
	it := t.heapF.Scan()
	defer it.Close()
	rows := 0
	for {
		rec, err := it.Next()
		if err != nil {
			return err
		}
		if rec == nil {
			break
		}
		tp, err := tuple.Deserialize(rec.Data, t.schema)
		if err != nil {
			return err
		}
		if v := tp.Values[pos]; !v.Null {
			idx.Insert(v.IntVal, rec.RID)
			rows++
		}
	}

	t.indexes[column] = idx
	log.WithFields(map[string]any{"table": t.name, "column": column, "rows": rows}).
		Debug("index built")
	return nil
}

// Close flushes the table's dirty pages and closes its backing file.
func (t *Table) Close() error {
	if err := t.pool.FlushAll(); err != nil {
		return err
	}
	return t.disk.Close()
}
