package wal

import (
	"minidb/pkg/catalog"
	"minidb/pkg/dberr"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// Replay re-executes a log against a fresh catalog in two passes: the
// first collects the ids of committed transactions, the second re-runs
// each insert belonging to one of them. Aborted and in-doubt
// transactions (no commit record) contribute nothing. Tuples are rebuilt
// from the recorded values against the table's current schema, so the
// schema and the log must be consistent.
func Replay(w *WAL, cat *catalog.Catalog) error {
	committed := make(map[uint64]struct{})
	for _, r := range w.records {
		if r.Type == RecordCommit {
			committed[r.TxnID] = struct{}{}
		}
	}

	replayed := 0
	for _, r := range w.records {
		if r.Type != RecordInsert {
			continue
		}
		if _, ok := committed[r.TxnID]; !ok {
			continue
		}

		table := cat.GetTable(r.Table)
		if table == nil {
			return dberr.New(dberr.TableNotFound, "replay references unknown table %q", r.Table)
		}
		schema := table.Schema()
		if len(r.Values) != schema.NumColumns() {
			return dberr.New(dberr.ColumnCountMismatch,
				"replay row for %q has %d values, schema has %d columns",
				r.Table, len(r.Values), schema.NumColumns())
		}

		values := make([]types.Value, len(r.Values))
		copy(values, r.Values)
		for i := range values {
			if values[i].Null {
				values[i] = types.NullValue(schema.Columns[i].Type)
			}
		}
		if _, err := table.Insert(tuple.New(schema, values)); err != nil {
			return err
		}
		replayed++
	}

	log.WithFields(map[string]any{"records": len(w.records), "rows": replayed}).Info("replay complete")
	return nil
}
