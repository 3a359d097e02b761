// Package wal implements the append-only log of transaction effects and
// its replay. The log lives in memory and exists for idempotent replay
// against a fresh catalog, not for crash recovery of a torn disk image.
package wal

import (
	"minidb/pkg/logging"
	"minidb/pkg/types"
)

var log = logging.For("wal")

// RecordType tags one log record.
type RecordType int

const (
	RecordBegin RecordType = iota
	RecordInsert
	RecordCommit
	RecordAbort
)

func (t RecordType) String() string {
	switch t {
	case RecordBegin:
		return "begin"
	case RecordInsert:
		return "insert"
	case RecordCommit:
		return "commit"
	case RecordAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Record is one WAL entry. Table and Values are meaningful only for
// RecordInsert.
type Record struct {
	Type   RecordType
	TxnID  uint64
	Table  string
	Values []types.Value
}

// WAL is an append-only ordered sequence of records. Appends never
// reorder and reads return records in append order.
type WAL struct {
	records []Record
}

// New returns an empty log. initialCap presizes the record buffer and
// may be zero.
func New(initialCap int) *WAL {
	return &WAL{records: make([]Record, 0, initialCap)}
}

// AppendBegin logs the start of a transaction.
func (w *WAL) AppendBegin(txn uint64) {
	w.append(Record{Type: RecordBegin, TxnID: txn})
}

// AppendInsert logs one inserted row, by value.
func (w *WAL) AppendInsert(txn uint64, table string, values []types.Value) {
	cp := make([]types.Value, len(values))
	copy(cp, values)
	w.append(Record{Type: RecordInsert, TxnID: txn, Table: table, Values: cp})
}

// AppendCommit logs a commit.
func (w *WAL) AppendCommit(txn uint64) {
	w.append(Record{Type: RecordCommit, TxnID: txn})
}

// AppendAbort logs an abort.
func (w *WAL) AppendAbort(txn uint64) {
	w.append(Record{Type: RecordAbort, TxnID: txn})
}

func (w *WAL) append(r Record) {
	w.records = append(w.records, r)
	log.WithFields(map[string]any{"type": r.Type.String(), "txn_id": r.TxnID}).Debug("wal append")
}

// Records returns a snapshot of the log in append order.
func (w *WAL) Records() []Record {
	out := make([]Record, len(w.records))
	copy(out, w.records)
	return out
}

// Len returns the number of records logged so far.
func (w *WAL) Len() int {
	return len(w.records)
}
