// Package lock implements per-record shared/exclusive locking. The
// manager never waits: an incompatible request fails immediately with
// dberr.LockConflict, which keeps conflicts deterministic under the
// single-threaded execution model.
package lock

import (
	"minidb/pkg/dberr"
	"minidb/pkg/logging"
	"minidb/pkg/primitives"
)

var log = logging.For("lock_manager")

// Mode is the lock strength requested for a record.
type Mode int

const (
	Shared Mode = iota
	Exclusive
)

func (m Mode) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// entry tracks one locked record. If mode is Exclusive there is exactly
// one holder; if Shared there is at least one. Entries are removed the
// moment their holder set empties.
type entry struct {
	mode    Mode
	holders map[uint64]struct{}
}

// Manager tracks which transactions hold locks on which records.
type Manager struct {
	locks map[primitives.RID]*entry
}

// NewManager returns an empty lock manager.
func NewManager() *Manager {
	return &Manager{locks: make(map[primitives.RID]*entry)}
}

// Acquire grants txn a lock of the given mode on rid, or fails with
// dberr.LockConflict. Re-acquiring a lock the transaction already holds
// succeeds without upgrading the mode. Two transactions may share a
// record only when both the held and requested modes are Shared.
func (m *Manager) Acquire(txn uint64, rid primitives.RID, mode Mode) error {
	e, ok := m.locks[rid]
	if !ok {
		m.locks[rid] = &entry{mode: mode, holders: map[uint64]struct{}{txn: {}}}
		return nil
	}
	if _, holds := e.holders[txn]; holds {
		return nil
	}
	if e.mode == Shared && mode == Shared {
		e.holders[txn] = struct{}{}
		return nil
	}
	log.WithFields(map[string]any{"txn_id": txn, "rid": rid.String(), "requested": mode.String(), "held": e.mode.String()}).
		Debug("lock conflict")
	return dberr.New(dberr.LockConflict,
		"txn %d requested %s on %s held %s by another transaction", txn, mode, rid, e.mode)
}

// Release drops txn's lock on rid, removing the entry once no holders
// remain. Releasing a lock txn does not hold is a no-op.
func (m *Manager) Release(txn uint64, rid primitives.RID) {
	e, ok := m.locks[rid]
	if !ok {
		return
	}
	delete(e.holders, txn)
	if len(e.holders) == 0 {
		delete(m.locks, rid)
	}
}

// ReleaseAll drops every lock txn holds. Called on commit and abort.
func (m *Manager) ReleaseAll(txn uint64) {
	for rid, e := range m.locks {
		if _, ok := e.holders[txn]; !ok {
			continue
		}
		delete(e.holders, txn)
		if len(e.holders) == 0 {
			delete(m.locks, rid)
		}
	}
}

// HoldsLock reports whether txn currently holds any lock on rid.
func (m *Manager) HoldsLock(txn uint64, rid primitives.RID) bool {
	e, ok := m.locks[rid]
	if !ok {
		return false
	}
	_, holds := e.holders[txn]
	return holds
}
