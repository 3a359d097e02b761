// Package transaction tracks transaction ids and their lifecycle states.
// Ids are monotonic per Manager instance, starting at 1.
package transaction

import (
	"minidb/pkg/dberr"
	"minidb/pkg/logging"
)

var log = logging.For("transaction")

// State is a transaction's lifecycle state.
type State int

const (
	Active State = iota
	Committed
	Aborted
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Manager hands out monotonic transaction ids and tracks each one's
// state. Commit and Abort only apply to active transactions.
type Manager struct {
	nextID uint64
	states map[uint64]State
}

// NewManager returns a manager whose first transaction id will be 1.
func NewManager() *Manager {
	return &Manager{nextID: 1, states: make(map[uint64]State)}
}

// Begin creates a new active transaction and returns its id.
func (m *Manager) Begin() uint64 {
	id := m.nextID
	m.nextID++
	m.states[id] = Active
	log.WithField("txn_id", id).Debug("transaction started")
	return id
}

// Commit transitions an active transaction to committed. Fails with
// dberr.TransactionNotFound for unknown ids and dberr.TransactionNotActive
// for transactions already finished.
func (m *Manager) Commit(id uint64) error {
	return m.finish(id, Committed)
}

// Abort transitions an active transaction to aborted, with the same
// failure modes as Commit.
func (m *Manager) Abort(id uint64) error {
	return m.finish(id, Aborted)
}

func (m *Manager) finish(id uint64, to State) error {
	state, ok := m.states[id]
	if !ok {
		return dberr.New(dberr.TransactionNotFound, "transaction %d does not exist", id)
	}
	if state != Active {
		return dberr.New(dberr.TransactionNotActive, "transaction %d is %s", id, state)
	}
	m.states[id] = to
	log.WithFields(map[string]any{"txn_id": id, "state": to.String()}).Debug("transaction finished")
	return nil
}

// StateOf returns the state of a known transaction.
func (m *Manager) StateOf(id uint64) (State, error) {
	state, ok := m.states[id]
	if !ok {
		return 0, dberr.New(dberr.TransactionNotFound, "transaction %d does not exist", id)
	}
	return state, nil
}
