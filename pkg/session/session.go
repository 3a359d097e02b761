// Package session dispatches parsed statements against a catalog,
// carrying the transaction state and write-ahead log for one client.
// Execute never fails with a Go error: every outcome, success or not, is
// a tagged Result.
package session

import (
	"minidb/pkg/catalog"
	"minidb/pkg/concurrency/transaction"
	"minidb/pkg/dberr"
	"minidb/pkg/logging"
	"minidb/pkg/planner"
	"minidb/pkg/sql"
	"minidb/pkg/tuple"
	"minidb/pkg/wal"
)

var log = logging.For("session")

// ResultKind tags what a statement produced.
type ResultKind int

const (
	ResultError ResultKind = iota
	ResultTableCreated
	ResultIndexCreated
	ResultRowInserted
	ResultSelect
	ResultTxnStarted
	ResultTxnCommitted
	ResultTxnAborted
)

// ErrorOrigin distinguishes parse failures from execution failures.
type ErrorOrigin int

const (
	OriginParse ErrorOrigin = iota
	OriginExecute
)

// Result is the outcome of one Execute call. For ResultSelect, Rows and
// Schema describe the produced tuples; for ResultError, Err and Origin
// describe the failure.
type Result struct {
	Kind   ResultKind
	Schema *tuple.Schema
	Rows   []*tuple.Tuple
	Err    error
	Origin ErrorOrigin
}

// Session executes statements against a borrowed catalog. It owns its
// transaction manager and WAL and tracks at most one open transaction.
type Session struct {
	cat     *catalog.Catalog
	plan    *planner.Planner
	txnMgr  *transaction.Manager
	journal *wal.WAL
	current uint64 // 0 when no transaction is open
	last    Result
}

// New builds a session over cat. walBuffer presizes the log.
func New(cat *catalog.Catalog, walBuffer int) *Session {
	return &Session{
		cat:     cat,
		plan:    planner.New(cat),
		txnMgr:  transaction.NewManager(),
		journal: wal.New(walBuffer),
	}
}

// WAL exposes the session's log, for replay and for debugging.
func (s *Session) WAL() *wal.WAL {
	return s.journal
}

// TransactionManager exposes the session's transaction manager.
func (s *Session) TransactionManager() *transaction.Manager {
	return s.txnMgr
}

// InTransaction reports whether a transaction is open, and its id.
func (s *Session) InTransaction() (uint64, bool) {
	return s.current, s.current != 0
}

func parseError(err error) Result {
	return Result{Kind: ResultError, Err: err, Origin: OriginParse}
}

func execError(err error) Result {
	return Result{Kind: ResultError, Err: err, Origin: OriginExecute}
}

// Last returns the result of the most recent Execute call.
func (s *Session) Last() Result {
	return s.last
}

// Execute parses and runs one statement.
func (s *Session) Execute(sqlText string) Result {
	res := s.run(sqlText)
	s.last = res
	return res
}

func (s *Session) run(sqlText string) Result {
	stmt, err := sql.Parse(sqlText)
	if err != nil {
		return parseError(err)
	}

	switch stmt := stmt.(type) {
	case sql.Begin:
		return s.begin()
	case sql.Commit:
		return s.finish(true)
	case sql.Abort:
		return s.finish(false)
	case sql.CreateTable:
		if err := s.plan.ExecuteCreateTable(stmt); err != nil {
			return execError(err)
		}
		return Result{Kind: ResultTableCreated}
	case sql.CreateIndex:
		if err := s.plan.ExecuteCreateIndex(stmt); err != nil {
			return execError(err)
		}
		return Result{Kind: ResultIndexCreated}
	case sql.Insert:
		return s.insert(stmt)
	case sql.Select:
		return s.query(stmt)
	default:
		return execError(dberr.New(dberr.UnexpectedToken, "unsupported statement"))
	}
}

func (s *Session) begin() Result {
	if s.current != 0 {
		return execError(dberr.New(dberr.TransactionAlreadyExist, "transaction %d is already open", s.current))
	}
	id := s.txnMgr.Begin()
	s.current = id
	s.journal.AppendBegin(id)
	return Result{Kind: ResultTxnStarted}
}

func (s *Session) finish(commit bool) Result {
	if s.current == 0 {
		return execError(dberr.New(dberr.TransactionNotExist, "no open transaction"))
	}
	id := s.current

	var err error
	if commit {
		err = s.txnMgr.Commit(id)
	} else {
		err = s.txnMgr.Abort(id)
	}
	if err != nil {
		return execError(err)
	}

	if commit {
		s.journal.AppendCommit(id)
	} else {
		s.journal.AppendAbort(id)
	}
	s.cat.LockManager().ReleaseAll(id)
	s.current = 0

	if commit {
		return Result{Kind: ResultTxnCommitted}
	}
	return Result{Kind: ResultTxnAborted}
}

// insert runs the physical insert with the open transaction, if any,
// bound to the table's heap so the new row is locked exclusively. The
// insert record is logged only under an open transaction.
func (s *Session) insert(stmt sql.Insert) Result {
	if table := s.cat.GetTable(stmt.Table); table != nil && s.current != 0 {
		table.Heap().BindTransaction(s.current)
		defer table.Heap().UnbindTransaction()
	}

	if _, err := s.plan.ExecuteInsert(stmt); err != nil {
		return execError(err)
	}
	if s.current != 0 {
		s.journal.AppendInsert(s.current, stmt.Table, stmt.Values)
	}
	return Result{Kind: ResultRowInserted}
}

// query plans and drains a SELECT. Under an open transaction the involved
// heaps are bound to it, so rows fetched by RID (index scans) attempt a
// shared lock; sequential scans and join scans take no locks.
func (s *Session) query(stmt sql.Select) Result {
	if s.current != 0 {
		if table := s.cat.GetTable(stmt.Table); table != nil {
			table.Heap().BindTransaction(s.current)
			defer table.Heap().UnbindTransaction()
		}
		if stmt.Join != nil {
			if right := s.cat.GetTable(stmt.Join.Table); right != nil {
				right.Heap().BindTransaction(s.current)
				defer right.Heap().UnbindTransaction()
			}
		}
	}

	op, schema, err := s.plan.PlanSelect(stmt)
	if err != nil {
		return execError(err)
	}
	defer op.Close()

	var rows []*tuple.Tuple
	for {
		t, err := op.Next()
		if err != nil {
			return execError(err)
		}
		if t == nil {
			break
		}
		rows = append(rows, t)
	}
	log.WithFields(map[string]any{"table": stmt.Table, "rows": len(rows)}).Debug("select complete")
	return Result{Kind: ResultSelect, Schema: schema, Rows: rows}
}
