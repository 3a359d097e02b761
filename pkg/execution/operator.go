// Package execution implements the pull-model query operators: SeqScan,
// IndexScan, Filter, Project and NestedLoopJoin. Operators form a tree;
// the root's Next is called repeatedly until it reports exhaustion, and
// each returned tuple is owned by the caller. Closing an operator closes
// its children, so callers close only the root.
package execution

import "minidb/pkg/tuple"

// Operator is one node of an executor tree. Next returns the next tuple
// or (nil, nil) once the stream is exhausted.
type Operator interface {
	Next() (*tuple.Tuple, error)
	Close() error
}
