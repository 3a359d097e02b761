// Package dberr defines the named error kinds used throughout MiniDB.
//
// Each kind is a sentinel value carried inside *Error; stack capture and
// cause-chaining come from github.com/pkg/errors so wrapped errors keep
// their origin. Callers match kinds with Is rather than string comparison.
package dberr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind names one failure category.
type Kind string

const (
	NotEnoughFreeSpace      Kind = "NotEnoughFreeSpace"
	NoFreeFrame             Kind = "NoFreeFrame"
	PageNotFound            Kind = "PageNotFound"
	TableNotFound           Kind = "TableNotFound"
	ColumnNotFound          Kind = "ColumnNotFound"
	ColumnCountMismatch     Kind = "ColumnCountMismatch"
	LockConflict            Kind = "LockConflict"
	TransactionNotActive    Kind = "TransactionNotActive"
	TransactionNotFound     Kind = "TransactionNotFound"
	TransactionAlreadyExist Kind = "TransactionAlreadyExist"
	TransactionNotExist     Kind = "TransactionNotExist"
	UnexpectedToken         Kind = "UnexpectedToken"
)

// Error is a MiniDB error tagged with a named Kind plus human-readable
// context. It implements error and supports errors.Is/errors.As/errors.Unwrap
// via the embedded cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New creates an Error of the given kind, capturing a stack trace via
// github.com/pkg/errors.
func New(kind Kind, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Kind:    kind,
		Message: msg,
		Cause:   errors.New(msg),
	}
}

// Wrap annotates an existing error with a MiniDB error kind, preserving
// the original as the cause so errors.Unwrap keeps working.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Kind:    kind,
		Message: msg,
		Cause:   errors.Wrap(cause, msg),
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether err is (or wraps) a MiniDB error of the given kind.
func Is(err error, kind Kind) bool {
	var dberr *Error
	if errors.As(err, &dberr) {
		return dberr.Kind == kind
	}
	return false
}
