// Package errors provides error handling for tankgraph.
//
// It re-exports github.com/cockroachdb/errors so that every package gets
// stack traces, wrapping and user-facing hints from a single import, and
// defines the sentinel errors shared across the domain.
//
//	if err := store.AssertUnique(s, p, o); err != nil {
//	    return errors.Wrapf(err, "battle %s", s)
//	}
//
//	if errors.Is(err, errors.ErrConflict) {
//	    // abort ingestion
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New   = crdb.New
	Newf  = crdb.Newf
	Wrap  = crdb.Wrap
	Wrapf = crdb.Wrapf
)

// User-facing hints
var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	FlattenHints = crdb.FlattenHints
)

// Error inspection
var (
	Is    = crdb.Is
	IsAny = crdb.IsAny
	As    = crdb.As
)

// AssertionFailedf reports a broken internal invariant.
var AssertionFailedf = crdb.AssertionFailedf

// Sentinel errors. Wrap them to add context and check with Is.
var (
	// ErrNotFound indicates a missing source file, snapshot or graph.
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates malformed caller input such as a bad flag value.
	ErrInvalidRequest = New("invalid request")

	// ErrConflict indicates a single-valued property was asserted twice with
	// different values.
	ErrConflict = New("conflicting value")

	// ErrTypeMismatch indicates a property was asserted on an entity of the
	// wrong kind.
	ErrTypeMismatch = New("type mismatch")

	// ErrQueryDefinition indicates a query that cannot be evaluated as written.
	ErrQueryDefinition = New("invalid query")

	// ErrUnknownQuery indicates a canned query name that is not registered.
	ErrUnknownQuery = New("unknown query")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsQueryError reports whether err is a recoverable query problem that an
// interactive session should print and move past.
func IsQueryError(err error) bool {
	return err != nil && IsAny(err, ErrQueryDefinition, ErrUnknownQuery)
}

// NewNotFoundError creates a not-found error with a formatted message.
func NewNotFoundError(format string, args ...any) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message.
func NewInvalidRequestError(format string, args ...any) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
