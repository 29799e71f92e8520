package graph

import (
	"errors"
	"fmt"
)

// ParseError reports a source unit that could not be parsed. No edges are
// produced for a unit that fails with a ParseError.
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error in %s at line %d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("parse %s: %s", e.File, e.Message)
}

// NotFoundError reports a missing file or an unknown variable.
type NotFoundError struct {
	Kind string // "file" or "variable"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// NotReadyError is returned by queries issued while no graph is committed.
type NotReadyError struct {
	State string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("graph not ready (state %s)", e.State)
}

// StoreUnavailableError reports that the graph store could not be reached
// within the timeout after the configured retries.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// QueryError reports an analysis query that could not complete because the
// store failed underneath it.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s failed: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsNotReady reports whether err is, or wraps, a *NotReadyError.
func IsNotReady(err error) bool {
	var nr *NotReadyError
	return errors.As(err, &nr)
}
