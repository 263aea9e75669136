package session

import (
	"errors"
	"fmt"
)

// ErrNoTransaction is returned when an update runs outside a transaction.
var ErrNoTransaction = errors.New("no active transaction; updates must run inside a transaction")

// ErrTransactionActive is returned by Begin when a transaction is already open.
var ErrTransactionActive = errors.New("a transaction is already active")

// ErrNotConnected is returned when a session is used before it is connected.
var ErrNotConnected = errors.New("database connection not established")

// QueryError is a failure raised while executing a forwarded statement.
type QueryError struct {
	// Statement is the text the failure refers to. For positioned backend
	// errors this is the SQL the backend actually received.
	Statement string

	// Column is the 1-based character position of the offending token in
	// Statement, or 0 when the backend did not report one.
	Column int

	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ConnectivityError reports a non-recoverable connection failure.
type ConnectivityError struct {
	// Code is the backend error code (e.g., a SQLSTATE), if known.
	Code    string
	Message string
	Err     error
}

func (e *ConnectivityError) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("connection failed: %v", e.Err)
	}
	return e.Message
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// UnknownBackendError is returned when an unregistered driver is requested.
type UnknownBackendError struct {
	Driver    string
	Available []string
}

func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("unknown session driver %q\nAvailable drivers: %v\nHint: Check profiles.<name>.driver in entconsole.yaml", e.Driver, e.Available)
}

func newSyntaxError(text string, column int, detail string) *QueryError {
	return &QueryError{
		Statement: text,
		Err:       fmt.Errorf("Exception Description: Syntax error parsing [%s], column %d: %s", text, column, detail), //nolint:staticcheck // message format is parsed by the diagnostic renderer
	}
}

func newPathError(text string, column int, path string) *QueryError {
	return &QueryError{
		Statement: text,
		Err:       fmt.Errorf("Exception Description: Problem compiling [%s], column %d: the state field path [%s] cannot be resolved to a valid type", text, column, path), //nolint:staticcheck // message format is parsed by the diagnostic renderer
	}
}

func newUnknownEntityError(text, name string) *QueryError {
	return &QueryError{
		Statement: text,
		Err:       fmt.Errorf("Unknown entity type: %s", name), //nolint:staticcheck // matched by the diagnostic renderer
	}
}
