package db

import (
	"errors"
	"strconv"
)

// Sentinel errors for database operations.
var (
	ErrUnexpectedStatus   = errors.New("db: unexpected status")
	ErrMalformedResponse  = errors.New("db: malformed response")
	ErrUnsupportedArgType = errors.New("db: unsupported argument type")
)

// Op constants name operations for error context.
const (
	OpRPC  = "RPC"
	OpPing = "PING"
)

// Error wraps an underlying error with the operation and procedure name for diagnostics.
type Error struct {
	Op        string
	Procedure string
	Err       error
}

func (e *Error) Error() string {
	if e.Procedure == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Procedure + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// StatusError carries a non-2xx HTTP status from the REST driver.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return ErrUnexpectedStatus.Error() + " " + strconv.Itoa(e.Status)
	}
	return ErrUnexpectedStatus.Error() + " " + strconv.Itoa(e.Status) + ": " + e.Body
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }
