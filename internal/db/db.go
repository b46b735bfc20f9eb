package db

import "context"

// Store is the remote database facade: a named-procedure caller with lifecycle hooks.
type Store interface {
	Pinger
	ProcedureCaller
	Driver() string
	Close()
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Row is one row returned by a procedure, keyed by column name.
type Row = map[string]any

// ProcedureCaller executes a stored procedure server-side and returns its rows in order.
// A procedure returning no rows yields an empty, non-nil slice.
type ProcedureCaller interface {
	CallProcedure(ctx context.Context, call *ProcedureCall) ([]Row, error)
}

// Arg is a named procedure argument. Order matters for positional drivers.
type Arg struct {
	Name  string
	Value any
}

// ProcedureCall names a procedure and its arguments.
type ProcedureCall struct {
	Name string
	Args []Arg
}
