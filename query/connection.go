package query

import (
	"context"
	"errors"
)

// Row is a single result row keyed by column name.
type Row = map[string]any

// ErrNoConnection is returned when a builder without a connection runs a query.
var ErrNoConnection = errors.New("query builder has no connection")

// Connection runs compiled statements.
type Connection interface {
	// Select runs a query returning rows. useRead reports whether a read replica may
	// serve it.
	Select(ctx context.Context, query string, bindings []any, useRead bool) ([]map[string]any, error)
	// Affecting runs a statement and returns the number of affected rows.
	Affecting(ctx context.Context, query string, bindings []any) (int64, error)
	// Statement runs a statement without a result.
	Statement(ctx context.Context, query string, bindings []any) error
}

// IDInserter is implemented by connections able to report the id generated by an
// insert. Dialects that return the id as a row (Postgres, SQL Server) do not need it.
type IDInserter interface {
	InsertGetID(ctx context.Context, query string, bindings []any) (int64, error)
}
