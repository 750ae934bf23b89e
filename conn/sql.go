package conn

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Alp4ka/sqlpager/query"
	"github.com/Alp4ka/sqlpager/schema"
)

// Queryer is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQL runs statements on a database/sql handle.
type SQL struct {
	db   Queryer
	opts options
}

var (
	_ query.Connection  = (*SQL)(nil)
	_ query.IDInserter  = (*SQL)(nil)
	_ schema.Connection = (*SQL)(nil)
)

// NewSQL wraps db.
func NewSQL(db Queryer, opts ...Option) *SQL {
	return &SQL{db: db, opts: newOptions(grammarPlaceholder, opts)}
}

// Select runs a query and returns its rows. There are no read replicas at this
// level, useRead is ignored.
func (c *SQL) Select(ctx context.Context, query string, bindings []any, _ bool) (ret []map[string]any, err error) {
	start := time.Now()
	defer func() { c.opts.log(query, bindings, start, err) }()

	prepared, err := c.opts.prepare(query)
	if err != nil {
		return nil, fmt.Errorf("rewrite placeholders: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, prepared, bindings...)
	if err != nil {
		return nil, err
	}

	return scanRows(rows)
}

func (c *SQL) exec(ctx context.Context, query string, bindings []any) (res sql.Result, err error) {
	start := time.Now()
	defer func() { c.opts.log(query, bindings, start, err) }()

	prepared, err := c.opts.prepare(query)
	if err != nil {
		return nil, fmt.Errorf("rewrite placeholders: %w", err)
	}

	return c.db.ExecContext(ctx, prepared, bindings...)
}

// Affecting runs a statement and returns the number of affected rows.
func (c *SQL) Affecting(ctx context.Context, query string, bindings []any) (int64, error) {
	res, err := c.exec(ctx, query, bindings)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// Statement runs a statement and discards its result.
func (c *SQL) Statement(ctx context.Context, query string, bindings []any) error {
	_, err := c.exec(ctx, query, bindings)
	return err
}

// InsertGetID runs an insert and returns the id the driver reports.
func (c *SQL) InsertGetID(ctx context.Context, query string, bindings []any) (int64, error) {
	res, err := c.exec(ctx, query, bindings)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}
