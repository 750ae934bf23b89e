package conn

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	"github.com/Alp4ka/sqlpager/grammar"
	"github.com/Alp4ka/sqlpager/query"
	"github.com/Alp4ka/sqlpager/schema"
)

// GORM runs statements through a *gorm.DB, so they share its pool, its
// transaction and its logger.
type GORM struct {
	db   *gorm.DB
	opts options
}

var (
	_ query.Connection  = (*GORM)(nil)
	_ query.IDInserter  = (*GORM)(nil)
	_ schema.Connection = (*GORM)(nil)
)

// NewGORM wraps db. GORM binds "?" itself, so placeholders are left alone unless
// WithPlaceholder says otherwise.
func NewGORM(db *gorm.DB, opts ...Option) *GORM {
	return &GORM{
		db: db,
		opts: newOptions(func(grammar.Grammar) squirrel.PlaceholderFormat {
			return squirrel.Question
		}, opts),
	}
}

// Select runs a query through db.Raw and returns its rows.
func (c *GORM) Select(ctx context.Context, query string, bindings []any, _ bool) (ret []map[string]any, err error) {
	start := time.Now()
	defer func() { c.opts.log(query, bindings, start, err) }()

	prepared, err := c.opts.prepare(query)
	if err != nil {
		return nil, fmt.Errorf("rewrite placeholders: %w", err)
	}

	rows, err := c.db.WithContext(ctx).Raw(prepared, bindings...).Rows()
	if err != nil {
		return nil, err
	}

	return scanRows(rows)
}

// Affecting runs a statement through db.Exec.
func (c *GORM) Affecting(ctx context.Context, query string, bindings []any) (n int64, err error) {
	start := time.Now()
	defer func() { c.opts.log(query, bindings, start, err) }()

	prepared, err := c.opts.prepare(query)
	if err != nil {
		return 0, fmt.Errorf("rewrite placeholders: %w", err)
	}

	res := c.db.WithContext(ctx).Exec(prepared, bindings...)

	return res.RowsAffected, res.Error
}

// Statement runs a statement through db.Exec.
func (c *GORM) Statement(ctx context.Context, query string, bindings []any) error {
	_, err := c.Affecting(ctx, query, bindings)
	return err
}

// InsertGetID runs an insert on the underlying pool, GORM's Exec does not expose
// the last insert id.
func (c *GORM) InsertGetID(ctx context.Context, query string, bindings []any) (id int64, err error) {
	start := time.Now()
	defer func() { c.opts.log(query, bindings, start, err) }()

	prepared, err := c.opts.prepare(query)
	if err != nil {
		return 0, fmt.Errorf("rewrite placeholders: %w", err)
	}

	res, err := c.db.WithContext(ctx).Statement.ConnPool.ExecContext(ctx, prepared, bindings...)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}
