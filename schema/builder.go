package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Connection runs schema statements. It is satisfied by the adapters of package conn.
type Connection interface {
	Select(ctx context.Context, sql string, bindings []any, useReadPdo bool) ([]map[string]any, error)
	Statement(ctx context.Context, sql string, bindings []any) error
}

// Builder compiles blueprints with a Grammar and runs them on a Connection.
type Builder struct {
	conn    Connection
	grammar Grammar
	schema  string
}

// NewBuilder creates a schema builder.
func NewBuilder(conn Connection, g Grammar) *Builder {
	return &Builder{conn: conn, grammar: g}
}

// WithSchema sets the database schema used by introspection queries.
func (b *Builder) WithSchema(schema string) *Builder {
	b.schema = schema
	return b
}

// Grammar returns the schema grammar of the builder.
func (b *Builder) Grammar() Grammar {
	return b.grammar
}

func (b *Builder) prefix() string {
	return b.grammar.Query().TablePrefix()
}

func (b *Builder) blueprint(table string, fn func(*Blueprint)) *Blueprint {
	bp := NewBlueprint(table, b.prefix())
	if fn != nil {
		fn(bp)
	}

	return bp
}

func (b *Builder) build(ctx context.Context, bp *Blueprint) error {
	statements, err := bp.ToSQL(b.grammar)
	if err != nil {
		return fmt.Errorf("compile blueprint for table %s: %w", bp.Table, err)
	}

	return b.run(ctx, statements...)
}

func (b *Builder) run(ctx context.Context, statements ...string) error {
	for _, sql := range statements {
		if err := b.conn.Statement(ctx, sql, nil); err != nil {
			return fmt.Errorf("run schema statement: %w", err)
		}
	}

	return nil
}

// Create creates table with the columns and commands fn adds to the blueprint.
func (b *Builder) Create(ctx context.Context, table string, fn func(*Blueprint)) error {
	bp := NewBlueprint(table, b.prefix())
	bp.Create()
	fn(bp)

	return b.build(ctx, bp)
}

// Table modifies an existing table.
func (b *Builder) Table(ctx context.Context, table string, fn func(*Blueprint)) error {
	return b.build(ctx, b.blueprint(table, fn))
}

func (b *Builder) Drop(ctx context.Context, table string) error {
	return b.build(ctx, b.blueprint(table, (*Blueprint).Drop))
}

func (b *Builder) DropIfExists(ctx context.Context, table string) error {
	return b.build(ctx, b.blueprint(table, (*Blueprint).DropIfExists))
}

func (b *Builder) Rename(ctx context.Context, from, to string) error {
	return b.build(ctx, b.blueprint(from, func(bp *Blueprint) { bp.Rename(to) }))
}

func (b *Builder) DropColumns(ctx context.Context, table string, columns ...string) error {
	return b.build(ctx, b.blueprint(table, func(bp *Blueprint) { bp.DropColumn(columns...) }))
}

func (b *Builder) CreateDatabase(ctx context.Context, name string) error {
	sql, err := b.grammar.CompileCreateDatabase(name)
	if err != nil {
		return err
	}

	return b.run(ctx, sql)
}

func (b *Builder) DropDatabaseIfExists(ctx context.Context, name string) error {
	sql, err := b.grammar.CompileDropDatabaseIfExists(name)
	if err != nil {
		return err
	}

	return b.run(ctx, sql)
}

func (b *Builder) CreateView(ctx context.Context, name, sql string) error {
	compiled, err := b.grammar.CompileCreateView(name, sql)
	if err != nil {
		return err
	}

	return b.run(ctx, compiled)
}

func (b *Builder) DropView(ctx context.Context, name string) error {
	sql, err := b.grammar.CompileDropView(name)
	if err != nil {
		return err
	}

	return b.run(ctx, sql)
}

func (b *Builder) EnableForeignKeyConstraints(ctx context.Context) error {
	sql, err := b.grammar.CompileEnableForeignKeyConstraints()
	if err != nil {
		return err
	}

	return b.run(ctx, sql)
}

func (b *Builder) DisableForeignKeyConstraints(ctx context.Context) error {
	sql, err := b.grammar.CompileDisableForeignKeyConstraints()
	if err != nil {
		return err
	}

	return b.run(ctx, sql)
}

// WithoutForeignKeyConstraints runs fn with constraints disabled and re-enables them
// afterwards, even when fn fails.
func (b *Builder) WithoutForeignKeyConstraints(ctx context.Context, fn func() error) (err error) {
	if err = b.DisableForeignKeyConstraints(ctx); err != nil {
		return err
	}
	defer func() {
		if enableErr := b.EnableForeignKeyConstraints(ctx); err == nil {
			err = enableErr
		}
	}()

	return fn()
}

func (b *Builder) selectRows(ctx context.Context, compile func() (string, error)) ([]map[string]any, error) {
	sql, err := compile()
	if err != nil {
		return nil, err
	}

	rows, err := b.conn.Select(ctx, sql, nil, false)
	if err != nil {
		return nil, fmt.Errorf("run introspection query: %w", err)
	}

	return rows, nil
}

// GetTables lists the tables of the current schema.
func (b *Builder) GetTables(ctx context.Context) ([]map[string]any, error) {
	return b.selectRows(ctx, func() (string, error) { return b.grammar.CompileGetTables(b.schema) })
}

func (b *Builder) GetViews(ctx context.Context) ([]map[string]any, error) {
	return b.selectRows(ctx, func() (string, error) { return b.grammar.CompileGetViews(b.schema) })
}

func (b *Builder) GetColumns(ctx context.Context, table string) ([]map[string]any, error) {
	return b.selectRows(ctx, func() (string, error) { return b.grammar.CompileGetColumns(b.schema, b.prefix()+table) })
}

func (b *Builder) GetIndexes(ctx context.Context, table string) ([]map[string]any, error) {
	return b.selectRows(ctx, func() (string, error) { return b.grammar.CompileGetIndexes(b.schema, b.prefix()+table) })
}

func (b *Builder) GetForeignKeys(ctx context.Context, table string) ([]map[string]any, error) {
	return b.selectRows(ctx, func() (string, error) { return b.grammar.CompileGetForeignKeys(b.schema, b.prefix()+table) })
}

// HasTable reports whether the prefixed table exists, comparing names case-insensitively.
func (b *Builder) HasTable(ctx context.Context, table string) (bool, error) {
	tables, err := b.GetTables(ctx)
	if err != nil {
		return false, err
	}

	name := strings.ToLower(b.prefix() + table)

	return lo.ContainsBy(tables, func(row map[string]any) bool {
		return strings.ToLower(fmt.Sprint(row["name"])) == name
	}), nil
}

// GetColumnListing returns the column names of table.
func (b *Builder) GetColumnListing(ctx context.Context, table string) ([]string, error) {
	columns, err := b.GetColumns(ctx, table)
	if err != nil {
		return nil, err
	}

	return lo.Map(columns, func(row map[string]any, _ int) string { return fmt.Sprint(row["name"]) }), nil
}

// HasColumn reports whether table has every given column.
func (b *Builder) HasColumn(ctx context.Context, table string, columns ...string) (bool, error) {
	listing, err := b.GetColumnListing(ctx, table)
	if err != nil {
		return false, err
	}

	lower := lo.Map(listing, func(c string, _ int) string { return strings.ToLower(c) })

	return lo.EveryBy(columns, func(c string) bool { return lo.Contains(lower, strings.ToLower(c)) }), nil
}
