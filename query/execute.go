package query

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Alp4ka/sqlpager/clause"
	"github.com/Alp4ka/sqlpager/grammar"
)

// ErrInsertIDUnsupported is returned by InsertGetID when neither the dialect nor the
// connection can report the generated id.
var ErrInsertIDUnsupported = errors.New("connection cannot report the inserted id")

func (b *Builder) connection() (Connection, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.conn == nil {
		return nil, ErrNoConnection
	}

	return b.conn, nil
}

// Get runs the select and returns every row. columns are selected when the query has
// no select list of its own.
func (b *Builder) Get(ctx context.Context, columns ...any) ([]Row, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	q := b
	if len(columns) > 0 && b.reg.Columns == nil {
		q = b.Clone()
		q.reg.Columns = columns
	}

	sql, err := q.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("compile select: %w", err)
	}

	rows, err := conn.Select(ctx, sql, q.Bindings(), !b.useWrite)
	if err != nil {
		return nil, fmt.Errorf("run select: %w", err)
	}

	return rows, nil
}

// First returns the first row, or nil when there is none.
func (b *Builder) First(ctx context.Context, columns ...any) (Row, error) {
	rows, err := b.Clone().Limit(1).Get(ctx, columns...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}

	return rows[0], nil
}

// Value returns column of the first row, or nil when there is none.
func (b *Builder) Value(ctx context.Context, column any) (any, error) {
	row, err := b.Clone().Select(column).First(ctx)
	if err != nil || row == nil {
		return nil, err
	}

	return singleValue(row, column), nil
}

func singleValue(row Row, column any) any {
	if v, ok := lookup(row, columnKey(column)); ok {
		return v
	}
	for _, v := range row {
		return v
	}

	return nil
}

// Pluck returns column of every row.
func (b *Builder) Pluck(ctx context.Context, column any) ([]any, error) {
	rows, err := b.Clone().Select(column).Get(ctx)
	if err != nil {
		return nil, err
	}

	ret := make([]any, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, singleValue(row, column))
	}

	return ret, nil
}

// Exists reports whether the query matches any row.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	conn, err := b.connection()
	if err != nil {
		return false, err
	}

	sql, err := b.grammar.CompileExists(b.reg)
	if err != nil {
		return false, fmt.Errorf("compile exists: %w", err)
	}

	rows, err := conn.Select(ctx, sql, b.Bindings(), !b.useWrite)
	if err != nil {
		return false, fmt.Errorf("run exists: %w", err)
	}
	if len(rows) == 0 {
		return false, nil
	}

	v, _ := lookup(rows[0], "exists")

	return truthy(v), nil
}

// DoesntExist negates Exists.
func (b *Builder) DoesntExist(ctx context.Context) (bool, error) {
	exists, err := b.Exists(ctx)
	return !exists, err
}

func truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case nil:
		return false
	case []byte:
		return truthy(string(val))
	case string:
		parsed, err := strconv.ParseBool(val)
		return err == nil && parsed
	default:
		n, err := toInt64(v)
		return err == nil && n != 0
	}
}

// Aggregate runs fn over columns ("*" by default) and returns the raw result.
func (b *Builder) Aggregate(ctx context.Context, fn string, columns ...any) (any, error) {
	if len(columns) == 0 {
		columns = []any{"*"}
	}

	var q *Builder
	if len(b.reg.Unions) > 0 || len(b.reg.Havings) > 0 {
		q = b.Clone()
	} else {
		q = b.CloneWithout(ComponentColumns)
		q.reg.Bindings.Reset(clause.BindingSelect)
	}
	q.reg.Aggregate = &clause.Aggregate{Function: fn, Columns: columns}

	rows, err := q.Get(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}

	v, _ := lookup(rows[0], "aggregate")

	return v, nil
}

// Count returns the number of matching rows.
func (b *Builder) Count(ctx context.Context, columns ...any) (int64, error) {
	v, err := b.Aggregate(ctx, "count", withoutSelectAliases(columns)...)
	if err != nil {
		return 0, err
	}

	return toInt64(v)
}

func (b *Builder) Min(ctx context.Context, column any) (any, error) {
	return b.Aggregate(ctx, "min", column)
}

func (b *Builder) Max(ctx context.Context, column any) (any, error) {
	return b.Aggregate(ctx, "max", column)
}

// Sum returns the sum of column, 0 when no row matches.
func (b *Builder) Sum(ctx context.Context, column any) (any, error) {
	v, err := b.Aggregate(ctx, "sum", column)
	if err == nil && v == nil {
		v = int64(0)
	}

	return v, err
}

func (b *Builder) Avg(ctx context.Context, column any) (any, error) {
	return b.Aggregate(ctx, "avg", column)
}

// Insert inserts rows. All rows must share the same keys.
func (b *Builder) Insert(ctx context.Context, rows ...map[string]any) error {
	if len(rows) == 0 {
		return nil
	}

	conn, err := b.connection()
	if err != nil {
		return err
	}

	sql, err := b.grammar.CompileInsert(b.reg, rows)
	if err != nil {
		return fmt.Errorf("compile insert: %w", err)
	}

	if err = conn.Statement(ctx, sql, grammar.InsertBindings(rows)); err != nil {
		return fmt.Errorf("run insert: %w", err)
	}

	return nil
}

// InsertOrIgnore inserts rows skipping those that violate a unique constraint.
func (b *Builder) InsertOrIgnore(ctx context.Context, rows ...map[string]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	sql, err := b.grammar.CompileInsertOrIgnore(b.reg, rows)
	if err != nil {
		return 0, fmt.Errorf("compile insert or ignore: %w", err)
	}

	return affecting(ctx, conn, "insert or ignore", sql, grammar.InsertBindings(rows))
}

// InsertGetID inserts row and returns the generated id. sequence names the id
// column, "id" by default.
func (b *Builder) InsertGetID(ctx context.Context, row map[string]any, sequence string) (int64, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	sql, err := b.grammar.CompileInsertGetID(b.reg, row, sequence)
	if err != nil {
		return 0, fmt.Errorf("compile insert: %w", err)
	}

	bindings := grammar.InsertBindings([]map[string]any{row})

	switch b.grammar.Name() {
	case "pgsql", "sqlsrv":
		rows, err := conn.Select(ctx, sql, bindings, false)
		if err != nil {
			return 0, fmt.Errorf("run insert: %w", err)
		}
		if len(rows) == 0 {
			return 0, fmt.Errorf("insert returned no id")
		}
		return toInt64(singleValue(rows[0], firstOr([]string{sequence}, "id")))
	}

	inserter, ok := conn.(IDInserter)
	if !ok {
		return 0, ErrInsertIDUnsupported
	}

	id, err := inserter.InsertGetID(ctx, sql, bindings)
	if err != nil {
		return 0, fmt.Errorf("run insert: %w", err)
	}

	return id, nil
}

// InsertUsing inserts the rows selected by query into columns.
func (b *Builder) InsertUsing(ctx context.Context, columns []string, query any) (int64, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	subSQL, bindings, err := b.compileSub(query)
	if err != nil {
		return 0, err
	}

	sql, err := b.grammar.CompileInsertUsing(b.reg, columns, subSQL)
	if err != nil {
		return 0, fmt.Errorf("compile insert using: %w", err)
	}

	return affecting(ctx, conn, "insert using", sql, clause.CleanBindings(bindings))
}

// Upsert inserts rows or updates the update columns of rows conflicting on
// uniqueBy. A nil update updates every inserted column; an empty one degrades to a
// plain insert.
func (b *Builder) Upsert(ctx context.Context, rows []map[string]any, uniqueBy []string, update []string) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if update != nil && len(update) == 0 {
		if err := b.Insert(ctx, rows...); err != nil {
			return 0, err
		}
		return int64(len(rows)), nil
	}
	if update == nil {
		update = grammar.SortedKeys(rows[0])
	}

	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	sql, err := b.grammar.CompileUpsert(b.reg, rows, uniqueBy, update)
	if err != nil {
		return 0, fmt.Errorf("compile upsert: %w", err)
	}

	return affecting(ctx, conn, "upsert", sql, grammar.InsertBindings(rows))
}

// Update sets values on the matching rows. Keys may address JSON paths ("meta->a").
func (b *Builder) Update(ctx context.Context, values map[string]any) (int64, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	sql, err := b.grammar.CompileUpdate(b.reg, values)
	if err != nil {
		return 0, fmt.Errorf("compile update: %w", err)
	}

	bindings, err := b.grammar.PrepareBindingsForUpdate(b.reg, values)
	if err != nil {
		return 0, fmt.Errorf("prepare update bindings: %w", err)
	}

	return affecting(ctx, conn, "update", sql, bindings)
}

// Delete removes the matching rows.
func (b *Builder) Delete(ctx context.Context) (int64, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	sql, err := b.grammar.CompileDelete(b.reg)
	if err != nil {
		return 0, fmt.Errorf("compile delete: %w", err)
	}

	return affecting(ctx, conn, "delete", sql, b.grammar.PrepareBindingsForDelete(b.reg))
}

// Truncate empties the table.
func (b *Builder) Truncate(ctx context.Context) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	statements, err := b.grammar.CompileTruncate(b.reg)
	if err != nil {
		return fmt.Errorf("compile truncate: %w", err)
	}

	for _, s := range statements {
		if err = conn.Statement(ctx, s.SQL, s.Bindings); err != nil {
			return fmt.Errorf("run truncate: %w", err)
		}
	}

	return nil
}

func affecting(ctx context.Context, conn Connection, op, sql string, bindings []any) (int64, error) {
	n, err := conn.Affecting(ctx, sql, bindings)
	if err != nil {
		return 0, fmt.Errorf("run %s: %w", op, err)
	}

	return n, nil
}

// toInt64 converts a driver value holding a whole number.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	case []byte:
		return toInt64(string(n))
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(n, 64)
			if ferr != nil {
				return 0, fmt.Errorf("cannot convert %q to integer: %w", n, err)
			}
			return int64(f), nil
		}
		return i, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to integer", v)
	}
}
