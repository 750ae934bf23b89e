package grammar

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Alp4ka/sqlpager/clause"
)

// SQLite is the SQLite grammar.
type SQLite struct {
	Base
}

// NewSQLite creates a SQLite grammar.
func NewSQLite() *SQLite {
	g := &SQLite{}
	g.Base = Base{name: "sqlite", self: g}

	return g
}

var (
	_ Grammar = (*SQLite)(nil)
	_ dialect = (*SQLite)(nil)
)

var sqliteDateFormats = map[clause.WhereType]string{
	clause.WhereDate:  "%Y-%m-%d",
	clause.WhereDay:   "%d",
	clause.WhereMonth: "%m",
	clause.WhereYear:  "%Y",
	clause.WhereTime:  "%H:%M:%S",
}

func (g *SQLite) wrapUnion(sql string) string {
	return "select * from (" + sql + ")"
}

func (g *SQLite) wrapJSONSelector(value string) string {
	field, path := g.wrapJSONFieldAndPath(value)

	return "json_extract(" + field + path + ")"
}

func (g *SQLite) dateBasedWhere(kind string, _ *clause.Registry, w *clause.Where) string {
	format := sqliteDateFormats[clause.WhereType(kind)]

	return "strftime('" + format + "', " + g.Wrap(w.Column) + ") " + w.Operator + " cast(" + g.Parameter(w.Value) + " as text)"
}

func (g *SQLite) compileJSONLength(column any, operator, value string) (string, error) {
	field, path := g.wrapJSONFieldAndPath(fmt.Sprint(column))

	return "json_array_length(" + field + path + ") " + operator + " " + value, nil
}

// compileLock returns nothing: SQLite has no row locks.
func (g *SQLite) compileLock(_ *clause.Registry, _ any) string {
	return ""
}

func (g *SQLite) CompileInsertOrIgnore(q *clause.Registry, rows []map[string]any) (string, error) {
	sql, err := g.CompileInsert(q, rows)
	if err != nil {
		return "", err
	}

	return strings.Replace(sql, "insert", "insert or ignore", 1), nil
}

func (g *SQLite) CompileUpsert(q *clause.Registry, rows []map[string]any, uniqueBy []string, update []string) (string, error) {
	return compileOnConflictUpsert(&g.Base, q, rows, uniqueBy, update)
}

func (g *SQLite) wrapUpdateColumn(key string) string {
	segments := strings.Split(key, ".")

	return g.Wrap(segments[len(segments)-1])
}

// compileJSONUpdateColumn folds the assignments into
// json_set(json_set(ifnull("c", json('{}')), '$."a"', ?), '$."b"', ?).
func (g *SQLite) compileJSONUpdateColumn(field string, assignments []jsonAssignment) (string, []any, error) {
	column := g.wrapUpdateColumn(field)

	expr, bindings := foldJSONAssignments(column, assignments, func(expr string, i int, a jsonAssignment) (string, []any) {
		if i == 0 {
			expr = "ifnull(" + expr + ", json('{}'))"
		}
		value, bound := g.jsonUpdateValue(a.Value)
		return "json_set(" + expr + ", " + wrapJSONPath(a.Path, "->") + ", " + value + ")", bound
	})

	return column + " = " + expr, bindings, nil
}

func (g *SQLite) jsonUpdateValue(v any) (string, []any) {
	if sql, ok := clause.ExpressionValue(v); ok {
		return sql, nil
	}
	if b, ok := v.(bool); ok {
		return fmt.Sprintf("json('%t')", b), nil
	}
	if isComposite(v) {
		return "json(?)", []any{bindingValue(v)}
	}

	return "?", []any{v}
}

func (g *SQLite) PrepareBindingsForUpdate(q *clause.Registry, values map[string]any) ([]any, error) {
	return g.prepareBindingsValuesFirst(q, values)
}

// compileUpdateWithJoins rewrites the update as "... where rowid in (select ...)".
func (g *SQLite) compileUpdateWithJoins(q *clause.Registry, table, columns, _ string) (string, error) {
	sub, err := g.rowIDSelect(q, "rowid")
	if err != nil {
		return "", err
	}

	return "update " + table + " set " + columns + " where " + g.Wrap("rowid") + " in (" + sub + ")", nil
}

func (g *SQLite) compileUpdateWithoutJoins(q *clause.Registry, table, columns, where string) (string, error) {
	if q.Limit != nil {
		return g.compileUpdateWithJoins(q, table, columns, where)
	}

	return g.Base.compileUpdateWithoutJoins(q, table, columns, where)
}

func (g *SQLite) compileDeleteWithJoins(q *clause.Registry, table, _ string) (string, error) {
	sub, err := g.rowIDSelect(q, "rowid")
	if err != nil {
		return "", err
	}

	return "delete from " + table + " where " + g.Wrap("rowid") + " in (" + sub + ")", nil
}

func (g *SQLite) compileDeleteWithoutJoins(q *clause.Registry, table, where string) (string, error) {
	if q.Limit != nil {
		return g.compileDeleteWithJoins(q, table, where)
	}

	return g.Base.compileDeleteWithoutJoins(q, table, where)
}

// CompileTruncate clears the table and resets its autoincrement sequence.
func (g *SQLite) CompileTruncate(q *clause.Registry) ([]Statement, error) {
	table := g.tablePrefix + fmt.Sprint(q.From)

	return []Statement{
		{SQL: "delete from sqlite_sequence where name = ?", Bindings: []any{table}},
		{SQL: "delete from " + g.WrapTable(q.From)},
	}, nil
}

func (g *SQLite) escapeBinary(v []byte) (string, error) {
	return "x'" + hex.EncodeToString(v) + "'", nil
}
