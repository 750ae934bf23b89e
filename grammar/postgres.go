package grammar

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/Alp4ka/sqlpager/clause"
)

// Postgres is the PostgreSQL grammar.
type Postgres struct {
	Base
}

// NewPostgres creates a PostgreSQL grammar.
func NewPostgres() *Postgres {
	g := &Postgres{}
	g.Base = Base{name: "pgsql", self: g}

	return g
}

var (
	_ Grammar = (*Postgres)(nil)
	_ dialect = (*Postgres)(nil)
)

// wrapJSONSelector renders "meta->a->b" as "meta"->'a'->>'b'.
func (g *Postgres) wrapJSONSelector(value string) string {
	path := strings.Split(value, "->")
	field := g.wrapSegments(strings.Split(path[0], "."))

	attributes := jsonPathAttributes(path[1:], "'")
	if len(attributes) == 0 {
		return field
	}

	last := attributes[len(attributes)-1]
	if len(attributes) > 1 {
		return field + "->" + strings.Join(attributes[:len(attributes)-1], "->") + "->>" + last
	}

	return field + "->>" + last
}

func (g *Postgres) whereBasic(_ *clause.Registry, w *clause.Where) string {
	if strings.Contains(strings.ToLower(w.Operator), "like") {
		return g.Wrap(w.Column) + "::text " + w.Operator + " " + g.Parameter(w.Value)
	}

	// jsonb operators such as ?| are escaped so the driver does not bind them.
	operator := strings.ReplaceAll(w.Operator, "?", "??")

	return g.Wrap(w.Column) + " " + operator + " " + g.Parameter(w.Value)
}

func (g *Postgres) dateBasedWhere(kind string, _ *clause.Registry, w *clause.Where) string {
	column := g.Wrap(w.Column)
	switch clause.WhereType(kind) {
	case clause.WhereDate, clause.WhereTime:
		column += "::" + kind
	default:
		column = "extract(" + kind + " from " + column + ")"
	}

	return column + " " + w.Operator + " " + g.Parameter(w.Value)
}

func (g *Postgres) jsonbColumn(column any) string {
	return "(" + strings.ReplaceAll(g.Wrap(column), "->>", "->") + ")::jsonb"
}

func (g *Postgres) compileJSONContains(column any, value string) (string, error) {
	return g.jsonbColumn(column) + " @> " + value, nil
}

func (g *Postgres) compileJSONLength(column any, operator, value string) (string, error) {
	return "jsonb_array_length(" + g.jsonbColumn(column) + ") " + operator + " " + value, nil
}

func (g *Postgres) compileLock(_ *clause.Registry, lock any) string {
	switch l := lock.(type) {
	case bool:
		return lo.Ternary(l, "for update", "for share")
	case string:
		return l
	default:
		return ""
	}
}

func (g *Postgres) CompileRandom(_ string) string {
	return "random()"
}

func (g *Postgres) CompileInsertOrIgnore(q *clause.Registry, rows []map[string]any) (string, error) {
	sql, err := g.CompileInsert(q, rows)
	if err != nil {
		return "", err
	}

	return sql + " on conflict do nothing", nil
}

func (g *Postgres) CompileInsertGetID(q *clause.Registry, row map[string]any, sequence string) (string, error) {
	sql, err := g.CompileInsert(q, []map[string]any{row})
	if err != nil {
		return "", err
	}

	return sql + " returning " + g.Wrap(lo.CoalesceOrEmpty(sequence, "id")), nil
}

func (g *Postgres) CompileUpsert(q *clause.Registry, rows []map[string]any, uniqueBy []string, update []string) (string, error) {
	return compileOnConflictUpsert(&g.Base, q, rows, uniqueBy, update)
}

// compileOnConflictUpsert is the "on conflict (...) do update set" form shared by
// Postgres and SQLite.
func compileOnConflictUpsert(b *Base, q *clause.Registry, rows []map[string]any, uniqueBy []string, update []string) (string, error) {
	sql, err := b.self.CompileInsert(q, rows)
	if err != nil {
		return "", err
	}

	sql += " on conflict (" + b.Columnize(lo.ToAnySlice(uniqueBy)) + ") do "
	if len(update) == 0 {
		return sql + "nothing", nil
	}

	columns := lo.Map(update, func(c string, _ int) string {
		return b.Wrap(c) + " = " + b.Wrap("excluded."+c)
	})

	return sql + "update set " + strings.Join(columns, ", "), nil
}

// wrapUpdateColumn drops the table qualifier: the set list cannot reference it.
func (g *Postgres) wrapUpdateColumn(key string) string {
	segments := strings.Split(key, ".")

	return g.Wrap(segments[len(segments)-1])
}

// compileJSONUpdateColumn folds the assignments into
// jsonb_set(jsonb_set("c"::jsonb, '{"a"}', ?::jsonb), '{"b"}', ?::jsonb).
func (g *Postgres) compileJSONUpdateColumn(field string, assignments []jsonAssignment) (string, []any, error) {
	column := g.wrapUpdateColumn(field)

	expr, bindings := foldJSONAssignments(column+"::jsonb", assignments, func(expr string, _ int, a jsonAssignment) (string, []any) {
		path := "'{" + strings.Join(jsonPathAttributes(strings.Split(a.Path, "->"), `"`), ",") + "}'"
		value, bound := g.jsonUpdateValue(a.Value)
		return "jsonb_set(" + expr + ", " + path + ", " + value + ")", bound
	})

	return column + " = " + expr, bindings, nil
}

func (g *Postgres) jsonUpdateValue(v any) (string, []any) {
	if sql, ok := clause.ExpressionValue(v); ok {
		return sql, nil
	}
	if b, ok := v.(bool); ok {
		return fmt.Sprintf("'%t'::jsonb", b), nil
	}

	encoded, err := g.PrepareBindingForJSONContains(v)
	if err != nil {
		return "?::jsonb", []any{v}
	}

	return "?::jsonb", []any{encoded}
}

func (g *Postgres) PrepareBindingsForUpdate(q *clause.Registry, values map[string]any) ([]any, error) {
	return g.prepareBindingsValuesFirst(q, values)
}

// compileUpdateWithJoins rewrites the update as "... where ctid in (select ...)".
func (g *Postgres) compileUpdateWithJoins(q *clause.Registry, table, columns, _ string) (string, error) {
	sub, err := g.rowIDSelect(q, "ctid")
	if err != nil {
		return "", err
	}

	return "update " + table + " set " + columns + " where " + g.Wrap("ctid") + " in (" + sub + ")", nil
}

func (g *Postgres) compileUpdateWithoutJoins(q *clause.Registry, table, columns, where string) (string, error) {
	if q.Limit != nil {
		return g.compileUpdateWithJoins(q, table, columns, where)
	}

	return g.Base.compileUpdateWithoutJoins(q, table, columns, where)
}

func (g *Postgres) compileDeleteWithJoins(q *clause.Registry, table, _ string) (string, error) {
	sub, err := g.rowIDSelect(q, "ctid")
	if err != nil {
		return "", err
	}

	return "delete from " + table + " where " + g.Wrap("ctid") + " in (" + sub + ")", nil
}

func (g *Postgres) compileDeleteWithoutJoins(q *clause.Registry, table, where string) (string, error) {
	if q.Limit != nil {
		return g.compileDeleteWithJoins(q, table, where)
	}

	return g.Base.compileDeleteWithoutJoins(q, table, where)
}

func (g *Postgres) CompileTruncate(q *clause.Registry) ([]Statement, error) {
	return []Statement{{SQL: "truncate " + g.WrapTable(q.From) + " restart identity cascade"}}, nil
}

func (g *Postgres) escapeBool(v bool) string {
	return lo.Ternary(v, "true", "false")
}

func (g *Postgres) escapeBinary(v []byte) (string, error) {
	return `'\x` + hex.EncodeToString(v) + "'::bytea", nil
}
