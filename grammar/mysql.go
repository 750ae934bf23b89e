package grammar

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/Alp4ka/sqlpager/clause"
)

// MySQL is the MySQL/MariaDB grammar.
type MySQL struct {
	Base
}

// NewMySQL creates a MySQL grammar.
func NewMySQL() *MySQL {
	g := &MySQL{}
	g.Base = Base{name: "mysql", self: g}

	return g
}

var (
	_ Grammar = (*MySQL)(nil)
	_ dialect = (*MySQL)(nil)
)

func (g *MySQL) wrapValue(segment string) string {
	if segment == "*" {
		return segment
	}

	return "`" + strings.ReplaceAll(segment, "`", "``") + "`"
}

func (g *MySQL) wrapJSONSelector(value string) string {
	field, path := g.wrapJSONFieldAndPath(value)

	return "json_unquote(json_extract(" + field + path + "))"
}

func (g *MySQL) compileJSONContains(column any, value string) (string, error) {
	field, path := g.wrapJSONFieldAndPath(fmt.Sprint(column))

	return "json_contains(" + field + ", " + value + path + ")", nil
}

func (g *MySQL) compileJSONLength(column any, operator, value string) (string, error) {
	field, path := g.wrapJSONFieldAndPath(fmt.Sprint(column))

	return "json_length(" + field + path + ") " + operator + " " + value, nil
}

func (g *MySQL) compileLock(_ *clause.Registry, lock any) string {
	switch l := lock.(type) {
	case bool:
		return lo.Ternary(l, "for update", "lock in share mode")
	case string:
		return l
	default:
		return ""
	}
}

func (g *MySQL) CompileRandom(seed string) string {
	return "RAND(" + seed + ")"
}

func (g *MySQL) CompileInsert(q *clause.Registry, rows []map[string]any) (string, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "insert into " + g.WrapTable(q.From) + " () values ()", nil
	}

	return g.Base.CompileInsert(q, rows)
}

func (g *MySQL) CompileInsertOrIgnore(q *clause.Registry, rows []map[string]any) (string, error) {
	sql, err := g.CompileInsert(q, rows)
	if err != nil {
		return "", err
	}

	return strings.Replace(sql, "insert", "insert ignore", 1), nil
}

func (g *MySQL) CompileUpsert(q *clause.Registry, rows []map[string]any, _ []string, update []string) (string, error) {
	sql, err := g.CompileInsert(q, rows)
	if err != nil {
		return "", err
	}

	columns := lo.Map(update, func(c string, _ int) string {
		return g.Wrap(c) + " = values(" + g.Wrap(c) + ")"
	})

	return sql + " on duplicate key update " + strings.Join(columns, ", "), nil
}

// compileJSONUpdateColumn folds the assignments into json_set(json_set(`c`, p1, v1), p2, v2).
func (g *MySQL) compileJSONUpdateColumn(field string, assignments []jsonAssignment) (string, []any, error) {
	expr, bindings := foldJSONAssignments(g.Wrap(field), assignments, func(expr string, _ int, a jsonAssignment) (string, []any) {
		value, bound := g.jsonUpdateValue(a.Value)
		return "json_set(" + expr + ", " + wrapJSONPath(a.Path, "->") + ", " + value + ")", bound
	})

	return g.Wrap(field) + " = " + expr, bindings, nil
}

func (g *MySQL) jsonUpdateValue(v any) (string, []any) {
	if sql, ok := clause.ExpressionValue(v); ok {
		return sql, nil
	}
	if b, ok := v.(bool); ok {
		return strconv.FormatBool(b), nil
	}
	if isComposite(v) {
		return "cast(? as json)", []any{bindingValue(v)}
	}

	return "?", []any{v}
}

func (g *MySQL) compileUpdateWithoutJoins(q *clause.Registry, table, columns, where string) (string, error) {
	sql, _ := g.Base.compileUpdateWithoutJoins(q, table, columns, where)

	return g.appendOrderAndLimit(q, sql), nil
}

func (g *MySQL) compileDeleteWithoutJoins(q *clause.Registry, table, where string) (string, error) {
	sql, _ := g.Base.compileDeleteWithoutJoins(q, table, where)

	return g.appendOrderAndLimit(q, sql), nil
}

func (g *MySQL) appendOrderAndLimit(q *clause.Registry, sql string) string {
	sql = strings.TrimSpace(sql)
	if len(q.Orders) > 0 {
		sql += " " + g.compileOrders(q.Orders)
	}
	if q.Limit != nil {
		sql += " limit " + strconv.Itoa(*q.Limit)
	}

	return sql
}

func (g *MySQL) escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)

	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

func (g *MySQL) escapeBinary(v []byte) (string, error) {
	return "x'" + hex.EncodeToString(v) + "'", nil
}
