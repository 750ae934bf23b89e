package grammar

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/Alp4ka/sqlpager/clause"
)

// SQLServer is the Microsoft SQL Server grammar.
type SQLServer struct {
	Base
}

// NewSQLServer creates a SQL Server grammar.
func NewSQLServer() *SQLServer {
	g := &SQLServer{}
	g.Base = Base{name: "sqlsrv", self: g}

	return g
}

var (
	_ Grammar = (*SQLServer)(nil)
	_ dialect = (*SQLServer)(nil)
)

func (g *SQLServer) wrapValue(segment string) string {
	if segment == "*" {
		return segment
	}

	return "[" + strings.ReplaceAll(segment, "]", "]]") + "]"
}

func (g *SQLServer) wrapUnion(sql string) string {
	return "select * from (" + sql + ") as " + g.WrapTable("temp_table")
}

func (g *SQLServer) wrapJSONSelector(value string) string {
	field, path := g.wrapJSONFieldAndPath(value)

	return "json_value(" + field + path + ")"
}

func hasPositiveOffset(offset *int) bool {
	return offset != nil && *offset > 0
}

// compileColumns adds "top n" when the query is limited without an offset.
func (g *SQLServer) compileColumns(q *clause.Registry, columns []any) string {
	if q.Aggregate != nil {
		return ""
	}

	sql := "select "
	if q.Distinct {
		sql += "distinct "
	}
	if q.Limit != nil && *q.Limit > 0 && !hasPositiveOffset(q.Offset) {
		sql += "top " + strconv.Itoa(*q.Limit) + " "
	}

	return sql + g.Columnize(columns)
}

// compileFrom carries the lock as a table hint.
func (g *SQLServer) compileFrom(q *clause.Registry) string {
	from := g.Base.compileFrom(q)

	switch l := q.Lock.(type) {
	case string:
		return from + " " + l
	case bool:
		return from + " with(rowlock," + lo.Ternary(l, "updlock,", "") + "holdlock)"
	default:
		return from
	}
}

func (g *SQLServer) compileLock(_ *clause.Registry, _ any) string {
	return ""
}

// compileLimitOffset renders "offset n rows fetch next m rows only". A plain limit on
// the main query is handled by "top" instead.
func (g *SQLServer) compileLimitOffset(q *clause.Registry, union bool) string {
	limit, offset := limitOffset(q, union)
	if !hasPositiveOffset(offset) && (limit == nil || !union) {
		return ""
	}

	orders := lo.Ternary(union, q.UnionOrders, q.Orders)
	parts := make([]string, 0, 3)
	if len(orders) == 0 {
		parts = append(parts, "order by (SELECT 0)")
	}

	skip := 0
	if offset != nil {
		skip = *offset
	}
	parts = append(parts, "offset "+strconv.Itoa(skip)+" rows")
	if limit != nil {
		parts = append(parts, "fetch next "+strconv.Itoa(*limit)+" rows only")
	}

	return strings.Join(parts, " ")
}

func (g *SQLServer) dateBasedWhere(kind string, q *clause.Registry, w *clause.Where) string {
	switch clause.WhereType(kind) {
	case clause.WhereDate, clause.WhereTime:
		return "cast(" + g.Wrap(w.Column) + " as " + kind + ") " + w.Operator + " " + g.Parameter(w.Value)
	default:
		return g.Base.dateBasedWhere(kind, q, w)
	}
}

func (g *SQLServer) compileJSONContains(column any, value string) (string, error) {
	field, path := g.wrapJSONFieldAndPath(fmt.Sprint(column))

	return value + " in (select [value] from openjson(" + field + path + "))", nil
}

func (g *SQLServer) compileJSONLength(column any, operator, value string) (string, error) {
	field, path := g.wrapJSONFieldAndPath(fmt.Sprint(column))

	return "(select count(*) from openjson(" + field + path + ")) " + operator + " " + value, nil
}

// PrepareBindingForJSONContains binds scalars as-is; booleans become JSON text.
func (g *SQLServer) PrepareBindingForJSONContains(value any) (any, error) {
	if b, ok := value.(bool); ok {
		return strconv.FormatBool(b), nil
	}

	return value, nil
}

// CompileExists selects "top 1 1 [exists]" instead of wrapping in exists().
func (g *SQLServer) CompileExists(q *clause.Registry) (string, error) {
	exists := q.Clone()
	exists.Aggregate = nil
	exists.Columns = []any{clause.Raw("1 " + g.Wrap("exists"))}
	exists.Limit = clause.IntPtr(1)

	return g.CompileSelect(exists)
}

func (g *SQLServer) CompileRandom(_ string) string {
	return "NEWID()"
}

func (g *SQLServer) CompileInsertGetID(q *clause.Registry, row map[string]any, sequence string) (string, error) {
	output := " output inserted." + g.Wrap(lo.CoalesceOrEmpty(sequence, "id"))
	table := g.WrapTable(q.From)
	if len(row) == 0 {
		return "insert into " + table + output + " default values", nil
	}

	columns, values, err := g.insertColumnsAndValues([]map[string]any{row})
	if err != nil {
		return "", err
	}

	return "insert into " + table + " (" + columns + ")" + output + " values " + values, nil
}

// CompileUpsert compiles a merge statement.
func (g *SQLServer) CompileUpsert(q *clause.Registry, rows []map[string]any, uniqueBy []string, update []string) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("upsert requires at least one row")
	}

	columns, values, err := g.insertColumnsAndValues(rows)
	if err != nil {
		return "", err
	}

	table := fmt.Sprint(q.From)
	sql := "merge " + g.WrapTable(q.From) + " using (values " + values + ") " + g.WrapTable("source") + " (" + columns + ") "

	on := lo.Map(uniqueBy, func(c string, _ int) string {
		return g.Wrap("source."+c) + " = " + g.Wrap(table+"."+c)
	})
	sql += "on " + strings.Join(on, " and ") + " "

	if len(update) > 0 {
		set := lo.Map(update, func(c string, _ int) string {
			return g.Wrap(c) + " = " + g.Wrap("source."+c)
		})
		sql += "when matched then update set " + strings.Join(set, ", ") + " "
	}

	return sql + "when not matched then insert (" + columns + ") values (" + columns + ");", nil
}

// compileJSONUpdateColumn folds the assignments into
// json_modify(json_modify([c], '$."a"', ?), '$."b"', ?).
func (g *SQLServer) compileJSONUpdateColumn(field string, assignments []jsonAssignment) (string, []any, error) {
	column := g.Wrap(field)

	expr, bindings := foldJSONAssignments(column, assignments, func(expr string, _ int, a jsonAssignment) (string, []any) {
		value, bound := g.jsonUpdateValue(a.Value)
		return "json_modify(" + expr + ", " + wrapJSONPath(a.Path, "->") + ", " + value + ")", bound
	})

	return column + " = " + expr, bindings, nil
}

func (g *SQLServer) jsonUpdateValue(v any) (string, []any) {
	if sql, ok := clause.ExpressionValue(v); ok {
		return sql, nil
	}
	if b, ok := v.(bool); ok {
		return "cast(" + g.escapeBool(b) + " as bit)", nil
	}
	if isComposite(v) {
		return "json_query(?)", []any{bindingValue(v)}
	}

	return "?", []any{v}
}

func (g *SQLServer) PrepareBindingsForUpdate(q *clause.Registry, values map[string]any) ([]any, error) {
	return g.prepareBindingsValuesFirst(q, values)
}

// compileUpdateWithJoins compiles "update alias set ... from table joins where".
func (g *SQLServer) compileUpdateWithJoins(q *clause.Registry, table, columns, where string) (string, error) {
	parts := strings.Split(table, " as ")
	alias := parts[len(parts)-1]

	joins, err := g.compileJoins(q, q.Joins)
	if err != nil {
		return "", err
	}

	return "update " + alias + " set " + columns + " from " + table + " " + joins + " " + where, nil
}

// compileDeleteWithoutJoins turns a limit into "delete top (n)".
func (g *SQLServer) compileDeleteWithoutJoins(q *clause.Registry, table, where string) (string, error) {
	sql, _ := g.Base.compileDeleteWithoutJoins(q, table, where)
	if q.Limit != nil && *q.Limit > 0 && !hasPositiveOffset(q.Offset) {
		sql = strings.Replace(sql, "delete", "delete top ("+strconv.Itoa(*q.Limit)+")", 1)
	}

	return sql, nil
}

func (g *SQLServer) escapeBinary(v []byte) (string, error) {
	return "0x" + hex.EncodeToString(v), nil
}
