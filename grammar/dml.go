package grammar

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/Alp4ka/sqlpager/clause"
)

// SortedKeys returns the keys of a row in lexical order. Every compile step that
// walks a map uses it, so placeholders and bindings agree.
func SortedKeys(row map[string]any) []string {
	keys := lo.Keys(row)
	slices.Sort(keys)

	return keys
}

// InsertBindings flattens rows into insert bindings, column-major within each row in
// SortedKeys order of the first row. Expressions are inlined and skipped.
func InsertBindings(rows []map[string]any) []any {
	if len(rows) == 0 {
		return nil
	}

	keys := SortedKeys(rows[0])
	ret := make([]any, 0, len(rows)*len(keys))
	for _, row := range rows {
		for _, key := range keys {
			v := row[key]
			if clause.IsExpression(v) {
				continue
			}
			ret = append(ret, bindingValue(v))
		}
	}

	return ret
}

// bindingValue encodes composite values as JSON text.
func bindingValue(v any) any {
	switch v.(type) {
	case map[string]any, []any, []string, []int, []int64, []float64, map[string]string:
		encoded, err := json.Marshal(v)
		if err != nil {
			return v
		}
		return string(encoded)
	default:
		return v
	}
}

func isComposite(v any) bool {
	switch v.(type) {
	case map[string]any, []any, []string, []int, []int64, []float64, map[string]string:
		return true
	default:
		return false
	}
}

func (b *Base) insertColumnsAndValues(rows []map[string]any) (string, string, error) {
	keys := SortedKeys(rows[0])
	for i, row := range rows[1:] {
		if !slices.Equal(SortedKeys(row), keys) {
			return "", "", fmt.Errorf("insert row %d does not match the columns of the first row", i+1)
		}
	}

	columns := b.Columnize(lo.ToAnySlice(keys))
	values := lo.Map(rows, func(row map[string]any, _ int) string {
		return "(" + b.Parameterize(lo.Map(keys, func(k string, _ int) any { return row[k] })) + ")"
	})

	return columns, strings.Join(values, ", "), nil
}

// CompileInsert compiles a single or multi-row insert.
func (b *Base) CompileInsert(q *clause.Registry, rows []map[string]any) (_ string, err error) {
	defer recoverUnsupported(&err)

	table := b.WrapTable(q.From)
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "insert into " + table + " default values", nil
	}

	columns, values, err := b.insertColumnsAndValues(rows)
	if err != nil {
		return "", err
	}

	return "insert into " + table + " (" + columns + ") values " + values, nil
}

func (b *Base) CompileInsertOrIgnore(_ *clause.Registry, _ []map[string]any) (string, error) {
	return "", Unsupported(opInsertOrIgnore)
}

func (b *Base) CompileInsertGetID(q *clause.Registry, row map[string]any, _ string) (string, error) {
	return b.self.CompileInsert(q, []map[string]any{row})
}

// CompileInsertUsing compiles "insert into t (columns) <select>".
func (b *Base) CompileInsertUsing(q *clause.Registry, columns []string, sql string) (_ string, err error) {
	defer recoverUnsupported(&err)

	table := b.WrapTable(q.From)
	if len(columns) == 0 || (len(columns) == 1 && columns[0] == "*") {
		return "insert into " + table + " " + sql, nil
	}

	return "insert into " + table + " (" + b.Columnize(lo.ToAnySlice(columns)) + ") " + sql, nil
}

func (b *Base) CompileUpsert(_ *clause.Registry, _ []map[string]any, _, _ []string) (string, error) {
	return "", Unsupported(opUpsert)
}

// CompileUpdate compiles an update statement. Joined updates go through the
// dialect's compileUpdateWithJoins.
func (b *Base) CompileUpdate(q *clause.Registry, values map[string]any) (_ string, err error) {
	defer recoverUnsupported(&err)

	table := b.WrapTable(q.From)

	columns, _, err := b.compileUpdateColumns(values)
	if err != nil {
		return "", err
	}

	where, err := b.compileWheres(q)
	if err != nil {
		return "", err
	}

	var sql string
	if len(q.Joins) > 0 {
		sql, err = b.self.compileUpdateWithJoins(q, table, columns, where)
	} else {
		sql, err = b.self.compileUpdateWithoutJoins(q, table, columns, where)
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(sql), nil
}

type updateEntry struct {
	key    string
	field  string
	isJSON bool
}

// compileUpdateColumns renders the set list and returns the bindings in placeholder
// order. JSON path assignments on the same column are merged into a single
// assignment built by the dialect.
func (b *Base) compileUpdateColumns(values map[string]any) (string, []any, error) {
	entries := make([]updateEntry, 0, len(values))
	groups := make(map[string][]jsonAssignment)

	for _, key := range SortedKeys(values) {
		if !b.IsJSONSelector(key) {
			entries = append(entries, updateEntry{key: key})
			continue
		}

		field, path, _ := strings.Cut(key, "->")
		if _, seen := groups[field]; !seen {
			entries = append(entries, updateEntry{field: field, isJSON: true})
		}
		groups[field] = append(groups[field], jsonAssignment{Path: path, Value: values[key]})
	}

	parts := make([]string, 0, len(entries))
	bindings := make([]any, 0, len(values))
	for _, e := range entries {
		if e.isJSON {
			compiled, jsonBindings, err := b.self.compileJSONUpdateColumn(e.field, groups[e.field])
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, compiled)
			bindings = append(bindings, jsonBindings...)
			continue
		}

		v := values[e.key]
		parts = append(parts, b.self.wrapUpdateColumn(e.key)+" = "+b.Parameter(v))
		if !clause.IsExpression(v) {
			bindings = append(bindings, bindingValue(v))
		}
	}

	return strings.Join(parts, ", "), bindings, nil
}

func (b *Base) compileJSONUpdateColumn(_ string, _ []jsonAssignment) (string, []any, error) {
	return "", nil, Unsupported(opJSONUpdate)
}

func (b *Base) compileUpdateWithoutJoins(_ *clause.Registry, table, columns, where string) (string, error) {
	return "update " + table + " set " + columns + " " + where, nil
}

func (b *Base) compileUpdateWithJoins(q *clause.Registry, table, columns, where string) (string, error) {
	joins, err := b.compileJoins(q, q.Joins)
	if err != nil {
		return "", err
	}

	return "update " + table + " " + joins + " set " + columns + " " + where, nil
}

// PrepareBindingsForUpdate orders bindings as "update t <joins> set <values> where ...".
func (b *Base) PrepareBindingsForUpdate(q *clause.Registry, values map[string]any) (_ []any, err error) {
	defer recoverUnsupported(&err)

	_, valueBindings, err := b.compileUpdateColumns(values)
	if err != nil {
		return nil, err
	}

	bindings := q.ResolvedBindings()
	ret := slices.Clone(bindings.Join)
	ret = append(ret, valueBindings...)

	return append(ret, bindings.Except(clause.BindingSelect, clause.BindingJoin)...), nil
}

// prepareBindingsValuesFirst orders bindings as "update t set <values> ... <joins> where ...",
// the layout of rowid/ctid rewrites and "update ... from ... join".
func (b *Base) prepareBindingsValuesFirst(q *clause.Registry, values map[string]any) ([]any, error) {
	_, valueBindings, err := b.compileUpdateColumns(values)
	if err != nil {
		return nil, err
	}

	return append(valueBindings, q.ResolvedBindings().Except(clause.BindingSelect)...), nil
}

// CompileDelete compiles a delete statement.
func (b *Base) CompileDelete(q *clause.Registry) (_ string, err error) {
	defer recoverUnsupported(&err)

	table := b.WrapTable(q.From)

	where, err := b.compileWheres(q)
	if err != nil {
		return "", err
	}

	var sql string
	if len(q.Joins) > 0 {
		sql, err = b.self.compileDeleteWithJoins(q, table, where)
	} else {
		sql, err = b.self.compileDeleteWithoutJoins(q, table, where)
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(sql), nil
}

func (b *Base) compileDeleteWithoutJoins(_ *clause.Registry, table, where string) (string, error) {
	return "delete from " + table + " " + where, nil
}

func (b *Base) compileDeleteWithJoins(q *clause.Registry, table, where string) (string, error) {
	parts := strings.Split(table, " as ")
	alias := parts[len(parts)-1]

	joins, err := b.compileJoins(q, q.Joins)
	if err != nil {
		return "", err
	}

	return "delete " + alias + " from " + table + " " + joins + " " + where, nil
}

// PrepareBindingsForDelete drops the select bucket.
func (b *Base) PrepareBindingsForDelete(q *clause.Registry) []any {
	return q.ResolvedBindings().Except(clause.BindingSelect)
}

// CompileTruncate compiles "truncate table t".
func (b *Base) CompileTruncate(q *clause.Registry) (_ []Statement, err error) {
	defer recoverUnsupported(&err)

	return []Statement{{SQL: "truncate table " + b.WrapTable(q.From)}}, nil
}

// rowIDSelect compiles "select <alias>.<rowColumn> from ..." over a copy of q, the
// subquery of the rowid/ctid rewrite used by dialects whose update and delete cannot
// carry joins or a limit.
func (b *Base) rowIDSelect(q *clause.Registry, rowColumn string) (string, error) {
	from := fmt.Sprint(q.From)
	if sql, ok := clause.ExpressionValue(q.From); ok {
		from = sql
	}
	parts := aliasSplitter.Split(from, -1)
	alias := parts[len(parts)-1]

	sub := q.Clone()
	sub.Columns = []any{alias + "." + rowColumn}

	return b.self.CompileSelect(sub)
}

// PrepareBindingForJSONContains encodes the searched value as JSON text.
func (b *Base) PrepareBindingForJSONContains(value any) (any, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cannot encode json contains value: %w", err)
	}

	return string(encoded), nil
}
