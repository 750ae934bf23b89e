package query

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/Alp4ka/sqlpager/clause"
)

var operators = []string{
	"=", "<", ">", "<=", ">=", "<>", "!=", "<=>",
	"like", "like binary", "not like", "ilike", "not ilike",
	"&", "|", "^", "<<", ">>", "&~", "is", "is not",
	"rlike", "not rlike", "regexp", "not regexp",
	"~", "~*", "!~", "!~*", "similar to", "not similar to", "~~*", "!~~*",
	"@>", "<@", "?", "?|", "?&", "||", "-", "@?", "@@", "#-",
	"is distinct from", "is not distinct from",
}

// ErrIllegalOperatorAndValue is returned when a nil value is compared with an
// operator other than =, <> or !=.
var ErrIllegalOperatorAndValue = errors.New("illegal operator and value combination")

func validOperator(operator string) bool {
	return slices.Contains(operators, strings.ToLower(operator))
}

func (b *Builder) addWhere(w *clause.Where, bindings ...any) *Builder {
	b.reg.Wheres = append(b.reg.Wheres, w)
	b.reg.Bindings.Add(clause.BindingWhere, clause.CleanBindings(bindings)...)

	return b
}

// Where adds a basic condition joined with "and". It accepts Where(column, value)
// and Where(column, operator, value). A nil value compiles to "is null" for "="
// and "is not null" for "<>"/"!="; a *Builder or func(*Builder) value compiles to a
// subquery comparison.
func (b *Builder) Where(column any, args ...any) *Builder {
	return b.where(clause.BooleanAnd, column, args)
}

// OrWhere is Where joined with "or".
func (b *Builder) OrWhere(column any, args ...any) *Builder {
	return b.where(clause.BooleanOr, column, args)
}

func (b *Builder) where(boolean string, column any, args []any) *Builder {
	operator, value, err := splitOperatorValue(args)
	if err != nil {
		return b.addError(err)
	}

	if value == nil {
		switch operator {
		case "=":
			return b.addWhere(&clause.Where{Type: clause.WhereNull, Boolean: boolean, Column: column})
		case "<>", "!=":
			return b.addWhere(&clause.Where{Type: clause.WhereNotNull, Boolean: boolean, Column: column})
		default:
			return b.addError(fmt.Errorf("%w: %s null", ErrIllegalOperatorAndValue, operator))
		}
	}

	if isSubQuery(value) {
		return b.whereSub(boolean, column, operator, value)
	}

	return b.addWhere(&clause.Where{
		Type:     clause.WhereBasic,
		Boolean:  boolean,
		Column:   column,
		Operator: operator,
		Value:    value,
	}, value)
}

func splitOperatorValue(args []any) (string, any, error) {
	switch len(args) {
	case 1:
		return "=", args[0], nil
	case 2:
		operator, ok := args[0].(string)
		if !ok {
			return "", nil, fmt.Errorf("where operator must be a string, got %T", args[0])
		}
		operator = strings.ToLower(strings.TrimSpace(operator))
		if !validOperator(operator) {
			return "", nil, fmt.Errorf("invalid operator '%s'", operator)
		}
		return operator, args[1], nil
	default:
		return "", nil, fmt.Errorf("where expects a value or an operator and a value, got %d arguments", len(args))
	}
}

// WhereExpr adds a raw condition expression without bindings.
func (b *Builder) WhereExpr(expression clause.Expression) *Builder {
	return b.addWhere(&clause.Where{Type: clause.WhereRaw, Boolean: clause.BooleanAnd, SQL: expression.SQL})
}

// WhereFunc adds a parenthesized group of conditions built by fn.
func (b *Builder) WhereFunc(fn func(q *Builder)) *Builder {
	return b.whereNested(clause.BooleanAnd, fn)
}

// OrWhereFunc is WhereFunc joined with "or".
func (b *Builder) OrWhereFunc(fn func(q *Builder)) *Builder {
	return b.whereNested(clause.BooleanOr, fn)
}

func (b *Builder) forNestedWhere() *Builder {
	return b.NewQuery().From(b.reg.From)
}

func (b *Builder) whereNested(boolean string, fn func(q *Builder)) *Builder {
	nested := b.forNestedWhere()
	fn(nested)

	return b.addNestedWhere(boolean, nested)
}

// addNestedWhere attaches the conditions of nested as one group.
func (b *Builder) addNestedWhere(boolean string, nested *Builder) *Builder {
	if nested.err != nil {
		return b.addError(nested.err)
	}
	if len(nested.reg.Wheres) == 0 {
		return b
	}

	return b.addWhere(&clause.Where{Type: clause.WhereNested, Boolean: boolean, Query: nested.reg}, nested.reg.Bindings.Where...)
}

// WhereColumn compares two columns.
func (b *Builder) WhereColumn(first any, operator string, second any) *Builder {
	return b.whereColumn(clause.BooleanAnd, first, operator, second)
}

// OrWhereColumn is WhereColumn joined with "or".
func (b *Builder) OrWhereColumn(first any, operator string, second any) *Builder {
	return b.whereColumn(clause.BooleanOr, first, operator, second)
}

func (b *Builder) whereColumn(boolean string, first any, operator string, second any) *Builder {
	operator = strings.ToLower(strings.TrimSpace(operator))
	if !validOperator(operator) {
		return b.addError(fmt.Errorf("invalid operator '%s'", operator))
	}

	return b.addWhere(&clause.Where{
		Type:     clause.WhereColumn,
		Boolean:  boolean,
		First:    first,
		Operator: operator,
		Second:   second,
	})
}

// WhereRaw adds a raw condition.
func (b *Builder) WhereRaw(sql string, bindings ...any) *Builder {
	return b.addWhere(&clause.Where{Type: clause.WhereRaw, Boolean: clause.BooleanAnd, SQL: sql}, bindings...)
}

// OrWhereRaw is WhereRaw joined with "or".
func (b *Builder) OrWhereRaw(sql string, bindings ...any) *Builder {
	return b.addWhere(&clause.Where{Type: clause.WhereRaw, Boolean: clause.BooleanOr, SQL: sql}, bindings...)
}

// WhereIn adds "column in (...)". values is a slice, a *Builder or a func(*Builder).
// An empty slice compiles to a condition that is never true.
func (b *Builder) WhereIn(column any, values any) *Builder {
	return b.whereIn(clause.BooleanAnd, column, values, false)
}

// OrWhereIn is WhereIn joined with "or".
func (b *Builder) OrWhereIn(column any, values any) *Builder {
	return b.whereIn(clause.BooleanOr, column, values, false)
}

// WhereNotIn adds "column not in (...)".
func (b *Builder) WhereNotIn(column any, values any) *Builder {
	return b.whereIn(clause.BooleanAnd, column, values, true)
}

func (b *Builder) whereIn(boolean string, column any, values any, not bool) *Builder {
	if isSubQuery(values) {
		return b.whereInSub(boolean, column, values, not)
	}

	list, ok := toAnySlice(values)
	if !ok {
		return b.addError(fmt.Errorf("where in expects a slice, got %T", values))
	}

	return b.addWhere(&clause.Where{
		Type:    lo.Ternary(not, clause.WhereNotIn, clause.WhereIn),
		Boolean: boolean,
		Column:  column,
		Values:  list,
	}, list...)
}

// WhereIntegerInRaw inlines integer values instead of binding them.
func (b *Builder) WhereIntegerInRaw(column any, values []int64) *Builder {
	list := make([]any, 0, len(values))
	for _, v := range values {
		list = append(list, v)
	}

	return b.addWhere(&clause.Where{Type: clause.WhereInRaw, Boolean: clause.BooleanAnd, Column: column, Values: list})
}

// WhereInSub adds "column in (subquery)".
func (b *Builder) WhereInSub(column any, query any) *Builder {
	return b.whereInSub(clause.BooleanAnd, column, query, false)
}

// WhereNotInSub adds "column not in (subquery)".
func (b *Builder) WhereNotInSub(column any, query any) *Builder {
	return b.whereInSub(clause.BooleanAnd, column, query, true)
}

func (b *Builder) whereInSub(boolean string, column any, query any, not bool) *Builder {
	sub, err := b.subBuilder(query)
	if err != nil {
		return b.addError(err)
	}

	return b.addWhere(&clause.Where{
		Type:    lo.Ternary(not, clause.WhereNotInSub, clause.WhereInSub),
		Boolean: boolean,
		Column:  column,
		Query:   sub.reg,
	}, sub.Bindings()...)
}

// WhereNull adds "column is null" for every column.
func (b *Builder) WhereNull(columns ...any) *Builder {
	for _, c := range columns {
		b.addWhere(&clause.Where{Type: clause.WhereNull, Boolean: clause.BooleanAnd, Column: c})
	}

	return b
}

// OrWhereNull is WhereNull joined with "or".
func (b *Builder) OrWhereNull(column any) *Builder {
	return b.addWhere(&clause.Where{Type: clause.WhereNull, Boolean: clause.BooleanOr, Column: column})
}

// WhereNotNull adds "column is not null" for every column.
func (b *Builder) WhereNotNull(columns ...any) *Builder {
	for _, c := range columns {
		b.addWhere(&clause.Where{Type: clause.WhereNotNull, Boolean: clause.BooleanAnd, Column: c})
	}

	return b
}

// WhereBetween adds "column between from and to".
func (b *Builder) WhereBetween(column any, from, to any) *Builder {
	return b.addWhere(&clause.Where{
		Type:    clause.WhereBetween,
		Boolean: clause.BooleanAnd,
		Column:  column,
		Values:  []any{from, to},
	}, from, to)
}

// WhereNotBetween adds "column not between from and to".
func (b *Builder) WhereNotBetween(column any, from, to any) *Builder {
	return b.addWhere(&clause.Where{
		Type:    clause.WhereBetween,
		Boolean: clause.BooleanAnd,
		Column:  column,
		Values:  []any{from, to},
		Not:     true,
	}, from, to)
}

// WhereExists adds "exists (subquery)".
func (b *Builder) WhereExists(query any) *Builder {
	return b.whereExists(clause.BooleanAnd, query, false)
}

// OrWhereExists is WhereExists joined with "or".
func (b *Builder) OrWhereExists(query any) *Builder {
	return b.whereExists(clause.BooleanOr, query, false)
}

// WhereNotExists adds "not exists (subquery)".
func (b *Builder) WhereNotExists(query any) *Builder {
	return b.whereExists(clause.BooleanAnd, query, true)
}

func (b *Builder) whereExists(boolean string, query any, not bool) *Builder {
	sub, err := b.subBuilder(query)
	if err != nil {
		return b.addError(err)
	}

	return b.addWhere(&clause.Where{
		Type:    lo.Ternary(not, clause.WhereNotExists, clause.WhereExists),
		Boolean: boolean,
		Query:   sub.reg,
	}, sub.Bindings()...)
}

// WhereSub compares column with the result of a subquery.
func (b *Builder) WhereSub(column any, operator string, query any) *Builder {
	operator = strings.ToLower(strings.TrimSpace(operator))
	if !validOperator(operator) {
		return b.addError(fmt.Errorf("invalid operator '%s'", operator))
	}

	return b.whereSub(clause.BooleanAnd, column, operator, query)
}

func (b *Builder) whereSub(boolean string, column any, operator string, query any) *Builder {
	sub, err := b.subBuilder(query)
	if err != nil {
		return b.addError(err)
	}

	return b.addWhere(&clause.Where{
		Type:     clause.WhereSub,
		Boolean:  boolean,
		Column:   column,
		Operator: operator,
		Query:    sub.reg,
	}, sub.Bindings()...)
}

// WhereDate compares the date part of column. A time.Time value is formatted as
// 2006-01-02.
func (b *Builder) WhereDate(column any, operator string, value any) *Builder {
	return b.whereDateBased(clause.WhereDate, column, operator, value, time.DateOnly)
}

// WhereTime compares the time part of column.
func (b *Builder) WhereTime(column any, operator string, value any) *Builder {
	return b.whereDateBased(clause.WhereTime, column, operator, value, time.TimeOnly)
}

// WhereDay compares the day of month of column.
func (b *Builder) WhereDay(column any, operator string, value any) *Builder {
	return b.whereDateBased(clause.WhereDay, column, operator, value, "02")
}

// WhereMonth compares the month of column.
func (b *Builder) WhereMonth(column any, operator string, value any) *Builder {
	return b.whereDateBased(clause.WhereMonth, column, operator, value, "01")
}

// WhereYear compares the year of column.
func (b *Builder) WhereYear(column any, operator string, value any) *Builder {
	return b.whereDateBased(clause.WhereYear, column, operator, value, "2006")
}

func (b *Builder) whereDateBased(typ clause.WhereType, column any, operator string, value any, layout string) *Builder {
	operator = strings.ToLower(strings.TrimSpace(operator))
	if !validOperator(operator) {
		return b.addError(fmt.Errorf("invalid operator '%s'", operator))
	}

	switch t := value.(type) {
	case time.Time:
		value = t.Format(layout)
	case *time.Time:
		if t != nil {
			value = t.Format(layout)
		}
	}

	return b.addWhere(&clause.Where{
		Type:     typ,
		Boolean:  clause.BooleanAnd,
		Column:   column,
		Operator: operator,
		Value:    value,
	}, value)
}

// WhereJSONContains adds a containment check on a JSON column.
func (b *Builder) WhereJSONContains(column any, value any) *Builder {
	return b.whereJSONContains(column, value, false)
}

// WhereJSONDoesntContain negates WhereJSONContains.
func (b *Builder) WhereJSONDoesntContain(column any, value any) *Builder {
	return b.whereJSONContains(column, value, true)
}

func (b *Builder) whereJSONContains(column any, value any, not bool) *Builder {
	w := &clause.Where{Type: clause.WhereJSONContains, Boolean: clause.BooleanAnd, Column: column, Value: value, Not: not}
	if clause.IsExpression(value) {
		return b.addWhere(w)
	}

	binding, err := b.grammar.PrepareBindingForJSONContains(value)
	if err != nil {
		return b.addError(err)
	}

	return b.addWhere(w, binding)
}

// WhereJSONLength compares the length of a JSON array.
func (b *Builder) WhereJSONLength(column any, operator string, value any) *Builder {
	operator = strings.ToLower(strings.TrimSpace(operator))
	if !validOperator(operator) {
		return b.addError(fmt.Errorf("invalid operator '%s'", operator))
	}

	return b.addWhere(&clause.Where{
		Type:     clause.WhereJSONLength,
		Boolean:  clause.BooleanAnd,
		Column:   column,
		Operator: operator,
		Value:    value,
	}, value)
}
