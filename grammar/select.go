package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/Alp4ka/sqlpager/clause"
)

// CompileSelect compiles a select statement, including union branches.
func (b *Base) CompileSelect(q *clause.Registry) (_ string, err error) {
	defer recoverUnsupported(&err)

	if (len(q.Unions) > 0 || len(q.Havings) > 0) && q.Aggregate != nil {
		return b.compileUnionAggregate(q)
	}

	sql, err := b.compileComponents(q)
	if err != nil {
		return "", err
	}

	if len(q.Unions) > 0 {
		unions, err := b.compileUnions(q)
		if err != nil {
			return "", err
		}
		sql = b.self.wrapUnion(sql) + " " + unions
	}

	return sql, nil
}

func (b *Base) compileComponents(q *clause.Registry) (string, error) {
	columns := q.Columns
	if columns == nil {
		columns = []any{"*"}
	}

	parts := make([]string, 0, 12)
	if q.Aggregate != nil {
		parts = append(parts, b.compileAggregate(q, q.Aggregate))
	}
	parts = append(parts, b.self.compileColumns(q, columns))
	if q.From != nil {
		parts = append(parts, b.self.compileFrom(q))
	}

	joins, err := b.compileJoins(q, q.Joins)
	if err != nil {
		return "", err
	}
	parts = append(parts, joins)

	wheres, err := b.compileWheres(q)
	if err != nil {
		return "", err
	}
	parts = append(parts, wheres)

	if len(q.Groups) > 0 {
		parts = append(parts, "group by "+b.Columnize(q.Groups))
	}
	parts = append(parts, b.compileHavings(q))
	parts = append(parts, b.compileOrders(q.Orders))
	parts = append(parts, b.self.compileLimitOffset(q, false))
	if q.Lock != nil {
		parts = append(parts, b.self.compileLock(q, q.Lock))
	}

	return concatenate(parts), nil
}

// concatenate joins non-empty segments with single spaces.
func concatenate(parts []string) string {
	return strings.Join(lo.Filter(parts, func(p string, _ int) bool { return p != "" }), " ")
}

func (b *Base) compileAggregate(q *clause.Registry, agg *clause.Aggregate) string {
	column := b.Columnize(agg.Columns)
	if q.Distinct && column != "*" {
		column = "distinct " + column
	}

	return "select " + agg.Function + "(" + column + ") as aggregate"
}

func (b *Base) compileUnionAggregate(q *clause.Registry) (string, error) {
	sql := b.compileAggregate(q, q.Aggregate)

	inner := q.Clone()
	inner.Aggregate = nil

	compiled, err := b.self.CompileSelect(inner)
	if err != nil {
		return "", err
	}

	return sql + " from (" + compiled + ") as " + b.WrapTable("temp_table"), nil
}

func (b *Base) compileColumns(q *clause.Registry, columns []any) string {
	if q.Aggregate != nil {
		return ""
	}

	if q.Distinct {
		return "select distinct " + b.Columnize(columns)
	}

	return "select " + b.Columnize(columns)
}

func (b *Base) compileFrom(q *clause.Registry) string {
	return "from " + b.WrapTable(q.From)
}

func (b *Base) compileJoins(q *clause.Registry, joins []*clause.Join) (string, error) {
	compiled := make([]string, 0, len(joins))
	for _, join := range joins {
		on := ""
		if join.Clause != nil {
			var err error
			on, err = b.compileWheres(join.Clause)
			if err != nil {
				return "", err
			}
		}

		compiled = append(compiled, strings.TrimSpace(join.Type+" join "+b.WrapTable(join.Table)+" "+on))
	}

	return strings.Join(compiled, " "), nil
}

// compileWheres renders the where list with its leading conjunction: "where" for
// queries, "on" for join clauses.
func (b *Base) compileWheres(q *clause.Registry) (string, error) {
	if len(q.Wheres) == 0 {
		return "", nil
	}

	body, err := b.compileWheresBody(q)
	if err != nil {
		return "", err
	}

	if q.IsJoinClause {
		return "on " + body, nil
	}

	return "where " + body, nil
}

func (b *Base) compileWheresBody(q *clause.Registry) (string, error) {
	parts := make([]string, 0, len(q.Wheres))
	for _, w := range q.Wheres {
		compiled, err := b.compileWhere(q, w)
		if err != nil {
			return "", err
		}
		parts = append(parts, w.Boolean+" "+compiled)
	}

	return removeLeadingBoolean(strings.Join(parts, " ")), nil
}

func removeLeadingBoolean(s string) string {
	if rest, ok := strings.CutPrefix(s, "and "); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(s, "or "); ok {
		return rest
	}

	return s
}

func (b *Base) compileWhere(q *clause.Registry, w *clause.Where) (string, error) {
	switch w.Type {
	case clause.WhereBasic:
		return b.self.whereBasic(q, w), nil
	case clause.WhereRaw:
		return w.SQL, nil
	case clause.WhereColumn:
		return b.Wrap(w.First) + " " + w.Operator + " " + b.Wrap(w.Second), nil
	case clause.WhereNested:
		body, err := b.compileWheresBody(w.Query)
		if err != nil {
			return "", err
		}
		return "(" + body + ")", nil
	case clause.WhereIn:
		if len(w.Values) == 0 {
			return "0 = 1", nil
		}
		return b.Wrap(w.Column) + " in (" + b.Parameterize(w.Values) + ")", nil
	case clause.WhereNotIn:
		if len(w.Values) == 0 {
			return "1 = 1", nil
		}
		return b.Wrap(w.Column) + " not in (" + b.Parameterize(w.Values) + ")", nil
	case clause.WhereInRaw:
		if len(w.Values) == 0 {
			return "0 = 1", nil
		}
		return b.Wrap(w.Column) + " in (" + joinRawValues(w.Values) + ")", nil
	case clause.WhereNull:
		return b.Wrap(w.Column) + " is null", nil
	case clause.WhereNotNull:
		return b.Wrap(w.Column) + " is not null", nil
	case clause.WhereBetween:
		return b.whereBetween(w), nil
	case clause.WhereExists, clause.WhereNotExists:
		sub, err := b.self.CompileSelect(w.Query)
		if err != nil {
			return "", err
		}
		return lo.Ternary(w.Type == clause.WhereNotExists, "not exists (", "exists (") + sub + ")", nil
	case clause.WhereSub, clause.WhereInSub, clause.WhereNotInSub:
		sub, err := b.self.CompileSelect(w.Query)
		if err != nil {
			return "", err
		}
		operator := w.Operator
		switch w.Type {
		case clause.WhereInSub:
			operator = "in"
		case clause.WhereNotInSub:
			operator = "not in"
		}
		return b.Wrap(w.Column) + " " + operator + " (" + sub + ")", nil
	case clause.WhereDate, clause.WhereTime, clause.WhereDay, clause.WhereMonth, clause.WhereYear:
		return b.self.dateBasedWhere(string(w.Type), q, w), nil
	case clause.WhereJSONContains:
		compiled, err := b.self.compileJSONContains(w.Column, b.Parameter(w.Value))
		if err != nil {
			return "", err
		}
		return lo.Ternary(w.Not, "not ", "") + compiled, nil
	case clause.WhereJSONLength:
		return b.self.compileJSONLength(w.Column, w.Operator, b.Parameter(w.Value))
	default:
		return "", fmt.Errorf("unknown where type '%s'", w.Type)
	}
}

func (b *Base) whereBasic(_ *clause.Registry, w *clause.Where) string {
	return b.Wrap(w.Column) + " " + w.Operator + " " + b.Parameter(w.Value)
}

func (b *Base) whereBetween(w *clause.Where) string {
	between := lo.Ternary(w.Not, "not between", "between")
	lowest, highest := any(nil), any(nil)
	if len(w.Values) > 0 {
		lowest, highest = w.Values[0], w.Values[len(w.Values)-1]
	}

	return b.Wrap(w.Column) + " " + between + " " + b.Parameter(lowest) + " and " + b.Parameter(highest)
}

func (b *Base) dateBasedWhere(kind string, _ *clause.Registry, w *clause.Where) string {
	return kind + "(" + b.Wrap(w.Column) + ") " + w.Operator + " " + b.Parameter(w.Value)
}

func joinRawValues(values []any) string {
	return strings.Join(lo.Map(values, func(v any, _ int) string {
		switch n := v.(type) {
		case int:
			return strconv.Itoa(n)
		case int64:
			return strconv.FormatInt(n, 10)
		default:
			return fmt.Sprint(v)
		}
	}), ", ")
}

func (b *Base) compileHavings(q *clause.Registry) string {
	if len(q.Havings) == 0 {
		return ""
	}

	parts := lo.Map(q.Havings, func(h *clause.Having, _ int) string {
		return h.Boolean + " " + b.compileHaving(h)
	})

	return "having " + removeLeadingBoolean(strings.Join(parts, " "))
}

func (b *Base) compileHaving(h *clause.Having) string {
	switch h.Type {
	case clause.HavingRaw:
		return h.SQL
	case clause.HavingBetween:
		return b.whereBetween(&clause.Where{Column: h.Column, Values: h.Values, Not: h.Not})
	case clause.HavingNull:
		return b.Wrap(h.Column) + " is null"
	case clause.HavingNotNull:
		return b.Wrap(h.Column) + " is not null"
	default:
		return b.Wrap(h.Column) + " " + h.Operator + " " + b.Parameter(h.Value)
	}
}

func (b *Base) compileOrders(orders []*clause.Order) string {
	if len(orders) == 0 {
		return ""
	}

	compiled := lo.Map(orders, func(o *clause.Order, _ int) string {
		if o.IsRaw() {
			return o.SQL
		}

		return b.Wrap(o.Column) + " " + string(o.Direction)
	})

	return "order by " + strings.Join(compiled, ", ")
}

// limitOffset picks the limit and offset of the query or of its union.
func limitOffset(q *clause.Registry, union bool) (*int, *int) {
	if union {
		return q.UnionLimit, q.UnionOffset
	}

	return q.Limit, q.Offset
}

func (b *Base) compileLimitOffset(q *clause.Registry, union bool) string {
	limit, offset := limitOffset(q, union)

	parts := make([]string, 0, 2)
	if limit != nil {
		parts = append(parts, "limit "+strconv.Itoa(*limit))
	}
	if offset != nil {
		parts = append(parts, "offset "+strconv.Itoa(*offset))
	}

	return strings.Join(parts, " ")
}

func (b *Base) compileLock(_ *clause.Registry, lock any) string {
	if s, ok := lock.(string); ok {
		return s
	}

	return ""
}

func (b *Base) compileUnions(q *clause.Registry) (string, error) {
	var sql strings.Builder
	for _, union := range q.Unions {
		compiled, err := b.self.CompileSelect(union.Query)
		if err != nil {
			return "", err
		}

		sql.WriteString(lo.Ternary(union.All, " union all ", " union "))
		sql.WriteString(b.self.wrapUnion(compiled))
	}

	if len(q.UnionOrders) > 0 {
		sql.WriteString(" " + b.compileOrders(q.UnionOrders))
	}
	if limits := b.self.compileLimitOffset(q, true); limits != "" {
		sql.WriteString(" " + limits)
	}

	return strings.TrimLeft(sql.String(), " "), nil
}

// CompileExists wraps the select into "select exists(...) as "exists"".
func (b *Base) CompileExists(q *clause.Registry) (_ string, err error) {
	defer recoverUnsupported(&err)

	sql, err := b.self.CompileSelect(q)
	if err != nil {
		return "", err
	}

	return "select exists(" + sql + ") as " + b.Wrap("exists"), nil
}
