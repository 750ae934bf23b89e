package query

import (
	"fmt"
	"strings"

	"github.com/Alp4ka/sqlpager/clause"
)

// JoinClause collects the "on" conditions of a join.
type JoinClause struct {
	b *Builder
}

// On adds "first operator second" joined with "and".
func (j *JoinClause) On(first any, operator string, second any) *JoinClause {
	j.b.WhereColumn(first, operator, second)
	return j
}

// OrOn adds "first operator second" joined with "or".
func (j *JoinClause) OrOn(first any, operator string, second any) *JoinClause {
	j.b.OrWhereColumn(first, operator, second)
	return j
}

// Where adds a value condition to the join. Arguments follow Builder.Where.
func (j *JoinClause) Where(column any, args ...any) *JoinClause {
	j.b.Where(column, args...)
	return j
}

// OrWhere is Where joined with "or".
func (j *JoinClause) OrWhere(column any, args ...any) *JoinClause {
	j.b.OrWhere(column, args...)
	return j
}

// WhereIn adds "column in (...)" to the join.
func (j *JoinClause) WhereIn(column any, values any) *JoinClause {
	j.b.WhereIn(column, values)
	return j
}

// WhereNull adds "column is null" to the join.
func (j *JoinClause) WhereNull(column any) *JoinClause {
	j.b.WhereNull(column)
	return j
}

func (b *Builder) newJoinClause() *JoinClause {
	jb := b.NewQuery()
	jb.reg.IsJoinClause = true

	return &JoinClause{b: jb}
}

func (b *Builder) addJoin(typ string, table any, fn func(j *JoinClause)) *Builder {
	var on *clause.Registry
	if fn != nil {
		jc := b.newJoinClause()
		fn(jc)
		if jc.b.err != nil {
			return b.addError(jc.b.err)
		}
		on = jc.b.reg
		b.reg.Bindings.Add(clause.BindingJoin, on.Bindings.Where...)
	}

	b.reg.Joins = append(b.reg.Joins, &clause.Join{Type: typ, Table: table, Clause: on})

	return b
}

// Join adds an inner join on "first operator second".
func (b *Builder) Join(table any, first any, operator string, second any) *Builder {
	return b.addJoin("inner", table, func(j *JoinClause) { j.On(first, operator, second) })
}

// LeftJoin adds a left join on "first operator second".
func (b *Builder) LeftJoin(table any, first any, operator string, second any) *Builder {
	return b.addJoin("left", table, func(j *JoinClause) { j.On(first, operator, second) })
}

// RightJoin adds a right join on "first operator second".
func (b *Builder) RightJoin(table any, first any, operator string, second any) *Builder {
	return b.addJoin("right", table, func(j *JoinClause) { j.On(first, operator, second) })
}

// CrossJoin adds a cross join.
func (b *Builder) CrossJoin(table any) *Builder {
	return b.addJoin("cross", table, nil)
}

// JoinFunc adds an inner join whose conditions are built by fn.
func (b *Builder) JoinFunc(table any, fn func(j *JoinClause)) *Builder {
	return b.addJoin("inner", table, fn)
}

// LeftJoinFunc adds a left join whose conditions are built by fn.
func (b *Builder) LeftJoinFunc(table any, fn func(j *JoinClause)) *Builder {
	return b.addJoin("left", table, fn)
}

// JoinSub joins a subquery aliased as alias.
func (b *Builder) JoinSub(query any, alias string, first any, operator string, second any) *Builder {
	sql, bindings, err := b.compileSub(query)
	if err != nil {
		return b.addError(err)
	}

	b.reg.Bindings.Add(clause.BindingJoin, bindings...)
	table := clause.Raw("(" + sql + ") as " + b.grammar.WrapTable(alias))

	return b.addJoin("inner", table, func(j *JoinClause) { j.On(first, operator, second) })
}

// GroupBy adds group by columns.
func (b *Builder) GroupBy(columns ...any) *Builder {
	b.reg.Groups = append(b.reg.Groups, columns...)
	return b
}

// GroupByRaw adds a raw group by expression.
func (b *Builder) GroupByRaw(sql string, bindings ...any) *Builder {
	b.reg.Groups = append(b.reg.Groups, clause.Raw(sql))
	b.reg.Bindings.Add(clause.BindingGroupBy, bindings...)

	return b
}

func (b *Builder) addHaving(h *clause.Having, bindings ...any) *Builder {
	b.reg.Havings = append(b.reg.Havings, h)
	b.reg.Bindings.Add(clause.BindingHaving, clause.CleanBindings(bindings)...)

	return b
}

// Having adds "column operator value" to the having clause.
func (b *Builder) Having(column any, operator string, value any) *Builder {
	return b.having(clause.BooleanAnd, column, operator, value)
}

// OrHaving is Having joined with "or".
func (b *Builder) OrHaving(column any, operator string, value any) *Builder {
	return b.having(clause.BooleanOr, column, operator, value)
}

func (b *Builder) having(boolean string, column any, operator string, value any) *Builder {
	operator = strings.ToLower(strings.TrimSpace(operator))
	if !validOperator(operator) {
		return b.addError(fmt.Errorf("invalid operator '%s'", operator))
	}

	return b.addHaving(&clause.Having{
		Type:     clause.HavingBasic,
		Boolean:  boolean,
		Column:   column,
		Operator: operator,
		Value:    value,
	}, value)
}

// HavingRaw adds a raw having condition.
func (b *Builder) HavingRaw(sql string, bindings ...any) *Builder {
	return b.addHaving(&clause.Having{Type: clause.HavingRaw, Boolean: clause.BooleanAnd, SQL: sql}, bindings...)
}

// HavingBetween adds "column between from and to" to the having clause.
func (b *Builder) HavingBetween(column any, from, to any) *Builder {
	return b.addHaving(&clause.Having{
		Type:    clause.HavingBetween,
		Boolean: clause.BooleanAnd,
		Column:  column,
		Values:  []any{from, to},
	}, from, to)
}

// HavingNull adds "column is null" to the having clause.
func (b *Builder) HavingNull(column any) *Builder {
	return b.addHaving(&clause.Having{Type: clause.HavingNull, Boolean: clause.BooleanAnd, Column: column})
}

// orderTarget returns the order list and binding bucket new orders go to: the union
// orders once the query has union branches.
func (b *Builder) orderTarget() (*[]*clause.Order, clause.BindingType) {
	if len(b.reg.Unions) > 0 {
		return &b.reg.UnionOrders, clause.BindingUnionOrder
	}

	return &b.reg.Orders, clause.BindingOrder
}

// OrderBy adds an order by entry. direction is "asc" or "desc" in any case; column
// may be a *Builder or func(*Builder) to order by a subquery.
func (b *Builder) OrderBy(column any, direction string) *Builder {
	dir, err := clause.ParseDirection(direction)
	if err != nil {
		return b.addError(err)
	}

	orders, bucket := b.orderTarget()
	if isSubQuery(column) {
		sql, bindings, err := b.compileSub(column)
		if err != nil {
			return b.addError(err)
		}
		b.reg.Bindings.Add(bucket, bindings...)
		column = clause.Raw("(" + sql + ")")
	}

	*orders = append(*orders, &clause.Order{Column: column, Direction: dir})

	return b
}

// OrderByDesc adds a descending order by entry.
func (b *Builder) OrderByDesc(column any) *Builder {
	return b.OrderBy(column, string(clause.DirectionDESC))
}

// OrderByRaw adds a raw order by expression.
func (b *Builder) OrderByRaw(sql string, bindings ...any) *Builder {
	orders, bucket := b.orderTarget()
	*orders = append(*orders, &clause.Order{SQL: sql})
	b.reg.Bindings.Add(bucket, bindings...)

	return b
}

// ApplyOrders adds already parsed orders, see ParseOrders.
func (b *Builder) ApplyOrders(orders []clause.Order) *Builder {
	for _, o := range orders {
		if o.IsRaw() {
			b.OrderByRaw(o.SQL)
			continue
		}
		b.OrderBy(o.Column, string(o.Direction))
	}

	return b
}

// Latest orders by column descending, "created_at" by default.
func (b *Builder) Latest(column ...string) *Builder {
	return b.OrderBy(firstOr(column, "created_at"), string(clause.DirectionDESC))
}

// Oldest orders by column ascending, "created_at" by default.
func (b *Builder) Oldest(column ...string) *Builder {
	return b.OrderBy(firstOr(column, "created_at"), string(clause.DirectionASC))
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 && values[0] != "" {
		return values[0]
	}

	return fallback
}

// InRandomOrder orders the rows randomly. seed is used where the dialect supports it.
func (b *Builder) InRandomOrder(seed string) *Builder {
	return b.OrderByRaw(b.grammar.CompileRandom(seed))
}

// Reorder drops every order by entry and its bindings.
func (b *Builder) Reorder() *Builder {
	b.reg.Orders = nil
	b.reg.UnionOrders = nil
	b.reg.Bindings.Reset(clause.BindingOrder, clause.BindingUnionOrder)

	return b
}

// removeOrdersFor drops the orders on column, used before re-ordering by it.
func (b *Builder) removeOrdersFor(column string) {
	kept := b.reg.Orders[:0]
	for _, o := range b.reg.Orders {
		if !o.IsRaw() && fmt.Sprint(o.Column) == column {
			continue
		}
		kept = append(kept, o)
	}
	b.reg.Orders = kept
}

// Limit sets the row limit; it applies to the whole union once branches exist.
// Negative values are ignored.
func (b *Builder) Limit(n int) *Builder {
	if n < 0 {
		return b
	}

	if len(b.reg.Unions) > 0 {
		b.reg.UnionLimit = clause.IntPtr(n)
	} else {
		b.reg.Limit = clause.IntPtr(n)
	}

	return b
}

// Offset sets the number of skipped rows; negative values count as zero.
func (b *Builder) Offset(n int) *Builder {
	n = max(n, 0)
	if len(b.reg.Unions) > 0 {
		b.reg.UnionOffset = clause.IntPtr(n)
	} else {
		b.reg.Offset = clause.IntPtr(n)
	}

	return b
}

// ForPage sets limit and offset for a 1-based page.
func (b *Builder) ForPage(page, perPage int) *Builder {
	return b.Offset((max(page, 1) - 1) * perPage).Limit(perPage)
}

// Union appends a union branch. query is a *Builder or func(*Builder).
func (b *Builder) Union(query any) *Builder {
	return b.union(query, false)
}

// UnionAll appends a "union all" branch.
func (b *Builder) UnionAll(query any) *Builder {
	return b.union(query, true)
}

func (b *Builder) union(query any, all bool) *Builder {
	sub, err := b.subBuilder(query)
	if err != nil {
		return b.addError(err)
	}

	b.reg.Unions = append(b.reg.Unions, &clause.Union{Query: sub.reg, All: all})

	return b
}

// LockForUpdate adds an exclusive row lock.
func (b *Builder) LockForUpdate() *Builder {
	b.reg.Lock = true
	return b
}

// SharedLock adds a shared row lock.
func (b *Builder) SharedLock() *Builder {
	b.reg.Lock = false
	return b
}

// Lock sets a raw lock clause.
func (b *Builder) Lock(lock string) *Builder {
	b.reg.Lock = lock
	return b
}
