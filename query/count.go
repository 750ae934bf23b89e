package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/Alp4ka/sqlpager/clause"
)

// withoutSelectAliases strips "as alias" from string columns.
func withoutSelectAliases(columns []any) []any {
	ret := make([]any, 0, len(columns))
	for _, c := range columns {
		if s, ok := c.(string); ok {
			if idx := strings.Index(strings.ToLower(s), " as "); idx >= 0 {
				c = s[:idx]
			}
		}
		ret = append(ret, c)
	}

	return ret
}

func (b *Builder) cloneForPaginationCount() *Builder {
	ret := b.CloneWithout(
		ComponentOrders, ComponentLimit, ComponentOffset,
		ComponentUnionOrders, ComponentUnionLimit, ComponentUnionOffset,
	)
	ret.reg.Bindings.Reset(clause.BindingOrder, clause.BindingUnionOrder)

	return ret
}

// fromAlias returns the name the from table is referenced by.
func fromAlias(from any) (string, bool) {
	s, ok := from.(string)
	if !ok {
		return "", false
	}
	if idx := strings.LastIndex(strings.ToLower(s), " as "); idx >= 0 {
		return strings.TrimSpace(s[idx+4:]), true
	}

	return s, true
}

// ForPaginationCount returns the builder whose select counts the rows b would
// return, ignoring order, limit and offset.
//
// Grouped queries are counted through a derived table:
//
//	select count(*) as aggregate from (<query>) as "aggregate_table"
//
// Other queries get their select list replaced by the aggregate; with unions the
// grammar wraps the branches into "temp_table".
func (b *Builder) ForPaginationCount(columns ...any) *Builder {
	if len(columns) == 0 {
		columns = []any{"*"}
	}
	aggregate := &clause.Aggregate{Function: "count", Columns: withoutSelectAliases(columns)}

	if b.reg.HasGroupsOrHavings() {
		clone := b.cloneForPaginationCount()
		if clone.reg.Columns == nil && len(b.reg.Joins) > 0 {
			if alias, ok := fromAlias(b.reg.From); ok {
				clone.Select(alias + ".*")
			}
		}

		sql, err := clone.ToSQL()
		if err != nil {
			return b.NewQuery().addError(fmt.Errorf("compile pagination count: %w", err))
		}

		outer := b.NewQuery().FromRaw("(" + sql + ") as " + b.grammar.Wrap("aggregate_table"))
		outer.MergeBindings(clone)
		outer.reg.Aggregate = aggregate

		return outer
	}

	var q *Builder
	if len(b.reg.Unions) > 0 {
		q = b.cloneForPaginationCount()
	} else {
		q = b.CloneWithout(ComponentColumns, ComponentOrders, ComponentLimit, ComponentOffset)
		q.reg.Bindings.Reset(clause.BindingSelect, clause.BindingOrder)
	}
	q.reg.Aggregate = aggregate

	return q
}

// ToCountForPaginationSQL compiles the pagination count query.
func (b *Builder) ToCountForPaginationSQL(columns ...any) (string, []any, error) {
	q := b.ForPaginationCount(columns...)

	sql, err := q.ToSQL()
	if err != nil {
		return "", nil, err
	}

	return sql, q.Bindings(), nil
}

// GetCountForPagination returns the total number of rows for length-aware
// pagination.
func (b *Builder) GetCountForPagination(ctx context.Context, columns ...any) (int64, error) {
	rows, err := b.ForPaginationCount(columns...).Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("count for pagination: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	v, _ := lookup(rows[0], "aggregate")

	return toInt64(v)
}
