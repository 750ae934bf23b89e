package query

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Alp4ka/sqlpager"
	"github.com/Alp4ka/sqlpager/clause"
	"github.com/Alp4ka/sqlpager/grammar"
)

// ErrMissingOrder is returned by operations that need a deterministic order.
var ErrMissingOrder = errors.New("you must specify an orderBy clause when using this function")

type keysetOrder struct {
	column    string
	direction clause.Direction
}

// keyset builds the predicate selecting rows strictly after a cursor position:
//
//	(c1 > v1 or (c1 = v1 and (c2 > v2 or (c2 = v2 and (c3 > v3)))))
type keyset struct {
	grammar grammar.Grammar
	orders  []keysetOrder
	cursor  *sqlpager.Cursor
}

// ensureOrderForCursorPagination flips every order of b when reading backward and
// returns the orders the predicate follows: the union orders when present.
func (b *Builder) ensureOrderForCursorPagination(reverse bool) ([]keysetOrder, error) {
	if len(b.reg.Orders) == 0 && len(b.reg.UnionOrders) == 0 {
		return nil, ErrMissingOrder
	}

	if reverse {
		for _, o := range slices.Concat(b.reg.Orders, b.reg.UnionOrders) {
			if !o.IsRaw() {
				o.Direction = o.Direction.Flip()
			}
		}
	}

	source := b.reg.Orders
	if len(b.reg.UnionOrders) > 0 {
		source = b.reg.UnionOrders
	}

	ret := make([]keysetOrder, 0, len(source))
	for _, o := range source {
		if o.IsRaw() {
			return nil, fmt.Errorf("cursor pagination cannot follow raw order '%s'", o.SQL)
		}
		ret = append(ret, keysetOrder{column: columnString(o.Column), direction: o.Direction})
	}

	return ret, nil
}

func columnString(column any) string {
	if sql, ok := clause.ExpressionValue(column); ok {
		return sql
	}

	return fmt.Sprint(column)
}

// originalColumn resolves an order column that names a select alias back to the
// aliased expression, which is what a where clause has to compare. A JSON selector
// never names an alias.
func (k keyset) originalColumn(reg *clause.Registry, parameter string) string {
	for _, c := range reg.Columns {
		s := columnString(c)
		idx := strings.LastIndex(strings.ToLower(s), " as ")
		if idx < 0 {
			continue
		}

		original, alias := s[:idx], s[idx+4:]
		if parameter == alias || (!k.grammar.IsJSONSelector(parameter) && k.grammar.Wrap(parameter) == alias) {
			return original
		}
	}

	return parameter
}

// column returns what the where clause compares: computed expressions are emitted
// verbatim.
func (k keyset) column(reg *clause.Registry, parameter string) any {
	original := k.originalColumn(reg, parameter)
	if strings.ContainsAny(original, "()") {
		return clause.Raw(original)
	}

	return original
}

// apply appends the predicate to reg as one "and" group.
func (k keyset) apply(reg *clause.Registry) error {
	wheres, bindings, err := k.conditions(reg, 0, "")
	if err != nil {
		return err
	}

	reg.Wheres = append(reg.Wheres, wheres...)
	reg.Bindings.Add(clause.BindingWhere, bindings...)

	return nil
}

// conditions builds the entries for order i: equality on the previous order column
// when there is one, then "(col op ? or (<conditions of i+1>))".
func (k keyset) conditions(reg *clause.Registry, i int, previous string) ([]*clause.Where, []any, error) {
	var (
		wheres   []*clause.Where
		bindings []any
	)

	if previous != "" {
		v, err := k.cursor.Parameter(previous)
		if err != nil {
			return nil, nil, err
		}
		wheres = append(wheres, &clause.Where{
			Type:     clause.WhereBasic,
			Boolean:  clause.BooleanAnd,
			Column:   k.column(reg, previous),
			Operator: string(clause.OperatorEQ),
			Value:    v,
		})
		bindings = append(bindings, v)
	}

	order := k.orders[i]
	v, err := k.cursor.Parameter(order.column)
	if err != nil {
		return nil, nil, err
	}

	group := clause.NewRegistry(reg.From)
	group.Wheres = append(group.Wheres, &clause.Where{
		Type:     clause.WhereBasic,
		Boolean:  clause.BooleanAnd,
		Column:   k.column(reg, order.column),
		Operator: string(order.direction.ForOperator()),
		Value:    v,
	})
	group.Bindings.Add(clause.BindingWhere, v)

	if i < len(k.orders)-1 {
		nextWheres, nextBindings, err := k.conditions(reg, i+1, order.column)
		if err != nil {
			return nil, nil, err
		}

		next := clause.NewRegistry(reg.From)
		next.Wheres = nextWheres
		next.Bindings.Add(clause.BindingWhere, nextBindings...)

		group.Wheres = append(group.Wheres, &clause.Where{Type: clause.WhereNested, Boolean: clause.BooleanOr, Query: next})
		group.Bindings.Add(clause.BindingWhere, nextBindings...)
	}

	wheres = append(wheres, &clause.Where{Type: clause.WhereNested, Boolean: clause.BooleanAnd, Query: group})
	bindings = append(bindings, group.Bindings.Where...)

	return wheres, bindings, nil
}

// ForCursorPage returns a copy of b prepared to fetch the page after (or before)
// cursor: orders flipped for backward reads, the keyset predicate applied to the
// query and to every union branch, and a limit of perPage+1. It also returns the
// order columns in their original order, the parameters the page's cursors carry.
// A nil cursor only applies the limit.
func (b *Builder) ForCursorPage(perPage int, cursor *sqlpager.Cursor) (*Builder, []string, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	q := b.Clone()

	orders, err := q.ensureOrderForCursorPagination(cursor.PointsToPreviousItems())
	if err != nil {
		return nil, nil, err
	}

	if cursor != nil {
		k := keyset{grammar: b.grammar, orders: orders, cursor: cursor}
		if err = k.apply(q.reg); err != nil {
			return nil, nil, err
		}
		for _, u := range q.reg.Unions {
			if err = k.apply(u.Query); err != nil {
				return nil, nil, err
			}
		}
	}

	parameters := make([]string, 0, len(orders))
	for _, o := range orders {
		parameters = append(parameters, o.column)
	}

	return q.Limit(perPage + 1), parameters, nil
}
