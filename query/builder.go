package query

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Alp4ka/sqlpager"
	"github.com/Alp4ka/sqlpager/clause"
	"github.com/Alp4ka/sqlpager/grammar"
)

// Component names a part of the registry that CloneWithout can strip.
type Component string

const (
	ComponentColumns     Component = "columns"
	ComponentAggregate   Component = "aggregate"
	ComponentJoins       Component = "joins"
	ComponentWheres      Component = "wheres"
	ComponentGroups      Component = "groups"
	ComponentHavings     Component = "havings"
	ComponentOrders      Component = "orders"
	ComponentLimit       Component = "limit"
	ComponentOffset      Component = "offset"
	ComponentUnions      Component = "unions"
	ComponentUnionOrders Component = "unionOrders"
	ComponentUnionLimit  Component = "unionLimit"
	ComponentUnionOffset Component = "unionOffset"
	ComponentLock        Component = "lock"
)

// Builder builds and runs a single query.
type Builder struct {
	conn      Connection
	grammar   grammar.Grammar
	reg       *clause.Registry
	resolvers sqlpager.Resolvers
	options   sqlpager.Options
	useWrite  bool
	err       error
}

// New creates a builder running on conn and compiling with g.
func New(conn Connection, g grammar.Grammar) *Builder {
	return &Builder{
		conn:      conn,
		grammar:   g,
		reg:       clause.NewRegistry(nil),
		resolvers: sqlpager.DefaultResolvers(),
	}
}

// NewQuery returns an empty builder sharing the connection, grammar, resolvers and
// pagination options of b.
func (b *Builder) NewQuery() *Builder {
	return &Builder{
		conn:      b.conn,
		grammar:   b.grammar,
		reg:       clause.NewRegistry(nil),
		resolvers: b.resolvers,
		options:   b.options,
		useWrite:  b.useWrite,
	}
}

// WithResolvers sets the resolvers pagination falls back to for the current page,
// path and cursor. Nil fields use the process-wide defaults.
func (b *Builder) WithResolvers(r sqlpager.Resolvers) *Builder {
	b.resolvers = r.WithDefaults()
	return b
}

// WithOptions sets the paginator options. Path, when empty, is taken from the
// resolvers at pagination time.
func (b *Builder) WithOptions(opts sqlpager.Options) *Builder {
	b.options = opts
	return b
}

// UseWritePdo forces selects to the primary connection.
func (b *Builder) UseWritePdo() *Builder {
	b.useWrite = true
	return b
}

// Err returns the first building error.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) addError(err error) *Builder {
	if err != nil && b.err == nil {
		b.err = err
	}

	return b
}

// Grammar returns the grammar the builder compiles with.
func (b *Builder) Grammar() grammar.Grammar {
	return b.grammar
}

// Registry exposes the underlying clause registry. Mutating it bypasses the
// builder's binding bookkeeping.
func (b *Builder) Registry() *clause.Registry {
	return b.reg
}

// Table sets the table the query targets.
func (b *Builder) Table(table any) *Builder {
	return b.From(table)
}

// From sets the table the query targets. table may be a name, "name as alias" or
// an Expression.
func (b *Builder) From(table any) *Builder {
	b.reg.From = table
	return b
}

// FromSub selects from a subquery aliased as alias.
func (b *Builder) FromSub(query any, alias string) *Builder {
	sql, bindings, err := b.compileSub(query)
	if err != nil {
		return b.addError(err)
	}

	b.reg.From = clause.Raw("(" + sql + ") as " + b.grammar.WrapTable(alias))
	b.reg.Bindings.Set(clause.BindingFrom, bindings)

	return b
}

// FromRaw selects from a raw expression.
func (b *Builder) FromRaw(expression string, bindings ...any) *Builder {
	b.reg.From = clause.Raw(expression)
	b.reg.Bindings.Set(clause.BindingFrom, bindings)

	return b
}

// Select replaces the select list. No columns selects "*".
func (b *Builder) Select(columns ...any) *Builder {
	if len(columns) == 0 {
		columns = []any{"*"}
	}

	b.reg.Columns = nil
	b.reg.Bindings.Reset(clause.BindingSelect)

	return b.AddSelect(columns...)
}

// AddSelect appends to the select list.
func (b *Builder) AddSelect(columns ...any) *Builder {
	if len(b.reg.Columns) == 1 && b.reg.Columns[0] == "*" && len(columns) > 0 {
		b.reg.Columns = nil
	}
	b.reg.Columns = append(b.reg.Columns, columns...)

	return b
}

// SelectRaw appends a raw select expression.
func (b *Builder) SelectRaw(expression string, bindings ...any) *Builder {
	b.AddSelect(clause.Raw(expression))
	b.reg.Bindings.Add(clause.BindingSelect, bindings...)

	return b
}

// SelectSub appends "(subquery) as alias" to the select list.
func (b *Builder) SelectSub(query any, alias string) *Builder {
	sql, bindings, err := b.compileSub(query)
	if err != nil {
		return b.addError(err)
	}

	return b.SelectRaw("("+sql+") as "+b.grammar.Wrap(alias), bindings...)
}

// Distinct makes the query return distinct rows.
func (b *Builder) Distinct() *Builder {
	b.reg.Distinct = true
	return b
}

// Clone returns an independent copy of the builder.
func (b *Builder) Clone() *Builder {
	ret := *b
	ret.reg = b.reg.Clone()

	return &ret
}

// CloneWithout clones the builder and strips the given components.
func (b *Builder) CloneWithout(components ...Component) *Builder {
	ret := b.Clone()
	for _, c := range components {
		switch c {
		case ComponentColumns:
			ret.reg.Columns = nil
		case ComponentAggregate:
			ret.reg.Aggregate = nil
		case ComponentJoins:
			ret.reg.Joins = nil
		case ComponentWheres:
			ret.reg.Wheres = nil
		case ComponentGroups:
			ret.reg.Groups = nil
		case ComponentHavings:
			ret.reg.Havings = nil
		case ComponentOrders:
			ret.reg.Orders = nil
		case ComponentLimit:
			ret.reg.Limit = nil
		case ComponentOffset:
			ret.reg.Offset = nil
		case ComponentUnions:
			ret.reg.Unions = nil
		case ComponentUnionOrders:
			ret.reg.UnionOrders = nil
		case ComponentUnionLimit:
			ret.reg.UnionLimit = nil
		case ComponentUnionOffset:
			ret.reg.UnionOffset = nil
		case ComponentLock:
			ret.reg.Lock = nil
		default:
			ret.addError(fmt.Errorf("unknown query component '%s'", c))
		}
	}

	return ret
}

// CloneWithoutBindings clones the builder and empties the given binding buckets.
func (b *Builder) CloneWithoutBindings(types ...clause.BindingType) *Builder {
	ret := b.Clone()
	ret.reg.Bindings.Reset(types...)

	return ret
}

// ToSQL compiles the select statement.
func (b *Builder) ToSQL() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if b.grammar == nil {
		return "", errors.New("query builder has no grammar")
	}

	return b.grammar.CompileSelect(b.reg)
}

// Bindings returns the flattened bindings in placeholder order.
func (b *Builder) Bindings() []any {
	return b.reg.FlatBindings()
}

// RawBindings returns the binding buckets.
func (b *Builder) RawBindings() clause.Bindings {
	return b.reg.ResolvedBindings()
}

// ToRawSQL compiles the select statement with the bindings substituted in. The
// result is meant for logs and debugging, not for execution.
func (b *Builder) ToRawSQL() (string, error) {
	sql, err := b.ToSQL()
	if err != nil {
		return "", err
	}

	return b.grammar.SubstituteBindingsIntoRawSQL(sql, b.Bindings()), nil
}

// MergeBindings appends every binding bucket of other to the matching bucket of b.
func (b *Builder) MergeBindings(other *Builder) *Builder {
	resolved := other.reg.ResolvedBindings()
	for _, t := range clause.BindingTypes {
		b.reg.Bindings.Add(t, resolved.Get(t)...)
	}

	return b.addError(other.err)
}

// subBuilder turns a *Builder or a func(*Builder) into a builder.
func (b *Builder) subBuilder(query any) (*Builder, error) {
	switch q := query.(type) {
	case *Builder:
		return q, q.err
	case func(*Builder):
		sub := b.NewQuery()
		q(sub)
		return sub, sub.err
	default:
		return nil, fmt.Errorf("invalid subquery type %T", query)
	}
}

func (b *Builder) compileSub(query any) (string, []any, error) {
	sub, err := b.subBuilder(query)
	if err != nil {
		return "", nil, err
	}

	sql, err := sub.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("compile subquery: %w", err)
	}

	return sql, sub.Bindings(), nil
}

func isSubQuery(v any) bool {
	switch v.(type) {
	case *Builder, func(*Builder):
		return true
	default:
		return false
	}
}

// toAnySlice converts any slice or array into []any.
func toAnySlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	// []byte is a scalar binding.
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}

	ret := make([]any, rv.Len())
	for i := range ret {
		ret[i] = rv.Index(i).Interface()
	}

	return ret, true
}

// columnKey returns the result key a selected column is read back under:
// "users.name as n" is read as "n", "users.name" as "name".
func columnKey(column any) string {
	if sql, ok := clause.ExpressionValue(column); ok {
		column = sql
	}

	s := fmt.Sprint(column)
	if idx := strings.LastIndex(strings.ToLower(s), " as "); idx >= 0 {
		s = s[idx+4:]
	}
	if idx := strings.LastIndex(s, "."); idx >= 0 {
		s = s[idx+1:]
	}

	return strings.Trim(strings.TrimSpace(s), "\"`[]")
}

// lookup reads key from row, falling back to a case-insensitive match.
func lookup(row Row, key string) (any, bool) {
	if v, ok := row[key]; ok {
		return v, true
	}

	for k, v := range row {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}

	return nil, false
}
