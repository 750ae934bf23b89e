package clause

import (
	"slices"
)

// WhereType identifies the shape of a where node and selects the grammar routine
// that compiles it.
type WhereType string

const (
	WhereBasic        WhereType = "basic"
	WhereColumn       WhereType = "column"
	WhereRaw          WhereType = "raw"
	WhereNested       WhereType = "nested"
	WhereIn           WhereType = "in"
	WhereNotIn        WhereType = "notIn"
	WhereInRaw        WhereType = "inRaw"
	WhereNull         WhereType = "null"
	WhereNotNull      WhereType = "notNull"
	WhereBetween      WhereType = "between"
	WhereExists       WhereType = "exists"
	WhereNotExists    WhereType = "notExists"
	WhereSub          WhereType = "sub"
	WhereInSub        WhereType = "inSub"
	WhereNotInSub     WhereType = "notInSub"
	WhereDate         WhereType = "date"
	WhereTime         WhereType = "time"
	WhereDay          WhereType = "day"
	WhereMonth        WhereType = "month"
	WhereYear         WhereType = "year"
	WhereJSONContains WhereType = "jsonContains"
	WhereJSONLength   WhereType = "jsonLength"
)

const (
	BooleanAnd = "and"
	BooleanOr  = "or"
)

// Where is a node of the where tree. Which fields are meaningful depends on Type:
//   - Basic, Date..Year, JSONLength: Column Operator Value
//   - Column: First Operator Second
//   - Raw: SQL
//   - In, NotIn, InRaw, Between: Column Values (Not flips Between)
//   - Null, NotNull: Column
//   - Nested, Exists, NotExists: Query
//   - Sub, InSub, NotInSub: Column Operator Query
//   - JSONContains: Column Value (Not negates)
type Where struct {
	Type     WhereType
	Boolean  string
	Column   any
	Operator string
	Value    any
	Values   []any
	First    any
	Second   any
	Query    *Registry
	SQL      string
	Not      bool
}

// Order is an order-by entry. A non-empty SQL marks a raw order whose text is
// emitted as-is.
type Order struct {
	Column    any
	Direction Direction
	SQL       string
}

// IsRaw reports whether the order was added as raw SQL.
func (o Order) IsRaw() bool {
	return o.SQL != ""
}

// HavingType identifies the shape of a having entry.
type HavingType string

const (
	HavingBasic   HavingType = "basic"
	HavingRaw     HavingType = "raw"
	HavingBetween HavingType = "between"
	HavingNull    HavingType = "null"
	HavingNotNull HavingType = "notNull"
)

// Having is a having-clause entry.
type Having struct {
	Type     HavingType
	Boolean  string
	Column   any
	Operator string
	Value    any
	Values   []any
	SQL      string
	Not      bool
}

// Join is a join target. Its on/where conditions live in Clause.Wheres and their
// bindings in Clause.Bindings.Where.
type Join struct {
	Type   string
	Table  any
	Clause *Registry
}

// Union is a union branch.
type Union struct {
	Query *Registry
	All   bool
}

// Aggregate is an aggregate function replacing the select list.
type Aggregate struct {
	Function string
	Columns  []any
}

// Registry is the compiled clause registry of one query.
type Registry struct {
	From     any
	Columns  []any
	Distinct bool

	Aggregate *Aggregate

	Joins   []*Join
	Wheres  []*Where
	Groups  []any
	Havings []*Having
	Orders  []*Order
	Limit   *int
	Offset  *int

	Unions      []*Union
	UnionOrders []*Order
	UnionLimit  *int
	UnionOffset *int

	// Lock is nil (no lock), a bool (true = exclusive, false = shared) or a raw
	// lock string.
	Lock any

	Bindings Bindings

	// IsJoinClause marks the registry owned by a Join: its wheres compile with "on".
	IsJoinClause bool
}

// NewRegistry creates a registry selecting from the given table.
func NewRegistry(from any) *Registry {
	return &Registry{From: from}
}

// Clone returns an independent deep copy.
func (r *Registry) Clone() *Registry {
	if r == nil {
		return nil
	}

	ret := &Registry{
		From:         r.From,
		Columns:      slices.Clone(r.Columns),
		Distinct:     r.Distinct,
		Groups:       slices.Clone(r.Groups),
		Limit:        cloneInt(r.Limit),
		Offset:       cloneInt(r.Offset),
		UnionLimit:   cloneInt(r.UnionLimit),
		UnionOffset:  cloneInt(r.UnionOffset),
		Lock:         r.Lock,
		Bindings:     r.Bindings.Clone(),
		IsJoinClause: r.IsJoinClause,
	}

	if r.Aggregate != nil {
		ret.Aggregate = &Aggregate{Function: r.Aggregate.Function, Columns: slices.Clone(r.Aggregate.Columns)}
	}

	for _, j := range r.Joins {
		ret.Joins = append(ret.Joins, &Join{Type: j.Type, Table: j.Table, Clause: j.Clause.Clone()})
	}
	for _, w := range r.Wheres {
		ret.Wheres = append(ret.Wheres, w.clone())
	}
	for _, h := range r.Havings {
		hc := *h
		hc.Values = slices.Clone(h.Values)
		ret.Havings = append(ret.Havings, &hc)
	}
	ret.Orders = cloneOrders(r.Orders)
	ret.UnionOrders = cloneOrders(r.UnionOrders)
	for _, u := range r.Unions {
		ret.Unions = append(ret.Unions, &Union{Query: u.Query.Clone(), All: u.All})
	}

	return ret
}

func (w *Where) clone() *Where {
	wc := *w
	wc.Values = slices.Clone(w.Values)
	wc.Query = w.Query.Clone()

	return &wc
}

func cloneOrders(orders []*Order) []*Order {
	if orders == nil {
		return nil
	}

	ret := make([]*Order, 0, len(orders))
	for _, o := range orders {
		oc := *o
		ret = append(ret, &oc)
	}

	return ret
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v

	return &c
}

// ResolvedBindings returns a copy of the buckets. When the registry has union
// branches the union bucket is derived from them, each branch contributing its own
// flattened bindings in branch order, so conditions appended to a branch after it was
// attached stay aligned with that branch's placeholders. Without branches the stored
// union bucket is kept (it may hold bindings merged in from a wrapped subquery).
func (r *Registry) ResolvedBindings() Bindings {
	b := r.Bindings.Clone()
	if len(r.Unions) == 0 {
		return b
	}

	b.Union = nil
	for _, u := range r.Unions {
		b.Union = append(b.Union, u.Query.FlatBindings()...)
	}

	return b
}

// FlatBindings flattens ResolvedBindings.
func (r *Registry) FlatBindings() []any {
	return r.ResolvedBindings().Flatten()
}

// HasGroupsOrHavings reports whether the registry groups or filters groups.
func (r *Registry) HasGroupsOrHavings() bool {
	return len(r.Groups) > 0 || len(r.Havings) > 0
}

// IntPtr is a small helper for Limit/Offset style fields.
func IntPtr(v int) *int {
	return &v
}
