package clause

import (
	"fmt"
	"slices"
)

// BindingType names a binding bucket.
type BindingType string

const (
	BindingSelect     BindingType = "select"
	BindingFrom       BindingType = "from"
	BindingJoin       BindingType = "join"
	BindingWhere      BindingType = "where"
	BindingGroupBy    BindingType = "groupBy"
	BindingHaving     BindingType = "having"
	BindingOrder      BindingType = "order"
	BindingUnion      BindingType = "union"
	BindingUnionOrder BindingType = "unionOrder"
)

// BindingTypes lists every bucket in the order placeholders appear in a compiled
// select statement.
var BindingTypes = []BindingType{
	BindingSelect,
	BindingFrom,
	BindingJoin,
	BindingWhere,
	BindingGroupBy,
	BindingHaving,
	BindingOrder,
	BindingUnion,
	BindingUnionOrder,
}

// Bindings holds the parameter values of a registry, one ordered bucket per clause
// category.
type Bindings struct {
	Select     []any
	From       []any
	Join       []any
	Where      []any
	GroupBy    []any
	Having     []any
	Order      []any
	Union      []any
	UnionOrder []any
}

func (b *Bindings) bucket(t BindingType) *[]any {
	switch t {
	case BindingSelect:
		return &b.Select
	case BindingFrom:
		return &b.From
	case BindingJoin:
		return &b.Join
	case BindingWhere:
		return &b.Where
	case BindingGroupBy:
		return &b.GroupBy
	case BindingHaving:
		return &b.Having
	case BindingOrder:
		return &b.Order
	case BindingUnion:
		return &b.Union
	case BindingUnionOrder:
		return &b.UnionOrder
	default:
		panic(fmt.Errorf("invalid binding type '%s'", t))
	}
}

// Get returns the bucket of the given type.
func (b *Bindings) Get(t BindingType) []any {
	return *b.bucket(t)
}

// Add appends values to a bucket.
func (b *Bindings) Add(t BindingType, values ...any) {
	bucket := b.bucket(t)
	*bucket = append(*bucket, values...)
}

// Set replaces a bucket.
func (b *Bindings) Set(t BindingType, values []any) {
	*b.bucket(t) = slices.Clone(values)
}

// Reset empties the given buckets.
func (b *Bindings) Reset(types ...BindingType) {
	for _, t := range types {
		*b.bucket(t) = nil
	}
}

// Flatten concatenates the buckets in BindingTypes order.
func (b Bindings) Flatten() []any {
	ret := make([]any, 0)
	for _, t := range BindingTypes {
		ret = append(ret, b.Get(t)...)
	}

	return ret
}

// Except concatenates every bucket except the excluded ones, in BindingTypes order.
func (b Bindings) Except(excluded ...BindingType) []any {
	ret := make([]any, 0)
	for _, t := range BindingTypes {
		if slices.Contains(excluded, t) {
			continue
		}
		ret = append(ret, b.Get(t)...)
	}

	return ret
}

// Clone copies every bucket.
func (b Bindings) Clone() Bindings {
	return Bindings{
		Select:     slices.Clone(b.Select),
		From:       slices.Clone(b.From),
		Join:       slices.Clone(b.Join),
		Where:      slices.Clone(b.Where),
		GroupBy:    slices.Clone(b.GroupBy),
		Having:     slices.Clone(b.Having),
		Order:      slices.Clone(b.Order),
		Union:      slices.Clone(b.Union),
		UnionOrder: slices.Clone(b.UnionOrder),
	}
}
