// Package clause holds the compiled clause registry a query builder fills in and a
// grammar reads: the from target, selected columns, the where tree, orders, joins,
// unions, groups, havings, limit/offset, locks and the binding buckets.
//
// A Registry is a plain value graph. Clone produces an independent deep copy, so
// pagination and aggregate helpers can strip or rewrite clauses without touching the
// caller's query.
//
// Binding buckets must stay aligned with the placeholders a grammar emits: for every
// clause category the flattened bucket order equals the order of the "?" markers the
// grammar writes for that category.
package clause
