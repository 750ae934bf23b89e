// Package query is a fluent SQL query builder over a clause.Registry.
//
// A Builder records clauses and their bindings, compiles them through a
// grammar.Grammar and runs the result on a Connection. On top of plain
// select/insert/update/delete it offers offset pagination (Paginate,
// SimplePaginate), keyset pagination (CursorPaginate), chunked and lazy iteration,
// and the count rewriting used by length-aware pagination.
//
// Building methods mutate the receiver and return it, so calls chain:
//
//	users, err := query.New(conn, grammar.NewPostgres()).
//	    Table("users").
//	    Where("active", true).
//	    OrderBy("id", "asc").
//	    CursorPaginate(ctx, 15, cursor)
//
// An invalid building call (unknown operator, bad direction, broken subquery) is
// recorded on the builder and returned by the first method that compiles SQL.
// Pagination, counting and iteration operate on clones and never mutate the
// receiver.
package query
