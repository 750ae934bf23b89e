// Package sqlpager provides the paginators and the keyset cursor used by the
// query builder.
//
// Overview
//
// sqlpager implements three page shapes:
//   - LengthAwarePaginator: offset pagination that knows the total row count and
//     the last page.
//   - Paginator: offset pagination that fetches one extra row to learn whether a
//     next page exists, without counting.
//   - CursorPaginator: keyset pagination driven by a Cursor, the values of the
//     order columns of a boundary row. It scales on large tables and requires a
//     deterministic ordering ending on a unique column.
//
// Key concepts
//   - Cursor: an immutable keyset position, encoded as an opaque URL-safe token.
//   - Options: the base path, extra query parameters and parameter names used to
//     build page URLs.
//   - Resolvers: the ambient request state (current page, path, cursor) a
//     paginator falls back to.
//
// Queries are built and run by the query package, compiled per dialect by the
// grammar package and executed by the conn package.
package sqlpager
