package query

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// ErrStopIteration is returned by a chunk callback to stop without error.
var ErrStopIteration = errors.New("stop iteration")

// ErrMissingColumn is the sentinel every MissingColumnError unwraps to.
var ErrMissingColumn = errors.New("chunk column missing from result")

// MissingColumnError reports a by-id iteration whose rows lack the id column.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("the chunkById operation was aborted because the [%s] column is not present in the query result", e.Column)
}

func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}

// ChunkFunc receives a page of rows and its 1-based number.
type ChunkFunc func(rows []Row, page int) error

// bounds returns the offset and the remaining limit the caller set, taking the
// union ones when the query has branches.
func (b *Builder) bounds() (skip int, remaining *int) {
	offset, limit := b.reg.Offset, b.reg.Limit
	if len(b.reg.Unions) > 0 {
		offset, limit = b.reg.UnionOffset, b.reg.UnionLimit
	}
	if offset != nil {
		skip = *offset
	}
	if limit != nil {
		n := *limit
		remaining = &n
	}

	return skip, remaining
}

func (b *Builder) enforceOrderBy() error {
	if len(b.reg.Orders) == 0 && len(b.reg.UnionOrders) == 0 {
		return ErrMissingOrder
	}

	return nil
}

// stopped maps a callback error onto the result of a chunk run.
func stopped(err error) (bool, error) {
	if errors.Is(err, ErrStopIteration) {
		return false, nil
	}

	return false, err
}

// Chunk walks the result by offset in pages of count rows. The query must be
// ordered; its own offset and limit bound the walk. It returns false when fn
// stopped the walk.
func (b *Builder) Chunk(ctx context.Context, count int, fn ChunkFunc) (bool, error) {
	if err := b.enforceOrderBy(); err != nil {
		return false, err
	}
	if count <= 0 {
		return false, fmt.Errorf("chunk size must be positive, got %d", count)
	}

	skip, remaining := b.bounds()

	for page := 1; ; page++ {
		limit := count
		if remaining != nil {
			limit = min(count, *remaining)
		}
		if limit == 0 {
			return true, nil
		}

		rows, err := b.Clone().Offset((page-1)*count + skip).Limit(limit).Get(ctx)
		if err != nil {
			return false, err
		}
		if len(rows) == 0 {
			return true, nil
		}
		if remaining != nil {
			*remaining = max(*remaining-len(rows), 0)
		}

		if err = fn(rows, page); err != nil {
			return stopped(err)
		}

		if len(rows) != count {
			return true, nil
		}
	}
}

// Each calls fn for every row, fetching count rows at a time.
func (b *Builder) Each(ctx context.Context, count int, fn func(row Row, index int) error) (bool, error) {
	index := 0

	return b.Chunk(ctx, count, func(rows []Row, _ int) error {
		for _, row := range rows {
			if err := fn(row, index); err != nil {
				return err
			}
			index++
		}
		return nil
	})
}

// forPageAfterID limits the query to perPage rows with column greater than lastID.
func (b *Builder) forPageAfterID(perPage int, lastID any, column string) *Builder {
	b.removeOrdersFor(column)
	if lastID != nil {
		b.Where(column, ">", lastID)
	}

	return b.OrderBy(column, "asc").Limit(perPage)
}

// forPageBeforeID limits the query to perPage rows with column lower than lastID.
func (b *Builder) forPageBeforeID(perPage int, lastID any, column string) *Builder {
	b.removeOrdersFor(column)
	if lastID != nil {
		b.Where(column, "<", lastID)
	}

	return b.OrderBy(column, "desc").Limit(perPage)
}

// ChunkByID walks the result in pages of count rows keyed on column ("id" by
// default), which stays correct when fn updates the rows it receives. alias names
// the key in result rows when it differs from column.
func (b *Builder) ChunkByID(ctx context.Context, count int, fn ChunkFunc, column, alias string) (bool, error) {
	return b.OrderedChunkByID(ctx, count, fn, column, alias, false)
}

// ChunkByIDDesc is ChunkByID walking from the highest key down.
func (b *Builder) ChunkByIDDesc(ctx context.Context, count int, fn ChunkFunc, column, alias string) (bool, error) {
	return b.OrderedChunkByID(ctx, count, fn, column, alias, true)
}

// OrderedChunkByID walks the result by key in either direction.
func (b *Builder) OrderedChunkByID(
	ctx context.Context,
	count int,
	fn ChunkFunc,
	column, alias string,
	descending bool,
) (bool, error) {
	if count <= 0 {
		return false, fmt.Errorf("chunk size must be positive, got %d", count)
	}
	column = firstOr([]string{column}, "id")
	alias = firstOr([]string{alias}, column)

	skip, remaining := b.bounds()

	var lastID any
	for page := 1; ; page++ {
		q := b.Clone()
		if skip > 0 && page > 1 {
			q.Offset(0)
		}

		limit := count
		if remaining != nil {
			limit = min(count, *remaining)
		}
		if limit == 0 {
			return true, nil
		}

		if descending {
			q.forPageBeforeID(limit, lastID, column)
		} else {
			q.forPageAfterID(limit, lastID, column)
		}

		rows, err := q.Get(ctx)
		if err != nil {
			return false, err
		}
		if len(rows) == 0 {
			return true, nil
		}
		if remaining != nil {
			*remaining = max(*remaining-len(rows), 0)
		}

		if err = fn(rows, page); err != nil {
			return stopped(err)
		}

		var ok bool
		lastID, ok = lookup(rows[len(rows)-1], alias)
		if !ok || lastID == nil {
			return false, &MissingColumnError{Column: alias}
		}

		if len(rows) != count {
			return true, nil
		}
	}
}

// Lazy streams the rows, fetching count rows per query by offset. The next page is
// fetched only once the consumer has taken every row of the current one.
func (b *Builder) Lazy(ctx context.Context, count int) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		_, err := b.Chunk(ctx, count, func(rows []Row, _ int) error {
			for _, row := range rows {
				if !yield(row, nil) {
					return ErrStopIteration
				}
			}
			return nil
		})
		if err != nil {
			yield(nil, err)
		}
	}
}

// LazyByID streams the rows keyed on column, see ChunkByID.
func (b *Builder) LazyByID(ctx context.Context, count int, column, alias string) iter.Seq2[Row, error] {
	return b.orderedLazyByID(ctx, count, column, alias, false)
}

// LazyByIDDesc streams the rows from the highest key down.
func (b *Builder) LazyByIDDesc(ctx context.Context, count int, column, alias string) iter.Seq2[Row, error] {
	return b.orderedLazyByID(ctx, count, column, alias, true)
}

func (b *Builder) orderedLazyByID(ctx context.Context, count int, column, alias string, descending bool) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		_, err := b.OrderedChunkByID(ctx, count, func(rows []Row, _ int) error {
			for _, row := range rows {
				if !yield(row, nil) {
					return ErrStopIteration
				}
			}
			return nil
		}, column, alias, descending)
		if err != nil {
			yield(nil, err)
		}
	}
}
