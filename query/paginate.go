package query

import (
	"context"
	"maps"

	"github.com/samber/lo"

	"github.com/Alp4ka/sqlpager"
)

// paginationOptions fills the unset options from the resolvers. The resolved query
// string is carried into every generated URL; explicit Options.Query entries win
// over it, and the page and cursor parameters are left to the paginator.
func (b *Builder) paginationOptions() sqlpager.Options {
	opts := b.options
	if opts.Path == "" {
		opts.Path = b.resolvers.CurrentPath()
	}
	if opts.PageName == "" {
		opts.PageName = sqlpager.DefaultPageName
	}
	if opts.CursorName == "" {
		opts.CursorName = sqlpager.DefaultCursorName
	}

	query := lo.OmitByKeys(b.resolvers.QueryString(), []string{opts.PageName, opts.CursorName})
	maps.Copy(query, opts.Query)
	if len(query) > 0 {
		opts.Query = query
	}

	return opts
}

func normalizePerPage(perPage int) int {
	if perPage <= 0 {
		return sqlpager.DefaultPerPage
	}

	return perPage
}

// Paginate runs a count and fetches one page. A page below 1 is read from the
// resolvers.
func (b *Builder) Paginate(ctx context.Context, perPage int, page int) (*sqlpager.LengthAwarePaginator[Row], error) {
	opts := b.paginationOptions()
	perPage = normalizePerPage(perPage)
	if page < 1 {
		page = b.resolvers.CurrentPage(opts.PageName)
	}

	total, err := b.GetCountForPagination(ctx)
	if err != nil {
		return nil, err
	}

	var rows []Row
	if total > 0 {
		rows, err = b.Clone().ForPage(page, perPage).Get(ctx)
		if err != nil {
			return nil, err
		}
	}

	return sqlpager.NewLengthAwarePaginator(rows, int(total), perPage, page, opts), nil
}

// SimplePaginate fetches one page plus one row to tell whether more pages exist. No
// count query is run.
func (b *Builder) SimplePaginate(ctx context.Context, perPage int, page int) (*sqlpager.Paginator[Row], error) {
	opts := b.paginationOptions()
	perPage = normalizePerPage(perPage)
	if page < 1 {
		page = b.resolvers.CurrentPage(opts.PageName)
	}

	rows, err := b.Clone().Offset((page-1)*perPage).Limit(perPage+1).Get(ctx)
	if err != nil {
		return nil, err
	}

	return sqlpager.NewPaginator(rows, perPage, page, opts), nil
}

// CursorPaginate fetches the page following cursor by keyset. A nil cursor is read
// from the resolvers; when they have none the first page is returned.
func (b *Builder) CursorPaginate(ctx context.Context, perPage int, cursor *sqlpager.Cursor) (*sqlpager.CursorPaginator[Row], error) {
	opts := b.paginationOptions()
	perPage = normalizePerPage(perPage)
	if cursor == nil {
		cursor = b.resolvers.CurrentCursor(opts.CursorName)
	}

	q, parameters, err := b.ForCursorPage(perPage, cursor)
	if err != nil {
		return nil, err
	}

	rows, err := q.Get(ctx)
	if err != nil {
		return nil, err
	}

	opts.Parameters = parameters

	return sqlpager.NewCursorPaginator(rows, perPage, cursor, opts)
}
