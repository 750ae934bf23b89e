package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alp4ka/sqlpager"
)

func Test_Builder_Paginate(t *testing.T) {
	conn := &fakeConnection{results: [][]Row{
		{{"aggregate": int64(5)}},
		idRows(3, 4),
	}}
	b := newBuilder(conn).Table("users").OrderBy("id", "asc").WithResolvers(sqlpager.Resolvers{
		CurrentPage: func(string) int { return 2 },
		CurrentPath: func() string { return "/users" },
	})

	p, err := b.Paginate(context.Background(), 2, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{
		`select count(*) as aggregate from "users"`,
		`select * from "users" order by "id" asc limit 2 offset 2`,
	}, conn.sqls())
	assert.Equal(t, 5, p.Total())
	assert.Equal(t, 2, p.CurrentPage())
	assert.Equal(t, 3, p.LastPage())
	assert.Equal(t, idRows(3, 4), p.Items())
	assert.Equal(t, "/users?page=3", p.NextPageURL())
	assert.Equal(t, "/users?page=1", p.PreviousPageURL())
}

func Test_Builder_Paginate_Empty(t *testing.T) {
	conn := &fakeConnection{results: [][]Row{{{"aggregate": int64(0)}}}}

	p, err := newBuilder(conn).Table("users").Paginate(context.Background(), 10, 1)
	require.NoError(t, err)

	assert.Len(t, conn.statements, 1)
	assert.True(t, p.IsEmpty())
	assert.Equal(t, 1, p.LastPage())
	assert.False(t, p.HasPages())
}

func Test_Builder_Paginate_Options(t *testing.T) {
	conn := &fakeConnection{results: [][]Row{{{"aggregate": "3"}}, idRows(1, 2)}}
	b := newBuilder(conn).Table("users").WithOptions(sqlpager.Options{Path: "/api/users", PageName: "p"})

	p, err := b.Paginate(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, "/api/users?p=2", p.NextPageURL())
}

func Test_Builder_Paginate_QueryString(t *testing.T) {
	tests := []struct {
		name     string
		query    map[string]string
		options  sqlpager.Options
		wantNext string
		wantPrev string
	}{
		{
			"resolved query string is kept",
			map[string]string{"city": "Oslo", "page": "9"},
			sqlpager.Options{},
			"/users?city=Oslo&page=3",
			"/users?city=Oslo&page=1",
		},
		{
			"explicit query wins",
			map[string]string{"city": "Oslo", "sort": "name"},
			sqlpager.Options{Query: map[string]string{"city": "Bergen"}},
			"/users?city=Bergen&page=3&sort=name",
			"/users?city=Bergen&page=1&sort=name",
		},
		{
			"custom page name dropped",
			map[string]string{"p": "7", "q": "x"},
			sqlpager.Options{PageName: "p"},
			"/users?p=3&q=x",
			"/users?p=1&q=x",
		},
		{
			"no query string",
			nil,
			sqlpager.Options{},
			"/users?page=3",
			"/users?page=1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConnection{results: [][]Row{{{"aggregate": int64(6)}}, idRows(3, 4)}}
			b := newBuilder(conn).Table("users").WithOptions(tt.options).WithResolvers(sqlpager.Resolvers{
				CurrentPath: func() string { return "/users" },
				QueryString: func() map[string]string { return tt.query },
			})

			p, err := b.Paginate(context.Background(), 2, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNext, p.NextPageURL())
			assert.Equal(t, tt.wantPrev, p.PreviousPageURL())
		})
	}
}

func Test_Builder_CursorPaginate_QueryString(t *testing.T) {
	conn := &fakeConnection{results: [][]Row{idRows(1, 2, 3)}}
	b := newBuilder(conn).Table("users").OrderBy("id", "asc").WithResolvers(sqlpager.Resolvers{
		CurrentPath: func() string { return "/users" },
		QueryString: func() map[string]string { return map[string]string{"city": "Oslo", "cursor": "stale"} },
	})

	p, err := b.CursorPaginate(context.Background(), 2, nil)
	require.NoError(t, err)
	assert.Equal(t, "/users?city=Oslo&cursor="+p.NextCursor().Encode(), p.NextPageURL())
}

func Test_Builder_SimplePaginate(t *testing.T) {
	conn := &fakeConnection{results: [][]Row{idRows(1, 2, 3)}}

	p, err := newBuilder(conn).Table("users").OrderBy("id", "asc").SimplePaginate(context.Background(), 2, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{`select * from "users" order by "id" asc limit 3 offset 0`}, conn.sqls())
	assert.Equal(t, idRows(1, 2), p.Items())
	assert.True(t, p.HasMorePages())
	assert.Equal(t, "/?page=2", p.NextPageURL())
}

func Test_Builder_CursorPaginate(t *testing.T) {
	conn := &fakeConnection{results: [][]Row{idRows(1, 2, 3)}}
	b := newBuilder(conn).Table("users").OrderBy("id", "asc")

	p, err := b.CursorPaginate(context.Background(), 2, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{`select * from "users" order by "id" asc limit 3`}, conn.sqls())
	assert.Equal(t, idRows(1, 2), p.Items())
	assert.True(t, p.OnFirstPage())
	assert.Nil(t, p.PreviousCursor())
	assert.True(t, sqlpager.NewCursor(map[string]any{"id": "2"}, true).Equal(p.NextCursor()))

	// Follow the next cursor.
	conn.results = [][]Row{idRows(3)}
	next, err := b.CursorPaginate(context.Background(), 2, p.NextCursor())
	require.NoError(t, err)

	assert.Equal(t, `select * from "users" where ("id" > ?) order by "id" asc limit 3`, conn.statements[1].sql)
	assert.Equal(t, []any{"2"}, conn.statements[1].bindings)
	assert.True(t, next.OnLastPage())
	assert.Nil(t, next.NextCursor())
	assert.True(t, sqlpager.NewCursor(map[string]any{"id": "3"}, false).Equal(next.PreviousCursor()))
}

func Test_Builder_CursorPaginate_Backward(t *testing.T) {
	// The database answers in flipped order.
	conn := &fakeConnection{results: [][]Row{idRows(4, 3, 2)}}
	cursor := sqlpager.NewCursor(map[string]any{"id": "5"}, false)

	p, err := newBuilder(conn).Table("users").OrderBy("id", "asc").CursorPaginate(context.Background(), 2, cursor)
	require.NoError(t, err)

	assert.Equal(t, `select * from "users" where ("id" < ?) order by "id" desc limit 3`, conn.statements[0].sql)
	assert.Equal(t, idRows(3, 4), p.Items())
	assert.False(t, p.OnFirstPage())
	assert.True(t, sqlpager.NewCursor(map[string]any{"id": "4"}, true).Equal(p.NextCursor()))
}

func Test_Builder_CursorPaginate_Resolvers(t *testing.T) {
	conn := &fakeConnection{}
	cursor := sqlpager.NewCursor(map[string]any{"id": "9"}, true)
	b := newBuilder(conn).Table("users").OrderByDesc("id").WithResolvers(sqlpager.Resolvers{
		CurrentCursor: func(name string) *sqlpager.Cursor {
			if name == "cursor" {
				return cursor
			}
			return nil
		},
	})

	p, err := b.CursorPaginate(context.Background(), 0, nil)
	require.NoError(t, err)

	assert.Equal(t, `select * from "users" where ("id" < ?) order by "id" desc limit 16`, conn.statements[0].sql)
	assert.True(t, p.IsEmpty())
	assert.Equal(t, sqlpager.DefaultPerPage, p.PerPage())
}

func Test_Builder_CursorPaginate_MissingOrder(t *testing.T) {
	_, err := newBuilder(&fakeConnection{}).Table("users").CursorPaginate(context.Background(), 2, nil)
	assert.ErrorIs(t, err, ErrMissingOrder)
}
