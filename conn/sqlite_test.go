package conn

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/Alp4ka/sqlpager"
	"github.com/Alp4ka/sqlpager/grammar"
	"github.com/Alp4ka/sqlpager/query"
	"github.com/Alp4ka/sqlpager/schema"
)

func newSQLitePosts(t *testing.T, count int) *query.Builder {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	g := grammar.NewSQLite()
	c := NewSQL(db, WithGrammar(g))
	ctx := context.Background()

	err = schema.NewBuilder(c, schema.NewSQLite(g)).Create(ctx, "posts", func(bp *schema.Blueprint) {
		bp.ID()
		bp.String("title", 100)
		bp.Integer("votes")
	})
	require.NoError(t, err)

	rows := make([]map[string]any, 0, count)
	for i := 1; i <= count; i++ {
		rows = append(rows, map[string]any{"title": fmt.Sprintf("post %d", i), "votes": i % 3})
	}

	b := query.New(c, g).WithResolvers(sqlpager.Resolvers{
		CurrentPath: func() string { return "/posts" },
	})
	require.NoError(t, b.NewQuery().Table("posts").Insert(ctx, rows...))

	return b
}

func ids(rows []map[string]any) []int64 {
	ret := make([]int64, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row["id"].(int64))
	}

	return ret
}

func Test_SQLite_Schema(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	g := grammar.NewSQLite()
	sb := schema.NewBuilder(NewSQL(db, WithGrammar(g)), schema.NewSQLite(g))
	ctx := context.Background()

	require.NoError(t, sb.Create(ctx, "tags", func(bp *schema.Blueprint) {
		bp.ID()
		bp.String("name", 50)
	}))

	has, err := sb.HasTable(ctx, "tags")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, sb.Drop(ctx, "tags"))

	has, err = sb.HasTable(ctx, "tags")
	require.NoError(t, err)
	assert.False(t, has)
}

func Test_SQLite_Paginate(t *testing.T) {
	b := newSQLitePosts(t, 5)
	ctx := context.Background()

	p, err := b.NewQuery().Table("posts").OrderBy("id", "asc").Paginate(ctx, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, p.Total())
	assert.Equal(t, 3, p.LastPage())
	assert.Equal(t, []int64{3, 4}, ids(p.Items()))
	assert.Equal(t, "/posts?page=3", p.NextPageURL())

	simple, err := b.NewQuery().Table("posts").OrderBy("id", "asc").SimplePaginate(ctx, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, ids(simple.Items()))
	assert.False(t, simple.HasMorePages())
}

func Test_SQLite_CursorPaginate(t *testing.T) {
	b := newSQLitePosts(t, 5)
	ctx := context.Background()
	q := b.NewQuery().Table("posts").OrderBy("id", "asc")

	var (
		seen   []int64
		cursor *sqlpager.Cursor
	)
	for range 5 {
		p, err := q.CursorPaginate(ctx, 2, cursor)
		require.NoError(t, err)
		seen = append(seen, ids(p.Items())...)

		cursor = p.NextCursor()
		if cursor == nil {
			break
		}
		// Tokens survive a round trip through a URL.
		cursor = sqlpager.DecodeCursor(cursor.Encode())
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, seen)

	back, err := q.CursorPaginate(ctx, 2, sqlpager.NewCursor(map[string]any{"id": 5}, false))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, ids(back.Items()))
	assert.True(t, back.HasMorePages())
}

func Test_SQLite_ChunkByID(t *testing.T) {
	b := newSQLitePosts(t, 5)
	ctx := context.Background()

	var pages [][]int64
	ok, err := b.NewQuery().Table("posts").ChunkByID(ctx, 2, func(rows []query.Row, _ int) error {
		pages = append(pages, ids(rows))
		return nil
	}, "", "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, [][]int64{{1, 2}, {3, 4}, {5}}, pages)

	var lazy []int64
	for row, err := range b.NewQuery().Table("posts").Where("votes", ">", 0).LazyByIDDesc(ctx, 2, "", "") {
		require.NoError(t, err)
		lazy = append(lazy, row["id"].(int64))
	}
	assert.Equal(t, []int64{5, 4, 2, 1}, lazy)

	n, err := b.NewQuery().Table("posts").Where("votes", 0).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
