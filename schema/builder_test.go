package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alp4ka/sqlpager/grammar"
)

type recordingConnection struct {
	statements []string
	rows       []map[string]any
	failOn     string
}

func (c *recordingConnection) Select(_ context.Context, sql string, _ []any, _ bool) ([]map[string]any, error) {
	c.statements = append(c.statements, sql)
	return c.rows, nil
}

func (c *recordingConnection) Statement(_ context.Context, sql string, _ []any) error {
	c.statements = append(c.statements, sql)
	if c.failOn != "" && sql == c.failOn {
		return errors.New("boom")
	}

	return nil
}

func Test_Builder_Create(t *testing.T) {
	conn := &recordingConnection{}
	q := grammar.NewSQLite()
	q.SetTablePrefix("app_")
	b := NewBuilder(conn, NewSQLite(q))

	err := b.Create(context.Background(), "users", func(bp *Blueprint) {
		bp.ID()
		bp.String("email", 0).Unique()
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`create table "app_users" ("id" integer primary key autoincrement not null, "email" varchar not null)`,
		`create unique index "app_users_email_unique" on "app_users" ("email")`,
	}, conn.statements)
}

func Test_Builder_TableAndDrop(t *testing.T) {
	conn := &recordingConnection{}
	b := NewBuilder(conn, mysqlGrammar())
	ctx := context.Background()

	require.NoError(t, b.Table(ctx, "users", func(bp *Blueprint) { bp.Integer("age").Nullable() }))
	require.NoError(t, b.Rename(ctx, "users", "people"))
	require.NoError(t, b.DropColumns(ctx, "people", "age"))
	require.NoError(t, b.DropIfExists(ctx, "people"))
	require.NoError(t, b.Drop(ctx, "teams"))

	assert.Equal(t, []string{
		"alter table `users` add `age` int null",
		"rename table `users` to `people`",
		"alter table `people` drop `age`",
		"drop table if exists `people`",
		"drop table `teams`",
	}, conn.statements)
}

func Test_Builder_CompileError(t *testing.T) {
	conn := &recordingConnection{}
	b := NewBuilder(conn, sqliteGrammar())

	err := b.Table(context.Background(), "users", func(bp *Blueprint) { bp.DropPrimary() })
	require.ErrorIs(t, err, grammar.ErrUnsupported)
	assert.Empty(t, conn.statements)

	err = b.CreateDatabase(context.Background(), "app")
	require.ErrorIs(t, err, grammar.ErrUnsupported)
}

func Test_Builder_Introspection(t *testing.T) {
	conn := &recordingConnection{rows: []map[string]any{{"name": "Users"}, {"name": "teams"}}}
	b := NewBuilder(conn, postgresGrammar()).WithSchema("app")
	ctx := context.Background()

	ok, err := b.HasTable(ctx, "users")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.HasTable(ctx, "posts")
	require.NoError(t, err)
	assert.False(t, ok)

	listing, err := b.GetColumnListing(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"Users", "teams"}, listing)
	assert.Contains(t, conn.statements[len(conn.statements)-1], "n.nspname = 'app'")

	ok, err = b.HasColumn(ctx, "users", "users", "TEAMS")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.HasColumn(ctx, "users", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func Test_Builder_WithoutForeignKeyConstraints(t *testing.T) {
	conn := &recordingConnection{}
	b := NewBuilder(conn, sqliteGrammar())
	ctx := context.Background()

	err := b.WithoutForeignKeyConstraints(ctx, func() error {
		return b.Drop(ctx, "users")
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"PRAGMA foreign_keys = OFF;", `drop table "users"`, "PRAGMA foreign_keys = ON;"}, conn.statements)

	conn.statements = nil
	conn.failOn = `drop table "users"`
	err = b.WithoutForeignKeyConstraints(ctx, func() error {
		return b.Drop(ctx, "users")
	})
	require.ErrorContains(t, err, "boom")
	assert.Equal(t, "PRAGMA foreign_keys = ON;", conn.statements[len(conn.statements)-1])
}
