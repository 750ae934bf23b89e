package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alp4ka/sqlpager/clause"
)

func Test_Grammar_CompileInsert(t *testing.T) {
	rows := []map[string]any{
		{"name": "b", "email": "a"},
		{"email": "c", "name": "d"},
	}

	sql, err := NewBase().CompileInsert(clause.NewRegistry("users"), rows)
	require.NoError(t, err)
	assert.Equal(t, `insert into "users" ("email", "name") values (?, ?), (?, ?)`, sql)
	assert.Equal(t, []any{"a", "b", "c", "d"}, InsertBindings(rows))

	_, err = NewBase().CompileInsert(clause.NewRegistry("users"), []map[string]any{{"a": 1}, {"b": 2}})
	require.Error(t, err)
}

func Test_Grammar_CompileInsert_Empty(t *testing.T) {
	sql, err := NewBase().CompileInsert(clause.NewRegistry("users"), nil)
	require.NoError(t, err)
	assert.Equal(t, `insert into "users" default values`, sql)

	sql, err = NewMySQL().CompileInsert(clause.NewRegistry("users"), []map[string]any{{}})
	require.NoError(t, err)
	assert.Equal(t, "insert into `users` () values ()", sql)
}

func Test_Grammar_CompileInsert_ExpressionInlined(t *testing.T) {
	rows := []map[string]any{{"created_at": clause.Raw("now()"), "email": "a"}}

	sql, err := NewPostgres().CompileInsert(clause.NewRegistry("users"), rows)
	require.NoError(t, err)
	assert.Equal(t, `insert into "users" ("created_at", "email") values (now(), ?)`, sql)
	assert.Equal(t, []any{"a"}, InsertBindings(rows))
}

func Test_Grammar_CompileInsertOrIgnore(t *testing.T) {
	rows := []map[string]any{{"email": "a"}}

	tests := []struct {
		name    string
		grammar Grammar
		want    string
	}{
		{"mysql", NewMySQL(), "insert ignore into `users` (`email`) values (?)"},
		{"postgres", NewPostgres(), `insert into "users" ("email") values (?) on conflict do nothing`},
		{"sqlite", NewSQLite(), `insert or ignore into "users" ("email") values (?)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, err := tt.grammar.CompileInsertOrIgnore(clause.NewRegistry("users"), rows)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
		})
	}

	_, err := NewSQLServer().CompileInsertOrIgnore(clause.NewRegistry("users"), rows)
	require.EqualError(t, err, "This database driver does not support inserting while ignoring errors.")
}

func Test_Grammar_CompileInsertGetID(t *testing.T) {
	row := map[string]any{"email": "a"}

	sql, err := NewPostgres().CompileInsertGetID(clause.NewRegistry("users"), row, "")
	require.NoError(t, err)
	assert.Equal(t, `insert into "users" ("email") values (?) returning "id"`, sql)

	sql, err = NewSQLServer().CompileInsertGetID(clause.NewRegistry("users"), row, "uid")
	require.NoError(t, err)
	assert.Equal(t, "insert into [users] ([email]) output inserted.[uid] values (?)", sql)

	sql, err = NewMySQL().CompileInsertGetID(clause.NewRegistry("users"), row, "")
	require.NoError(t, err)
	assert.Equal(t, "insert into `users` (`email`) values (?)", sql)
}

func Test_Grammar_CompileInsertUsing(t *testing.T) {
	sql, err := NewBase().CompileInsertUsing(clause.NewRegistry("archive"), []string{"id", "email"}, `select "id", "email" from "users"`)
	require.NoError(t, err)
	assert.Equal(t, `insert into "archive" ("id", "email") select "id", "email" from "users"`, sql)
}

func Test_Grammar_CompileUpsert(t *testing.T) {
	rows := []map[string]any{{"email": "a", "name": "b"}}

	tests := []struct {
		name    string
		grammar Grammar
		want    string
	}{
		{"mysql", NewMySQL(), "insert into `users` (`email`, `name`) values (?, ?) on duplicate key update `name` = values(`name`)"},
		{"postgres", NewPostgres(), `insert into "users" ("email", "name") values (?, ?) on conflict ("email") do update set "name" = "excluded"."name"`},
		{"sqlite", NewSQLite(), `insert into "users" ("email", "name") values (?, ?) on conflict ("email") do update set "name" = "excluded"."name"`},
		{"sqlserver", NewSQLServer(), "merge [users] using (values (?, ?)) [source] ([email], [name]) on [source].[email] = [users].[email] " +
			"when matched then update set [name] = [source].[name] when not matched then insert ([email], [name]) values ([email], [name]);"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, err := tt.grammar.CompileUpsert(clause.NewRegistry("users"), rows, []string{"email"}, []string{"name"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
		})
	}
}

func Test_Grammar_CompileUpdate(t *testing.T) {
	values := map[string]any{"name": "foo", "email": "bar"}

	tests := []struct {
		name    string
		grammar Grammar
		want    string
	}{
		{"base", NewBase(), `update "users" set "email" = ?, "name" = ? where "id" = ?`},
		{"mysql", NewMySQL(), "update `users` set `email` = ?, `name` = ? where `id` = ?"},
		{"sqlserver", NewSQLServer(), "update [users] set [email] = ?, [name] = ? where [id] = ?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := usersWhereID(1)

			sql, err := tt.grammar.CompileUpdate(q, values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)

			bindings, err := tt.grammar.PrepareBindingsForUpdate(q, values)
			require.NoError(t, err)
			assert.Equal(t, []any{"bar", "foo", 1}, bindings)
		})
	}
}

func Test_Grammar_CompileUpdate_WithJoins(t *testing.T) {
	newQuery := func() *clause.Registry {
		q := usersWhereID(1)
		q.Wheres[0].Column = "users.id"
		q.Joins = []*clause.Join{innerJoin("orders", "users.id", "orders.user_id")}
		q.Bindings.Add(clause.BindingJoin, 5)

		return q
	}
	values := map[string]any{"email": "foo"}

	tests := []struct {
		name     string
		grammar  Grammar
		want     string
		bindings []any
	}{
		{
			"mysql", NewMySQL(),
			"update `users` inner join `orders` on `users`.`id` = `orders`.`user_id` set `email` = ? where `users`.`id` = ?",
			[]any{5, "foo", 1},
		},
		{
			"postgres", NewPostgres(),
			`update "users" set "email" = ? where "ctid" in (select "users"."ctid" from "users" inner join "orders" on "users"."id" = "orders"."user_id" where "users"."id" = ?)`,
			[]any{"foo", 5, 1},
		},
		{
			"sqlite", NewSQLite(),
			`update "users" set "email" = ? where "rowid" in (select "users"."rowid" from "users" inner join "orders" on "users"."id" = "orders"."user_id" where "users"."id" = ?)`,
			[]any{"foo", 5, 1},
		},
		{
			"sqlserver", NewSQLServer(),
			"update [users] set [email] = ? from [users] inner join [orders] on [users].[id] = [orders].[user_id] where [users].[id] = ?",
			[]any{"foo", 5, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newQuery()

			sql, err := tt.grammar.CompileUpdate(q, values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)

			bindings, err := tt.grammar.PrepareBindingsForUpdate(q, values)
			require.NoError(t, err)
			assert.Equal(t, tt.bindings, bindings)
		})
	}
}

func Test_Grammar_CompileUpdate_WithLimit(t *testing.T) {
	newQuery := func() *clause.Registry {
		q := usersWhereID(1)
		q.Orders = []*clause.Order{{Column: "id", Direction: clause.DirectionASC}}
		q.Limit = clause.IntPtr(3)

		return q
	}
	values := map[string]any{"email": "foo"}

	sql, err := NewMySQL().CompileUpdate(newQuery(), values)
	require.NoError(t, err)
	assert.Equal(t, "update `users` set `email` = ? where `id` = ? order by `id` asc limit 3", sql)

	sql, err = NewSQLite().CompileUpdate(newQuery(), values)
	require.NoError(t, err)
	assert.Equal(t, `update "users" set "email" = ? where "rowid" in (select "users"."rowid" from "users" where "id" = ? order by "id" asc limit 3)`, sql)
}

func Test_Grammar_CompileUpdate_Qualified(t *testing.T) {
	sql, err := NewPostgres().CompileUpdate(usersWhereID(1), map[string]any{"users.email": "foo"})
	require.NoError(t, err)
	assert.Equal(t, `update "users" set "email" = ? where "id" = ?`, sql)

	sql, err = NewMySQL().CompileUpdate(usersWhereID(1), map[string]any{"users.email": "foo"})
	require.NoError(t, err)
	assert.Equal(t, "update `users` set `users`.`email` = ? where `id` = ?", sql)
}

func Test_Grammar_CompileDelete(t *testing.T) {
	tests := []struct {
		name    string
		grammar Grammar
		build   func() *clause.Registry
		want    string
	}{
		{
			"base", NewBase(),
			func() *clause.Registry { return usersWhereID(1) },
			`delete from "users" where "id" = ?`,
		},
		{
			"mysql order and limit", NewMySQL(),
			func() *clause.Registry {
				q := usersWhereID(1)
				q.Orders = []*clause.Order{{Column: "id", Direction: clause.DirectionASC}}
				q.Limit = clause.IntPtr(1)
				return q
			},
			"delete from `users` where `id` = ? order by `id` asc limit 1",
		},
		{
			"mysql joins", NewMySQL(),
			func() *clause.Registry {
				q := clause.NewRegistry("users as u")
				q.Joins = []*clause.Join{innerJoin("orders", "u.id", "orders.user_id")}
				return q
			},
			"delete `u` from `users` as `u` inner join `orders` on `u`.`id` = `orders`.`user_id`",
		},
		{
			"postgres limit", NewPostgres(),
			func() *clause.Registry {
				q := usersWhereID(1)
				q.Limit = clause.IntPtr(2)
				return q
			},
			`delete from "users" where "ctid" in (select "users"."ctid" from "users" where "id" = ? limit 2)`,
		},
		{
			"sqlite joins", NewSQLite(),
			func() *clause.Registry {
				q := clause.NewRegistry("users")
				q.Joins = []*clause.Join{innerJoin("orders", "users.id", "orders.user_id")}
				return q
			},
			`delete from "users" where "rowid" in (select "users"."rowid" from "users" inner join "orders" on "users"."id" = "orders"."user_id")`,
		},
		{
			"sqlserver top", NewSQLServer(),
			func() *clause.Registry {
				q := usersWhereID(1)
				q.Limit = clause.IntPtr(5)
				return q
			},
			"delete top (5) from [users] where [id] = ?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.build()

			sql, err := tt.grammar.CompileDelete(q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
		})
	}
}

func Test_Grammar_PrepareBindingsForDelete(t *testing.T) {
	q := usersWhereID(1)
	q.Bindings.Add(clause.BindingSelect, "ignored")
	q.Bindings.Add(clause.BindingJoin, 2)

	assert.Equal(t, []any{2, 1}, NewBase().PrepareBindingsForDelete(q))
}

func Test_Grammar_CompileTruncate(t *testing.T) {
	q := clause.NewRegistry("users")

	tests := []struct {
		name    string
		grammar Grammar
		want    []Statement
	}{
		{"base", NewBase(), []Statement{{SQL: `truncate table "users"`}}},
		{"mysql", NewMySQL(), []Statement{{SQL: "truncate table `users`"}}},
		{"postgres", NewPostgres(), []Statement{{SQL: `truncate "users" restart identity cascade`}}},
		{"sqlite", NewSQLite(), []Statement{
			{SQL: "delete from sqlite_sequence where name = ?", Bindings: []any{"users"}},
			{SQL: `delete from "users"`},
		}},
		{"sqlserver", NewSQLServer(), []Statement{{SQL: "truncate table [users]"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.grammar.CompileTruncate(q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
