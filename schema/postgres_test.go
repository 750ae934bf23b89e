package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Postgres_Create(t *testing.T) {
	bp := usersTable()
	bp.Columns()[2].Comment("number of votes")

	statements, err := bp.ToSQL(postgresGrammar())
	require.NoError(t, err)
	assert.Equal(t, []string{
		`create table "users" ("id" bigserial not null primary key, "email" varchar(100) not null, ` +
			`"votes" integer not null default '0', "created_at" timestamp without time zone null, ` +
			`"updated_at" timestamp without time zone null)`,
		`comment on column "users"."votes" is 'number of votes'`,
		`alter table "users" add constraint "users_email_unique" unique ("email")`,
	}, statements)
}

func Test_Postgres_Commands(t *testing.T) {
	tests := []struct {
		name  string
		build func(bp *Blueprint)
		want  []string
	}{
		{
			"add column",
			func(bp *Blueprint) { bp.TimestampTz("seen_at", 0).UseCurrent() },
			[]string{`alter table "users" add column "seen_at" timestamp(0) with time zone not null default CURRENT_TIMESTAMP`},
		},
		{
			"change",
			func(bp *Blueprint) { bp.String("name", 100).Nullable().Default("x").Change() },
			[]string{`alter table "users" alter column "name" type varchar(100), alter column "name" drop not null, alter column "name" set default 'x'`},
		},
		{
			"change serial keeps integer type",
			func(bp *Blueprint) { bp.Increments("id").Change() },
			[]string{`alter table "users" alter column "id" type integer, alter column "id" set not null`},
		},
		{
			"drop columns",
			func(bp *Blueprint) { bp.DropColumn("a", "b") },
			[]string{`alter table "users" drop column "a", drop column "b"`},
		},
		{
			"generated",
			func(bp *Blueprint) { bp.Integer("total").StoredAs("a + b") },
			[]string{`alter table "users" add column "total" integer not null generated always as (a + b) stored`},
		},
		{
			"enum",
			func(bp *Blueprint) { bp.Enum("status", []string{"a", "b"}).Default("a") },
			[]string{`alter table "users" add column "status" varchar(255) check ("status" in ('a', 'b')) not null default 'a'`},
		},
		{
			"geography",
			func(bp *Blueprint) {
				bp.Point("location").Srid(3857)
				bp.MultiPolygonZ("area")
			},
			[]string{`alter table "users" add column "location" geography(point, 3857) not null, add column "area" geography(multipolygonz, 4326) not null`},
		},
		{
			"index",
			func(bp *Blueprint) { bp.Index([]string{"a"}, "idx").Algorithm = "hash" },
			[]string{`create index "idx" on "users" using hash ("a")`},
		},
		{
			"fulltext",
			func(bp *Blueprint) { bp.Fulltext([]string{"title", "body"}) },
			[]string{`create index "users_title_body_fulltext" on "users" using gin ((to_tsvector('english', "title") || to_tsvector('english', "body")))`},
		},
		{
			"spatial",
			func(bp *Blueprint) { bp.SpatialIndex([]string{"location"}) },
			[]string{`create index "users_location_spatialindex" on "users" using gist ("location")`},
		},
		{
			"drops",
			func(bp *Blueprint) {
				bp.DropPrimary()
				bp.DropIndex("i")
				bp.DropForeign("f")
			},
			[]string{
				`alter table "users" drop constraint "users_pkey"`,
				`drop index "i"`,
				`alter table "users" drop constraint "f"`,
			},
		},
		{
			"rename",
			func(bp *Blueprint) {
				bp.RenameIndex("a", "b")
				bp.Rename("people")
			},
			[]string{`alter index "a" rename to "b"`, `alter table "users" rename to "people"`},
		},
		{
			"table comment",
			func(bp *Blueprint) { bp.Comment("it's") },
			[]string{`comment on table "users" is 'it''s'`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statements, err := alterTable(tt.build).ToSQL(postgresGrammar())
			require.NoError(t, err)
			assert.Equal(t, tt.want, statements)
		})
	}
}

func Test_Postgres_Unsupported(t *testing.T) {
	_, err := alterTable(func(bp *Blueprint) { bp.String("name", 0).After("email") }).ToSQL(postgresGrammar())
	require.EqualError(t, err, "this database driver does not support after column modifier.")

	_, err = alterTable(func(bp *Blueprint) { bp.Set("flags", []string{"a"}) }).ToSQL(postgresGrammar())
	require.EqualError(t, err, "This database driver does not support the set type.")
}

func Test_Postgres_Types(t *testing.T) {
	g := postgresGrammar()

	sql, err := g.CompileCreateType("mood", []string{"sad", "happy"})
	require.NoError(t, err)
	assert.Equal(t, `create type "mood" as enum ('sad', 'happy')`, sql)

	sql, err = g.CompileDropType("mood")
	require.NoError(t, err)
	assert.Equal(t, `drop type if exists "mood"`, sql)

	sql, err = g.CompileCreateView("active_users", "select * from users")
	require.NoError(t, err)
	assert.Equal(t, `create view "active_users" as select * from users`, sql)

	sql, err = g.CompileEnableForeignKeyConstraints()
	require.NoError(t, err)
	assert.Equal(t, "SET CONSTRAINTS ALL IMMEDIATE;", sql)

	sql, err = g.CompileGetColumns("", "users")
	require.NoError(t, err)
	assert.Contains(t, sql, "c.relname = 'users' and n.nspname = 'public'")
}
