package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alp4ka/sqlpager/clause"
)

func Test_MySQL_Create(t *testing.T) {
	bp := usersTable()
	bp.Engine = "InnoDB"
	bp.Charset = "utf8mb4"
	bp.Collation = "utf8mb4_unicode_ci"

	statements, err := bp.ToSQL(mysqlGrammar())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"create table `users` (`id` bigint unsigned not null auto_increment primary key, `email` varchar(100) not null, " +
			"`votes` int not null default '0', `created_at` timestamp null, `updated_at` timestamp null) " +
			"default character set utf8mb4 collate 'utf8mb4_unicode_ci' engine = InnoDB",
		"alter table `users` add unique `users_email_unique`(`email`)",
	}, statements)
}

func Test_MySQL_ColumnModifiers(t *testing.T) {
	tests := []struct {
		name   string
		column func(bp *Blueprint)
		want   string
	}{
		{
			"after",
			func(bp *Blueprint) { bp.String("name", 50).Nullable().After("email") },
			"alter table `users` add `name` varchar(50) null after `email`",
		},
		{
			"first with comment",
			func(bp *Blueprint) { bp.Integer("age").First().Comment("it's") },
			"alter table `users` add `age` int not null comment 'it\\'s' first",
		},
		{
			"use current",
			func(bp *Blueprint) { bp.Timestamp("seen_at", 3).UseCurrent().UseCurrentOnUpdate() },
			"alter table `users` add `seen_at` timestamp(3) not null default CURRENT_TIMESTAMP(3) on update CURRENT_TIMESTAMP(3)",
		},
		{
			"expression default",
			func(bp *Blueprint) { bp.JSON("meta").Default(clause.Raw("(JSON_ARRAY())")) },
			"alter table `users` add `meta` json not null default (JSON_ARRAY())",
		},
		{
			"boolean default",
			func(bp *Blueprint) { bp.Boolean("active").Default(true) },
			"alter table `users` add `active` tinyint(1) not null default '1'",
		},
		{
			"virtual column",
			func(bp *Blueprint) { bp.String("full", 0).VirtualAs("concat(first, last)") },
			"alter table `users` add `full` varchar(255) as (concat(first, last))",
		},
		{
			"stored not null",
			func(bp *Blueprint) { bp.Integer("total").StoredAs("a + b").Nullable(false) },
			"alter table `users` add `total` int as (a + b) stored not null",
		},
		{
			"charset collation invisible",
			func(bp *Blueprint) { bp.String("code", 10).Charset("latin1").Collation("latin1_bin").Invisible() },
			"alter table `users` add `code` varchar(10) character set latin1 collate 'latin1_bin' not null invisible",
		},
		{
			"point srid",
			func(bp *Blueprint) { bp.Point("location").Srid(4326) },
			"alter table `users` add `location` point not null srid 4326",
		},
		{
			"set type",
			func(bp *Blueprint) { bp.Set("flags", []string{"a", "b"}) },
			"alter table `users` add `flags` set('a', 'b') not null",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statements, err := alterTable(tt.column).ToSQL(mysqlGrammar())
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, statements)
		})
	}
}

func Test_MySQL_Commands(t *testing.T) {
	tests := []struct {
		name  string
		build func(bp *Blueprint)
		want  []string
	}{
		{
			"change",
			func(bp *Blueprint) { bp.String("name", 100).Nullable().Change() },
			[]string{"alter table `users` modify `name` varchar(100) null"},
		},
		{
			"drop columns",
			func(bp *Blueprint) { bp.DropColumn("a", "b") },
			[]string{"alter table `users` drop `a`, drop `b`"},
		},
		{
			"rename column",
			func(bp *Blueprint) { bp.RenameColumn("a", "b") },
			[]string{"alter table `users` rename column `a` to `b`"},
		},
		{
			"primary",
			func(bp *Blueprint) { bp.Primary([]string{"id"}) },
			[]string{"alter table `users` add primary key (`id`)"},
		},
		{
			"index with algorithm",
			func(bp *Blueprint) { bp.Index([]string{"a", "b"}).Algorithm = "btree" },
			[]string{"alter table `users` add index `users_a_b_index` using btree(`a`, `b`)"},
		},
		{
			"fulltext and spatial",
			func(bp *Blueprint) {
				bp.Fulltext([]string{"bio"})
				bp.SpatialIndex([]string{"location"})
			},
			[]string{
				"alter table `users` add fulltext `users_bio_fulltext`(`bio`)",
				"alter table `users` add spatial index `users_location_spatialindex`(`location`)",
			},
		},
		{
			"foreign",
			func(bp *Blueprint) { bp.Foreign("team_id").References("id").On("teams").CascadeOnDelete() },
			[]string{"alter table `users` add constraint `users_team_id_foreign` foreign key (`team_id`) references `teams` (`id`) on delete cascade"},
		},
		{
			"drops",
			func(bp *Blueprint) {
				bp.DropPrimary()
				bp.DropUnique("u")
				bp.DropForeign("f")
			},
			[]string{
				"alter table `users` drop primary key",
				"alter table `users` drop index `u`",
				"alter table `users` drop foreign key `f`",
			},
		},
		{
			"rename index",
			func(bp *Blueprint) { bp.RenameIndex("a", "b") },
			[]string{"alter table `users` rename index `a` to `b`"},
		},
		{
			"rename table",
			func(bp *Blueprint) { bp.Rename("people") },
			[]string{"rename table `users` to `people`"},
		},
		{
			"drop if exists",
			func(bp *Blueprint) { bp.DropIfExists() },
			[]string{"drop table if exists `users`"},
		},
		{
			"table comment",
			func(bp *Blueprint) { bp.Comment("it's") },
			[]string{"alter table `users` comment = 'it\\'s'"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statements, err := alterTable(tt.build).ToSQL(mysqlGrammar())
			require.NoError(t, err)
			assert.Equal(t, tt.want, statements)
		})
	}
}

func Test_MySQL_UnsupportedTypes(t *testing.T) {
	_, err := alterTable(func(bp *Blueprint) { bp.Computed("total", "a + b") }).ToSQL(mysqlGrammar())
	require.ErrorIs(t, err, ErrComputedType)
	assert.EqualError(t, err, "This database driver requires a type, see the virtualAs / storedAs modifiers.")

	_, err = alterTable(func(bp *Blueprint) { bp.MultiPolygonZ("area") }).ToSQL(mysqlGrammar())
	require.EqualError(t, err, "This database driver does not support the multiPolygonZ type.")
}

func Test_MySQL_Introspection(t *testing.T) {
	g := mysqlGrammar()

	sql, err := g.CompileGetTables("app")
	require.NoError(t, err)
	assert.Contains(t, sql, "where table_schema = 'app'")

	sql, err = g.CompileGetColumns("app", "users")
	require.NoError(t, err)
	assert.Contains(t, sql, "table_name = 'users'")

	sql, err = g.CompileDisableForeignKeyConstraints()
	require.NoError(t, err)
	assert.Equal(t, "SET FOREIGN_KEY_CHECKS=0;", sql)

	sql, err = g.CompileCreateDatabase("app")
	require.NoError(t, err)
	assert.Equal(t, "create database `app`", sql)
}
