package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SQLServer_Create(t *testing.T) {
	statements, err := usersTable().ToSQL(sqlserverGrammar())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"create table [users] ([id] bigint not null identity primary key, [email] nvarchar(100) not null, " +
			"[votes] int not null default '0', [created_at] datetime null, [updated_at] datetime null)",
		"create unique index [users_email_unique] on [users] ([email])",
	}, statements)
}

func Test_SQLServer_Commands(t *testing.T) {
	tests := []struct {
		name  string
		build func(bp *Blueprint)
		want  []string
	}{
		{
			"add",
			func(bp *Blueprint) {
				bp.Computed("total", "price * qty").Persisted()
				bp.Enum("status", []string{"a", "b"})
			},
			[]string{"alter table [users] add [total] as (price * qty) persisted, [status] nvarchar(255) check ([status] in (N'a', N'b')) not null"},
		},
		{
			"change",
			func(bp *Blueprint) {
				bp.String("name", 50).Nullable().Default("x").Change()
				bp.UUID("token").Change()
			},
			[]string{
				"alter table [users] alter column [name] nvarchar(50) null",
				"alter table [users] alter column [token] uniqueidentifier not null",
			},
		},
		{
			"rename column",
			func(bp *Blueprint) { bp.RenameColumn("a", "b") },
			[]string{"sp_rename N'[users].[a]', [b], N'COLUMN'"},
		},
		{
			"primary",
			func(bp *Blueprint) { bp.Primary([]string{"id"}, "pk_users") },
			[]string{"alter table [users] add constraint [pk_users] primary key ([id])"},
		},
		{
			"drops",
			func(bp *Blueprint) {
				bp.DropColumn("a", "b")
				bp.DropIndex("i")
				bp.DropForeign("f")
			},
			[]string{
				"alter table [users] drop column [a], [b]",
				"drop index [i] on [users]",
				"alter table [users] drop constraint [f]",
			},
		},
		{
			"rename table",
			func(bp *Blueprint) { bp.Rename("people") },
			[]string{"sp_rename N'[users]', [people]"},
		},
		{
			"drop if exists",
			func(bp *Blueprint) { bp.DropIfExists() },
			[]string{"if object_id(N'[users]', 'U') is not null drop table [users]"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statements, err := alterTable(tt.build).ToSQL(sqlserverGrammar())
			require.NoError(t, err)
			assert.Equal(t, tt.want, statements)
		})
	}
}

func Test_SQLServer_Unsupported(t *testing.T) {
	g := sqlserverGrammar()

	_, err := alterTable(func(bp *Blueprint) { bp.Fulltext([]string{"a"}) }).ToSQL(g)
	require.EqualError(t, err, "This database driver does not support fulltext index creation.")

	_, err = alterTable(func(bp *Blueprint) { bp.Comment("x") }).ToSQL(g)
	require.EqualError(t, err, "This database driver does not support table comments.")

	_, err = alterTable(func(bp *Blueprint) { bp.Integer("a").VirtualAs("b + 1") }).ToSQL(g)
	require.EqualError(t, err, "this database driver does not support virtualAs column modifier.")

	_, err = g.CompileCreateType("mood", []string{"a"})
	require.EqualError(t, err, "This database driver does not support creating types.")
}
