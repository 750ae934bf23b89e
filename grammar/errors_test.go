package grammar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alp4ka/sqlpager/clause"
)

func Test_Base_Unsupported(t *testing.T) {
	g := NewBase()
	rows := []map[string]any{{"email": "a"}}

	jsonWhere := func(typ clause.WhereType) *clause.Registry {
		q := clause.NewRegistry("users")
		q.Wheres = []*clause.Where{{Type: typ, Boolean: clause.BooleanAnd, Column: "meta->tags", Operator: ">", Value: 1}}
		return q
	}

	tests := []struct {
		name string
		call func() error
		msg  string
	}{
		{
			"insert or ignore",
			func() error { _, err := g.CompileInsertOrIgnore(clause.NewRegistry("users"), rows); return err },
			"This database driver does not support inserting while ignoring errors.",
		},
		{
			"upsert",
			func() error {
				_, err := g.CompileUpsert(clause.NewRegistry("users"), rows, []string{"email"}, nil)
				return err
			},
			"This database driver does not support upserting columns.",
		},
		{
			"json contains",
			func() error { _, err := g.CompileSelect(jsonWhere(clause.WhereJSONContains)); return err },
			"This database driver does not support JSON contains operations.",
		},
		{
			"json length",
			func() error { _, err := g.CompileSelect(jsonWhere(clause.WhereJSONLength)); return err },
			"This database driver does not support JSON length operations.",
		},
		{
			"sqlite json contains",
			func() error { _, err := NewSQLite().CompileSelect(jsonWhere(clause.WhereJSONContains)); return err },
			"This database driver does not support JSON contains operations.",
		},
		{
			"json update",
			func() error {
				_, err := g.CompileUpdate(clause.NewRegistry("users"), map[string]any{"meta->a": 1})
				return err
			},
			"This database driver does not support JSON updates.",
		},
		{
			"escape binary",
			func() error { _, err := g.Escape([]byte("x")); return err },
			"This database driver does not support escaping binary values.",
		},
		{
			"escape array",
			func() error { _, err := g.Escape(map[string]int{"a": 1}); return err },
			"This database driver does not support escaping arrays.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.EqualError(t, err, tt.msg)
			assert.True(t, errors.Is(err, ErrUnsupported))

			var unsupported *UnsupportedError
			require.ErrorAs(t, err, &unsupported)
		})
	}
}

func Test_Base_Compile_JSONSelector(t *testing.T) {
	g := NewBase()
	where := func() *clause.Registry {
		q := clause.NewRegistry("users")
		q.Wheres = []*clause.Where{basicWhere("meta->a", "=", 1)}
		return q
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"select where", func() error { _, err := g.CompileSelect(where()); return err }},
		{
			"select column",
			func() error {
				q := clause.NewRegistry("users")
				q.Columns = []any{"id", "meta->a"}
				_, err := g.CompileSelect(q)
				return err
			},
		},
		{"exists", func() error { _, err := g.CompileExists(where()); return err }},
		{"update where", func() error { _, err := g.CompileUpdate(where(), map[string]any{"name": "x"}); return err }},
		{"delete where", func() error { _, err := g.CompileDelete(where()); return err }},
		{
			"where in sub",
			func() error {
				q := clause.NewRegistry("users")
				q.Wheres = []*clause.Where{{Type: clause.WhereInSub, Boolean: clause.BooleanAnd, Column: "id", Query: where()}}
				_, err := g.CompileSelect(q)
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.EqualError(t, err, "This database driver does not support JSON operations.")
			assert.True(t, errors.Is(err, ErrUnsupported))
		})
	}
}

func Test_Base_Wrap_JSONSelector(t *testing.T) {
	assert.Panics(t, func() { NewBase().Wrap("meta->a") })

	for _, g := range allGrammars()[1:] {
		t.Run(g.Name(), func(t *testing.T) {
			assert.NotPanics(t, func() { g.Wrap("meta->a") })

			q := clause.NewRegistry("users")
			q.Wheres = []*clause.Where{basicWhere("meta->a", "=", 1)}
			_, err := g.CompileSelect(q)
			require.NoError(t, err)
		})
	}
}

func Test_UnsupportedMessages(t *testing.T) {
	assert.EqualError(t, Unsupported("creating databases"), "This database driver does not support creating databases.")
	assert.EqualError(t, UnsupportedModifier("after"), "this database driver does not support after column modifier.")
	assert.EqualError(t, UnsupportedType("set"), "This database driver does not support the set type.")
}

func Test_Grammar_Names(t *testing.T) {
	names := make([]string, 0, 5)
	for _, g := range allGrammars() {
		names = append(names, g.Name())
	}

	assert.Equal(t, []string{"base", "mysql", "pgsql", "sqlite", "sqlsrv"}, names)
}
