package grammar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alp4ka/sqlpager/clause"
)

func Test_Grammar_Escape(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name    string
		grammar Grammar
		in      any
		want    string
	}{
		{"nil", NewBase(), nil, "null"},
		{"int", NewBase(), 42, "42"},
		{"float", NewBase(), 1.5, "1.5"},
		{"bool", NewBase(), true, "1"},
		{"postgres bool", NewPostgres(), false, "false"},
		{"string", NewBase(), "O'Brien", "'O''Brien'"},
		{"mysql string", NewMySQL(), `O'Br\en`, `'O\'Br\\en'`},
		{"time", NewSQLite(), ts, "'2024-01-02 03:04:05'"},
		{"expression", NewBase(), clause.Raw("now()"), "now()"},
		{"mysql binary", NewMySQL(), []byte("text"), "x'74657874'"},
		{"sqlite binary", NewSQLite(), []byte("text"), "x'74657874'"},
		{"postgres binary", NewPostgres(), []byte("text"), `'\x74657874'::bytea`},
		{"sqlserver binary", NewSQLServer(), []byte("text"), "0x74657874"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.grammar.Escape(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Grammar_Escape_Errors(t *testing.T) {
	_, err := NewBase().Escape("a\x00b")
	require.ErrorIs(t, err, ErrNullByte)

	_, err = NewBase().Escape("a\xffb")
	require.ErrorIs(t, err, ErrInvalidUTF8)

	_, err = NewMySQL().Escape([]int{1})
	require.EqualError(t, err, "This database driver does not support escaping arrays.")
}

func Test_Grammar_SubstituteBindingsIntoRawSQL(t *testing.T) {
	sql := `select * from "users" where 'Hello?''World??' IS NOT NULL AND "email" = ? and "buffer" = ? and "not" = ?`

	got := NewSQLite().SubstituteBindingsIntoRawSQL(sql, []any{"foo", []byte("text")})
	assert.Equal(t,
		`select * from "users" where 'Hello?''World??' IS NOT NULL AND "email" = 'foo' and "buffer" = x'74657874' and "not" = ?`,
		got,
	)
}

func Test_Grammar_SubstituteBindingsIntoRawSQL_Dialects(t *testing.T) {
	tests := []struct {
		name     string
		grammar  Grammar
		sql      string
		bindings []any
		want     string
	}{
		{"mysql escaped quote kept", NewMySQL(), `select 'it\'s ?' , ?`, []any{1}, `select 'it\'s ?' , 1`},
		{"operator pair kept", NewPostgres(), `select * from "t" where "a" ??| ? and "b" = ?`, []any{"x", true}, `select * from "t" where "a" ??| 'x' and "b" = true`},
		{"unescapable binding consumed", NewBase(), `select ?, ?`, []any{[]byte("x"), 2}, `select ?, 2`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.grammar.SubstituteBindingsIntoRawSQL(tt.sql, tt.bindings))
		})
	}
}
