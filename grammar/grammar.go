// Package grammar compiles a clause.Registry into dialect-specific SQL.
//
// Base implements the whole Grammar contract with ANSI double-quote identifiers and
// fails every dialect-specific step with an UnsupportedError. MySQL, Postgres, SQLite
// and SQLServer embed Base and override the hooks they support; Base reaches the
// overrides through its self reference, so no dialect silently inherits an empty
// compilation for a feature it lacks.
package grammar

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/Alp4ka/sqlpager/clause"
)

// Statement is one compiled statement with its own bindings.
type Statement struct {
	SQL      string
	Bindings []any
}

// Grammar compiles registries into SQL for one database dialect.
type Grammar interface {
	Name() string
	TablePrefix() string
	SetTablePrefix(prefix string)

	Wrap(value any) string
	WrapTable(table any) string
	Columnize(columns []any) string
	Parameter(value any) string
	Parameterize(values []any) string
	IsJSONSelector(value any) bool

	CompileSelect(q *clause.Registry) (string, error)
	CompileExists(q *clause.Registry) (string, error)
	CompileInsert(q *clause.Registry, rows []map[string]any) (string, error)
	CompileInsertOrIgnore(q *clause.Registry, rows []map[string]any) (string, error)
	CompileInsertGetID(q *clause.Registry, row map[string]any, sequence string) (string, error)
	CompileInsertUsing(q *clause.Registry, columns []string, sql string) (string, error)
	CompileUpsert(q *clause.Registry, rows []map[string]any, uniqueBy []string, update []string) (string, error)
	CompileUpdate(q *clause.Registry, values map[string]any) (string, error)
	PrepareBindingsForUpdate(q *clause.Registry, values map[string]any) ([]any, error)
	CompileDelete(q *clause.Registry) (string, error)
	PrepareBindingsForDelete(q *clause.Registry) []any
	CompileTruncate(q *clause.Registry) ([]Statement, error)
	CompileRandom(seed string) string
	PrepareBindingForJSONContains(value any) (any, error)

	Escape(value any) (string, error)
	SubstituteBindingsIntoRawSQL(sql string, bindings []any) string
}

// dialect is the set of hooks Base dispatches through self. Base provides the
// defaults; dialects override a subset.
type dialect interface {
	Grammar

	wrapValue(segment string) string
	wrapJSONSelector(value string) string
	wrapUnion(sql string) string
	wrapUpdateColumn(key string) string

	compileColumns(q *clause.Registry, columns []any) string
	compileFrom(q *clause.Registry) string
	compileLimitOffset(q *clause.Registry, union bool) string
	compileLock(q *clause.Registry, lock any) string

	whereBasic(q *clause.Registry, w *clause.Where) string
	dateBasedWhere(kind string, q *clause.Registry, w *clause.Where) string
	compileJSONContains(column any, value string) (string, error)
	compileJSONLength(column any, operator, value string) (string, error)
	compileJSONUpdateColumn(field string, assignments []jsonAssignment) (string, []any, error)

	compileUpdateWithJoins(q *clause.Registry, table, columns, where string) (string, error)
	compileUpdateWithoutJoins(q *clause.Registry, table, columns, where string) (string, error)
	compileDeleteWithJoins(q *clause.Registry, table, where string) (string, error)
	compileDeleteWithoutJoins(q *clause.Registry, table, where string) (string, error)

	escapeString(s string) string
	escapeBool(v bool) string
	escapeBinary(v []byte) (string, error)
}

// Base is the ANSI grammar every dialect embeds.
type Base struct {
	self        dialect
	name        string
	tablePrefix string
}

// NewBase returns the bare base grammar. It quotes identifiers with double quotes and
// refuses every dialect-specific feature.
func NewBase() *Base {
	b := &Base{name: "base"}
	b.self = b

	return b
}

var (
	_ Grammar = (*Base)(nil)
	_ dialect = (*Base)(nil)
)

func (b *Base) Name() string {
	return b.name
}

func (b *Base) TablePrefix() string {
	return b.tablePrefix
}

func (b *Base) SetTablePrefix(prefix string) {
	b.tablePrefix = prefix
}

var aliasSplitter = regexp.MustCompile(`(?i)\s+as\s+`)

// Wrap quotes an identifier, which may be qualified ("users.id"), aliased
// ("users.id as uid") or a JSON selector ("meta->tags[0]"). Expressions pass through.
//
// The base grammar cannot render JSON selectors: Wrap panics on one, and the
// Compile methods return the UnsupportedError instead.
func (b *Base) Wrap(value any) string {
	return b.wrap(value, false)
}

func (b *Base) wrap(value any, prefixAlias bool) string {
	if sql, ok := clause.ExpressionValue(value); ok {
		return sql
	}

	v := fmt.Sprint(value)
	if strings.Contains(strings.ToLower(v), " as ") {
		return b.wrapAliasedValue(v, prefixAlias)
	}

	if b.IsJSONSelector(v) {
		return b.self.wrapJSONSelector(v)
	}

	return b.wrapSegments(strings.Split(v, "."))
}

func (b *Base) wrapAliasedValue(value string, prefixAlias bool) string {
	segments := aliasSplitter.Split(value, 2)
	if len(segments) < 2 {
		return b.wrapSegments(strings.Split(value, "."))
	}

	if prefixAlias {
		segments[1] = b.tablePrefix + segments[1]
	}

	return b.wrap(segments[0], false) + " as " + b.self.wrapValue(segments[1])
}

func (b *Base) wrapSegments(segments []string) string {
	wrapped := lo.Map(segments, func(segment string, i int) string {
		if i == 0 && len(segments) > 1 {
			return b.WrapTable(segment)
		}

		return b.self.wrapValue(segment)
	})

	return strings.Join(wrapped, ".")
}

// WrapTable quotes a table name and applies the table prefix.
func (b *Base) WrapTable(table any) string {
	if sql, ok := clause.ExpressionValue(table); ok {
		return sql
	}

	return b.wrap(b.tablePrefix+fmt.Sprint(table), true)
}

func (b *Base) wrapValue(segment string) string {
	if segment == "*" {
		return segment
	}

	return `"` + strings.ReplaceAll(segment, `"`, `""`) + `"`
}

// Columnize wraps and joins a column list.
func (b *Base) Columnize(columns []any) string {
	return strings.Join(lo.Map(columns, func(c any, _ int) string { return b.Wrap(c) }), ", ")
}

// Parameter returns the placeholder for a value, or the raw SQL of an expression.
func (b *Base) Parameter(value any) string {
	if sql, ok := clause.ExpressionValue(value); ok {
		return sql
	}

	return "?"
}

// Parameterize joins the placeholders of values.
func (b *Base) Parameterize(values []any) string {
	return strings.Join(lo.Map(values, func(v any, _ int) string { return b.Parameter(v) }), ", ")
}

// IsJSONSelector reports whether value addresses a path inside a JSON column.
func (b *Base) IsJSONSelector(value any) bool {
	s, ok := value.(string)

	return ok && strings.Contains(s, "->")
}

func (b *Base) wrapUnion(sql string) string {
	return "(" + sql + ")"
}

func (b *Base) wrapUpdateColumn(key string) string {
	return b.Wrap(key)
}

func (b *Base) CompileRandom(_ string) string {
	return "RANDOM()"
}
