package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/Alp4ka/sqlpager/clause"
	"github.com/Alp4ka/sqlpager/grammar"
)

// Grammar compiles blueprints and introspection queries for one dialect. Every table
// command shares the (blueprint, command) signature so ToSQL can dispatch by name.
type Grammar interface {
	Name() string

	CompileCreateDatabase(name string) (string, error)
	CompileDropDatabaseIfExists(name string) (string, error)

	CompileCreate(bp *Blueprint, cmd *Command) ([]string, error)
	CompileAdd(bp *Blueprint, cmd *Command) ([]string, error)
	CompileChange(bp *Blueprint, cmd *Command) ([]string, error)
	CompileDropColumn(bp *Blueprint, cmd *Command) ([]string, error)
	CompileRenameColumn(bp *Blueprint, cmd *Command) ([]string, error)
	CompilePrimary(bp *Blueprint, cmd *Command) ([]string, error)
	CompileUnique(bp *Blueprint, cmd *Command) ([]string, error)
	CompileIndex(bp *Blueprint, cmd *Command) ([]string, error)
	CompileFulltext(bp *Blueprint, cmd *Command) ([]string, error)
	CompileSpatialIndex(bp *Blueprint, cmd *Command) ([]string, error)
	CompileForeign(bp *Blueprint, cmd *Command) ([]string, error)
	CompileDropPrimary(bp *Blueprint, cmd *Command) ([]string, error)
	CompileDropUnique(bp *Blueprint, cmd *Command) ([]string, error)
	CompileDropIndex(bp *Blueprint, cmd *Command) ([]string, error)
	CompileDropFulltext(bp *Blueprint, cmd *Command) ([]string, error)
	CompileDropSpatialIndex(bp *Blueprint, cmd *Command) ([]string, error)
	CompileDropForeign(bp *Blueprint, cmd *Command) ([]string, error)
	CompileRenameIndex(bp *Blueprint, cmd *Command) ([]string, error)
	CompileRename(bp *Blueprint, cmd *Command) ([]string, error)
	CompileDrop(bp *Blueprint, cmd *Command) ([]string, error)
	CompileDropIfExists(bp *Blueprint, cmd *Command) ([]string, error)
	CompileTableComment(bp *Blueprint, cmd *Command) ([]string, error)

	CompileCreateView(name, sql string) (string, error)
	CompileDropView(name string) (string, error)
	CompileCreateType(name string, values []string) (string, error)
	CompileDropType(name string) (string, error)

	CompileGetTables(schema string) (string, error)
	CompileGetViews(schema string) (string, error)
	CompileGetColumns(schema, table string) (string, error)
	CompileGetIndexes(schema, table string) (string, error)
	CompileGetForeignKeys(schema, table string) (string, error)
	CompileEnableForeignKeyConstraints() (string, error)
	CompileDisableForeignKeyConstraints() (string, error)

	CompileColumnType(c *ColumnDefinition) (string, error)

	// Query returns the query grammar used for quoting.
	Query() grammar.Grammar
}

// modifier appends one clause to a column definition.
type modifier struct {
	name  string
	apply func(bp *Blueprint, c *ColumnDefinition) string
}

type dialect interface {
	Grammar

	modifiers() []modifier
	// ignoredModifiers are accepted without output: they are consumed elsewhere or
	// meaningless for the dialect.
	ignoredModifiers() []string
}

// Messages of the base grammar.
const (
	opCreateDatabase      = "creating databases"
	opDropDatabase        = "dropping databases"
	opCreateTable         = "creating tables"
	opAddColumn           = "adding columns"
	opChangeColumn        = "modifying columns"
	opDropColumn          = "dropping columns"
	opRenameColumn        = "renaming columns"
	opPrimary             = "primary key creation"
	opUnique              = "unique index creation"
	opIndex               = "index creation"
	opFulltext            = "fulltext index creation"
	opSpatialIndex        = "spatial indexes"
	opForeign             = "foreign key creation"
	opDropPrimary         = "dropping primary keys"
	opDropUnique          = "dropping unique indexes"
	opDropIndex           = "dropping indexes"
	opDropFulltext        = "fulltext index removal"
	opDropSpatialIndex    = "spatial index removal"
	opDropForeign         = "dropping foreign keys"
	opRenameIndex         = "renaming indexes"
	opRenameTable         = "renaming tables"
	opDropTable           = "dropping tables"
	opTableComment        = "table comments"
	opCreateView          = "creating views"
	opDropView            = "dropping views"
	opCreateType          = "creating types"
	opDropType            = "dropping types"
	opForeignConstraints  = "foreign key constraints"
	opListTables          = "listing tables"
	opListViews           = "listing views"
	opListColumns         = "listing columns"
	opListIndexes         = "listing indexes"
	opListForeignKeys     = "listing foreign keys"
	computedTypeMessage   = "This database driver requires a type, see the virtualAs / storedAs modifiers."
	currentTimestamp      = "CURRENT_TIMESTAMP"
)

// ErrComputedType is returned for computed columns on dialects without native support.
var ErrComputedType error = &grammar.UnsupportedError{Message: computedTypeMessage}

// Base refuses every DDL operation. Dialects embed it and use its helpers.
type Base struct {
	self  dialect
	name  string
	query grammar.Grammar
}

// NewBase returns the bare base schema grammar quoting through the base query grammar.
func NewBase() *Base {
	b := &Base{name: "base", query: grammar.NewBase()}
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

func (b *Base) Query() grammar.Grammar {
	return b.query
}

func (b *Base) modifiers() []modifier {
	return nil
}

func (b *Base) ignoredModifiers() []string {
	return nil
}

func (b *Base) wrap(v any) string {
	return b.query.Wrap(v)
}

func (b *Base) wrapTable(bp *Blueprint) string {
	return b.query.WrapTable(bp.Table)
}

func (b *Base) columnize(columns []string) string {
	return b.query.Columnize(lo.ToAnySlice(columns))
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteStrings(values []string) string {
	return strings.Join(lo.Map(values, func(v string, _ int) string { return quoteString(v) }), ", ")
}

func prefixed(prefix string, items []string) []string {
	return lo.Map(items, func(item string, _ int) string { return prefix + " " + item })
}

// defaultValue renders a column default: expressions raw, booleans as '1'/'0',
// everything else quoted.
func defaultValue(v any) string {
	if sql, ok := clause.ExpressionValue(v); ok {
		return sql
	}
	if b, ok := v.(bool); ok {
		return lo.Ternary(b, "'1'", "'0'")
	}

	return quoteString(fmt.Sprint(v))
}

// columnDefault returns the default clause value of c, honoring UseCurrent on
// date-time columns.
func columnDefault(c *ColumnDefinition, current string) (string, bool) {
	if v, ok := c.Get(ModDefault); ok {
		return defaultValue(v), true
	}
	if c.flag(ModUseCurrent) {
		return current, true
	}

	return "", false
}

// compileColumns renders "<name> <type><modifiers>" for each column and rejects
// modifiers the dialect neither applies nor ignores.
func (b *Base) compileColumns(bp *Blueprint, columns []*ColumnDefinition) ([]string, error) {
	mods := b.self.modifiers()
	known := append(lo.Map(mods, func(m modifier, _ int) string { return m.name }), b.self.ignoredModifiers()...)
	known = append(known, indexModifiers...)

	ret := make([]string, 0, len(columns))
	for _, c := range columns {
		for _, name := range c.Modifiers() {
			if !slices.Contains(known, name) {
				return nil, grammar.UnsupportedModifier(name)
			}
		}

		typ, err := b.self.CompileColumnType(c)
		if err != nil {
			return nil, err
		}

		sql := b.wrap(c.Name) + " " + typ
		for _, m := range mods {
			sql += m.apply(bp, c)
		}
		ret = append(ret, sql)
	}

	return ret, nil
}

func (b *Base) CompileCreateDatabase(_ string) (string, error) {
	return "", grammar.Unsupported(opCreateDatabase)
}

func (b *Base) CompileDropDatabaseIfExists(_ string) (string, error) {
	return "", grammar.Unsupported(opDropDatabase)
}

func (b *Base) CompileCreate(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opCreateTable)
}

func (b *Base) CompileAdd(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opAddColumn)
}

func (b *Base) CompileChange(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opChangeColumn)
}

func (b *Base) CompileDropColumn(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opDropColumn)
}

func (b *Base) CompileRenameColumn(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opRenameColumn)
}

func (b *Base) CompilePrimary(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opPrimary)
}

func (b *Base) CompileUnique(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opUnique)
}

func (b *Base) CompileIndex(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opIndex)
}

func (b *Base) CompileFulltext(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opFulltext)
}

func (b *Base) CompileSpatialIndex(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opSpatialIndex)
}

// CompileForeign fails in the base grammar; foreignKeySQL holds the shared form.
func (b *Base) CompileForeign(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opForeign)
}

func (b *Base) foreignKeySQL(bp *Blueprint, cmd *Command) string {
	sql := "alter table " + b.wrapTable(bp) + " add constraint " + b.wrap(cmd.Index) + " "
	sql += "foreign key (" + b.columnize(cmd.Columns) + ") references " +
		b.query.WrapTable(cmd.On) + " (" + b.columnize(cmd.References) + ")"

	return sql + foreignKeyActions(cmd)
}

func foreignKeyActions(cmd *Command) string {
	sql := ""
	if cmd.OnDelete != "" {
		sql += " on delete " + cmd.OnDelete
	}
	if cmd.OnUpdate != "" {
		sql += " on update " + cmd.OnUpdate
	}

	return sql
}

func (b *Base) CompileDropPrimary(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opDropPrimary)
}

func (b *Base) CompileDropUnique(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opDropUnique)
}

func (b *Base) CompileDropIndex(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opDropIndex)
}

func (b *Base) CompileDropFulltext(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opDropFulltext)
}

func (b *Base) CompileDropSpatialIndex(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opDropSpatialIndex)
}

func (b *Base) CompileDropForeign(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opDropForeign)
}

func (b *Base) CompileRenameIndex(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opRenameIndex)
}

func (b *Base) CompileRename(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opRenameTable)
}

func (b *Base) CompileDrop(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opDropTable)
}

func (b *Base) CompileDropIfExists(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opDropTable)
}

func (b *Base) CompileTableComment(_ *Blueprint, _ *Command) ([]string, error) {
	return nil, grammar.Unsupported(opTableComment)
}

func (b *Base) CompileCreateView(_, _ string) (string, error) {
	return "", grammar.Unsupported(opCreateView)
}

func (b *Base) CompileDropView(_ string) (string, error) {
	return "", grammar.Unsupported(opDropView)
}

func (b *Base) CompileCreateType(_ string, _ []string) (string, error) {
	return "", grammar.Unsupported(opCreateType)
}

func (b *Base) CompileDropType(_ string) (string, error) {
	return "", grammar.Unsupported(opDropType)
}

func (b *Base) CompileGetTables(_ string) (string, error) {
	return "", grammar.Unsupported(opListTables)
}

func (b *Base) CompileGetViews(_ string) (string, error) {
	return "", grammar.Unsupported(opListViews)
}

func (b *Base) CompileGetColumns(_, _ string) (string, error) {
	return "", grammar.Unsupported(opListColumns)
}

func (b *Base) CompileGetIndexes(_, _ string) (string, error) {
	return "", grammar.Unsupported(opListIndexes)
}

func (b *Base) CompileGetForeignKeys(_, _ string) (string, error) {
	return "", grammar.Unsupported(opListForeignKeys)
}

func (b *Base) CompileEnableForeignKeyConstraints() (string, error) {
	return "", grammar.Unsupported(opForeignConstraints)
}

func (b *Base) CompileDisableForeignKeyConstraints() (string, error) {
	return "", grammar.Unsupported(opForeignConstraints)
}

func (b *Base) CompileColumnType(c *ColumnDefinition) (string, error) {
	return "", grammar.UnsupportedType(c.Type)
}

// Shared forms used by several dialects.

func (b *Base) createView(name, sql string) (string, error) {
	return "create view " + b.query.WrapTable(name) + " as " + sql, nil
}

func (b *Base) dropView(name string) (string, error) {
	return "drop view if exists " + b.query.WrapTable(name), nil
}

func (b *Base) dropTable(bp *Blueprint, _ *Command) ([]string, error) {
	return []string{"drop table " + b.wrapTable(bp)}, nil
}

func (b *Base) dropTableIfExists(bp *Blueprint, _ *Command) ([]string, error) {
	return []string{"drop table if exists " + b.wrapTable(bp)}, nil
}

func (b *Base) renameColumn(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"alter table " + b.wrapTable(bp) + " rename column " + b.wrap(cmd.From) + " to " + b.wrap(cmd.To)}, nil
}

func (b *Base) createIndex(bp *Blueprint, cmd *Command, kind string) ([]string, error) {
	return []string{"create " + kind + " " + b.wrap(cmd.Index) + " on " + b.wrapTable(bp) + " (" + b.columnize(cmd.Columns) + ")"}, nil
}
