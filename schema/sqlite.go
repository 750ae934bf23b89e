package schema

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/Alp4ka/sqlpager/grammar"
)

// SQLite is the SQLite schema grammar. SQLite cannot alter constraints of an existing
// table, so primary and foreign keys are only compiled inline on create.
type SQLite struct {
	Base
}

// NewSQLite creates a SQLite schema grammar quoting through q.
func NewSQLite(q *grammar.SQLite) *SQLite {
	g := &SQLite{}
	g.Base = Base{name: "sqlite", self: g, query: q}

	return g
}

var (
	_ Grammar = (*SQLite)(nil)
	_ dialect = (*SQLite)(nil)
)

func (g *SQLite) modifiers() []modifier {
	return []modifier{
		{ModAutoIncrement, g.modifyIncrement},
		{ModNullable, g.modifyNullable},
		{ModDefault, g.modifyDefault},
		{ModCollation, g.modifyCollate},
		{ModVirtualAs, g.modifyVirtualAs},
		{ModStoredAs, g.modifyStoredAs},
	}
}

func (g *SQLite) ignoredModifiers() []string {
	return []string{ModUnsigned, ModCharset, ModUseCurrent}
}

func (g *SQLite) modifyIncrement(_ *Blueprint, c *ColumnDefinition) string {
	return lo.Ternary(c.isSerial(), " primary key autoincrement", "")
}

func (g *SQLite) modifyNullable(_ *Blueprint, c *ColumnDefinition) string {
	if c.isGenerated() && !c.Has(ModNullable) {
		return ""
	}

	return lo.Ternary(c.IsNullable(), "", " not null")
}

func (g *SQLite) modifyDefault(_ *Blueprint, c *ColumnDefinition) string {
	if c.isGenerated() {
		return ""
	}
	if v, ok := columnDefault(c, currentTimestamp); ok {
		return " default " + v
	}

	return ""
}

func (g *SQLite) modifyCollate(_ *Blueprint, c *ColumnDefinition) string {
	if v := c.str(ModCollation); v != "" {
		return " collate " + quoteString(v)
	}

	return ""
}

func (g *SQLite) modifyVirtualAs(_ *Blueprint, c *ColumnDefinition) string {
	if v, ok := c.Get(ModVirtualAs); ok {
		return fmt.Sprintf(" as (%v)", v)
	}

	return ""
}

func (g *SQLite) modifyStoredAs(_ *Blueprint, c *ColumnDefinition) string {
	if v, ok := c.Get(ModStoredAs); ok {
		return fmt.Sprintf(" as (%v) stored", v)
	}

	return ""
}

func (g *SQLite) CompileColumnType(c *ColumnDefinition) (string, error) {
	switch c.Type {
	case TypeChar, TypeString, TypeUUID, TypeIPAddress, TypeMACAddress:
		return "varchar", nil
	case TypeTinyText, TypeText, TypeMediumText, TypeLongText, TypeJSON, TypeJSONB:
		return "text", nil
	case TypeBigInteger, TypeInteger, TypeMediumInteger, TypeSmallInteger, TypeTinyInteger, TypeYear:
		return "integer", nil
	case TypeFloat, TypeDouble:
		return "float", nil
	case TypeDecimal:
		return "numeric", nil
	case TypeBoolean:
		return "tinyint(1)", nil
	case TypeEnum:
		return fmt.Sprintf("varchar check (%s in (%s))", g.wrap(c.Name), quoteStrings(c.Allowed)), nil
	case TypeDate:
		return "date", nil
	case TypeDateTime, TypeDateTimeTz, TypeTimestamp, TypeTimestampTz:
		return "datetime", nil
	case TypeTime, TypeTimeTz:
		return "time", nil
	case TypeBinary:
		return "blob", nil
	case TypeGeometry:
		return lo.CoalesceOrEmpty(strings.ToLower(c.Subtype), "geometry"), nil
	case TypePoint:
		return "point", nil
	case TypeComputed:
		return "", ErrComputedType
	default:
		return "", grammar.UnsupportedType(c.Type)
	}
}

// inlineConstraints renders the foreign and primary keys of a create statement.
func (g *SQLite) inlineConstraints(bp *Blueprint) string {
	sql := ""
	for _, fk := range bp.commandsNamed(CmdForeign) {
		sql += ", foreign key(" + g.columnize(fk.Columns) + ") references " +
			g.query.WrapTable(fk.On) + "(" + g.columnize(fk.References) + ")" + foreignKeyActions(fk)
	}

	primary := lo.FlatMap(bp.commandsNamed(CmdPrimary), func(c *Command, _ int) []string { return c.Columns })
	for _, c := range bp.columns {
		if c.flag(ModPrimary) {
			primary = append(primary, c.Name)
		}
	}
	if len(primary) > 0 {
		sql += ", primary key (" + g.columnize(primary) + ")"
	}

	return sql
}

func (g *SQLite) CompileCreate(bp *Blueprint, _ *Command) ([]string, error) {
	columns, err := g.compileColumns(bp, bp.addedColumns())
	if err != nil {
		return nil, err
	}

	sql := lo.Ternary(bp.Temporary, "create temporary", "create") + " table " + g.wrapTable(bp) +
		" (" + strings.Join(columns, ", ") + g.inlineConstraints(bp) + ")"

	return []string{sql}, nil
}

// CompileAdd issues one statement per column; SQLite adds a single column at a time.
func (g *SQLite) CompileAdd(bp *Blueprint, _ *Command) ([]string, error) {
	columns, err := g.compileColumns(bp, bp.addedColumns())
	if err != nil {
		return nil, err
	}

	return lo.Map(columns, func(c string, _ int) string {
		return "alter table " + g.wrapTable(bp) + " add column " + c
	}), nil
}

func (g *SQLite) CompileDropColumn(bp *Blueprint, cmd *Command) ([]string, error) {
	return lo.Map(cmd.Columns, func(c string, _ int) string {
		return "alter table " + g.wrapTable(bp) + " drop column " + g.wrap(c)
	}), nil
}

func (g *SQLite) CompileRenameColumn(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.renameColumn(bp, cmd)
}

func (g *SQLite) CompilePrimary(bp *Blueprint, _ *Command) ([]string, error) {
	if bp.creating() {
		return nil, nil
	}

	return nil, grammar.Unsupported(opPrimary)
}

func (g *SQLite) CompileForeign(bp *Blueprint, _ *Command) ([]string, error) {
	if bp.creating() {
		return nil, nil
	}

	return nil, grammar.Unsupported(opForeign)
}

func (g *SQLite) CompileUnique(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.createIndex(bp, cmd, "unique index")
}

func (g *SQLite) CompileIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.createIndex(bp, cmd, "index")
}

func (g *SQLite) dropIndex(_ *Blueprint, cmd *Command) ([]string, error) {
	return []string{"drop index " + g.wrap(cmd.Index)}, nil
}

func (g *SQLite) CompileDropUnique(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropIndex(bp, cmd)
}

func (g *SQLite) CompileDropIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropIndex(bp, cmd)
}

func (g *SQLite) CompileRename(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"alter table " + g.wrapTable(bp) + " rename to " + g.query.WrapTable(cmd.To)}, nil
}

func (g *SQLite) CompileDrop(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropTable(bp, cmd)
}

func (g *SQLite) CompileDropIfExists(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropTableIfExists(bp, cmd)
}

func (g *SQLite) CompileCreateView(name, sql string) (string, error) {
	return g.createView(name, sql)
}

func (g *SQLite) CompileDropView(name string) (string, error) {
	return g.dropView(name)
}

func (g *SQLite) CompileGetTables(_ string) (string, error) {
	return "select name from sqlite_master where type = 'table' and name not like 'sqlite_%' order by name", nil
}

func (g *SQLite) CompileGetViews(_ string) (string, error) {
	return "select name, sql as definition from sqlite_master where type = 'view' order by name", nil
}

func (g *SQLite) CompileGetColumns(_, table string) (string, error) {
	return "select name, type, not \"notnull\" as \"nullable\", dflt_value as \"default\", pk as \"primary\" " +
		"from pragma_table_info(" + quoteString(table) + ") order by cid asc", nil
}

func (g *SQLite) CompileGetIndexes(_, table string) (string, error) {
	return "select il.name as name, group_concat(ii.name) as columns, il.\"unique\" as \"unique\", il.origin = 'pk' as \"primary\" " +
		"from pragma_index_list(" + quoteString(table) + ") il, pragma_index_info(il.name) ii " +
		"group by il.name, il.\"unique\", il.origin", nil
}

func (g *SQLite) CompileGetForeignKeys(_, table string) (string, error) {
	return "select group_concat(\"from\") as columns, \"table\" as foreign_table, " +
		"group_concat(\"to\") as foreign_columns, on_update, on_delete " +
		"from (select * from pragma_foreign_key_list(" + quoteString(table) + ") order by id desc, seq) " +
		"group by id, \"table\", on_update, on_delete", nil
}

func (g *SQLite) CompileEnableForeignKeyConstraints() (string, error) {
	return "PRAGMA foreign_keys = ON;", nil
}

func (g *SQLite) CompileDisableForeignKeyConstraints() (string, error) {
	return "PRAGMA foreign_keys = OFF;", nil
}
