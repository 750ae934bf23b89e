package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/Alp4ka/sqlpager/grammar"
)

// MySQL is the MySQL schema grammar.
type MySQL struct {
	Base
}

// NewMySQL creates a MySQL schema grammar quoting through q.
func NewMySQL(q *grammar.MySQL) *MySQL {
	g := &MySQL{}
	g.Base = Base{name: "mysql", self: g, query: q}

	return g
}

var (
	_ Grammar = (*MySQL)(nil)
	_ dialect = (*MySQL)(nil)
)

func (g *MySQL) modifiers() []modifier {
	return []modifier{
		{ModUnsigned, g.modifyUnsigned},
		{ModCharset, g.modifyCharset},
		{ModCollation, g.modifyCollate},
		{ModVirtualAs, g.modifyVirtualAs},
		{ModStoredAs, g.modifyStoredAs},
		{ModNullable, g.modifyNullable},
		{ModSrid, g.modifySrid},
		{ModDefault, g.modifyDefault},
		{ModOnUpdate, g.modifyOnUpdate},
		{ModInvisible, g.modifyInvisible},
		{ModAutoIncrement, g.modifyIncrement},
		{ModComment, g.modifyComment},
		{ModAfter, g.modifyAfter},
		{ModFirst, g.modifyFirst},
	}
}

func (g *MySQL) ignoredModifiers() []string {
	return []string{ModUseCurrent, ModUseCurrentOnUpdate}
}

func (g *MySQL) modifyUnsigned(_ *Blueprint, c *ColumnDefinition) string {
	return lo.Ternary(c.flag(ModUnsigned), " unsigned", "")
}

func (g *MySQL) modifyCharset(_ *Blueprint, c *ColumnDefinition) string {
	if v := c.str(ModCharset); v != "" {
		return " character set " + v
	}

	return ""
}

func (g *MySQL) modifyCollate(_ *Blueprint, c *ColumnDefinition) string {
	if v := c.str(ModCollation); v != "" {
		return " collate " + quoteString(v)
	}

	return ""
}

func (g *MySQL) modifyVirtualAs(_ *Blueprint, c *ColumnDefinition) string {
	if v, ok := c.Get(ModVirtualAs); ok {
		return fmt.Sprintf(" as (%v)", v)
	}

	return ""
}

func (g *MySQL) modifyStoredAs(_ *Blueprint, c *ColumnDefinition) string {
	if v, ok := c.Get(ModStoredAs); ok {
		return fmt.Sprintf(" as (%v) stored", v)
	}

	return ""
}

// modifyNullable leaves generated columns nullable unless explicitly made not null.
func (g *MySQL) modifyNullable(_ *Blueprint, c *ColumnDefinition) string {
	if !c.isGenerated() {
		return lo.Ternary(c.IsNullable(), " null", " not null")
	}
	if c.Has(ModNullable) && !c.IsNullable() {
		return " not null"
	}

	return ""
}

func (g *MySQL) modifySrid(_ *Blueprint, c *ColumnDefinition) string {
	if v, ok := c.Get(ModSrid); ok && (c.Type == TypeGeometry || c.Type == TypePoint) {
		return fmt.Sprintf(" srid %v", v)
	}

	return ""
}

func (g *MySQL) currentTimestamp(c *ColumnDefinition) string {
	if c.Precision != nil {
		return currentTimestamp + "(" + strconv.Itoa(*c.Precision) + ")"
	}

	return currentTimestamp
}

func (g *MySQL) modifyDefault(_ *Blueprint, c *ColumnDefinition) string {
	if v, ok := columnDefault(c, g.currentTimestamp(c)); ok {
		return " default " + v
	}

	return ""
}

func (g *MySQL) modifyOnUpdate(_ *Blueprint, c *ColumnDefinition) string {
	if v, ok := c.Get(ModOnUpdate); ok {
		return " on update " + defaultValue(v)
	}
	if c.flag(ModUseCurrentOnUpdate) {
		return " on update " + g.currentTimestamp(c)
	}

	return ""
}

func (g *MySQL) modifyInvisible(_ *Blueprint, c *ColumnDefinition) string {
	return lo.Ternary(c.flag(ModInvisible), " invisible", "")
}

func (g *MySQL) modifyIncrement(bp *Blueprint, c *ColumnDefinition) string {
	if !c.isSerial() {
		return ""
	}
	if bp.hasCommand(CmdPrimary) || (c.isChange() && !c.flag(ModPrimary)) {
		return " auto_increment"
	}

	return " auto_increment primary key"
}

func (g *MySQL) modifyComment(_ *Blueprint, c *ColumnDefinition) string {
	if c.Has(ModComment) {
		return " comment " + g.quoteComment(c.str(ModComment))
	}

	return ""
}

func (g *MySQL) modifyAfter(_ *Blueprint, c *ColumnDefinition) string {
	if v := c.str(ModAfter); v != "" {
		return " after " + g.wrap(v)
	}

	return ""
}

func (g *MySQL) modifyFirst(_ *Blueprint, c *ColumnDefinition) string {
	return lo.Ternary(c.flag(ModFirst), " first", "")
}

func (g *MySQL) quoteComment(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, "'", `\'`).Replace(s) + "'"
}

func (g *MySQL) CompileColumnType(c *ColumnDefinition) (string, error) {
	precision := func(base string) string {
		if c.Precision != nil {
			return base + "(" + strconv.Itoa(*c.Precision) + ")"
		}
		return base
	}

	switch c.Type {
	case TypeChar:
		return "char(" + strconv.Itoa(c.Length) + ")", nil
	case TypeString:
		return "varchar(" + strconv.Itoa(c.Length) + ")", nil
	case TypeTinyText:
		return "tinytext", nil
	case TypeText:
		return "text", nil
	case TypeMediumText:
		return "mediumtext", nil
	case TypeLongText:
		return "longtext", nil
	case TypeBigInteger:
		return "bigint", nil
	case TypeInteger:
		return "int", nil
	case TypeMediumInteger:
		return "mediumint", nil
	case TypeSmallInteger:
		return "smallint", nil
	case TypeTinyInteger:
		return "tinyint", nil
	case TypeFloat:
		return precision("float"), nil
	case TypeDouble:
		return "double", nil
	case TypeDecimal:
		return fmt.Sprintf("decimal(%d, %d)", c.Total, c.Places), nil
	case TypeBoolean:
		return "tinyint(1)", nil
	case TypeEnum:
		return "enum(" + quoteStrings(c.Allowed) + ")", nil
	case TypeSet:
		return "set(" + quoteStrings(c.Allowed) + ")", nil
	case TypeJSON, TypeJSONB:
		return "json", nil
	case TypeDate:
		return "date", nil
	case TypeDateTime, TypeDateTimeTz:
		return precision("datetime"), nil
	case TypeTime, TypeTimeTz:
		return precision("time"), nil
	case TypeTimestamp, TypeTimestampTz:
		return precision("timestamp"), nil
	case TypeYear:
		return "year", nil
	case TypeBinary:
		if c.Length > 0 {
			return lo.Ternary(c.Fixed, "binary", "varbinary") + "(" + strconv.Itoa(c.Length) + ")", nil
		}
		return "blob", nil
	case TypeUUID:
		return "char(36)", nil
	case TypeIPAddress:
		return "varchar(45)", nil
	case TypeMACAddress:
		return "varchar(17)", nil
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

func (g *MySQL) CompileCreateDatabase(name string) (string, error) {
	return "create database " + g.wrap(name), nil
}

func (g *MySQL) CompileDropDatabaseIfExists(name string) (string, error) {
	return "drop database if exists " + g.wrap(name), nil
}

func (g *MySQL) CompileCreate(bp *Blueprint, _ *Command) ([]string, error) {
	columns, err := g.compileColumns(bp, bp.addedColumns())
	if err != nil {
		return nil, err
	}

	sql := lo.Ternary(bp.Temporary, "create temporary", "create") + " table " + g.wrapTable(bp) +
		" (" + strings.Join(columns, ", ") + ")"
	if bp.Charset != "" {
		sql += " default character set " + bp.Charset
	}
	if bp.Collation != "" {
		sql += " collate " + quoteString(bp.Collation)
	}
	if bp.Engine != "" {
		sql += " engine = " + bp.Engine
	}

	return []string{sql}, nil
}

func (g *MySQL) CompileAdd(bp *Blueprint, _ *Command) ([]string, error) {
	columns, err := g.compileColumns(bp, bp.addedColumns())
	if err != nil {
		return nil, err
	}

	return []string{"alter table " + g.wrapTable(bp) + " " + strings.Join(prefixed("add", columns), ", ")}, nil
}

func (g *MySQL) CompileChange(bp *Blueprint, _ *Command) ([]string, error) {
	columns, err := g.compileColumns(bp, bp.changedColumns())
	if err != nil {
		return nil, err
	}

	return []string{"alter table " + g.wrapTable(bp) + " " + strings.Join(prefixed("modify", columns), ", ")}, nil
}

func (g *MySQL) CompileDropColumn(bp *Blueprint, cmd *Command) ([]string, error) {
	columns := lo.Map(cmd.Columns, func(c string, _ int) string { return "drop " + g.wrap(c) })

	return []string{"alter table " + g.wrapTable(bp) + " " + strings.Join(columns, ", ")}, nil
}

func (g *MySQL) CompileRenameColumn(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.renameColumn(bp, cmd)
}

func (g *MySQL) compileKey(bp *Blueprint, cmd *Command, kind string) ([]string, error) {
	using := ""
	if cmd.Algorithm != "" {
		using = " using " + cmd.Algorithm
	}

	return []string{"alter table " + g.wrapTable(bp) + " add " + kind + " " + g.wrap(cmd.Index) + using + "(" + g.columnize(cmd.Columns) + ")"}, nil
}

func (g *MySQL) CompilePrimary(bp *Blueprint, cmd *Command) ([]string, error) {
	using := ""
	if cmd.Algorithm != "" {
		using = "using " + cmd.Algorithm
	}

	return []string{"alter table " + g.wrapTable(bp) + " add primary key " + using + "(" + g.columnize(cmd.Columns) + ")"}, nil
}

func (g *MySQL) CompileUnique(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.compileKey(bp, cmd, "unique")
}

func (g *MySQL) CompileIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.compileKey(bp, cmd, "index")
}

func (g *MySQL) CompileFulltext(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.compileKey(bp, cmd, "fulltext")
}

func (g *MySQL) CompileSpatialIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.compileKey(bp, cmd, "spatial index")
}

func (g *MySQL) CompileForeign(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{g.foreignKeySQL(bp, cmd)}, nil
}

func (g *MySQL) CompileDropPrimary(bp *Blueprint, _ *Command) ([]string, error) {
	return []string{"alter table " + g.wrapTable(bp) + " drop primary key"}, nil
}

func (g *MySQL) dropIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"alter table " + g.wrapTable(bp) + " drop index " + g.wrap(cmd.Index)}, nil
}

func (g *MySQL) CompileDropUnique(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropIndex(bp, cmd)
}

func (g *MySQL) CompileDropIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropIndex(bp, cmd)
}

func (g *MySQL) CompileDropFulltext(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropIndex(bp, cmd)
}

func (g *MySQL) CompileDropSpatialIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropIndex(bp, cmd)
}

func (g *MySQL) CompileDropForeign(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"alter table " + g.wrapTable(bp) + " drop foreign key " + g.wrap(cmd.Index)}, nil
}

func (g *MySQL) CompileRenameIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"alter table " + g.wrapTable(bp) + " rename index " + g.wrap(cmd.From) + " to " + g.wrap(cmd.To)}, nil
}

func (g *MySQL) CompileRename(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"rename table " + g.wrapTable(bp) + " to " + g.query.WrapTable(cmd.To)}, nil
}

func (g *MySQL) CompileDrop(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropTable(bp, cmd)
}

func (g *MySQL) CompileDropIfExists(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropTableIfExists(bp, cmd)
}

func (g *MySQL) CompileTableComment(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"alter table " + g.wrapTable(bp) + " comment = " + g.quoteComment(cmd.Comment)}, nil
}

func (g *MySQL) CompileCreateView(name, sql string) (string, error) {
	return g.createView(name, sql)
}

func (g *MySQL) CompileDropView(name string) (string, error) {
	return g.dropView(name)
}

func (g *MySQL) CompileGetTables(schema string) (string, error) {
	return "select table_name as `name`, (data_length + index_length) as `size`, " +
		"table_comment as `comment`, engine as `engine`, table_collation as `collation` " +
		"from information_schema.tables where table_schema = " + quoteString(schema) +
		" and table_type in ('BASE TABLE', 'SYSTEM VERSIONED') order by table_name", nil
}

func (g *MySQL) CompileGetViews(schema string) (string, error) {
	return "select table_name as `name`, view_definition as `definition` " +
		"from information_schema.views where table_schema = " + quoteString(schema) + " order by table_name", nil
}

func (g *MySQL) CompileGetColumns(schema, table string) (string, error) {
	return "select column_name as `name`, data_type as `type_name`, column_type as `type`, " +
		"collation_name as `collation`, is_nullable as `nullable`, column_default as `default`, " +
		"column_comment as `comment`, extra as `extra` from information_schema.columns " +
		"where table_schema = " + quoteString(schema) + " and table_name = " + quoteString(table) +
		" order by ordinal_position asc", nil
}

func (g *MySQL) CompileGetIndexes(schema, table string) (string, error) {
	return "select index_name as `name`, group_concat(column_name order by seq_in_index) as `columns`, " +
		"index_type as `type`, not non_unique as `unique` from information_schema.statistics " +
		"where table_schema = " + quoteString(schema) + " and table_name = " + quoteString(table) +
		" group by index_name, index_type, non_unique", nil
}

func (g *MySQL) CompileGetForeignKeys(schema, table string) (string, error) {
	return "select kc.constraint_name as `name`, " +
		"group_concat(kc.column_name order by kc.ordinal_position) as `columns`, " +
		"kc.referenced_table_schema as `foreign_schema`, kc.referenced_table_name as `foreign_table`, " +
		"group_concat(kc.referenced_column_name order by kc.ordinal_position) as `foreign_columns`, " +
		"rc.update_rule as `on_update`, rc.delete_rule as `on_delete` " +
		"from information_schema.key_column_usage kc join information_schema.referential_constraints rc " +
		"on kc.constraint_schema = rc.constraint_schema and kc.constraint_name = rc.constraint_name " +
		"where kc.table_schema = " + quoteString(schema) + " and kc.table_name = " + quoteString(table) +
		" and kc.referenced_table_name is not null " +
		"group by kc.constraint_name, kc.referenced_table_schema, kc.referenced_table_name, rc.update_rule, rc.delete_rule", nil
}

func (g *MySQL) CompileEnableForeignKeyConstraints() (string, error) {
	return "SET FOREIGN_KEY_CHECKS=1;", nil
}

func (g *MySQL) CompileDisableForeignKeyConstraints() (string, error) {
	return "SET FOREIGN_KEY_CHECKS=0;", nil
}
