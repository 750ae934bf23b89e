package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/Alp4ka/sqlpager/grammar"
)

// SQLServer is the SQL Server schema grammar.
type SQLServer struct {
	Base
}

// NewSQLServer creates a SQL Server schema grammar quoting through q.
func NewSQLServer(q *grammar.SQLServer) *SQLServer {
	g := &SQLServer{}
	g.Base = Base{name: "sqlsrv", self: g, query: q}

	return g
}

var (
	_ Grammar = (*SQLServer)(nil)
	_ dialect = (*SQLServer)(nil)
)

func (g *SQLServer) modifiers() []modifier {
	return []modifier{
		{ModCollation, g.modifyCollate},
		{ModNullable, g.modifyNullable},
		{ModDefault, g.modifyDefault},
		{ModPersisted, g.modifyPersisted},
		{ModAutoIncrement, g.modifyIncrement},
	}
}

func (g *SQLServer) ignoredModifiers() []string {
	return []string{ModUnsigned, ModCharset, ModUseCurrent}
}

// nstring quotes s as an N'' unicode literal.
func nstring(s string) string {
	return "N" + quoteString(s)
}

func (g *SQLServer) modifyCollate(_ *Blueprint, c *ColumnDefinition) string {
	if v := c.str(ModCollation); v != "" {
		return " collate " + v
	}

	return ""
}

func (g *SQLServer) modifyNullable(_ *Blueprint, c *ColumnDefinition) string {
	if c.Type == TypeComputed {
		return ""
	}

	return lo.Ternary(c.IsNullable(), " null", " not null")
}

func (g *SQLServer) modifyDefault(_ *Blueprint, c *ColumnDefinition) string {
	if c.isChange() {
		return ""
	}
	if v, ok := columnDefault(c, currentTimestamp); ok {
		return " default " + v
	}

	return ""
}

func (g *SQLServer) modifyPersisted(_ *Blueprint, c *ColumnDefinition) string {
	if c.isChange() {
		if c.Type == TypeComputed {
			return lo.Ternary(c.flag(ModPersisted), " add persisted", " drop persisted")
		}
		return ""
	}

	return lo.Ternary(c.flag(ModPersisted), " persisted", "")
}

func (g *SQLServer) modifyIncrement(bp *Blueprint, c *ColumnDefinition) string {
	if c.isChange() || !c.isSerial() {
		return ""
	}

	return lo.Ternary(bp.hasCommand(CmdPrimary), " identity", " identity primary key")
}

func (g *SQLServer) CompileColumnType(c *ColumnDefinition) (string, error) {
	precision := func(base string) string {
		if c.Precision != nil {
			return base + "(" + strconv.Itoa(*c.Precision) + ")"
		}
		return base
	}

	switch c.Type {
	case TypeChar:
		return "nchar(" + strconv.Itoa(c.Length) + ")", nil
	case TypeString:
		return "nvarchar(" + strconv.Itoa(c.Length) + ")", nil
	case TypeTinyText:
		return "nvarchar(255)", nil
	case TypeText, TypeMediumText, TypeLongText, TypeJSON, TypeJSONB:
		return "nvarchar(max)", nil
	case TypeBigInteger:
		return "bigint", nil
	case TypeInteger, TypeMediumInteger:
		return "int", nil
	case TypeSmallInteger:
		return "smallint", nil
	case TypeTinyInteger:
		return "tinyint", nil
	case TypeFloat:
		return precision("float"), nil
	case TypeDouble:
		return "double precision", nil
	case TypeDecimal:
		return fmt.Sprintf("decimal(%d, %d)", c.Total, c.Places), nil
	case TypeBoolean:
		return "bit", nil
	case TypeEnum:
		values := strings.Join(lo.Map(c.Allowed, func(v string, _ int) string { return nstring(v) }), ", ")
		return fmt.Sprintf("nvarchar(255) check (%s in (%s))", g.wrap(c.Name), values), nil
	case TypeDate:
		return "date", nil
	case TypeDateTime, TypeTimestamp:
		if c.Precision != nil {
			return precision("datetime2"), nil
		}
		return "datetime", nil
	case TypeDateTimeTz, TypeTimestampTz:
		return precision("datetimeoffset"), nil
	case TypeTime, TypeTimeTz:
		return precision("time"), nil
	case TypeYear:
		return "int", nil
	case TypeBinary:
		if c.Length > 0 {
			return lo.Ternary(c.Fixed, "binary", "varbinary") + "(" + strconv.Itoa(c.Length) + ")", nil
		}
		return "varbinary(max)", nil
	case TypeUUID:
		return "uniqueidentifier", nil
	case TypeIPAddress:
		return "nvarchar(45)", nil
	case TypeMACAddress:
		return "nvarchar(17)", nil
	case TypeGeometry, TypePoint:
		return "geography", nil
	case TypeComputed:
		return "as (" + c.Expression + ")", nil
	default:
		return "", grammar.UnsupportedType(c.Type)
	}
}

func (g *SQLServer) CompileCreateDatabase(name string) (string, error) {
	return "create database " + g.wrap(name), nil
}

func (g *SQLServer) CompileDropDatabaseIfExists(name string) (string, error) {
	return "drop database if exists " + g.wrap(name), nil
}

func (g *SQLServer) CompileCreate(bp *Blueprint, _ *Command) ([]string, error) {
	columns, err := g.compileColumns(bp, bp.addedColumns())
	if err != nil {
		return nil, err
	}

	return []string{"create table " + g.wrapTable(bp) + " (" + strings.Join(columns, ", ") + ")"}, nil
}

func (g *SQLServer) CompileAdd(bp *Blueprint, _ *Command) ([]string, error) {
	columns, err := g.compileColumns(bp, bp.addedColumns())
	if err != nil {
		return nil, err
	}

	return []string{"alter table " + g.wrapTable(bp) + " add " + strings.Join(columns, ", ")}, nil
}

// CompileChange issues one alter column statement per column.
func (g *SQLServer) CompileChange(bp *Blueprint, _ *Command) ([]string, error) {
	columns, err := g.compileColumns(bp, bp.changedColumns())
	if err != nil {
		return nil, err
	}

	return lo.Map(columns, func(c string, _ int) string {
		return "alter table " + g.wrapTable(bp) + " alter column " + c
	}), nil
}

func (g *SQLServer) CompileDropColumn(bp *Blueprint, cmd *Command) ([]string, error) {
	columns := lo.Map(cmd.Columns, func(c string, _ int) string { return g.wrap(c) })

	return []string{"alter table " + g.wrapTable(bp) + " drop column " + strings.Join(columns, ", ")}, nil
}

func (g *SQLServer) CompileRenameColumn(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{fmt.Sprintf("sp_rename %s, %s, N'COLUMN'",
		nstring(g.wrapTable(bp)+"."+g.wrap(cmd.From)), g.wrap(cmd.To))}, nil
}

func (g *SQLServer) CompilePrimary(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"alter table " + g.wrapTable(bp) + " add constraint " + g.wrap(cmd.Index) +
		" primary key (" + g.columnize(cmd.Columns) + ")"}, nil
}

func (g *SQLServer) CompileUnique(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.createIndex(bp, cmd, "unique index")
}

func (g *SQLServer) CompileIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.createIndex(bp, cmd, "index")
}

func (g *SQLServer) CompileForeign(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{g.foreignKeySQL(bp, cmd)}, nil
}

func (g *SQLServer) dropConstraint(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"alter table " + g.wrapTable(bp) + " drop constraint " + g.wrap(cmd.Index)}, nil
}

func (g *SQLServer) CompileDropPrimary(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropConstraint(bp, cmd)
}

func (g *SQLServer) CompileDropForeign(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropConstraint(bp, cmd)
}

func (g *SQLServer) dropIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"drop index " + g.wrap(cmd.Index) + " on " + g.wrapTable(bp)}, nil
}

func (g *SQLServer) CompileDropUnique(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropIndex(bp, cmd)
}

func (g *SQLServer) CompileDropIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropIndex(bp, cmd)
}

func (g *SQLServer) CompileRenameIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{fmt.Sprintf("sp_rename %s, %s, N'INDEX'",
		nstring(g.wrapTable(bp)+"."+g.wrap(cmd.From)), g.wrap(cmd.To))}, nil
}

func (g *SQLServer) CompileRename(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{fmt.Sprintf("sp_rename %s, %s", nstring(g.wrapTable(bp)), g.query.WrapTable(cmd.To))}, nil
}

func (g *SQLServer) CompileDrop(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropTable(bp, cmd)
}

func (g *SQLServer) CompileDropIfExists(bp *Blueprint, _ *Command) ([]string, error) {
	table := g.wrapTable(bp)

	return []string{"if object_id(" + nstring(table) + ", 'U') is not null drop table " + table}, nil
}

func (g *SQLServer) CompileCreateView(name, sql string) (string, error) {
	return g.createView(name, sql)
}

func (g *SQLServer) CompileDropView(name string) (string, error) {
	return g.dropView(name)
}

func (g *SQLServer) schemaFilter(schema string) string {
	if schema == "" {
		return "schema_name(t.schema_id) = schema_name()"
	}

	return "schema_name(t.schema_id) = " + nstring(schema)
}

func (g *SQLServer) CompileGetTables(schema string) (string, error) {
	return "select t.name as name, schema_name(t.schema_id) as [schema], sum(u.total_pages) * 8 * 1024 as size " +
		"from sys.tables as t join sys.partitions as p on p.object_id = t.object_id " +
		"join sys.allocation_units as u on u.container_id = p.hobt_id " +
		"where t.is_ms_shipped = 0 and t.name <> 'sysdiagrams' and " + g.schemaFilter(schema) +
		" group by t.name, t.schema_id order by t.name", nil
}

func (g *SQLServer) CompileGetViews(schema string) (string, error) {
	return "select t.name as name, schema_name(t.schema_id) as [schema], definition " +
		"from sys.views as t join sys.sql_modules as m on t.object_id = m.object_id " +
		"where " + g.schemaFilter(schema) + " order by t.name", nil
}

func (g *SQLServer) CompileGetColumns(schema, table string) (string, error) {
	return "select col.name, type.name as type_name, col.max_length as length, col.precision as precision, " +
		"col.scale as places, col.is_nullable as nullable, def.definition as [default], " +
		"col.is_identity as autoincrement, col.collation_name as collation " +
		"from sys.columns as col join sys.types as type on col.user_type_id = type.user_type_id " +
		"join sys.objects as t on col.object_id = t.object_id " +
		"left join sys.default_constraints as def on col.default_object_id = def.object_id and col.object_id = def.parent_object_id " +
		"where t.type in ('U', 'V') and t.name = " + nstring(table) + " and " + g.schemaFilter(schema) +
		" order by col.column_id", nil
}

func (g *SQLServer) CompileGetIndexes(schema, table string) (string, error) {
	return "select idx.name as name, string_agg(col.name, ',') within group (order by idxcol.key_ordinal) as columns, " +
		"idx.type_desc as [type], idx.is_unique as [unique], idx.is_primary_key as [primary] " +
		"from sys.indexes as idx join sys.tables as t on idx.object_id = t.object_id " +
		"join sys.index_columns as idxcol on idx.object_id = idxcol.object_id and idx.index_id = idxcol.index_id " +
		"join sys.columns as col on idxcol.object_id = col.object_id and idxcol.column_id = col.column_id " +
		"where t.name = " + nstring(table) + " and " + g.schemaFilter(schema) +
		" group by idx.name, idx.type_desc, idx.is_unique, idx.is_primary_key", nil
}

func (g *SQLServer) CompileGetForeignKeys(schema, table string) (string, error) {
	return "select fk.name as name, string_agg(lc.name, ',') within group (order by fkc.constraint_column_id) as columns, " +
		"ft.name as foreign_table, string_agg(fc.name, ',') within group (order by fkc.constraint_column_id) as foreign_columns, " +
		"fk.update_referential_action_desc as on_update, fk.delete_referential_action_desc as on_delete " +
		"from sys.foreign_keys as fk join sys.foreign_key_columns as fkc on fkc.constraint_object_id = fk.object_id " +
		"join sys.tables as t on t.object_id = fk.parent_object_id " +
		"join sys.columns as lc on fkc.parent_object_id = lc.object_id and fkc.parent_column_id = lc.column_id " +
		"join sys.tables as ft on ft.object_id = fk.referenced_object_id " +
		"join sys.columns as fc on fkc.referenced_object_id = fc.object_id and fkc.referenced_column_id = fc.column_id " +
		"where t.name = " + nstring(table) + " and " + g.schemaFilter(schema) +
		" group by fk.name, ft.name, fk.update_referential_action_desc, fk.delete_referential_action_desc", nil
}

func (g *SQLServer) CompileEnableForeignKeyConstraints() (string, error) {
	return "EXEC sp_msforeachtable @command1=\"print '?'\", @command2=\"ALTER TABLE ? WITH CHECK CHECK CONSTRAINT all\";", nil
}

func (g *SQLServer) CompileDisableForeignKeyConstraints() (string, error) {
	return "EXEC sp_msforeachtable \"ALTER TABLE ? NOCHECK CONSTRAINT all\";", nil
}
