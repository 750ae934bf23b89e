package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/Alp4ka/sqlpager/grammar"
)

// Postgres is the PostgreSQL schema grammar.
type Postgres struct {
	Base
}

// NewPostgres creates a PostgreSQL schema grammar quoting through q.
func NewPostgres(q *grammar.Postgres) *Postgres {
	g := &Postgres{}
	g.Base = Base{name: "pgsql", self: g, query: q}

	return g
}

var (
	_ Grammar = (*Postgres)(nil)
	_ dialect = (*Postgres)(nil)
)

func (g *Postgres) modifiers() []modifier {
	return []modifier{
		{ModCollation, g.modifyCollate},
		{ModNullable, g.modifyNullable},
		{ModDefault, g.modifyDefault},
		{ModVirtualAs, g.modifyVirtualAs},
		{ModStoredAs, g.modifyStoredAs},
		{ModAutoIncrement, g.modifyIncrement},
	}
}

// ignoredModifiers: comments are emitted as separate "comment on column" statements
// and srid is part of the geography type.
func (g *Postgres) ignoredModifiers() []string {
	return []string{ModUnsigned, ModCharset, ModUseCurrent, ModComment, ModSrid}
}

func (g *Postgres) modifyCollate(_ *Blueprint, c *ColumnDefinition) string {
	if v := c.str(ModCollation); v != "" {
		return " collate " + g.wrap(v)
	}

	return ""
}

func (g *Postgres) modifyNullable(_ *Blueprint, c *ColumnDefinition) string {
	return lo.Ternary(c.IsNullable(), " null", " not null")
}

func (g *Postgres) modifyDefault(_ *Blueprint, c *ColumnDefinition) string {
	if v, ok := columnDefault(c, currentTimestamp); ok {
		return " default " + v
	}

	return ""
}

func (g *Postgres) modifyVirtualAs(_ *Blueprint, c *ColumnDefinition) string {
	if v, ok := c.Get(ModVirtualAs); ok {
		return fmt.Sprintf(" generated always as (%v)", v)
	}

	return ""
}

func (g *Postgres) modifyStoredAs(_ *Blueprint, c *ColumnDefinition) string {
	if v, ok := c.Get(ModStoredAs); ok {
		return fmt.Sprintf(" generated always as (%v) stored", v)
	}

	return ""
}

func (g *Postgres) modifyIncrement(bp *Blueprint, c *ColumnDefinition) string {
	if c.isSerial() && !bp.hasCommand(CmdPrimary) && !c.isChange() {
		return " primary key"
	}

	return ""
}

func (g *Postgres) CompileColumnType(c *ColumnDefinition) (string, error) {
	serial := c.isSerial() && !c.isChange()
	withTimezone := func(base string, tz bool) string {
		if c.Precision != nil {
			base += "(" + strconv.Itoa(*c.Precision) + ")"
		}
		return base + lo.Ternary(tz, " with time zone", " without time zone")
	}
	srid := 4326
	if v, ok := c.Get(ModSrid); ok {
		if n, isInt := v.(int); isInt {
			srid = n
		}
	}

	switch c.Type {
	case TypeChar:
		return "char(" + strconv.Itoa(c.Length) + ")", nil
	case TypeString:
		return "varchar(" + strconv.Itoa(c.Length) + ")", nil
	case TypeTinyText:
		return "varchar(255)", nil
	case TypeText, TypeMediumText, TypeLongText:
		return "text", nil
	case TypeBigInteger:
		return lo.Ternary(serial, "bigserial", "bigint"), nil
	case TypeInteger, TypeMediumInteger:
		return lo.Ternary(serial, "serial", "integer"), nil
	case TypeSmallInteger, TypeTinyInteger:
		return lo.Ternary(serial, "smallserial", "smallint"), nil
	case TypeFloat:
		if c.Precision != nil {
			return "float(" + strconv.Itoa(*c.Precision) + ")", nil
		}
		return "float", nil
	case TypeDouble:
		return "double precision", nil
	case TypeDecimal:
		return fmt.Sprintf("decimal(%d, %d)", c.Total, c.Places), nil
	case TypeBoolean:
		return "boolean", nil
	case TypeEnum:
		return fmt.Sprintf("varchar(255) check (%s in (%s))", g.wrap(c.Name), quoteStrings(c.Allowed)), nil
	case TypeJSON:
		return "json", nil
	case TypeJSONB:
		return "jsonb", nil
	case TypeDate:
		return "date", nil
	case TypeDateTime, TypeTimestamp:
		return withTimezone("timestamp", false), nil
	case TypeDateTimeTz, TypeTimestampTz:
		return withTimezone("timestamp", true), nil
	case TypeTime:
		return withTimezone("time", false), nil
	case TypeTimeTz:
		return withTimezone("time", true), nil
	case TypeYear:
		return "integer", nil
	case TypeBinary:
		return "bytea", nil
	case TypeUUID:
		return "uuid", nil
	case TypeIPAddress:
		return "inet", nil
	case TypeMACAddress:
		return "macaddr", nil
	case TypeGeometry:
		if c.Subtype == "" {
			return "geography(geometry, " + strconv.Itoa(srid) + ")", nil
		}
		return "geography(" + strings.ToLower(c.Subtype) + ", " + strconv.Itoa(srid) + ")", nil
	case TypePoint:
		return "geography(point, " + strconv.Itoa(srid) + ")", nil
	case TypeMultiPolygonZ:
		return "geography(multipolygonz, " + strconv.Itoa(srid) + ")", nil
	case TypeComputed:
		return "", ErrComputedType
	default:
		return "", grammar.UnsupportedType(c.Type)
	}
}

func (g *Postgres) CompileCreateDatabase(name string) (string, error) {
	return "create database " + g.wrap(name) + " encoding 'utf8'", nil
}

func (g *Postgres) CompileDropDatabaseIfExists(name string) (string, error) {
	return "drop database if exists " + g.wrap(name), nil
}

// columnComments renders "comment on column" for every commented column.
func (g *Postgres) columnComments(bp *Blueprint, columns []*ColumnDefinition) []string {
	var ret []string
	for _, c := range columns {
		if !c.Has(ModComment) {
			continue
		}
		ret = append(ret, "comment on column "+g.wrapTable(bp)+"."+g.wrap(c.Name)+" is "+quoteString(c.str(ModComment)))
	}

	return ret
}

func (g *Postgres) CompileCreate(bp *Blueprint, _ *Command) ([]string, error) {
	columns, err := g.compileColumns(bp, bp.addedColumns())
	if err != nil {
		return nil, err
	}

	sql := lo.Ternary(bp.Temporary, "create temporary", "create") + " table " + g.wrapTable(bp) +
		" (" + strings.Join(columns, ", ") + ")"

	return append([]string{sql}, g.columnComments(bp, bp.addedColumns())...), nil
}

func (g *Postgres) CompileAdd(bp *Blueprint, _ *Command) ([]string, error) {
	columns, err := g.compileColumns(bp, bp.addedColumns())
	if err != nil {
		return nil, err
	}

	sql := "alter table " + g.wrapTable(bp) + " " + strings.Join(prefixed("add column", columns), ", ")

	return append([]string{sql}, g.columnComments(bp, bp.addedColumns())...), nil
}

// CompileChange alters type, nullability and default of each changed column.
func (g *Postgres) CompileChange(bp *Blueprint, _ *Command) ([]string, error) {
	var changes []string
	for _, c := range bp.changedColumns() {
		typ, err := g.CompileColumnType(c)
		if err != nil {
			return nil, err
		}

		column := g.wrap(c.Name)
		changes = append(changes, "alter column "+column+" type "+typ)
		changes = append(changes, "alter column "+column+lo.Ternary(c.IsNullable(), " drop not null", " set not null"))
		if v, ok := columnDefault(c, currentTimestamp); ok {
			changes = append(changes, "alter column "+column+" set default "+v)
		}
	}

	sql := "alter table " + g.wrapTable(bp) + " " + strings.Join(changes, ", ")

	return append([]string{sql}, g.columnComments(bp, bp.changedColumns())...), nil
}

func (g *Postgres) CompileDropColumn(bp *Blueprint, cmd *Command) ([]string, error) {
	columns := lo.Map(cmd.Columns, func(c string, _ int) string { return "drop column " + g.wrap(c) })

	return []string{"alter table " + g.wrapTable(bp) + " " + strings.Join(columns, ", ")}, nil
}

func (g *Postgres) CompileRenameColumn(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.renameColumn(bp, cmd)
}

func (g *Postgres) CompilePrimary(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"alter table " + g.wrapTable(bp) + " add primary key (" + g.columnize(cmd.Columns) + ")"}, nil
}

func (g *Postgres) CompileUnique(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"alter table " + g.wrapTable(bp) + " add constraint " + g.wrap(cmd.Index) + " unique (" + g.columnize(cmd.Columns) + ")"}, nil
}

func (g *Postgres) CompileIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	using := ""
	if cmd.Algorithm != "" {
		using = " using " + cmd.Algorithm
	}

	return []string{"create index " + g.wrap(cmd.Index) + " on " + g.wrapTable(bp) + using + " (" + g.columnize(cmd.Columns) + ")"}, nil
}

func (g *Postgres) CompileFulltext(bp *Blueprint, cmd *Command) ([]string, error) {
	language := quoteString(lo.CoalesceOrEmpty(cmd.Language, defaultFulltextLocale))
	vectors := lo.Map(cmd.Columns, func(c string, _ int) string {
		return "to_tsvector(" + language + ", " + g.wrap(c) + ")"
	})

	return []string{"create index " + g.wrap(cmd.Index) + " on " + g.wrapTable(bp) + " using gin ((" + strings.Join(vectors, " || ") + "))"}, nil
}

func (g *Postgres) CompileSpatialIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"create index " + g.wrap(cmd.Index) + " on " + g.wrapTable(bp) + " using gist (" + g.columnize(cmd.Columns) + ")"}, nil
}

func (g *Postgres) CompileForeign(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{g.foreignKeySQL(bp, cmd)}, nil
}

func (g *Postgres) dropConstraint(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"alter table " + g.wrapTable(bp) + " drop constraint " + g.wrap(cmd.Index)}, nil
}

func (g *Postgres) dropIndex(_ *Blueprint, cmd *Command) ([]string, error) {
	return []string{"drop index " + g.wrap(cmd.Index)}, nil
}

func (g *Postgres) CompileDropPrimary(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropConstraint(bp, cmd)
}

func (g *Postgres) CompileDropUnique(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropConstraint(bp, cmd)
}

func (g *Postgres) CompileDropIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropIndex(bp, cmd)
}

func (g *Postgres) CompileDropFulltext(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropIndex(bp, cmd)
}

func (g *Postgres) CompileDropSpatialIndex(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropIndex(bp, cmd)
}

func (g *Postgres) CompileDropForeign(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropConstraint(bp, cmd)
}

func (g *Postgres) CompileRenameIndex(_ *Blueprint, cmd *Command) ([]string, error) {
	return []string{"alter index " + g.wrap(cmd.From) + " rename to " + g.wrap(cmd.To)}, nil
}

func (g *Postgres) CompileRename(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"alter table " + g.wrapTable(bp) + " rename to " + g.query.WrapTable(cmd.To)}, nil
}

func (g *Postgres) CompileDrop(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropTable(bp, cmd)
}

func (g *Postgres) CompileDropIfExists(bp *Blueprint, cmd *Command) ([]string, error) {
	return g.dropTableIfExists(bp, cmd)
}

func (g *Postgres) CompileTableComment(bp *Blueprint, cmd *Command) ([]string, error) {
	return []string{"comment on table " + g.wrapTable(bp) + " is " + quoteString(cmd.Comment)}, nil
}

func (g *Postgres) CompileCreateView(name, sql string) (string, error) {
	return g.createView(name, sql)
}

func (g *Postgres) CompileDropView(name string) (string, error) {
	return g.dropView(name)
}

// CompileCreateType creates an enum type.
func (g *Postgres) CompileCreateType(name string, values []string) (string, error) {
	return "create type " + g.wrap(name) + " as enum (" + quoteStrings(values) + ")", nil
}

func (g *Postgres) CompileDropType(name string) (string, error) {
	return "drop type if exists " + g.wrap(name), nil
}

func (g *Postgres) schemaName(schema string) string {
	return quoteString(lo.CoalesceOrEmpty(schema, "public"))
}

func (g *Postgres) CompileGetTables(_ string) (string, error) {
	return "select c.relname as name, n.nspname as schema, pg_total_relation_size(c.oid) as size, " +
		"obj_description(c.oid, 'pg_class') as comment from pg_class c, pg_namespace n " +
		"where c.relkind in ('r', 'p') and n.oid = c.relnamespace " +
		"and n.nspname not in ('pg_catalog', 'information_schema') order by c.relname", nil
}

func (g *Postgres) CompileGetViews(_ string) (string, error) {
	return "select viewname as name, schemaname as schema, definition from pg_views " +
		"where schemaname not in ('pg_catalog', 'information_schema') order by viewname", nil
}

func (g *Postgres) CompileGetColumns(schema, table string) (string, error) {
	return "select a.attname as name, t.typname as type_name, format_type(a.atttypid, a.atttypmod) as type, " +
		"(select tc.collcollate from pg_catalog.pg_collation tc where tc.oid = a.attcollation) as collation, " +
		"not a.attnotnull as nullable, " +
		"(select pg_get_expr(adbin, adrelid) from pg_attrdef where c.oid = pg_attrdef.adrelid and pg_attrdef.adnum = a.attnum) as default, " +
		"col_description(c.oid, a.attnum) as comment " +
		"from pg_attribute a, pg_class c, pg_type t, pg_namespace n " +
		"where c.relname = " + quoteString(table) + " and n.nspname = " + g.schemaName(schema) +
		" and a.attnum > 0 and a.attrelid = c.oid and a.atttypid = t.oid and n.oid = c.relnamespace " +
		"order by a.attnum", nil
}

func (g *Postgres) CompileGetIndexes(schema, table string) (string, error) {
	return "select ic.relname as name, string_agg(a.attname, ',' order by indseq.ord) as columns, " +
		"am.amname as \"type\", i.indisunique as \"unique\", i.indisprimary as \"primary\" " +
		"from pg_index i join pg_class tc on tc.oid = i.indrelid " +
		"join pg_namespace tn on tn.oid = tc.relnamespace join pg_class ic on ic.oid = i.indexrelid " +
		"join pg_am am on am.oid = ic.relam " +
		"join lateral unnest(i.indkey) with ordinality as indseq(num, ord) on true " +
		"left join pg_attribute a on a.attrelid = i.indrelid and a.attnum = indseq.num " +
		"where tc.relname = " + quoteString(table) + " and tn.nspname = " + g.schemaName(schema) +
		" group by ic.relname, am.amname, i.indisunique, i.indisprimary", nil
}

func (g *Postgres) CompileGetForeignKeys(schema, table string) (string, error) {
	return "select c.conname as name, " +
		"string_agg(la.attname, ',' order by conseq.ord) as columns, " +
		"fn.nspname as foreign_schema, fc.relname as foreign_table, " +
		"string_agg(fa.attname, ',' order by conseq.ord) as foreign_columns, " +
		"c.confupdtype as on_update, c.confdeltype as on_delete " +
		"from pg_constraint c join pg_class tc on c.conrelid = tc.oid " +
		"join pg_namespace tn on tn.oid = tc.relnamespace join pg_class fc on c.confrelid = fc.oid " +
		"join pg_namespace fn on fn.oid = fc.relnamespace " +
		"join lateral unnest(c.conkey) with ordinality as conseq(num, ord) on true " +
		"join pg_attribute la on la.attrelid = c.conrelid and la.attnum = conseq.num " +
		"join pg_attribute fa on fa.attrelid = c.confrelid and fa.attnum = c.confkey[conseq.ord] " +
		"where c.contype = 'f' and tc.relname = " + quoteString(table) + " and tn.nspname = " + g.schemaName(schema) +
		" group by c.conname, fn.nspname, fc.relname, c.confupdtype, c.confdeltype", nil
}

func (g *Postgres) CompileEnableForeignKeyConstraints() (string, error) {
	return "SET CONSTRAINTS ALL IMMEDIATE;", nil
}

func (g *Postgres) CompileDisableForeignKeyConstraints() (string, error) {
	return "SET CONSTRAINTS ALL DEFERRED;", nil
}
