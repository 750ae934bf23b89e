// Package schema compiles table blueprints into dialect-specific DDL and runs them
// through a connection.
package schema

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Command names.
const (
	CmdCreate             = "create"
	CmdAdd                = "add"
	CmdChange             = "change"
	CmdDrop               = "drop"
	CmdDropIfExists       = "dropIfExists"
	CmdRename             = "rename"
	CmdDropColumn         = "dropColumn"
	CmdRenameColumn       = "renameColumn"
	CmdPrimary            = "primary"
	CmdUnique             = "unique"
	CmdIndex              = "index"
	CmdFulltext           = "fulltext"
	CmdSpatialIndex       = "spatialIndex"
	CmdForeign            = "foreign"
	CmdDropPrimary        = "dropPrimary"
	CmdDropUnique         = "dropUnique"
	CmdDropIndex          = "dropIndex"
	CmdDropFulltext       = "dropFulltext"
	CmdDropSpatialIndex   = "dropSpatialIndex"
	CmdDropForeign        = "dropForeign"
	CmdRenameIndex        = "renameIndex"
	CmdTableComment       = "tableComment"
	defaultStringLength   = 255
	defaultFulltextLocale = "english"
)

// Command is a table-level DDL step of a Blueprint.
type Command struct {
	Name      string
	Index     string
	Columns   []string
	Algorithm string
	Language  string

	From string
	To   string

	On         string
	References []string
	OnDelete   string
	OnUpdate   string

	Comment string
}

// ForeignKeyDefinition configures a foreign command fluently.
type ForeignKeyDefinition struct {
	cmd *Command
}

func (f *ForeignKeyDefinition) References(columns ...string) *ForeignKeyDefinition {
	f.cmd.References = columns
	return f
}

func (f *ForeignKeyDefinition) On(table string) *ForeignKeyDefinition {
	f.cmd.On = table
	return f
}

func (f *ForeignKeyDefinition) OnDelete(action string) *ForeignKeyDefinition {
	f.cmd.OnDelete = action
	return f
}

func (f *ForeignKeyDefinition) OnUpdate(action string) *ForeignKeyDefinition {
	f.cmd.OnUpdate = action
	return f
}

func (f *ForeignKeyDefinition) CascadeOnDelete() *ForeignKeyDefinition {
	return f.OnDelete("cascade")
}

func (f *ForeignKeyDefinition) NullOnDelete() *ForeignKeyDefinition {
	return f.OnDelete("set null")
}

// Name overrides the generated constraint name.
func (f *ForeignKeyDefinition) Name(name string) *ForeignKeyDefinition {
	f.cmd.Index = name
	return f
}

// Blueprint collects the columns and commands of one table operation.
type Blueprint struct {
	Table     string
	Prefix    string
	Temporary bool
	Charset   string
	Collation string
	Engine    string

	columns  []*ColumnDefinition
	commands []*Command
}

// NewBlueprint creates a blueprint for table. The prefix only affects generated index
// names; table names are prefixed by the grammar.
func NewBlueprint(table, prefix string) *Blueprint {
	return &Blueprint{Table: table, Prefix: prefix}
}

// Columns returns the column definitions.
func (b *Blueprint) Columns() []*ColumnDefinition {
	return b.columns
}

// Commands returns the commands added so far.
func (b *Blueprint) Commands() []*Command {
	return b.commands
}

func (b *Blueprint) addCommand(cmd *Command) *Command {
	b.commands = append(b.commands, cmd)
	return cmd
}

func (b *Blueprint) creating() bool {
	return lo.ContainsBy(b.commands, func(c *Command) bool { return c.Name == CmdCreate })
}

func (b *Blueprint) hasCommand(name string) bool {
	return lo.ContainsBy(b.commands, func(c *Command) bool { return c.Name == name })
}

func (b *Blueprint) commandsNamed(name string) []*Command {
	return lo.Filter(b.commands, func(c *Command, _ int) bool { return c.Name == name })
}

// addedColumns are the columns to add, changedColumns the ones to modify.
func (b *Blueprint) addedColumns() []*ColumnDefinition {
	return lo.Filter(b.columns, func(c *ColumnDefinition, _ int) bool { return !c.isChange() })
}

func (b *Blueprint) changedColumns() []*ColumnDefinition {
	return lo.Filter(b.columns, func(c *ColumnDefinition, _ int) bool { return c.isChange() })
}

// indexName builds "<prefix><table>_<columns>_<type>".
func (b *Blueprint) indexName(typ string, columns []string) string {
	name := strings.ToLower(b.Prefix + b.Table + "_" + strings.Join(columns, "_") + "_" + typ)

	return strings.NewReplacer("-", "_", ".", "_").Replace(name)
}

func (b *Blueprint) indexCommand(name, typ string, columns []string, index string) *Command {
	if index == "" {
		index = b.indexName(typ, columns)
	}

	return b.addCommand(&Command{Name: name, Index: index, Columns: columns})
}

// Table commands.

func (b *Blueprint) Create() {
	b.addCommand(&Command{Name: CmdCreate})
}

func (b *Blueprint) Drop() {
	b.addCommand(&Command{Name: CmdDrop})
}

func (b *Blueprint) DropIfExists() {
	b.addCommand(&Command{Name: CmdDropIfExists})
}

func (b *Blueprint) Rename(to string) {
	b.addCommand(&Command{Name: CmdRename, To: to})
}

func (b *Blueprint) DropColumn(columns ...string) {
	b.addCommand(&Command{Name: CmdDropColumn, Columns: columns})
}

func (b *Blueprint) RenameColumn(from, to string) {
	b.addCommand(&Command{Name: CmdRenameColumn, From: from, To: to})
}

// Primary adds a primary key; an optional name overrides the generated one.
func (b *Blueprint) Primary(columns []string, name ...string) *Command {
	return b.indexCommand(CmdPrimary, "primary", columns, lo.FirstOr(name, ""))
}

func (b *Blueprint) Unique(columns []string, name ...string) *Command {
	return b.indexCommand(CmdUnique, "unique", columns, lo.FirstOr(name, ""))
}

func (b *Blueprint) Index(columns []string, name ...string) *Command {
	return b.indexCommand(CmdIndex, "index", columns, lo.FirstOr(name, ""))
}

func (b *Blueprint) Fulltext(columns []string, name ...string) *Command {
	return b.indexCommand(CmdFulltext, "fulltext", columns, lo.FirstOr(name, ""))
}

func (b *Blueprint) SpatialIndex(columns []string, name ...string) *Command {
	return b.indexCommand(CmdSpatialIndex, "spatialindex", columns, lo.FirstOr(name, ""))
}

// Foreign starts a foreign key on columns.
func (b *Blueprint) Foreign(columns ...string) *ForeignKeyDefinition {
	return &ForeignKeyDefinition{cmd: b.indexCommand(CmdForeign, "foreign", columns, "")}
}

func (b *Blueprint) DropPrimary(name ...string) {
	b.addCommand(&Command{Name: CmdDropPrimary, Index: lo.FirstOr(name, b.Prefix+b.Table+"_pkey")})
}

func (b *Blueprint) DropUnique(index string) {
	b.addCommand(&Command{Name: CmdDropUnique, Index: index})
}

func (b *Blueprint) DropIndex(index string) {
	b.addCommand(&Command{Name: CmdDropIndex, Index: index})
}

func (b *Blueprint) DropFulltext(index string) {
	b.addCommand(&Command{Name: CmdDropFulltext, Index: index})
}

func (b *Blueprint) DropSpatialIndex(index string) {
	b.addCommand(&Command{Name: CmdDropSpatialIndex, Index: index})
}

func (b *Blueprint) DropForeign(index string) {
	b.addCommand(&Command{Name: CmdDropForeign, Index: index})
}

func (b *Blueprint) RenameIndex(from, to string) {
	b.addCommand(&Command{Name: CmdRenameIndex, From: from, To: to})
}

// Comment sets the table comment.
func (b *Blueprint) Comment(comment string) {
	b.addCommand(&Command{Name: CmdTableComment, Comment: comment})
}

// Columns.

func (b *Blueprint) addColumn(typ, name string) *ColumnDefinition {
	c := newColumn(typ, name)
	b.columns = append(b.columns, c)

	return c
}

// ID adds an auto-incrementing unsigned big integer primary key, "id" by default.
func (b *Blueprint) ID(name ...string) *ColumnDefinition {
	return b.BigIncrements(lo.FirstOr(name, "id"))
}

func (b *Blueprint) Increments(name string) *ColumnDefinition {
	return b.addColumn(TypeInteger, name).Unsigned().AutoIncrement()
}

func (b *Blueprint) BigIncrements(name string) *ColumnDefinition {
	return b.addColumn(TypeBigInteger, name).Unsigned().AutoIncrement()
}

func (b *Blueprint) BigInteger(name string) *ColumnDefinition {
	return b.addColumn(TypeBigInteger, name)
}

func (b *Blueprint) UnsignedBigInteger(name string) *ColumnDefinition {
	return b.addColumn(TypeBigInteger, name).Unsigned()
}

func (b *Blueprint) Integer(name string) *ColumnDefinition {
	return b.addColumn(TypeInteger, name)
}

func (b *Blueprint) MediumInteger(name string) *ColumnDefinition {
	return b.addColumn(TypeMediumInteger, name)
}

func (b *Blueprint) SmallInteger(name string) *ColumnDefinition {
	return b.addColumn(TypeSmallInteger, name)
}

func (b *Blueprint) TinyInteger(name string) *ColumnDefinition {
	return b.addColumn(TypeTinyInteger, name)
}

// Char adds a fixed-length string column; length 0 means 255.
func (b *Blueprint) Char(name string, length int) *ColumnDefinition {
	c := b.addColumn(TypeChar, name)
	c.Length = lo.Ternary(length > 0, length, defaultStringLength)

	return c
}

// String adds a varchar column; length 0 means 255.
func (b *Blueprint) String(name string, length int) *ColumnDefinition {
	c := b.addColumn(TypeString, name)
	c.Length = lo.Ternary(length > 0, length, defaultStringLength)

	return c
}

func (b *Blueprint) TinyText(name string) *ColumnDefinition {
	return b.addColumn(TypeTinyText, name)
}

func (b *Blueprint) Text(name string) *ColumnDefinition {
	return b.addColumn(TypeText, name)
}

func (b *Blueprint) MediumText(name string) *ColumnDefinition {
	return b.addColumn(TypeMediumText, name)
}

func (b *Blueprint) LongText(name string) *ColumnDefinition {
	return b.addColumn(TypeLongText, name)
}

// Float adds a float column; precision 0 leaves it unspecified.
func (b *Blueprint) Float(name string, precision int) *ColumnDefinition {
	c := b.addColumn(TypeFloat, name)
	if precision > 0 {
		c.Precision = &precision
	}

	return c
}

func (b *Blueprint) Double(name string) *ColumnDefinition {
	return b.addColumn(TypeDouble, name)
}

func (b *Blueprint) Decimal(name string, total, places int) *ColumnDefinition {
	c := b.addColumn(TypeDecimal, name)
	c.Total, c.Places = total, places

	return c
}

func (b *Blueprint) Boolean(name string) *ColumnDefinition {
	return b.addColumn(TypeBoolean, name)
}

func (b *Blueprint) Enum(name string, allowed []string) *ColumnDefinition {
	c := b.addColumn(TypeEnum, name)
	c.Allowed = allowed

	return c
}

func (b *Blueprint) Set(name string, allowed []string) *ColumnDefinition {
	c := b.addColumn(TypeSet, name)
	c.Allowed = allowed

	return c
}

func (b *Blueprint) JSON(name string) *ColumnDefinition {
	return b.addColumn(TypeJSON, name)
}

func (b *Blueprint) JSONB(name string) *ColumnDefinition {
	return b.addColumn(TypeJSONB, name)
}

func (b *Blueprint) Date(name string) *ColumnDefinition {
	return b.addColumn(TypeDate, name)
}

func (b *Blueprint) precisionColumn(typ, name string, precision []int) *ColumnDefinition {
	c := b.addColumn(typ, name)
	if len(precision) > 0 {
		p := precision[0]
		c.Precision = &p
	}

	return c
}

func (b *Blueprint) DateTime(name string, precision ...int) *ColumnDefinition {
	return b.precisionColumn(TypeDateTime, name, precision)
}

func (b *Blueprint) DateTimeTz(name string, precision ...int) *ColumnDefinition {
	return b.precisionColumn(TypeDateTimeTz, name, precision)
}

func (b *Blueprint) Time(name string, precision ...int) *ColumnDefinition {
	return b.precisionColumn(TypeTime, name, precision)
}

func (b *Blueprint) TimeTz(name string, precision ...int) *ColumnDefinition {
	return b.precisionColumn(TypeTimeTz, name, precision)
}

func (b *Blueprint) Timestamp(name string, precision ...int) *ColumnDefinition {
	return b.precisionColumn(TypeTimestamp, name, precision)
}

func (b *Blueprint) TimestampTz(name string, precision ...int) *ColumnDefinition {
	return b.precisionColumn(TypeTimestampTz, name, precision)
}

// Timestamps adds nullable created_at and updated_at columns.
func (b *Blueprint) Timestamps(precision ...int) {
	b.Timestamp("created_at", precision...).Nullable()
	b.Timestamp("updated_at", precision...).Nullable()
}

// SoftDeletes adds a nullable deleted_at column.
func (b *Blueprint) SoftDeletes(precision ...int) *ColumnDefinition {
	return b.Timestamp("deleted_at", precision...).Nullable()
}

func (b *Blueprint) Year(name string) *ColumnDefinition {
	return b.addColumn(TypeYear, name)
}

// Binary adds a binary column; a positive length makes it (var)binary(length).
func (b *Blueprint) Binary(name string, length int, fixed bool) *ColumnDefinition {
	c := b.addColumn(TypeBinary, name)
	c.Length, c.Fixed = length, fixed

	return c
}

func (b *Blueprint) UUID(name string) *ColumnDefinition {
	return b.addColumn(TypeUUID, name)
}

func (b *Blueprint) IPAddress(name string) *ColumnDefinition {
	return b.addColumn(TypeIPAddress, name)
}

func (b *Blueprint) MACAddress(name string) *ColumnDefinition {
	return b.addColumn(TypeMACAddress, name)
}

func (b *Blueprint) Geometry(name, subtype string) *ColumnDefinition {
	c := b.addColumn(TypeGeometry, name)
	c.Subtype = subtype

	return c
}

func (b *Blueprint) Point(name string) *ColumnDefinition {
	return b.addColumn(TypePoint, name)
}

func (b *Blueprint) MultiPolygonZ(name string) *ColumnDefinition {
	return b.addColumn(TypeMultiPolygonZ, name)
}

// Computed adds a column whose value is derived from expression.
func (b *Blueprint) Computed(name, expression string) *ColumnDefinition {
	c := b.addColumn(TypeComputed, name)
	c.Expression = expression

	return c
}

// ToSQL compiles the blueprint into statements. Columns of a non-create blueprint
// become add/change commands and fluent index modifiers become index commands.
func (b *Blueprint) ToSQL(g Grammar) ([]string, error) {
	commands := b.implicitCommands()

	var statements []string
	for _, cmd := range commands {
		compiled, err := compileCommand(g, b, cmd)
		if err != nil {
			return nil, err
		}
		statements = append(statements, compiled...)
	}

	return statements, nil
}

func (b *Blueprint) implicitCommands() []*Command {
	var prefix []*Command
	if !b.creating() {
		if len(b.addedColumns()) > 0 {
			prefix = append(prefix, &Command{Name: CmdAdd})
		}
		if len(b.changedColumns()) > 0 {
			prefix = append(prefix, &Command{Name: CmdChange})
		}
	}

	commands := append(prefix, b.commands...)
	for _, c := range b.columns {
		for _, mod := range []struct{ modifier, command, typ string }{
			{ModPrimary, CmdPrimary, "primary"},
			{ModUnique, CmdUnique, "unique"},
			{ModIndex, CmdIndex, "index"},
			{ModFulltext, CmdFulltext, "fulltext"},
			{ModSpatialIndex, CmdSpatialIndex, "spatialindex"},
		} {
			v, ok := c.Get(mod.modifier)
			if !ok {
				continue
			}
			index, _ := v.(string)
			if index == "" {
				index = b.indexName(mod.typ, []string{c.Name})
			}
			commands = append(commands, &Command{Name: mod.command, Index: index, Columns: []string{c.Name}})
		}
	}

	return commands
}

func compileCommand(g Grammar, b *Blueprint, cmd *Command) ([]string, error) {
	var fn func(*Blueprint, *Command) ([]string, error)

	switch cmd.Name {
	case CmdCreate:
		fn = g.CompileCreate
	case CmdAdd:
		fn = g.CompileAdd
	case CmdChange:
		fn = g.CompileChange
	case CmdDrop:
		fn = g.CompileDrop
	case CmdDropIfExists:
		fn = g.CompileDropIfExists
	case CmdRename:
		fn = g.CompileRename
	case CmdDropColumn:
		fn = g.CompileDropColumn
	case CmdRenameColumn:
		fn = g.CompileRenameColumn
	case CmdPrimary:
		fn = g.CompilePrimary
	case CmdUnique:
		fn = g.CompileUnique
	case CmdIndex:
		fn = g.CompileIndex
	case CmdFulltext:
		fn = g.CompileFulltext
	case CmdSpatialIndex:
		fn = g.CompileSpatialIndex
	case CmdForeign:
		fn = g.CompileForeign
	case CmdDropPrimary:
		fn = g.CompileDropPrimary
	case CmdDropUnique:
		fn = g.CompileDropUnique
	case CmdDropIndex:
		fn = g.CompileDropIndex
	case CmdDropFulltext:
		fn = g.CompileDropFulltext
	case CmdDropSpatialIndex:
		fn = g.CompileDropSpatialIndex
	case CmdDropForeign:
		fn = g.CompileDropForeign
	case CmdRenameIndex:
		fn = g.CompileRenameIndex
	case CmdTableComment:
		fn = g.CompileTableComment
	default:
		return nil, fmt.Errorf("unknown blueprint command '%s'", cmd.Name)
	}

	return fn(b, cmd)
}
