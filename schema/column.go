package schema

import (
	"slices"

	"github.com/samber/lo"
)

// Column types.
const (
	TypeChar          = "char"
	TypeString        = "string"
	TypeTinyText      = "tinyText"
	TypeText          = "text"
	TypeMediumText    = "mediumText"
	TypeLongText      = "longText"
	TypeBigInteger    = "bigInteger"
	TypeInteger       = "integer"
	TypeMediumInteger = "mediumInteger"
	TypeSmallInteger  = "smallInteger"
	TypeTinyInteger   = "tinyInteger"
	TypeFloat         = "float"
	TypeDouble        = "double"
	TypeDecimal       = "decimal"
	TypeBoolean       = "boolean"
	TypeEnum          = "enum"
	TypeSet           = "set"
	TypeJSON          = "json"
	TypeJSONB         = "jsonb"
	TypeDate          = "date"
	TypeDateTime      = "dateTime"
	TypeDateTimeTz    = "dateTimeTz"
	TypeTime          = "time"
	TypeTimeTz        = "timeTz"
	TypeTimestamp     = "timestamp"
	TypeTimestampTz   = "timestampTz"
	TypeYear          = "year"
	TypeBinary        = "binary"
	TypeUUID          = "uuid"
	TypeIPAddress     = "ipAddress"
	TypeMACAddress    = "macAddress"
	TypeGeometry      = "geometry"
	TypePoint         = "point"
	TypeMultiPolygonZ = "multiPolygonZ"
	TypeComputed      = "computed"
)

var serialTypes = []string{TypeBigInteger, TypeInteger, TypeMediumInteger, TypeSmallInteger, TypeTinyInteger}

// Column modifiers. The names appear verbatim in unsupported-modifier errors.
const (
	ModUnsigned           = "unsigned"
	ModCharset            = "charset"
	ModCollation          = "collation"
	ModVirtualAs          = "virtualAs"
	ModStoredAs           = "storedAs"
	ModNullable           = "nullable"
	ModSrid               = "srid"
	ModDefault            = "default"
	ModOnUpdate           = "onUpdate"
	ModInvisible          = "invisible"
	ModAutoIncrement      = "autoIncrement"
	ModComment            = "comment"
	ModAfter              = "after"
	ModFirst              = "first"
	ModPersisted          = "persisted"
	ModUseCurrent         = "useCurrent"
	ModUseCurrentOnUpdate = "useCurrentOnUpdate"
	ModChange             = "change"
	ModPrimary            = "primary"
	ModUnique             = "unique"
	ModIndex              = "index"
	ModSpatialIndex       = "spatialIndex"
	ModFulltext           = "fulltext"
)

// indexModifiers turn into blueprint commands and are never compiled inline.
var indexModifiers = []string{ModChange, ModPrimary, ModUnique, ModIndex, ModSpatialIndex, ModFulltext}

// ColumnDefinition describes one column of a Blueprint.
type ColumnDefinition struct {
	Name string
	Type string

	Length     int
	Precision  *int
	Total      int
	Places     int
	Allowed    []string
	Fixed      bool
	Subtype    string
	Expression string

	modifiers map[string]any
	order     []string
}

func newColumn(typ, name string) *ColumnDefinition {
	return &ColumnDefinition{Name: name, Type: typ, modifiers: make(map[string]any)}
}

func (c *ColumnDefinition) set(name string, value any) *ColumnDefinition {
	if _, ok := c.modifiers[name]; !ok {
		c.order = append(c.order, name)
	}
	c.modifiers[name] = value

	return c
}

// Get returns the value of a modifier and whether it was set.
func (c *ColumnDefinition) Get(name string) (any, bool) {
	v, ok := c.modifiers[name]

	return v, ok
}

// Has reports whether a modifier was set.
func (c *ColumnDefinition) Has(name string) bool {
	_, ok := c.modifiers[name]

	return ok
}

func (c *ColumnDefinition) str(name string) string {
	v, _ := c.modifiers[name].(string)

	return v
}

func (c *ColumnDefinition) flag(name string) bool {
	v, _ := c.modifiers[name].(bool)

	return v
}

// Modifiers lists the modifiers set on the column, in the order they were set.
func (c *ColumnDefinition) Modifiers() []string {
	return slices.Clone(c.order)
}

func (c *ColumnDefinition) Nullable(nullable ...bool) *ColumnDefinition {
	return c.set(ModNullable, len(nullable) == 0 || nullable[0])
}

// IsNullable reports whether the column accepts null.
func (c *ColumnDefinition) IsNullable() bool {
	return c.flag(ModNullable)
}

func (c *ColumnDefinition) Default(value any) *ColumnDefinition {
	return c.set(ModDefault, value)
}

func (c *ColumnDefinition) UseCurrent() *ColumnDefinition {
	return c.set(ModUseCurrent, true)
}

func (c *ColumnDefinition) UseCurrentOnUpdate() *ColumnDefinition {
	return c.set(ModUseCurrentOnUpdate, true)
}

func (c *ColumnDefinition) OnUpdate(value any) *ColumnDefinition {
	return c.set(ModOnUpdate, value)
}

func (c *ColumnDefinition) Unsigned() *ColumnDefinition {
	return c.set(ModUnsigned, true)
}

func (c *ColumnDefinition) AutoIncrement() *ColumnDefinition {
	return c.set(ModAutoIncrement, true)
}

func (c *ColumnDefinition) Primary() *ColumnDefinition {
	return c.set(ModPrimary, true)
}

// Unique adds a unique index on the column, optionally named.
func (c *ColumnDefinition) Unique(name ...string) *ColumnDefinition {
	return c.set(ModUnique, lo.FirstOr(name, ""))
}

// Index adds a plain index on the column, optionally named.
func (c *ColumnDefinition) Index(name ...string) *ColumnDefinition {
	return c.set(ModIndex, lo.FirstOr(name, ""))
}

func (c *ColumnDefinition) SpatialIndex(name ...string) *ColumnDefinition {
	return c.set(ModSpatialIndex, lo.FirstOr(name, ""))
}

func (c *ColumnDefinition) Fulltext(name ...string) *ColumnDefinition {
	return c.set(ModFulltext, lo.FirstOr(name, ""))
}

func (c *ColumnDefinition) Comment(comment string) *ColumnDefinition {
	return c.set(ModComment, comment)
}

func (c *ColumnDefinition) Charset(charset string) *ColumnDefinition {
	return c.set(ModCharset, charset)
}

func (c *ColumnDefinition) Collation(collation string) *ColumnDefinition {
	return c.set(ModCollation, collation)
}

func (c *ColumnDefinition) After(column string) *ColumnDefinition {
	return c.set(ModAfter, column)
}

func (c *ColumnDefinition) First() *ColumnDefinition {
	return c.set(ModFirst, true)
}

func (c *ColumnDefinition) StoredAs(expression string) *ColumnDefinition {
	return c.set(ModStoredAs, expression)
}

func (c *ColumnDefinition) VirtualAs(expression string) *ColumnDefinition {
	return c.set(ModVirtualAs, expression)
}

func (c *ColumnDefinition) Invisible() *ColumnDefinition {
	return c.set(ModInvisible, true)
}

func (c *ColumnDefinition) Srid(srid int) *ColumnDefinition {
	return c.set(ModSrid, srid)
}

func (c *ColumnDefinition) Persisted() *ColumnDefinition {
	return c.set(ModPersisted, true)
}

// Change marks the column as a modification of an existing column.
func (c *ColumnDefinition) Change() *ColumnDefinition {
	return c.set(ModChange, true)
}

func (c *ColumnDefinition) isChange() bool {
	return c.flag(ModChange)
}

func (c *ColumnDefinition) isSerial() bool {
	return c.flag(ModAutoIncrement) && slices.Contains(serialTypes, c.Type)
}

func (c *ColumnDefinition) isGenerated() bool {
	return c.Has(ModVirtualAs) || c.Has(ModStoredAs)
}
