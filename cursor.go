package sqlpager

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

var _encoder = base64.RawURLEncoding

// directionKey carries the traversal direction inside an encoded cursor.
const directionKey = "_pointsToNextItems"

// ErrParameterNotFound is the sentinel every ParameterNotFoundError unwraps to.
var ErrParameterNotFound = errors.New("cursor parameter not found")

// ParameterNotFoundError is returned by Cursor.Parameter for a name the cursor does
// not carry.
type ParameterNotFoundError struct {
	Name string
}

func (e *ParameterNotFoundError) Error() string {
	return fmt.Sprintf("cursor parameter %q not found", e.Name)
}

func (e *ParameterNotFoundError) Unwrap() error {
	return ErrParameterNotFound
}

// Cursor is a keyset position: the values of the order columns of one row plus the
// direction to walk from it. A Cursor is never mutated after construction.
//
// Values are normalized to string, int64, float64, bool or nil so that a cursor
// equals its decoded token.
type Cursor struct {
	parameters        map[string]any
	pointsToNextItems bool
}

// NewCursor creates a cursor from raw parameter values.
func NewCursor(parameters map[string]any, pointsToNextItems bool) *Cursor {
	normalized := make(map[string]any, len(parameters))
	for k, v := range parameters {
		if k == directionKey {
			continue
		}
		normalized[k] = normalizeValue(v)
	}

	return &Cursor{parameters: normalized, pointsToNextItems: pointsToNextItems}
}

// normalizeValue maps v onto the scalar set a JSON round trip preserves. Whole floats
// become int64 because JSON does not keep the distinction.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case nil, string, bool, int64:
		return v
	case json.Number:
		return normalizeNumber(n)
	case float32:
		return normalizeFloat(float64(n))
	case float64:
		return normalizeFloat(n)
	case fmt.Stringer:
		return n.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return fmt.Sprint(u)
		}
		return int64(u)
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalizeValue(rv.Elem().Interface())
	default:
		return fmt.Sprint(v)
	}
}

// normalizeFloat keeps non-finite values as their text form ("NaN", "+Inf", "-Inf"),
// which JSON cannot carry as numbers.
func normalizeFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}

	return f
}

func normalizeNumber(n json.Number) any {
	if !strings.ContainsAny(n.String(), ".eE") {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	if f, err := n.Float64(); err == nil {
		return normalizeFloat(f)
	}

	return n.String()
}

// Parameter returns the value stored under name.
func (c *Cursor) Parameter(name string) (any, error) {
	if c == nil {
		return nil, &ParameterNotFoundError{Name: name}
	}

	v, ok := c.parameters[name]
	if !ok {
		return nil, &ParameterNotFoundError{Name: name}
	}

	return v, nil
}

// Parameters returns the values of names in order, failing on the first missing one.
func (c *Cursor) Parameters(names []string) ([]any, error) {
	ret := make([]any, 0, len(names))
	for _, name := range names {
		v, err := c.Parameter(name)
		if err != nil {
			return nil, err
		}
		ret = append(ret, v)
	}

	return ret, nil
}

// All returns a copy of the parameters.
func (c *Cursor) All() map[string]any {
	if c == nil {
		return nil
	}

	return maps.Clone(c.parameters)
}

func (c *Cursor) PointsToNextItems() bool {
	return c != nil && c.pointsToNextItems
}

func (c *Cursor) PointsToPreviousItems() bool {
	return c != nil && !c.pointsToNextItems
}

// Equal reports whether both cursors carry the same parameters and direction.
func (c *Cursor) Equal(other *Cursor) bool {
	if c == nil || other == nil {
		return c == other
	}

	return c.pointsToNextItems == other.pointsToNextItems && reflect.DeepEqual(c.parameters, other.parameters)
}

func (c *Cursor) payload() map[string]any {
	ret := maps.Clone(c.parameters)
	if ret == nil {
		ret = make(map[string]any, 1)
	}
	ret[directionKey] = c.pointsToNextItems

	return ret
}

// Encode returns the token: the unpadded base64url encoding of the JSON object of the
// parameters plus the direction flag.
func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}

	data, err := json.Marshal(c.payload())
	if err != nil {
		panic(fmt.Errorf("cannot marshal cursor value: %w", err))
	}

	return _encoder.EncodeToString(data)
}

// String - implements fmt.Stringer.
func (c *Cursor) String() string {
	return c.Encode()
}

// MarshalJSON encodes the cursor as its token string.
func (c *Cursor) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}

	return json.Marshal(c.Encode())
}

// DecodeCursor parses a token. Any malformed input yields nil: tokens come from
// request input and are routinely stale or tampered with.
func DecodeCursor(token string) *Cursor {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	// Padded and standard-alphabet tokens are accepted too.
	token = strings.NewReplacer("+", "-", "/", "_").Replace(strings.TrimRight(token, "="))

	data, err := _encoder.DecodeString(token)
	if err != nil {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload map[string]any
	if err = dec.Decode(&payload); err != nil || payload == nil {
		return nil
	}

	direction, ok := payload[directionKey].(bool)
	if !ok {
		return nil
	}
	delete(payload, directionKey)

	if lo.SomeBy(lo.Values(payload), isComposite) {
		return nil
	}

	return NewCursor(payload, direction)
}

func isComposite(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}

var _ fmt.Stringer = (*Cursor)(nil)
