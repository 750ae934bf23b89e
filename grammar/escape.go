package grammar

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Alp4ka/sqlpager/clause"
)

var (
	ErrNullByte    = errors.New("strings with null bytes cannot be escaped, use a []byte binding")
	ErrInvalidUTF8 = errors.New("strings with invalid UTF-8 byte sequences cannot be escaped")
)

const escapeTimeLayout = "2006-01-02 15:04:05"

// Escape renders a value as a SQL literal of the dialect.
func (b *Base) Escape(value any) (string, error) {
	if sql, ok := clause.ExpressionValue(value); ok {
		return sql, nil
	}

	switch v := value.(type) {
	case nil:
		return "null", nil
	case bool:
		return b.self.escapeBool(v), nil
	case string:
		return b.escapeText(v)
	case []byte:
		return b.self.escapeBinary(v)
	case time.Time:
		return b.self.escapeString(v.Format(escapeTimeLayout)), nil
	case *time.Time:
		if v == nil {
			return "null", nil
		}
		return b.self.escapeString(v.Format(escapeTimeLayout)), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case fmt.Stringer:
		return b.escapeText(v.String())
	}

	switch reflect.TypeOf(value).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return "", Unsupported(opEscapeArray)
	default:
		return b.escapeText(fmt.Sprint(value))
	}
}

func (b *Base) escapeText(s string) (string, error) {
	if strings.ContainsRune(s, 0) {
		return "", ErrNullByte
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}

	return b.self.escapeString(s), nil
}

func (b *Base) escapeString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (b *Base) escapeBool(v bool) string {
	if v {
		return "1"
	}

	return "0"
}

func (b *Base) escapeBinary(_ []byte) (string, error) {
	return "", Unsupported(opEscapeBinary)
}

// SubstituteBindingsIntoRawSQL inlines bindings into sql for logging. Placeholders
// inside string literals and the escaped pairs '', \' and ?? are left alone. A
// placeholder whose binding cannot be escaped, or that has no binding left, stays "?".
func (b *Base) SubstituteBindingsIntoRawSQL(sql string, bindings []any) string {
	var (
		out       strings.Builder
		next      int
		isLiteral bool
	)

	for i := 0; i < len(sql); i++ {
		char := sql[i]
		if i+1 < len(sql) {
			pair := sql[i : i+2]
			if pair == "''" || pair == `\'` || pair == "??" {
				out.WriteString(pair)
				i++
				continue
			}
		}

		switch {
		case char == '\'':
			out.WriteByte(char)
			isLiteral = !isLiteral
		case char == '?' && !isLiteral:
			if next >= len(bindings) {
				out.WriteByte(char)
				continue
			}

			escaped, err := b.self.Escape(bindings[next])
			next++
			if err != nil {
				out.WriteByte(char)
				continue
			}
			out.WriteString(escaped)
		default:
			out.WriteByte(char)
		}
	}

	return out.String()
}
