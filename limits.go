package sqlpager

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

const (
	MaxPerPage     = 100
	DefaultPerPage = 15
)

// IsNormalizedPerPage clamps perPage into [1, maxPerPage], falling back to
// DefaultPerPage for non-positive input. The bool reports whether perPage was kept.
func IsNormalizedPerPage(perPage int, maxPerPage int) (int, bool) {
	if perPage <= 0 {
		return min(DefaultPerPage, maxPerPage), false
	} else if perPage > maxPerPage {
		return maxPerPage, false
	}

	return perPage, true
}

func NormalizePerPage(perPage int, maxPerPage int) int {
	ret, _ := IsNormalizedPerPage(perPage, maxPerPage)
	return ret
}

// NormalizePage converts a raw page value (int, float or numeric string) into a page
// number. Anything that is not a positive whole number yields 1.
func NormalizePage(page any) int {
	rv := reflect.ValueOf(page)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return positiveOrFirst(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt32 {
			return 1
		}
		return positiveOrFirst(int64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f > math.MaxInt32 {
			return 1
		}
		return positiveOrFirst(int64(f))
	case reflect.String:
		n, err := strconv.ParseInt(strings.TrimSpace(rv.String()), 10, 64)
		if err != nil {
			return 1
		}
		return positiveOrFirst(n)
	case reflect.Pointer:
		if rv.IsNil() {
			return 1
		}
		return NormalizePage(rv.Elem().Interface())
	default:
		return 1
	}
}

func positiveOrFirst(n int64) int {
	if n < 1 || n > math.MaxInt32 {
		return 1
	}

	return int(n)
}
