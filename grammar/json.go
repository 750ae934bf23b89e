package grammar

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// jsonAssignment is one "col->path" entry of an update, folded per column.
type jsonAssignment struct {
	Path  string
	Value any
}

var (
	jsonArrayKeys  = regexp.MustCompile(`(\[[^\]]+\])+$`)
	jsonArrayIndex = regexp.MustCompile(`\[([^\]]+)\]`)
	jsonQuoteEsc   = regexp.MustCompile(`(\\+)?'`)
)

// wrapJSONFieldAndPath splits "col->a->b" into the wrapped column and the
// ", '$."a"."b"'" path argument (empty without a path).
func (b *Base) wrapJSONFieldAndPath(column string) (string, string) {
	field, path, hasPath := strings.Cut(column, "->")
	wrapped := b.wrapSegments(strings.Split(field, "."))
	if !hasPath {
		return wrapped, ""
	}

	return wrapped, ", " + wrapJSONPath(path, "->")
}

// wrapJSONPath renders a path as a quoted JSON path literal: '$."a"[0]."b"'.
func wrapJSONPath(value, delimiter string) string {
	value = jsonQuoteEsc.ReplaceAllString(value, "''")

	segments := lo.Map(strings.Split(value, delimiter), func(s string, _ int) string {
		return wrapJSONPathSegment(s)
	})
	path := strings.Join(segments, ".")

	return "'$" + lo.Ternary(strings.HasPrefix(path, "["), "", ".") + path + "'"
}

func wrapJSONPathSegment(segment string) string {
	if keys := jsonArrayKeys.FindString(segment); keys != "" {
		key := strings.TrimSuffix(segment, keys)
		if key != "" {
			return `"` + key + `"` + keys
		}

		return keys
	}

	return `"` + segment + `"`
}

// jsonPathAttributes splits path segments into keys, array indices becoming their
// own attributes. Integer attributes are left bare, others quoted with quote.
func jsonPathAttributes(path []string, quote string) []string {
	ret := make([]string, 0, len(path))
	for _, attribute := range path {
		for _, key := range parseJSONPathArrayKeys(attribute) {
			if _, err := strconv.Atoi(key); err == nil {
				ret = append(ret, key)
				continue
			}
			ret = append(ret, quote+key+quote)
		}
	}

	return ret
}

func parseJSONPathArrayKeys(attribute string) []string {
	keys := jsonArrayKeys.FindString(attribute)
	if keys == "" {
		return []string{attribute}
	}

	ret := []string{strings.TrimSuffix(attribute, keys)}
	for _, m := range jsonArrayIndex.FindAllStringSubmatch(keys, -1) {
		ret = append(ret, m[1])
	}

	return lo.Filter(ret, func(s string, _ int) bool { return s != "" })
}

// wrapJSONSelector has no form in the base grammar. The compile entry points report
// it as an UnsupportedError.
func (b *Base) wrapJSONSelector(_ string) string {
	panic(unsupportedPanic{err: Unsupported(opJSONSelector)})
}

func (b *Base) compileJSONContains(_ any, _ string) (string, error) {
	return "", Unsupported(opJSONContains)
}

func (b *Base) compileJSONLength(_ any, _, _ string) (string, error) {
	return "", Unsupported(opJSONLength)
}

// foldJSONAssignments nests one call per assignment around initial. The first
// assignment ends up innermost, so its placeholder comes first.
func foldJSONAssignments(
	initial string,
	assignments []jsonAssignment,
	step func(expr string, i int, a jsonAssignment) (string, []any),
) (string, []any) {
	expr := initial
	bindings := make([]any, 0, len(assignments))
	for i, a := range assignments {
		var values []any
		expr, values = step(expr, i, a)
		bindings = append(bindings, values...)
	}

	return expr, bindings
}
