package clause

// Expression is a raw SQL fragment. Grammars emit it verbatim: it is never wrapped,
// quoted or bound as a parameter.
type Expression struct {
	SQL string
}

// Raw creates an Expression.
func Raw(sql string) Expression {
	return Expression{SQL: sql}
}

// String - implements fmt.Stringer.
func (e Expression) String() string {
	return e.SQL
}

// IsExpression reports whether v is an Expression (by value or by pointer).
func IsExpression(v any) bool {
	switch v.(type) {
	case Expression, *Expression:
		return true
	default:
		return false
	}
}

// ExpressionValue returns the SQL of an Expression and true, or "" and false.
func ExpressionValue(v any) (string, bool) {
	switch e := v.(type) {
	case Expression:
		return e.SQL, true
	case *Expression:
		if e == nil {
			return "", false
		}
		return e.SQL, true
	default:
		return "", false
	}
}

// CleanBindings drops expressions from values: they are inlined into the SQL and
// never occupy a placeholder.
func CleanBindings(values []any) []any {
	ret := make([]any, 0, len(values))
	for _, v := range values {
		if IsExpression(v) {
			continue
		}
		ret = append(ret, v)
	}

	return ret
}
