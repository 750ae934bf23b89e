package clause

import (
	"fmt"
	"strings"
)

// Direction defines the sort direction of an order entry.
type Direction string

const (
	DirectionASC  Direction = "asc"
	DirectionDESC Direction = "desc"
)

// ParseDirection accepts "asc"/"desc" in any case.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("invalid ordering direction '%s'", s)
	}

	return d, nil
}

func (d Direction) Valid() bool {
	return d == DirectionASC || d == DirectionDESC
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == DirectionDESC {
		return DirectionASC
	}

	return DirectionDESC
}

// ForOperator maps a direction to the strict comparison that selects rows located
// after a keyset position under this ordering.
func (d Direction) ForOperator() Operator {
	switch d {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", d))
	}
}

// Operator is a comparison operator used by keyset predicates.
type Operator string

const (
	OperatorGT Operator = ">"
	OperatorLT Operator = "<"
	OperatorEQ Operator = "="
)

func (o Operator) Valid() bool {
	return o == OperatorLT || o == OperatorGT || o == OperatorEQ
}

// Flip swaps ">" and "<". Equality is its own opposite.
func (o Operator) Flip() Operator {
	switch o {
	case OperatorGT:
		return OperatorLT
	case OperatorLT:
		return OperatorGT
	default:
		return o
	}
}

// ForOrdering maps a strict operator back to the direction it walks.
func (o Operator) ForOrdering() Direction {
	switch o {
	case OperatorGT:
		return DirectionASC
	case OperatorLT:
		return DirectionDESC
	default:
		panic(fmt.Errorf("cannot map operator '%s' to ordering", o))
	}
}
