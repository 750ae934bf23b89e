package query

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/Alp4ka/sqlpager/clause"
)

type (
	ColumnAlias = string

	// ColumnMapping maps external column aliases to fully qualified column names.
	// Use it when bare column names could cause an "ambiguous column name" error.
	// Key is an external alias, value is an internal column name.
	ColumnMapping = map[ColumnAlias]string
)

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

// validColumnName guards against SQL injection by restricting the characters of
// client supplied column names.
func validColumnName(column string) error {
	if column == "" || !lo.Every(_availableColumnNameSymbols, []rune(column)) {
		return fmt.Errorf("ordering column name contains forbidden symbols '%s'", column)
	}

	return nil
}

// ParseOrders builds orders from strings in the format "column asc|desc". Column
// aliases are resolved via mapping; a nil mapping accepts any column made of safe
// characters. An unknown alias fails with the closest known one.
//
// Example: ["name desc", "id asc"] orders by name descending, then id.
func ParseOrders(sorts []string, mapping ColumnMapping) ([]clause.Order, error) {
	ret := make([]clause.Order, 0, len(sorts))
	aliases := lo.Keys(mapping)

	for _, sort := range sorts {
		parts := strings.Fields(sort)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid ordering string format '%s'", sort)
		}

		alias := parts[0]
		direction, err := clause.ParseDirection(parts[1])
		if err != nil {
			return nil, err
		}

		column := alias
		if mapping != nil {
			column = mapping[alias]
			if column == "" {
				return nil, fmt.Errorf("invalid column alias. closest: '%s'", closestAlias(alias, aliases))
			}
		}
		if err = validColumnName(column); err != nil {
			return nil, err
		}

		ret = append(ret, clause.Order{Column: column, Direction: direction})
	}

	return ret, nil
}

func closestAlias(input ColumnAlias, dataSet []ColumnAlias) ColumnAlias {
	minDist := math.MaxInt
	closest := ""

	for _, dataSetAlias := range dataSet {
		dist := levenshtein([]rune(dataSetAlias), []rune(input))
		if dist < minDist || (dist == minDist && dataSetAlias < closest) {
			minDist = dist
			closest = dataSetAlias
		}
	}

	return closest
}
