package query

import (
	"context"
	"errors"
	"fmt"
)

// ErrRecordsNotFound is returned by Sole when no row matches.
var ErrRecordsNotFound = errors.New("no records were found.")

// MultipleRecordsFoundError is returned by Sole when more than one row matches.
type MultipleRecordsFoundError struct {
	Count int
}

func (e *MultipleRecordsFoundError) Error() string {
	return fmt.Sprintf("%d records were found.", e.Count)
}

// Sole returns the only matching row.
func (b *Builder) Sole(ctx context.Context, columns ...any) (Row, error) {
	rows, err := b.Clone().Limit(2).Get(ctx, columns...)
	if err != nil {
		return nil, err
	}

	switch len(rows) {
	case 0:
		return nil, ErrRecordsNotFound
	case 1:
		return rows[0], nil
	default:
		return nil, &MultipleRecordsFoundError{Count: len(rows)}
	}
}

// SoleValue returns column of the only matching row.
func (b *Builder) SoleValue(ctx context.Context, column any) (any, error) {
	row, err := b.Clone().Select(column).Sole(ctx)
	if err != nil {
		return nil, err
	}

	return singleValue(row, column), nil
}
