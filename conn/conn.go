// Package conn runs statements compiled by the grammar package on real database
// handles. SQL wraps database/sql, GORM wraps a *gorm.DB. Both satisfy
// query.Connection and schema.Connection.
package conn

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/Alp4ka/sqlpager/grammar"
)

type options struct {
	placeholder squirrel.PlaceholderFormat
	logger      zerolog.Logger
	grammar     grammar.Grammar
}

// Option configures a connection.
type Option func(*options)

// WithPlaceholder sets how "?" placeholders are rewritten before execution. The
// rewrite skips question marks inside single-quoted string literals.
func WithPlaceholder(format squirrel.PlaceholderFormat) Option {
	return func(o *options) {
		o.placeholder = format
	}
}

// WithLogger sets the statement logger. Statements are logged at debug level,
// failures at error level.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithGrammar attaches the grammar the statements were compiled with. It adds the
// raw SQL to statement logs and, unless WithPlaceholder is given, picks the
// placeholder format of the dialect.
func WithGrammar(g grammar.Grammar) Option {
	return func(o *options) {
		o.grammar = g
	}
}

func newOptions(defaultPlaceholder func(grammar.Grammar) squirrel.PlaceholderFormat, opts []Option) options {
	ret := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&ret)
	}
	if ret.placeholder == nil {
		ret.placeholder = defaultPlaceholder(ret.grammar)
	}

	return ret
}

// PlaceholderFormat returns the placeholder format of a dialect: "$n" for
// Postgres, "@pn" for SQL Server and "?" otherwise. Both driver and grammar names
// are accepted.
func PlaceholderFormat(dialect string) squirrel.PlaceholderFormat {
	switch strings.ToLower(dialect) {
	case "postgres", "postgresql", "pgsql", "pgx":
		return squirrel.Dollar
	case "sqlserver", "sqlsrv", "mssql":
		return squirrel.AtP
	default:
		return squirrel.Question
	}
}

func grammarPlaceholder(g grammar.Grammar) squirrel.PlaceholderFormat {
	if g == nil {
		return squirrel.Question
	}

	return PlaceholderFormat(g.Name())
}

// prepare rewrites the "?" placeholders of query into the configured format.
// Question marks inside single-quoted literals are kept, the escaped pairs '' and \'
// included. For numbered formats an escaped "??" outside literals becomes a literal
// "?", the form Postgres jsonb operators are compiled to.
func (o *options) prepare(query string) (string, error) {
	sample, err := o.placeholder.ReplacePlaceholders("?")
	if err != nil {
		return "", err
	}
	if sample == "?" {
		return query, nil
	}
	prefix, numbered := strings.CutSuffix(sample, "1")

	var (
		out       strings.Builder
		next      int
		isLiteral bool
	)
	out.Grow(len(query))

	for i := 0; i < len(query); i++ {
		char := query[i]
		if i+1 < len(query) {
			pair := query[i : i+2]
			if pair == "''" || pair == `\'` {
				out.WriteString(pair)
				i++
				continue
			}
			if pair == "??" && !isLiteral {
				out.WriteByte('?')
				i++
				continue
			}
		}

		switch {
		case char == '\'':
			out.WriteByte(char)
			isLiteral = !isLiteral
		case char == '?' && !isLiteral:
			next++
			if numbered {
				out.WriteString(prefix + strconv.Itoa(next))
			} else {
				out.WriteString(sample)
			}
		default:
			out.WriteByte(char)
		}
	}

	return out.String(), nil
}

func (o *options) log(query string, bindings []any, start time.Time, err error) {
	if err != nil {
		o.logger.Error().
			Err(err).
			Str("sql", query).
			Int("bindings", len(bindings)).
			Dur("duration", time.Since(start)).
			Msg("statement failed")
		return
	}

	e := o.logger.Debug()
	if !e.Enabled() {
		return
	}

	e = e.Str("sql", query).
		Int("bindings", len(bindings)).
		Dur("duration", time.Since(start))
	if o.grammar != nil {
		e = e.Str("raw", o.grammar.SubstituteBindingsIntoRawSQL(query, bindings))
	}
	e.Msg("statement")
}

// scanRows reads every row into a map keyed by column name. Byte slices are turned
// into strings.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	ret := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err = rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				row[column] = string(b)
				continue
			}
			row[column] = values[i]
		}
		ret = append(ret, row)
	}

	return ret, rows.Err()
}
