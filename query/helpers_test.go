package query

import (
	"context"
	"errors"

	"github.com/Alp4ka/sqlpager/grammar"
)

type statement struct {
	sql      string
	bindings []any
	useRead  bool
}

// fakeConnection records every statement and answers selects from a queue.
type fakeConnection struct {
	results    [][]Row
	affected   int64
	err        error
	statements []statement
}

func (c *fakeConnection) Select(_ context.Context, query string, bindings []any, useRead bool) ([]map[string]any, error) {
	c.statements = append(c.statements, statement{sql: query, bindings: bindings, useRead: useRead})
	if c.err != nil {
		return nil, c.err
	}
	if len(c.results) == 0 {
		return nil, nil
	}

	ret := c.results[0]
	c.results = c.results[1:]

	return ret, nil
}

func (c *fakeConnection) Affecting(_ context.Context, query string, bindings []any) (int64, error) {
	c.statements = append(c.statements, statement{sql: query, bindings: bindings})
	return c.affected, c.err
}

func (c *fakeConnection) Statement(_ context.Context, query string, bindings []any) error {
	c.statements = append(c.statements, statement{sql: query, bindings: bindings})
	return c.err
}

func (c *fakeConnection) sqls() []string {
	ret := make([]string, 0, len(c.statements))
	for _, s := range c.statements {
		ret = append(ret, s.sql)
	}

	return ret
}

// idConnection additionally reports generated ids.
type idConnection struct {
	fakeConnection
	id int64
}

func (c *idConnection) InsertGetID(_ context.Context, query string, bindings []any) (int64, error) {
	c.statements = append(c.statements, statement{sql: query, bindings: bindings})
	return c.id, c.err
}

var errBoom = errors.New("boom")

func newBuilder(conn Connection) *Builder {
	return New(conn, grammar.NewBase())
}

func idRows(ids ...int) []Row {
	ret := make([]Row, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, Row{"id": int64(id)})
	}

	return ret
}
