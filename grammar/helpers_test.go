package grammar

import (
	"github.com/Alp4ka/sqlpager/clause"
)

func basicWhere(column any, operator string, value any) *clause.Where {
	return &clause.Where{Type: clause.WhereBasic, Boolean: clause.BooleanAnd, Column: column, Operator: operator, Value: value}
}

func usersWhereID(id any) *clause.Registry {
	q := clause.NewRegistry("users")
	q.Wheres = append(q.Wheres, basicWhere("id", "=", id))
	q.Bindings.Add(clause.BindingWhere, id)

	return q
}

func innerJoin(table, first, second string) *clause.Join {
	on := &clause.Registry{IsJoinClause: true}
	on.Wheres = append(on.Wheres, &clause.Where{
		Type: clause.WhereColumn, Boolean: clause.BooleanAnd, First: first, Operator: "=", Second: second,
	})

	return &clause.Join{Type: "inner", Table: table, Clause: on}
}

func allGrammars() []Grammar {
	return []Grammar{NewBase(), NewMySQL(), NewPostgres(), NewSQLite(), NewSQLServer()}
}
