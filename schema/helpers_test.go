package schema

import (
	"github.com/Alp4ka/sqlpager/grammar"
)

func mysqlGrammar() *MySQL {
	return NewMySQL(grammar.NewMySQL())
}

func postgresGrammar() *Postgres {
	return NewPostgres(grammar.NewPostgres())
}

func sqliteGrammar() *SQLite {
	return NewSQLite(grammar.NewSQLite())
}

func sqlserverGrammar() *SQLServer {
	return NewSQLServer(grammar.NewSQLServer())
}

// usersTable is the blueprint most dialect tests compile.
func usersTable() *Blueprint {
	bp := NewBlueprint("users", "")
	bp.Create()
	bp.ID()
	bp.String("email", 100).Unique()
	bp.Integer("votes").Default(0)
	bp.Timestamps()

	return bp
}

func alterTable(fn func(bp *Blueprint)) *Blueprint {
	bp := NewBlueprint("users", "")
	fn(bp)

	return bp
}
