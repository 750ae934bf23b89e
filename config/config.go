// Package config loads pagination, dialect and logging settings from defaults, an
// optional YAML file and SQLPAGER_ environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/Alp4ka/sqlpager"
	"github.com/Alp4ka/sqlpager/grammar"
	"github.com/Alp4ka/sqlpager/logger"
	"github.com/Alp4ka/sqlpager/schema"
)

// EnvPrefix prefixes every environment variable read by Load. SQLPAGER_LOG_LEVEL
// maps to log.level.
const EnvPrefix = "SQLPAGER_"

var ErrUnknownDialect = errors.New("unknown database dialect")

type Config struct {
	Pagination Pagination `koanf:"pagination"`
	Database   Database   `koanf:"database"`
	Log        Log        `koanf:"log"`
}

type Pagination struct {
	PerPage    int    `koanf:"perpage"`
	MaxPerPage int    `koanf:"maxperpage"`
	PageName   string `koanf:"pagename"`
	CursorName string `koanf:"cursorname"`
}

type Database struct {
	// Dialect is one of mysql, pgsql, sqlite or sqlsrv. Driver names such as
	// postgres or sqlserver are accepted too.
	Dialect     string `koanf:"dialect"`
	TablePrefix string `koanf:"tableprefix"`
}

type Log struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

func defaults() map[string]any {
	return map[string]any{
		"pagination.perpage":    sqlpager.DefaultPerPage,
		"pagination.maxperpage": sqlpager.MaxPerPage,
		"pagination.pagename":   "page",
		"pagination.cursorname": "cursor",

		"database.dialect":     "mysql",
		"database.tableprefix": "",

		"log.level":  "info",
		"log.pretty": false,
	}
}

// Load reads the configuration. path names a YAML file; an empty path or a missing
// file is skipped.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err = k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", path, err)
			}
		}
	}

	err := k.Load(envprovider.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err = k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the dialect and the per page bounds.
func (c *Config) Validate() error {
	if _, err := c.Grammar(); err != nil {
		return err
	}
	if c.Pagination.MaxPerPage <= 0 {
		return fmt.Errorf("pagination.maxperpage must be positive, got %d", c.Pagination.MaxPerPage)
	}
	if c.Pagination.PerPage <= 0 || c.Pagination.PerPage > c.Pagination.MaxPerPage {
		return fmt.Errorf("pagination.perpage must be within [1, %d], got %d",
			c.Pagination.MaxPerPage, c.Pagination.PerPage)
	}

	return nil
}

// PerPage clamps a requested page size into the configured bounds.
func (c *Config) PerPage(requested int) int {
	if requested <= 0 {
		return c.Pagination.PerPage
	}

	return sqlpager.NormalizePerPage(requested, c.Pagination.MaxPerPage)
}

// Options returns paginator options carrying the configured parameter names.
func (c *Config) Options() sqlpager.Options {
	return sqlpager.Options{
		PageName:   c.Pagination.PageName,
		CursorName: c.Pagination.CursorName,
	}
}

// Grammar returns the query grammar of the configured dialect with the table
// prefix applied.
func (c *Config) Grammar() (grammar.Grammar, error) {
	var g grammar.Grammar
	switch strings.ToLower(c.Database.Dialect) {
	case "mysql", "mariadb":
		g = grammar.NewMySQL()
	case "pgsql", "postgres", "postgresql":
		g = grammar.NewPostgres()
	case "sqlite", "sqlite3":
		g = grammar.NewSQLite()
	case "sqlsrv", "sqlserver", "mssql":
		g = grammar.NewSQLServer()
	default:
		return nil, fmt.Errorf("%w '%s'", ErrUnknownDialect, c.Database.Dialect)
	}
	g.SetTablePrefix(c.Database.TablePrefix)

	return g, nil
}

// SchemaGrammar returns the schema grammar of the configured dialect.
func (c *Config) SchemaGrammar() (schema.Grammar, error) {
	g, err := c.Grammar()
	if err != nil {
		return nil, err
	}

	switch q := g.(type) {
	case *grammar.MySQL:
		return schema.NewMySQL(q), nil
	case *grammar.Postgres:
		return schema.NewPostgres(q), nil
	case *grammar.SQLite:
		return schema.NewSQLite(q), nil
	case *grammar.SQLServer:
		return schema.NewSQLServer(q), nil
	default:
		return nil, fmt.Errorf("%w '%s'", ErrUnknownDialect, c.Database.Dialect)
	}
}

// Logger builds the configured logger writing to w.
func (c *Config) Logger(w io.Writer) zerolog.Logger {
	return logger.New(c.Log.Level, c.Log.Pretty, w)
}
