package db

import (
	_ "modernc.org/sqlite"
)

var DefaultSqliteFile = "polyglot.sqlite"

type SqliteConfig struct {
	DBFile string
}

func NewSqliteConfig(dbFilename string) *SqliteConfig {
	if len(dbFilename) == 0 {
		dbFilename = DefaultSqliteFile
	}
	cfg := &SqliteConfig{
		DBFile: dbFilename,
	}
	return cfg
}

func (cfg SqliteConfig) Type() Type {
	return Sqlite
}

type SqliteBackend struct {
	*sqlBackend
	config *SqliteConfig
}

func NewSqliteBackend(config *SqliteConfig) *SqliteBackend {
	dialect := sqlDialect{
		driver:   "sqlite",
		maxConns: 1,
		serial:   "INTEGER PRIMARY KEY AUTOINCREMENT",
		byteLen:  "LENGTH(CAST(%s AS BLOB))",
		bind:     func(_ int) string { return "?" },
		quoteIdf: doubleQuote,
	}
	be := &SqliteBackend{
		sqlBackend: newSQLBackend(dialect, config.DBFile+"?_pragma=busy_timeout(5000)"),
		config:     config,
	}
	return be
}
