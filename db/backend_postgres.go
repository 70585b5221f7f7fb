package db

import (
	"fmt"

	"github.com/lib/pq"
)

var (
	DefaultPostgresConnString = "dbname=polyglot sslmode=disable"
)

type PostgresConfig struct {
	ConnString string
}

func NewPostgresConfig(connString string) *PostgresConfig {
	if len(connString) == 0 {
		connString = DefaultPostgresConnString
	}
	cfg := &PostgresConfig{
		ConnString: connString,
	}
	return cfg
}

func (cfg PostgresConfig) Type() Type {
	return Postgres
}

type PostgresBackend struct {
	*sqlBackend
	config *PostgresConfig
}

func NewPostgresBackend(config *PostgresConfig) *PostgresBackend {
	dialect := sqlDialect{
		driver:   "postgres",
		serial:   "BIGSERIAL PRIMARY KEY",
		byteLen:  "OCTET_LENGTH(%s)",
		bind:     func(n int) string { return fmt.Sprintf("$%d", n) },
		quoteIdf: pq.QuoteIdentifier,
	}
	be := &PostgresBackend{
		sqlBackend: newSQLBackend(dialect, config.ConnString),
		config:     config,
	}
	return be
}
