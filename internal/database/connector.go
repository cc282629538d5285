// Package database selects and opens the relational engine backing the
// record store, and captures the per-engine SQL differences behind a Dialect.
package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rmuit/copernica-testapi/internal/schema"
)

// Config holds database connection configuration.
type Config struct {
	Type     string // "sqlite" (default), "mysql" or "postgres"
	Host     string
	Port     string
	Database string
	User     string
	Password string
	Path     string // sqlite file path; empty means in-memory
}

// Dialect captures the SQL differences between supported engines.
type Dialect interface {
	// Name identifies the engine ("sqlite", "mysql", "postgres").
	Name() string
	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string
	// Placeholder renders the n-th (1-based) statement parameter.
	Placeholder(n int) string
	// ColumnType maps a field type onto the engine's column type.
	ColumnType(t schema.FieldType) string
	// IDColumn is the column definition for primary-key ID columns.
	IDColumn() string
}

// Open connects to the configured engine and returns the connection together
// with its dialect.
func Open(config Config) (*sql.DB, Dialect, error) {
	var (
		driver  string
		dsn     string
		dialect Dialect
	)

	switch strings.ToLower(config.Type) {
	case "", "sqlite":
		driver, dsn, dialect = "sqlite", sqliteDSN(config), SQLiteDialect{}
	case "mysql":
		driver, dsn, dialect = "mysql", mysqlDSN(config), MySQLDialect{}
	case "postgres", "postgresql":
		driver, dsn, dialect = "postgres", postgresDSN(config), PostgresDialect{}
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s connection: %w", dialect.Name(), err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to ping %s: %w", dialect.Name(), err)
	}
	return db, dialect, nil
}
