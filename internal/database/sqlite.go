package database

import (
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/rmuit/copernica-testapi/internal/schema"
)

// sqliteDSN builds the sqlite connection string. An empty path means a
// shared in-memory database, the default for a test emulator.
func sqliteDSN(config Config) string {
	path := config.Path
	if path == "" || path == ":memory:" {
		return "file::memory:?cache=shared"
	}
	return fmt.Sprintf("file:%s", filepath.ToSlash(path))
}

// SQLiteDialect implements Dialect for sqlite.
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string { return "sqlite" }

func (SQLiteDialect) QuoteIdentifier(name string) string {
	return fmt.Sprintf("\"%s\"", name)
}

func (SQLiteDialect) Placeholder(int) string { return "?" }

func (SQLiteDialect) ColumnType(t schema.FieldType) string {
	switch t {
	case schema.TypeInteger:
		return "INTEGER"
	case schema.TypeFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

func (SQLiteDialect) IDColumn() string { return "INTEGER PRIMARY KEY" }
