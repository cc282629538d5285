package database

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/rmuit/copernica-testapi/internal/schema"
)

func mysqlDSN(config Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		config.User,
		config.Password,
		config.Host,
		config.Port,
		config.Database,
	)
}

// MySQLDialect implements Dialect for MySQL.
type MySQLDialect struct{}

func (MySQLDialect) Name() string { return "mysql" }

func (MySQLDialect) QuoteIdentifier(name string) string {
	return fmt.Sprintf("`%s`", name)
}

func (MySQLDialect) Placeholder(int) string { return "?" }

func (MySQLDialect) ColumnType(t schema.FieldType) string {
	switch t {
	case schema.TypeInteger:
		return "BIGINT"
	case schema.TypeFloat:
		return "DOUBLE"
	default:
		return "TEXT"
	}
}

func (MySQLDialect) IDColumn() string { return "BIGINT PRIMARY KEY" }
