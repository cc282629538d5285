package store

import (
	"fmt"
	"strings"

	"github.com/rmuit/copernica-testapi/internal/database"
	"github.com/rmuit/copernica-testapi/internal/schema"
)

// Meta columns carry an underscore prefix: legal field names cannot start
// with a symbol, so user fields can never collide with them.
const (
	colID        = "_id"
	colSecret    = "_secret"
	colCreated   = "_created"
	colModified  = "_modified"
	colRemoved   = "_removed"
	colProfileID = "_profile_id"
)

func profileTable(databaseID int) string {
	return fmt.Sprintf("profiles_%d", databaseID)
}

func subprofileTable(collectionID int) string {
	return fmt.Sprintf("subprofiles_%d", collectionID)
}

// createProfileTableSQL builds the CREATE TABLE statement for one database's
// profile rows: the meta columns plus one column per schema field.
func createProfileTableSQL(d database.Dialect, db *schema.Database) string {
	parts := metaColumnDefs(d, false)
	for _, f := range db.Fields {
		parts = append(parts, columnDefinition(d, f))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		d.QuoteIdentifier(profileTable(db.ID)), strings.Join(parts, ",\n  "))
}

// createSubprofileTableSQL is the collection-level equivalent, with the
// owning-profile reference column.
func createSubprofileTableSQL(d database.Dialect, c *schema.Collection) string {
	parts := metaColumnDefs(d, true)
	for _, f := range c.Fields {
		parts = append(parts, columnDefinition(d, f))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		d.QuoteIdentifier(subprofileTable(c.ID)), strings.Join(parts, ",\n  "))
}

func metaColumnDefs(d database.Dialect, withProfileRef bool) []string {
	parts := []string{
		d.QuoteIdentifier(colID) + " " + d.IDColumn(),
	}
	if withProfileRef {
		parts = append(parts, d.QuoteIdentifier(colProfileID)+" BIGINT NOT NULL")
	}
	parts = append(parts,
		d.QuoteIdentifier(colSecret)+" TEXT NOT NULL",
		d.QuoteIdentifier(colCreated)+" TEXT NOT NULL",
		d.QuoteIdentifier(colModified)+" TEXT NOT NULL",
		d.QuoteIdentifier(colRemoved)+" TEXT",
	)
	return parts
}

func columnDefinition(d database.Dialect, f *schema.Field) string {
	return d.QuoteIdentifier(f.Name) + " " + d.ColumnType(f.Type)
}
