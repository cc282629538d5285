package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmuit/copernica-testapi/internal/database"
	"github.com/rmuit/copernica-testapi/internal/schema"
)

func TestCreateTableSQL(t *testing.T) {
	s, err := schema.NormalizeJSON(`{"3": {"name": "D",
		"fields": {
			"Email": {"type": "email"},
			"Score": {"type": "integer", "value": 0},
			"Rate": {"type": "float", "value": 0}
		},
		"collections": {"7": {"name": "C", "fields": {"Kind": {"type": "text"}}}}
	}}`)
	require.NoError(t, err)

	db := s.Databases()[0]
	coll := db.Collections[0]

	got := createProfileTableSQL(database.SQLiteDialect{}, db)
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "profiles_3" (
  "_id" INTEGER PRIMARY KEY,
  "_secret" TEXT NOT NULL,
  "_created" TEXT NOT NULL,
  "_modified" TEXT NOT NULL,
  "_removed" TEXT,
  "Email" TEXT,
  "Score" INTEGER,
  "Rate" REAL
);`, got)

	got = createSubprofileTableSQL(database.MySQLDialect{}, coll)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS `subprofiles_7` (\n"+
		"  `_id` BIGINT PRIMARY KEY,\n"+
		"  `_profile_id` BIGINT NOT NULL,\n"+
		"  `_secret` TEXT NOT NULL,\n"+
		"  `_created` TEXT NOT NULL,\n"+
		"  `_modified` TEXT NOT NULL,\n"+
		"  `_removed` TEXT,\n"+
		"  `Kind` TEXT\n"+
		");", got)
}

func TestDialectPlaceholders(t *testing.T) {
	assert.Equal(t, "?", database.SQLiteDialect{}.Placeholder(3))
	assert.Equal(t, "?", database.MySQLDialect{}.Placeholder(3))
	assert.Equal(t, "$3", database.PostgresDialect{}.Placeholder(3))
}

func TestSelectSQLOrdersByID(t *testing.T) {
	s, err := schema.NormalizeJSON(`{"0": {"name": "D", "fields": {"Email": {"type": "email"}}}}`)
	require.NoError(t, err)

	st := New(nil, database.SQLiteDialect{}, s, Options{})
	query := st.selectSQL(profileTable(1), []string{"Email"}, `"_id" = ?`, false)
	assert.Equal(t, `SELECT "_id", "_secret", "_created", "_modified", "_removed", "Email" FROM "profiles_1" WHERE "_id" = ? ORDER BY "_id"`, query)
}
