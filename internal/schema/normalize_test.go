package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSingleZeroKeyAutoAssigns(t *testing.T) {
	s, err := NormalizeJSON(`{"0": {"name": "Test"}}`)
	require.NoError(t, err)

	dbs := s.Databases()
	require.Len(t, dbs, 1)
	assert.Equal(t, 1, dbs[0].ID)
	assert.Equal(t, "Test", dbs[0].Name)
}

func TestNormalizeLaterZeroKeyFails(t *testing.T) {
	_, err := NormalizeJSON(`{"25": {"name": "A"}, "0": {"name": "B"}}`)
	require.Error(t, err)
	assert.Equal(t, "Explicitly assigned key 0 is not a legal ID", err.Error())

	var structErr *StructureError
	assert.ErrorAs(t, err, &structErr)
}

func TestNormalizeNegativeKeyFails(t *testing.T) {
	_, err := NormalizeJSON(`{"-25": {"name": "A"}}`)
	require.Error(t, err)
	assert.Equal(t, "Key -25 is a negative integer", err.Error())
}

func TestNormalizeExplicitIdentities(t *testing.T) {
	s, err := NormalizeJSON(`{"25": {"name": "First"}, "Second": {"id": 30}}`)
	require.NoError(t, err)

	first, ok := s.DatabaseByName("First")
	require.True(t, ok)
	assert.Equal(t, 25, first.ID)

	second, ok := s.Database(30)
	require.True(t, ok)
	assert.Equal(t, "Second", second.Name)
}

func TestNormalizeKeyPropertyAgreement(t *testing.T) {
	// Agreeing key and property are fine.
	_, err := NormalizeJSON(`{"5": {"id": 5, "name": "A"}}`)
	require.NoError(t, err)

	_, err = NormalizeJSON(`{"5": {"id": 6, "name": "A"}}`)
	require.Error(t, err)
	assert.Equal(t, "Key 5 conflicts with 'id' property 6", err.Error())

	_, err = NormalizeJSON(`{"A": {"name": "B"}}`)
	require.Error(t, err)
	assert.Equal(t, `Key "A" conflicts with 'name' property "B"`, err.Error())
}

func TestNormalizeIDClashAcrossKeyAndProperty(t *testing.T) {
	_, err := NormalizeJSON(`{"7": {"name": "A"}, "B": {"id": 7}}`)
	require.Error(t, err)
	assert.Equal(t, "ID 7 already seen before (in array key)", err.Error())
}

func TestNormalizeDatabaseNameUniqueness(t *testing.T) {
	_, err := NormalizeJSON(`{"A": {}, "2": {"name": "A"}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already seen before")
}

func TestNormalizeAutoNameAvoidsExplicitNames(t *testing.T) {
	s, err := NormalizeJSON(`{"Database2": {"id": 3}, "2": {}}`)
	require.NoError(t, err)

	db, ok := s.Database(2)
	require.True(t, ok)
	assert.Equal(t, "Database_2", db.Name)
}

func TestNormalizeIllegalDatabaseName(t *testing.T) {
	_, err := NormalizeJSON(`{"0": {"name": ""}}`)
	require.Error(t, err)

	_, err = NormalizeJSON(`{"0": {"name": "bad name!"}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a legal name")
}

func TestNormalizeScalarEntityFails(t *testing.T) {
	_, err := NormalizeJSON(`["foo"]`)
	require.Error(t, err)
	assert.Equal(t, "Non-array value found inside a list of databases", err.Error())
}

func TestNormalizeNumericPropertyFails(t *testing.T) {
	_, err := NormalizeJSON(`{"Test": {"5": "x"}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Malformed structure")
}

func TestNormalizeScalarDatabaseListFails(t *testing.T) {
	_, err := NormalizeJSON(`"nope"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Malformed structure")
}

func TestNormalizePaginatedWrapper(t *testing.T) {
	s, err := NormalizeJSON(`{"start": 0, "limit": 100, "total": 1, "data": [{"name": "Test"}]}`)
	require.NoError(t, err)
	require.Len(t, s.Databases(), 1)
	assert.Equal(t, "Test", s.Databases()[0].Name)
}

func TestNormalizeCollectionIdentity(t *testing.T) {
	s, err := NormalizeJSON(`{
		"1": {"name": "A", "collections": {"Orders": {}, "9": {"name": "Items"}}},
		"2": {"name": "B", "collections": {"Orders": {}}}
	}`)
	require.NoError(t, err)

	orders, ok := s.CollectionByName(1, "Orders")
	require.True(t, ok)
	assert.Equal(t, 1, orders.DatabaseID)

	items, ok := s.Collection(9)
	require.True(t, ok)
	assert.Equal(t, "Items", items.Name)

	// Same collection name in another database is fine; the second auto ID
	// continues the global collection sequence past the explicit 9.
	other, ok := s.CollectionByName(2, "Orders")
	require.True(t, ok)
	assert.Equal(t, 10, other.ID)
}

func TestNormalizeCollectionIDGloballyUnique(t *testing.T) {
	_, err := NormalizeJSON(`{
		"1": {"name": "A", "collections": {"5": {"name": "X"}}},
		"2": {"name": "B", "collections": {"5": {"name": "Y"}}}
	}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already seen before")
}

func TestNormalizeCollectionDatabaseBackReference(t *testing.T) {
	_, err := NormalizeJSON(`{"1": {"name": "A", "collections": {"X": {"database": 2}}}}`)
	require.Error(t, err)
	assert.Equal(t, "'database' property 2 differs from the enclosing database ID 1", err.Error())

	_, err = NormalizeJSON(`{"1": {"name": "A", "collections": {"X": {"database": 1}}}}`)
	assert.NoError(t, err)
}

func TestNormalizeFieldValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing type",
			doc:  `{"0": {"name": "D", "fields": {"Email": {}}}}`,
			want: "no 'type' set",
		},
		{
			name: "unknown type",
			doc:  `{"0": {"name": "D", "fields": {"Email": {"type": "blob"}}}}`,
			want: `Unknown field type "blob"`,
		},
		{
			name: "missing name",
			doc:  `{"0": {"name": "D", "fields": [{"type": "text"}]}}`,
			want: "no 'name' set",
		},
		{
			name: "integer without default",
			doc:  `{"0": {"name": "D", "fields": {"Score": {"type": "integer"}}}}`,
			want: "no 'value' set",
		},
		{
			name: "integer with bad default",
			doc:  `{"0": {"name": "D", "fields": {"Score": {"type": "integer", "value": "abc"}}}}`,
			want: "illegal 'value' property",
		},
		{
			name: "float with bad default",
			doc:  `{"0": {"name": "D", "fields": {"Rate": {"type": "float", "value": "x"}}}}`,
			want: "illegal 'value' property",
		},
		{
			name: "text with non-string default",
			doc:  `{"0": {"name": "D", "fields": {"Note": {"type": "text", "value": 5}}}}`,
			want: "illegal 'value' property",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeJSON(tt.doc)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestNormalizeFieldDefaults(t *testing.T) {
	s, err := NormalizeJSON(`{"0": {"name": "D", "fields": {
		"Score": {"type": "integer", "value": -1},
		"Rate": {"type": "float", "value": "2.99"},
		"Note": {"type": "text", "value": "hi"}
	}}}`)
	require.NoError(t, err)

	score, ok := s.FieldByName(1, 0, "Score")
	require.True(t, ok)
	assert.Equal(t, "-1", score.Default)
	assert.True(t, score.HasDefault)

	rate, _ := s.FieldByName(1, 0, "Rate")
	assert.Equal(t, "2.99", rate.Default)

	note, _ := s.FieldByName(1, 0, "Note")
	assert.Equal(t, "hi", note.Default)
}

func TestNormalizeFieldIDScopeSpansCollections(t *testing.T) {
	// Database fields and collection fields share one ID namespace.
	_, err := NormalizeJSON(`{"0": {"name": "D",
		"fields": {"4": {"name": "A", "type": "text"}},
		"collections": {"C": {"fields": {"4": {"name": "B", "type": "text"}}}}
	}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already seen before")
}

func TestNormalizeFieldNameScopesAreSeparate(t *testing.T) {
	// The same field name may recur in a sibling collection's scope.
	s, err := NormalizeJSON(`{"0": {"name": "D",
		"fields": {"Email": {"type": "email"}},
		"collections": {"C": {"fields": {"Email": {"type": "email"}}}}
	}}`)
	require.NoError(t, err)

	db := s.Databases()[0]
	coll := db.Collections[0]
	assert.Equal(t, 1, db.Fields[0].ID)
	assert.Equal(t, 2, coll.Fields[0].ID)

	f, ok := s.FieldByName(db.ID, coll.ID, "Email")
	require.True(t, ok)
	assert.Equal(t, coll.ID, f.CollectionID)
}

func TestNormalizeDuplicateFieldNameInScope(t *testing.T) {
	_, err := NormalizeJSON(`{"0": {"name": "D", "fields": [
		{"name": "Email", "type": "email"},
		{"name": "Email", "type": "text"}
	]}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already seen before")
}

func TestNormalizeLookupSurface(t *testing.T) {
	s, err := NormalizeJSON(`{"2": {"name": "D",
		"fields": {"Email": {"type": "email"}},
		"collections": {"C": {"fields": {"Score": {"type": "integer", "value": 0}}}}
	}}`)
	require.NoError(t, err)

	email, ok := s.Field(2, 1)
	require.True(t, ok)
	assert.Equal(t, "Email", email.Name)

	// Collection fields resolve through the same per-database ID namespace.
	score, ok := s.Field(2, 2)
	require.True(t, ok)
	assert.Equal(t, "Score", score.Name)

	_, ok = s.Field(2, 99)
	assert.False(t, ok)
	_, ok = s.Field(99, 1)
	assert.False(t, ok)

	r := s.Registry()
	assert.True(t, r.HasID(DatabaseScope(), 2))
	assert.True(t, r.HasName(CollectionNameScope(2), "C"))
}

func TestNormalizeDeterministicAutoAssignment(t *testing.T) {
	doc := `{"0": {"name": "D", "fields": {
		"A": {"type": "text"},
		"7": {"name": "B", "type": "text"},
		"C": {"type": "text"}
	}}}`

	ids := func() []int {
		s, err := NormalizeJSON(doc)
		require.NoError(t, err)
		var out []int
		for _, f := range s.Databases()[0].Fields {
			out = append(out, f.ID)
		}
		return out
	}
	first := ids()
	assert.Equal(t, []int{1, 7, 8}, first)
	assert.Equal(t, first, ids())
}
