// Package schema validates loosely-keyed database descriptions into a
// canonical, fully-identified tree of databases, collections and fields, and
// keeps the identity registry that backs later lookups.
package schema

// FieldType enumerates the supported field types.
type FieldType string

const (
	TypeText          FieldType = "text"
	TypeEmail         FieldType = "email"
	TypeInteger       FieldType = "integer"
	TypeFloat         FieldType = "float"
	TypeDate          FieldType = "date"
	TypeDatetime      FieldType = "datetime"
	TypeEmptyDate     FieldType = "empty_date"
	TypeEmptyDatetime FieldType = "empty_datetime"
)

// ParseFieldType maps a raw type string onto the enum.
func ParseFieldType(s string) (FieldType, bool) {
	switch t := FieldType(s); t {
	case TypeText, TypeEmail, TypeInteger, TypeFloat,
		TypeDate, TypeDatetime, TypeEmptyDate, TypeEmptyDatetime:
		return t, true
	}
	return "", false
}

// Field is one canonical field definition. CollectionID is zero for fields
// declared directly on a database.
type Field struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Type         FieldType `json:"type"`
	DatabaseID   int       `json:"database_id"`
	CollectionID int       `json:"collection_id,omitempty"`
	Default      string    `json:"value,omitempty"`
	HasDefault   bool      `json:"-"`
}

// Collection is one canonical collection definition. The owning database is
// referenced by ID, never by pointer.
type Collection struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	DatabaseID int      `json:"database_id"`
	Fields     []*Field `json:"fields"`
}

// Database is one canonical database definition.
type Database struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Fields      []*Field      `json:"fields"`
	Collections []*Collection `json:"collections"`
}

// Schema is the canonical tree produced by normalization, indexed by ID and
// name for the lookups the request-shaping layer needs. It is read-only once
// built and safe for concurrent readers.
type Schema struct {
	databases       []*Database
	databasesByID   map[int]*Database
	databasesByName map[string]*Database
	collectionsByID map[int]*Collection
	registry        *Registry
}

// Databases returns all databases in declaration order.
func (s *Schema) Databases() []*Database { return s.databases }

// Registry exposes the identity registry snapshot retained from
// normalization.
func (s *Schema) Registry() *Registry { return s.registry }

// Database resolves a database by ID.
func (s *Schema) Database(id int) (*Database, bool) {
	d, ok := s.databasesByID[id]
	return d, ok
}

// DatabaseByName resolves a database by its globally unique name.
func (s *Schema) DatabaseByName(name string) (*Database, bool) {
	d, ok := s.databasesByName[name]
	return d, ok
}

// Collection resolves a collection by its globally unique ID.
func (s *Schema) Collection(id int) (*Collection, bool) {
	c, ok := s.collectionsByID[id]
	return c, ok
}

// CollectionByName resolves a collection by name within one database.
func (s *Schema) CollectionByName(databaseID int, name string) (*Collection, bool) {
	d, ok := s.databasesByID[databaseID]
	if !ok {
		return nil, false
	}
	for _, c := range d.Collections {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Field resolves a field by ID within one database. Field IDs are unique
// across the database's own fields and all its collections' fields.
func (s *Schema) Field(databaseID, fieldID int) (*Field, bool) {
	d, ok := s.databasesByID[databaseID]
	if !ok {
		return nil, false
	}
	for _, f := range d.Fields {
		if f.ID == fieldID {
			return f, true
		}
	}
	for _, c := range d.Collections {
		for _, f := range c.Fields {
			if f.ID == fieldID {
				return f, true
			}
		}
	}
	return nil, false
}

// FieldByName resolves a field by name in its tightest enclosing scope:
// collectionID zero addresses the database's own fields, anything else the
// named collection's fields.
func (s *Schema) FieldByName(databaseID, collectionID int, name string) (*Field, bool) {
	if collectionID == 0 {
		d, ok := s.databasesByID[databaseID]
		if !ok {
			return nil, false
		}
		for _, f := range d.Fields {
			if f.Name == name {
				return f, true
			}
		}
		return nil, false
	}
	c, ok := s.collectionsByID[collectionID]
	if !ok || c.DatabaseID != databaseID {
		return nil, false
	}
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}
