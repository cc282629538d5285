package schema

import (
	"strconv"

	"github.com/rmuit/copernica-testapi/internal/structure"
)

// Normalize walks a raw nested description of databases, collections and
// fields, validates and assigns identities through a fresh registry, and
// returns the canonical schema tree. Any malformed input, illegal identifier,
// name clash or key/property contradiction aborts with a *StructureError.
func Normalize(description *structure.Value) (*Schema, error) {
	n := &normalizer{registry: NewRegistry()}
	s := &Schema{
		databasesByID:   make(map[int]*Database),
		databasesByName: make(map[string]*Database),
		collectionsByID: make(map[int]*Collection),
		registry:        n.registry,
	}
	if description == nil {
		return s, nil
	}

	list := description.Unwrap()
	if list.IsScalar() {
		return nil, structErrf("Malformed structure: the database list is not an array")
	}
	for i, e := range list.Entries {
		db, err := n.database(e, i == 0)
		if err != nil {
			return nil, err
		}
		s.databases = append(s.databases, db)
		s.databasesByID[db.ID] = db
		s.databasesByName[db.Name] = db
		for _, c := range db.Collections {
			s.collectionsByID[c.ID] = c
		}
	}
	return s, nil
}

// NormalizeJSON decodes a JSON schema description and normalizes it.
func NormalizeJSON(doc string) (*Schema, error) {
	v, err := structure.DecodeJSONString(doc)
	if err != nil {
		return nil, err
	}
	return Normalize(v)
}

type normalizer struct {
	registry *Registry
}

// identity is what an entry's key and id/name properties agreed on.
type identity struct {
	id          int
	hasID       bool
	idFromKey   bool
	name        string
	hasName     bool
	nameFromKey bool
}

// resolveEntry applies the key-disambiguation rule and merges the entry's own
// id/name properties into the key-derived identity. A key is positional only
// when it is the integer 0 on the very first entry of its list; every other
// integer key is an explicit ID request and must be positive.
func (n *normalizer) resolveEntry(e structure.Entry, first bool, what string) (identity, *structure.Value, error) {
	var ident identity
	if e.Key.IsInt {
		k := e.Key.Int
		switch {
		case k == 0 && first:
			// positional: no explicit identity requested
		case k < 0:
			return ident, nil, structErrf("Key %d is a negative integer", k)
		case k == 0:
			return ident, nil, structErrf("Explicitly assigned key 0 is not a legal ID")
		default:
			ident.id, ident.hasID, ident.idFromKey = k, true, true
		}
	} else {
		ident.name, ident.hasName, ident.nameFromKey = e.Key.Str, true, true
	}

	body := e.Value
	if body.IsScalar() {
		return ident, nil, structErrf("Non-array value found inside a list of %ss", what)
	}
	for _, p := range body.Entries {
		if p.Key.IsInt {
			return ident, nil, structErrf("Malformed structure: numeric key %d found where a named property is expected", p.Key.Int)
		}
	}

	if idv, ok := body.Get("id"); ok {
		idProp, isInt := idv.AsInt()
		if !isInt {
			return ident, nil, structErrf("Illegal 'id' property %s", idv.ScalarString())
		}
		if ident.idFromKey && idProp != ident.id {
			return ident, nil, structErrf("Key %d conflicts with 'id' property %d", ident.id, idProp)
		}
		if !ident.hasID {
			ident.id, ident.hasID = idProp, true
		}
	}
	if nv, ok := body.Get("name"); ok {
		nameProp, isStr := nv.AsString()
		if !isStr {
			return ident, nil, structErrf("Illegal 'name' property %s", nv.ScalarString())
		}
		if ident.nameFromKey && nameProp != ident.name {
			return ident, nil, structErrf("Key %q conflicts with 'name' property %q", ident.name, nameProp)
		}
		if !ident.hasName {
			ident.name, ident.hasName = nameProp, true
		}
	}
	return ident, body, nil
}

func (n *normalizer) database(e structure.Entry, first bool) (*Database, error) {
	ident, body, err := n.resolveEntry(e, first, "database")
	if err != nil {
		return nil, err
	}

	id := ident.id
	if ident.hasID {
		if err := n.registry.ReserveID(DatabaseScope(), id, ident.idFromKey); err != nil {
			return nil, err
		}
	} else {
		id = n.registry.AutoID(DatabaseScope())
	}

	name := ident.name
	if ident.hasName {
		if err := n.registry.ReserveName(DatabaseScope(), name, ident.nameFromKey); err != nil {
			return nil, err
		}
	} else {
		name = n.registry.AutoName(DatabaseScope(), "Database", id)
	}

	db := &Database{ID: id, Name: name}
	if fv, ok := body.Get("fields"); ok {
		if db.Fields, err = n.fields(fv, id, 0); err != nil {
			return nil, err
		}
	}
	if cv, ok := body.Get("collections"); ok {
		list := cv.Unwrap()
		if list.IsScalar() {
			return nil, structErrf("Malformed structure: 'collections' is not an array")
		}
		for i, ce := range list.Entries {
			coll, err := n.collection(ce, i == 0, id)
			if err != nil {
				return nil, err
			}
			db.Collections = append(db.Collections, coll)
		}
	}
	return db, nil
}

func (n *normalizer) collection(e structure.Entry, first bool, databaseID int) (*Collection, error) {
	ident, body, err := n.resolveEntry(e, first, "collection")
	if err != nil {
		return nil, err
	}

	// An explicit back-reference must agree with where the collection was
	// declared.
	if dv, ok := body.Get("database"); ok {
		owner, isInt := dv.AsInt()
		if !isInt {
			return nil, structErrf("Illegal 'database' property %s", dv.ScalarString())
		}
		if owner != databaseID {
			return nil, structErrf("'database' property %d differs from the enclosing database ID %d", owner, databaseID)
		}
	}

	// Collection IDs live in one global scope across all databases.
	id := ident.id
	if ident.hasID {
		if err := n.registry.ReserveID(CollectionScope(), id, ident.idFromKey); err != nil {
			return nil, err
		}
	} else {
		id = n.registry.AutoID(CollectionScope())
	}

	name := ident.name
	if ident.hasName {
		if err := n.registry.ReserveName(CollectionNameScope(databaseID), name, ident.nameFromKey); err != nil {
			return nil, err
		}
	} else {
		name = n.registry.AutoName(CollectionNameScope(databaseID), "Collection", id)
	}

	coll := &Collection{ID: id, Name: name, DatabaseID: databaseID}
	if fv, ok := body.Get("fields"); ok {
		if coll.Fields, err = n.fields(fv, databaseID, id); err != nil {
			return nil, err
		}
	}
	return coll, nil
}

func (n *normalizer) fields(v *structure.Value, databaseID, collectionID int) ([]*Field, error) {
	list := v.Unwrap()
	if list == nil || (list.Kind == structure.KindScalar && list.Scalar == nil) {
		return nil, nil
	}
	if list.IsScalar() {
		return nil, structErrf("Malformed structure: 'fields' is not an array")
	}
	var fields []*Field
	for i, e := range list.Entries {
		f, err := n.field(e, i == 0, databaseID, collectionID)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func (n *normalizer) field(e structure.Entry, first bool, databaseID, collectionID int) (*Field, error) {
	ident, body, err := n.resolveEntry(e, first, "field")
	if err != nil {
		return nil, err
	}

	tv, ok := body.Get("type")
	if !ok {
		return nil, structErrf("no 'type' set")
	}
	typeName, isStr := tv.AsString()
	if !isStr {
		return nil, structErrf("Unknown field type %s", tv.ScalarString())
	}
	fieldType, known := ParseFieldType(typeName)
	if !known {
		return nil, structErrf("Unknown field type %q", typeName)
	}

	if !ident.hasName || ident.name == "" {
		return nil, structErrf("no 'name' set")
	}

	// Field IDs share one namespace per database, across the database's own
	// fields and every collection's fields.
	id := ident.id
	if ident.hasID {
		if err := n.registry.ReserveID(FieldScope(databaseID), id, ident.idFromKey); err != nil {
			return nil, err
		}
	} else {
		id = n.registry.AutoID(FieldScope(databaseID))
	}
	if err := n.registry.ReserveName(FieldNameScope(databaseID, collectionID), ident.name, ident.nameFromKey); err != nil {
		return nil, err
	}

	f := &Field{
		ID:           id,
		Name:         ident.name,
		Type:         fieldType,
		DatabaseID:   databaseID,
		CollectionID: collectionID,
	}

	dv, hasValue := body.Get("value")
	switch fieldType {
	case TypeInteger:
		if !hasValue {
			return nil, structErrf("no 'value' set")
		}
		iv, isInt := dv.AsInt()
		if !isInt {
			return nil, structErrf("illegal 'value' property")
		}
		f.Default, f.HasDefault = strconv.Itoa(iv), true
	case TypeFloat:
		if !hasValue {
			return nil, structErrf("no 'value' set")
		}
		fv, isFloat := dv.AsFloat()
		if !isFloat {
			return nil, structErrf("illegal 'value' property")
		}
		f.Default, f.HasDefault = strconv.FormatFloat(fv, 'f', -1, 64), true
	case TypeText, TypeEmail:
		if hasValue {
			sv, isString := dv.AsString()
			if !isString {
				return nil, structErrf("illegal 'value' property")
			}
			f.Default, f.HasDefault = sv, true
		}
	default: // date types
		if hasValue {
			if !dv.IsScalar() {
				return nil, structErrf("illegal 'value' property")
			}
			if dv.Scalar != nil {
				f.Default, f.HasDefault = dv.ScalarString(), true
			}
		}
	}
	return f, nil
}
