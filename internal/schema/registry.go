package schema

import (
	"regexp"
	"strconv"
)

// Names may contain alphanumerics, spaces and a little punctuation, but must
// start and end with an alphanumeric. Mirrors the pattern enforced for
// database and collection names by the emulated service.
var legalNameRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9 _+-]*[a-zA-Z0-9])?$`)

// IsLegalName reports whether a name matches the legal-name pattern.
func IsLegalName(name string) bool {
	return legalNameRe.MatchString(name)
}

type scopeKind int

const (
	scopeDatabase scopeKind = iota
	scopeCollection
	scopeField
	scopeCollectionName
	scopeFieldName
)

// Scope is a namespace within which IDs or names must be unique.
type Scope struct {
	kind         scopeKind
	databaseID   int
	collectionID int
}

// DatabaseScope covers all databases: IDs and names are both global.
func DatabaseScope() Scope { return Scope{kind: scopeDatabase} }

// CollectionScope covers collection IDs, which are global across all
// databases.
func CollectionScope() Scope { return Scope{kind: scopeCollection} }

// CollectionNameScope covers collection names, unique per owning database.
func CollectionNameScope(databaseID int) Scope {
	return Scope{kind: scopeCollectionName, databaseID: databaseID}
}

// FieldScope covers field IDs: one namespace per database, shared by the
// database's own fields and all its collections' fields.
func FieldScope(databaseID int) Scope {
	return Scope{kind: scopeField, databaseID: databaseID}
}

// FieldNameScope covers field names in their tightest enclosing scope. A zero
// collectionID addresses the database's direct fields.
func FieldNameScope(databaseID, collectionID int) Scope {
	return Scope{kind: scopeFieldName, databaseID: databaseID, collectionID: collectionID}
}

type idScope struct {
	used map[int]bool // value: consumed via an array key
	max  int
}

type nameScope struct {
	used map[string]bool // value: consumed via an array key
}

// Registry tracks, per scope, which IDs and names have been consumed, issues
// auto-assigned IDs and synthesizes fallback names. It is built during one
// normalization run and retained read-only afterward; a fresh registry per
// run keeps independent normalizations from interfering.
type Registry struct {
	ids   map[Scope]*idScope
	names map[Scope]*nameScope
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ids:   make(map[Scope]*idScope),
		names: make(map[Scope]*nameScope),
	}
}

func (r *Registry) idScopeFor(scope Scope) *idScope {
	s, ok := r.ids[scope]
	if !ok {
		s = &idScope{used: make(map[int]bool)}
		r.ids[scope] = s
	}
	return s
}

func (r *Registry) nameScopeFor(scope Scope) *nameScope {
	s, ok := r.names[scope]
	if !ok {
		s = &nameScope{used: make(map[string]bool)}
		r.names[scope] = s
	}
	return s
}

// ReserveID consumes an explicitly requested ID. fromKey records whether the
// request came from an array key, which uniqueness errors report so the
// offending input is locatable.
func (r *Registry) ReserveID(scope Scope, id int, fromKey bool) error {
	if id <= 0 {
		return structErrf("ID %d is not a positive integer", id)
	}
	s := r.idScopeFor(scope)
	if wasKey, taken := s.used[id]; taken {
		msg := "ID " + strconv.Itoa(id) + " already seen before"
		if wasKey && !fromKey {
			msg += " (in array key)"
		}
		return &StructureError{Message: msg}
	}
	s.used[id] = fromKey
	if id > s.max {
		s.max = id
	}
	return nil
}

// AutoID issues the next free ID in the scope: one more than the highest
// consumed so far, starting at 1.
func (r *Registry) AutoID(scope Scope) int {
	s := r.idScopeFor(scope)
	id := s.max + 1
	s.used[id] = false
	s.max = id
	return id
}

// ReserveName consumes an explicitly requested name after validating it is
// non-empty, legal and unused in the scope.
func (r *Registry) ReserveName(scope Scope, name string, fromKey bool) error {
	if name == "" {
		return structErrf("Name is empty")
	}
	if !IsLegalName(name) {
		return structErrf("Name %q is not a legal name", name)
	}
	s := r.nameScopeFor(scope)
	if wasKey, taken := s.used[name]; taken {
		msg := "Name " + strconv.Quote(name) + " already seen before"
		if wasKey && !fromKey {
			msg += " (in array key)"
		}
		return &StructureError{Message: msg}
	}
	s.used[name] = fromKey
	return nil
}

// AutoName synthesizes prefix+id. When the synthesized name is already
// consumed in the scope, separators are inserted before the numeric suffix
// until the result is unique.
func (r *Registry) AutoName(scope Scope, prefix string, id int) string {
	s := r.nameScopeFor(scope)
	suffix := strconv.Itoa(id)
	var name string
	for sep := ""; ; sep += "_" {
		name = prefix + sep + suffix
		if _, taken := s.used[name]; !taken {
			break
		}
	}
	s.used[name] = false
	return name
}

// HasID reports whether an ID is consumed in the scope.
func (r *Registry) HasID(scope Scope, id int) bool {
	s, ok := r.ids[scope]
	if !ok {
		return false
	}
	_, taken := s.used[id]
	return taken
}

// HasName reports whether a name is consumed in the scope.
func (r *Registry) HasName(scope Scope, name string) bool {
	s, ok := r.names[scope]
	if !ok {
		return false
	}
	_, taken := s.used[name]
	return taken
}
