package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoIDStartsAtOne(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 1, r.AutoID(DatabaseScope()))
	assert.Equal(t, 2, r.AutoID(DatabaseScope()))
}

func TestAutoIDFollowsHighestExplicit(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.ReserveID(DatabaseScope(), 25, true))
	assert.Equal(t, 26, r.AutoID(DatabaseScope()))
}

func TestAutoIDDeterministic(t *testing.T) {
	// The same explicit-ID set always yields the same auto-assignments.
	alloc := func() []int {
		r := NewRegistry()
		require.NoError(t, r.ReserveID(CollectionScope(), 3, false))
		require.NoError(t, r.ReserveID(CollectionScope(), 7, false))
		return []int{r.AutoID(CollectionScope()), r.AutoID(CollectionScope())}
	}
	assert.Equal(t, alloc(), alloc())
}

func TestReserveIDRejectsNonPositive(t *testing.T) {
	r := NewRegistry()
	err := r.ReserveID(DatabaseScope(), 0, false)
	require.Error(t, err)
	err = r.ReserveID(DatabaseScope(), -3, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a positive integer")
}

func TestReserveIDClash(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.ReserveID(DatabaseScope(), 5, true))

	err := r.ReserveID(DatabaseScope(), 5, false)
	require.Error(t, err)
	assert.Equal(t, "ID 5 already seen before (in array key)", err.Error())

	// The same ID is free in an unrelated scope.
	assert.NoError(t, r.ReserveID(CollectionScope(), 5, false))
}

func TestReserveIDClashPlainMessage(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.ReserveID(DatabaseScope(), 5, false))

	err := r.ReserveID(DatabaseScope(), 5, false)
	require.Error(t, err)
	assert.Equal(t, "ID 5 already seen before", err.Error())
}

func TestReserveNameValidation(t *testing.T) {
	r := NewRegistry()
	require.Error(t, r.ReserveName(DatabaseScope(), "", false))
	require.Error(t, r.ReserveName(DatabaseScope(), "_leading", false))
	require.Error(t, r.ReserveName(DatabaseScope(), "trailing ", false))
	require.NoError(t, r.ReserveName(DatabaseScope(), "My database-1", false))

	err := r.ReserveName(DatabaseScope(), "My database-1", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already seen before")
}

func TestAutoNameDisambiguation(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.ReserveName(DatabaseScope(), "Prefix35", false))

	assert.Equal(t, "Prefix_35", r.AutoName(DatabaseScope(), "Prefix", 35))
	// Each further collision inserts another separator.
	assert.Equal(t, "Prefix__35", r.AutoName(DatabaseScope(), "Prefix", 35))
}

func TestFieldScopesAreIndependentPerDatabase(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.ReserveID(FieldScope(1), 4, false))
	require.Error(t, r.ReserveID(FieldScope(1), 4, false))
	require.NoError(t, r.ReserveID(FieldScope(2), 4, false))

	require.NoError(t, r.ReserveName(FieldNameScope(1, 0), "Email", false))
	// Same name is fine in a collection's own scope.
	require.NoError(t, r.ReserveName(FieldNameScope(1, 9), "Email", false))
	require.Error(t, r.ReserveName(FieldNameScope(1, 9), "Email", false))
}

func TestRegistryLookups(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.ReserveID(CollectionScope(), 8, false))
	require.NoError(t, r.ReserveName(CollectionNameScope(2), "Orders", false))

	assert.True(t, r.HasID(CollectionScope(), 8))
	assert.False(t, r.HasID(CollectionScope(), 9))
	assert.True(t, r.HasName(CollectionNameScope(2), "Orders"))
	assert.False(t, r.HasName(CollectionNameScope(3), "Orders"))
}

func TestIsLegalName(t *testing.T) {
	assert.True(t, IsLegalName("A"))
	assert.True(t, IsLegalName("Test database 2"))
	assert.True(t, IsLegalName("a+b-c_d"))
	assert.False(t, IsLegalName(""))
	assert.False(t, IsLegalName(" padded"))
	assert.False(t, IsLegalName("bad!"))
	assert.False(t, IsLegalName("-lead"))
}
