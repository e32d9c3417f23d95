package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_LookupKnownAndUnknownTypes(t *testing.T) {
	r := NewRegistry()

	entry, ok := r.Lookup(EntityAccount)
	assert.True(t, ok)
	assert.Equal(t, EntityAccount, entry.EntityType)
	assert.True(t, entry.SoftDeletable)
	assert.NotNil(t, entry.RecalcHook)

	_, ok = r.Lookup("not_a_type")
	assert.False(t, ok)
}

func TestRegistry_ContainsMirrorsLookup(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Contains(EntityWallet))
	assert.False(t, r.Contains("bogus"))
}

func TestRegistry_CategoryHasNoRecalcHook(t *testing.T) {
	r := NewRegistry()

	entry, ok := r.Lookup(EntityCategory)
	assert.True(t, ok)
	assert.Nil(t, entry.RecalcHook, "categories don't drive any derived aggregate")
}

func TestRegistry_EveryEntryIsSoftDeletable(t *testing.T) {
	r := NewRegistry()

	for _, et := range []string{EntityWallet, EntityAccount, EntityTxn, EntityBudget, EntityGoal, EntityDebt, EntityBucket, EntityCategory} {
		entry, ok := r.Lookup(et)
		assert.True(t, ok, et)
		assert.True(t, entry.SoftDeletable, et)
	}
}
