package admins

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devscope/internal/models"
	"devscope/internal/store"
)

type failingStore struct {
	store.Store
}

func (failingStore) Put(context.Context, string, string, models.JSONMap) error {
	return errors.New("store offline")
}

func (failingStore) Delete(context.Context, string, string) error {
	return errors.New("store offline")
}

func fixedClock(d *Directory, t time.Time) {
	d.now = func() time.Time { return t }
}

func TestParseListType(t *testing.T) {
	for _, name := range []string{"primary_admins", "primary", " PRIMARY "} {
		l, err := ParseListType(name)
		require.NoError(t, err, name)
		assert.Equal(t, Primary, l)
	}
	for _, name := range []string{"secondary_admins", "secondary"} {
		l, err := ParseListType(name)
		require.NoError(t, err, name)
		assert.Equal(t, Secondary, l)
	}

	_, err := ParseListType("tertiary")
	assert.ErrorIs(t, err, ErrUnknownList)
}

func TestDirectory_AddAndLookup(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	d := NewDirectory(mem)

	entry := d.Add(ctx, Primary, NewEntry{Address: "  DevGuy ", Amount: 0.5, Fees: 10, MevProtection: true})
	assert.Equal(t, "DevGuy", entry.Address)
	assert.NotEmpty(t, entry.ID)

	found := d.Lookup(Primary, "devguy")
	require.NotNil(t, found)
	assert.Equal(t, entry.ID, found.ID)
	assert.Nil(t, d.Lookup(Secondary, "devguy"))
	assert.Nil(t, d.Lookup(Primary, "  "))

	doc, err := mem.Get(ctx, store.CollectionPrimaryAdmins, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "DevGuy", doc.Value["address"])
}

func TestDirectory_UsernameFallback(t *testing.T) {
	d := NewDirectory(store.NewMemoryStore())
	entry := d.Add(context.Background(), Secondary, NewEntry{Username: "someone", Amount: 1, Fees: 5})
	assert.Equal(t, "someone", entry.Address)

	blank := d.Add(context.Background(), Secondary, NewEntry{Address: "   ", Username: " bob ", Amount: 1, Fees: 5})
	assert.Equal(t, "bob", blank.Address)
	require.NotNil(t, d.Lookup(Secondary, "bob"))
}

func TestDirectory_IDsStrictlyIncrease(t *testing.T) {
	d := NewDirectory(store.NewMemoryStore())
	fixedClock(d, time.UnixMilli(1700000000000))

	a := d.Add(context.Background(), Primary, NewEntry{Address: "a"})
	b := d.Add(context.Background(), Primary, NewEntry{Address: "b"})
	assert.Equal(t, "1700000000000", a.ID)
	assert.Equal(t, "1700000000001", b.ID)
}

func TestDirectory_FirstMatchWins(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(store.NewMemoryStore())

	first := d.Add(ctx, Primary, NewEntry{Address: "dup", Amount: 1})
	d.Add(ctx, Primary, NewEntry{Address: "DUP", Amount: 2})

	assert.Len(t, d.All(Primary), 2)
	found := d.Lookup(Primary, "Dup")
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
}

func TestDirectory_Remove(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	d := NewDirectory(mem)

	a := d.Add(ctx, Primary, NewEntry{Address: "a"})
	b := d.Add(ctx, Primary, NewEntry{Address: "b"})

	assert.True(t, d.Remove(ctx, Primary, a.ID))
	assert.False(t, d.Remove(ctx, Primary, a.ID))
	assert.False(t, d.Remove(ctx, Secondary, b.ID))

	all := d.All(Primary)
	require.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].ID)

	_, err := mem.Get(ctx, store.CollectionPrimaryAdmins, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDirectory_StoreFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(failingStore{Store: store.NewMemoryStore()})

	entry := d.Add(ctx, Primary, NewEntry{Address: "kept"})
	assert.NotNil(t, d.Lookup(Primary, "kept"))

	assert.True(t, d.Remove(ctx, Primary, entry.ID))
	assert.Nil(t, d.Lookup(Primary, "kept"))
}

func TestDirectory_LoadNewestFirst(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()

	writer := NewDirectory(mem)
	base := time.UnixMilli(1700000000000)
	fixedClock(writer, base)
	writer.Add(ctx, Primary, NewEntry{Address: "old"})
	fixedClock(writer, base.Add(time.Second))
	writer.Add(ctx, Primary, NewEntry{Address: "new"})
	writer.Add(ctx, Secondary, NewEntry{Address: "sec"})

	d := NewDirectory(mem)
	assert.False(t, d.Loaded())
	require.NoError(t, d.Load(ctx))

	stats := d.Stats()
	assert.True(t, stats.Loaded)
	assert.Equal(t, 2, stats.PrimaryAdmins)
	assert.Equal(t, 1, stats.SecondaryAdmins)
	assert.Equal(t, []string{"new", "old"}, d.Addresses(Primary))

	// ids continue after the loaded ones
	next := d.Add(ctx, Primary, NewEntry{Address: "next"})
	assert.Greater(t, next.ID, d.All(Primary)[0].ID)
}

func TestDirectory_ClearAndClean(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	d := NewDirectory(mem)

	d.Add(ctx, Secondary, NewEntry{Address: "x"})
	d.Add(ctx, Secondary, NewEntry{Address: "y"})

	n, err := d.Clear(ctx, Secondary)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, d.All(Secondary))

	d.mu.Lock()
	d.lists[Primary] = []models.AdminEntry{{ID: "1", Address: " padded "}, {ID: "2", Address: "clean"}}
	d.mu.Unlock()

	assert.Equal(t, 1, d.Clean(ctx))
	assert.Equal(t, []string{"padded", "clean"}, d.Addresses(Primary))

	doc, err := mem.Get(ctx, store.CollectionPrimaryAdmins, "1")
	require.NoError(t, err)
	assert.Equal(t, "padded", doc.Value["address"])
}
