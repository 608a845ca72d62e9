package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopcore/shopcore/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	entries map[int64]models.CatalogEntry
	err     error
}

func (f *fakeCatalog) Lookup(_ context.Context, ids []int64) (map[int64]models.CatalogEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	found := make(map[int64]models.CatalogEntry)
	for _, id := range ids {
		if e, ok := f.entries[id]; ok {
			found[id] = e
		}
	}
	return found, nil
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// setupTestStore creates a miniredis server and a Store over it
func setupTestStore(t *testing.T, catalog *fakeCatalog) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewStore(client, catalog, 24*time.Hour), mr
}

func TestAdd_AccumulatesQuantity(t *testing.T) {
	store, _ := setupTestStore(t, &fakeCatalog{})
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "u1", 1, 2))
	require.NoError(t, store.Add(ctx, "u1", 1, 3))

	quantities, err := store.Quantities(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{1: 5}, quantities)
}

func TestAdd_RejectsNonPositiveQuantity(t *testing.T) {
	store, _ := setupTestStore(t, &fakeCatalog{})

	assert.Error(t, store.Add(context.Background(), "u1", 1, 0))
	assert.Error(t, store.Add(context.Background(), "u1", 1, -2))
}

func TestAdd_RefreshesTTL(t *testing.T) {
	store, mr := setupTestStore(t, &fakeCatalog{})
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "u1", 1, 1))
	assert.Equal(t, 24*time.Hour, mr.TTL(cartKey("u1")))

	mr.FastForward(12 * time.Hour)
	require.NoError(t, store.Add(ctx, "u1", 2, 1))
	assert.Equal(t, 24*time.Hour, mr.TTL(cartKey("u1")))
}

func TestSetQuantity_Overwrite(t *testing.T) {
	store, _ := setupTestStore(t, &fakeCatalog{})
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "u1", 1, 2))
	require.NoError(t, store.SetQuantity(ctx, "u1", 1, 7))

	quantities, err := store.Quantities(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{1: 7}, quantities)
}

func TestSetQuantity_ZeroRemoves(t *testing.T) {
	store, _ := setupTestStore(t, &fakeCatalog{})
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "u1", 1, 2))
	require.NoError(t, store.SetQuantity(ctx, "u1", 1, 0))

	quantities, err := store.Quantities(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, quantities)
}

func TestRemove_AbsentProductIsNotAnError(t *testing.T) {
	store, _ := setupTestStore(t, &fakeCatalog{})

	assert.NoError(t, store.Remove(context.Background(), "u1", 42))
}

func TestSnapshot_AddThenRemoveIsEmpty(t *testing.T) {
	catalog := &fakeCatalog{entries: map[int64]models.CatalogEntry{
		1: {ID: 1, Name: "Widget", Price: price("10.00")},
	}}
	store, _ := setupTestStore(t, catalog)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "u1", 1, 2))
	require.NoError(t, store.Remove(ctx, "u1", 1))

	snap, err := store.Snapshot(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, snap.Lines)
	assert.True(t, snap.Total.IsZero())
}

func TestSnapshot_PricesAndTotals(t *testing.T) {
	catalog := &fakeCatalog{entries: map[int64]models.CatalogEntry{
		1: {ID: 1, Name: "Widget", Price: price("10.00")},
		2: {ID: 2, Name: "Gadget", Price: price("15.00")},
	}}
	store, _ := setupTestStore(t, catalog)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "u1", 1, 2))
	require.NoError(t, store.Add(ctx, "u1", 2, 1))

	snap, err := store.Snapshot(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, snap.Lines, 2)
	assert.Equal(t, int64(1), snap.Lines[0].ProductID)
	assert.True(t, snap.Lines[0].LineTotal.Equal(price("20.00")),
		"line total was %s", snap.Lines[0].LineTotal)
	assert.True(t, snap.Total.Equal(price("35.00")), "total was %s", snap.Total)
	assert.Equal(t, 2, snap.ItemCount)
}

func TestSnapshot_DropsVanishedProducts(t *testing.T) {
	catalog := &fakeCatalog{entries: map[int64]models.CatalogEntry{
		1: {ID: 1, Name: "Widget", Price: price("10.00")},
	}}
	store, _ := setupTestStore(t, catalog)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "u1", 1, 1))
	require.NoError(t, store.Add(ctx, "u1", 99, 4)) // no longer in the catalog

	snap, err := store.Snapshot(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, int64(1), snap.Lines[0].ProductID)
	assert.True(t, snap.Total.Equal(price("10.00")))
}

func TestClear(t *testing.T) {
	store, mr := setupTestStore(t, &fakeCatalog{})
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "u1", 1, 1))
	require.NoError(t, store.Clear(ctx, "u1"))

	assert.False(t, mr.Exists(cartKey("u1")))
}

func TestTimeToLive(t *testing.T) {
	store, mr := setupTestStore(t, &fakeCatalog{})
	ctx := context.Background()

	_, ok, err := store.TimeToLive(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok, "no cart yet")

	require.NoError(t, store.Add(ctx, "u1", 1, 1))
	ttl, ok, err := store.TimeToLive(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 24*time.Hour, ttl)

	mr.FastForward(25 * time.Hour)
	_, ok, err = store.TimeToLive(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok, "cart expired")
}
