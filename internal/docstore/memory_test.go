package docstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetAbsentReturnsNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), CollectionCarts, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSetThenGet(t *testing.T) {
	store := NewMemoryStore()
	c := context.Background()

	err := store.Set(c, CollectionProducts, "p1", map[string]any{"name": "boots", "price": "10"})
	require.NoError(t, err)

	raw, err := store.Get(c, CollectionProducts, "p1")
	require.NoError(t, err)

	doc := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "boots", doc["name"])
	assert.Equal(t, "10", doc["price"])
}

func TestMemoryStoreSetOverwritesWholeDocument(t *testing.T) {
	store := NewMemoryStore()
	c := context.Background()

	require.NoError(t, store.Set(c, CollectionUsers, "u1", map[string]any{"username": "ann", "role": "client"}))
	require.NoError(t, store.Set(c, CollectionUsers, "u1", map[string]any{"username": "ann"}))

	raw, err := store.Get(c, CollectionUsers, "u1")
	require.NoError(t, err)

	doc := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.NotContains(t, doc, "role")
}

func TestMemoryStoreUpdateMergesTopLevelFields(t *testing.T) {
	store := NewMemoryStore()
	c := context.Background()

	require.NoError(t, store.Set(c, CollectionUsers, "u1", map[string]any{"username": "ann", "role": "client"}))
	require.NoError(t, store.Update(c, CollectionUsers, "u1", map[string]any{"username": "anna"}))

	raw, err := store.Get(c, CollectionUsers, "u1")
	require.NoError(t, err)

	doc := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "anna", doc["username"])
	assert.Equal(t, "client", doc["role"])
}

func TestMemoryStoreUpdateAbsentReturnsNotFound(t *testing.T) {
	store := NewMemoryStore()

	err := store.Update(context.Background(), CollectionUsers, "missing", map[string]any{"username": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDeleteIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	c := context.Background()

	require.NoError(t, store.Set(c, CollectionGuestCarts, "g1", map[string]any{"items": []any{}}))
	require.NoError(t, store.Delete(c, CollectionGuestCarts, "g1"))
	require.NoError(t, store.Delete(c, CollectionGuestCarts, "g1"))

	_, err := store.Get(c, CollectionGuestCarts, "g1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreAllReturnsEveryDocumentInCollection(t *testing.T) {
	store := NewMemoryStore()
	c := context.Background()

	require.NoError(t, store.Set(c, CollectionProducts, "p1", map[string]any{"name": "boots"}))
	require.NoError(t, store.Set(c, CollectionProducts, "p2", map[string]any{"name": "coat"}))
	require.NoError(t, store.Set(c, CollectionOrders, "o1", map[string]any{"status": "Pending"}))

	docs, err := store.All(c, CollectionProducts)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	c := context.Background()

	require.NoError(t, store.Set(c, CollectionProducts, "p1", map[string]any{"name": "boots"}))

	raw, err := store.Get(c, CollectionProducts, "p1")
	require.NoError(t, err)
	for i := range raw {
		raw[i] = 'x'
	}

	again, err := store.Get(c, CollectionProducts, "p1")
	require.NoError(t, err)

	doc := map[string]any{}
	require.NoError(t, json.Unmarshal(again, &doc))
	assert.Equal(t, "boots", doc["name"])
}
