package service

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/calegray/storefront/entity"
	"github.com/calegray/storefront/internal/cart/reconcile"
	"github.com/calegray/storefront/internal/docstore"
	inErrors "github.com/calegray/storefront/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newService() (CartService, *docstore.MemoryStore, *docstore.MemoryStore) {
	durable := docstore.NewMemoryStore()
	guests := docstore.NewMemoryStore()
	return NewCartService(durable, guests, nil), durable, guests
}

func fakeItem(productID string, price int64, quantity int) entity.CartItem {
	return entity.CartItem{
		ProductID:    productID,
		ProductName:  gofakeit.ProductName(),
		ProductPrice: decimal.NewFromInt(price),
		ProductImage: gofakeit.URL(),
		Quantity:     quantity,
	}
}

func TestFindCartCreatesEmptyCartOnFirstAccess(t *testing.T) {
	svc, durable, _ := newService()
	c := context.Background()

	cart, err := svc.FindCart(c, UserOwner("u1"))
	require.NoError(t, err)
	assert.Equal(t, "u1", cart.OwnerKey)
	assert.Empty(t, cart.Items)

	persisted := entity.Cart{}
	require.NoError(t, docstore.GetAs(c, durable, docstore.CollectionCarts, "u1", &persisted))
	assert.Equal(t, "u1", persisted.OwnerKey)
}

func TestAddItemToEmptyCart(t *testing.T) {
	svc, _, _ := newService()
	c := context.Background()

	cart, err := svc.AddItem(c, UserOwner("u1"), fakeItem("p2", 5, 1))
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.True(t, reconcile.Subtotal(cart).Equal(decimal.NewFromInt(5)))
}

func TestAddItemTwiceSumsQuantity(t *testing.T) {
	svc, _, _ := newService()
	c := context.Background()
	owner := GuestOwner("g1")

	_, err := svc.AddItem(c, owner, fakeItem("p1", 10, 2))
	require.NoError(t, err)
	cart, err := svc.AddItem(c, owner, fakeItem("p1", 10, 3))
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestSetQuantityAbsentProductReturnsNotFound(t *testing.T) {
	svc, _, _ := newService()
	c := context.Background()

	_, err := svc.SetQuantity(c, UserOwner("u1"), "p9", 3)
	assert.ErrorIs(t, err, inErrors.ErrCartItemNotFound)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	svc, _, _ := newService()
	c := context.Background()
	owner := UserOwner("u1")

	_, err := svc.AddItem(c, owner, fakeItem("p1", 10, 2))
	require.NoError(t, err)

	cart, err := svc.RemoveItem(c, owner, "p1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart, err = svc.RemoveItem(c, owner, "p1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestSyncGuestCartMergesAndDeletesGuestCopy(t *testing.T) {
	svc, _, guests := newService()
	c := context.Background()

	_, err := svc.AddItem(c, GuestOwner("g1"), fakeItem("p1", 10, 2))
	require.NoError(t, err)
	_, err = svc.AddItem(c, UserOwner("u1"), fakeItem("p1", 10, 1))
	require.NoError(t, err)

	merged, err := svc.SyncGuestCart(c, "g1", "u1")
	require.NoError(t, err)

	require.Len(t, merged.Items, 1)
	assert.Equal(t, 3, merged.Items[0].Quantity)
	assert.True(t, reconcile.Subtotal(merged).Equal(decimal.NewFromInt(30)))

	_, err = guests.Get(c, docstore.CollectionGuestCarts, "g1")
	assert.ErrorIs(t, err, docstore.ErrNotFound, "guest cart must be deleted after merge")
}

func TestSyncGuestCartTwiceDoesNotDoubleCount(t *testing.T) {
	svc, _, _ := newService()
	c := context.Background()

	_, err := svc.AddItem(c, GuestOwner("g1"), fakeItem("p1", 10, 2))
	require.NoError(t, err)

	first, err := svc.SyncGuestCart(c, "g1", "u1")
	require.NoError(t, err)
	second, err := svc.SyncGuestCart(c, "g1", "u1")
	require.NoError(t, err)

	assert.Equal(t, first.Items, second.Items, "replayed sync finds no guest cart and is a no-op")
}

func TestSyncGuestCartWithEmptyGuestReturnsUserCartUnchanged(t *testing.T) {
	svc, _, _ := newService()
	c := context.Background()

	_, err := svc.AddItem(c, UserOwner("u1"), fakeItem("p1", 10, 1))
	require.NoError(t, err)

	merged, err := svc.SyncGuestCart(c, "missing-guest", "u1")
	require.NoError(t, err)

	require.Len(t, merged.Items, 1)
	assert.Equal(t, 1, merged.Items[0].Quantity)
}

func TestGuestAndUserCartsAreIsolated(t *testing.T) {
	svc, _, _ := newService()
	c := context.Background()

	_, err := svc.AddItem(c, GuestOwner("g1"), fakeItem("p1", 10, 1))
	require.NoError(t, err)

	userCart, err := svc.FindCart(c, UserOwner("g1"))
	require.NoError(t, err)
	assert.Empty(t, userCart.Items, "a user cart never reads through to the guest store")
}

func TestClearRemovesCart(t *testing.T) {
	svc, durable, _ := newService()
	c := context.Background()
	owner := UserOwner("u1")

	_, err := svc.AddItem(c, owner, fakeItem("p1", 10, 1))
	require.NoError(t, err)
	require.NoError(t, svc.Clear(c, owner))

	_, err = durable.Get(c, docstore.CollectionCarts, "u1")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	cart, err := svc.FindCart(c, owner)
	require.NoError(t, err)
	assert.Empty(t, cart.Items, "cleared cart comes back empty on next access")
}
