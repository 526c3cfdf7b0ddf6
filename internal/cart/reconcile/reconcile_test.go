package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calegray/storefront/entity"
	inErrors "github.com/calegray/storefront/internal/errors"
)

func item(productID string, price int64, quantity int) entity.CartItem {
	return entity.CartItem{
		ProductID:    productID,
		ProductName:  "product " + productID,
		ProductPrice: decimal.NewFromInt(price),
		Quantity:     quantity,
	}
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name     string
		cart     entity.Cart
		item     entity.CartItem
		expected []entity.CartItem
	}{
		{
			name:     "given empty cart should append item",
			cart:     entity.Cart{OwnerKey: entity.OwnerGuest},
			item:     item("p2", 5, 1),
			expected: []entity.CartItem{item("p2", 5, 1)},
		},
		{
			name:     "given existing product id should sum quantities",
			cart:     entity.Cart{Items: []entity.CartItem{item("p1", 10, 2)}},
			item:     item("p1", 10, 3),
			expected: []entity.CartItem{item("p1", 10, 5)},
		},
		{
			name:     "given new product id should append and keep existing entries",
			cart:     entity.Cart{Items: []entity.CartItem{item("p1", 10, 2)}},
			item:     item("p2", 5, 1),
			expected: []entity.CartItem{item("p1", 10, 2), item("p2", 5, 1)},
		},
		{
			name:     "given quantity below one should not mutate cart",
			cart:     entity.Cart{Items: []entity.CartItem{item("p1", 10, 2)}},
			item:     item("p1", 10, 0),
			expected: []entity.CartItem{item("p1", 10, 2)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Add(tt.cart, tt.item)
			assert.Equal(t, tt.expected, got.Items)
		})
	}
}

func TestAddIsCommutativeInTotalQuantity(t *testing.T) {
	cart := entity.Cart{OwnerKey: "u1"}

	split := Add(Add(cart, item("p1", 10, 2)), item("p1", 10, 3))
	once := Add(cart, item("p1", 10, 5))

	require.Len(t, split.Items, 1)
	require.Len(t, once.Items, 1)
	assert.Equal(t, once.Items[0].Quantity, split.Items[0].Quantity)
}

func TestAddDoesNotMutateInput(t *testing.T) {
	cart := entity.Cart{Items: []entity.CartItem{item("p1", 10, 2)}}

	_ = Add(cart, item("p1", 10, 3))

	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestRemove(t *testing.T) {
	cart := entity.Cart{Items: []entity.CartItem{item("p1", 10, 2), item("p2", 5, 1)}}

	got := Remove(cart, "p1")
	assert.Equal(t, []entity.CartItem{item("p2", 5, 1)}, got.Items)

	got = Remove(got, "p1")
	assert.Equal(t, []entity.CartItem{item("p2", 5, 1)}, got.Items, "second remove is a no-op")
}

func TestRemoveAbsentIdIsNoop(t *testing.T) {
	cart := entity.Cart{Items: []entity.CartItem{item("p1", 10, 2)}}

	got := Remove(cart, "p9")

	assert.Equal(t, cart.Items, got.Items)
}

func TestSetQuantity(t *testing.T) {
	tests := []struct {
		name        string
		cart        entity.Cart
		productID   string
		quantity    int
		expected    []entity.CartItem
		expectedErr error
	}{
		{
			name:      "given existing product id should overwrite quantity",
			cart:      entity.Cart{Items: []entity.CartItem{item("p1", 10, 2)}},
			productID: "p1",
			quantity:  7,
			expected:  []entity.CartItem{item("p1", 10, 7)},
		},
		{
			name:      "given quantity below one should not mutate cart",
			cart:      entity.Cart{Items: []entity.CartItem{item("p1", 10, 2)}},
			productID: "p1",
			quantity:  0,
			expected:  []entity.CartItem{item("p1", 10, 2)},
		},
		{
			name:        "given absent product id should return not found",
			cart:        entity.Cart{Items: []entity.CartItem{item("p1", 10, 2)}},
			productID:   "p9",
			quantity:    3,
			expected:    []entity.CartItem{item("p1", 10, 2)},
			expectedErr: inErrors.ErrCartItemNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SetQuantity(tt.cart, tt.productID, tt.quantity)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, got.Items)
		})
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		guest    entity.Cart
		user     entity.Cart
		expected []entity.CartItem
	}{
		{
			name:     "given empty guest cart should return user cart unchanged",
			guest:    entity.Cart{OwnerKey: entity.OwnerGuest},
			user:     entity.Cart{OwnerKey: "u1", Items: []entity.CartItem{item("p1", 10, 1)}},
			expected: []entity.CartItem{item("p1", 10, 1)},
		},
		{
			name:     "given shared product id should sum quantities",
			guest:    entity.Cart{OwnerKey: entity.OwnerGuest, Items: []entity.CartItem{item("p1", 10, 2)}},
			user:     entity.Cart{OwnerKey: "u1", Items: []entity.CartItem{item("p1", 10, 1)}},
			expected: []entity.CartItem{item("p1", 10, 3)},
		},
		{
			name:  "given disjoint items should union them with user items first",
			guest: entity.Cart{Items: []entity.CartItem{item("p3", 2, 4), item("p2", 5, 1)}},
			user:  entity.Cart{OwnerKey: "u1", Items: []entity.CartItem{item("p1", 10, 1)}},
			expected: []entity.CartItem{
				item("p1", 10, 1),
				item("p3", 2, 4),
				item("p2", 5, 1),
			},
		},
		{
			name:     "given empty user cart should adopt guest items",
			guest:    entity.Cart{Items: []entity.CartItem{item("p2", 5, 1)}},
			user:     entity.Cart{OwnerKey: "u1"},
			expected: []entity.CartItem{item("p2", 5, 1)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.guest, tt.user)
			assert.Equal(t, tt.expected, got.Items)
			assert.Equal(t, tt.user.OwnerKey, got.OwnerKey)
		})
	}
}

func TestMergeTwiceDoubleCounts(t *testing.T) {
	guest := entity.Cart{Items: []entity.CartItem{item("p1", 10, 2)}}
	user := entity.Cart{OwnerKey: "u1", Items: []entity.CartItem{item("p1", 10, 1)}}

	once := Merge(guest, user)
	twice := Merge(guest, once)

	assert.Equal(t, 3, once.Items[0].Quantity)
	assert.Equal(t, 5, twice.Items[0].Quantity, "running merge twice double-counts, hence delete-after-merge")
}

func TestMergeScenarioSumsSharedProductAndSubtotal(t *testing.T) {
	guest := entity.Cart{OwnerKey: entity.OwnerGuest, Items: []entity.CartItem{item("p1", 10, 2)}}
	user := entity.Cart{OwnerKey: "u1", Items: []entity.CartItem{item("p1", 10, 1)}}

	merged := Merge(guest, user)

	require.Len(t, merged.Items, 1)
	assert.Equal(t, 3, merged.Items[0].Quantity)
	assert.True(t, Subtotal(merged).Equal(decimal.NewFromInt(30)))
}

func TestSubtotal(t *testing.T) {
	tests := []struct {
		name     string
		cart     entity.Cart
		expected decimal.Decimal
	}{
		{
			name:     "given empty cart should return zero",
			cart:     entity.Cart{},
			expected: decimal.Zero,
		},
		{
			name:     "given single item should return price times quantity",
			cart:     entity.Cart{Items: []entity.CartItem{item("p2", 5, 1)}},
			expected: decimal.NewFromInt(5),
		},
		{
			name: "given multiple items should sum price times quantity",
			cart: entity.Cart{Items: []entity.CartItem{
				item("p1", 10, 2),
				item("p2", 5, 3),
			}},
			expected: decimal.NewFromInt(35),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(Subtotal(tt.cart)))
		})
	}
}

func TestSubtotalFractionalPrices(t *testing.T) {
	cart := entity.Cart{Items: []entity.CartItem{
		{ProductID: "p1", ProductPrice: decimal.RequireFromString("19.99"), Quantity: 3},
	}}

	assert.Equal(t, "59.97", Subtotal(cart).StringFixed(2))
}
