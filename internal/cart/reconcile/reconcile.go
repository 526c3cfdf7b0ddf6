// Package reconcile holds the cart reconciliation rules: how items are
// added, removed and requantified, how a guest cart folds into a
// durable cart at sign-in, and how the subtotal is derived. All
// functions are pure; callers persist the returned cart themselves.
package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/calegray/storefront/entity"
	inErrors "github.com/calegray/storefront/internal/errors"
)

func clone(cart entity.Cart) entity.Cart {
	out := cart
	out.Items = make([]entity.CartItem, len(cart.Items))
	copy(out.Items, cart.Items)
	return out
}

// Add increments the quantity of an existing entry with the same
// product id, or appends a new entry. It never removes entries. A
// quantity below 1 leaves the cart unchanged.
func Add(cart entity.Cart, item entity.CartItem) entity.Cart {
	out := clone(cart)
	if item.Quantity < 1 {
		return out
	}
	for i, existing := range out.Items {
		if existing.ProductID == item.ProductID {
			out.Items[i].Quantity += item.Quantity
			out.UpdatedAt = time.Now()
			return out
		}
	}
	out.Items = append(out.Items, item)
	out.UpdatedAt = time.Now()
	return out
}

// Remove filters out the entry with the given product id. Removing an
// absent id is a no-op, not an error.
func Remove(cart entity.Cart, productID string) entity.Cart {
	out := clone(cart)
	items := out.Items[:0]
	for _, item := range out.Items {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	out.Items = items
	out.UpdatedAt = time.Now()
	return out
}

// SetQuantity overwrites the quantity of the entry with the given
// product id. Quantities below 1 do not mutate the cart; an absent id
// fails with ErrCartItemNotFound.
func SetQuantity(cart entity.Cart, productID string, quantity int) (entity.Cart, error) {
	out := clone(cart)
	if quantity < 1 {
		return out, nil
	}
	for i, item := range out.Items {
		if item.ProductID == productID {
			out.Items[i].Quantity = quantity
			out.UpdatedAt = time.Now()
			return out, nil
		}
	}
	return out, inErrors.ErrCartItemNotFound
}

// Merge folds a guest cart into a user cart: quantities are summed for
// shared product ids, guest-only items are appended in guest order.
// Merge is pure and double-counts when run twice over the same guest
// cart, so the caller must delete the guest cart right after the merged
// result is persisted.
func Merge(guest entity.Cart, user entity.Cart) entity.Cart {
	out := clone(user)
	for _, item := range guest.Items {
		out = Add(out, item)
	}
	return out
}

// Subtotal is the fold Σ productPrice × quantity over the cart items,
// recomputed on demand and never stored as its own source of truth.
func Subtotal(cart entity.Cart) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range cart.Items {
		subtotal = subtotal.Add(item.ProductPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal
}
