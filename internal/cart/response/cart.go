package response

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/calegray/storefront/entity"
	"github.com/calegray/storefront/internal/cart/reconcile"
)

type Cart struct {
	OwnerKey  string            `json:"ownerKey"`
	Items     []entity.CartItem `json:"items"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// FromEntity maps a cart to its response shape; the subtotal is always
// recomputed from the items.
func FromEntity(cart entity.Cart) Cart {
	items := cart.Items
	if items == nil {
		items = []entity.CartItem{}
	}
	return Cart{
		OwnerKey:  cart.OwnerKey,
		Items:     items,
		Subtotal:  reconcile.Subtotal(cart),
		UpdatedAt: cart.UpdatedAt,
	}
}
