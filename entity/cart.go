package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OwnerGuest is the sentinel owner key for a cart that has not been
// claimed by an authenticated user yet.
const OwnerGuest = "guest"

type CartItem struct {
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	ProductPrice decimal.Decimal `json:"productPrice"`
	ProductImage string          `json:"productImage"`
	Quantity     int             `json:"quantity"`
}

// Cart holds at most one CartItem per ProductID. Item order is stable:
// existing items keep their position, new items are appended.
type Cart struct {
	OwnerKey  string     `json:"ownerKey"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func NewCart(ownerKey string) Cart {
	now := time.Now()
	return Cart{OwnerKey: ownerKey, Items: []CartItem{}, CreatedAt: now, UpdatedAt: now}
}
