package request

import "github.com/shopspring/decimal"

type AddCartItem struct {
	ProductID    string          `validate:"required"       json:"productId"`
	ProductName  string          `validate:"required"       json:"productName"`
	ProductPrice decimal.Decimal `validate:"required"       json:"productPrice"`
	ProductImage string          `                          json:"productImage"`
	Quantity     int             `validate:"required,gte=1" json:"quantity"`
}

type UpdateQuantity struct {
	Quantity int `validate:"required,gte=1" json:"quantity"`
}
