package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Brand        string          `json:"brand"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	Sku          string          `json:"sku"`
	Category     string          `json:"category"`
	SubCategory  string          `json:"subCategory"`
	SizeOptions  []string        `json:"sizeOptions"`
	IsReturnable bool            `json:"isReturnable"`
	IsVisible    bool            `json:"isVisible"`
	OnSale       bool            `json:"onSale"`
	Images       []string        `json:"images"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
