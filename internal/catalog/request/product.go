package request

import "github.com/shopspring/decimal"

type CreateProduct struct {
	Name         string          `validate:"required"       json:"name"`
	Brand        string          `validate:"required"       json:"brand"`
	Price        decimal.Decimal `validate:"required"       json:"price"`
	Description  string          `                          json:"description"`
	Sku          string          `validate:"required"       json:"sku"`
	Category     string          `validate:"required"       json:"category"`
	SubCategory  string          `validate:"required"       json:"subCategory"`
	SizeOptions  []string        `validate:"required,min=1" json:"sizeOptions"`
	IsReturnable bool            `                          json:"isReturnable"`
	IsVisible    bool            `                          json:"isVisible"`
	OnSale       bool            `                          json:"onSale"`
	Images       []string        `                          json:"images"`
}

// UpdateProduct carries a partial edit; nil fields are left untouched.
type UpdateProduct struct {
	Name         *string          `json:"name"`
	Brand        *string          `json:"brand"`
	Price        *decimal.Decimal `json:"price"`
	Description  *string          `json:"description"`
	Sku          *string          `json:"sku"`
	Category     *string          `json:"category"`
	SubCategory  *string          `json:"subCategory"`
	SizeOptions  *[]string        `json:"sizeOptions"`
	IsReturnable *bool            `json:"isReturnable"`
	IsVisible    *bool            `json:"isVisible"`
	OnSale       *bool            `json:"onSale"`
	Images       *[]string        `json:"images"`
}

// Fields flattens the set fields into the top-level merge the document
// store applies.
func (r UpdateProduct) Fields() map[string]any {
	fields := map[string]any{}
	if r.Name != nil {
		fields["name"] = *r.Name
	}
	if r.Brand != nil {
		fields["brand"] = *r.Brand
	}
	if r.Price != nil {
		fields["price"] = *r.Price
	}
	if r.Description != nil {
		fields["description"] = *r.Description
	}
	if r.Sku != nil {
		fields["sku"] = *r.Sku
	}
	if r.Category != nil {
		fields["category"] = *r.Category
	}
	if r.SubCategory != nil {
		fields["subCategory"] = *r.SubCategory
	}
	if r.SizeOptions != nil {
		fields["sizeOptions"] = *r.SizeOptions
	}
	if r.IsReturnable != nil {
		fields["isReturnable"] = *r.IsReturnable
	}
	if r.IsVisible != nil {
		fields["isVisible"] = *r.IsVisible
	}
	if r.OnSale != nil {
		fields["onSale"] = *r.OnSale
	}
	if r.Images != nil {
		fields["images"] = *r.Images
	}
	return fields
}
