package service

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calegray/storefront/internal/catalog/request"
	"github.com/calegray/storefront/internal/docstore"
	inErrors "github.com/calegray/storefront/internal/errors"
)

func newService() CatalogService {
	return NewCatalogService(docstore.NewMemoryStore(), nil)
}

func fakeCreateProduct() request.CreateProduct {
	return request.CreateProduct{
		Name:        gofakeit.ProductName(),
		Brand:       gofakeit.Company(),
		Price:       decimal.NewFromInt(int64(gofakeit.Number(1, 500))),
		Description: gofakeit.ProductDescription(),
		Sku:         gofakeit.UUID(),
		Category:    gofakeit.ProductCategory(),
		SubCategory: gofakeit.ProductCategory(),
		SizeOptions: []string{"S", "M", "L"},
		IsVisible:   true,
	}
}

func TestInsertProductAssignsID(t *testing.T) {
	svc := newService()
	c := context.Background()

	product, err := svc.InsertProduct(c, fakeCreateProduct())
	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.False(t, product.CreatedAt.IsZero())

	found, err := svc.FindProductByID(c, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.Name, found.Name)
}

func TestFindProductByIDAbsentReturnsNotFound(t *testing.T) {
	svc := newService()

	_, err := svc.FindProductByID(context.Background(), "missing")
	assert.ErrorIs(t, err, inErrors.ErrProductNotFound)
}

func TestFindProductsReturnsAllInserted(t *testing.T) {
	svc := newService()
	c := context.Background()

	for range 3 {
		_, err := svc.InsertProduct(c, fakeCreateProduct())
		require.NoError(t, err)
	}

	products, err := svc.FindProducts(c)
	require.NoError(t, err)
	assert.Len(t, products, 3)
}

func TestUpdateProductMergesOnlySetFields(t *testing.T) {
	svc := newService()
	c := context.Background()

	product, err := svc.InsertProduct(c, fakeCreateProduct())
	require.NoError(t, err)

	name := "renamed"
	onSale := true
	updated, err := svc.UpdateProduct(c, product.ID, request.UpdateProduct{
		Name:   &name,
		OnSale: &onSale,
	})
	require.NoError(t, err)

	assert.Equal(t, "renamed", updated.Name)
	assert.True(t, updated.OnSale)
	assert.Equal(t, product.Brand, updated.Brand, "unset fields stay untouched")
	assert.True(t, product.Price.Equal(updated.Price))
	assert.True(t, updated.UpdatedAt.After(product.UpdatedAt) || updated.UpdatedAt.Equal(product.UpdatedAt))
}

func TestUpdateProductAbsentReturnsNotFound(t *testing.T) {
	svc := newService()

	name := "renamed"
	_, err := svc.UpdateProduct(context.Background(), "missing", request.UpdateProduct{Name: &name})
	assert.ErrorIs(t, err, inErrors.ErrProductNotFound)
}

func TestDeleteProductRemovesIt(t *testing.T) {
	svc := newService()
	c := context.Background()

	product, err := svc.InsertProduct(c, fakeCreateProduct())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(c, product.ID))
	_, err = svc.FindProductByID(c, product.ID)
	assert.ErrorIs(t, err, inErrors.ErrProductNotFound)
}

func TestDeleteProductAbsentIsNoop(t *testing.T) {
	svc := newService()
	assert.NoError(t, svc.DeleteProduct(context.Background(), "missing"))
}
