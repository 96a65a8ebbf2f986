package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TARS911/dongfeng-minitraktor-sub001/entities"
	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
)

func TestProductAdminLifecycle(t *testing.T) {
	products := newFakeProductRepo()
	svc := NewProductService(products, newFakeCategoryRepo(models.Category_db{Id: 3, Name: "Минитракторы", Slug: "minitractors"}))
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, entities.ProductRequest{
		Name:         "DONGFENG DF-244",
		Slug:         "df-244",
		Price:        price("450000"),
		CategorySlug: "minitractors",
	})
	require.NoError(t, err)
	require.NotNil(t, created.CategoryId)
	assert.Equal(t, 3, *created.CategoryId)
	assert.True(t, created.InStock)

	_, err = svc.CreateProduct(ctx, entities.ProductRequest{Name: "Дубль", Slug: "df-244", Price: price("1")})
	assert.ErrorIs(t, err, models.ErrConflict)

	updated, err := svc.UpdateProduct(ctx, created.Id, entities.ProductRequest{
		Name:     "DONGFENG DF-244 4WD",
		Slug:     "df-244-4wd",
		Price:    price("470000"),
		OldPrice: price("490000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "df-244-4wd", updated.Slug)
	assert.Nil(t, updated.CategoryId, "update replaces every field")
	require.NotNil(t, updated.OldPrice)
	assert.Equal(t, "490000", updated.OldPrice.String())

	got, err := svc.GetProductBySlug(ctx, "DF-244-4WD")
	require.NoError(t, err)
	assert.Equal(t, created.Id, got.Id)

	require.NoError(t, svc.DeleteProduct(ctx, created.Id))
	_, err = svc.GetProductBySlug(ctx, "df-244-4wd")
	assert.ErrorIs(t, err, models.ErrNotFoundError)
	_, err = svc.UpdateProduct(ctx, created.Id, entities.ProductRequest{Name: "X", Price: price("1")})
	assert.ErrorIs(t, err, models.ErrNotFoundError)
}

func TestListAndSearchProductsValidation(t *testing.T) {
	svc := NewProductService(newFakeProductRepo(), newFakeCategoryRepo())
	ctx := context.Background()

	_, err := svc.ListProducts(ctx, nil, 0)
	assert.NoError(t, err)
	_, err = svc.ListProducts(ctx, nil, 101)
	assert.EqualError(t, err, "Invalid limit parameter. Must be between 1 and 100.")
	_, err = svc.ListProducts(ctx, intRef(-4), 10)
	assert.EqualError(t, err, "Invalid category ID")

	_, err = svc.SearchProducts(ctx, " т ", 10)
	assert.EqualError(t, err, "Query must be at least 2 characters")
	_, err = svc.SearchProducts(ctx, "тр", 500)
	assert.NoError(t, err)

	_, err = svc.GetProductBySlug(ctx, "not a slug")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}
