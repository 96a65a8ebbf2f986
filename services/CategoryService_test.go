package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TARS911/dongfeng-minitraktor-sub001/entities"
	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
)

func strRef(s string) *string { return &s }

func nullInt64(i int64) sql.NullInt64 { return sql.NullInt64{Int64: i, Valid: true} }

func TestCreateCategory(t *testing.T) {
	repo := newFakeCategoryRepo()
	svc := NewCategoryService(repo)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, entities.CategoryRequest{
		Name:        strRef("Минитракторы"),
		Slug:        strRef(" Minitractors "),
		Description: strRef("Тракторы <DongFeng>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "minitractors", cat.Slug)
	require.NotNil(t, cat.Description)
	assert.Equal(t, "Тракторы DongFeng", *cat.Description)
	assert.Nil(t, cat.ParentId)

	_, err = svc.CreateCategory(ctx, entities.CategoryRequest{Name: strRef("Дубль"), Slug: strRef("minitractors")})
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = svc.CreateCategory(ctx, entities.CategoryRequest{Name: strRef("X"), Slug: strRef("bad--slug")})
	assert.ErrorIs(t, err, models.ErrBadRequest)

	_, err = svc.CreateCategory(ctx, entities.CategoryRequest{Slug: strRef("no-name")})
	assert.EqualError(t, err, "Name and slug are required")

	_, err = svc.CreateCategory(ctx, entities.CategoryRequest{
		Name:     strRef("Дочерняя"),
		Slug:     strRef("child"),
		ParentId: models.NullInt{Valid: true, Value: 99},
	})
	assert.ErrorIs(t, err, models.ErrNotAllowed)

	child, err := svc.CreateCategory(ctx, entities.CategoryRequest{
		Name:     strRef("Дочерняя"),
		Slug:     strRef("child"),
		ParentId: models.NullInt{Valid: true, Value: cat.Id},
	})
	require.NoError(t, err)
	require.NotNil(t, child.ParentId)
	assert.Equal(t, cat.Id, *child.ParentId)
}

func TestUpdateCategoryMergesFields(t *testing.T) {
	repo := newFakeCategoryRepo(
		models.Category_db{Id: 1, Name: "Запчасти", Slug: "parts"},
		models.Category_db{Id: 2, Name: "Навесное", Slug: "attachments", ParentId: nullInt64(1)},
	)
	svc := NewCategoryService(repo)
	ctx := context.Background()

	cat, err := svc.UpdateCategory(ctx, 2, entities.CategoryRequest{Description: strRef("Плуги и фрезы")})
	require.NoError(t, err)
	assert.Equal(t, "attachments", cat.Slug)
	assert.Equal(t, "Навесное", cat.Name)
	require.NotNil(t, cat.ParentId)

	cat, err = svc.UpdateCategory(ctx, 2, entities.CategoryRequest{ParentId: models.NullInt{Valid: true}})
	require.NoError(t, err)
	assert.Nil(t, cat.ParentId)
	assert.Equal(t, "Плуги и фрезы", *cat.Description)

	_, err = svc.UpdateCategory(ctx, 2, entities.CategoryRequest{Slug: strRef("parts")})
	assert.ErrorIs(t, err, models.ErrConflict)
	_, err = svc.UpdateCategory(ctx, 2, entities.CategoryRequest{ParentId: models.NullInt{Valid: true, Value: 2}})
	assert.ErrorIs(t, err, models.ErrBadRequest)
	_, err = svc.UpdateCategory(ctx, 2, entities.CategoryRequest{Name: strRef("  ")})
	assert.ErrorIs(t, err, models.ErrBadRequest)
	_, err = svc.UpdateCategory(ctx, 42, entities.CategoryRequest{Name: strRef("X")})
	assert.ErrorIs(t, err, models.ErrNotFoundError)
}

func TestDeleteCategory(t *testing.T) {
	repo := newFakeCategoryRepo(
		models.Category_db{Id: 1, Name: "Минитракторы", Slug: "minitractors"},
		models.Category_db{Id: 2, Name: "Пустая", Slug: "empty"},
	)
	repo.products[1] = 3
	svc := NewCategoryService(repo)
	ctx := context.Background()

	err := svc.DeleteCategory(ctx, 1)
	var ce *models.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, errCategoryHasProducts, ce.Message)
	assert.Contains(t, repo.cats, 1)

	require.NoError(t, svc.DeleteCategory(ctx, 2))
	assert.NotContains(t, repo.cats, 2)

	assert.ErrorIs(t, svc.DeleteCategory(ctx, 2), models.ErrNotFoundError)
}

func TestGetAllCategories(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryRepo(
		models.Category_db{Id: 1, Name: "Б", Slug: "b"},
		models.Category_db{Id: 2, Name: "А", Slug: "a"},
	))
	cats, err := svc.GetAllCategories(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "a", cats[0].Slug)

	_, err = svc.GetCategoryById(context.Background(), 3)
	assert.ErrorIs(t, err, models.ErrNotFoundError)
}
