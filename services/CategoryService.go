package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/TARS911/dongfeng-minitraktor-sub001/entities"
	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
	"github.com/TARS911/dongfeng-minitraktor-sub001/repository"
	"github.com/TARS911/dongfeng-minitraktor-sub001/validation"
)

const errCategoryHasProducts = "Cannot delete category with products. Remove products first or reassign them to another category."

type CategoryService struct {
	cr repository.CategoryRepository
}

func NewCategoryService(catRepo repository.CategoryRepository) CategoryService {
	return CategoryService{
		cr: catRepo,
	}
}

func (cas *CategoryService) GetAllCategories(ctx context.Context, search string) (categories []entities.Category, err error) {
	var cats []models.Category_db
	cats, err = cas.cr.GetAllCategories(ctx, validation.Sanitize(search))
	if err != nil {
		return
	}
	categories = make([]entities.Category, 0, len(cats))
	for _, c := range cats {
		categories = append(categories, toCategory(c))
	}
	return
}

func (cas *CategoryService) GetCategoryById(ctx context.Context, catId int) (cat entities.Category, err error) {
	var cModel models.Category_db
	var exists bool
	cModel, exists, err = cas.cr.GetCategoryById(ctx, catId)
	if err != nil {
		return
	}
	if !exists {
		err = models.ErrNotFoundError
		return
	}
	cat = toCategory(cModel)
	return
}

func (cas *CategoryService) CreateCategory(ctx context.Context, req entities.CategoryRequest) (cat entities.Category, err error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" || req.Slug == nil || strings.TrimSpace(*req.Slug) == "" {
		err = models.NewValidationError("slug", "Name and slug are required")
		return
	}
	var cModel models.Category_db
	if err = cas.applyRequest(ctx, &cModel, req); err != nil {
		return
	}
	var newCatId int
	newCatId, err = cas.cr.CreateCategory(ctx, cModel)
	if err != nil {
		return
	}
	return cas.GetCategoryById(ctx, newCatId)
}

// UpdateCategory merges the fields present in req into the stored category.
func (cas *CategoryService) UpdateCategory(ctx context.Context, catId int, req entities.CategoryRequest) (cat entities.Category, err error) {
	cModel, exists, e := cas.cr.GetCategoryById(ctx, catId)
	if e != nil {
		err = e
		return
	}
	if !exists {
		err = models.ErrNotFoundError
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		err = models.NewValidationError("name", "Name can not be empty")
		return
	}
	if req.ParentId.Valid && req.ParentId.Value == catId {
		err = models.NewValidationError("parent_id", "Category can not be its own parent")
		return
	}
	if err = cas.applyRequest(ctx, &cModel, req); err != nil {
		return
	}
	if err = cas.cr.UpdateCategory(ctx, cModel); err != nil {
		return
	}
	return cas.GetCategoryById(ctx, catId)
}

func (cas *CategoryService) applyRequest(ctx context.Context, cModel *models.Category_db, req entities.CategoryRequest) error {
	if req.Name != nil {
		cModel.Name = validation.Sanitize(*req.Name)
	}
	if req.Slug != nil {
		slug := strings.ToLower(strings.TrimSpace(*req.Slug))
		if !validation.IsCanonicalSlug(slug) {
			return models.NewValidationError("slug", "Invalid slug format. Use only lowercase letters, numbers, and hyphens")
		}
		cModel.Slug = slug
	}
	if req.Description != nil {
		cModel.Description = optionalText(*req.Description)
	}
	if req.ImageUrl != nil {
		cModel.ImageUrl = optionalText(*req.ImageUrl)
	}
	if req.DisplayOrder != nil {
		cModel.DisplayOrder = sql.NullInt64{Int64: int64(*req.DisplayOrder), Valid: true}
	}
	if req.ParentId.Valid {
		if req.ParentId.Value == 0 {
			cModel.ParentId = sql.NullInt64{}
			return nil
		}
		if !validation.IsId(req.ParentId.Value) {
			return models.NewValidationError("parent_id", "Invalid parent category ID")
		}
		ex, err := cas.cr.CategoryExist(ctx, req.ParentId.Value)
		if err != nil {
			return err
		}
		if !ex {
			slog.Info("applyRequest: parent category does not exist", "parent_id", req.ParentId.Value)
			return fmt.Errorf("parent category %d does not exist: %w", req.ParentId.Value, models.ErrNotAllowed)
		}
		cModel.ParentId = sql.NullInt64{Int64: int64(req.ParentId.Value), Valid: true}
	}
	return nil
}

func (cas *CategoryService) DeleteCategory(ctx context.Context, catId int) (err error) {
	var exists bool
	exists, err = cas.cr.CategoryExist(ctx, catId)
	if err != nil {
		return
	}
	if !exists {
		err = models.ErrNotFoundError
		return
	}
	var count int
	count, err = cas.cr.CountProducts(ctx, catId)
	if err != nil {
		return
	}
	if count > 0 {
		err = &models.ConflictError{Message: errCategoryHasProducts}
		return
	}
	err = cas.cr.DeleteCategory(ctx, catId)
	return
}

// optionalText sanitizes s; an empty result is stored as NULL.
func optionalText(s string) sql.NullString {
	s = validation.Sanitize(s)
	return sql.NullString{String: s, Valid: s != ""}
}
