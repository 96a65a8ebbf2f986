package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/TARS911/dongfeng-minitraktor-sub001/entities"
	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
	"github.com/TARS911/dongfeng-minitraktor-sub001/repository"
	"github.com/TARS911/dongfeng-minitraktor-sub001/validation"
)

const (
	DefaultProductLimit = 20
	MaxProductLimit     = 100
	DefaultSearchLimit  = 10
	MaxSearchLimit      = 50
)

type ProductService struct {
	pr repository.ProductRepository
	cr repository.CategoryRepository
}

func NewProductService(pRepo repository.ProductRepository, catRepo repository.CategoryRepository) ProductService {
	return ProductService{
		pr: pRepo,
		cr: catRepo,
	}
}

// ListProducts returns in-stock products, featured first. A zero limit
// means the default.
func (ps *ProductService) ListProducts(ctx context.Context, categoryId *int, limit int) (prods []entities.Product, err error) {
	if limit == 0 {
		limit = DefaultProductLimit
	}
	if limit < 1 || limit > MaxProductLimit {
		err = models.NewValidationError("limit", "Invalid limit parameter. Must be between 1 and 100.")
		return
	}
	if categoryId != nil && !validation.IsId(*categoryId) {
		err = models.NewValidationError("category", "Invalid category ID")
		return
	}
	var pModels []models.Product_db
	pModels, err = ps.pr.SearchProducts(ctx, models.ProductSearchData{
		CategoryId: categoryId,
		InStock:    true,
		Limit:      limit,
	})
	if err != nil {
		return
	}
	prods = toProducts(pModels)
	return
}

// SearchProducts matches q as a case-insensitive substring of the product
// name. The limit is capped rather than rejected.
func (ps *ProductService) SearchProducts(ctx context.Context, q string, limit int) (prods []entities.Product, err error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < 2 {
		err = models.NewValidationError("q", "Query must be at least 2 characters")
		return
	}
	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}
	var pModels []models.Product_db
	pModels, err = ps.pr.SearchProducts(ctx, models.ProductSearchData{
		Query:   validation.Sanitize(q),
		InStock: true,
		Limit:   limit,
	})
	if err != nil {
		return
	}
	prods = toProducts(pModels)
	return
}

func (ps *ProductService) GetProductBySlug(ctx context.Context, slug string) (pEnt entities.Product, err error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !validation.IsSlug(slug) {
		err = models.NewValidationError("slug", errInvalidSlug)
		return
	}
	pModel, exists, e := ps.pr.GetProductBySlug(ctx, slug)
	if e != nil {
		err = e
		return
	}
	if !exists {
		err = models.ErrNotFoundError
		return
	}
	pEnt = toProduct(pModel)
	return
}

func (ps *ProductService) GetProductById(ctx context.Context, prodId int) (pEnt entities.Product, err error) {
	pModel, exists, e := ps.pr.GetProductById(ctx, prodId)
	if e != nil {
		err = e
		return
	}
	if !exists {
		err = models.ErrNotFoundError
		return
	}
	pEnt = toProduct(pModel)
	return
}

func (ps *ProductService) normalize(ctx context.Context, req entities.ProductRequest) (pModel models.Product_db, err error) {
	var cats []models.Category_db
	cats, err = ps.cr.GetAllCategories(ctx, "")
	if err != nil {
		return
	}
	return normalizeProduct(req, NewCategoryIndex(cats))
}

func (ps *ProductService) CreateProduct(ctx context.Context, req entities.ProductRequest) (pEnt entities.Product, err error) {
	var pModel models.Product_db
	pModel, err = ps.normalize(ctx, req)
	if err != nil {
		return
	}
	var newProdId int
	newProdId, err = ps.pr.CreateProduct(ctx, pModel)
	if err != nil {
		return
	}
	return ps.GetProductById(ctx, newProdId)
}

// UpdateProduct replaces every field of the product with req.
func (ps *ProductService) UpdateProduct(ctx context.Context, prodId int, req entities.ProductRequest) (pEnt entities.Product, err error) {
	var pModel models.Product_db
	pModel, err = ps.normalize(ctx, req)
	if err != nil {
		return
	}
	pModel.Id = prodId
	if err = ps.pr.UpdateProduct(ctx, pModel); err != nil {
		return
	}
	return ps.GetProductById(ctx, prodId)
}

func (ps *ProductService) DeleteProduct(ctx context.Context, prodId int) (err error) {
	err = ps.pr.DeleteProduct(ctx, prodId)
	return
}
