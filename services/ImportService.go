package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/TARS911/dongfeng-minitraktor-sub001/bitrix"
	"github.com/TARS911/dongfeng-minitraktor-sub001/entities"
	"github.com/TARS911/dongfeng-minitraktor-sub001/metrics"
	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
	"github.com/TARS911/dongfeng-minitraktor-sub001/repository"
	"github.com/TARS911/dongfeng-minitraktor-sub001/validation"
)

const (
	SourceGeneric = "generic"
	SourceBitrix  = "bitrix"

	errMissingFields   = "Missing required fields: name, slug, price"
	errInvalidSlug     = "Invalid slug format"
	errImportCancelled = "Import cancelled before this item was processed"
	errSaveFailed      = "Failed to save product"
)

// CategoryIndex is a snapshot of the categories an import batch may refer
// to, keyed by lowercased slug and name.
type CategoryIndex struct {
	byRef map[string]int
	ids   map[int]struct{}
}

func NewCategoryIndex(cats []models.Category_db) CategoryIndex {
	ci := CategoryIndex{
		byRef: make(map[string]int, 2*len(cats)),
		ids:   make(map[int]struct{}, len(cats)),
	}
	for _, c := range cats {
		// a slug wins over another category's identical name
		if _, taken := ci.byRef[strings.ToLower(c.Name)]; !taken {
			ci.byRef[strings.ToLower(c.Name)] = c.Id
		}
		ci.byRef[strings.ToLower(c.Slug)] = c.Id
		ci.ids[c.Id] = struct{}{}
	}
	return ci
}

// Resolve looks a category up by slug or name, case-insensitively.
func (ci CategoryIndex) Resolve(ref string) (int, bool) {
	id, ok := ci.byRef[strings.ToLower(strings.TrimSpace(ref))]
	return id, ok
}

func (ci CategoryIndex) Has(id int) bool {
	_, ok := ci.ids[id]
	return ok
}

// normalizeProduct validates an import or admin payload and turns it into a
// full product row. Errors are *models.ValidationError.
func normalizeProduct(req entities.ProductRequest, index CategoryIndex) (p models.Product_db, err error) {
	p.Name = validation.Sanitize(req.Name)
	if p.Name == "" || req.Price == nil {
		err = models.NewValidationError("product", errMissingFields)
		return
	}
	if req.Slug != "" {
		p.Slug = strings.TrimSpace(req.Slug)
		if !validation.IsSlug(p.Slug) {
			err = models.NewValidationError("slug", errInvalidSlug)
			return
		}
	} else {
		p.Slug = validation.DeriveSlug(p.Name)
		if p.Slug == "" || len(p.Slug) > validation.MaxSlugLen {
			err = models.NewValidationError("product", errMissingFields)
			return
		}
	}

	if req.Price.IsNegative() {
		err = models.NewValidationError("price", "Price must be a non-negative number")
		return
	}
	p.Price = *req.Price
	if req.OldPrice != nil {
		if req.OldPrice.IsNegative() {
			err = models.NewValidationError("old_price", "Old price must be a non-negative number")
			return
		}
		p.OldPrice.Decimal = *req.OldPrice
		p.OldPrice.Valid = true
	}

	switch {
	case req.CategoryId != nil:
		if !index.Has(*req.CategoryId) {
			err = models.NewValidationError("category", "Category not found: "+strconv.Itoa(*req.CategoryId))
			return
		}
		p.CategoryId.Int64, p.CategoryId.Valid = int64(*req.CategoryId), true
	case req.CategoryRef() != "":
		id, ok := index.Resolve(req.CategoryRef())
		if !ok {
			err = models.NewValidationError("category", "Category not found: "+req.CategoryRef())
			return
		}
		p.CategoryId.Int64, p.CategoryId.Valid = int64(id), true
	}

	if len(req.Specifications) > 0 && string(req.Specifications) != "null" {
		if !json.Valid(req.Specifications) {
			err = models.NewValidationError("specifications", "Specifications must be valid JSON")
			return
		}
		p.Specifications = []byte(req.Specifications)
	}

	p.Description = optionalText(req.Description)
	p.Manufacturer = optionalText(req.Manufacturer)
	p.Model = optionalText(req.Model)
	p.ImageUrl = optionalText(req.ImageUrl)
	p.InStock = req.InStock == nil || *req.InStock
	p.Featured = req.Featured != nil && *req.Featured
	return
}

// ProductUpserter is the single store operation the import loop needs.
type ProductUpserter interface {
	UpsertProduct(ctx context.Context, pModel models.Product_db) (prodId int, err error)
}

// ImportItem is one record of a batch. Err is set when the record could not
// even be decoded into the generic shape.
type ImportItem struct {
	Product entities.ProductRequest
	Label   string
	Err     error
}

func (it ImportItem) label(index int) string {
	switch {
	case it.Label != "":
		return it.Label
	case it.Product.Name != "":
		return it.Product.Name
	case it.Product.Slug != "":
		return it.Product.Slug
	}
	return fmt.Sprintf("item #%d", index)
}

func itemError(err error) string {
	var ve *models.ValidationError
	var ce *models.ConflictError
	switch {
	case errors.As(err, &ve), errors.As(err, &ce):
		return err.Error()
	case errors.Is(err, models.ErrServerError):
		return errSaveFailed
	}
	return err.Error()
}

// RunImport processes items one by one. A failing item is recorded and the
// loop goes on; once ctx is done the remaining items are reported as failed.
func RunImport(ctx context.Context, items []ImportItem, index CategoryIndex, up ProductUpserter) entities.ImportResult {
	res := entities.ImportResult{
		Success: true,
		Total:   len(items),
		Errors:  []entities.ImportError{},
	}
	fail := func(i int, it ImportItem, msg string) {
		res.Failed++
		res.Errors = append(res.Errors, entities.ImportError{Index: i, Product: it.label(i), Error: msg})
	}

	for i, it := range items {
		if ctx.Err() != nil {
			fail(i, it, errImportCancelled)
			continue
		}
		if it.Err != nil {
			fail(i, it, it.Err.Error())
			continue
		}
		p, err := normalizeProduct(it.Product, index)
		if err != nil {
			fail(i, it, err.Error())
			continue
		}
		if _, err = up.UpsertProduct(ctx, p); err != nil {
			fail(i, it, itemError(err))
			continue
		}
		res.Imported++
	}
	return res
}

// BitrixFetcher loads the raw product list of a Bitrix24 portal.
type BitrixFetcher interface {
	FetchProducts(ctx context.Context, p bitrix.FetchParams) ([]json.RawMessage, error)
}

type ImportService struct {
	cr       repository.CategoryRepository
	pr       repository.ProductRepository
	bf       BitrixFetcher
	maxBatch int
	metrics  *metrics.ServerMetrics
}

func NewImportService(catRepo repository.CategoryRepository, productRepo repository.ProductRepository, fetcher BitrixFetcher, maxBatch int, m *metrics.ServerMetrics) ImportService {
	return ImportService{
		cr:       catRepo,
		pr:       productRepo,
		bf:       fetcher,
		maxBatch: maxBatch,
		metrics:  m,
	}
}

// MaxBatch is the largest number of products accepted in one request.
func (is *ImportService) MaxBatch() int {
	return is.maxBatch
}

func (is *ImportService) checkBatch(n int) error {
	if n == 0 {
		return models.NewValidationError("products", "Products array is required and must not be empty")
	}
	if n > is.maxBatch {
		return models.NewValidationError("products", fmt.Sprintf("Maximum %d products per import", is.maxBatch))
	}
	return nil
}

func (is *ImportService) run(ctx context.Context, source string, items []ImportItem) (res entities.ImportResult, err error) {
	var cats []models.Category_db
	cats, err = is.cr.GetAllCategories(ctx, "")
	if err != nil {
		return
	}
	res = RunImport(ctx, items, NewCategoryIndex(cats), is.pr)
	if source == SourceBitrix {
		res.Source = SourceBitrix
	}
	is.metrics.ObserveImport(source, res.Imported, res.Failed)
	slog.Info("import finished", "source", source, "total", res.Total, "imported", res.Imported, "failed", res.Failed)
	return
}

// ImportProducts upserts a batch of products in the generic shape. Each
// record is decoded on its own so a malformed one fails alone.
func (is *ImportService) ImportProducts(ctx context.Context, raws []json.RawMessage) (res entities.ImportResult, err error) {
	if err = is.checkBatch(len(raws)); err != nil {
		return
	}
	return is.run(ctx, SourceGeneric, genericItems(raws))
}

// ImportBitrixProducts upserts a batch of records already exported from
// Bitrix24.
func (is *ImportService) ImportBitrixProducts(ctx context.Context, raws []json.RawMessage) (res entities.ImportResult, err error) {
	if err = is.checkBatch(len(raws)); err != nil {
		return
	}
	return is.run(ctx, SourceBitrix, bitrixItems(raws))
}

// ImportFromBitrix fetches the active products of a portal and imports
// them. A failed fetch aborts before any item is written.
func (is *ImportService) ImportFromBitrix(ctx context.Context, params bitrix.FetchParams) (res entities.ImportResult, err error) {
	var raws []json.RawMessage
	raws, err = is.bf.FetchProducts(ctx, params)
	if err != nil {
		slog.Error("ImportFromBitrix", "err", err)
		return
	}
	if len(raws) == 0 {
		res = entities.ImportResult{Success: true, Source: SourceBitrix, Errors: []entities.ImportError{}}
		return
	}
	if len(raws) > is.maxBatch {
		err = models.NewValidationError("products", fmt.Sprintf("Maximum %d products per import", is.maxBatch))
		return
	}
	return is.run(ctx, SourceBitrix, bitrixItems(raws))
}

func genericItems(raws []json.RawMessage) []ImportItem {
	items := make([]ImportItem, len(raws))
	for i, raw := range raws {
		var req entities.ProductRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			// fields decoded before the bad one still label the error
			items[i] = ImportItem{Product: req, Err: fmt.Errorf("malformed product record: %w", err)}
			continue
		}
		items[i] = ImportItem{Product: req}
	}
	return items
}

func bitrixItems(raws []json.RawMessage) []ImportItem {
	items := make([]ImportItem, len(raws))
	for i, raw := range raws {
		var bp bitrix.Product
		if err := json.Unmarshal(raw, &bp); err != nil {
			items[i] = ImportItem{Err: fmt.Errorf("malformed product record: %w", err)}
			continue
		}
		req, err := bp.ToRequest()
		items[i] = ImportItem{Product: req, Label: bp.DisplayName(), Err: err}
	}
	return items
}
