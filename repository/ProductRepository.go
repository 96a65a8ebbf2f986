package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
)

type ProductRepository interface {
	GetProductById(ctx context.Context, id int) (pModel models.Product_db, exists bool, err error)
	GetProductBySlug(ctx context.Context, slug string) (pModel models.Product_db, exists bool, err error)
	SearchProducts(ctx context.Context, data models.ProductSearchData) (prods []models.Product_db, err error)
	CreateProduct(ctx context.Context, pModel models.Product_db) (newProdId int, err error)
	UpdateProduct(ctx context.Context, pModel models.Product_db) (err error)
	UpsertProduct(ctx context.Context, pModel models.Product_db) (prodId int, err error)
	DeleteProduct(ctx context.Context, id int) (err error)
}

type ProductRepo struct {
	db *sql.DB
}

func NewProductRepository(conn *sql.DB) (ProductRepository, error) {
	if conn == nil {
		return nil, errors.New("conn must be non-nil")
	}
	err := conn.Ping()
	if err != nil {
		return nil, err
	}
	return &ProductRepo{
		db: conn,
	}, nil
}

const productColumns = "id, name, slug, description, price, old_price, category_id, manufacturer, model, image_url, in_stock, featured, specifications, created_at, updated_at"

func scanProduct(row rowScanner) (p models.Product_db, err error) {
	err = row.Scan(&p.Id, &p.Name, &p.Slug, &p.Description, &p.Price, &p.OldPrice,
		&p.CategoryId, &p.Manufacturer, &p.Model, &p.ImageUrl, &p.InStock, &p.Featured,
		&p.Specifications, scanTime(&p.CreatedAt), scanTime(&p.UpdatedAt))
	return
}

var errDuplicateProductSlug = &models.ConflictError{Message: "product with this slug already exists"}

func (p *ProductRepo) getProduct(ctx context.Context, op, where string, arg any) (pModel models.Product_db, exists bool, err error) {
	row := p.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE "+where, arg)
	pModel, err = scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = nil
		} else {
			slog.Error(op, "err", err)
			err = models.ErrServerError
		}
		return
	}
	exists = true
	return
}

func (p *ProductRepo) GetProductById(ctx context.Context, id int) (models.Product_db, bool, error) {
	return p.getProduct(ctx, "GetProductById", "id = $1", id)
}

func (p *ProductRepo) GetProductBySlug(ctx context.Context, slug string) (models.Product_db, bool, error) {
	return p.getProduct(ctx, "GetProductBySlug", "slug = $1", slug)
}

func (p *ProductRepo) SearchProducts(ctx context.Context, data models.ProductSearchData) (prods []models.Product_db, err error) {
	var conds []string
	var queryParams []any
	var count int

	if data.CategoryId != nil {
		count++
		conds = append(conds, "category_id = $"+strconv.Itoa(count))
		queryParams = append(queryParams, *data.CategoryId)
	}
	if data.Query != "" {
		count++
		conds = append(conds, "LOWER(name) LIKE $"+strconv.Itoa(count))
		queryParams = append(queryParams, "%"+strings.ToLower(data.Query)+"%")
	}
	if data.InStock {
		conds = append(conds, "in_stock = TRUE")
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY featured DESC, name"
	if data.Limit > 0 {
		count++
		query += " LIMIT $" + strconv.Itoa(count)
		queryParams = append(queryParams, data.Limit)
	}

	rows, e := p.db.QueryContext(ctx, query, queryParams...)
	if e != nil {
		slog.Error("SearchProducts[1]", "err", e)
		err = models.ErrServerError
		return
	}
	defer rows.Close()

	for rows.Next() {
		prod, e := scanProduct(rows)
		if e != nil {
			slog.Error("SearchProducts[2]", "err", e)
			err = models.ErrServerError
			return
		}
		prods = append(prods, prod)
	}
	if e = rows.Err(); e != nil {
		slog.Error("SearchProducts[3]", "err", e)
		err = models.ErrServerError
	}
	return
}

func (p *ProductRepo) CreateProduct(ctx context.Context, pModel models.Product_db) (newProdId int, err error) {
	err = p.db.QueryRowContext(ctx,
		`INSERT INTO products (name, slug, description, price, old_price, category_id, manufacturer, model, image_url, in_stock, featured, specifications)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		productArgs(pModel)...).Scan(&newProdId)
	if err != nil {
		if isUniqueViolation(err) {
			err = errDuplicateProductSlug
			return
		}
		slog.Error("CreateProduct", "err", err)
		err = models.ErrServerError
	}
	return
}

func (p *ProductRepo) UpdateProduct(ctx context.Context, pModel models.Product_db) (err error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE products SET name = $1, slug = $2, description = $3, price = $4, old_price = $5, category_id = $6,
		manufacturer = $7, model = $8, image_url = $9, in_stock = $10, featured = $11, specifications = $12,
		updated_at = CURRENT_TIMESTAMP WHERE id = $13`,
		append(productArgs(pModel), pModel.Id)...)
	if err != nil {
		if isUniqueViolation(err) {
			err = errDuplicateProductSlug
			return
		}
		slog.Error("UpdateProduct", "err", err)
		err = models.ErrServerError
		return
	}
	return affectedOne(res, "UpdateProduct")
}

// UpsertProduct inserts the product or, when the slug is taken, replaces every
// field of the existing row.
func (p *ProductRepo) UpsertProduct(ctx context.Context, pModel models.Product_db) (prodId int, err error) {
	err = p.db.QueryRowContext(ctx,
		`INSERT INTO products (name, slug, description, price, old_price, category_id, manufacturer, model, image_url, in_stock, featured, specifications)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (slug) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			price = excluded.price,
			old_price = excluded.old_price,
			category_id = excluded.category_id,
			manufacturer = excluded.manufacturer,
			model = excluded.model,
			image_url = excluded.image_url,
			in_stock = excluded.in_stock,
			featured = excluded.featured,
			specifications = excluded.specifications,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id`,
		productArgs(pModel)...).Scan(&prodId)
	if err != nil {
		slog.Error("UpsertProduct", "slug", pModel.Slug, "err", err)
		err = models.ErrServerError
	}
	return
}

func (p *ProductRepo) DeleteProduct(ctx context.Context, id int) (err error) {
	res, err := p.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			err = &models.ConflictError{Message: "product is referenced by orders"}
			return
		}
		slog.Error("DeleteProduct", "err", err)
		err = models.ErrServerError
		return
	}
	return affectedOne(res, "DeleteProduct")
}

func productArgs(p models.Product_db) []any {
	return []any{p.Name, p.Slug, p.Description, p.Price, p.OldPrice, p.CategoryId,
		p.Manufacturer, p.Model, p.ImageUrl, p.InStock, p.Featured, jsonParam(p.Specifications)}
}
