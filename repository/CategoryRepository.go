package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
)

type CategoryRepository interface {
	GetAllCategories(ctx context.Context, search string) (cats []models.Category_db, err error)
	GetCategoryById(ctx context.Context, catId int) (cat models.Category_db, exists bool, err error)
	GetCategoryBySlug(ctx context.Context, slug string) (cat models.Category_db, exists bool, err error)
	CategoryExist(ctx context.Context, catId int) (bool, error)
	CreateCategory(ctx context.Context, cat models.Category_db) (newCatId int, err error)
	UpdateCategory(ctx context.Context, cat models.Category_db) (err error)
	DeleteCategory(ctx context.Context, catId int) (err error)
	CountProducts(ctx context.Context, catId int) (count int, err error)
}

type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepository(conn *sql.DB) (CategoryRepository, error) {
	if conn == nil {
		return nil, errors.New("conn must be non-nil")
	}
	err := conn.Ping()
	if err != nil {
		return nil, err
	}
	return &CategoryRepo{
		db: conn,
	}, nil
}

const categoryColumns = "id, name, slug, description, image_url, parent_id, display_order, created_at, updated_at"

func scanCategory(row rowScanner) (cat models.Category_db, err error) {
	err = row.Scan(&cat.Id, &cat.Name, &cat.Slug, &cat.Description, &cat.ImageUrl,
		&cat.ParentId, &cat.DisplayOrder, scanTime(&cat.CreatedAt), scanTime(&cat.UpdatedAt))
	return
}

var errDuplicateCategorySlug = &models.ConflictError{Message: "category with this slug already exists"}

func (c *CategoryRepo) GetAllCategories(ctx context.Context, search string) (cats []models.Category_db, err error) {
	query := "SELECT " + categoryColumns + " FROM categories"
	var params []any
	if search = strings.TrimSpace(search); search != "" {
		query += " WHERE LOWER(name) LIKE $1 OR LOWER(slug) LIKE $1"
		params = append(params, "%"+strings.ToLower(search)+"%")
	}
	query += " ORDER BY name"

	rows, e := c.db.QueryContext(ctx, query, params...)
	if e != nil {
		slog.Error("GetAllCategories[1]", "err", e)
		err = models.ErrServerError
		return
	}
	defer rows.Close()

	for rows.Next() {
		cat, e := scanCategory(rows)
		if e != nil {
			slog.Error("GetAllCategories[2]", "err", e)
			err = models.ErrServerError
			return
		}
		cats = append(cats, cat)
	}
	if e = rows.Err(); e != nil {
		slog.Error("GetAllCategories[3]", "err", e)
		err = models.ErrServerError
	}
	return
}

func (c *CategoryRepo) getCategory(ctx context.Context, op, where string, arg any) (cat models.Category_db, exists bool, err error) {
	row := c.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE "+where, arg)
	cat, err = scanCategory(row)
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

func (c *CategoryRepo) GetCategoryById(ctx context.Context, catId int) (models.Category_db, bool, error) {
	return c.getCategory(ctx, "GetCategoryById", "id = $1", catId)
}

func (c *CategoryRepo) GetCategoryBySlug(ctx context.Context, slug string) (models.Category_db, bool, error) {
	return c.getCategory(ctx, "GetCategoryBySlug", "slug = $1", slug)
}

func (c *CategoryRepo) CategoryExist(ctx context.Context, catId int) (bool, error) {
	row := c.db.QueryRowContext(ctx, "SELECT id FROM categories WHERE id = $1", catId)
	var ex int
	err := row.Scan(&ex)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	slog.Error("CategoryExist", "err", err)
	return false, models.ErrServerError
}

func (c *CategoryRepo) CreateCategory(ctx context.Context, cat models.Category_db) (newCatId int, err error) {
	err = c.db.QueryRowContext(ctx,
		"INSERT INTO categories (name, slug, description, image_url, parent_id, display_order) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		cat.Name, cat.Slug, cat.Description, cat.ImageUrl, cat.ParentId, cat.DisplayOrder).Scan(&newCatId)
	if err != nil {
		if isUniqueViolation(err) {
			err = errDuplicateCategorySlug
			return
		}
		slog.Error("CreateCategory", "err", err)
		err = models.ErrServerError
	}
	return
}

func (c *CategoryRepo) UpdateCategory(ctx context.Context, cat models.Category_db) (err error) {
	res, err := c.db.ExecContext(ctx,
		"UPDATE categories SET name = $1, slug = $2, description = $3, image_url = $4, parent_id = $5, display_order = $6, updated_at = CURRENT_TIMESTAMP WHERE id = $7",
		cat.Name, cat.Slug, cat.Description, cat.ImageUrl, cat.ParentId, cat.DisplayOrder, cat.Id)
	if err != nil {
		if isUniqueViolation(err) {
			err = errDuplicateCategorySlug
			return
		}
		slog.Error("UpdateCategory", "err", err)
		err = models.ErrServerError
		return
	}
	return affectedOne(res, "UpdateCategory")
}

func (c *CategoryRepo) DeleteCategory(ctx context.Context, catId int) (err error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", catId)
	if err != nil {
		if isForeignKeyViolation(err) {
			err = &models.ConflictError{Message: "category has products"}
			return
		}
		slog.Error("DeleteCategory", "err", err)
		err = models.ErrServerError
		return
	}
	return affectedOne(res, "DeleteCategory")
}

func (c *CategoryRepo) CountProducts(ctx context.Context, catId int) (count int, err error) {
	err = c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products WHERE category_id = $1", catId).Scan(&count)
	if err != nil {
		slog.Error("CountProducts", "err", err)
		err = models.ErrServerError
	}
	return
}

// affectedOne turns an UPDATE/DELETE that matched no row into ErrNotFoundError.
func affectedOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		slog.Error(op, "err", err)
		return models.ErrServerError
	}
	if n == 0 {
		return models.ErrNotFoundError
	}
	return nil
}
