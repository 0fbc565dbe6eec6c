package repository

import (
	"context"
	"errors"
	"fmt"

	"medhistory/internal/data/entity"
	"medhistory/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]*entity.Category, error)
	FindCategory(ctx context.Context, name string) (*entity.Category, error)
	CreateCategory(ctx context.Context, category *entity.Category) error
	ListSubCategories(ctx context.Context, categoryName string) ([]*entity.SubCategory, error)
	FindSubCategory(ctx context.Context, name string) (*entity.SubCategory, error)
	CreateSubCategory(ctx context.Context, sub *entity.SubCategory) error
	ListProducts(ctx context.Context, subCategoryName string) ([]*entity.Product, error)
	CreateProduct(ctx context.Context, product *entity.Product) error
}

type catalogRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewCatalogRepository(db database.Querier, log *zap.Logger) CatalogRepository {
	return &catalogRepository{
		db:  db,
		log: log.With(zap.String("repository", "catalog")),
	}
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	query := `SELECT name, image, created_at FROM categories ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to list categories", zap.Error(err))
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []*entity.Category{}
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.Name, &c.Image, &c.CreatedAt); err != nil {
			r.log.Error("Failed to scan category row", zap.Error(err))
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return categories, nil
}

func (r *catalogRepository) FindCategory(ctx context.Context, name string) (*entity.Category, error) {
	query := `SELECT name, image, created_at FROM categories WHERE name = $1`

	var c entity.Category
	err := r.db.QueryRow(ctx, query, name).Scan(&c.Name, &c.Image, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find category", zap.Error(err), zap.String("name", name))
		return nil, fmt.Errorf("find category %s: %w", name, err)
	}
	return &c, nil
}

func (r *catalogRepository) CreateCategory(ctx context.Context, c *entity.Category) error {
	query := `INSERT INTO categories (name, image, created_at) VALUES ($1, $2, $3)`

	if _, err := r.db.Exec(ctx, query, c.Name, c.Image, c.CreatedAt); err != nil {
		if dup := asDuplicate(err); dup != nil {
			return dup
		}
		r.log.Error("Failed to create category", zap.Error(err), zap.String("name", c.Name))
		return fmt.Errorf("create category %s: %w", c.Name, err)
	}
	return nil
}

func (r *catalogRepository) ListSubCategories(ctx context.Context, categoryName string) ([]*entity.SubCategory, error) {
	query := `
		SELECT name, photo, category_name, created_at
		FROM sub_categories
		WHERE category_name = $1
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query, categoryName)
	if err != nil {
		r.log.Error("Failed to list sub-categories", zap.Error(err), zap.String("category", categoryName))
		return nil, fmt.Errorf("list sub-categories of %s: %w", categoryName, err)
	}
	defer rows.Close()

	subs := []*entity.SubCategory{}
	for rows.Next() {
		var s entity.SubCategory
		if err := rows.Scan(&s.Name, &s.Photo, &s.CategoryName, &s.CreatedAt); err != nil {
			r.log.Error("Failed to scan sub-category row", zap.Error(err))
			return nil, fmt.Errorf("scan sub-category row: %w", err)
		}
		subs = append(subs, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sub-category rows: %w", err)
	}
	return subs, nil
}

func (r *catalogRepository) FindSubCategory(ctx context.Context, name string) (*entity.SubCategory, error) {
	query := `SELECT name, photo, category_name, created_at FROM sub_categories WHERE name = $1`

	var s entity.SubCategory
	err := r.db.QueryRow(ctx, query, name).Scan(&s.Name, &s.Photo, &s.CategoryName, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find sub-category", zap.Error(err), zap.String("name", name))
		return nil, fmt.Errorf("find sub-category %s: %w", name, err)
	}
	return &s, nil
}

func (r *catalogRepository) CreateSubCategory(ctx context.Context, s *entity.SubCategory) error {
	query := `INSERT INTO sub_categories (name, photo, category_name, created_at) VALUES ($1, $2, $3, $4)`

	if _, err := r.db.Exec(ctx, query, s.Name, s.Photo, s.CategoryName, s.CreatedAt); err != nil {
		if dup := asDuplicate(err); dup != nil {
			return dup
		}
		r.log.Error("Failed to create sub-category", zap.Error(err), zap.String("name", s.Name))
		return fmt.Errorf("create sub-category %s: %w", s.Name, err)
	}
	return nil
}

func (r *catalogRepository) ListProducts(ctx context.Context, subCategoryName string) ([]*entity.Product, error) {
	query := `
		SELECT id, name, sub_category_name, specification, photo, variants,
		       prices, items_left, model_no, created_at
		FROM products
		WHERE sub_category_name = $1
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query, subCategoryName)
	if err != nil {
		r.log.Error("Failed to list products", zap.Error(err), zap.String("sub_category", subCategoryName))
		return nil, fmt.Errorf("list products of %s: %w", subCategoryName, err)
	}
	defer rows.Close()

	products := []*entity.Product{}
	for rows.Next() {
		var p entity.Product
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.SubCategoryName,
			&p.Specification,
			&p.Photo,
			&p.Variants,
			&p.Prices,
			&p.ItemsLeft,
			&p.ModelNo,
			&p.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan product row", zap.Error(err))
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

func (r *catalogRepository) CreateProduct(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (id, name, sub_category_name, specification, photo, variants,
		                      prices, items_left, model_no, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.Name,
		p.SubCategoryName,
		p.Specification,
		p.Photo,
		p.Variants,
		p.Prices,
		p.ItemsLeft,
		p.ModelNo,
		p.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create product", zap.Error(err), zap.String("name", p.Name))
		return fmt.Errorf("create product %s: %w", p.Name, err)
	}
	return nil
}
