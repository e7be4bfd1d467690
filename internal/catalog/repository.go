package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hannalund/shop-backend/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	product := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT slug, title, price, currency, image, active, created_at, updated_at
		FROM products
		WHERE slug = $1
	`, slug).Scan(&product.Slug, &product.Title, &product.Price, &product.Currency,
		&product.Image, &product.Active, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT size, color, stock
		FROM product_variants
		WHERE product_slug = $1
		ORDER BY size, color
	`, slug)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.Size, &v.Color, &v.Stock); err != nil {
			return nil, err
		}
		product.Variants = append(product.Variants, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return product, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT slug, title, price, currency, image, active, created_at, updated_at
		FROM products
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	productMap := make(map[string]*domain.Product)
	var slugs []string

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.Slug, &p.Title, &p.Price, &p.Currency,
			&p.Image, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Variants = []domain.Variant{}
		productMap[p.Slug] = &p
		slugs = append(slugs, p.Slug)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(slugs) == 0 {
		return []domain.Product{}, nil
	}

	variantRows, err := r.db.QueryContext(ctx, `
		SELECT product_slug, size, color, stock
		FROM product_variants
		WHERE product_slug = ANY($1)
		ORDER BY size, color
	`, pq.Array(slugs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = variantRows.Close() }()

	for variantRows.Next() {
		var slug string
		var v domain.Variant
		if err := variantRows.Scan(&slug, &v.Size, &v.Color, &v.Stock); err != nil {
			return nil, err
		}
		product := productMap[slug]
		product.Variants = append(product.Variants, v)
	}

	if err := variantRows.Err(); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(slugs))
	for _, slug := range slugs {
		products = append(products, *productMap[slug])
	}

	return products, nil
}

func (r *Repository) Create(ctx context.Context, product *domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (slug, title, price, currency, image, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, product.Slug, product.Title, product.Price, product.Currency,
		product.Image, product.Active, now)
	if err != nil {
		return err
	}

	for _, v := range product.Variants {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO product_variants (id, product_slug, size, color, stock)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New().String(), product.Slug, v.Size, v.Color, v.Stock)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Update replaces the product row and its full variant list. Returns false
// when no product with that slug exists.
func (r *Repository) Update(ctx context.Context, product *domain.Product) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET title = $2, price = $3, currency = $4, image = $5, active = $6, updated_at = NOW()
		WHERE slug = $1
	`, product.Slug, product.Title, product.Price, product.Currency,
		product.Image, product.Active)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rowsAffected == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM product_variants WHERE product_slug = $1
	`, product.Slug); err != nil {
		return false, err
	}

	for _, v := range product.Variants {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO product_variants (id, product_slug, size, color, stock)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New().String(), product.Slug, v.Size, v.Color, v.Stock)
		if err != nil {
			return false, err
		}
	}

	return true, tx.Commit()
}

func (r *Repository) Delete(ctx context.Context, slug string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM products WHERE slug = $1
	`, slug)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// ApplyStockDecrements decrements variant stock for each purchased line in
// one transaction, clamped at zero. Lines with missing metadata or no
// matching variant are returned as skipped for the caller to log; there is
// no compensation and no retry for them.
func (r *Repository) ApplyStockDecrements(ctx context.Context, lines []domain.OrderLine) ([]domain.OrderLine, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var skipped []domain.OrderLine

	for _, line := range lines {
		if line.Slug == "" || line.Size == "" || line.Color == "" {
			skipped = append(skipped, line)
			continue
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE product_variants
			SET stock = GREATEST(stock - $4, 0)
			WHERE product_slug = $1 AND size = $2 AND color = $3
		`, line.Slug, line.Size, line.Color, line.Quantity)
		if err != nil {
			return nil, err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if rowsAffected == 0 {
			skipped = append(skipped, line)
		}
	}

	return skipped, tx.Commit()
}
