package content

import (
	"context"
	"database/sql"
	"time"

	"github.com/hannalund/shop-backend/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT slug, title, body, image, published, created_at, updated_at
		FROM posts
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	posts := []domain.Post{}
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.Slug, &p.Title, &p.Body, &p.Image, &p.Published, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	post := &domain.Post{}

	err := r.db.QueryRowContext(ctx, `
		SELECT slug, title, body, image, published, created_at, updated_at
		FROM posts
		WHERE slug = $1
	`, slug).Scan(&post.Slug, &post.Title, &post.Body, &post.Image, &post.Published, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return post, nil
}

func (r *Repository) Create(ctx context.Context, post *domain.Post) error {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (slug, title, body, image, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, post.Slug, post.Title, post.Body, post.Image, post.Published, now)
	return err
}

func (r *Repository) Update(ctx context.Context, post *domain.Post) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE posts
		SET title = $2, body = $3, image = $4, published = $5, updated_at = NOW()
		WHERE slug = $1
	`, post.Slug, post.Title, post.Body, post.Image, post.Published)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *Repository) Delete(ctx context.Context, slug string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM posts WHERE slug = $1
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
