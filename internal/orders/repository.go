package orders

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/hannalund/shop-backend/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the order record for a completed checkout session. Orders
// are keyed by session id and write-once: a redelivered webhook for a
// session that is already recorded is a no-op.
func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders (session_id, amount, currency, status, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO NOTHING
	`, order.SessionID, order.Amount, order.Currency, order.Status, order.Email, order.CreatedAt)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return nil
	}

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (id, session_id, slug, size, color, quantity, amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.New().String(), order.SessionID, line.Slug, line.Size, line.Color, line.Quantity, line.Amount)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT session_id, amount, currency, status, email, created_at
		FROM orders
		WHERE session_id = $1
	`, sessionID).Scan(&order.SessionID, &order.Amount, &order.Currency, &order.Status, &order.Email, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT slug, size, color, quantity, amount
		FROM order_lines
		WHERE session_id = $1
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.Slug, &line.Size, &line.Color, &line.Quantity, &line.Amount); err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}
