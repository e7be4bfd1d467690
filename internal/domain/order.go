package domain

import "time"

type OrderStatus string

const (
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusUnpaid    OrderStatus = "unpaid"
	OrderStatusNoPayment OrderStatus = "no_payment_required"
)

// OrderLine is a purchased variant snapshot taken from the payment
// provider's authoritative session detail after payment completes.
type OrderLine struct {
	Slug     string `json:"slug"`
	Size     string `json:"size,omitempty"`
	Color    string `json:"color,omitempty"`
	Quantity int    `json:"quantity"`
	Amount   int64  `json:"amount"`
}

// Order is written once per completed checkout session and never mutated.
type Order struct {
	SessionID string      `json:"session_id"`
	Amount    int64       `json:"amount"`
	Currency  string      `json:"currency"`
	Status    OrderStatus `json:"status"`
	Email     string      `json:"email,omitempty"`
	Lines     []OrderLine `json:"lines"`
	CreatedAt time.Time   `json:"created_at"`
}
