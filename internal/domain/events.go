package domain

import "time"

// CheckoutCompletedEvent is published by the webhook handler once a session
// is confirmed paid, and consumed by the fulfillment worker.
type CheckoutCompletedEvent struct {
	SessionID string      `json:"session_id"`
	Amount    int64       `json:"amount"`
	Currency  string      `json:"currency"`
	Email     string      `json:"email,omitempty"`
	Lines     []OrderLine `json:"lines"`
	Timestamp time.Time   `json:"timestamp"`
}
