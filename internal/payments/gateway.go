package payments

import (
	"context"
	"errors"

	"github.com/hannalund/shop-backend/internal/domain"
)

// ErrBadSignature is returned when a webhook payload fails signature
// verification. The webhook handler rejects these with a 400 and does no
// further processing.
var ErrBadSignature = errors.New("invalid webhook signature")

// SessionRequest is an assembled, fully priced checkout ready to be turned
// into a hosted payment session.
type SessionRequest struct {
	Currency   string
	Lines      []domain.LineItem
	Shipping   []domain.ShippingOption
	Email      string
	OrderID    string
	SuccessURL string
	CancelURL  string
}

// SessionResult identifies the created session and the hosted payment page
// the shopper is redirected to.
type SessionResult struct {
	ID  string
	URL string
}

// SessionDetail is the read-back view used by the storefront to poll
// payment status after redirect.
type SessionDetail struct {
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
	PaymentStatus string `json:"payment_status"`
	PaymentMethod string `json:"payment_method,omitempty"`
	ReceiptURL    string `json:"receipt_url,omitempty"`
}

// CompletedCheckout is the authoritative detail of a paid session,
// re-fetched from the provider rather than trusted from the event body.
type CompletedCheckout struct {
	SessionID     string
	Amount        int64
	Currency      string
	PaymentStatus string
	Email         string
	Lines         []domain.OrderLine
}

// Gateway abstracts the payment provider. The concrete client is
// constructed once at startup and injected into handlers.
type Gateway interface {
	CreateSession(ctx context.Context, req *SessionRequest) (*SessionResult, error)
	GetSession(ctx context.Context, id string) (*SessionDetail, error)
	// ParseCompletedEvent verifies the event signature and, for completed
	// checkout sessions, returns the re-fetched session detail. Events of
	// any other type yield (nil, nil).
	ParseCompletedEvent(ctx context.Context, payload []byte, signature string) (*CompletedCheckout, error)
}
