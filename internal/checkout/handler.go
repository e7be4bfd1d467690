package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hannalund/shop-backend/internal/domain"
	"github.com/hannalund/shop-backend/internal/messaging"
	"github.com/hannalund/shop-backend/internal/payments"
)

// Stripe does not bound event payloads; checkout.session.completed events
// grow with cart size, so the cap only guards against pathological bodies.
const maxWebhookBody = 1 << 20

// OrderStore persists the write-once order record for a completed session.
type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
}

type Handler struct {
	assembler  *Assembler
	gateway    payments.Gateway
	orders     OrderStore
	producer   *messaging.Producer
	siteOrigin string
	logger     *slog.Logger
}

func NewHandler(assembler *Assembler, gateway payments.Gateway, orders OrderStore, producer *messaging.Producer, siteOrigin string, logger *slog.Logger) *Handler {
	return &Handler{
		assembler:  assembler,
		gateway:    gateway,
		orders:     orders,
		producer:   producer,
		siteOrigin: siteOrigin,
		logger:     logger,
	}
}

type createSessionRequest struct {
	Items     []domain.CartItem `json:"items"`
	Email     string            `json:"email,omitempty"`
	OrderID   string            `json:"orderId,omitempty"`
	ReturnURL string            `json:"returnUrl,omitempty"`
}

type createSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.assembler.Assemble(r.Context(), req.Items)
	if err != nil {
		var vErr *ValidationError
		var pErr *PricingError
		switch {
		case errors.As(err, &vErr), errors.As(err, &pErr):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to assemble session", "error", err)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	successURL := req.ReturnURL
	if successURL == "" {
		successURL = h.siteOrigin + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	}

	result, err := h.gateway.CreateSession(r.Context(), &payments.SessionRequest{
		Currency:   session.Currency,
		Lines:      session.Lines,
		Shipping:   session.Shipping,
		Email:      req.Email,
		OrderID:    req.OrderID,
		SuccessURL: successURL,
		CancelURL:  h.siteOrigin + "/cart",
	})
	if err != nil {
		h.logger.Error("failed to create payment session", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("checkout session created",
		"session_id", result.ID,
		"currency", session.Currency,
		"subtotal", session.Subtotal,
		"lines", len(session.Lines),
	)
	h.writeJSON(w, http.StatusOK, createSessionResponse{ID: result.ID, URL: result.URL})
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	detail, err := h.gateway.GetSession(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get payment session", "error", err, "session_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("checkout session retrieved", "session_id", id, "payment_status", detail.PaymentStatus)
	h.writeJSON(w, http.StatusOK, detail)
}

// HandleWebhook receives signed provider events. A bad signature is the only
// 400; once the signature passes the response is always 200 {received: true},
// whatever happens downstream.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unreadable payload")
		return
	}

	completed, err := h.gateway.ParseCompletedEvent(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payments.ErrBadSignature) {
			h.logger.Warn("webhook signature verification failed", "error", err)
			h.writeError(w, http.StatusBadRequest, "invalid signature")
			return
		}
		h.logger.Error("failed to process webhook event", "error", err)
		h.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if completed != nil {
		h.fulfill(r.Context(), completed)
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) fulfill(ctx context.Context, completed *payments.CompletedCheckout) {
	order := &domain.Order{
		SessionID: completed.SessionID,
		Amount:    completed.Amount,
		Currency:  completed.Currency,
		Status:    orderStatus(completed.PaymentStatus),
		Email:     completed.Email,
		Lines:     completed.Lines,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.orders.Create(ctx, order); err != nil {
		h.logger.Error("failed to record order", "error", err, "session_id", completed.SessionID)
	}

	if h.producer != nil {
		event := domain.CheckoutCompletedEvent{
			SessionID: completed.SessionID,
			Amount:    completed.Amount,
			Currency:  completed.Currency,
			Email:     completed.Email,
			Lines:     completed.Lines,
			Timestamp: time.Now().UTC(),
		}
		if err := h.producer.Publish(ctx, completed.SessionID, event); err != nil {
			h.logger.Error("failed to publish checkout completed event", "error", err, "session_id", completed.SessionID)
		}
	}

	h.logger.Info("checkout completed",
		"session_id", completed.SessionID,
		"amount", completed.Amount,
		"currency", completed.Currency,
	)
}

func orderStatus(paymentStatus string) domain.OrderStatus {
	switch paymentStatus {
	case "paid":
		return domain.OrderStatusPaid
	case "no_payment_required":
		return domain.OrderStatusNoPayment
	default:
		return domain.OrderStatusUnpaid
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
