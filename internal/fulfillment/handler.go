package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hannalund/shop-backend/internal/domain"
)

// StockStore applies the clamped stock decrements for a completed order
// and reports the lines it could not match.
type StockStore interface {
	ApplyStockDecrements(ctx context.Context, lines []domain.OrderLine) ([]domain.OrderLine, error)
}

// EmailNotifier and ChatNotifier are the two best-effort staff
// notifications fired after fulfillment. Their failures never propagate.
type EmailNotifier interface {
	Send(ctx context.Context, subject, text string) error
}

type ChatNotifier interface {
	Send(ctx context.Context, text string) error
}

type Handler struct {
	stock  StockStore
	email  EmailNotifier
	chat   ChatNotifier
	logger *slog.Logger
}

func NewHandler(stock StockStore, email EmailNotifier, chat ChatNotifier, logger *slog.Logger) *Handler {
	return &Handler{
		stock:  stock,
		email:  email,
		chat:   chat,
		logger: logger,
	}
}

// Handle processes one checkout.completed event: decrement stock for every
// purchased variant, then notify staff. Stock and notification failures are
// logged and swallowed; there is no retry and no compensation.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.CheckoutCompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal checkout completed event: %w", err)
	}

	h.logger.Info("processing checkout completed event",
		"session_id", event.SessionID,
		"lines", len(event.Lines),
	)

	skipped, err := h.stock.ApplyStockDecrements(ctx, event.Lines)
	if err != nil {
		h.logger.Error("failed to decrement stock", "error", err, "session_id", event.SessionID)
	}
	for _, line := range skipped {
		h.logger.Warn("no matching variant for purchased line",
			"session_id", event.SessionID,
			"slug", line.Slug,
			"size", line.Size,
			"color", line.Color,
		)
	}

	h.notifyStaff(ctx, event)

	h.logger.Info("fulfillment complete", "session_id", event.SessionID)
	return nil
}

func (h *Handler) notifyStaff(ctx context.Context, event domain.CheckoutCompletedEvent) {
	subject := "New order " + event.SessionID
	text := orderSummary(event)

	var wg sync.WaitGroup

	if h.email != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.email.Send(ctx, subject, text); err != nil {
				h.logger.Error("failed to send order email", "error", err, "session_id", event.SessionID)
			}
		}()
	}

	if h.chat != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.chat.Send(ctx, text); err != nil {
				h.logger.Error("failed to send order chat message", "error", err, "session_id", event.SessionID)
			}
		}()
	}

	wg.Wait()
}

func orderSummary(event domain.CheckoutCompletedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s: %s", event.SessionID, formatAmount(event.Amount, event.Currency))
	if event.Email != "" {
		fmt.Fprintf(&b, " from %s", event.Email)
	}
	for _, line := range event.Lines {
		fmt.Fprintf(&b, "\n%dx %s", line.Quantity, line.Slug)
		if line.Size != "" || line.Color != "" {
			fmt.Fprintf(&b, " (%s/%s)", line.Size, line.Color)
		}
	}
	return b.String()
}

func formatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(minor)/100, strings.ToUpper(currency))
}
