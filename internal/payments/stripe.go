package payments

import (
	"context"
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/hannalund/shop-backend/internal/domain"
)

// StripeGateway implements Gateway on top of Stripe Checkout.
type StripeGateway struct {
	api              *client.API
	webhookSecret    string
	allowedCountries []string
}

func NewStripeGateway(apiKey, webhookSecret string, allowedCountries []string) *StripeGateway {
	return &StripeGateway{
		api:              client.New(apiKey, nil),
		webhookSecret:    webhookSecret,
		allowedCountries: allowedCountries,
	}
}

func (g *StripeGateway) CreateSession(ctx context.Context, req *SessionRequest) (*SessionResult, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx

	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	if req.OrderID != "" {
		params.AddMetadata("order_id", req.OrderID)
	}
	if len(g.allowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(g.allowedCountries),
		}
	}

	for _, line := range req.Lines {
		params.LineItems = append(params.LineItems, lineItemParams(line))
	}
	for _, opt := range req.Shipping {
		params.ShippingOptions = append(params.ShippingOptions, shippingOptionParams(opt))
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &SessionResult{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) GetSession(ctx context.Context, id string) (*SessionDetail, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent.latest_charge")

	sess, err := g.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("get checkout session %s: %w", id, err)
	}

	detail := &SessionDetail{
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		PaymentStatus: string(sess.PaymentStatus),
	}

	if sess.PaymentIntent != nil && sess.PaymentIntent.LatestCharge != nil {
		charge := sess.PaymentIntent.LatestCharge
		detail.ReceiptURL = charge.ReceiptURL
		if charge.PaymentMethodDetails != nil {
			detail.PaymentMethod = string(charge.PaymentMethodDetails.Type)
		}
	}

	return detail, nil
}

func (g *StripeGateway) ParseCompletedEvent(ctx context.Context, payload []byte, signature string) (*CompletedCheckout, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return nil, nil
	}

	var received stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &received); err != nil {
		return nil, fmt.Errorf("decode checkout session event: %w", err)
	}

	// The event body may be stale or tampered with, so the line items are
	// re-fetched from the provider before anything is fulfilled.
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")
	params.AddExpand("line_items.data.price.product")

	sess, err := g.api.CheckoutSessions.Get(received.ID, params)
	if err != nil {
		return nil, fmt.Errorf("get checkout session %s: %w", received.ID, err)
	}

	completed := &CompletedCheckout{
		SessionID:     sess.ID,
		Amount:        sess.AmountTotal,
		Currency:      string(sess.Currency),
		PaymentStatus: string(sess.PaymentStatus),
	}
	if sess.CustomerDetails != nil {
		completed.Email = sess.CustomerDetails.Email
	}
	if completed.Email == "" {
		completed.Email = sess.CustomerEmail
	}

	if sess.LineItems != nil {
		for _, li := range sess.LineItems.Data {
			line := domain.OrderLine{
				Quantity: int(li.Quantity),
				Amount:   li.AmountTotal,
			}
			if li.Price != nil && li.Price.Product != nil {
				meta := li.Price.Product.Metadata
				line.Slug = meta["slug"]
				line.Size = meta["size"]
				line.Color = meta["color"]
			}
			completed.Lines = append(completed.Lines, line)
		}
	}

	return completed, nil
}

func lineItemParams(line domain.LineItem) *stripe.CheckoutSessionLineItemParams {
	params := &stripe.CheckoutSessionLineItemParams{
		Quantity: stripe.Int64(int64(line.Quantity)),
	}

	if line.PriceID != "" {
		params.Price = stripe.String(line.PriceID)
		return params
	}

	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(line.Name),
		Metadata: map[string]string{
			"slug":  line.Slug,
			"size":  line.Size,
			"color": line.Color,
		},
	}
	if line.Image != "" {
		productData.Images = []*string{stripe.String(line.Image)}
	}

	params.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency:    stripe.String(line.Currency),
		UnitAmount:  stripe.Int64(line.UnitAmount),
		ProductData: productData,
	}

	return params
}

func shippingOptionParams(opt domain.ShippingOption) *stripe.CheckoutSessionShippingOptionParams {
	return &stripe.CheckoutSessionShippingOptionParams{
		ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
			Type:        stripe.String("fixed_amount"),
			DisplayName: stripe.String(opt.Label),
			FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
				Amount:   stripe.Int64(opt.Amount),
				Currency: stripe.String(opt.Currency),
			},
			DeliveryEstimate: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
				Minimum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
					Unit:  stripe.String("business_day"),
					Value: stripe.Int64(opt.EtaMinDays),
				},
				Maximum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
					Unit:  stripe.String("business_day"),
					Value: stripe.Int64(opt.EtaMaxDays),
				},
			},
		},
	}
}
