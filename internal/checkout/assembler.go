package checkout

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/hannalund/shop-backend/internal/domain"
)

const DefaultCurrency = "gbp"

// Catalogue is the read-only product lookup used as the last price
// resolution step. A nil product with a nil error means "not found".
type Catalogue interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
}

// Config carries the variation points of session assembly. Historically
// these were re-derived per call site; they are injected once here.
type Config struct {
	// DefaultCurrency applies when an item names no currency. Empty means
	// DefaultCurrency ("gbp").
	DefaultCurrency string
	// StaticPrices maps slug to a minor-unit price, consulted only for the
	// default currency.
	StaticPrices map[string]int64
	// FreeShippingThreshold is the minor-unit subtotal at or above which
	// standard delivery is free.
	FreeShippingThreshold int64
	// ShippingFee is the minor-unit flat fee below the threshold.
	ShippingFee int64
}

func (c Config) defaultCurrency() string {
	if c.DefaultCurrency == "" {
		return DefaultCurrency
	}
	return c.DefaultCurrency
}

// Session is a fully priced checkout request, ready to hand to the payment
// gateway. Lines mirror the input cart order exactly.
type Session struct {
	Currency string
	Lines    []domain.LineItem
	Subtotal int64
	Shipping []domain.ShippingOption
}

// Assembler turns an untrusted cart payload into a validated, priced
// session request. It reads the catalogue but never writes anything.
type Assembler struct {
	catalogue Catalogue
	cfg       Config
}

func NewAssembler(catalogue Catalogue, cfg Config) *Assembler {
	return &Assembler{catalogue: catalogue, cfg: cfg}
}

// Assemble prices every cart item and selects shipping options. Any single
// unresolvable item aborts the whole session: the storefront reports the
// failing item to the shopper, so errors name the item or slug.
//
// Per item the price is resolved in strict priority order: an external
// price reference, an explicit minor-unit amount, an explicit major-unit
// price, the static price table (default currency only), then a live
// catalogue lookup.
func (a *Assembler) Assemble(ctx context.Context, items []domain.CartItem) (*Session, error) {
	if len(items) == 0 {
		return nil, validationf("cart is empty")
	}

	s := &Session{Lines: make([]domain.LineItem, 0, len(items))}

	for idx, item := range items {
		slug := strings.ToLower(strings.TrimSpace(item.Slug))
		if slug == "" {
			return nil, validationf("item %d missing slug", idx+1)
		}

		qty := int(item.Qty)
		if qty < 1 {
			qty = 1
		}

		currency := strings.ToLower(strings.TrimSpace(item.Currency))
		if currency == "" {
			currency = a.cfg.defaultCurrency()
		}
		if s.Currency == "" {
			s.Currency = currency
		} else if s.Currency != currency {
			return nil, validationf("mixed currencies in one session")
		}

		if item.PriceID != "" {
			// Externally priced items carry no amount we can see, so they
			// contribute nothing to the shipping-threshold subtotal.
			s.Lines = append(s.Lines, domain.LineItem{
				Quantity: qty,
				PriceID:  item.PriceID,
				Slug:     slug,
				Size:     item.Size,
				Color:    item.Color,
			})
			continue
		}

		line := domain.LineItem{
			Quantity: qty,
			Currency: currency,
			Name:     slug,
			Slug:     slug,
			Size:     item.Size,
			Color:    item.Color,
		}

		unit, err := a.resolvePrice(ctx, slug, currency, item, &line)
		if err != nil {
			return nil, err
		}

		line.UnitAmount = unit
		s.Subtotal += unit * int64(qty)
		s.Lines = append(s.Lines, line)
	}

	s.Shipping = ShippingOptions(s.Subtotal, s.Currency, a.cfg)
	return s, nil
}

func (a *Assembler) resolvePrice(ctx context.Context, slug, currency string, item domain.CartItem, line *domain.LineItem) (int64, error) {
	if item.Amount != nil {
		if unit := int64(math.Round(*item.Amount)); unit > 0 {
			return unit, nil
		}
	}

	if item.Price != nil {
		if unit := int64(math.Round(*item.Price * 100)); unit > 0 {
			return unit, nil
		}
	}

	if currency == a.cfg.defaultCurrency() {
		if unit, ok := a.cfg.StaticPrices[slug]; ok && unit > 0 {
			return unit, nil
		}
	}

	product, err := a.catalogue.GetBySlug(ctx, slug)
	if err != nil {
		return 0, fmt.Errorf("look up product %q: %w", slug, err)
	}
	if product != nil && product.Active && product.Price > 0 {
		line.Name = product.Title
		line.Image = product.Image
		return product.Price, nil
	}

	return 0, &PricingError{Slug: slug}
}
