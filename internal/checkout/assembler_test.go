package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/hannalund/shop-backend/internal/domain"
)

type fakeCatalogue struct {
	products map[string]*domain.Product
	lookups  int
	err      error
}

func (f *fakeCatalogue) GetBySlug(_ context.Context, slug string) (*domain.Product, error) {
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	return f.products[slug], nil
}

func testConfig() Config {
	return Config{
		StaticPrices:          map[string]int64{"hanna-jacket": 7900},
		FreeShippingThreshold: 10000,
		ShippingFee:           350,
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestAssembler_Assemble(t *testing.T) {
	ctx := context.Background()

	t.Run("static table price, one line per item, order preserved", func(t *testing.T) {
		catalogue := &fakeCatalogue{}
		assembler := NewAssembler(catalogue, testConfig())

		session, err := assembler.Assemble(ctx, []domain.CartItem{
			{Slug: "hanna-jacket", Qty: 2},
			{Slug: "custom", Qty: 1, Amount: floatPtr(500)},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(session.Lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(session.Lines))
		}
		if session.Lines[0].Slug != "hanna-jacket" || session.Lines[1].Slug != "custom" {
			t.Errorf("line order not preserved: %+v", session.Lines)
		}
		if session.Lines[0].UnitAmount != 7900 || session.Lines[0].Quantity != 2 {
			t.Errorf("unexpected first line: %+v", session.Lines[0])
		}
		if session.Subtotal != 2*7900+500 {
			t.Errorf("expected subtotal %d, got %d", 2*7900+500, session.Subtotal)
		}
		if session.Currency != "gbp" {
			t.Errorf("expected currency gbp, got %s", session.Currency)
		}
		if catalogue.lookups != 0 {
			t.Errorf("expected no catalogue lookups, got %d", catalogue.lookups)
		}
	})

	t.Run("full scenario below free shipping threshold", func(t *testing.T) {
		assembler := NewAssembler(&fakeCatalogue{}, testConfig())

		session, err := assembler.Assemble(ctx, []domain.CartItem{{Slug: "hanna-jacket", Qty: 1}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if session.Subtotal != 7900 {
			t.Fatalf("expected subtotal 7900, got %d", session.Subtotal)
		}
		if len(session.Shipping) != 2 {
			t.Fatalf("expected 2 shipping options, got %d", len(session.Shipping))
		}
		if session.Shipping[1].Amount != 350 {
			t.Errorf("expected standard delivery fee 350, got %d", session.Shipping[1].Amount)
		}
	})

	t.Run("full scenario above free shipping threshold", func(t *testing.T) {
		assembler := NewAssembler(&fakeCatalogue{}, testConfig())

		session, err := assembler.Assemble(ctx, []domain.CartItem{{Slug: "hanna-jacket", Qty: 2}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if session.Subtotal != 15800 {
			t.Fatalf("expected subtotal 15800, got %d", session.Subtotal)
		}
		if session.Shipping[1].Amount != 0 {
			t.Errorf("expected free standard delivery, got %d", session.Shipping[1].Amount)
		}
	})

	t.Run("empty cart fails before any lookup", func(t *testing.T) {
		catalogue := &fakeCatalogue{}
		assembler := NewAssembler(catalogue, testConfig())

		_, err := assembler.Assemble(ctx, []domain.CartItem{})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if catalogue.lookups != 0 {
			t.Errorf("expected no catalogue lookups, got %d", catalogue.lookups)
		}
	})

	t.Run("missing slug names the item index", func(t *testing.T) {
		assembler := NewAssembler(&fakeCatalogue{}, testConfig())

		_, err := assembler.Assemble(ctx, []domain.CartItem{
			{Slug: "hanna-jacket", Qty: 1},
			{Slug: "   ", Qty: 1},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if vErr.Error() != "item 2 missing slug" {
			t.Errorf("unexpected message: %q", vErr.Error())
		}
	})

	t.Run("mixed currencies fail", func(t *testing.T) {
		assembler := NewAssembler(&fakeCatalogue{}, testConfig())

		_, err := assembler.Assemble(ctx, []domain.CartItem{
			{Slug: "a", Qty: 1, Amount: floatPtr(100), Currency: "gbp"},
			{Slug: "b", Qty: 1, Amount: floatPtr(100), Currency: "usd"},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if vErr.Error() != "mixed currencies in one session" {
			t.Errorf("unexpected message: %q", vErr.Error())
		}
	})

	t.Run("amount takes priority over price", func(t *testing.T) {
		assembler := NewAssembler(&fakeCatalogue{}, testConfig())

		session, err := assembler.Assemble(ctx, []domain.CartItem{
			{Slug: "x", Qty: 1, Amount: floatPtr(1234), Price: floatPtr(99)},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if session.Lines[0].UnitAmount != 1234 {
			t.Errorf("expected unit amount 1234, got %d", session.Lines[0].UnitAmount)
		}
	})

	t.Run("major-unit price converts to minor units", func(t *testing.T) {
		assembler := NewAssembler(&fakeCatalogue{}, testConfig())

		session, err := assembler.Assemble(ctx, []domain.CartItem{
			{Slug: "x", Qty: 1, Price: floatPtr(79.5)},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if session.Lines[0].UnitAmount != 7950 {
			t.Errorf("expected unit amount 7950, got %d", session.Lines[0].UnitAmount)
		}
	})

	t.Run("price reference wins and is excluded from subtotal", func(t *testing.T) {
		assembler := NewAssembler(&fakeCatalogue{}, testConfig())

		session, err := assembler.Assemble(ctx, []domain.CartItem{
			{Slug: "hanna-jacket", Qty: 3, PriceID: "price_123", Amount: floatPtr(500)},
			{Slug: "x", Qty: 1, Amount: floatPtr(200)},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if session.Lines[0].PriceID != "price_123" {
			t.Errorf("expected price reference, got %+v", session.Lines[0])
		}
		if session.Lines[0].UnitAmount != 0 {
			t.Errorf("expected no inline amount on referenced line, got %d", session.Lines[0].UnitAmount)
		}
		if session.Subtotal != 200 {
			t.Errorf("expected subtotal 200, got %d", session.Subtotal)
		}
	})

	t.Run("live catalogue lookup uses stored price and title", func(t *testing.T) {
		catalogue := &fakeCatalogue{products: map[string]*domain.Product{
			"verity-dress": {
				Slug:   "verity-dress",
				Title:  "Verity Dress",
				Price:  12900,
				Image:  "https://cdn.example.com/img/verity-dress.jpg",
				Active: true,
			},
		}}
		assembler := NewAssembler(catalogue, testConfig())

		session, err := assembler.Assemble(ctx, []domain.CartItem{{Slug: "Verity-Dress", Qty: 1}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		line := session.Lines[0]
		if line.UnitAmount != 12900 || line.Name != "Verity Dress" || line.Image == "" {
			t.Errorf("unexpected line: %+v", line)
		}
		if line.Slug != "verity-dress" {
			t.Errorf("expected normalized slug, got %q", line.Slug)
		}
	})

	t.Run("inactive product does not price", func(t *testing.T) {
		catalogue := &fakeCatalogue{products: map[string]*domain.Product{
			"retired": {Slug: "retired", Price: 5000, Active: false},
		}}
		assembler := NewAssembler(catalogue, testConfig())

		_, err := assembler.Assemble(ctx, []domain.CartItem{{Slug: "retired", Qty: 1}})

		var pErr *PricingError
		if !errors.As(err, &pErr) {
			t.Fatalf("expected pricing error, got %v", err)
		}
		if pErr.Error() != "no price for retired" {
			t.Errorf("unexpected message: %q", pErr.Error())
		}
	})

	t.Run("static table requires default currency", func(t *testing.T) {
		assembler := NewAssembler(&fakeCatalogue{}, testConfig())

		_, err := assembler.Assemble(ctx, []domain.CartItem{
			{Slug: "hanna-jacket", Qty: 1, Currency: "usd"},
		})

		var pErr *PricingError
		if !errors.As(err, &pErr) {
			t.Fatalf("expected pricing error, got %v", err)
		}
	})

	t.Run("quantity is floored at one", func(t *testing.T) {
		assembler := NewAssembler(&fakeCatalogue{}, testConfig())

		session, err := assembler.Assemble(ctx, []domain.CartItem{
			{Slug: "hanna-jacket", Qty: 0},
			{Slug: "hanna-jacket", Qty: 2.7},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if session.Lines[0].Quantity != 1 {
			t.Errorf("expected quantity floored to 1, got %d", session.Lines[0].Quantity)
		}
		if session.Lines[1].Quantity != 2 {
			t.Errorf("expected quantity truncated to 2, got %d", session.Lines[1].Quantity)
		}
	})

	t.Run("catalogue failure surfaces as non-pricing error", func(t *testing.T) {
		catalogue := &fakeCatalogue{err: errors.New("store down")}
		assembler := NewAssembler(catalogue, testConfig())

		_, err := assembler.Assemble(ctx, []domain.CartItem{{Slug: "anything", Qty: 1}})
		if err == nil {
			t.Fatal("expected error")
		}

		var vErr *ValidationError
		var pErr *PricingError
		if errors.As(err, &vErr) || errors.As(err, &pErr) {
			t.Fatalf("expected infrastructure error, got %v", err)
		}
	})
}
