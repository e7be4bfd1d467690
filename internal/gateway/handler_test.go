package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_HandleCheckout(t *testing.T) {
	t.Run("proxies POST /checkout/sessions with body", func(t *testing.T) {
		checkoutServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/checkout/sessions" {
				t.Errorf("expected /checkout/sessions, got %s", r.URL.Path)
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"items":[{"slug":"hanna-jacket","qty":1}]}` {
				t.Errorf("unexpected body: %s", body)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id":"cs_1","url":"https://pay.example.com/cs_1"}`))
		}))
		defer checkoutServer.Close()

		handler := NewHandler(
			NewServiceProxy(checkoutServer.URL, checkoutServer.Client()),
			NewServiceProxy("http://unused", http.DefaultClient),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodPost, "/checkout/sessions",
			strings.NewReader(`{"items":[{"slug":"hanna-jacket","qty":1}]}`))
		rec := httptest.NewRecorder()

		handler.HandleCheckout(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Errorf("expected application/json, got %s", rec.Header().Get("Content-Type"))
		}
	})

	t.Run("forwards the webhook signature header", func(t *testing.T) {
		checkoutServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Stripe-Signature") != "t=1,v1=abc" {
				t.Errorf("expected signature header, got %q", r.Header.Get("Stripe-Signature"))
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer checkoutServer.Close()

		handler := NewHandler(
			NewServiceProxy(checkoutServer.URL, checkoutServer.Client()),
			NewServiceProxy("http://unused", http.DefaultClient),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader("{}"))
		req.Header.Set("Stripe-Signature", "t=1,v1=abc")
		rec := httptest.NewRecorder()

		handler.HandleCheckout(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("returns 502 when the checkout service is unavailable", func(t *testing.T) {
		handler := NewHandler(
			NewServiceProxy("http://localhost:99999", &http.Client{}),
			NewServiceProxy("http://unused", http.DefaultClient),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodPost, "/checkout/sessions", strings.NewReader("{}"))
		rec := httptest.NewRecorder()

		handler.HandleCheckout(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected status 502, got %d", rec.Code)
		}

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["error"] != "service unavailable" {
			t.Errorf("expected 'service unavailable', got %s", resp["error"])
		}
	})
}

func TestHandler_HandleCatalog(t *testing.T) {
	t.Run("proxies product reads and preserves the query string", func(t *testing.T) {
		catalogServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/products/hanna-jacket" {
				t.Errorf("expected /products/hanna-jacket, got %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"slug":"hanna-jacket","price":7900}`))
		}))
		defer catalogServer.Close()

		handler := NewHandler(
			NewServiceProxy("http://unused", http.DefaultClient),
			NewServiceProxy(catalogServer.URL, catalogServer.Client()),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodGet, "/products/hanna-jacket", nil)
		rec := httptest.NewRecorder()

		handler.HandleCatalog(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("preserves downstream error status", func(t *testing.T) {
		catalogServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"product not found"}`))
		}))
		defer catalogServer.Close()

		handler := NewHandler(
			NewServiceProxy("http://unused", http.DefaultClient),
			NewServiceProxy(catalogServer.URL, catalogServer.Client()),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodGet, "/products/unknown", nil)
		rec := httptest.NewRecorder()

		handler.HandleCatalog(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}
