package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmailSender_Send(t *testing.T) {
	t.Run("posts the message with credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer key-123" {
				t.Errorf("unexpected auth header: %q", r.Header.Get("Authorization"))
			}

			var payload emailPayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("failed to decode payload: %v", err)
			}
			if payload.To != "orders@shop.example.com" || payload.Subject != "New order cs_1" {
				t.Errorf("unexpected payload: %+v", payload)
			}

			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		sender := NewEmailSender(server.URL, "key-123", "noreply@shop.example.com", "orders@shop.example.com", server.Client())

		if err := sender.Send(context.Background(), "New order cs_1", "2x hanna-jacket"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		sender := NewEmailSender(server.URL, "bad-key", "a@b", "c@d", server.Client())

		if err := sender.Send(context.Background(), "subject", "text"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestChatSender_Send(t *testing.T) {
	t.Run("posts to the configured recipient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var payload chatPayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("failed to decode payload: %v", err)
			}
			if payload.To != "+447700900000" {
				t.Errorf("unexpected recipient: %q", payload.To)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		sender := NewChatSender(server.URL, "token", "+447700900000", server.Client())

		if err := sender.Send(context.Background(), "New order"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
