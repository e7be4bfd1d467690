package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ChatSender pushes a staff notification through the chat provider's
// message API (a WhatsApp business endpoint in production).
type ChatSender struct {
	endpoint string
	token    string
	to       string
	client   *http.Client
}

func NewChatSender(endpoint, token, to string, client *http.Client) *ChatSender {
	return &ChatSender{
		endpoint: endpoint,
		token:    token,
		to:       to,
		client:   client,
	}
}

type chatPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (s *ChatSender) Send(ctx context.Context, text string) error {
	data, err := json.Marshal(chatPayload{To: s.to, Body: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("chat provider returned status %d", resp.StatusCode)
	}

	return nil
}
