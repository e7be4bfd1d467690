package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// EmailSender posts transactional mail to the mail provider's HTTP API.
type EmailSender struct {
	endpoint string
	apiKey   string
	from     string
	to       string
	client   *http.Client
}

func NewEmailSender(endpoint, apiKey, from, to string, client *http.Client) *EmailSender {
	return &EmailSender{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		to:       to,
		client:   client,
	}
}

type emailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

func (s *EmailSender) Send(ctx context.Context, subject, text string) error {
	data, err := json.Marshal(emailPayload{
		From:    s.from,
		To:      s.to,
		Subject: subject,
		Text:    text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail provider returned status %d", resp.StatusCode)
	}

	return nil
}
