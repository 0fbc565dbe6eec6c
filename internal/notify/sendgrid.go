package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// SendGridSender delivers HTML mail through the SendGrid v3 mail/send API.
type SendGridSender struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewSendGridSender(baseURL, apiKey string, client *http.Client) *SendGridSender {
	if baseURL == "" {
		baseURL = "https://api.sendgrid.com"
	}
	return &SendGridSender{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  defaultClient(client),
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridMessage struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

func (s *SendGridSender) SendEmail(ctx context.Context, email Email) error {
	body, err := json.Marshal(sendGridMessage{
		Personalizations: []sendGridPersonalization{{To: []sendGridAddress{{Email: email.To}}}},
		From:             sendGridAddress{Email: email.From},
		Subject:          email.Subject,
		Content:          []sendGridContent{{Type: "text/html", Value: email.HTML}},
	})
	if err != nil {
		return fmt.Errorf("marshal sendgrid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create sendgrid request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid api error: status %d: %s", resp.StatusCode, string(payload))
	}

	return nil
}
