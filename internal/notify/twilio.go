package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// TwilioSender posts messages to the Twilio Messages REST resource.
type TwilioSender struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	client     *http.Client
}

func NewTwilioSender(baseURL, accountSID, authToken, from string, client *http.Client) *TwilioSender {
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	return &TwilioSender{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		client:     defaultClient(client),
	}
}

func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.accountSID, s.authToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("twilio api error: status %d: %s", resp.StatusCode, string(payload))
	}

	return nil
}
