// Package notify delivers OTP codes and account links over SMS and email.
// Delivery is best effort: callers go through a Dispatcher, which never
// reports failures back to the request path.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"medhistory/pkg/utils"

	"go.uber.org/zap"
)

const defaultHTTPTimeout = 10 * time.Second

type Email struct {
	From    string
	To      string
	Subject string
	HTML    string
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type EmailSender interface {
	SendEmail(ctx context.Context, email Email) error
}

// MailQueue hands an email to a background worker instead of sending it inline.
type MailQueue interface {
	Enqueue(ctx context.Context, email Email) error
}

// NewSMSSender builds the configured SMS driver.
func NewSMSSender(cfg utils.SMSConfig, log *zap.Logger) (SMSSender, error) {
	switch cfg.Driver {
	case "twilio":
		if cfg.TwilioSID == "" || cfg.TwilioToken == "" || cfg.TwilioFrom == "" {
			return nil, fmt.Errorf("twilio driver requires account sid, auth token and sender")
		}
		return NewTwilioSender(cfg.TwilioURL, cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom, nil), nil
	case "log", "":
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unknown sms driver %q", cfg.Driver)
	}
}

// NewEmailSender builds the configured email driver.
func NewEmailSender(cfg utils.EmailConfig, log *zap.Logger) (EmailSender, error) {
	switch cfg.Driver {
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid driver requires an api key")
		}
		return NewSendGridSender(cfg.SendGridURL, cfg.SendGridAPIKey, nil), nil
	case "smtp":
		if cfg.Host == "" {
			return nil, fmt.Errorf("smtp driver requires a host")
		}
		return NewSMTPSender(cfg.Host, cfg.Port, cfg.User, cfg.Password), nil
	case "log", "":
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unknown email driver %q", cfg.Driver)
	}
}

func defaultClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// LogSender writes messages to the log instead of delivering them.
// Meant for local development only: it logs OTP codes in clear.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.With(zap.String("notifier", "log"))}
}

func (s *LogSender) SendSMS(ctx context.Context, to, body string) error {
	s.log.Info("SMS", zap.String("to", to), zap.String("body", body))
	return nil
}

func (s *LogSender) SendEmail(ctx context.Context, email Email) error {
	s.log.Info("Email",
		zap.String("from", email.From),
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("html", email.HTML),
	)
	return nil
}
