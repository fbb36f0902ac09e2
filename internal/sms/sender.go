// Package sms delivers one-time codes to phones.
//
// Providers implement Sender. EskizSender talks to the Eskiz gateway used in
// Uzbekistan, TwilioSender to Twilio, and LogSender only logs (development).
// BreakerSender wraps any of them in a circuit breaker so a failing provider
// is not hammered while it is down.
package sms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tbourn/metrosite-backend/internal/config"
)

// Sender delivers a text message to an E.164 phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// CodeMessage renders the text carrying code.
func CodeMessage(prefix, code string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return code
	}
	return prefix + " " + code
}

// MaskPhone hides the middle digits of a phone number for logs.
func MaskPhone(phone string) string {
	if len(phone) <= 6 {
		return strings.Repeat("*", len(phone))
	}
	return phone[:5] + strings.Repeat("*", len(phone)-7) + phone[len(phone)-2:]
}

// SendWithTimeout runs s.Send under a deadline of d.
func SendWithTimeout(ctx context.Context, s Sender, d time.Duration, phone, message string) error {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	if err := s.Send(ctx, phone, message); err != nil {
		return fmt.Errorf("sms to %s: %w", MaskPhone(phone), err)
	}
	return nil
}

// FromConfig builds the provider named by cfg.Provider and wraps it in a
// circuit breaker. The log provider is returned bare.
func FromConfig(cfg config.SMSConfig) (Sender, error) {
	var s Sender
	switch cfg.Provider {
	case "", "log":
		return LogSender{}, nil
	case "eskiz":
		s = NewEskizSender(cfg.Eskiz.BaseURL, cfg.Eskiz.Email, cfg.Eskiz.Password, cfg.Eskiz.From)
	case "twilio":
		s = NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From)
	default:
		return nil, fmt.Errorf("unsupported SMS_PROVIDER %q", cfg.Provider)
	}
	return NewBreakerSender(s, BreakerSettings{Name: cfg.Provider}), nil
}
