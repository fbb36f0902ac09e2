package sms

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes messages to the logger instead of a phone. It is meant
// for development; the code is logged at debug level only.
type LogSender struct {
	Logger zerolog.Logger
}

// Send implements Sender and never fails.
func (l LogSender) Send(_ context.Context, phone, message string) error {
	l.Logger.Info().Str("phone", MaskPhone(phone)).Msg("sms (log sender)")
	l.Logger.Debug().Str("phone", MaskPhone(phone)).Str("message", message).Msg("sms body")
	return nil
}
