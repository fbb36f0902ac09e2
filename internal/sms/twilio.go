package sms

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the part of the Twilio REST API the sender uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender sends plain SMS through Twilio.
type TwilioSender struct {
	api  messageCreator
	from string
}

// NewTwilioSender builds a sender from account credentials.
func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{api: client.Api, from: from}
}

// Send implements Sender. The Twilio client is not context aware, so the
// call runs in its own goroutine and Send returns when ctx ends first.
func (t *TwilioSender) Send(ctx context.Context, phone, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(phone)
	params.SetBody(message)

	done := make(chan error, 1)
	go func() {
		resp, err := t.api.CreateMessage(params)
		if err == nil && resp != nil && resp.Sid != nil {
			zerolog.Ctx(ctx).Debug().Str("sid", *resp.Sid).Msg("twilio message queued")
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
