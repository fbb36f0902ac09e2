package sms

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tbourn/metrosite-backend/internal/observability"
)

// BreakerSettings tunes BreakerSender. Zero values take the defaults.
type BreakerSettings struct {
	Name             string        // metric label, default "sms"
	FailureThreshold uint32        // consecutive failures before opening, default 5
	CoolDown         time.Duration // open -> half-open, default 30s
}

// BreakerSender guards a Sender with a circuit breaker. While the circuit is
// open Send fails immediately with gobreaker.ErrOpenState.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerSender wraps next.
func NewBreakerSender(next Sender, s BreakerSettings) *BreakerSender {
	if s.Name == "" {
		s.Name = "sms"
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.CoolDown <= 0 {
		s.CoolDown = 30 * time.Second
	}
	observability.SMSBreakerState.WithLabelValues(s.Name).Set(0)

	threshold := s.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.CoolDown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("sms breaker state change")
			observability.SMSBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return &BreakerSender{next: next, cb: cb}
}

// Send implements Sender.
func (b *BreakerSender) Send(ctx context.Context, phone, message string) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Send(ctx, phone, message)
	})
	return err
}

// State exposes the breaker state.
func (b *BreakerSender) State() gobreaker.State { return b.cb.State() }

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}
