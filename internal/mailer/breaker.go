package mailer

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSender guards a Sender with a circuit breaker.  Once the provider
// keeps failing, sends fail fast with gobreaker.ErrOpenState until the
// timeout elapses and a trial send succeeds.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerSender(name string, next Sender) *BreakerSender {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 100,
		Interval:    5 * time.Second,
		Timeout:     3 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	})
	return &BreakerSender{next: next, cb: cb}
}

func (s *BreakerSender) Send(ctx context.Context, msg Message) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Send(ctx, msg)
	})
	return err
}

// State exposes the breaker state; Dispatcher logs it with failed sends.
func (s *BreakerSender) State() gobreaker.State {
	return s.cb.State()
}
