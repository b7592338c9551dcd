package mailer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/iliyamo/notes-api/internal/queue"
)

// Dispatcher turns queued mail requests into sent emails.  Its Handle
// method is the queue.Handler run by every consumer.
type Dispatcher struct {
	AppName string
	Sender  Sender
	Log     logrus.FieldLogger
	Timeout time.Duration
}

func NewDispatcher(appName string, sender Sender, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{AppName: appName, Sender: sender, Log: log, Timeout: 30 * time.Second}
}

type breakerState interface {
	State() gobreaker.State
}

// Handle renders and sends req.  Failures are returned to the consumer,
// which logs them; delivery is attempted once.  When the sender sits behind
// a circuit breaker its state is logged with the failure.
func (d *Dispatcher) Handle(ctx context.Context, req queue.MailRequest) error {
	msg, err := Render(d.AppName, req)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	if err := d.Sender.Send(ctx, msg); err != nil {
		if b, ok := d.Sender.(breakerState); ok {
			d.Log.WithFields(logrus.Fields{
				"mail_id": req.ID,
				"kind":    req.Kind,
				"breaker": b.State().String(),
			}).Warn("mail provider failed")
		}
		return err
	}
	d.Log.WithFields(logrus.Fields{
		"mail_id": req.ID,
		"kind":    req.Kind,
		"to":      req.To,
	}).Info("mail sent")
	return nil
}
