// Package mailer renders mail requests and delivers them through the
// configured provider.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/config"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender returns the Sender selected by cfg.Provider.  Incomplete provider
// settings are a configuration error.
func NewSender(cfg config.MailConfig, log logrus.FieldLogger) (Sender, error) {
	switch cfg.Provider {
	case "smtp":
		if cfg.SMTPHost == "" || cfg.SMTPPort == "" || cfg.From == "" {
			return nil, errors.New("invalid SMTP configuration")
		}
		return &SMTPSender{Host: cfg.SMTPHost, Port: cfg.SMTPPort, Username: cfg.SMTPUser, Password: cfg.SMTPPassword, From: cfg.From}, nil
	case "mailgun":
		if cfg.MailgunKey == "" || cfg.MailgunDomain == "" || cfg.From == "" {
			return nil, errors.New("invalid Mailgun configuration")
		}
		return NewMailgunSender(cfg.MailgunDomain, cfg.MailgunKey, cfg.From), nil
	case "sendgrid":
		if cfg.SendGridKey == "" || cfg.From == "" {
			return nil, errors.New("invalid SendGrid configuration")
		}
		return NewSendGridSender(cfg.SendGridKey, cfg.From), nil
	case "log", "":
		return &LogSender{Log: log}, nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

// LogSender records that a message would have been sent.  Used in
// development.  Bodies are not logged: confirmation and recovery mails carry
// live access tokens in their links.
type LogSender struct {
	Log logrus.FieldLogger
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.Log.WithFields(logrus.Fields{
		"to":         msg.To,
		"subject":    msg.Subject,
		"text_bytes": len(msg.Text),
		"html_bytes": len(msg.HTML),
	}).Info("mail (log provider)")
	return nil
}
