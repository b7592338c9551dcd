// Package queue defines the mail request payload and the transports that
// carry it from request handlers to the mail worker.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MailKind selects the template used to render a MailRequest.
type MailKind string

const (
	KindRegistration      MailKind = "registration"
	KindEmailConfirmation MailKind = "email_confirmation"
	KindEmailConfirmed    MailKind = "email_confirmed"
	KindPasswordRecovery  MailKind = "password_recovery"
	KindTest              MailKind = "test"
)

// MailRequest is published when a flow needs an email sent.  It carries
// everything the worker needs, so consumers never query the database.
type MailRequest struct {
	ID          string    `json:"id"`
	Kind        MailKind  `json:"kind"`
	To          string    `json:"to"`
	Name        string    `json:"name,omitempty"`
	Link        string    `json:"link,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewMailRequest stamps a request with a fresh id and the current time.
func NewMailRequest(kind MailKind, to, name, link string) MailRequest {
	return MailRequest{
		ID:          uuid.NewString(),
		Kind:        kind,
		To:          to,
		Name:        name,
		Link:        link,
		RequestedAt: time.Now().UTC(),
	}
}

// Handler processes one request.  Errors are logged by the consumer; the
// message is not retried.
type Handler func(ctx context.Context, req MailRequest) error

func decode(body []byte) (MailRequest, error) {
	var req MailRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return MailRequest{}, fmt.Errorf("unmarshal: %w", err)
	}
	if req.To == "" || req.Kind == "" {
		return MailRequest{}, fmt.Errorf("incomplete mail request %q", req.ID)
	}
	return req, nil
}
