package service

import (
	"context"

	"github.com/oatext/internal/logging"
)

// Mailer delivers outbound email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, body string) error {
	logging.Log.WithField("to", to).WithField("subject", subject).Info("outbound email")
	return nil
}
