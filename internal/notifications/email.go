// Package notifications sends learners the outcome of their identity
// verification by e-mail.
package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"learnhub/internal/observability"
)

// Message is a single plain-text plus HTML e-mail.
type Message struct {
	Template string
	To       string
	ToName   string
	Subject  string
	Text     string
	HTML     string
}

// Emailer delivers messages.
type Emailer interface {
	Send(ctx context.Context, msg Message) error
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridEmailer delivers mail through the SendGrid v3 API.
type SendGridEmailer struct {
	client    sendClient
	fromEmail string
	fromName  string
}

// NewSendGridEmailer returns an emailer authenticated with apiKey.
func NewSendGridEmailer(apiKey, fromEmail, fromName string) *SendGridEmailer {
	return &SendGridEmailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *SendGridEmailer) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	} else if err != nil {
		err = fmt.Errorf("failed to send email: %w", err)
	}
	observability.EmailsSent.WithLabelValues(msg.Template, observability.Result(err)).Inc()
	return err
}

// LogEmailer writes messages to the log instead of sending them. It is used
// when no SendGrid key is configured.
type LogEmailer struct {
	Logger *slog.Logger
}

func (l LogEmailer) Send(ctx context.Context, msg Message) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "email not sent (no provider configured)",
		slog.String("template", msg.Template),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	observability.EmailsSent.WithLabelValues(msg.Template, "skipped").Inc()
	return nil
}
