// Package email is the outbound mail boundary. The flow treats delivery as
// a black box: send once, surface failure once, no retries.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// LogSender writes emails to the log instead of sending them. Used with
// ENV=local so the verification code is readable from the console.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, html string) error {
	s.logger.Info("verification email (local dev)", "to", to, "subject", subject, "html", html)
	return nil
}

// ResendSender delivers through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func (s *ResendSender) Send(ctx context.Context, to, subject, html string) error {
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewSender picks the implementation for the environment: log-only for
// local, Resend everywhere else.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	if env == "local" {
		return &LogSender{logger: logger}
	}
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}
