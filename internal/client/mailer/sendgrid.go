package mailer

import (
	"context"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGrid struct {
	client sendClient
	from   *mail.Email
}

func NewSendGrid(apiKey, fromAddress, fromName string) *SendGrid {
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
	}
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	to := mail.NewEmail(msg.ToName, msg.To)
	email := mail.NewSingleEmail(s.from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return errs.NewExternalServiceError("sendgrid", "failed to send email", true, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		transient := resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests
		return errs.NewExternalServiceError("sendgrid", "email rejected: "+resp.Body, transient, nil)
	}

	logger.FromContext(ctx).Debug("email sent", "subject", msg.Subject, "status", resp.StatusCode)
	return nil
}

// LogOnly replaces SendGrid when no API key is configured.
type LogOnly struct{}

func (LogOnly) Send(ctx context.Context, msg Message) error {
	logger.FromContext(ctx).Info("email delivery disabled, message dropped", "subject", msg.Subject)
	return nil
}
