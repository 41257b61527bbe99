package bootstrap

import (
	"context"

	"github.com/GregMSThompson/ca-portal/internal/client/mailer"
	"github.com/GregMSThompson/ca-portal/internal/config"
)

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// InitMailer sends through SendGrid when an API key is configured and only logs otherwise.
func InitMailer(cfg *config.Config) Mailer {
	if cfg.SendGridAPIKey == "" {
		return mailer.LogOnly{}
	}
	return mailer.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName)
}
