package events

import (
	"context"
	"log/slog"

	"github.com/invoicescan/account-service/internal/ports"
)

// LoggingMailPublisher records mail intents to the structured log instead of
// an external transport. It serves local development runs where no broker is
// available.
type LoggingMailPublisher struct {
	logger *slog.Logger
}

func NewLoggingMailPublisher(logger *slog.Logger) *LoggingMailPublisher {
	return &LoggingMailPublisher{logger: logger}
}

func (p *LoggingMailPublisher) Publish(ctx context.Context, intent ports.MailIntent) error {
	p.logger.InfoContext(ctx, "mail intent (log only)",
		"module", "events",
		"operation", "publish_mail_intent",
		"outcome", "success",
		"kind", intent.Kind,
		"account_id", intent.AccountID.String(),
	)
	return nil
}
