package ports

import (
	"context"

	"github.com/google/uuid"
)

const (
	MailKindVerification = "verification"
	MailKindReset        = "reset"
)

// MailIntent is the outbound notification payload handed to the mail-sender
// service. Code is set only for verification intents.
type MailIntent struct {
	Kind      string    `json:"kind"`
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	Code      string    `json:"code,omitempty"`
}

// MailPublisher is the outbound transport port for mail intents.
// Publish returns once the transport has accepted the message; delivery is
// the mail-sender service's responsibility.
type MailPublisher interface {
	Publish(ctx context.Context, intent MailIntent) error
}
