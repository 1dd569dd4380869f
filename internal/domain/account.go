package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is the canonical identity record owned by this service.
// Credential material is stored separately so it can be rotated without
// touching the account row.
type Account struct {
	AccountID uuid.UUID
	Email     string
	FirstName string
	LastName  string
	Verified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OtpChallenge is the ephemeral email-verification artifact.
// At most one live challenge exists per account; issuing a new one replaces
// any prior challenge, and a challenge is consumed at most once.
type OtpChallenge struct {
	AccountID  uuid.UUID
	Code       string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// Live reports whether the challenge can still be consumed at the given time.
func (c OtpChallenge) Live(now time.Time) bool {
	return c.ConsumedAt == nil && c.ExpiresAt.After(now)
}
