package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicescan/account-service/internal/domain"
)

// CreateAccountParams captures atomic account-creation inputs.
// The credential hash is included so account and credential land in one
// transaction and a racing duplicate create cannot leave either half behind.
type CreateAccountParams struct {
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAtUTC time.Time
}

// AccountRepository defines persistence operations for account identities.
// Email uniqueness is enforced here via a storage constraint, never by
// read-then-write.
type AccountRepository interface {
	Create(ctx context.Context, params CreateAccountParams) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	GetByID(ctx context.Context, accountID uuid.UUID) (domain.Account, error)
	// MarkVerified is idempotent; verifying an already-verified account is a
	// no-op success.
	MarkVerified(ctx context.Context, accountID uuid.UUID, verifiedAt time.Time) error
}

// CredentialRepository manages the password hash owned by an account.
// The old hash is fully replaced on reset, never partially mutated.
type CredentialRepository interface {
	GetHash(ctx context.Context, accountID uuid.UUID) (string, error)
	Replace(ctx context.Context, accountID uuid.UUID, passwordHash string, updatedAt time.Time) error
}

// OTPRepository owns the one-live-challenge-per-account invariant.
// Replace supersedes any prior challenge atomically; Consume succeeds at most
// once per challenge even under concurrent calls.
type OTPRepository interface {
	Replace(ctx context.Context, challenge domain.OtpChallenge) error
	Consume(ctx context.Context, accountID uuid.UUID, code string, consumedAt time.Time) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
