package postgres

import (
	"time"

	"github.com/google/uuid"

	"github.com/invoicescan/account-service/internal/domain"
)

type accountModel struct {
	AccountID uuid.UUID `gorm:"column:account_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Email     string    `gorm:"column:email"`
	FirstName string    `gorm:"column:first_name"`
	LastName  string    `gorm:"column:last_name"`
	Verified  bool      `gorm:"column:verified"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (accountModel) TableName() string { return "accounts" }

func (m accountModel) toDomain() domain.Account {
	return domain.Account{
		AccountID: m.AccountID,
		Email:     m.Email,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Verified:  m.Verified,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type credentialModel struct {
	AccountID    uuid.UUID `gorm:"column:account_id;type:uuid;primaryKey"`
	PasswordHash string    `gorm:"column:password_hash"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (credentialModel) TableName() string { return "account_credentials" }

type otpChallengeModel struct {
	AccountID  uuid.UUID  `gorm:"column:account_id;type:uuid;primaryKey"`
	Code       string     `gorm:"column:code"`
	IssuedAt   time.Time  `gorm:"column:issued_at"`
	ExpiresAt  time.Time  `gorm:"column:expires_at"`
	ConsumedAt *time.Time `gorm:"column:consumed_at"`
}

func (otpChallengeModel) TableName() string { return "otp_challenges" }
