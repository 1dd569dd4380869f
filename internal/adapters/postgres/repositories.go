package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/invoicescan/account-service/internal/domain"
	"github.com/invoicescan/account-service/internal/ports"
)

// Repositories bundles the Postgres-backed persistence adapters that share
// one connection pool.
type Repositories struct {
	Accounts    ports.AccountRepository
	Credentials ports.CredentialRepository
	OTPs        ports.OTPRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Accounts:    &accountRepository{db: db},
		Credentials: &credentialRepository{db: db},
		OTPs:        &otpRepository{db: db},
	}
}

type accountRepository struct {
	db *gorm.DB
}

// Create inserts the account and its credential in one transaction. The
// unique index on email decides the winner between racing duplicates.
func (r *accountRepository) Create(ctx context.Context, params ports.CreateAccountParams) (domain.Account, error) {
	account := accountModel{
		Email:     params.Email,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Verified:  false,
		CreatedAt: params.CreatedAtUTC,
		UpdatedAt: params.CreatedAtUTC,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrAccountExists
			}
			return fmt.Errorf("insert account: %w", err)
		}
		credential := credentialModel{
			AccountID:    account.AccountID,
			PasswordHash: params.PasswordHash,
			UpdatedAt:    params.CreatedAtUTC,
		}
		if err := tx.Create(&credential).Error; err != nil {
			return fmt.Errorf("insert credential: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	return account.toDomain(), nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	var m accountModel
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("get account by email: %w", err)
	}
	return m.toDomain(), nil
}

func (r *accountRepository) GetByID(ctx context.Context, accountID uuid.UUID) (domain.Account, error) {
	var m accountModel
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("get account by id: %w", err)
	}
	return m.toDomain(), nil
}

func (r *accountRepository) MarkVerified(ctx context.Context, accountID uuid.UUID, verifiedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("account_id = ?", accountID).
		Updates(map[string]any{
			"verified":   true,
			"updated_at": verifiedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("mark account verified: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type credentialRepository struct {
	db *gorm.DB
}

func (r *credentialRepository) GetHash(ctx context.Context, accountID uuid.UUID) (string, error) {
	var m credentialModel
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get credential hash: %w", err)
	}
	return m.PasswordHash, nil
}

// Replace upserts the credential row so a reset fully supersedes the old
// hash in one statement.
func (r *credentialRepository) Replace(ctx context.Context, accountID uuid.UUID, passwordHash string, updatedAt time.Time) error {
	m := credentialModel{
		AccountID:    accountID,
		PasswordHash: passwordHash,
		UpdatedAt:    updatedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("replace credential: %w", err)
	}
	return nil
}

type otpRepository struct {
	db *gorm.DB
}

// Replace upserts the single challenge row for the account, superseding any
// previous code and clearing a prior consumption marker.
func (r *otpRepository) Replace(ctx context.Context, challenge domain.OtpChallenge) error {
	m := otpChallengeModel{
		AccountID:  challenge.AccountID,
		Code:       challenge.Code,
		IssuedAt:   challenge.IssuedAt,
		ExpiresAt:  challenge.ExpiresAt,
		ConsumedAt: nil,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "issued_at", "expires_at", "consumed_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("replace otp challenge: %w", err)
	}
	return nil
}

// Consume marks the live challenge consumed under a row lock so at most one
// concurrent caller wins. Anything short of a live exact match reports
// domain.ErrNotFound; the caller decides how much to reveal.
func (r *otpRepository) Consume(ctx context.Context, accountID uuid.UUID, code string, consumedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m otpChallengeModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("account_id = ? AND code = ? AND consumed_at IS NULL AND expires_at > ?", accountID, code, consumedAt).
			First(&m).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("lock otp challenge: %w", err)
		}

		res := tx.Model(&otpChallengeModel{}).
			Where("account_id = ?", accountID).
			Update("consumed_at", consumedAt)
		if res.Error != nil {
			return fmt.Errorf("consume otp challenge: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *otpRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", before).
		Delete(&otpChallengeModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge expired otp challenges: %w", res.Error)
	}
	return res.RowsAffected, nil
}
