package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/invoicescan/account-service/internal/domain"
	"github.com/invoicescan/account-service/internal/ports"
)

// Service orchestrates the account lifecycle: create, verify, resend,
// sign-in and password reset. All persistence and transport concerns live
// behind ports; every infrastructure error is translated into one of the
// domain error kinds before it reaches the caller.
type Service struct {
	cfg         Config
	accounts    ports.AccountRepository
	credentials ports.CredentialRepository
	otp         *OTPGenerator
	lockouts    ports.LockoutStore
	hasher      ports.PasswordHasher
	tokenSigner ports.TokenSigner
	dispatcher  *Dispatcher
	logger      *slog.Logger
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Accounts    ports.AccountRepository
	Credentials ports.CredentialRepository
	OTP         *OTPGenerator
	Lockouts    ports.LockoutStore
	Hasher      ports.PasswordHasher
	TokenSigner ports.TokenSigner
	Dispatcher  *Dispatcher
	Logger      *slog.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:         deps.Config,
		accounts:    deps.Accounts,
		credentials: deps.Credentials,
		otp:         deps.OTP,
		lockouts:    deps.Lockouts,
		hasher:      deps.Hasher,
		tokenSigner: deps.TokenSigner,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateAccount registers a new unverified account, issues its first OTP
// challenge and dispatches the verification email best-effort.
func (s *Service) CreateAccount(ctx context.Context, req CreateAccountRequest) (AccountView, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return AccountView{}, err
	}
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" {
		return AccountView{}, fmt.Errorf("%w: first name is required", domain.ErrValidation)
	}
	if lastName == "" {
		return AccountView{}, fmt.Errorf("%w: last name is required", domain.ErrValidation)
	}
	if err := domain.ValidatePassword(req.Password, req.ConfirmPassword, s.cfg.PasswordMinLength); err != nil {
		return AccountView{}, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return AccountView{}, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.accounts.Create(ctx, ports.CreateAccountParams{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		CreatedAtUTC: s.nowFn(),
	})
	if err != nil {
		return AccountView{}, err
	}

	// The account exists from here on. OTP issuance and dispatch failures
	// degrade to a resend, they do not undo the create.
	challenge, err := s.otp.Issue(ctx, account.AccountID)
	if err != nil {
		s.logger.ErrorContext(ctx, "initial otp issuance failed",
			"module", "auth",
			"operation", "create_account",
			"outcome", "degraded",
			"account_id", account.AccountID,
			"error", err,
		)
		return toAccountView(account), nil
	}
	s.dispatch(ctx, "create_account", ports.MailIntent{
		Kind:      ports.MailKindVerification,
		AccountID: account.AccountID,
		Email:     account.Email,
		FirstName: account.FirstName,
		Code:      challenge.Code,
	})
	return toAccountView(account), nil
}

// VerifyAccount consumes the live OTP challenge and flips the account to
// verified. A spent or expired code fails even if the account is already
// verified.
func (s *Service) VerifyAccount(ctx context.Context, req VerifyAccountRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.otp.Consume(ctx, account.AccountID, req.OTP); err != nil {
		return err
	}
	return s.accounts.MarkVerified(ctx, account.AccountID, s.nowFn())
}

// ResendVerification issues a fresh challenge, superseding any prior live
// code, and dispatches it best-effort. The existence leak on unknown email
// is accepted for this operation.
func (s *Service) ResendVerification(ctx context.Context, req ResendVerificationRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	challenge, err := s.otp.Issue(ctx, account.AccountID)
	if err != nil {
		return err
	}
	s.dispatch(ctx, "resend_verification", ports.MailIntent{
		Kind:      ports.MailKindVerification,
		AccountID: account.AccountID,
		Email:     account.Email,
		FirstName: account.FirstName,
		Code:      challenge.Code,
	})
	return nil
}

// SignIn authenticates the credential and mints a session token. Unknown
// email and wrong password are indistinguishable to the caller. The verified
// flag is embedded in the token but does not gate sign-in.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (SignInResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return SignInResponse{}, err
	}

	lockKey := "signin:" + email
	lockState, err := s.lockouts.Get(ctx, lockKey)
	if err == nil && lockState.LockedUntil != nil && lockState.LockedUntil.After(s.nowFn()) {
		return SignInResponse{}, domain.ErrAccountLocked
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		// Burn a hash so a missing account costs the same as a mismatch.
		_, _ = s.hasher.Hash(req.Password)
		s.recordSignInFailure(ctx, lockKey)
		return SignInResponse{}, domain.ErrUnauthorized
	}

	storedHash, err := s.credentials.GetHash(ctx, account.AccountID)
	if err != nil {
		// Missing or corrupted credential records surface as the same
		// generic failure as a bad password.
		s.logger.ErrorContext(ctx, "credential lookup failed",
			"module", "auth",
			"operation", "sign_in",
			"outcome", "failure",
			"account_id", account.AccountID,
			"error", err,
		)
		s.recordSignInFailure(ctx, lockKey)
		return SignInResponse{}, domain.ErrUnauthorized
	}
	if err := s.hasher.Compare(storedHash, req.Password); err != nil {
		s.recordSignInFailure(ctx, lockKey)
		return SignInResponse{}, domain.ErrUnauthorized
	}

	_ = s.lockouts.Clear(ctx, lockKey)

	now := s.nowFn()
	token, err := s.tokenSigner.Sign(ports.SessionClaims{
		AccountID: account.AccountID,
		Email:     account.Email,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Verified:  account.Verified,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
	})
	if err != nil {
		return SignInResponse{}, fmt.Errorf("sign token: %w", err)
	}
	return SignInResponse{
		Token:     token,
		ExpiresIn: int64(s.cfg.TokenTTL.Seconds()),
	}, nil
}

// ResetPassword replaces the account credential with a hash of the new
// password and dispatches a confirmation email best-effort.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := domain.ValidatePassword(req.NewPassword, req.ConfirmNewPassword, s.cfg.PasswordMinLength); err != nil {
		return err
	}
	passwordHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.credentials.Replace(ctx, account.AccountID, passwordHash, s.nowFn()); err != nil {
		return err
	}
	s.dispatch(ctx, "reset_password", ports.MailIntent{
		Kind:      ports.MailKindReset,
		AccountID: account.AccountID,
		Email:     account.Email,
		FirstName: account.FirstName,
	})
	return nil
}

// ValidateToken checks signature and expiry only; the verified flag inside
// is a snapshot from issuance, not a live lookup.
func (s *Service) ValidateToken(token string) (ports.SessionClaims, error) {
	claims, err := s.tokenSigner.ParseAndValidate(token)
	if err != nil {
		return ports.SessionClaims{}, domain.ErrUnauthorized
	}
	return claims, nil
}

// dispatch enqueues a mail intent and downgrades any failure to a warning.
// Account operations never fail on notification problems.
func (s *Service) dispatch(ctx context.Context, operation string, intent ports.MailIntent) {
	if err := s.dispatcher.Enqueue(ctx, intent); err != nil {
		s.logger.WarnContext(ctx, "notification dispatch failed",
			"module", "auth",
			"operation", operation,
			"outcome", "degraded",
			"kind", intent.Kind,
			"account_id", intent.AccountID,
			"error", err,
		)
	}
}

func (s *Service) recordSignInFailure(ctx context.Context, lockKey string) {
	_, _ = s.lockouts.RecordFailure(ctx, lockKey, s.nowFn(), s.cfg.FailedSignInThreshold, s.cfg.LockoutDuration)
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	return trimmed, nil
}
