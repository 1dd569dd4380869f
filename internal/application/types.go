package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicescan/account-service/internal/domain"
)

// Config carries the process-wide policy knobs injected at construction.
// There is deliberately no module-level mutable state.
type Config struct {
	PasswordMinLength     int
	OTPLength             int
	OTPTTL                time.Duration
	TokenTTL              time.Duration
	FailedSignInThreshold int
	LockoutDuration       time.Duration
}

type CreateAccountRequest struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// AccountView is the public projection returned to callers.
// It never carries credential material.
type AccountView struct {
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

type VerifyAccountRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

type ResetPasswordRequest struct {
	Email              string `json:"email"`
	NewPassword        string `json:"new_password"`
	ConfirmNewPassword string `json:"confirm_new_password"`
}

func toAccountView(a domain.Account) AccountView {
	return AccountView{
		AccountID: a.AccountID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Verified:  a.Verified,
		CreatedAt: a.CreatedAt,
	}
}
