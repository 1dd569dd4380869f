package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Only operations where an existence leak is acceptable (verify, resend,
	// reset) surface it to callers.
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthorized hides whether the email or the password was wrong.
	// The reason is to prevent account-enumeration side channels at sign-in.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrOtpInvalid collapses "no live challenge", "wrong code" and
	// "expired code" into one externally indistinguishable failure.
	ErrOtpInvalid = errors.New("invalid or expired verification code")
	// ErrAccountExists signals an email-uniqueness violation on create.
	ErrAccountExists = errors.New("account already exists")
	// ErrValidation marks malformed or missing caller input.
	ErrValidation = errors.New("invalid input")
	// ErrAccountLocked signals temporary lockout after repeated failed sign-ins.
	ErrAccountLocked = errors.New("account locked")
)
