package domain

import "fmt"

const maxPasswordLength = 128

// ValidatePassword enforces the configured password policy.
// The minimum length is a deployment policy, so it is passed in rather than
// fixed here.
func ValidatePassword(password, confirm string, minLength int) error {
	if len(password) < minLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d characters", ErrValidation, maxPasswordLength)
	}
	if password != confirm {
		return fmt.Errorf("%w: password and confirmation do not match", ErrValidation)
	}
	return nil
}
