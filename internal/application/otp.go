package application

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicescan/account-service/internal/domain"
	"github.com/invoicescan/account-service/internal/ports"
)

// OTPGenerator issues and consumes one-time verification codes.
// The one-live-challenge-per-account and consume-once invariants are enforced
// by the repository; this type owns code generation and TTL placement.
type OTPGenerator struct {
	otps   ports.OTPRepository
	length int
	ttl    time.Duration
	nowFn  func() time.Time
}

func NewOTPGenerator(otps ports.OTPRepository, length int, ttl time.Duration) *OTPGenerator {
	if length <= 0 {
		length = 6
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OTPGenerator{
		otps:   otps,
		length: length,
		ttl:    ttl,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a fresh challenge for the account, superseding any prior
// live challenge.
func (g *OTPGenerator) Issue(ctx context.Context, accountID uuid.UUID) (domain.OtpChallenge, error) {
	code, err := randomDigits(g.length)
	if err != nil {
		return domain.OtpChallenge{}, fmt.Errorf("generate otp code: %w", err)
	}
	now := g.nowFn()
	challenge := domain.OtpChallenge{
		AccountID: accountID,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(g.ttl),
	}
	if err := g.otps.Replace(ctx, challenge); err != nil {
		return domain.OtpChallenge{}, fmt.Errorf("store otp challenge: %w", err)
	}
	return challenge, nil
}

// Consume invalidates the account's live challenge when the presented code
// matches. Mismatch, expiry and absence are indistinguishable to the caller.
func (g *OTPGenerator) Consume(ctx context.Context, accountID uuid.UUID, presented string) error {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return domain.ErrOtpInvalid
	}
	if err := g.otps.Consume(ctx, accountID, presented, g.nowFn()); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrOtpInvalid) {
			return domain.ErrOtpInvalid
		}
		return err
	}
	return nil
}

// randomDigits draws each digit uniformly via rejection sampling so no code
// value is more likely than another.
func randomDigits(size int) (string, error) {
	out := make([]byte, 0, size)
	buf := make([]byte, 1)
	for len(out) < size {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		// 250 is the largest multiple of 10 below 256.
		if buf[0] >= 250 {
			continue
		}
		out = append(out, '0'+buf[0]%10)
	}
	return string(out), nil
}
