package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicescan/account-service/internal/domain"
	"github.com/invoicescan/account-service/internal/ports"
)

func TestCreateVerifySignInResetLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	account, err := f.service.CreateAccount(ctx, CreateAccountRequest{
		Email:           "user@example.com",
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Password:        "SecurePass123!",
		ConfirmPassword: "SecurePass123!",
	})
	if err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	if account.AccountID == uuid.Nil {
		t.Fatalf("create returned empty account id")
	}
	if account.Verified {
		t.Fatalf("new account must start unverified")
	}

	code := f.otps.liveCode(account.AccountID)
	if len(code) != 6 {
		t.Fatalf("expected 6-digit otp, got %q", code)
	}

	if err := f.service.VerifyAccount(ctx, VerifyAccountRequest{
		Email: "user@example.com",
		OTP:   code,
	}); err != nil {
		t.Fatalf("verify account failed: %v", err)
	}
	stored, err := f.accounts.GetByID(ctx, account.AccountID)
	if err != nil {
		t.Fatalf("load account failed: %v", err)
	}
	if !stored.Verified {
		t.Fatalf("expected account verified after otp consumption")
	}

	signInRes, err := f.service.SignIn(ctx, SignInRequest{
		Email:    "user@example.com",
		Password: "SecurePass123!",
	})
	if err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if signInRes.Token == "" {
		t.Fatalf("sign in token should not be empty")
	}
	claims, err := f.service.ValidateToken(signInRes.Token)
	if err != nil {
		t.Fatalf("validate token failed: %v", err)
	}
	if claims.AccountID != account.AccountID || !claims.Verified {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if err := f.service.ResetPassword(ctx, ResetPasswordRequest{
		Email:              "user@example.com",
		NewPassword:        "BrandNewPass456!",
		ConfirmNewPassword: "BrandNewPass456!",
	}); err != nil {
		t.Fatalf("reset password failed: %v", err)
	}
	if _, err := f.service.SignIn(ctx, SignInRequest{
		Email:    "user@example.com",
		Password: "SecurePass123!",
	}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("old password should be rejected after reset, got %v", err)
	}
	if _, err := f.service.SignIn(ctx, SignInRequest{
		Email:    "user@example.com",
		Password: "BrandNewPass456!",
	}); err != nil {
		t.Fatalf("new password should sign in after reset: %v", err)
	}
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	req := CreateAccountRequest{
		Email:           "dupe@example.com",
		FirstName:       "First",
		LastName:        "User",
		Password:        "SecurePass123!",
		ConfirmPassword: "SecurePass123!",
	}
	if _, err := f.service.CreateAccount(ctx, req); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := f.service.CreateAccount(ctx, req); !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestCreateAccountConcurrentDuplicateOneWinner(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errCh := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.CreateAccount(ctx, CreateAccountRequest{
				Email:           "race@example.com",
				FirstName:       "Race",
				LastName:        "Runner",
				Password:        "SecurePass123!",
				ConfirmPassword: "SecurePass123!",
			})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	winners, losers := 0, 0
	for err := range errCh {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domain.ErrAccountExists):
			losers++
		default:
			t.Fatalf("unexpected error from concurrent create: %v", err)
		}
	}
	if winners != 1 || losers != attempts-1 {
		t.Fatalf("expected exactly one winner, got %d winners / %d losers", winners, losers)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		req  CreateAccountRequest
	}{
		{"missing email", CreateAccountRequest{FirstName: "A", LastName: "B", Password: "SecurePass123!", ConfirmPassword: "SecurePass123!"}},
		{"malformed email", CreateAccountRequest{Email: "not-an-email", FirstName: "A", LastName: "B", Password: "SecurePass123!", ConfirmPassword: "SecurePass123!"}},
		{"missing first name", CreateAccountRequest{Email: "v@example.com", LastName: "B", Password: "SecurePass123!", ConfirmPassword: "SecurePass123!"}},
		{"missing last name", CreateAccountRequest{Email: "v@example.com", FirstName: "A", Password: "SecurePass123!", ConfirmPassword: "SecurePass123!"}},
		{"short password", CreateAccountRequest{Email: "v@example.com", FirstName: "A", LastName: "B", Password: "short", ConfirmPassword: "short"}},
		{"confirmation mismatch", CreateAccountRequest{Email: "v@example.com", FirstName: "A", LastName: "B", Password: "SecurePass123!", ConfirmPassword: "Different123!"}},
	}
	for _, tc := range cases {
		if _, err := f.service.CreateAccount(ctx, tc.req); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestVerifyAccountOtpConsumedOnce(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	account := f.mustCreateAccount(t, "once@example.com")
	code := f.otps.liveCode(account.AccountID)

	if err := f.service.VerifyAccount(ctx, VerifyAccountRequest{Email: "once@example.com", OTP: code}); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	if err := f.service.VerifyAccount(ctx, VerifyAccountRequest{Email: "once@example.com", OTP: code}); !errors.Is(err, domain.ErrOtpInvalid) {
		t.Fatalf("spent code must be rejected, got %v", err)
	}
}

func TestVerifyAccountWrongAndExpiredCode(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	account := f.mustCreateAccount(t, "expired@example.com")
	code := f.otps.liveCode(account.AccountID)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := f.service.VerifyAccount(ctx, VerifyAccountRequest{Email: "expired@example.com", OTP: wrong}); !errors.Is(err, domain.ErrOtpInvalid) {
		t.Fatalf("wrong code must be rejected, got %v", err)
	}

	f.otps.expire(account.AccountID)
	if err := f.service.VerifyAccount(ctx, VerifyAccountRequest{Email: "expired@example.com", OTP: code}); !errors.Is(err, domain.ErrOtpInvalid) {
		t.Fatalf("expired code must be rejected, got %v", err)
	}
}

func TestResendVerificationSupersedesOldCode(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	account := f.mustCreateAccount(t, "resend@example.com")
	oldCode := f.otps.liveCode(account.AccountID)

	if err := f.service.ResendVerification(ctx, ResendVerificationRequest{Email: "resend@example.com"}); err != nil {
		t.Fatalf("resend failed: %v", err)
	}
	newCode := f.otps.liveCode(account.AccountID)

	if oldCode != newCode {
		if err := f.service.VerifyAccount(ctx, VerifyAccountRequest{Email: "resend@example.com", OTP: oldCode}); !errors.Is(err, domain.ErrOtpInvalid) {
			t.Fatalf("superseded code must be rejected, got %v", err)
		}
	}
	if err := f.service.VerifyAccount(ctx, VerifyAccountRequest{Email: "resend@example.com", OTP: newCode}); err != nil {
		t.Fatalf("fresh code must verify: %v", err)
	}
}

func TestResendVerificationUnknownEmail(t *testing.T) {
	t.Parallel()

	f := newFixture()
	if err := f.service.ResendVerification(context.Background(), ResendVerificationRequest{Email: "nobody@example.com"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSignInCollapsesFailureModes(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.mustCreateAccount(t, "known@example.com")

	_, unknownErr := f.service.SignIn(ctx, SignInRequest{Email: "unknown@example.com", Password: "SecurePass123!"})
	_, wrongErr := f.service.SignIn(ctx, SignInRequest{Email: "known@example.com", Password: "WrongPass123!"})

	if !errors.Is(unknownErr, domain.ErrUnauthorized) {
		t.Fatalf("unknown email: expected ErrUnauthorized, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, domain.ErrUnauthorized) {
		t.Fatalf("wrong password: expected ErrUnauthorized, got %v", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("failure modes must be indistinguishable: %q vs %q", unknownErr, wrongErr)
	}
}

func TestSignInDoesNotRequireVerifiedAccount(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	account := f.mustCreateAccount(t, "unverified@example.com")

	res, err := f.service.SignIn(ctx, SignInRequest{Email: "unverified@example.com", Password: "SecurePass123!"})
	if err != nil {
		t.Fatalf("unverified account should still sign in: %v", err)
	}
	claims, err := f.service.ValidateToken(res.Token)
	if err != nil {
		t.Fatalf("validate token failed: %v", err)
	}
	if claims.AccountID != account.AccountID || claims.Verified {
		t.Fatalf("token must carry the unverified snapshot, got %+v", claims)
	}
}

func TestSignInLockoutAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.mustCreateAccount(t, "locked@example.com")

	for i := 0; i < 5; i++ {
		if _, err := f.service.SignIn(ctx, SignInRequest{Email: "locked@example.com", Password: "WrongPass123!"}); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("attempt %d: expected ErrUnauthorized, got %v", i, err)
		}
	}
	if _, err := f.service.SignIn(ctx, SignInRequest{Email: "locked@example.com", Password: "SecurePass123!"}); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked after threshold, got %v", err)
	}
}

func TestSignInClearsLockoutStateOnSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.mustCreateAccount(t, "recover@example.com")

	for i := 0; i < 3; i++ {
		_, _ = f.service.SignIn(ctx, SignInRequest{Email: "recover@example.com", Password: "WrongPass123!"})
	}
	if _, err := f.service.SignIn(ctx, SignInRequest{Email: "recover@example.com", Password: "SecurePass123!"}); err != nil {
		t.Fatalf("sign in below threshold failed: %v", err)
	}
	state, err := f.lockouts.Get(ctx, "signin:recover@example.com")
	if err != nil {
		t.Fatalf("lockout get failed: %v", err)
	}
	if state.FailedCount != 0 {
		t.Fatalf("expected counter cleared after success, got %d", state.FailedCount)
	}
}

func TestResetPasswordValidation(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.mustCreateAccount(t, "reset@example.com")

	if err := f.service.ResetPassword(ctx, ResetPasswordRequest{
		Email:              "reset@example.com",
		NewPassword:        "MismatchedPass1!",
		ConfirmNewPassword: "MismatchedPass2!",
	}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation on mismatch, got %v", err)
	}
	if err := f.service.ResetPassword(ctx, ResetPasswordRequest{
		Email:              "missing@example.com",
		NewPassword:        "BrandNewPass456!",
		ConfirmNewPassword: "BrandNewPass456!",
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on unknown email, got %v", err)
	}
}

func TestEmailNormalization(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.mustCreateAccount(t, "Mixed.Case@Example.com")

	if _, err := f.service.SignIn(ctx, SignInRequest{Email: "  mixed.case@example.com ", Password: "SecurePass123!"}); err != nil {
		t.Fatalf("normalized email should match: %v", err)
	}
	if _, err := f.service.CreateAccount(ctx, CreateAccountRequest{
		Email:           "MIXED.CASE@EXAMPLE.COM",
		FirstName:       "Other",
		LastName:        "Casing",
		Password:        "SecurePass123!",
		ConfirmPassword: "SecurePass123!",
	}); !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("casing variants must collide, got %v", err)
	}
}

func TestMailIntentsCarryExpectedPayloads(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.startDispatcher(t)

	account := f.mustCreateAccount(t, "mail@example.com")
	published := f.waitForIntents(t, 1)
	intent := published[0]
	if intent.Kind != ports.MailKindVerification || intent.AccountID != account.AccountID || intent.Code == "" {
		t.Fatalf("unexpected verification intent: %+v", intent)
	}

	if err := f.service.ResetPassword(ctx, ResetPasswordRequest{
		Email:              "mail@example.com",
		NewPassword:        "BrandNewPass456!",
		ConfirmNewPassword: "BrandNewPass456!",
	}); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	published = f.waitForIntents(t, 2)
	last := published[len(published)-1]
	if last.Kind != ports.MailKindReset || last.Code != "" {
		t.Fatalf("reset intent must not carry a code: %+v", last)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	t.Parallel()

	f := newFixture()
	if _, err := f.service.ValidateToken("not-a-token"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

type fixture struct {
	service    *Service
	accounts   *fakeAccounts
	otps       *fakeOTPs
	lockouts   *fakeLockouts
	publisher  *capturingPublisher
	dispatcher *Dispatcher
}

func newFixture() *fixture {
	accounts := newFakeAccounts()
	otps := newFakeOTPs()
	lockouts := &fakeLockouts{state: map[string]ports.LockoutState{}}
	publisher := &capturingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := NewDispatcher(logger, publisher, 32, 50*time.Millisecond)

	svc := NewService(Dependencies{
		Config: Config{
			PasswordMinLength:     8,
			OTPLength:             6,
			OTPTTL:                10 * time.Minute,
			TokenTTL:              time.Hour,
			FailedSignInThreshold: 5,
			LockoutDuration:       30 * time.Minute,
		},
		Accounts:    accounts,
		Credentials: accounts,
		OTP:         NewOTPGenerator(otps, 6, 10*time.Minute),
		Lockouts:    lockouts,
		Hasher:      &fakeHasher{},
		TokenSigner: newFakeSigner(),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	return &fixture{
		service:    svc,
		accounts:   accounts,
		otps:       otps,
		lockouts:   lockouts,
		publisher:  publisher,
		dispatcher: dispatcher,
	}
}

func (f *fixture) mustCreateAccount(t *testing.T, email string) AccountView {
	t.Helper()
	account, err := f.service.CreateAccount(context.Background(), CreateAccountRequest{
		Email:           email,
		FirstName:       "Test",
		LastName:        "Account",
		Password:        "SecurePass123!",
		ConfirmPassword: "SecurePass123!",
	})
	if err != nil {
		t.Fatalf("create account %s failed: %v", email, err)
	}
	return account
}

// startDispatcher runs the worker loop for the remainder of the test.
func (f *fixture) startDispatcher(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.dispatcher.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// waitForIntents blocks until the publisher has seen at least n intents.
func (f *fixture) waitForIntents(t *testing.T, n int) []ports.MailIntent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		published := f.publisher.intents()
		if len(published) >= n {
			return published
		}
		select {
		case <-deadline:
			t.Fatalf("expected %d published intents, got %d", n, len(published))
		case <-time.After(time.Millisecond):
		}
	}
}

// fakeAccounts backs both the account and credential repositories, mirroring
// the single-transaction create.
type fakeAccounts struct {
	mu      sync.Mutex
	byEmail map[string]domain.Account
	byID    map[uuid.UUID]domain.Account
	hashes  map[uuid.UUID]string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		byEmail: map[string]domain.Account{},
		byID:    map[uuid.UUID]domain.Account{},
		hashes:  map[uuid.UUID]string{},
	}
}

func (f *fakeAccounts) Create(_ context.Context, params ports.CreateAccountParams) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[params.Email]; ok {
		return domain.Account{}, domain.ErrAccountExists
	}
	account := domain.Account{
		AccountID: uuid.New(),
		Email:     params.Email,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		CreatedAt: params.CreatedAtUTC,
		UpdatedAt: params.CreatedAtUTC,
	}
	f.byEmail[account.Email] = account
	f.byID[account.AccountID] = account
	f.hashes[account.AccountID] = params.PasswordHash
	return account, nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.byEmail[email]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return account, nil
}

func (f *fakeAccounts) GetByID(_ context.Context, accountID uuid.UUID) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.byID[accountID]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return account, nil
}

func (f *fakeAccounts) MarkVerified(_ context.Context, accountID uuid.UUID, verifiedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.byID[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	account.Verified = true
	account.UpdatedAt = verifiedAt
	f.byID[accountID] = account
	f.byEmail[account.Email] = account
	return nil
}

func (f *fakeAccounts) GetHash(_ context.Context, accountID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hash, ok := f.hashes[accountID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return hash, nil
}

func (f *fakeAccounts) Replace(_ context.Context, accountID uuid.UUID, passwordHash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hashes[accountID] = passwordHash
	return nil
}

type fakeOTPs struct {
	mu         sync.Mutex
	challenges map[uuid.UUID]domain.OtpChallenge
}

func newFakeOTPs() *fakeOTPs {
	return &fakeOTPs{challenges: map[uuid.UUID]domain.OtpChallenge{}}
}

func (f *fakeOTPs) Replace(_ context.Context, challenge domain.OtpChallenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.challenges[challenge.AccountID] = challenge
	return nil
}

func (f *fakeOTPs) Consume(_ context.Context, accountID uuid.UUID, code string, consumedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	challenge, ok := f.challenges[accountID]
	if !ok || challenge.Code != code || challenge.ConsumedAt != nil || !challenge.ExpiresAt.After(consumedAt) {
		return domain.ErrNotFound
	}
	challenge.ConsumedAt = &consumedAt
	f.challenges[accountID] = challenge
	return nil
}

func (f *fakeOTPs) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var purged int64
	for id, challenge := range f.challenges {
		if !challenge.ExpiresAt.After(before) {
			delete(f.challenges, id)
			purged++
		}
	}
	return purged, nil
}

func (f *fakeOTPs) liveCode(accountID uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.challenges[accountID].Code
}

func (f *fakeOTPs) expire(accountID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	challenge := f.challenges[accountID]
	challenge.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	f.challenges[accountID] = challenge
}

type fakeLockouts struct {
	mu    sync.Mutex
	state map[string]ports.LockoutState
}

func (f *fakeLockouts) Get(_ context.Context, key string) (ports.LockoutState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state[key], nil
}

func (f *fakeLockouts) RecordFailure(_ context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (ports.LockoutState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := f.state[key]
	state.FailedCount++
	if state.FailedCount >= threshold {
		lockedUntil := now.Add(lockoutWindow)
		state.LockedUntil = &lockedUntil
	}
	f.state[key] = state
	return state, nil
}

func (f *fakeLockouts) Clear(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.state, key)
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("hash mismatch")
	}
	return nil
}

type fakeSigner struct {
	mu     sync.Mutex
	seq    int
	tokens map[string]ports.SessionClaims
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{tokens: map[string]ports.SessionClaims{}}
}

func (f *fakeSigner) Sign(claims ports.SessionClaims) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	token := fmt.Sprintf("token-%d", f.seq)
	f.tokens[token] = claims
	return token, nil
}

func (f *fakeSigner) ParseAndValidate(token string) (ports.SessionClaims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claims, ok := f.tokens[token]
	if !ok {
		return ports.SessionClaims{}, errors.New("unknown token")
	}
	if time.Now().UTC().After(claims.ExpiresAt) {
		return ports.SessionClaims{}, errors.New("token expired")
	}
	return claims, nil
}

type capturingPublisher struct {
	mu        sync.Mutex
	published []ports.MailIntent
}

func (p *capturingPublisher) Publish(_ context.Context, intent ports.MailIntent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, intent)
	return nil
}

func (p *capturingPublisher) intents() []ports.MailIntent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ports.MailIntent, len(p.published))
	copy(out, p.published)
	return out
}
