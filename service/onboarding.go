package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prismon-labs/prismon/core"
	"github.com/prismon-labs/prismon/ports"
	"github.com/prismon-labs/prismon/solana"
)

const (
	// signupMessagePrefix is part of the wire contract shared with client SDKs.
	signupMessagePrefix = "Prismon:signup:"

	createAttempts      = 3
	createRetryBase     = 2 * time.Second
	verificationCodeTTL = time.Hour
)

// SignupMessage is the canonical message a wallet signs to bind itself to an
// app. The lowercased app id and verbatim wallet string are load-bearing:
// client SDKs precompute the identical string.
func SignupMessage(appID, walletPublicKey string) string {
	return signupMessagePrefix + strings.ToLower(appID) + ":" + walletPublicKey
}

// OnboardingService binds wallet keys and email addresses to app-scoped users.
type OnboardingService struct {
	users  ports.UserRepository
	events ports.EventPublisher
	log    zerolog.Logger

	retryBase time.Duration
	now       func() time.Time
}

// NewOnboardingService creates an onboarding service.
func NewOnboardingService(users ports.UserRepository, events ports.EventPublisher, log zerolog.Logger) *OnboardingService {
	return &OnboardingService{
		users:     users,
		events:    events,
		log:       log.With().Str("component", "onboarding").Logger(),
		retryBase: createRetryBase,
		now:       time.Now,
	}
}

// ConnectWallet signs up a wallet for the app. The caller proves possession
// of the key by signing the canonical signup message. Signup is idempotent:
// a wallet that is already bound returns the existing user id as a success.
func (s *OnboardingService) ConnectWallet(ctx context.Context, app *core.App, walletPublicKey, signature string) (core.SignupResult, error) {
	log := s.log.With().Str("app_id", app.ID).Str("wallet", walletPublicKey).Logger()

	key, err := solana.ParsePublicKey(walletPublicKey)
	if err != nil {
		log.Warn().Msg("signup rejected: invalid public key")
		return core.SignupResult{}, err
	}

	sig, err := solana.ParseSignature(signature)
	if err != nil {
		log.Warn().Err(err).Msg("signup rejected: bad signature encoding")
		return core.SignupResult{}, err
	}

	message := SignupMessage(app.ID, walletPublicKey)
	if !solana.Verify(key, []byte(message), sig) {
		log.Warn().Msg("signup rejected: signature does not verify")
		return core.SignupResult{}, core.ErrSignatureVerificationFailed
	}

	existing, err := s.users.GetByWallet(ctx, app.ID, walletPublicKey)
	switch {
	case err == nil:
		log.Info().Str("user_id", existing.ID).Msg("wallet already signed up")
		return core.SignupResult{UserID: existing.ID, AlreadySignedUp: true}, nil
	case !errors.Is(err, core.ErrUserNotFound):
		return core.SignupResult{}, fmt.Errorf("failed to look up user: %w", err)
	}

	user := &core.DAppUser{
		ID:              uuid.NewString(),
		AppID:           app.ID,
		WalletPublicKey: walletPublicKey,
		IsEmailVerified: false,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.createWithRetry(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicateUser) {
			// Lost a signup race for the same new wallet. The winner's row is
			// the user; report the idempotent path.
			winner, lookupErr := s.users.GetByWallet(ctx, app.ID, walletPublicKey)
			if lookupErr != nil {
				return core.SignupResult{}, fmt.Errorf("failed to resolve signup race: %w", lookupErr)
			}
			log.Info().Str("user_id", winner.ID).Msg("wallet already signed up")
			return core.SignupResult{UserID: winner.ID, AlreadySignedUp: true}, nil
		}
		return core.SignupResult{}, err
	}

	log.Info().Str("user_id", user.ID).Msg("signed up new wallet user")

	if s.events != nil {
		event := core.SignupEvent{
			UserID:          user.ID,
			AppID:           app.ID,
			WalletPublicKey: walletPublicKey,
			OccurredAt:      s.now().UTC(),
		}
		if err := s.events.PublishSignup(ctx, event); err != nil {
			log.Warn().Err(err).Msg("failed to publish signup event")
		}
	}

	return core.SignupResult{UserID: user.ID}, nil
}

// createWithRetry inserts the user, retrying transient persistence failures
// with exponential backoff (2s, 4s, 8s) before surfacing the error.
func (s *OnboardingService) createWithRetry(ctx context.Context, user *core.DAppUser) error {
	var err error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		err = s.users.Create(ctx, user)
		if err == nil || !errors.Is(err, core.ErrStoreUnavailable) {
			return err
		}

		if attempt == createAttempts {
			break
		}

		wait := s.retryBase << (attempt - 1)
		s.log.Warn().
			Int("attempt", attempt).
			Dur("backoff", wait).
			Err(err).
			Msg("transient failure creating user, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("failed to create user after %d attempts: %w", createAttempts, err)
}

// RegisterEmail registers an email identity for the app. The returned
// verification code stands in for email delivery, which is out of scope.
func (s *OnboardingService) RegisterEmail(ctx context.Context, app *core.App, email, password string) (core.RegistrationResult, error) {
	if _, err := s.users.GetByEmail(ctx, app.ID, email); err == nil {
		return core.RegistrationResult{}, core.ErrEmailAlreadyRegistered
	} else if !errors.Is(err, core.ErrUserNotFound) {
		return core.RegistrationResult{}, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.RegistrationResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := generateVerificationCode()
	if err != nil {
		return core.RegistrationResult{}, err
	}

	now := s.now().UTC()
	user := &core.DAppUser{
		ID:               uuid.NewString(),
		AppID:            app.ID,
		Email:            email,
		PasswordHash:     string(hash),
		IsEmailVerified:  false,
		VerificationCode: hashVerificationCode(code, email),
		CodeExpiresAt:    now.Add(verificationCodeTTL),
		CreatedAt:        now,
	}

	if err := s.createWithRetry(ctx, user); err != nil {
		return core.RegistrationResult{}, err
	}

	s.log.Info().Str("app_id", app.ID).Str("user_id", user.ID).Msg("registered email user")
	return core.RegistrationResult{UserID: user.ID, VerificationCode: code}, nil
}

// VerifyEmail confirms a verification code. Verifying an already-verified
// email succeeds without touching the row.
func (s *OnboardingService) VerifyEmail(ctx context.Context, app *core.App, email, code string) (string, error) {
	user, err := s.users.GetByEmail(ctx, app.ID, email)
	if err != nil {
		return "", err
	}

	if user.IsEmailVerified {
		return user.ID, nil
	}

	if user.CodeExpiresAt.Before(s.now().UTC()) {
		return "", core.ErrVerificationCodeExpired
	}

	expected := hashVerificationCode(code, email)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(user.VerificationCode)) != 1 {
		return "", core.ErrVerificationCodeMismatch
	}

	user.IsEmailVerified = true
	user.VerificationCode = ""
	user.CodeExpiresAt = time.Time{}
	if err := s.users.Update(ctx, user); err != nil {
		return "", fmt.Errorf("failed to mark email verified: %w", err)
	}

	s.log.Info().Str("app_id", app.ID).Str("user_id", user.ID).Msg("verified email")
	return user.ID, nil
}

func generateVerificationCode() (string, error) {
	raw := make([]byte, 4)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw)[:6], nil
}

// hashVerificationCode stores codes salted with the email so a leaked users
// table does not expose outstanding codes.
func hashVerificationCode(code, email string) string {
	sum := sha256.Sum256([]byte(code + email))
	return hex.EncodeToString(sum[:])
}
