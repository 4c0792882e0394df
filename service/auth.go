package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prismon-labs/prismon/core"
	"github.com/prismon-labs/prismon/ports"
	"github.com/prismon-labs/prismon/solana"
)

// AuthService authenticates end users and mints session tokens.
type AuthService struct {
	apps       ports.AppRepository
	users      ports.UserRepository
	challenges *ChallengeService
	tokenizer  ports.Tokenizer
	events     ports.EventPublisher
	log        zerolog.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(
	apps ports.AppRepository,
	users ports.UserRepository,
	challenges *ChallengeService,
	tokenizer ports.Tokenizer,
	events ports.EventPublisher,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		apps:       apps,
		users:      users,
		challenges: challenges,
		tokenizer:  tokenizer,
		events:     events,
		log:        log.With().Str("component", "auth").Logger(),
	}
}

// LoginWithWallet authenticates a wallet by verifying a signature over a
// previously issued challenge.
//
// The challenge is consumed before the signature is checked, so one attempt
// burns it even when the signature is wrong and the client must request a new
// challenge. Strict, but it keeps the anti-replay guarantee: a captured
// challenge id is worthless after the first presentation.
func (s *AuthService) LoginWithWallet(ctx context.Context, appID, walletPublicKey, signature, challengeID string) (core.LoginResult, error) {
	log := s.log.With().
		Str("app_id", appID).
		Str("wallet", walletPublicKey).
		Str("challenge_id", challengeID).
		Logger()

	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		log.Warn().Msg("login rejected: unknown app")
		return core.LoginResult{}, err
	}

	user, err := s.users.GetByWallet(ctx, app.ID, walletPublicKey)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			log.Warn().Msg("login rejected: wallet not signed up")
			return core.LoginResult{}, core.ErrWalletNotRegistered
		}
		return core.LoginResult{}, fmt.Errorf("failed to look up user: %w", err)
	}

	challenge, err := s.challenges.Consume(ctx, challengeID, app.ID, walletPublicKey)
	if err != nil {
		log.Warn().Msg("login rejected: invalid or expired challenge")
		return core.LoginResult{}, err
	}

	key, err := solana.ParsePublicKey(walletPublicKey)
	if err != nil {
		return core.LoginResult{}, err
	}
	sig, err := solana.ParseSignature(signature)
	if err != nil {
		log.Warn().Err(err).Msg("login rejected: bad signature encoding")
		return core.LoginResult{}, err
	}

	if !solana.Verify(key, []byte(challenge.Challenge), sig) {
		log.Warn().Msg("login rejected: signature does not verify")
		return core.LoginResult{}, core.ErrSignatureVerificationFailed
	}

	token, err := s.tokenizer.MintSessionToken(user)
	if err != nil {
		return core.LoginResult{}, fmt.Errorf("failed to mint session token: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("wallet login succeeded")
	s.publishLogin(ctx, user, "wallet")

	return core.LoginResult{
		UserID:          user.ID,
		WalletPublicKey: user.WalletPublicKey,
		Token:           token,
	}, nil
}

// LoginWithEmail authenticates a verified email identity by password.
func (s *AuthService) LoginWithEmail(ctx context.Context, appID, email, password string) (core.LoginResult, error) {
	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		return core.LoginResult{}, err
	}

	user, err := s.users.GetByEmail(ctx, app.ID, email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return core.LoginResult{}, core.ErrEmailNotVerified
		}
		return core.LoginResult{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsEmailVerified {
		return core.LoginResult{}, core.ErrEmailNotVerified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn().Str("app_id", appID).Str("user_id", user.ID).Msg("email login rejected: wrong password")
		return core.LoginResult{}, core.ErrInvalidCredentials
	}

	token, err := s.tokenizer.MintSessionToken(user)
	if err != nil {
		return core.LoginResult{}, fmt.Errorf("failed to mint session token: %w", err)
	}

	s.log.Info().Str("app_id", appID).Str("user_id", user.ID).Msg("email login succeeded")
	s.publishLogin(ctx, user, "email")

	return core.LoginResult{
		UserID:          user.ID,
		WalletPublicKey: user.WalletPublicKey,
		Token:           token,
	}, nil
}

func (s *AuthService) publishLogin(ctx context.Context, user *core.DAppUser, method string) {
	if s.events == nil {
		return
	}
	event := core.LoginEvent{
		UserID:     user.ID,
		AppID:      user.AppID,
		Method:     method,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishLogin(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to publish login event")
	}
}
