package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismon-labs/prismon/adapters/store"
	"github.com/prismon-labs/prismon/adapters/tokenizer"
	"github.com/prismon-labs/prismon/core"
)

type authFixture struct {
	store      *store.MemoryStore
	challenges *ChallengeService
	onboarding *OnboardingService
	auth       *AuthService
	events     *capturePublisher
	app        *core.App
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	mem := store.NewMemoryStore()
	app := &core.App{ID: "app-1", Name: "Test App", APIKey: "key-1"}
	mem.AddApp(app)

	events := &capturePublisher{}
	challenges := NewChallengeService(mem, zerolog.Nop())
	tokens := tokenizer.NewJWTTokenizer([]byte("test-secret"), "prismon", "prismon-apps")

	return &authFixture{
		store:      mem,
		challenges: challenges,
		onboarding: NewOnboardingService(mem, events, zerolog.Nop()),
		auth:       NewAuthService(mem, mem, challenges, tokens, events, zerolog.Nop()),
		events:     events,
		app:        app,
	}
}

func (f *authFixture) signUpWallet(t *testing.T, wallet testWallet) string {
	t.Helper()
	signature := wallet.Sign(SignupMessage(f.app.ID, wallet.Address()))
	result, err := f.onboarding.ConnectWallet(context.Background(), f.app, wallet.Address(), signature)
	require.NoError(t, err)
	return result.UserID
}

func TestLoginWithWallet(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	wallet := newTestWallet(t)
	userID := f.signUpWallet(t, wallet)

	challenge, err := f.challenges.Issue(ctx, f.app.ID, wallet.Address())
	require.NoError(t, err)

	signature := wallet.Sign(challenge.Challenge)
	result, err := f.auth.LoginWithWallet(ctx, f.app.ID, wallet.Address(), signature, challenge.ID)
	require.NoError(t, err)

	assert.Equal(t, userID, result.UserID)
	assert.Equal(t, wallet.Address(), result.WalletPublicKey)
	assert.NotEmpty(t, result.Token)

	require.Len(t, f.events.logins, 1)
	assert.Equal(t, userID, f.events.logins[0].UserID)
	assert.Equal(t, "wallet", f.events.logins[0].Method)
}

func TestLoginWithWalletChallengeSingleUse(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	wallet := newTestWallet(t)
	f.signUpWallet(t, wallet)

	challenge, err := f.challenges.Issue(ctx, f.app.ID, wallet.Address())
	require.NoError(t, err)
	signature := wallet.Sign(challenge.Challenge)

	_, err = f.auth.LoginWithWallet(ctx, f.app.ID, wallet.Address(), signature, challenge.ID)
	require.NoError(t, err)

	// Replaying the same challenge and signature must fail.
	_, err = f.auth.LoginWithWallet(ctx, f.app.ID, wallet.Address(), signature, challenge.ID)
	assert.ErrorIs(t, err, core.ErrChallengeNotFoundOrExpired)
}

func TestLoginWithWalletBurnsChallengeOnBadSignature(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	wallet := newTestWallet(t)
	f.signUpWallet(t, wallet)

	challenge, err := f.challenges.Issue(ctx, f.app.ID, wallet.Address())
	require.NoError(t, err)

	forged := wallet.Sign("something else entirely")
	_, err = f.auth.LoginWithWallet(ctx, f.app.ID, wallet.Address(), forged, challenge.ID)
	assert.ErrorIs(t, err, core.ErrSignatureVerificationFailed)

	// The failed attempt consumed the challenge; a correct signature over it
	// is no longer accepted.
	good := wallet.Sign(challenge.Challenge)
	_, err = f.auth.LoginWithWallet(ctx, f.app.ID, wallet.Address(), good, challenge.ID)
	assert.ErrorIs(t, err, core.ErrChallengeNotFoundOrExpired)
}

func TestLoginWithWalletRejections(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	wallet := newTestWallet(t)

	t.Run("unknown app", func(t *testing.T) {
		_, err := f.auth.LoginWithWallet(ctx, "no-such-app", wallet.Address(), "sig", "id")
		assert.ErrorIs(t, err, core.ErrAppNotFound)
	})

	t.Run("wallet not signed up", func(t *testing.T) {
		_, err := f.auth.LoginWithWallet(ctx, f.app.ID, wallet.Address(), "sig", "id")
		assert.ErrorIs(t, err, core.ErrWalletNotRegistered)
	})

	t.Run("unknown challenge", func(t *testing.T) {
		f.signUpWallet(t, wallet)
		_, err := f.auth.LoginWithWallet(ctx, f.app.ID, wallet.Address(), "sig", "no-such-challenge")
		assert.ErrorIs(t, err, core.ErrChallengeNotFoundOrExpired)
	})
}

func TestLoginWithEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	reg, err := f.onboarding.RegisterEmail(ctx, f.app, "user@example.com", "hunter22")
	require.NoError(t, err)

	t.Run("unverified email", func(t *testing.T) {
		_, err := f.auth.LoginWithEmail(ctx, f.app.ID, "user@example.com", "hunter22")
		assert.ErrorIs(t, err, core.ErrEmailNotVerified)
	})

	_, err = f.onboarding.VerifyEmail(ctx, f.app, "user@example.com", reg.VerificationCode)
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.auth.LoginWithEmail(ctx, f.app.ID, "user@example.com", "wrong")
		assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	})

	result, err := f.auth.LoginWithEmail(ctx, f.app.ID, "user@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, result.UserID)
	assert.NotEmpty(t, result.Token)

	require.Len(t, f.events.logins, 1)
	assert.Equal(t, "email", f.events.logins[0].Method)
}
