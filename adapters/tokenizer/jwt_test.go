package tokenizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismon-labs/prismon/core"
)

func newTestTokenizer() *JWTTokenizer {
	return NewJWTTokenizer([]byte("test-secret"), "prismon", "prismon-apps").(*JWTTokenizer)
}

func TestMintAndParseSessionToken(t *testing.T) {
	tk := newTestTokenizer()

	user := &core.DAppUser{
		ID:              "user-1",
		AppID:           "app-1",
		WalletPublicKey: "Wallet111",
	}

	token, err := tk.MintSessionToken(user)
	require.NoError(t, err)

	session, err := tk.ParseSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, "app-1", session.AppID)
	assert.Equal(t, "Wallet111", session.Subject)
	assert.NotEmpty(t, session.TokenID)
	assert.Equal(t, DefaultSessionTTL, session.ExpiresAt.Sub(session.IssuedAt))
}

func TestMintSessionTokenSubject(t *testing.T) {
	tk := newTestTokenizer()

	t.Run("email wins over wallet", func(t *testing.T) {
		token, err := tk.MintSessionToken(&core.DAppUser{
			ID:              "user-1",
			AppID:           "app-1",
			Email:           "user@example.com",
			WalletPublicKey: "Wallet111",
		})
		require.NoError(t, err)

		session, err := tk.ParseSessionToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", session.Subject)
	})

	t.Run("anonymous fallback", func(t *testing.T) {
		token, err := tk.MintSessionToken(&core.DAppUser{ID: "user-1", AppID: "app-1"})
		require.NoError(t, err)

		session, err := tk.ParseSessionToken(token)
		require.NoError(t, err)
		assert.Equal(t, "anonymous", session.Subject)
	})
}

func TestParseSessionTokenRejections(t *testing.T) {
	tk := newTestTokenizer()
	user := &core.DAppUser{ID: "user-1", AppID: "app-1"}

	t.Run("garbage", func(t *testing.T) {
		_, err := tk.ParseSessionToken("not.a.token")
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTTokenizer([]byte("other-secret"), "prismon", "prismon-apps")
		token, err := other.MintSessionToken(user)
		require.NoError(t, err)

		_, err = tk.ParseSessionToken(token)
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTTokenizer([]byte("test-secret"), "someone-else", "prismon-apps")
		token, err := other.MintSessionToken(user)
		require.NoError(t, err)

		_, err = tk.ParseSessionToken(token)
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		stale := newTestTokenizer()
		stale.now = func() time.Time { return time.Now().Add(-DefaultSessionTTL - time.Hour) }
		token, err := stale.MintSessionToken(user)
		require.NoError(t, err)

		_, err = tk.ParseSessionToken(token)
		assert.ErrorIs(t, err, core.ErrTokenExpired)
	})
}
