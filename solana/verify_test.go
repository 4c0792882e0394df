package solana

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	msg := []byte("Prismon Login: deadbeef")
	sig := ed25519.Sign(priv, msg)

	assert.True(t, Verify(PublicKey(pub), msg, sig))
}

func TestVerifyRejectsTampering(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	msg := []byte("Prismon Login: deadbeef")
	sig := ed25519.Sign(priv, msg)

	t.Run("flipped signature bit", func(t *testing.T) {
		bad := append([]byte(nil), sig...)
		bad[0] ^= 0x01
		assert.False(t, Verify(PublicKey(pub), msg, bad))
	})

	t.Run("different message", func(t *testing.T) {
		assert.False(t, Verify(PublicKey(pub), []byte("Prismon Login: cafebabe"), sig))
	})

	t.Run("different key", func(t *testing.T) {
		other, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		assert.False(t, Verify(PublicKey(other), msg, sig))
	})
}

func TestVerifyMalformedInputs(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	msg := []byte("hello")
	sig := ed25519.Sign(priv, msg)

	assert.False(t, Verify(nil, msg, sig))
	assert.False(t, Verify(PublicKey(pub[:16]), msg, sig))
	assert.False(t, Verify(PublicKey(pub), msg, nil))
	assert.False(t, Verify(PublicKey(pub), msg, sig[:32]))
}

func TestDecodeMemo(t *testing.T) {
	t.Run("base58 encoded", func(t *testing.T) {
		encoded := base58.Encode([]byte("Prismon:store:file.txt"))
		assert.Equal(t, "Prismon:store:file.txt", DecodeMemo(encoded))
	})

	t.Run("literal text", func(t *testing.T) {
		// Colons are not in the base58 alphabet, so this falls through.
		assert.Equal(t, "Prismon:store:file.txt", DecodeMemo("Prismon:store:file.txt"))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", DecodeMemo(""))
	})
}
