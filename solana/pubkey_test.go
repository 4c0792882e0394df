package solana

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePublicKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	address := base58.Encode(pub)

	parsed, err := ParsePublicKey(address)
	require.NoError(t, err)
	assert.Equal(t, []byte(pub), []byte(parsed))
	assert.Equal(t, address, parsed.String())
}

func TestParsePublicKeyInvalid(t *testing.T) {
	cases := map[string]string{
		"not base58": "0OIl",
		"too short":  base58.Encode([]byte("short")),
		"too long":   base58.Encode(make([]byte, 33)),
		"empty":      "",
	}
	for name, address := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePublicKey(address)
			assert.ErrorIs(t, err, ErrInvalidPublicKey)
		})
	}
}

func TestPublicKeyIsOnCurve(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	assert.True(t, PublicKey(pub).IsOnCurve())

	// 0xFF...FF does not decode to a curve point.
	off := make([]byte, ed25519.PublicKeySize)
	for i := range off {
		off[i] = 0xFF
	}
	assert.False(t, PublicKey(off).IsOnCurve())

	assert.False(t, PublicKey(nil).IsOnCurve())
}

func TestParseSignature(t *testing.T) {
	sig := make([]byte, ed25519.SignatureSize)
	_, err := rand.Read(sig)
	require.NoError(t, err)

	decoded, err := ParseSignature(base58.Encode(sig))
	require.NoError(t, err)
	assert.Equal(t, sig, decoded)

	_, err = ParseSignature("0OIl")
	assert.ErrorIs(t, err, ErrInvalidSignatureEncoding)

	_, err = ParseSignature(base58.Encode(sig[:32]))
	assert.ErrorIs(t, err, ErrInvalidSignatureLength)
}
