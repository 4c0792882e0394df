// Package solana holds the Ed25519 key, signature and memo primitives the
// wallet proof-of-possession protocol is built on. Everything here is pure:
// no state, safe for concurrent use.
package solana

import (
	"crypto/ed25519"
	"errors"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

var (
	// ErrInvalidPublicKey is returned when a string does not decode to a
	// 32-byte Ed25519 public key.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrInvalidSignatureEncoding is returned when a signature is not valid base58.
	ErrInvalidSignatureEncoding = errors.New("signature is not valid base58")

	// ErrInvalidSignatureLength is returned when a decoded signature is not 64 bytes.
	ErrInvalidSignatureLength = errors.New("signature must be 64 bytes")
)

// PublicKey is a 32-byte Ed25519 public key identifying a wallet.
type PublicKey ed25519.PublicKey

// ParsePublicKey decodes a base58-encoded wallet address.
func ParsePublicKey(address string) (PublicKey, error) {
	decoded, err := base58.Decode(address)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, ErrInvalidPublicKey
	}
	return PublicKey(decoded), nil
}

// String returns the base58 wallet address.
func (k PublicKey) String() string {
	return base58.Encode(k)
}

// IsOnCurve reports whether the key bytes decode to a valid point on the
// edwards25519 curve. Off-curve keys can never produce a valid signature, so
// the transaction gate rejects them up front.
func (k PublicKey) IsOnCurve() bool {
	if len(k) != ed25519.PublicKeySize {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(k)
	return err == nil
}

// ParseSignature decodes a base58-encoded detached signature.
func ParseSignature(signature string) ([]byte, error) {
	decoded, err := base58.Decode(signature)
	if err != nil {
		return nil, ErrInvalidSignatureEncoding
	}
	if len(decoded) != ed25519.SignatureSize {
		return nil, ErrInvalidSignatureLength
	}
	return decoded, nil
}
