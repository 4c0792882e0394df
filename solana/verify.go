package solana

import "crypto/ed25519"

// Verify reports whether sig is a valid detached Ed25519 signature over msg
// by key. It never panics: malformed keys or signatures simply fail.
func Verify(key PublicKey, msg, sig []byte) bool {
	if len(key) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(key), msg, sig)
}
