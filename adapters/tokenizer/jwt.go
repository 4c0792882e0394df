// Package tokenizer mints session JWTs for verified identities.
package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/prismon-labs/prismon/core"
	"github.com/prismon-labs/prismon/ports"
)

// DefaultSessionTTL is how long a minted session token stays valid.
const DefaultSessionTTL = 24 * time.Hour

// SessionClaims are the claims carried by a session token. NameID is the
// user id; the subject is the user's email or wallet for display purposes.
type SessionClaims struct {
	jwt.RegisteredClaims
	NameID string `json:"nameid"`
	AppID  string `json:"appId"`
}

// JWTTokenizer implements ports.Tokenizer with HMAC-SHA256 signed JWTs.
type JWTTokenizer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewJWTTokenizer creates a tokenizer signing with the given shared secret.
func NewJWTTokenizer(secret []byte, issuer, audience string) ports.Tokenizer {
	return &JWTTokenizer{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		ttl:      DefaultSessionTTL,
		now:      time.Now,
	}
}

// MintSessionToken issues a token bound to the user and its app.
func (t *JWTTokenizer) MintSessionToken(user *core.DAppUser) (string, error) {
	subject := user.Email
	if subject == "" {
		subject = user.WalletPublicKey
	}
	if subject == "" {
		subject = "anonymous"
	}

	now := t.now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		NameID: user.ID,
		AppID:  user.AppID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken verifies a token and recovers the session it carries.
func (t *JWTTokenizer) ParseSessionToken(tokenStr string) (*core.Session, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithAudience(t.audience), jwt.WithIssuer(t.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, core.ErrInvalidToken
	}

	return &core.Session{
		UserID:    claims.NameID,
		AppID:     claims.AppID,
		Subject:   claims.Subject,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
