package core

import "time"

// App is a tenant application. Apps are provisioned by the developer
// dashboard; this service only reads them to resolve API keys.
type App struct {
	ID        string
	Name      string
	APIKey    string
	CreatedAt time.Time
}

// DAppUser is an end user scoped to a single app. A user is identified by a
// wallet public key, an email address, or both. At most one user exists per
// (AppID, WalletPublicKey) pair.
type DAppUser struct {
	ID               string
	AppID            string
	WalletPublicKey  string
	Email            string
	PasswordHash     string
	IsEmailVerified  bool
	VerificationCode string
	CodeExpiresAt    time.Time
	CreatedAt        time.Time
}

// LoginChallenge is a single-use credential a wallet owner must sign to prove
// key possession. It is valid for verification exactly once and is deleted
// atomically on first use or on expiry.
type LoginChallenge struct {
	ID              string
	AppID           string
	WalletPublicKey string
	Challenge       string
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

// SignupResult is the outcome of a successful wallet signup. A repeated
// signup for an already-bound wallet is a success, not an error.
type SignupResult struct {
	UserID          string
	AlreadySignedUp bool
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	UserID          string
	WalletPublicKey string
	Token           string
}

// RegistrationResult is the outcome of a successful email registration.
// The verification code is returned to the caller; delivering it to the
// user's inbox is the embedding application's concern.
type RegistrationResult struct {
	UserID           string
	VerificationCode string
}

// Session is the identity carried by a minted session token.
type Session struct {
	UserID    string
	AppID     string
	Subject   string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
