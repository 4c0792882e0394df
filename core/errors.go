package core

import "errors"

var (
	// ErrAppNotFound is returned when no app exists for the given id or API key.
	ErrAppNotFound = errors.New("app not found")

	// ErrWalletNotRegistered is returned when a wallet has no user for the app.
	// The wallet owner must sign up before logging in.
	ErrWalletNotRegistered = errors.New("wallet not signed up for this app")

	// ErrChallengeNotFoundOrExpired is returned uniformly when a challenge is
	// absent, expired, or already consumed. Callers cannot distinguish these
	// cases, so a login attempt leaks nothing about other sessions.
	ErrChallengeNotFoundOrExpired = errors.New("invalid or expired challenge")

	// ErrSignatureVerificationFailed is returned when a signature does not
	// verify over the expected message.
	ErrSignatureVerificationFailed = errors.New("signature verification failed")

	// ErrUserNotFound is returned by repositories when no user matches.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUser is returned by repositories when an insert collides
	// with the (app_id, wallet_public_key) uniqueness constraint.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrEmailAlreadyRegistered is returned when the email is taken for the app.
	ErrEmailAlreadyRegistered = errors.New("email already registered for this app")

	// ErrEmailNotVerified is returned on email login when the user is missing
	// or has not completed verification.
	ErrEmailNotVerified = errors.New("user not found or email not verified")

	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid password")

	// ErrVerificationCodeExpired is returned when the emailed code has lapsed.
	ErrVerificationCodeExpired = errors.New("verification code expired")

	// ErrVerificationCodeMismatch is returned when the emailed code is wrong.
	ErrVerificationCodeMismatch = errors.New("invalid verification code")

	// ErrTransactionNotFound is returned when a transaction is absent or
	// unconfirmed after the retry budget is exhausted.
	ErrTransactionNotFound = errors.New("transaction not found or unconfirmed")

	// ErrTransactionTooOld is returned when a transaction's block time falls
	// outside the replay freshness window.
	ErrTransactionTooOld = errors.New("transaction is too old")

	// ErrTransactionFromFuture is returned when a transaction's block time is
	// further ahead of the clock than the allowed skew.
	ErrTransactionFromFuture = errors.New("transaction timestamp is in the future")

	// ErrSignerMismatch is returned when the wallet is not among the
	// transaction's required signers.
	ErrSignerMismatch = errors.New("transaction not signed by wallet")

	// ErrMemoMissing is returned when the transaction carries no memo
	// instruction at all.
	ErrMemoMissing = errors.New("transaction carries no memo instruction")

	// ErrMemoMismatch is returned when a memo is present but its text does not
	// equal the expected action binding.
	ErrMemoMismatch = errors.New("memo does not match expected value")

	// ErrInvalidToken is returned when a session token fails to parse or verify.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when a session token has expired.
	ErrTokenExpired = errors.New("token has expired")

	// ErrStoreUnavailable marks a transient persistence failure. Writers retry
	// these with bounded backoff before surfacing them.
	ErrStoreUnavailable = errors.New("persistence temporarily unavailable")
)
