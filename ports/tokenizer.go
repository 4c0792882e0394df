package ports

import "github.com/prismon-labs/prismon/core"

// Tokenizer mints and parses session tokens bound to a verified identity.
type Tokenizer interface {
	// MintSessionToken issues a token bound to the user and its app.
	MintSessionToken(user *core.DAppUser) (string, error)

	// ParseSessionToken verifies a token and recovers the session it carries.
	// Returns core.ErrInvalidToken or core.ErrTokenExpired.
	ParseSessionToken(token string) (*core.Session, error)
}
