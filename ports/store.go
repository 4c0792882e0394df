package ports

import (
	"context"

	"github.com/prismon-labs/prismon/core"
)

// AppRepository resolves tenant apps. Apps are owned by the developer
// dashboard; this service never writes them.
type AppRepository interface {
	// GetByID returns the app or core.ErrAppNotFound.
	GetByID(ctx context.Context, id string) (*core.App, error)

	// GetByAPIKey returns the app owning the API key or core.ErrAppNotFound.
	GetByAPIKey(ctx context.Context, apiKey string) (*core.App, error)
}

// UserRepository persists app-scoped end users. Implementations must enforce
// a uniqueness constraint on (app_id, wallet_public_key) so that two
// concurrent signups for the same new wallet create exactly one row; the
// loser observes core.ErrDuplicateUser and takes the idempotent path.
type UserRepository interface {
	// GetByWallet returns the user or core.ErrUserNotFound.
	GetByWallet(ctx context.Context, appID, walletPublicKey string) (*core.DAppUser, error)

	// GetByEmail returns the user or core.ErrUserNotFound.
	GetByEmail(ctx context.Context, appID, email string) (*core.DAppUser, error)

	// Create inserts a new user. Returns core.ErrDuplicateUser on a
	// uniqueness collision and core.ErrStoreUnavailable on transient failure.
	Create(ctx context.Context, user *core.DAppUser) error

	// Update persists mutations to an existing user.
	Update(ctx context.Context, user *core.DAppUser) error
}

// ChallengeRepository persists login challenges. Consume must be atomic with
// respect to concurrent consumers of the same challenge id: of two
// simultaneous calls, at most one receives the challenge.
type ChallengeRepository interface {
	// Insert stores a freshly issued challenge.
	Insert(ctx context.Context, challenge *core.LoginChallenge) error

	// Consume deletes and returns the unexpired challenge matching all three
	// fields in one atomic step. Absent, expired, mismatched and already
	// consumed challenges are indistinguishable: all yield
	// core.ErrChallengeNotFoundOrExpired.
	Consume(ctx context.Context, id, appID, walletPublicKey string) (*core.LoginChallenge, error)
}
