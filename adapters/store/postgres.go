package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/prismon-labs/prismon/core"
)

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// PostgresStore implements the repository ports on top of PostgreSQL.
// Challenge consumption is a single conditional DELETE .. RETURNING, so two
// concurrent logins presenting the same challenge id resolve to one winner.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store using the provided database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the tables and indexes the store depends on.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS apps (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			api_key    TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS dapp_users (
			id                TEXT PRIMARY KEY,
			app_id            TEXT NOT NULL REFERENCES apps (id),
			wallet_public_key TEXT,
			email             TEXT,
			password_hash     TEXT NOT NULL DEFAULT '',
			is_email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			verification_code TEXT NOT NULL DEFAULT '',
			code_expires_at   TIMESTAMPTZ,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS dapp_users_app_wallet
			ON dapp_users (app_id, wallet_public_key)
			WHERE wallet_public_key IS NOT NULL;

		CREATE INDEX IF NOT EXISTS dapp_users_app_email
			ON dapp_users (app_id, email);

		CREATE TABLE IF NOT EXISTS login_challenges (
			id                TEXT PRIMARY KEY,
			app_id            TEXT NOT NULL,
			wallet_public_key TEXT NOT NULL,
			challenge         TEXT NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL,
			expires_at        TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS login_challenges_app_wallet
			ON login_challenges (app_id, wallet_public_key);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// GetByID returns the app with the given id.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*core.App, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, api_key, created_at FROM apps WHERE id = $1
	`, id)
	return scanApp(row)
}

// GetByAPIKey returns the app owning the API key.
func (s *PostgresStore) GetByAPIKey(ctx context.Context, apiKey string) (*core.App, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, api_key, created_at FROM apps WHERE api_key = $1
	`, apiKey)
	return scanApp(row)
}

func scanApp(row *sql.Row) (*core.App, error) {
	var app core.App
	err := row.Scan(&app.ID, &app.Name, &app.APIKey, &app.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrAppNotFound
	}
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &app, nil
}

// GetByWallet returns the user bound to the wallet within the app.
func (s *PostgresStore) GetByWallet(ctx context.Context, appID, walletPublicKey string) (*core.DAppUser, error) {
	row := s.db.QueryRowContext(ctx, userSelect+`
		WHERE app_id = $1 AND wallet_public_key = $2
	`, appID, walletPublicKey)
	return scanUser(row)
}

// GetByEmail returns the user registered with the email within the app.
func (s *PostgresStore) GetByEmail(ctx context.Context, appID, email string) (*core.DAppUser, error) {
	row := s.db.QueryRowContext(ctx, userSelect+`
		WHERE app_id = $1 AND email = $2
	`, appID, email)
	return scanUser(row)
}

const userSelect = `
	SELECT id, app_id, COALESCE(wallet_public_key, ''), COALESCE(email, ''),
	       password_hash, is_email_verified, verification_code,
	       COALESCE(code_expires_at, 'epoch'::timestamptz), created_at
	FROM dapp_users
`

func scanUser(row *sql.Row) (*core.DAppUser, error) {
	var u core.DAppUser
	err := row.Scan(&u.ID, &u.AppID, &u.WalletPublicKey, &u.Email,
		&u.PasswordHash, &u.IsEmailVerified, &u.VerificationCode,
		&u.CodeExpiresAt, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, wrapDBError(err)
	}
	if u.CodeExpiresAt.Unix() == 0 {
		u.CodeExpiresAt = time.Time{}
	}
	return &u, nil
}

// Create inserts a new user. The partial unique index on
// (app_id, wallet_public_key) turns a duplicate-insert race into
// core.ErrDuplicateUser for the losing writer.
func (s *PostgresStore) Create(ctx context.Context, user *core.DAppUser) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dapp_users
			(id, app_id, wallet_public_key, email, password_hash,
			 is_email_verified, verification_code, code_expires_at, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, NULLIF($8, 'epoch'::timestamptz), $9)
	`, user.ID, user.AppID, user.WalletPublicKey, user.Email, user.PasswordHash,
		user.IsEmailVerified, user.VerificationCode, nullableTime(user.CodeExpiresAt), user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return core.ErrDuplicateUser
		}
		return wrapDBError(err)
	}
	return nil
}

// Update persists mutations to an existing user.
func (s *PostgresStore) Update(ctx context.Context, user *core.DAppUser) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE dapp_users
		SET wallet_public_key = NULLIF($2, ''),
		    email             = NULLIF($3, ''),
		    password_hash     = $4,
		    is_email_verified = $5,
		    verification_code = $6,
		    code_expires_at   = NULLIF($7, 'epoch'::timestamptz)
		WHERE id = $1
	`, user.ID, user.WalletPublicKey, user.Email, user.PasswordHash,
		user.IsEmailVerified, user.VerificationCode, nullableTime(user.CodeExpiresAt))
	if err != nil {
		return wrapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

// Insert stores a freshly issued challenge.
func (s *PostgresStore) Insert(ctx context.Context, challenge *core.LoginChallenge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO login_challenges
			(id, app_id, wallet_public_key, challenge, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, challenge.ID, challenge.AppID, challenge.WalletPublicKey,
		challenge.Challenge, challenge.CreatedAt, challenge.ExpiresAt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

// Consume deletes and returns the matching unexpired challenge in one
// statement. The conditional delete is the linearization point: the database
// hands the deleted row to exactly one of any number of concurrent callers.
func (s *PostgresStore) Consume(ctx context.Context, id, appID, walletPublicKey string) (*core.LoginChallenge, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM login_challenges
		WHERE id = $1 AND app_id = $2 AND wallet_public_key = $3 AND expires_at > $4
		RETURNING id, app_id, wallet_public_key, challenge, created_at, expires_at
	`, id, appID, walletPublicKey, time.Now().UTC())

	var ch core.LoginChallenge
	err := row.Scan(&ch.ID, &ch.AppID, &ch.WalletPublicKey, &ch.Challenge, &ch.CreatedAt, &ch.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrChallengeNotFoundOrExpired
	}
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &ch, nil
}

// DeleteExpired removes challenges past their expiry. A housekeeping sweep
// calls this periodically; correctness never depends on it because Consume
// checks expiry itself.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM login_challenges WHERE expires_at <= $1
	`, time.Now().UTC())
	if err != nil {
		return 0, wrapDBError(err)
	}
	return res.RowsAffected()
}

func nullableTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return t
}

// wrapDBError classifies driver errors. Anything that is not a constraint
// violation is treated as transient so writers can retry it.
func wrapDBError(err error) error {
	return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
}
