// Package store provides the persistence adapters: Postgres for production,
// Redis for challenge storage, and an in-memory variant for tests and
// development.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/prismon-labs/prismon/core"
)

// MemoryStore keeps apps, users and challenges in maps guarded by a mutex.
// Challenge consumption happens under the lock, so the single-use guarantee
// holds for concurrent callers the same way it does in the SQL adapter.
type MemoryStore struct {
	mu         sync.Mutex
	apps       map[string]*core.App
	users      map[string]*core.DAppUser
	challenges map[string]*core.LoginChallenge

	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		apps:       make(map[string]*core.App),
		users:      make(map[string]*core.DAppUser),
		challenges: make(map[string]*core.LoginChallenge),
		now:        time.Now,
	}
}

// SetClock overrides the store's clock. Tests use it to expire challenges.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddApp seeds a tenant app.
func (s *MemoryStore) AddApp(app *core.App) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *app
	s.apps[app.ID] = &cp
}

// GetByID returns the app with the given id.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*core.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, core.ErrAppNotFound
	}
	cp := *app
	return &cp, nil
}

// GetByAPIKey returns the app owning the API key.
func (s *MemoryStore) GetByAPIKey(ctx context.Context, apiKey string) (*core.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, app := range s.apps {
		if app.APIKey == apiKey {
			cp := *app
			return &cp, nil
		}
	}
	return nil, core.ErrAppNotFound
}

// GetByWallet returns the user bound to the wallet within the app.
func (s *MemoryStore) GetByWallet(ctx context.Context, appID, walletPublicKey string) (*core.DAppUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.AppID == appID && u.WalletPublicKey == walletPublicKey && walletPublicKey != "" {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrUserNotFound
}

// GetByEmail returns the user registered with the email within the app.
func (s *MemoryStore) GetByEmail(ctx context.Context, appID, email string) (*core.DAppUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.AppID == appID && u.Email == email && email != "" {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrUserNotFound
}

// Create inserts a user, enforcing the (app, wallet) uniqueness constraint.
func (s *MemoryStore) Create(ctx context.Context, user *core.DAppUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return core.ErrDuplicateUser
	}
	for _, u := range s.users {
		if u.AppID == user.AppID && user.WalletPublicKey != "" && u.WalletPublicKey == user.WalletPublicKey {
			return core.ErrDuplicateUser
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// Update overwrites an existing user.
func (s *MemoryStore) Update(ctx context.Context, user *core.DAppUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return core.ErrUserNotFound
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// Insert stores a challenge.
func (s *MemoryStore) Insert(ctx context.Context, challenge *core.LoginChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *challenge
	s.challenges[challenge.ID] = &cp
	return nil
}

// Consume claims the unexpired challenge matching all three fields. The
// check and the delete happen under one lock acquisition, so two concurrent
// consumers of the same id cannot both succeed.
func (s *MemoryStore) Consume(ctx context.Context, id, appID, walletPublicKey string) (*core.LoginChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[id]
	if !ok || ch.AppID != appID || ch.WalletPublicKey != walletPublicKey || !ch.ExpiresAt.After(s.now()) {
		return nil, core.ErrChallengeNotFoundOrExpired
	}

	delete(s.challenges, id)
	cp := *ch
	return &cp, nil
}

// UserCount reports the number of stored users. Tests use it to assert
// signup idempotency.
func (s *MemoryStore) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
