package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prismon-labs/prismon/core"
	"github.com/prismon-labs/prismon/ports"
)

const (
	// challengePrefix is part of the wire contract: clients display and sign
	// the challenge text verbatim.
	challengePrefix = "Prismon Login: "

	// DefaultChallengeTTL is how long an issued challenge stays valid.
	DefaultChallengeTTL = 5 * time.Minute
)

// ChallengeService issues and consumes single-use login challenges keyed by
// (app, wallet).
type ChallengeService struct {
	challenges ports.ChallengeRepository
	log        zerolog.Logger

	ttl time.Duration
	now func() time.Time
}

// NewChallengeService creates a challenge service with the default TTL.
func NewChallengeService(challenges ports.ChallengeRepository, log zerolog.Logger) *ChallengeService {
	return &ChallengeService{
		challenges: challenges,
		log:        log.With().Str("component", "challenges").Logger(),
		ttl:        DefaultChallengeTTL,
		now:        time.Now,
	}
}

// Issue generates a new unguessable challenge for the wallet and persists it.
// The caller signs the challenge text off-system and presents the signature
// on login.
func (s *ChallengeService) Issue(ctx context.Context, appID, walletPublicKey string) (*core.LoginChallenge, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate challenge nonce: %w", err)
	}

	now := s.now().UTC()
	challenge := &core.LoginChallenge{
		ID:              uuid.NewString(),
		AppID:           appID,
		WalletPublicKey: walletPublicKey,
		Challenge:       challengePrefix + hex.EncodeToString(nonce),
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.ttl),
	}

	if err := s.challenges.Insert(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}

	s.log.Debug().
		Str("challenge_id", challenge.ID).
		Str("app_id", appID).
		Str("wallet", walletPublicKey).
		Time("expires_at", challenge.ExpiresAt).
		Msg("issued login challenge")

	return challenge, nil
}

// Consume atomically claims the challenge matching (id, app, wallet). The
// challenge is gone afterwards whether or not the caller's signature turns
// out to be valid; a second consume for the same id finds nothing.
func (s *ChallengeService) Consume(ctx context.Context, id, appID, walletPublicKey string) (*core.LoginChallenge, error) {
	challenge, err := s.challenges.Consume(ctx, id, appID, walletPublicKey)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("challenge_id", id).
		Str("app_id", appID).
		Str("wallet", walletPublicKey).
		Msg("consumed login challenge")

	return challenge, nil
}
