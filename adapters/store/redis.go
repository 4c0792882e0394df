package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prismon-labs/prismon/core"
)

// consumeScript checks the bound app and wallet and deletes the challenge in
// one atomic step on the Redis server. A plain GET followed by DEL would let
// two concurrent logins both observe the challenge before either deletes it.
var consumeScript = redis.NewScript(`
	local payload = redis.call("GET", KEYS[1])
	if not payload then
		return false
	end
	local challenge = cjson.decode(payload)
	if challenge.app_id ~= ARGV[1] or challenge.wallet_public_key ~= ARGV[2] then
		return false
	end
	redis.call("DEL", KEYS[1])
	return payload
`)

type redisChallenge struct {
	ID              string    `json:"id"`
	AppID           string    `json:"app_id"`
	WalletPublicKey string    `json:"wallet_public_key"`
	Challenge       string    `json:"challenge"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// RedisChallengeStore keeps login challenges in Redis, relying on key TTLs
// for expiry and on a Lua script for atomic consumption. Deployments that
// already run Redis for events can use it instead of the relational store.
type RedisChallengeStore struct {
	client *redis.Client
}

// NewRedisChallengeStore creates a challenge store on an existing client.
func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{client: client}
}

func challengeKey(id string) string {
	return "challenge:" + id
}

// Insert stores the challenge with a TTL equal to its remaining lifetime.
func (s *RedisChallengeStore) Insert(ctx context.Context, challenge *core.LoginChallenge) error {
	payload, err := json.Marshal(redisChallenge{
		ID:              challenge.ID,
		AppID:           challenge.AppID,
		WalletPublicKey: challenge.WalletPublicKey,
		Challenge:       challenge.Challenge,
		CreatedAt:       challenge.CreatedAt,
		ExpiresAt:       challenge.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode challenge: %w", err)
	}

	ttl := time.Until(challenge.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := s.client.Set(ctx, challengeKey(challenge.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// Consume atomically claims the challenge. Expired keys are evicted by Redis,
// so an expired challenge is indistinguishable from one that never existed.
func (s *RedisChallengeStore) Consume(ctx context.Context, id, appID, walletPublicKey string) (*core.LoginChallenge, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{challengeKey(id)}, appID, walletPublicKey).Result()
	if err == redis.Nil {
		return nil, core.ErrChallengeNotFoundOrExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}

	payload, ok := res.(string)
	if !ok {
		return nil, core.ErrChallengeNotFoundOrExpired
	}

	var ch redisChallenge
	if err := json.Unmarshal([]byte(payload), &ch); err != nil {
		return nil, fmt.Errorf("failed to decode challenge: %w", err)
	}

	return &core.LoginChallenge{
		ID:              ch.ID,
		AppID:           ch.AppID,
		WalletPublicKey: ch.WalletPublicKey,
		Challenge:       ch.Challenge,
		CreatedAt:       ch.CreatedAt,
		ExpiresAt:       ch.ExpiresAt,
	}, nil
}
