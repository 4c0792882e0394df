package core

import "time"

// SignupEvent is published when a wallet is bound to a new user.
type SignupEvent struct {
	UserID          string    `json:"user_id"`
	AppID           string    `json:"app_id"`
	WalletPublicKey string    `json:"wallet_public_key"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// LoginEvent is published on each successful login.
type LoginEvent struct {
	UserID     string    `json:"user_id"`
	AppID      string    `json:"app_id"`
	Method     string    `json:"method"` // "wallet" or "email"
	OccurredAt time.Time `json:"occurred_at"`
}
