// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime knob. Only JWTSecret is mandatory; everything
// else has a development-friendly default, and optional backends (Postgres,
// Redis) are enabled by setting their URLs.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DatabaseURL enables the Postgres store; empty means in-memory.
	DatabaseURL string `env:"DATABASE_URL"`

	// RedisURL enables the Redis challenge store and the event publisher.
	RedisURL string `env:"REDIS_URL"`

	SolanaRPCURL string `env:"SOLANA_RPC_URL" envDefault:"https://api.devnet.solana.com"`

	WalrusPublisherURL  string `env:"WALRUS_PUBLISHER_URL" envDefault:"https://publisher.walrus-testnet.walrus.space"`
	WalrusAggregatorURL string `env:"WALRUS_AGGREGATOR_URL" envDefault:"https://aggregator.walrus-testnet.walrus.space"`
	GateBlobRetrieval   bool   `env:"GATE_BLOB_RETRIEVAL" envDefault:"false"`

	PythHermesURL string `env:"PYTH_HERMES_URL" envDefault:"https://hermes.pyth.network"`

	JWTSecret   string `env:"JWT_SECRET,required"`
	JWTIssuer   string `env:"JWT_ISSUER" envDefault:"prismon"`
	JWTAudience string `env:"JWT_AUDIENCE" envDefault:"prismon-dapp"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
