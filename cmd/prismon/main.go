package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prismon-labs/prismon/adapters/chain"
	"github.com/prismon-labs/prismon/adapters/events"
	"github.com/prismon-labs/prismon/adapters/pyth"
	"github.com/prismon-labs/prismon/adapters/store"
	"github.com/prismon-labs/prismon/adapters/tokenizer"
	"github.com/prismon-labs/prismon/adapters/walrus"
	"github.com/prismon-labs/prismon/config"
	"github.com/prismon-labs/prismon/ports"
	"github.com/prismon-labs/prismon/service"
	httptransport "github.com/prismon-labs/prismon/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := zerolog.New(os.Stderr)
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	ctx := context.Background()

	var (
		apps       ports.AppRepository
		users      ports.UserRepository
		challenges ports.ChallengeRepository
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		defer db.Close()

		pg := store.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		apps, users, challenges = pg, pg, pg
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		mem := store.NewMemoryStore()
		apps, users, challenges = mem, mem, mem
	}

	var publisher ports.EventPublisher = events.NopPublisher{}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to parse redis url")
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()

		challenges = store.NewRedisChallengeStore(redisClient)

		wmPublisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		publisher = events.NewWatermillPublisher(wmPublisher)
	}

	sessionTokens := tokenizer.NewJWTTokenizer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience)

	challengeService := service.NewChallengeService(challenges, log)
	onboardingService := service.NewOnboardingService(users, publisher, log)
	authService := service.NewAuthService(apps, users, challengeService, sessionTokens, publisher, log)

	rpcClient := chain.NewRPCClient(cfg.SolanaRPCURL, log)
	verifier := service.NewTxVerifier(rpcClient, log)
	blobStore := walrus.NewClient(cfg.WalrusPublisherURL, cfg.WalrusAggregatorURL, log)
	blobService := service.NewBlobService(verifier, blobStore, cfg.GateBlobRetrieval, log)

	priceSource := pyth.NewClient(cfg.PythHermesURL, log)
	priceService := service.NewPriceFeedService(priceSource, log)

	handlers := httptransport.NewHandlers(challengeService, onboardingService, authService, blobService, priceService)
	router := httptransport.SetupRouter(handlers, apps, sessionTokens)

	log.Info().Str("addr", cfg.HTTPAddr).Msg("starting server")
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
