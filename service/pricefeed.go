package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prismon-labs/prismon/core"
	"github.com/prismon-labs/prismon/ports"
)

// PriceFeedService exposes the latest oracle prices to app frontends.
type PriceFeedService struct {
	source ports.PriceSource
	log    zerolog.Logger
}

// NewPriceFeedService creates a price feed service.
func NewPriceFeedService(source ports.PriceSource, log zerolog.Logger) *PriceFeedService {
	return &PriceFeedService{
		source: source,
		log:    log.With().Str("component", "pricefeed").Logger(),
	}
}

// LatestPrices returns the latest published price for each feed id.
func (s *PriceFeedService) LatestPrices(ctx context.Context, feedIDs []string) ([]core.PriceUpdate, error) {
	if len(feedIDs) == 0 {
		return nil, errors.New("at least one feed id is required")
	}

	updates, err := s.source.LatestPrices(ctx, feedIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}

	s.log.Debug().Int("feeds", len(updates)).Msg("fetched latest prices")
	return updates, nil
}
