// Package pyth fetches latest prices from a Pyth Hermes endpoint.
package pyth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/prismon-labs/prismon/core"
	"github.com/prismon-labs/prismon/ports"
)

const defaultRequestTimeout = 10 * time.Second

// Client implements ports.PriceSource against the Hermes HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

var _ ports.PriceSource = (*Client)(nil)

// NewClient creates a Hermes client.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultRequestTimeout},
		log:     log.With().Str("component", "pyth").Logger(),
	}
}

// LatestPrices returns the latest published price for each feed id. Prices
// arrive as scaled integers with an exponent; they are exposed as decimals
// so callers never re-derive the scaling.
func (c *Client) LatestPrices(ctx context.Context, feedIDs []string) ([]core.PriceUpdate, error) {
	query := url.Values{}
	for _, id := range feedIDs {
		query.Add("ids[]", id)
	}

	requestURL := c.baseURL + "/v2/updates/price/latest?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build price request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read price response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hermes returned status %d", resp.StatusCode)
	}

	var updates []core.PriceUpdate
	for _, parsed := range gjson.GetBytes(payload, "parsed").Array() {
		expo := int32(parsed.Get("price.expo").Int())
		updates = append(updates, core.PriceUpdate{
			FeedID:      parsed.Get("id").String(),
			Price:       decimal.New(parsed.Get("price.price").Int(), expo),
			Confidence:  decimal.New(parsed.Get("price.conf").Int(), expo),
			PublishTime: time.Unix(parsed.Get("price.publish_time").Int(), 0).UTC(),
		})
	}

	c.log.Debug().Int("feeds", len(updates)).Msg("fetched prices from hermes")
	return updates, nil
}
