// Package walrus implements blob storage against a Walrus publisher and
// aggregator pair.
package walrus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/prismon-labs/prismon/core"
	"github.com/prismon-labs/prismon/ports"
)

const defaultRequestTimeout = 30 * time.Second

// Client stores blobs via the publisher and retrieves them via the aggregator.
type Client struct {
	publisherURL  string
	aggregatorURL string
	http          *http.Client
	log           zerolog.Logger
}

var _ ports.BlobStore = (*Client)(nil)

// NewClient creates a Walrus client.
func NewClient(publisherURL, aggregatorURL string, log zerolog.Logger) *Client {
	return &Client{
		publisherURL:  publisherURL,
		aggregatorURL: aggregatorURL,
		http:          &http.Client{Timeout: defaultRequestTimeout},
		log:           log.With().Str("component", "walrus").Logger(),
	}
}

// Put uploads data to the publisher and returns the blob id, whether the
// blob was newly created or already certified.
func (c *Client) Put(ctx context.Context, data []byte, opts core.StoreBlobOptions) (string, error) {
	query := url.Values{}
	if opts.Epochs > 1 {
		query.Set("epochs", strconv.FormatUint(uint64(opts.Epochs), 10))
	}
	if opts.SendObjectTo != "" {
		query.Set("send_object_to", opts.SendObjectTo)
	}
	if opts.Deletable {
		query.Set("deletable", "true")
	}

	requestURL := c.publisherURL + "/v1/blobs"
	if encoded := query.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, requestURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("blob upload failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("publisher returned status %d: %s", resp.StatusCode, payload)
	}

	if id := gjson.GetBytes(payload, "newlyCreated.blobObject.blobId"); id.Exists() {
		return id.String(), nil
	}
	if id := gjson.GetBytes(payload, "alreadyCertified.blobId"); id.Exists() {
		c.log.Debug().Str("blob_id", id.String()).Msg("blob already certified")
		return id.String(), nil
	}
	return "", fmt.Errorf("unexpected publisher response: %s", payload)
}

// Get downloads a blob from the aggregator.
func (c *Client) Get(ctx context.Context, blobID string) ([]byte, error) {
	requestURL := c.aggregatorURL + "/v1/blobs/" + url.PathEscape(blobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("blob download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("blob %s not found", blobID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aggregator returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
