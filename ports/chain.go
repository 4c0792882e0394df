package ports

import (
	"context"

	"github.com/prismon-labs/prismon/core"
)

// ChainClient fetches confirmed transactions from an RPC node.
type ChainClient interface {
	// GetTransaction returns the confirmed transaction for the signature, or
	// core.ErrTransactionNotFound when it is absent or not yet confirmed.
	GetTransaction(ctx context.Context, signature string) (*core.ChainTransaction, error)
}

// BlobStore stores and retrieves opaque blobs on an external storage network.
type BlobStore interface {
	// Put uploads data and returns the backend's blob id.
	Put(ctx context.Context, data []byte, opts core.StoreBlobOptions) (string, error)

	// Get downloads a blob by id.
	Get(ctx context.Context, blobID string) ([]byte, error)
}

// PriceSource returns the latest published prices for a set of feed ids.
type PriceSource interface {
	LatestPrices(ctx context.Context, feedIDs []string) ([]core.PriceUpdate, error)
}
