package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceUpdate is the latest published price for a single feed.
type PriceUpdate struct {
	FeedID      string
	Price       decimal.Decimal
	Confidence  decimal.Decimal
	PublishTime time.Time
}

// StoreBlobOptions mirror the knobs the blob backend accepts on upload.
type StoreBlobOptions struct {
	Epochs       uint32
	SendObjectTo string
	Deletable    bool
}
