package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prismon-labs/prismon/core"
	"github.com/prismon-labs/prismon/ports"
)

// BlobService persists blobs on an external storage network. Every store is
// gated on an on-chain payment transaction whose memo names the file.
type BlobService struct {
	verifier *TxVerifier
	store    ports.BlobStore
	log      zerolog.Logger

	// gateRetrieve additionally requires a transaction memo for reads.
	gateRetrieve bool
}

// NewBlobService creates a blob service. gateRetrieve controls whether
// retrievals also require an authorizing transaction.
func NewBlobService(verifier *TxVerifier, store ports.BlobStore, gateRetrieve bool, log zerolog.Logger) *BlobService {
	return &BlobService{
		verifier:     verifier,
		store:        store,
		gateRetrieve: gateRetrieve,
		log:          log.With().Str("component", "blobs").Logger(),
	}
}

// StoreMemo is the memo a wallet must put on chain to authorize storing fileName.
func StoreMemo(fileName string) string {
	return "Prismon:store:" + fileName
}

// RetrieveMemo is the memo authorizing retrieval of blobID.
func RetrieveMemo(blobID string) string {
	return "Prismon:retrieve:" + blobID
}

// StoreBlob verifies the authorizing transaction and uploads the blob,
// returning the backend's blob id.
func (s *BlobService) StoreBlob(ctx context.Context, walletPublicKey string, data []byte, fileName string, opts core.StoreBlobOptions, transactionID string) (string, error) {
	if len(data) == 0 || fileName == "" || transactionID == "" {
		return "", errors.New("wallet, data, file name and transaction id are required")
	}

	if err := s.verifier.Authorize(ctx, walletPublicKey, transactionID, StoreMemo(fileName)); err != nil {
		return "", err
	}

	blobID, err := s.store.Put(ctx, data, opts)
	if err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}

	s.log.Info().
		Str("blob_id", blobID).
		Str("wallet", walletPublicKey).
		Str("file_name", fileName).
		Msg("stored blob")
	return blobID, nil
}

// RetrieveBlob downloads a blob. When retrieval gating is enabled the caller
// must supply a transaction carrying the retrieve memo.
func (s *BlobService) RetrieveBlob(ctx context.Context, walletPublicKey, blobID, transactionID string) ([]byte, error) {
	if blobID == "" {
		return nil, errors.New("blob id is required")
	}

	if s.gateRetrieve {
		if err := s.verifier.Authorize(ctx, walletPublicKey, transactionID, RetrieveMemo(blobID)); err != nil {
			return nil, err
		}
	}

	data, err := s.store.Get(ctx, blobID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve blob: %w", err)
	}
	return data, nil
}
