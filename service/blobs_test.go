package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismon-labs/prismon/core"
)

type stubBlobStore struct {
	blobs map[string][]byte
	puts  int
}

func (s *stubBlobStore) Put(ctx context.Context, data []byte, opts core.StoreBlobOptions) (string, error) {
	s.puts++
	if s.blobs == nil {
		s.blobs = make(map[string][]byte)
	}
	id := "blob-1"
	s.blobs[id] = data
	return id, nil
}

func (s *stubBlobStore) Get(ctx context.Context, blobID string) ([]byte, error) {
	data, ok := s.blobs[blobID]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return data, nil
}

func TestStoreBlob(t *testing.T) {
	now := time.Now().UTC()
	wallet := newTestWallet(t).Address()

	chain := &stubChain{txs: map[string]*core.ChainTransaction{
		"tx-1": paymentTx(wallet, now.Add(-time.Minute), StoreMemo("file.txt")),
	}}
	blobs := &stubBlobStore{}
	svc := NewBlobService(newTxVerifier(chain, now), blobs, false, zerolog.Nop())

	id, err := svc.StoreBlob(context.Background(), wallet, []byte("payload"), "file.txt", core.StoreBlobOptions{}, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "blob-1", id)
	assert.Equal(t, []byte("payload"), blobs.blobs["blob-1"])
}

func TestStoreBlobRejectsWrongMemo(t *testing.T) {
	now := time.Now().UTC()
	wallet := newTestWallet(t).Address()

	// The transaction paid for a different file name.
	chain := &stubChain{txs: map[string]*core.ChainTransaction{
		"tx-1": paymentTx(wallet, now.Add(-time.Minute), StoreMemo("other.txt")),
	}}
	blobs := &stubBlobStore{}
	svc := NewBlobService(newTxVerifier(chain, now), blobs, false, zerolog.Nop())

	_, err := svc.StoreBlob(context.Background(), wallet, []byte("payload"), "file.txt", core.StoreBlobOptions{}, "tx-1")
	assert.ErrorIs(t, err, core.ErrMemoMismatch)
	assert.Zero(t, blobs.puts)
}

func TestStoreBlobValidatesInputs(t *testing.T) {
	svc := NewBlobService(newTxVerifier(&stubChain{}, time.Now()), &stubBlobStore{}, false, zerolog.Nop())
	wallet := newTestWallet(t).Address()

	_, err := svc.StoreBlob(context.Background(), wallet, nil, "file.txt", core.StoreBlobOptions{}, "tx-1")
	assert.Error(t, err)

	_, err = svc.StoreBlob(context.Background(), wallet, []byte("x"), "", core.StoreBlobOptions{}, "tx-1")
	assert.Error(t, err)

	_, err = svc.StoreBlob(context.Background(), wallet, []byte("x"), "file.txt", core.StoreBlobOptions{}, "")
	assert.Error(t, err)
}

func TestRetrieveBlobUngated(t *testing.T) {
	blobs := &stubBlobStore{blobs: map[string][]byte{"blob-1": []byte("payload")}}
	svc := NewBlobService(newTxVerifier(&stubChain{}, time.Now()), blobs, false, zerolog.Nop())

	data, err := svc.RetrieveBlob(context.Background(), "", "blob-1", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestRetrieveBlobGated(t *testing.T) {
	now := time.Now().UTC()
	wallet := newTestWallet(t).Address()
	blobs := &stubBlobStore{blobs: map[string][]byte{"blob-1": []byte("payload")}}

	chain := &stubChain{txs: map[string]*core.ChainTransaction{
		"tx-1": paymentTx(wallet, now.Add(-time.Minute), RetrieveMemo("blob-1")),
	}}
	svc := NewBlobService(newTxVerifier(chain, now), blobs, true, zerolog.Nop())

	t.Run("without transaction", func(t *testing.T) {
		_, err := svc.RetrieveBlob(context.Background(), wallet, "blob-1", "missing-tx")
		assert.ErrorIs(t, err, core.ErrTransactionNotFound)
	})

	t.Run("with paying transaction", func(t *testing.T) {
		data, err := svc.RetrieveBlob(context.Background(), wallet, "blob-1", "tx-1")
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), data)
	})
}
