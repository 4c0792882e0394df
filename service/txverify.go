package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prismon-labs/prismon/core"
	"github.com/prismon-labs/prismon/ports"
	"github.com/prismon-labs/prismon/solana"
)

const (
	// txMaxAge is the replay window: transactions older than this are rejected.
	txMaxAge = 300 * time.Second

	// txMaxFutureSkew tolerates RPC nodes whose clock runs slightly ahead.
	txMaxFutureSkew = 60 * time.Second

	txFetchAttempts = 3
	txFetchDelay    = time.Second
)

// TxVerifier authorizes an off-chain action by proving it was paid for by a
// specific, fresh on-chain transaction signed by the claimed wallet and
// carrying the action's exact memo string. It is a pure gate: no side effects.
type TxVerifier struct {
	chain ports.ChainClient
	log   zerolog.Logger

	fetchDelay time.Duration
	now        func() time.Time
}

// NewTxVerifier creates a transaction verifier.
func NewTxVerifier(chain ports.ChainClient, log zerolog.Logger) *TxVerifier {
	return &TxVerifier{
		chain:      chain,
		log:        log.With().Str("component", "txverify").Logger(),
		fetchDelay: txFetchDelay,
		now:        time.Now,
	}
}

// Authorize verifies that the transaction is confirmed and fresh, was signed
// by the wallet, and carries a memo equal to expectedMemo. A nil return means
// the calling action handler may proceed with its side effect.
func (v *TxVerifier) Authorize(ctx context.Context, walletPublicKey, transactionID, expectedMemo string) error {
	log := v.log.With().
		Str("wallet", walletPublicKey).
		Str("tx", transactionID).
		Logger()

	key, err := solana.ParsePublicKey(walletPublicKey)
	if err != nil {
		log.Warn().Msg("authorization rejected: invalid public key")
		return err
	}
	if !key.IsOnCurve() {
		log.Warn().Msg("authorization rejected: public key not on curve")
		return solana.ErrInvalidPublicKey
	}

	tx, err := v.fetchTransaction(ctx, transactionID)
	if err != nil {
		log.Warn().Err(err).Msg("authorization rejected: transaction not found")
		return err
	}

	age := v.now().UTC().Sub(time.Unix(tx.BlockTime, 0))
	if age > txMaxAge {
		log.Warn().Dur("age", age).Msg("authorization rejected: transaction too old")
		return core.ErrTransactionTooOld
	}
	if -age > txMaxFutureSkew {
		log.Warn().Dur("skew", -age).Msg("authorization rejected: transaction from the future")
		return core.ErrTransactionFromFuture
	}

	if !containsSigner(tx.RequiredSigners(), walletPublicKey) {
		log.Warn().Strs("signers", tx.RequiredSigners()).Msg("authorization rejected: wallet is not a signer")
		return core.ErrSignerMismatch
	}

	if err := matchMemo(tx, expectedMemo); err != nil {
		log.Warn().Err(err).Str("expected_memo", expectedMemo).Msg("authorization rejected")
		return err
	}

	log.Debug().Str("memo", expectedMemo).Msg("transaction authorized")
	return nil
}

// fetchTransaction queries the chain with up to three attempts and linear
// backoff (1s, 2s) between them.
func (v *TxVerifier) fetchTransaction(ctx context.Context, transactionID string) (*core.ChainTransaction, error) {
	var lastErr error
	for attempt := 1; attempt <= txFetchAttempts; attempt++ {
		tx, err := v.chain.GetTransaction(ctx, transactionID)
		if err == nil {
			return tx, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		if attempt == txFetchAttempts {
			break
		}

		wait := time.Duration(attempt) * v.fetchDelay
		v.log.Warn().
			Int("attempt", attempt).
			Dur("backoff", wait).
			Str("tx", transactionID).
			Msg("transaction not available yet, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if errors.Is(lastErr, core.ErrTransactionNotFound) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %v", core.ErrTransactionNotFound, lastErr)
}

func containsSigner(signers []string, wallet string) bool {
	for _, s := range signers {
		if s == wallet {
			return true
		}
	}
	return false
}

// matchMemo scans the transaction for memo program instructions. No memo
// instruction at all and a memo with the wrong text are distinct failures.
func matchMemo(tx *core.ChainTransaction, expected string) error {
	found := false
	for _, ins := range tx.Instructions {
		if ins.ProgramID != solana.MemoProgramID {
			continue
		}
		found = true
		if solana.DecodeMemo(ins.Data) == expected {
			return nil
		}
	}
	if !found {
		return core.ErrMemoMissing
	}
	return core.ErrMemoMismatch
}
