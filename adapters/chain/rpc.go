// Package chain implements the RPC client used to fetch confirmed
// transactions from a Solana node.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/prismon-labs/prismon/core"
	"github.com/prismon-labs/prismon/ports"
)

const defaultRequestTimeout = 10 * time.Second

// RPCClient talks JSON-RPC to a Solana node.
type RPCClient struct {
	endpoint string
	http     *http.Client
	log      zerolog.Logger
}

var _ ports.ChainClient = (*RPCClient)(nil)

// NewRPCClient creates a client for the given RPC endpoint.
func NewRPCClient(endpoint string, log zerolog.Logger) *RPCClient {
	return &RPCClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultRequestTimeout},
		log:      log.With().Str("component", "chain").Logger(),
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// GetTransaction fetches a confirmed transaction by signature. An absent or
// not-yet-confirmed transaction yields core.ErrTransactionNotFound; callers
// own the retry policy.
func (c *RPCClient) GetTransaction(ctx context.Context, signature string) (*core.ChainTransaction, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getTransaction",
		Params: []interface{}{
			signature,
			map[string]interface{}{
				"encoding":                       "json",
				"commitment":                     "confirmed",
				"maxSupportedTransactionVersion": 0,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rpc response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rpc returned status %d", resp.StatusCode)
	}

	if errMsg := gjson.GetBytes(payload, "error.message"); errMsg.Exists() {
		return nil, fmt.Errorf("rpc error: %s", errMsg.String())
	}

	result := gjson.GetBytes(payload, "result")
	if !result.Exists() || result.Type == gjson.Null {
		return nil, core.ErrTransactionNotFound
	}

	return parseTransaction(signature, result), nil
}

// parseTransaction maps the RPC json encoding onto the domain transaction,
// resolving each instruction's programIdIndex against the account key table.
func parseTransaction(signature string, result gjson.Result) *core.ChainTransaction {
	tx := &core.ChainTransaction{
		Signature:             signature,
		BlockTime:             result.Get("blockTime").Int(),
		NumRequiredSignatures: int(result.Get("transaction.message.header.numRequiredSignatures").Int()),
	}

	for _, key := range result.Get("transaction.message.accountKeys").Array() {
		tx.AccountKeys = append(tx.AccountKeys, key.String())
	}

	for _, ins := range result.Get("transaction.message.instructions").Array() {
		idx := int(ins.Get("programIdIndex").Int())
		programID := ""
		if idx >= 0 && idx < len(tx.AccountKeys) {
			programID = tx.AccountKeys[idx]
		}
		tx.Instructions = append(tx.Instructions, core.ChainInstruction{
			ProgramID: programID,
			Data:      ins.Get("data").String(),
		})
	}

	return tx
}
