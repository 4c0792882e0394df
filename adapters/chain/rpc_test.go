package chain

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/prismon-labs/prismon/core"
)

const getTransactionResponse = `{
  "jsonrpc": "2.0",
  "id": 1,
  "result": {
    "blockTime": 1700000000,
    "transaction": {
      "message": {
        "header": {"numRequiredSignatures": 1},
        "accountKeys": [
          "Fee1PayerWa11et11111111111111111111111111111",
          "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"
        ],
        "instructions": [
          {"programIdIndex": 1, "data": "somedata"}
        ]
      }
    }
  }
}`

func TestGetTransaction(t *testing.T) {
	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		captured, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		fmt.Fprint(w, getTransactionResponse)
	}))
	defer srv.Close()

	client := NewRPCClient(srv.URL, zerolog.Nop())
	tx, err := client.GetTransaction(context.Background(), "sig-1")
	require.NoError(t, err)

	assert.Equal(t, "sig-1", tx.Signature)
	assert.Equal(t, int64(1700000000), tx.BlockTime)
	assert.Equal(t, 1, tx.NumRequiredSignatures)
	assert.Equal(t, []string{"Fee1PayerWa11et11111111111111111111111111111"}, tx.RequiredSigners())
	require.Len(t, tx.Instructions, 1)
	assert.Equal(t, "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr", tx.Instructions[0].ProgramID)
	assert.Equal(t, "somedata", tx.Instructions[0].Data)

	// The node was asked for the confirmed, json-encoded transaction.
	request := gjson.ParseBytes(captured)
	assert.Equal(t, "getTransaction", request.Get("method").String())
	assert.Equal(t, "sig-1", request.Get("params.0").String())
	assert.Equal(t, "confirmed", request.Get("params.1.commitment").String())
	assert.Equal(t, "json", request.Get("params.1.encoding").String())
}

func TestGetTransactionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":null}`)
	}))
	defer srv.Close()

	client := NewRPCClient(srv.URL, zerolog.Nop())
	_, err := client.GetTransaction(context.Background(), "sig-1")
	assert.ErrorIs(t, err, core.ErrTransactionNotFound)
}

func TestGetTransactionRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid signature"}}`)
	}))
	defer srv.Close()

	client := NewRPCClient(srv.URL, zerolog.Nop())
	_, err := client.GetTransaction(context.Background(), "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid signature")
}

func TestGetTransactionHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewRPCClient(srv.URL, zerolog.Nop())
	_, err := client.GetTransaction(context.Background(), "sig-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrTransactionNotFound)
}

func TestParseTransactionOutOfRangeProgramIndex(t *testing.T) {
	result := gjson.Parse(`{
		"blockTime": 1700000000,
		"transaction": {"message": {
			"header": {"numRequiredSignatures": 1},
			"accountKeys": ["OnlyKey1111111111111111111111111111111111111"],
			"instructions": [{"programIdIndex": 9, "data": "x"}]
		}}
	}`)

	tx := parseTransaction("sig-1", result)
	require.Len(t, tx.Instructions, 1)
	assert.Empty(t, tx.Instructions[0].ProgramID)
}
