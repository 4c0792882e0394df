package pyth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestPrices(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{
			"parsed": [
				{
					"id": "feed-1",
					"price": {"price": "6838000000", "conf": "2100000", "expo": -8, "publish_time": 1700000000}
				}
			]
		}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())
	updates, err := client.LatestPrices(context.Background(), []string{"feed-1"})
	require.NoError(t, err)
	require.Len(t, updates, 1)

	assert.Equal(t, "feed-1", updates[0].FeedID)
	assert.Equal(t, "68.38", updates[0].Price.String())
	assert.Equal(t, "0.021", updates[0].Confidence.String())
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), updates[0].PublishTime)
	assert.Contains(t, gotQuery, "ids%5B%5D=feed-1")
}

func TestLatestPricesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())
	_, err := client.LatestPrices(context.Background(), []string{"feed-1"})
	assert.Error(t, err)
}
