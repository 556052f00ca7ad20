package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{"meta":{"regularMarketPrice":%s,"regularMarketTime":1735689600}}]}}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *YahooProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p := NewYahooProvider(zerolog.Nop())
	p.baseURL = server.URL
	return p
}

func TestGetQuote(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/SPY", r.URL.Path)
		fmt.Fprintf(w, chartBody, "512.34")
	})

	quote, err := p.GetQuote(context.Background(), "spy")

	require.NoError(t, err)
	assert.Equal(t, "SPY", quote.Symbol)
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("512.34")), "price = %s", quote.Price)
	assert.Equal(t, time.Unix(1735689600, 0), quote.Timestamp)
}

func TestGetQuote_CachesWithinTTL(t *testing.T) {
	var hits int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprintf(w, chartBody, "100.00")
	})

	_, err := p.GetQuote(context.Background(), "SPY")
	require.NoError(t, err)
	_, err = p.GetQuote(context.Background(), "SPY")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGetQuote_EmptySymbol(t *testing.T) {
	p := NewYahooProvider(zerolog.Nop())

	_, err := p.GetQuote(context.Background(), "  ")

	assert.ErrorIs(t, err, ErrNoResult)
}

func TestGetQuote_NoResult(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[]}}`)
	})

	_, err := p.GetQuote(context.Background(), "NOPE")

	assert.ErrorIs(t, err, ErrNoResult)
}

func TestGetQuote_HTTPError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := p.GetQuote(context.Background(), "SPY")

	assert.Error(t, err)
}

func TestGetQuotes_PartialFailure(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v8/finance/chart/BAD" {
			fmt.Fprint(w, `{"chart":{"result":[]}}`)
			return
		}
		fmt.Fprintf(w, chartBody, "60000.00")
	})

	quotes, err := p.GetQuotes(context.Background(), []string{"BTC-USD", "BAD"})

	require.NoError(t, err)
	assert.Len(t, quotes, 1)
	assert.True(t, quotes["BTC-USD"].Price.Equal(decimal.RequireFromString("60000.00")))
}

func TestGetQuotes_KeyedByRequestedSymbol(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, chartBody, "60000.00")
	})

	quotes, err := p.GetQuotes(context.Background(), []string{"btc-usd"})

	require.NoError(t, err)
	quote, ok := quotes["btc-usd"]
	require.True(t, ok, "quote must be retrievable under the requested symbol")
	assert.Equal(t, "BTC-USD", quote.Symbol)
}

func TestGetQuotes_AllFailed(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[]}}`)
	})

	_, err := p.GetQuotes(context.Background(), []string{"A", "B"})

	assert.Error(t, err)
}
