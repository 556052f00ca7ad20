// Package quote implements the external market quote source against the
// Yahoo Finance v8 chart API. Quotes are cached for a short TTL; all
// failures are soft from the caller's perspective.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/domain"
)

// ErrNoResult is returned when the provider resolves the symbol to nothing.
var ErrNoResult = errors.New("quote: no result for symbol")

const (
	defaultTTL     = 60 * time.Second
	defaultTimeout = 8 * time.Second
)

type cachedQuote struct {
	quote   domain.Quote
	fetched time.Time
}

// YahooProvider implements domain.QuoteProvider.
type YahooProvider struct {
	cli     *http.Client
	baseURL string
	ttl     time.Duration
	log     zerolog.Logger

	mu    sync.RWMutex
	cache map[string]cachedQuote
}

// NewYahooProvider creates a new Yahoo quote provider instance
func NewYahooProvider(log zerolog.Logger) *YahooProvider {
	return &YahooProvider{
		cli:     &http.Client{Timeout: defaultTimeout},
		baseURL: "https://query2.finance.yahoo.com",
		ttl:     defaultTTL,
		log:     log.With().Str("component", "quote").Logger(),
		cache:   make(map[string]cachedQuote),
	}
}

// GetQuote fetches the latest quote for one symbol
func (p *YahooProvider) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.Quote{}, ErrNoResult
	}

	p.mu.RLock()
	if c, ok := p.cache[symbol]; ok && time.Since(c.fetched) < p.ttl {
		p.mu.RUnlock()
		return c.quote, nil
	}
	p.mu.RUnlock()

	quote, err := p.fetch(ctx, symbol)
	if err != nil {
		return domain.Quote{}, err
	}

	p.mu.Lock()
	p.cache[symbol] = cachedQuote{quote: quote, fetched: time.Now()}
	p.mu.Unlock()

	return quote, nil
}

// GetQuotes fetches quotes for several symbols. The result is keyed by the
// symbol exactly as passed, so callers can look their own input back up.
// Symbols that fail to resolve are logged and absent from the returned map;
// the call itself only fails when every symbol failed.
func (p *YahooProvider) GetQuotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	quotes := make(map[string]domain.Quote, len(symbols))
	var lastErr error

	for _, symbol := range symbols {
		quote, err := p.GetQuote(ctx, symbol)
		if err != nil {
			p.log.Warn().Str("symbol", symbol).Err(err).Msg("Quote fetch failed")
			lastErr = err
			continue
		}
		quotes[symbol] = quote
	}

	if len(quotes) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return quotes, nil
}

func (p *YahooProvider) fetch(ctx context.Context, symbol string) (domain.Quote, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d", p.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Quote{}, err
	}
	req.Header.Set("User-Agent", "invest-portal/1.0")

	resp, err := p.cli.Do(req)
	if err != nil {
		return domain.Quote{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Quote{}, fmt.Errorf("quote: http %d for %s", resp.StatusCode, symbol)
	}

	var raw struct {
		Chart struct {
			Result []struct {
				Meta struct {
					RegularMarketPrice float64 `json:"regularMarketPrice"`
					RegularMarketTime  int64   `json:"regularMarketTime"`
				} `json:"meta"`
			} `json:"result"`
		} `json:"chart"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.Quote{}, err
	}
	if len(raw.Chart.Result) == 0 {
		return domain.Quote{}, ErrNoResult
	}

	meta := raw.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return domain.Quote{}, ErrNoResult
	}

	asOf := time.Unix(meta.RegularMarketTime, 0)
	if meta.RegularMarketTime == 0 {
		asOf = time.Now()
	}

	return domain.Quote{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(meta.RegularMarketPrice),
		Timestamp: asOf,
	}, nil
}
