// Package accrual implements the daily batch cycle: refresh marketplace
// prices from the external quote source, propagate them into matching
// investments, accrue fixed-rate interest, and recompute every touched
// portfolio. Each stage is independently retryable; one stage failing never
// aborts the stages after it.
package accrual

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/domain"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/usecase/portfolio"
)

const (
	defaultWorkers      = 4
	defaultQuoteTimeout = 10 * time.Second

	// priceScale matches the NUMERIC scale of the price columns.
	priceScale = 8
)

var (
	one         = decimal.NewFromInt(1)
	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
)

// StageError records one soft failure inside a cycle stage.
type StageError struct {
	Stage   string `json:"stage"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// CycleResult accumulates the outcome of one daily cycle. Work applied
// before an error stays applied; the run as a whole is unsuccessful when any
// stage reported errors.
type CycleResult struct {
	mu sync.Mutex

	PricesRefreshed      int          `json:"prices_refreshed"`
	InvestmentsSynced    int          `json:"investments_synced"`
	InterestAccrued      int          `json:"interest_accrued"`
	PortfoliosRecomputed int          `json:"portfolios_recomputed"`
	Errors               []StageError `json:"errors"`
	StartedAt            time.Time    `json:"started_at"`
	FinishedAt           time.Time    `json:"finished_at"`
}

// Successful reports whether the cycle ran without any stage errors.
func (r *CycleResult) Successful() bool {
	return len(r.Errors) == 0
}

// Engine runs the daily accrual cycle.
type Engine struct {
	MarketplaceRepo domain.MarketplaceRepository
	InvestmentRepo  domain.InvestmentRepository
	Quotes          domain.QuoteProvider
	Aggregator      *portfolio.Service

	// Now is the clock used for interest day counts; defaults to time.Now.
	Now func() time.Time

	workers      int
	quoteTimeout time.Duration
	log          zerolog.Logger
}

// NewEngine creates a new accrual engine instance. workers bounds the quote
// fan-out; zero values fall back to defaults.
func NewEngine(
	marketplaceRepo domain.MarketplaceRepository,
	investmentRepo domain.InvestmentRepository,
	quotes domain.QuoteProvider,
	aggregator *portfolio.Service,
	workers int,
	quoteTimeout time.Duration,
	log zerolog.Logger,
) *Engine {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if quoteTimeout <= 0 {
		quoteTimeout = defaultQuoteTimeout
	}
	return &Engine{
		MarketplaceRepo: marketplaceRepo,
		InvestmentRepo:  investmentRepo,
		Quotes:          quotes,
		Aggregator:      aggregator,
		Now:             time.Now,
		workers:         workers,
		quoteTimeout:    quoteTimeout,
		log:             log.With().Str("component", "accrual").Logger(),
	}
}

// RunDailyCycle executes the four stages in order and returns the
// accumulated result. Never returns an error: every failure is collected
// into the result instead.
func (e *Engine) RunDailyCycle(ctx context.Context) *CycleResult {
	result := &CycleResult{StartedAt: e.Now()}
	marked := newPortfolioSet()

	e.refreshMarketplacePrices(ctx, result)
	e.syncInvestmentPrices(ctx, result, marked)
	e.accrueFixedRateInterest(ctx, result, marked)
	e.recomputePortfolios(ctx, result, marked)

	result.FinishedAt = e.Now()

	e.log.Info().
		Int("prices_refreshed", result.PricesRefreshed).
		Int("investments_synced", result.InvestmentsSynced).
		Int("interest_accrued", result.InterestAccrued).
		Int("portfolios_recomputed", result.PortfoliosRecomputed).
		Int("errors", len(result.Errors)).
		Msg("Daily cycle finished")

	return result
}

// Stage 1: fetch a live quote for every symbol-bearing catalog item and
// overwrite its current price. Fan-out is bounded by the worker count; a
// fetch failure for one symbol is recorded and skipped.
func (e *Engine) refreshMarketplacePrices(ctx context.Context, result *CycleResult) {
	items, err := e.MarketplaceRepo.ListActive(ctx)
	if err != nil {
		result.record("refresh-prices", "catalog", err)
		return
	}

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, e.workers)
	)
	for _, item := range items {
		if item.Symbol == "" || item.IsFixedRate() {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(item *domain.MarketplaceItem) {
			defer wg.Done()
			defer func() { <-sem }()

			quoteCtx, cancel := context.WithTimeout(ctx, e.quoteTimeout)
			defer cancel()

			quote, err := e.Quotes.GetQuote(quoteCtx, item.Symbol)
			if err != nil {
				result.record("refresh-prices", item.Symbol, err)
				return
			}
			if err := e.MarketplaceRepo.UpdatePrice(ctx, item.ID, quote.Price, quote.Timestamp); err != nil {
				result.record("refresh-prices", item.Symbol, err)
				return
			}
			result.count(&result.PricesRefreshed)
		}(item)
	}
	wg.Wait()
}

// Stage 2: propagate refreshed marketplace prices into ACTIVE market-priced
// investments whose symbol matches a catalog item. Investments without a
// matching symbol are skipped.
func (e *Engine) syncInvestmentPrices(ctx context.Context, result *CycleResult, marked *portfolioSet) {
	items, err := e.MarketplaceRepo.ListActive(ctx)
	if err != nil {
		result.record("sync-investments", "catalog", err)
		return
	}
	bySymbol := make(map[string]*domain.MarketplaceItem, len(items))
	for _, item := range items {
		if item.Symbol != "" {
			bySymbol[item.Symbol] = item
		}
	}

	investments, err := e.InvestmentRepo.ListActive(ctx)
	if err != nil {
		result.record("sync-investments", "investments", err)
		return
	}

	for _, inv := range investments {
		if inv.IsFixedRate() || inv.Symbol == "" {
			continue
		}
		item, ok := bySymbol[inv.Symbol]
		if !ok {
			continue
		}
		if item.CurrentPrice.Equal(inv.CurrentPrice) {
			continue
		}

		inv.CurrentPrice = item.CurrentPrice
		inv.RecomputeDerived()
		if err := e.InvestmentRepo.Update(ctx, inv); err != nil {
			result.record("sync-investments", inv.ID.String(), err)
			continue
		}

		marked.add(inv.PortfolioID)
		result.count(&result.InvestmentsSynced)
	}
}

// Stage 3: accrue simple, non-compounding interest on ACTIVE fixed-rate
// investments: currentPrice = purchasePrice * (1 + rate/100 * elapsedDays/365).
// Accrual stops at maturity; an investment past its maturity date is marked
// MATURED.
func (e *Engine) accrueFixedRateInterest(ctx context.Context, result *CycleResult, marked *portfolioSet) {
	investments, err := e.InvestmentRepo.ListActive(ctx)
	if err != nil {
		result.record("accrue-interest", "investments", err)
		return
	}

	now := e.Now()
	for _, inv := range investments {
		if !inv.IsFixedRate() || inv.InterestRate == nil || inv.PurchaseDate.IsZero() {
			continue
		}

		accrualEnd := now
		matured := false
		if inv.MaturityDate != nil && now.After(*inv.MaturityDate) {
			accrualEnd = *inv.MaturityDate
			matured = true
		}

		newPrice := accruedPrice(inv.PurchasePrice, *inv.InterestRate, inv.PurchaseDate, accrualEnd)
		if newPrice.Equal(inv.CurrentPrice) && !matured {
			continue
		}

		inv.CurrentPrice = newPrice
		if matured {
			inv.Status = domain.InvestmentStatusMatured
		}
		inv.RecomputeDerived()
		if err := e.InvestmentRepo.Update(ctx, inv); err != nil {
			result.record("accrue-interest", inv.ID.String(), err)
			continue
		}

		marked.add(inv.PortfolioID)
		result.count(&result.InterestAccrued)
	}
}

// Stage 4: recompute every portfolio marked by stages 2-3, each exactly
// once. The sequential loop keeps aggregation serialized per portfolio.
func (e *Engine) recomputePortfolios(ctx context.Context, result *CycleResult, marked *portfolioSet) {
	for _, id := range marked.ids() {
		if _, err := e.Aggregator.RecomputeTotals(ctx, id); err != nil {
			result.record("recompute-portfolios", id.String(), err)
			continue
		}
		result.count(&result.PortfoliosRecomputed)
	}
}

// accruedPrice computes simple interest using an elapsedDays/365 day count.
func accruedPrice(purchasePrice, annualRate decimal.Decimal, from, to time.Time) decimal.Decimal {
	yearFraction := decimal.NewFromInt(daysBetween(from, to)).Div(daysPerYear)
	factor := one.Add(annualRate.Div(hundred).Mul(yearFraction))
	return purchasePrice.Mul(factor).Round(priceScale)
}

// daysBetween counts calendar days, not wall-clock duration, so a clock
// change between the two timestamps never shaves a day off the accrual.
func daysBetween(from, to time.Time) int64 {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	days := int64(toDay.Sub(fromDay) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

func (r *CycleResult) record(stage, subject string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, StageError{Stage: stage, Subject: subject, Message: err.Error()})
}

func (r *CycleResult) count(field *int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*field++
}

// portfolioSet deduplicates portfolio ids marked for aggregation, so a
// portfolio touched by both stage 2 and stage 3 is recomputed exactly once.
type portfolioSet struct {
	mu  sync.Mutex
	set map[uuid.UUID]struct{}
}

func newPortfolioSet() *portfolioSet {
	return &portfolioSet{set: make(map[uuid.UUID]struct{})}
}

func (s *portfolioSet) add(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set[id] = struct{}{}
}

func (s *portfolioSet) ids() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, 0, len(s.set))
	for id := range s.set {
		out = append(out, id)
	}
	return out
}
