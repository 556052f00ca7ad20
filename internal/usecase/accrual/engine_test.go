package accrual

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shakiltousif/investment-crm-backend-sub000/internal/domain"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/usecase/portfolio"
)

type fakeUoW struct{}

func (fakeUoW) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockMarketplaceRepository is a mock implementation of MarketplaceRepository for testing
type MockMarketplaceRepository struct {
	mock.Mock
}

func (m *MockMarketplaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.MarketplaceItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MarketplaceItem), args.Error(1)
}

func (m *MockMarketplaceRepository) Create(ctx context.Context, item *domain.MarketplaceItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockMarketplaceRepository) ListActive(ctx context.Context) ([]*domain.MarketplaceItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MarketplaceItem), args.Error(1)
}

func (m *MockMarketplaceRepository) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, at time.Time) error {
	args := m.Called(ctx, id, price, at)
	return args.Error(0)
}

func (m *MockMarketplaceRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockInvestmentRepository is a mock implementation of InvestmentRepository for testing
type MockInvestmentRepository struct {
	mock.Mock
}

func (m *MockInvestmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Investment), args.Error(1)
}

func (m *MockInvestmentRepository) Create(ctx context.Context, inv *domain.Investment) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvestmentRepository) Update(ctx context.Context, inv *domain.Investment) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvestmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvestmentRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*domain.Investment, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Investment), args.Error(1)
}

func (m *MockInvestmentRepository) ListActive(ctx context.Context) ([]*domain.Investment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Investment), args.Error(1)
}

func (m *MockInvestmentRepository) ApplyQuantityDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockPortfolioRepository is a mock implementation of PortfolioRepository for testing
type MockPortfolioRepository struct {
	mock.Mock
}

func (m *MockPortfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Portfolio), args.Error(1)
}

func (m *MockPortfolioRepository) Create(ctx context.Context, p *domain.Portfolio) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPortfolioRepository) UpdateTotals(ctx context.Context, id uuid.UUID, totals domain.PortfolioTotals) error {
	args := m.Called(ctx, id, totals)
	return args.Error(0)
}

// MockQuoteProvider is a mock implementation of QuoteProvider for testing
type MockQuoteProvider struct {
	mock.Mock
}

func (m *MockQuoteProvider) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(domain.Quote), args.Error(1)
}

func (m *MockQuoteProvider) GetQuotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	args := m.Called(ctx, symbols)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Quote), args.Error(1)
}

type engineEnv struct {
	engine      *Engine
	marketplace *MockMarketplaceRepository
	investments *MockInvestmentRepository
	portfolios  *MockPortfolioRepository
	quotes      *MockQuoteProvider
}

func newEngineEnv(now time.Time) *engineEnv {
	env := &engineEnv{
		marketplace: new(MockMarketplaceRepository),
		investments: new(MockInvestmentRepository),
		portfolios:  new(MockPortfolioRepository),
		quotes:      new(MockQuoteProvider),
	}
	log := zerolog.Nop()
	aggregator := portfolio.NewService(fakeUoW{}, env.portfolios, env.investments, log)
	env.engine = NewEngine(env.marketplace, env.investments, env.quotes, aggregator, 2, time.Second, log)
	env.engine.Now = func() time.Time { return now }
	return env
}

func fixedRateInvestment(rate string, purchased time.Time) *domain.Investment {
	interestRate := decimal.RequireFromString(rate)
	inv := &domain.Investment{
		ID:            uuid.New(),
		OwnerID:       uuid.New(),
		PortfolioID:   uuid.New(),
		Name:          "Fixed Term Deposit 12M",
		Type:          domain.InvestmentTypeFixedDeposit,
		Quantity:      decimal.NewFromInt(1),
		PurchasePrice: decimal.RequireFromString("1000.00"),
		CurrentPrice:  decimal.RequireFromString("1000.00"),
		PurchaseDate:  purchased,
		InterestRate:  &interestRate,
		Status:        domain.InvestmentStatusActive,
	}
	inv.RecomputeDerived()
	return inv
}

func TestAccruedPrice_FullYear(t *testing.T) {
	// 1000 at 5% over exactly 365 days accrues to 1050, no compounding.
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 365)

	price := accruedPrice(
		decimal.RequireFromString("1000.00"),
		decimal.RequireFromString("5.0"),
		from, to,
	)

	assert.True(t, price.Equal(decimal.RequireFromString("1050")), "price = %s", price)
}

func TestAccruedPrice_CountsCalendarDays(t *testing.T) {
	// A year that crosses a clock change is one hour short of 365 days of
	// wall time but still 365 calendar days of interest.
	std := time.FixedZone("STD", -5*3600)
	dst := time.FixedZone("DST", -4*3600)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, std)
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, dst)

	price := accruedPrice(
		decimal.RequireFromString("1000.00"),
		decimal.RequireFromString("5.0"),
		from, to,
	)

	assert.True(t, price.Equal(decimal.RequireFromString("1050")), "price = %s", price)
}

func TestAccruedPrice_NeverBelowPurchase(t *testing.T) {
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Same-day and clock-skewed "before purchase" both accrue nothing.
	price := accruedPrice(decimal.RequireFromString("1000.00"), decimal.RequireFromString("5.0"), from, from)
	assert.True(t, price.Equal(decimal.RequireFromString("1000.00")))

	price = accruedPrice(decimal.RequireFromString("1000.00"), decimal.RequireFromString("5.0"), from, from.AddDate(0, 0, -3))
	assert.True(t, price.Equal(decimal.RequireFromString("1000.00")))
}

func TestRunDailyCycle_AccruesFixedRateInterest(t *testing.T) {
	purchased := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := purchased.AddDate(0, 0, 365)
	env := newEngineEnv(now)
	inv := fixedRateInvestment("5.0", purchased)

	env.marketplace.On("ListActive", mock.Anything).Return([]*domain.MarketplaceItem{}, nil)
	env.investments.On("ListActive", mock.Anything).Return([]*domain.Investment{inv}, nil)
	env.investments.On("Update", mock.Anything, inv).Return(nil)
	env.investments.On("ListByPortfolio", mock.Anything, inv.PortfolioID).
		Return([]*domain.Investment{inv}, nil)
	env.portfolios.On("UpdateTotals", mock.Anything, inv.PortfolioID, mock.Anything).Return(nil)

	result := env.engine.RunDailyCycle(context.Background())

	assert.True(t, result.Successful())
	assert.Equal(t, 1, result.InterestAccrued)
	assert.Equal(t, 1, result.PortfoliosRecomputed)
	assert.True(t, inv.CurrentPrice.Equal(decimal.RequireFromString("1050")), "currentPrice = %s", inv.CurrentPrice)
	assert.Equal(t, domain.InvestmentStatusActive, inv.Status)
}

func TestRunDailyCycle_AccrualStopsAtMaturity(t *testing.T) {
	purchased := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	maturity := purchased.AddDate(0, 0, 365)
	now := maturity.AddDate(0, 6, 0) // well past maturity
	env := newEngineEnv(now)
	inv := fixedRateInvestment("5.0", purchased)
	inv.MaturityDate = &maturity

	env.marketplace.On("ListActive", mock.Anything).Return([]*domain.MarketplaceItem{}, nil)
	env.investments.On("ListActive", mock.Anything).Return([]*domain.Investment{inv}, nil)
	env.investments.On("Update", mock.Anything, inv).Return(nil)
	env.investments.On("ListByPortfolio", mock.Anything, inv.PortfolioID).
		Return([]*domain.Investment{inv}, nil)
	env.portfolios.On("UpdateTotals", mock.Anything, inv.PortfolioID, mock.Anything).Return(nil)

	result := env.engine.RunDailyCycle(context.Background())

	assert.True(t, result.Successful())
	// Interest is capped at the maturity date, not the current date.
	assert.True(t, inv.CurrentPrice.Equal(decimal.RequireFromString("1050")), "currentPrice = %s", inv.CurrentPrice)
	assert.Equal(t, domain.InvestmentStatusMatured, inv.Status)
}

func TestRunDailyCycle_SyncsMarketPrices(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env := newEngineEnv(now)

	item := &domain.MarketplaceItem{
		ID:           uuid.New(),
		Symbol:       "SPY",
		Type:         domain.InvestmentTypeETF,
		CurrentPrice: decimal.RequireFromString("500.00"),
		Active:       true,
	}
	inv := &domain.Investment{
		ID:            uuid.New(),
		PortfolioID:   uuid.New(),
		Symbol:        "SPY",
		Type:          domain.InvestmentTypeETF,
		Quantity:      decimal.NewFromInt(2),
		PurchasePrice: decimal.RequireFromString("480.00"),
		CurrentPrice:  decimal.RequireFromString("490.00"),
		Status:        domain.InvestmentStatusActive,
	}
	inv.RecomputeDerived()

	env.marketplace.On("ListActive", mock.Anything).Return([]*domain.MarketplaceItem{item}, nil)
	env.quotes.On("GetQuote", mock.Anything, "SPY").
		Return(domain.Quote{Symbol: "SPY", Price: decimal.RequireFromString("510.00"), Timestamp: now}, nil)
	env.marketplace.On("UpdatePrice", mock.Anything, item.ID, decimal.RequireFromString("510.00"), now).
		Run(func(args mock.Arguments) { item.CurrentPrice = args.Get(2).(decimal.Decimal) }).
		Return(nil)
	env.investments.On("ListActive", mock.Anything).Return([]*domain.Investment{inv}, nil)
	env.investments.On("Update", mock.Anything, inv).Return(nil)
	env.investments.On("ListByPortfolio", mock.Anything, inv.PortfolioID).
		Return([]*domain.Investment{inv}, nil)
	env.portfolios.On("UpdateTotals", mock.Anything, inv.PortfolioID, mock.Anything).Return(nil)

	result := env.engine.RunDailyCycle(context.Background())

	assert.True(t, result.Successful())
	assert.Equal(t, 1, result.PricesRefreshed)
	assert.Equal(t, 1, result.InvestmentsSynced)
	assert.True(t, inv.CurrentPrice.Equal(decimal.RequireFromString("510.00")))
	assert.True(t, inv.TotalValue.Equal(decimal.RequireFromString("1020.00")))
}

func TestRunDailyCycle_QuoteFailureIsSoft(t *testing.T) {
	// A dead quote source fails stage 1 per symbol; interest accrual still runs.
	purchased := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := purchased.AddDate(0, 0, 73) // 73/365 = 0.2 of a year
	env := newEngineEnv(now)
	inv := fixedRateInvestment("5.0", purchased)

	item := &domain.MarketplaceItem{
		ID:           uuid.New(),
		Symbol:       "SPY",
		Type:         domain.InvestmentTypeETF,
		CurrentPrice: decimal.RequireFromString("500.00"),
		Active:       true,
	}

	env.marketplace.On("ListActive", mock.Anything).Return([]*domain.MarketplaceItem{item}, nil)
	env.quotes.On("GetQuote", mock.Anything, "SPY").
		Return(domain.Quote{}, errors.New("connection refused"))
	env.investments.On("ListActive", mock.Anything).Return([]*domain.Investment{inv}, nil)
	env.investments.On("Update", mock.Anything, inv).Return(nil)
	env.investments.On("ListByPortfolio", mock.Anything, inv.PortfolioID).
		Return([]*domain.Investment{inv}, nil)
	env.portfolios.On("UpdateTotals", mock.Anything, inv.PortfolioID, mock.Anything).Return(nil)

	result := env.engine.RunDailyCycle(context.Background())

	assert.False(t, result.Successful())
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, "refresh-prices", result.Errors[0].Stage)
	assert.Equal(t, 0, result.PricesRefreshed)
	assert.Equal(t, 1, result.InterestAccrued)
	// 1000 * (1 + 0.05 * 0.2) = 1010
	assert.True(t, inv.CurrentPrice.Equal(decimal.RequireFromString("1010")), "currentPrice = %s", inv.CurrentPrice)
}

func TestRunDailyCycle_RecomputesEachPortfolioOnce(t *testing.T) {
	// Two fixed-rate investments in the same portfolio mark it twice; the
	// aggregation stage must still run once for it.
	purchased := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := purchased.AddDate(0, 0, 30)
	env := newEngineEnv(now)

	first := fixedRateInvestment("5.0", purchased)
	second := fixedRateInvestment("3.25", purchased)
	second.PortfolioID = first.PortfolioID

	env.marketplace.On("ListActive", mock.Anything).Return([]*domain.MarketplaceItem{}, nil)
	env.investments.On("ListActive", mock.Anything).Return([]*domain.Investment{first, second}, nil)
	env.investments.On("Update", mock.Anything, mock.AnythingOfType("*domain.Investment")).Return(nil)
	env.investments.On("ListByPortfolio", mock.Anything, first.PortfolioID).
		Return([]*domain.Investment{first, second}, nil)
	env.portfolios.On("UpdateTotals", mock.Anything, first.PortfolioID, mock.Anything).Return(nil)

	result := env.engine.RunDailyCycle(context.Background())

	assert.True(t, result.Successful())
	assert.Equal(t, 2, result.InterestAccrued)
	assert.Equal(t, 1, result.PortfoliosRecomputed)
	env.portfolios.AssertNumberOfCalls(t, "UpdateTotals", 1)
}

func TestRunDailyCycle_SkipsUnchangedPrices(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	env := newEngineEnv(now)

	item := &domain.MarketplaceItem{
		ID:           uuid.New(),
		Symbol:       "SPY",
		Type:         domain.InvestmentTypeETF,
		CurrentPrice: decimal.RequireFromString("500.00"),
		Active:       true,
	}
	inv := &domain.Investment{
		ID:           uuid.New(),
		PortfolioID:  uuid.New(),
		Symbol:       "SPY",
		Type:         domain.InvestmentTypeETF,
		Quantity:     decimal.NewFromInt(1),
		CurrentPrice: decimal.RequireFromString("500.00"),
		Status:       domain.InvestmentStatusActive,
	}

	env.marketplace.On("ListActive", mock.Anything).Return([]*domain.MarketplaceItem{item}, nil)
	env.quotes.On("GetQuote", mock.Anything, "SPY").
		Return(domain.Quote{Symbol: "SPY", Price: decimal.RequireFromString("500.00"), Timestamp: now}, nil)
	env.marketplace.On("UpdatePrice", mock.Anything, item.ID, mock.Anything, mock.Anything).Return(nil)
	env.investments.On("ListActive", mock.Anything).Return([]*domain.Investment{inv}, nil)

	result := env.engine.RunDailyCycle(context.Background())

	assert.True(t, result.Successful())
	assert.Equal(t, 0, result.InvestmentsSynced)
	assert.Equal(t, 0, result.PortfoliosRecomputed)
	env.investments.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
