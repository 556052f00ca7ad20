package portfolio

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shakiltousif/investment-crm-backend-sub000/internal/domain"
)

type fakeUoW struct{}

func (fakeUoW) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
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

func holding(quantity, purchasePrice, currentPrice string) *domain.Investment {
	inv := &domain.Investment{
		ID:            uuid.New(),
		Type:          domain.InvestmentTypeStock,
		Quantity:      decimal.RequireFromString(quantity),
		PurchasePrice: decimal.RequireFromString(purchasePrice),
		CurrentPrice:  decimal.RequireFromString(currentPrice),
		Status:        domain.InvestmentStatusActive,
	}
	inv.RecomputeDerived()
	return inv
}

func TestRecomputeTotals(t *testing.T) {
	ctx := context.Background()
	portfolios := new(MockPortfolioRepository)
	investments := new(MockInvestmentRepository)
	service := NewService(fakeUoW{}, portfolios, investments, zerolog.Nop())
	portfolioID := uuid.New()

	investments.On("ListByPortfolio", ctx, portfolioID).Return([]*domain.Investment{
		holding("10", "100.00", "150.00"),
		holding("2", "250.00", "200.00"),
	}, nil)
	portfolios.On("UpdateTotals", ctx, portfolioID, mock.AnythingOfType("domain.PortfolioTotals")).Return(nil)

	totals, err := service.RecomputeTotals(ctx, portfolioID)

	assert.NoError(t, err)
	assert.True(t, totals.TotalInvested.Equal(decimal.RequireFromString("1500.00")))
	assert.True(t, totals.TotalValue.Equal(decimal.RequireFromString("1900.00")))
	assert.True(t, totals.TotalGain.Equal(decimal.RequireFromString("400.00")))
	portfolios.AssertExpectations(t)
}

func TestRecomputeTotals_Idempotent(t *testing.T) {
	// Two runs over unchanged investments must write identical totals.
	ctx := context.Background()
	portfolios := new(MockPortfolioRepository)
	investments := new(MockInvestmentRepository)
	service := NewService(fakeUoW{}, portfolios, investments, zerolog.Nop())
	portfolioID := uuid.New()

	investments.On("ListByPortfolio", ctx, portfolioID).Return([]*domain.Investment{
		holding("10", "100.00", "150.00"),
	}, nil)
	portfolios.On("UpdateTotals", ctx, portfolioID, mock.Anything).Return(nil)

	first, err := service.RecomputeTotals(ctx, portfolioID)
	assert.NoError(t, err)
	second, err := service.RecomputeTotals(ctx, portfolioID)
	assert.NoError(t, err)

	assert.True(t, first.TotalValue.Equal(second.TotalValue))
	assert.True(t, first.TotalInvested.Equal(second.TotalInvested))
	assert.True(t, first.TotalGain.Equal(second.TotalGain))
	assert.True(t, first.GainPercentage.Equal(second.GainPercentage))
	portfolios.AssertNumberOfCalls(t, "UpdateTotals", 2)
}

func TestRecomputeTotals_EmptyPortfolio(t *testing.T) {
	ctx := context.Background()
	portfolios := new(MockPortfolioRepository)
	investments := new(MockInvestmentRepository)
	service := NewService(fakeUoW{}, portfolios, investments, zerolog.Nop())
	portfolioID := uuid.New()

	investments.On("ListByPortfolio", ctx, portfolioID).Return([]*domain.Investment{}, nil)

	var written domain.PortfolioTotals
	portfolios.On("UpdateTotals", ctx, portfolioID, mock.Anything).
		Run(func(args mock.Arguments) { written = args.Get(2).(domain.PortfolioTotals) }).
		Return(nil)

	totals, err := service.RecomputeTotals(ctx, portfolioID)

	assert.NoError(t, err)
	assert.True(t, totals.TotalValue.IsZero())
	assert.True(t, written.GainPercentage.IsZero())
}
