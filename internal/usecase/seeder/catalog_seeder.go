package seeder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/domain"
)

// Fixed UUIDs for the default catalog entries so repeated starts never
// duplicate them.
var (
	CatalogSP500     = uuid.MustParse("00000000-0000-0000-0000-000000000101")
	CatalogWorldETF  = uuid.MustParse("00000000-0000-0000-0000-000000000102")
	CatalogBTC       = uuid.MustParse("00000000-0000-0000-0000-000000000103")
	CatalogGovBond   = uuid.MustParse("00000000-0000-0000-0000-000000000104")
	CatalogFixedTerm = uuid.MustParse("00000000-0000-0000-0000-000000000105")
)

// CatalogSeeder seeds the marketplace with a starter catalog when it is
// empty. Prices are placeholders; the accrual engine overwrites the
// market-priced ones on its first cycle.
type CatalogSeeder struct {
	repo domain.MarketplaceRepository
}

// NewCatalogSeeder creates a new CatalogSeeder instance
func NewCatalogSeeder(repo domain.MarketplaceRepository) *CatalogSeeder {
	return &CatalogSeeder{
		repo: repo,
	}
}

// Seed creates the default catalog entries unless the marketplace already
// has any.
func (s *CatalogSeeder) Seed(ctx context.Context) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	fivePercent := decimal.RequireFromString("5.0")
	threePercent := decimal.RequireFromString("3.25")
	twelveMonths := 12
	sixtyMonths := 60
	now := time.Now()

	items := []*domain.MarketplaceItem{
		{
			ID:           CatalogSP500,
			Symbol:       "SPY",
			Name:         "S&P 500 ETF",
			Type:         domain.InvestmentTypeETF,
			CurrentPrice: decimal.RequireFromString("500.00"),
			Currency:     "USD",
		},
		{
			ID:           CatalogWorldETF,
			Symbol:       "VWRL.AS",
			Name:         "All-World ETF",
			Type:         domain.InvestmentTypeETF,
			CurrentPrice: decimal.RequireFromString("110.00"),
			Currency:     "EUR",
		},
		{
			ID:           CatalogBTC,
			Symbol:       "BTC-USD",
			Name:         "Bitcoin",
			Type:         domain.InvestmentTypeCrypto,
			CurrentPrice: decimal.RequireFromString("60000.00"),
			Currency:     "USD",
		},
		{
			ID:           CatalogGovBond,
			Name:         "Government Bond 5Y",
			Type:         domain.InvestmentTypeBond,
			CurrentPrice: decimal.RequireFromString("100.00"),
			Currency:     "GBP",
			InterestRate: &threePercent,
			TermMonths:   &sixtyMonths,
		},
		{
			ID:           CatalogFixedTerm,
			Name:         "Fixed Term Deposit 12M",
			Type:         domain.InvestmentTypeFixedDeposit,
			CurrentPrice: decimal.RequireFromString("1.00"),
			Currency:     "GBP",
			InterestRate: &fivePercent,
			TermMonths:   &twelveMonths,
		},
	}

	for _, item := range items {
		item.Active = true
		item.PriceUpdatedAt = now
		if err := s.repo.Create(ctx, item); err != nil {
			return err
		}
	}

	return nil
}
