package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MarketplaceItem is a catalog entry clients can buy into. It is the
// external pricing source for market-priced investments; the ledger only
// reads it, the accrual engine refreshes its price.
type MarketplaceItem struct {
	ID           uuid.UUID
	Symbol       string
	Name         string
	Type         InvestmentType
	CurrentPrice decimal.Decimal
	Currency     string

	// Fixed-rate catalog entries only.
	InterestRate *decimal.Decimal
	TermMonths   *int

	Active         bool
	PriceUpdatedAt time.Time
}

// IsFixedRate reports whether the catalog entry is a fixed-rate instrument.
func (m *MarketplaceItem) IsFixedRate() bool {
	return m.Type == InvestmentTypeBond || m.Type == InvestmentTypeFixedDeposit
}
