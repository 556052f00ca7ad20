package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvestmentType represents the kind of instrument an investment holds
type InvestmentType string

const (
	InvestmentTypeStock        InvestmentType = "STOCK"
	InvestmentTypeETF          InvestmentType = "ETF"
	InvestmentTypeCrypto       InvestmentType = "CRYPTO"
	InvestmentTypeBond         InvestmentType = "BOND"
	InvestmentTypeFixedDeposit InvestmentType = "FIXED_DEPOSIT"
)

// InvestmentStatus represents the lifecycle state of an investment
type InvestmentStatus string

const (
	InvestmentStatusActive  InvestmentStatus = "ACTIVE"
	InvestmentStatusPending InvestmentStatus = "PENDING"
	InvestmentStatusSold    InvestmentStatus = "SOLD"
	InvestmentStatusMatured InvestmentStatus = "MATURED"
)

// Investment represents a position held inside a portfolio.
// Quantity is mutated only through the Balance Guard. TotalValue, TotalGain
// and GainPct are derived from quantity and prices via RecomputeDerived.
type Investment struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	PortfolioID   uuid.UUID
	Symbol        string
	Name          string
	Type          InvestmentType
	Currency      string
	Quantity      decimal.Decimal
	PurchasePrice decimal.Decimal
	CurrentPrice  decimal.Decimal
	TotalValue    decimal.Decimal
	TotalGain     decimal.Decimal
	GainPct       decimal.Decimal
	Status        InvestmentStatus

	// Fixed-rate instruments only. InterestRate is an annual percentage
	// (5 means 5% per year).
	InterestRate *decimal.Decimal
	MaturityDate *time.Time

	PurchaseDate time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsFixedRate reports whether the instrument grows by a contracted interest
// rate rather than a market price.
func (i *Investment) IsFixedRate() bool {
	return i.Type == InvestmentTypeBond || i.Type == InvestmentTypeFixedDeposit
}

// CountsTowardTotals reports whether the investment contributes to its
// portfolio's rolled-up totals. Pending positions are excluded until
// activation, sold positions are history.
func (i *Investment) CountsTowardTotals() bool {
	return i.Status == InvestmentStatusActive || i.Status == InvestmentStatusMatured
}

// RecomputeDerived refreshes TotalValue, TotalGain and GainPct from the
// current quantity and prices.
func (i *Investment) RecomputeDerived() {
	i.TotalValue = i.Quantity.Mul(i.CurrentPrice)
	invested := i.Quantity.Mul(i.PurchasePrice)
	i.TotalGain = i.TotalValue.Sub(invested)
	if invested.IsZero() {
		i.GainPct = decimal.Zero
	} else {
		i.GainPct = i.TotalGain.Div(invested).Mul(hundred)
	}
}

// Validate ensures the investment adheres to domain rules.
func (i *Investment) Validate() error {
	if i.Symbol == "" && !i.IsFixedRate() {
		return NewValidationError("market-priced investment must have a symbol")
	}
	if i.Quantity.IsNegative() {
		return NewValidationError("investment quantity cannot be negative")
	}
	if i.PurchasePrice.IsNegative() || i.CurrentPrice.IsNegative() {
		return NewValidationError("investment prices cannot be negative")
	}
	if i.IsFixedRate() && i.InterestRate == nil {
		return NewValidationError("fixed-rate investment must have an interest rate")
	}
	return nil
}
