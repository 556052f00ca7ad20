package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Portfolio represents a client portfolio in the domain layer.
// The four total fields are derived, never authoritative: they are recomputed
// by the aggregator from the portfolio's investments.
type Portfolio struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Name           string
	TotalValue     decimal.Decimal
	TotalInvested  decimal.Decimal
	TotalGain      decimal.Decimal
	GainPercentage decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PortfolioTotals is the rolled-up result of aggregating a portfolio's investments.
type PortfolioTotals struct {
	TotalValue     decimal.Decimal
	TotalInvested  decimal.Decimal
	TotalGain      decimal.Decimal
	GainPercentage decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// ComputePortfolioTotals rolls investments up into portfolio totals.
// Only investments that count towards the portfolio (see CountsTowardTotals)
// contribute:
//
//	totalValue    = sum of investment.TotalValue
//	totalInvested = sum of quantity * purchasePrice
//	totalGain     = totalValue - totalInvested
//	gainPct       = totalGain / totalInvested * 100 (0 when nothing invested)
func ComputePortfolioTotals(investments []*Investment) PortfolioTotals {
	totals := PortfolioTotals{
		TotalValue:     decimal.Zero,
		TotalInvested:  decimal.Zero,
		TotalGain:      decimal.Zero,
		GainPercentage: decimal.Zero,
	}

	for _, inv := range investments {
		if !inv.CountsTowardTotals() {
			continue
		}
		totals.TotalValue = totals.TotalValue.Add(inv.TotalValue)
		totals.TotalInvested = totals.TotalInvested.Add(inv.Quantity.Mul(inv.PurchasePrice))
	}

	totals.TotalGain = totals.TotalValue.Sub(totals.TotalInvested)
	if !totals.TotalInvested.IsZero() {
		totals.GainPercentage = totals.TotalGain.Div(totals.TotalInvested).Mul(hundred)
	}

	return totals
}
