package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/domain"
)

// FeeRate is the uniform transaction fee applied to buys and sells:
// 1% of the gross amount.
var FeeRate = decimal.RequireFromString("0.01")

// BuyPreview is the cost breakdown of a prospective purchase.
type BuyPreview struct {
	Symbol    string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  decimal.Decimal
	Fee       decimal.Decimal
	NetAmount decimal.Decimal // amount actually invested after the fee
	TotalCost decimal.Decimal // what leaves the client's pocket (== amount)
}

// SellPreview is the proceeds breakdown of a prospective sale.
type SellPreview struct {
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Proceeds    decimal.Decimal // quantity * currentPrice, before fee
	Fee         decimal.Decimal
	NetProceeds decimal.Decimal
	CostBasis   decimal.Decimal // quantity * purchasePrice
	GainLoss    decimal.Decimal // netProceeds - costBasis
}

// ComputeBuyBreakdown prices a purchase of `amount` worth of a catalog item.
// The fee is deducted from the amount first; the remainder buys quantity at
// the unit price.
//
// Safety: fee + netAmount always reconstructs the original amount exactly.
func ComputeBuyBreakdown(item *domain.MarketplaceItem, amount decimal.Decimal) (BuyPreview, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return BuyPreview{}, domain.NewValidationError("amount must be positive")
	}
	if item.CurrentPrice.LessThanOrEqual(decimal.Zero) {
		return BuyPreview{}, domain.NewValidationError("marketplace item has no usable price")
	}

	fee := amount.Mul(FeeRate)
	netAmount := amount.Sub(fee)
	quantity := netAmount.Div(item.CurrentPrice)

	return BuyPreview{
		Symbol:    item.Symbol,
		Name:      item.Name,
		UnitPrice: item.CurrentPrice,
		Quantity:  quantity,
		Fee:       fee,
		NetAmount: netAmount,
		TotalCost: amount,
	}, nil
}

// ComputeSellBreakdown prices a sale of `quantity` units of an investment at
// its current price. Does not check the held quantity; the caller validates
// ownership and availability.
func ComputeSellBreakdown(inv *domain.Investment, quantity decimal.Decimal) (SellPreview, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return SellPreview{}, domain.NewValidationError("quantity must be positive")
	}

	proceeds := quantity.Mul(inv.CurrentPrice)
	fee := proceeds.Mul(FeeRate)
	netProceeds := proceeds.Sub(fee)
	costBasis := quantity.Mul(inv.PurchasePrice)

	return SellPreview{
		Quantity:    quantity,
		UnitPrice:   inv.CurrentPrice,
		Proceeds:    proceeds,
		Fee:         fee,
		NetProceeds: netProceeds,
		CostBasis:   costBasis,
		GainLoss:    netProceeds.Sub(costBasis),
	}, nil
}
