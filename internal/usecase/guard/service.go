// Package guard owns every mutation of a bank account's balance and an
// investment's quantity. All deltas pass through here so the non-negative
// invariants are enforced in exactly one place, against the persisted value.
package guard

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/domain"
)

// Service applies signed deltas to balances and quantities.
type Service struct {
	AccountRepo    domain.BankAccountRepository
	InvestmentRepo domain.InvestmentRepository

	log zerolog.Logger
}

// NewService creates a new balance guard instance
func NewService(accountRepo domain.BankAccountRepository, investmentRepo domain.InvestmentRepository, log zerolog.Logger) *Service {
	return &Service{
		AccountRepo:    accountRepo,
		InvestmentRepo: investmentRepo,
		log:            log.With().Str("component", "guard").Logger(),
	}
}

// AdjustBalance applies a signed delta to a bank account balance and returns
// the new balance. A delta that would drive the balance negative fails with
// an insufficient-funds error and leaves the balance unchanged.
func (s *Service) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	if delta.IsZero() {
		return decimal.Zero, domain.NewValidationError("balance delta cannot be zero")
	}

	newBalance, err := s.AccountRepo.ApplyBalanceDelta(ctx, accountID, delta)
	if err != nil {
		return decimal.Zero, err
	}

	s.log.Debug().
		Str("account_id", accountID.String()).
		Str("delta", delta.String()).
		Str("new_balance", newBalance.String()).
		Msg("Balance adjusted")

	return newBalance, nil
}

// AdjustQuantity applies a signed delta to an investment quantity and returns
// the new quantity. A delta that would drive the quantity negative fails with
// a validation error and leaves the quantity unchanged.
func (s *Service) AdjustQuantity(ctx context.Context, investmentID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	if delta.IsZero() {
		return decimal.Zero, domain.NewValidationError("quantity delta cannot be zero")
	}

	newQuantity, err := s.InvestmentRepo.ApplyQuantityDelta(ctx, investmentID, delta)
	if err != nil {
		return decimal.Zero, err
	}

	s.log.Debug().
		Str("investment_id", investmentID.String()).
		Str("delta", delta.String()).
		Str("new_quantity", newQuantity.String()).
		Msg("Quantity adjusted")

	return newQuantity, nil
}
