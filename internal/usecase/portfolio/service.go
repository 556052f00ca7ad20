// Package portfolio recomputes a portfolio's rolled-up totals from its
// investments. Totals are derived, never authoritative: this aggregator is
// the only writer of the four total fields.
package portfolio

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/domain"
)

// Service is the portfolio aggregator.
type Service struct {
	UoW            domain.UnitOfWork
	PortfolioRepo  domain.PortfolioRepository
	InvestmentRepo domain.InvestmentRepository

	log zerolog.Logger
}

// NewService creates a new portfolio aggregator instance
func NewService(
	uow domain.UnitOfWork,
	portfolioRepo domain.PortfolioRepository,
	investmentRepo domain.InvestmentRepository,
	log zerolog.Logger,
) *Service {
	return &Service{
		UoW:            uow,
		PortfolioRepo:  portfolioRepo,
		InvestmentRepo: investmentRepo,
		log:            log.With().Str("component", "portfolio").Logger(),
	}
}

// RecomputeTotals reads every investment in the portfolio, rolls the totals
// up per the domain formulas and writes the four fields back in one update.
// Idempotent: with no intervening investment change, a second run produces
// the identical result, so it is safe to retry after a partial failure.
//
// The read-sum-write runs inside one unit of work; when the caller is already
// inside one (a ledger operation), it joins that transaction instead.
func (s *Service) RecomputeTotals(ctx context.Context, portfolioID uuid.UUID) (domain.PortfolioTotals, error) {
	var totals domain.PortfolioTotals

	err := s.UoW.WithinTx(ctx, func(ctx context.Context) error {
		investments, err := s.InvestmentRepo.ListByPortfolio(ctx, portfolioID)
		if err != nil {
			return err
		}

		totals = domain.ComputePortfolioTotals(investments)
		return s.PortfolioRepo.UpdateTotals(ctx, portfolioID, totals)
	})
	if err != nil {
		return domain.PortfolioTotals{}, err
	}

	s.log.Debug().
		Str("portfolio_id", portfolioID.String()).
		Str("total_value", totals.TotalValue.String()).
		Str("total_gain", totals.TotalGain.String()).
		Msg("Portfolio totals recomputed")

	return totals, nil
}

// Get retrieves a portfolio by its ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	return s.PortfolioRepo.GetByID(ctx, id)
}
