package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/domain"
)

// portfolioRepository implements domain.PortfolioRepository
type portfolioRepository struct {
	db *DB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *DB) domain.PortfolioRepository {
	return &portfolioRepository{db: db}
}

// GetByID retrieves a portfolio by its ID
func (r *portfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	query := `
		SELECT id, owner_id, name, total_value, total_invested, total_gain, gain_percentage, created_at, updated_at
		FROM portfolios
		WHERE id = $1
	`

	var p domain.Portfolio
	var totalValue, totalInvested, totalGain, gainPct string

	err := r.db.conn(ctx).QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&totalValue,
		&totalInvested,
		&totalGain,
		&gainPct,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("portfolio")
		}
		return nil, fmt.Errorf("failed to get portfolio by ID: %w", err)
	}

	if p.TotalValue, err = decimal.NewFromString(totalValue); err != nil {
		return nil, fmt.Errorf("failed to parse total_value: %w", err)
	}
	if p.TotalInvested, err = decimal.NewFromString(totalInvested); err != nil {
		return nil, fmt.Errorf("failed to parse total_invested: %w", err)
	}
	if p.TotalGain, err = decimal.NewFromString(totalGain); err != nil {
		return nil, fmt.Errorf("failed to parse total_gain: %w", err)
	}
	if p.GainPercentage, err = decimal.NewFromString(gainPct); err != nil {
		return nil, fmt.Errorf("failed to parse gain_percentage: %w", err)
	}

	return &p, nil
}

// Create creates a new portfolio
func (r *portfolioRepository) Create(ctx context.Context, portfolio *domain.Portfolio) error {
	query := `
		INSERT INTO portfolios (id, owner_id, name, total_value, total_invested, total_gain, gain_percentage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		portfolio.ID,
		portfolio.OwnerID,
		portfolio.Name,
		portfolio.TotalValue.String(),
		portfolio.TotalInvested.String(),
		portfolio.TotalGain.String(),
		portfolio.GainPercentage.String(),
		portfolio.CreatedAt,
		portfolio.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}

	return nil
}

// UpdateTotals writes the four derived total fields in one update
func (r *portfolioRepository) UpdateTotals(ctx context.Context, id uuid.UUID, totals domain.PortfolioTotals) error {
	query := `
		UPDATE portfolios
		SET total_value = $2, total_invested = $3, total_gain = $4, gain_percentage = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		id,
		totals.TotalValue.String(),
		totals.TotalInvested.String(),
		totals.TotalGain.String(),
		totals.GainPercentage.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio totals: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("portfolio")
	}

	return nil
}
