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

// investmentRepository implements domain.InvestmentRepository
type investmentRepository struct {
	db *DB
}

// NewInvestmentRepository creates a new investment repository
func NewInvestmentRepository(db *DB) domain.InvestmentRepository {
	return &investmentRepository{db: db}
}

const investmentColumns = `id, owner_id, portfolio_id, symbol, name, type, currency, quantity, purchase_price,
	current_price, total_value, total_gain, gain_percentage, status, interest_rate, maturity_date,
	purchase_date, created_at, updated_at`

func scanInvestment(row interface{ Scan(...any) error }) (*domain.Investment, error) {
	var inv domain.Investment
	var quantity, purchasePrice, currentPrice, totalValue, totalGain, gainPct string
	var interestRate sql.NullString

	err := row.Scan(
		&inv.ID,
		&inv.OwnerID,
		&inv.PortfolioID,
		&inv.Symbol,
		&inv.Name,
		&inv.Type,
		&inv.Currency,
		&quantity,
		&purchasePrice,
		&currentPrice,
		&totalValue,
		&totalGain,
		&gainPct,
		&inv.Status,
		&interestRate,
		&inv.MaturityDate,
		&inv.PurchaseDate,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&inv.Quantity, quantity},
		{&inv.PurchasePrice, purchasePrice},
		{&inv.CurrentPrice, currentPrice},
		{&inv.TotalValue, totalValue},
		{&inv.TotalGain, totalGain},
		{&inv.GainPct, gainPct},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse decimal column: %w", err)
		}
		*f.dst = d
	}

	if interestRate.Valid {
		rate, err := decimal.NewFromString(interestRate.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse interest_rate: %w", err)
		}
		inv.InterestRate = &rate
	}

	return &inv, nil
}

// GetByID retrieves an investment by its ID
func (r *investmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = $1`

	inv, err := scanInvestment(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("investment")
		}
		return nil, fmt.Errorf("failed to get investment by ID: %w", err)
	}

	return inv, nil
}

// Create creates a new investment
func (r *investmentRepository) Create(ctx context.Context, investment *domain.Investment) error {
	query := `
		INSERT INTO investments (id, owner_id, portfolio_id, symbol, name, type, currency, quantity, purchase_price,
			current_price, total_value, total_gain, gain_percentage, status, interest_rate, maturity_date,
			purchase_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	var interestRate any
	if investment.InterestRate != nil {
		interestRate = investment.InterestRate.String()
	}

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		investment.ID,
		investment.OwnerID,
		investment.PortfolioID,
		investment.Symbol,
		investment.Name,
		string(investment.Type),
		investment.Currency,
		investment.Quantity.String(),
		investment.PurchasePrice.String(),
		investment.CurrentPrice.String(),
		investment.TotalValue.String(),
		investment.TotalGain.String(),
		investment.GainPct.String(),
		string(investment.Status),
		interestRate,
		investment.MaturityDate,
		investment.PurchaseDate,
		investment.CreatedAt,
		investment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create investment: %w", err)
	}

	return nil
}

// Update persists price, derived totals and status changes.
// Quantity is deliberately not part of this statement; it only moves through
// ApplyQuantityDelta.
func (r *investmentRepository) Update(ctx context.Context, investment *domain.Investment) error {
	query := `
		UPDATE investments
		SET current_price = $2, total_value = $3, total_gain = $4, gain_percentage = $5,
			status = $6, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		investment.ID,
		investment.CurrentPrice.String(),
		investment.TotalValue.String(),
		investment.TotalGain.String(),
		investment.GainPct.String(),
		string(investment.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to update investment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("investment")
	}

	return nil
}

// Delete removes an investment
func (r *investmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM investments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete investment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("investment")
	}

	return nil
}

// ListByPortfolio retrieves all investments in a portfolio
func (r *investmentRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*domain.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE portfolio_id = $1 ORDER BY created_at`
	return r.list(ctx, query, portfolioID)
}

// ListActive retrieves all ACTIVE investments across portfolios
func (r *investmentRepository) ListActive(ctx context.Context) ([]*domain.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE status = $1 ORDER BY created_at`
	return r.list(ctx, query, string(domain.InvestmentStatusActive))
}

func (r *investmentRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Investment, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	defer rows.Close()

	var investments []*domain.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate investments: %w", err)
	}

	return investments, nil
}

// ApplyQuantityDelta atomically adds delta to the investment quantity.
// Mirrors bank account balance adjustment: the non-negative invariant is
// checked against the persisted value inside the same statement.
func (r *investmentRepository) ApplyQuantityDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE investments
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING quantity
	`

	var quantityStr string
	err := r.db.conn(ctx).QueryRowContext(ctx, query, id, delta.String()).Scan(&quantityStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return decimal.Zero, getErr
			}
			return decimal.Zero, domain.NewValidationError("insufficient quantity")
		}
		return decimal.Zero, fmt.Errorf("failed to adjust quantity: %w", err)
	}

	quantity, err := decimal.NewFromString(quantityStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse quantity: %w", err)
	}

	return quantity, nil
}
