package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/domain"
)

// marketplaceRepository implements domain.MarketplaceRepository
type marketplaceRepository struct {
	db *DB
}

// NewMarketplaceRepository creates a new marketplace repository
func NewMarketplaceRepository(db *DB) domain.MarketplaceRepository {
	return &marketplaceRepository{db: db}
}

const marketplaceColumns = `id, symbol, name, type, current_price, currency, interest_rate, term_months, active, price_updated_at`

func scanMarketplaceItem(row interface{ Scan(...any) error }) (*domain.MarketplaceItem, error) {
	var item domain.MarketplaceItem
	var priceStr string
	var interestRate sql.NullString
	var termMonths sql.NullInt64

	err := row.Scan(
		&item.ID,
		&item.Symbol,
		&item.Name,
		&item.Type,
		&priceStr,
		&item.Currency,
		&interestRate,
		&termMonths,
		&item.Active,
		&item.PriceUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if item.CurrentPrice, err = decimal.NewFromString(priceStr); err != nil {
		return nil, fmt.Errorf("failed to parse current_price: %w", err)
	}
	if interestRate.Valid {
		rate, err := decimal.NewFromString(interestRate.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse interest_rate: %w", err)
		}
		item.InterestRate = &rate
	}
	if termMonths.Valid {
		months := int(termMonths.Int64)
		item.TermMonths = &months
	}

	return &item, nil
}

// GetByID retrieves a marketplace item by its ID
func (r *marketplaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.MarketplaceItem, error) {
	query := `SELECT ` + marketplaceColumns + ` FROM marketplace_items WHERE id = $1`

	item, err := scanMarketplaceItem(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("marketplace item")
		}
		return nil, fmt.Errorf("failed to get marketplace item by ID: %w", err)
	}

	return item, nil
}

// Create creates a new marketplace item
func (r *marketplaceRepository) Create(ctx context.Context, item *domain.MarketplaceItem) error {
	query := `
		INSERT INTO marketplace_items (id, symbol, name, type, current_price, currency, interest_rate, term_months, active, price_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var interestRate any
	if item.InterestRate != nil {
		interestRate = item.InterestRate.String()
	}
	var termMonths any
	if item.TermMonths != nil {
		termMonths = *item.TermMonths
	}

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		item.ID,
		item.Symbol,
		item.Name,
		string(item.Type),
		item.CurrentPrice.String(),
		item.Currency,
		interestRate,
		termMonths,
		item.Active,
		item.PriceUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create marketplace item: %w", err)
	}

	return nil
}

// ListActive retrieves all active catalog items
func (r *marketplaceRepository) ListActive(ctx context.Context) ([]*domain.MarketplaceItem, error) {
	query := `SELECT ` + marketplaceColumns + ` FROM marketplace_items WHERE active ORDER BY symbol, name`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list marketplace items: %w", err)
	}
	defer rows.Close()

	var items []*domain.MarketplaceItem
	for rows.Next() {
		item, err := scanMarketplaceItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan marketplace item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate marketplace items: %w", err)
	}

	return items, nil
}

// UpdatePrice overwrites the current price and its refresh timestamp
func (r *marketplaceRepository) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, at time.Time) error {
	query := `UPDATE marketplace_items SET current_price = $2, price_updated_at = $3 WHERE id = $1`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, id, price.String(), at)
	if err != nil {
		return fmt.Errorf("failed to update marketplace price: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("marketplace item")
	}

	return nil
}

// Count returns the total number of catalog items
func (r *marketplaceRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM marketplace_items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count marketplace items: %w", err)
	}
	return count, nil
}
