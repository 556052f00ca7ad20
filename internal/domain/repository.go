package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitOfWork runs fn inside one atomic unit of work. Repository calls made
// with the context passed to fn join the same database transaction; the unit
// commits when fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// BankAccountRepository defines persistence operations for bank accounts.
// Balance is never written directly; ApplyBalanceDelta is the single write
// path and enforces the non-negative invariant against the persisted value.
type BankAccountRepository interface {
	// GetByID retrieves a bank account by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*BankAccount, error)

	// Create creates a new bank account
	Create(ctx context.Context, account *BankAccount) error

	// ListByOwner retrieves all bank accounts of one owner
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*BankAccount, error)

	// ApplyBalanceDelta atomically adds delta (which may be negative) to the
	// account balance and returns the new balance. Fails with an
	// insufficient-funds error if the result would be negative, leaving the
	// balance unchanged.
	ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

// PortfolioRepository defines persistence operations for portfolios.
type PortfolioRepository interface {
	// GetByID retrieves a portfolio by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Portfolio, error)

	// Create creates a new portfolio
	Create(ctx context.Context, portfolio *Portfolio) error

	// UpdateTotals writes the four derived total fields in one update
	UpdateTotals(ctx context.Context, id uuid.UUID, totals PortfolioTotals) error
}

// InvestmentRepository defines persistence operations for investments.
// Quantity is never written directly outside ApplyQuantityDelta.
type InvestmentRepository interface {
	// GetByID retrieves an investment by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Investment, error)

	// Create creates a new investment
	Create(ctx context.Context, investment *Investment) error

	// Update persists price, derived totals and status changes
	Update(ctx context.Context, investment *Investment) error

	// Delete removes an investment. Used by the explicit deletion path only.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByPortfolio retrieves all investments in a portfolio
	ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*Investment, error)

	// ListActive retrieves all ACTIVE investments across portfolios
	ListActive(ctx context.Context) ([]*Investment, error)

	// ApplyQuantityDelta atomically adds delta (which may be negative) to the
	// investment quantity and returns the new quantity. Fails with a
	// validation error if the result would be negative.
	ApplyQuantityDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

// TransactionRepository defines persistence operations for ledger transactions.
type TransactionRepository interface {
	// Create creates a new transaction
	Create(ctx context.Context, tx *Transaction) error

	// GetByID retrieves a transaction by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// Update persists status, failure reason and completion timestamp
	// changes. The write only applies while the persisted row still holds
	// the from status; a racing transition fails with a validation error,
	// so a state change can never apply twice.
	Update(ctx context.Context, tx *Transaction, from TransactionStatus) error

	// ListByOwner retrieves a paginated list of one owner's transactions,
	// newest first
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Transaction, error)
}

// MarketplaceRepository defines persistence operations for catalog items.
type MarketplaceRepository interface {
	// GetByID retrieves a marketplace item by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*MarketplaceItem, error)

	// Create creates a new marketplace item
	Create(ctx context.Context, item *MarketplaceItem) error

	// ListActive retrieves all active catalog items
	ListActive(ctx context.Context) ([]*MarketplaceItem, error)

	// UpdatePrice overwrites the current price and its refresh timestamp
	UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, at time.Time) error

	// Count returns the total number of catalog items
	Count(ctx context.Context) (int, error)
}
