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

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, owner_id, type, amount, fee, currency, status, description,
	failure_reason, bank_account_id, investment_id, portfolio_id, transaction_date, completed_at`

func scanTransaction(row interface{ Scan(...any) error }) (*domain.Transaction, error) {
	var tx domain.Transaction
	var amountStr, feeStr string

	err := row.Scan(
		&tx.ID,
		&tx.OwnerID,
		&tx.Type,
		&amountStr,
		&feeStr,
		&tx.Currency,
		&tx.Status,
		&tx.Description,
		&tx.FailureReason,
		&tx.BankAccountID,
		&tx.InvestmentID,
		&tx.PortfolioID,
		&tx.TransactionDate,
		&tx.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if tx.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	if tx.Fee, err = decimal.NewFromString(feeStr); err != nil {
		return nil, fmt.Errorf("failed to parse fee: %w", err)
	}

	return &tx, nil
}

// Create creates a new transaction
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, owner_id, type, amount, fee, currency, status, description,
			failure_reason, bank_account_id, investment_id, portfolio_id, transaction_date, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		tx.ID,
		tx.OwnerID,
		string(tx.Type),
		tx.Amount.String(),
		tx.Fee.String(),
		tx.Currency,
		string(tx.Status),
		tx.Description,
		tx.FailureReason,
		tx.BankAccountID,
		tx.InvestmentID,
		tx.PortfolioID,
		tx.TransactionDate,
		tx.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by its ID
func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("transaction")
		}
		return nil, fmt.Errorf("failed to get transaction by ID: %w", err)
	}

	return tx, nil
}

// Update persists status, failure reason and completion timestamp changes.
// The status write is conditional on the persisted row still holding the
// from status, mirroring ApplyBalanceDelta: the invariant is checked against
// the stored value inside the same statement, so two racing transitions
// cannot both apply.
func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction, from domain.TransactionStatus) error {
	query := `
		UPDATE transactions
		SET status = $2, failure_reason = $3, completed_at = $4
		WHERE id = $1 AND status = $5
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		tx.ID,
		string(tx.Status),
		tx.FailureReason,
		tx.CompletedAt,
		string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		// Either the transaction does not exist or another transition won.
		if _, getErr := r.GetByID(ctx, tx.ID); getErr != nil {
			return getErr
		}
		return domain.NewValidationError("transaction is not in an eligible state")
	}

	return nil
}

// ListByOwner retrieves a paginated list of one owner's transactions, newest first
func (r *transactionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE owner_id = $1
		ORDER BY transaction_date DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}
