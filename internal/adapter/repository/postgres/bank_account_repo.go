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

// bankAccountRepository implements domain.BankAccountRepository
type bankAccountRepository struct {
	db *DB
}

// NewBankAccountRepository creates a new bank account repository
func NewBankAccountRepository(db *DB) domain.BankAccountRepository {
	return &bankAccountRepository{db: db}
}

const bankAccountColumns = `id, owner_id, name, currency, balance, verified, is_primary, created_at`

func scanBankAccount(row interface{ Scan(...any) error }) (*domain.BankAccount, error) {
	var account domain.BankAccount
	var balanceStr string

	err := row.Scan(
		&account.ID,
		&account.OwnerID,
		&account.Name,
		&account.Currency,
		&balanceStr,
		&account.Verified,
		&account.IsPrimary,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	account.Balance = balance

	return &account, nil
}

// GetByID retrieves a bank account by its ID
func (r *bankAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE id = $1`

	account, err := scanBankAccount(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("bank account")
		}
		return nil, fmt.Errorf("failed to get bank account by ID: %w", err)
	}

	return account, nil
}

// Create creates a new bank account
func (r *bankAccountRepository) Create(ctx context.Context, account *domain.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (id, owner_id, name, currency, balance, verified, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		account.ID,
		account.OwnerID,
		account.Name,
		account.Currency,
		account.Balance.String(),
		account.Verified,
		account.IsPrimary,
		account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create bank account: %w", err)
	}

	return nil
}

// ListByOwner retrieves all bank accounts of one owner
func (r *bankAccountRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE owner_id = $1 ORDER BY created_at`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.BankAccount
	for rows.Next() {
		account, err := scanBankAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bank accounts: %w", err)
	}

	return accounts, nil
}

// ApplyBalanceDelta atomically adds delta to the account balance.
// The invariant check runs against the persisted value inside the same
// statement, so a concurrent mutation can never drive the balance negative.
func (r *bankAccountRepository) ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE bank_accounts
		SET balance = balance + $2
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING balance
	`

	var balanceStr string
	err := r.db.conn(ctx).QueryRowContext(ctx, query, id, delta.String()).Scan(&balanceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the account does not exist or the delta would overdraw it.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return decimal.Zero, getErr
			}
			return decimal.Zero, domain.NewInsufficientFundsError("insufficient balance")
		}
		return decimal.Zero, fmt.Errorf("failed to adjust balance: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse balance: %w", err)
	}

	return balance, nil
}
