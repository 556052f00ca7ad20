package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of money movement
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeBuy        TransactionType = "BUY"
	TransactionTypeSell       TransactionType = "SELL"
)

// TransactionStatus represents the state of a transaction in its lifecycle
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
	TransactionStatusCancelled  TransactionStatus = "CANCELLED"
)

// allowedTransitions is the transaction state machine:
//
//	PENDING    -> PROCESSING | CANCELLED | FAILED
//	PROCESSING -> COMPLETED | FAILED
//
// COMPLETED, FAILED and CANCELLED are terminal.
var allowedTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:    {TransactionStatusProcessing, TransactionStatusCancelled, TransactionStatusFailed},
	TransactionStatusProcessing: {TransactionStatusCompleted, TransactionStatusFailed},
}

// Transaction represents a money-moving record in the ledger.
// Terminal transactions are immutable.
type Transaction struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	Type          TransactionType
	Amount        decimal.Decimal
	Fee           decimal.Decimal
	Currency      string
	Status        TransactionStatus
	Description   string
	FailureReason string

	BankAccountID *uuid.UUID
	InvestmentID  *uuid.UUID
	PortfolioID   *uuid.UUID

	TransactionDate time.Time
	CompletedAt     *time.Time
}

// IsTerminal reports whether the transaction has reached a final state.
func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving to next is a legal state change.
func (t *Transaction) CanTransitionTo(next TransactionStatus) bool {
	for _, s := range allowedTransitions[t.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the transaction to next, or fails with a validation
// error when the change is not legal from the current state.
func (t *Transaction) TransitionTo(next TransactionStatus) error {
	if !t.CanTransitionTo(next) {
		return NewValidationError("transaction is not in an eligible state")
	}
	t.Status = next
	return nil
}

// Validate ensures the transaction adheres to domain rules.
func (t *Transaction) Validate() error {
	switch t.Type {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeBuy, TransactionTypeSell:
	default:
		return NewValidationError("unknown transaction type %q", t.Type)
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("transaction amount must be positive")
	}
	if t.Fee.IsNegative() {
		return NewValidationError("transaction fee cannot be negative")
	}
	if len(t.Currency) != 3 {
		return NewValidationError("currency must be a 3-letter code")
	}
	return nil
}
