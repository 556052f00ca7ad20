package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankAccount represents a client bank account in the domain layer.
// Balance is mutated only through the Balance Guard; it is never negative
// after a committed mutation.
type BankAccount struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Currency  string
	Balance   decimal.Decimal
	Verified  bool
	IsPrimary bool // at most one primary account per owner
	CreatedAt time.Time
}

// Validate ensures the bank account adheres to domain rules.
func (a *BankAccount) Validate() error {
	if a.Name == "" {
		return NewValidationError("account name cannot be empty")
	}
	if len(a.Currency) != 3 {
		return NewValidationError("currency must be a 3-letter code")
	}
	if a.Balance.IsNegative() {
		return NewValidationError("account balance cannot be negative")
	}
	return nil
}
