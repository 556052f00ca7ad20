package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newTransaction(status TransactionStatus) *Transaction {
	return &Transaction{
		ID:       uuid.New(),
		OwnerID:  uuid.New(),
		Type:     TransactionTypeDeposit,
		Amount:   decimal.NewFromInt(100),
		Currency: "GBP",
		Status:   status,
	}
}

func TestTransitionTo_LegalTransitions(t *testing.T) {
	testCases := []struct {
		name string
		from TransactionStatus
		to   TransactionStatus
	}{
		{"pending to processing", TransactionStatusPending, TransactionStatusProcessing},
		{"pending to cancelled", TransactionStatusPending, TransactionStatusCancelled},
		{"pending to failed", TransactionStatusPending, TransactionStatusFailed},
		{"processing to completed", TransactionStatusProcessing, TransactionStatusCompleted},
		{"processing to failed", TransactionStatusProcessing, TransactionStatusFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tx := newTransaction(tc.from)
			err := tx.TransitionTo(tc.to)
			assert.NoError(t, err)
			assert.Equal(t, tc.to, tx.Status)
		})
	}
}

func TestTransitionTo_IllegalTransitions(t *testing.T) {
	testCases := []struct {
		name string
		from TransactionStatus
		to   TransactionStatus
	}{
		{"pending straight to completed", TransactionStatusPending, TransactionStatusCompleted},
		{"processing to cancelled", TransactionStatusProcessing, TransactionStatusCancelled},
		{"completed to processing", TransactionStatusCompleted, TransactionStatusProcessing},
		{"completed to failed", TransactionStatusCompleted, TransactionStatusFailed},
		{"failed to processing", TransactionStatusFailed, TransactionStatusProcessing},
		{"failed to completed", TransactionStatusFailed, TransactionStatusCompleted},
		{"cancelled to processing", TransactionStatusCancelled, TransactionStatusProcessing},
		{"cancelled to pending", TransactionStatusCancelled, TransactionStatusPending},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tx := newTransaction(tc.from)
			err := tx.TransitionTo(tc.to)
			assert.Error(t, err)
			assert.True(t, IsValidation(err))
			// The status must be untouched after a rejected transition
			assert.Equal(t, tc.from, tx.Status)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, newTransaction(TransactionStatusPending).IsTerminal())
	assert.False(t, newTransaction(TransactionStatusProcessing).IsTerminal())
	assert.True(t, newTransaction(TransactionStatusCompleted).IsTerminal())
	assert.True(t, newTransaction(TransactionStatusFailed).IsTerminal())
	assert.True(t, newTransaction(TransactionStatusCancelled).IsTerminal())
}

func TestTransactionValidate(t *testing.T) {
	tx := newTransaction(TransactionStatusPending)
	assert.NoError(t, tx.Validate())

	negative := newTransaction(TransactionStatusPending)
	negative.Amount = decimal.NewFromInt(-10)
	assert.Error(t, negative.Validate())

	zero := newTransaction(TransactionStatusPending)
	zero.Amount = decimal.Zero
	assert.Error(t, zero.Validate())

	badCurrency := newTransaction(TransactionStatusPending)
	badCurrency.Currency = "POUNDS"
	assert.Error(t, badCurrency.Validate())

	badType := newTransaction(TransactionStatusPending)
	badType.Type = "TRANSFER"
	assert.Error(t, badType.Validate())

	negativeFee := newTransaction(TransactionStatusPending)
	negativeFee.Fee = decimal.NewFromInt(-1)
	assert.Error(t, negativeFee.Validate())
}
