package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote is a point-in-time price from the external quote source.
type Quote struct {
	Symbol    string
	Price     decimal.Decimal
	Timestamp time.Time
}

// QuoteProvider is the external market quote source. It may be unavailable;
// callers treat failures as soft (logged and skipped).
type QuoteProvider interface {
	// GetQuote fetches the latest quote for one symbol
	GetQuote(ctx context.Context, symbol string) (Quote, error)

	// GetQuotes fetches quotes for several symbols. The result is keyed by
	// each symbol as passed; symbols that could not be resolved are absent
	// from the returned map
	GetQuotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}

// NotificationKind identifies the event a notification describes.
type NotificationKind string

const (
	NotifyTransactionCompleted NotificationKind = "transaction.completed"
	NotifyTransactionFailed    NotificationKind = "transaction.failed"
	NotifyTransactionCancelled NotificationKind = "transaction.cancelled"
	NotifyInvestmentPurchased  NotificationKind = "investment.purchased"
	NotifyInvestmentSold       NotificationKind = "investment.sold"
)

// NotificationDispatcher delivers user-facing notifications. Dispatch is
// fire-and-forget: it must never block the caller and its failures are
// logged, not propagated.
type NotificationDispatcher interface {
	Notify(userID uuid.UUID, kind NotificationKind, payload map[string]string)
}
