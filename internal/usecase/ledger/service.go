// Package ledger records and transitions money-moving transactions:
// deposits, withdrawals, buys and sells. It is the only creator of
// Transaction and Investment records; balance and quantity mutations are
// delegated to the balance guard on terminal success.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/domain"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/usecase/guard"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/usecase/portfolio"
)

const defaultListLimit = 50

// CreateTransferInput is the input for creating a deposit or a withdrawal.
type CreateTransferInput struct {
	OwnerID       uuid.UUID
	BankAccountID uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	Description   string
}

// BuyInput is the input for purchasing a catalog item into a portfolio.
type BuyInput struct {
	OwnerID     uuid.UUID
	PortfolioID uuid.UUID
	CatalogID   uuid.UUID
	Amount      decimal.Decimal
}

// SellInput is the input for selling part or all of an investment.
type SellInput struct {
	OwnerID      uuid.UUID
	InvestmentID uuid.UUID
	Quantity     decimal.Decimal
}

// BuyResult is the outcome of a completed purchase.
type BuyResult struct {
	Investment  *domain.Investment
	Transaction *domain.Transaction
	Preview     BuyPreview
}

// SellResult is the outcome of a completed sale.
type SellResult struct {
	Investment  *domain.Investment
	Transaction *domain.Transaction
	Preview     SellPreview
}

// Service is the transaction ledger.
type Service struct {
	UoW             domain.UnitOfWork
	AccountRepo     domain.BankAccountRepository
	PortfolioRepo   domain.PortfolioRepository
	InvestmentRepo  domain.InvestmentRepository
	TransactionRepo domain.TransactionRepository
	MarketplaceRepo domain.MarketplaceRepository
	Guard           *guard.Service
	Aggregator      *portfolio.Service
	Dispatcher      domain.NotificationDispatcher

	log zerolog.Logger
}

// NewService creates a new transaction ledger instance
func NewService(
	uow domain.UnitOfWork,
	accountRepo domain.BankAccountRepository,
	portfolioRepo domain.PortfolioRepository,
	investmentRepo domain.InvestmentRepository,
	transactionRepo domain.TransactionRepository,
	marketplaceRepo domain.MarketplaceRepository,
	balanceGuard *guard.Service,
	aggregator *portfolio.Service,
	dispatcher domain.NotificationDispatcher,
	log zerolog.Logger,
) *Service {
	return &Service{
		UoW:             uow,
		AccountRepo:     accountRepo,
		PortfolioRepo:   portfolioRepo,
		InvestmentRepo:  investmentRepo,
		TransactionRepo: transactionRepo,
		MarketplaceRepo: marketplaceRepo,
		Guard:           balanceGuard,
		Aggregator:      aggregator,
		Dispatcher:      dispatcher,
		log:             log.With().Str("component", "ledger").Logger(),
	}
}

// CreateDeposit records a deposit request against one of the owner's bank
// accounts. The transaction starts PENDING; the balance is only credited
// when Complete is called.
func (s *Service) CreateDeposit(ctx context.Context, input CreateTransferInput) (*domain.Transaction, error) {
	return s.createTransfer(ctx, domain.TransactionTypeDeposit, input)
}

// CreateWithdrawal records a withdrawal request against one of the owner's
// bank accounts. Fails with an insufficient-funds error when the account
// balance does not cover the amount. The transaction starts PENDING; the
// balance is only debited when Complete is called.
func (s *Service) CreateWithdrawal(ctx context.Context, input CreateTransferInput) (*domain.Transaction, error) {
	return s.createTransfer(ctx, domain.TransactionTypeWithdrawal, input)
}

func (s *Service) createTransfer(ctx context.Context, txType domain.TransactionType, input CreateTransferInput) (*domain.Transaction, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("amount must be positive")
	}

	account, err := s.ownedAccount(ctx, input.OwnerID, input.BankAccountID)
	if err != nil {
		return nil, err
	}
	if input.Currency != "" && input.Currency != account.Currency {
		return nil, domain.NewValidationError("currency does not match the bank account")
	}
	if txType == domain.TransactionTypeWithdrawal && account.Balance.LessThan(input.Amount) {
		return nil, domain.NewInsufficientFundsError("insufficient balance")
	}

	tx := &domain.Transaction{
		ID:              uuid.New(),
		OwnerID:         input.OwnerID,
		Type:            txType,
		Amount:          input.Amount,
		Fee:             decimal.Zero,
		Currency:        account.Currency,
		Status:          domain.TransactionStatusPending,
		Description:     input.Description,
		BankAccountID:   &account.ID,
		TransactionDate: time.Now(),
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if err := s.TransactionRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("transaction_id", tx.ID.String()).
		Str("type", string(txType)).
		Str("amount", tx.Amount.String()).
		Msg("Transfer transaction created")

	return tx, nil
}

// Approve moves a PENDING transaction to PROCESSING. For withdrawals the
// balance is re-validated, since it may have changed since creation.
func (s *Service) Approve(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.TransactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if tx.Status != domain.TransactionStatusPending {
		return nil, domain.NewValidationError("transaction is not in an eligible state")
	}

	if tx.Type == domain.TransactionTypeWithdrawal && tx.BankAccountID != nil {
		account, err := s.AccountRepo.GetByID(ctx, *tx.BankAccountID)
		if err != nil {
			return nil, err
		}
		if account.Balance.LessThan(tx.Amount) {
			return nil, domain.NewInsufficientFundsError("insufficient balance")
		}
	}

	if err := tx.TransitionTo(domain.TransactionStatusProcessing); err != nil {
		return nil, err
	}
	if err := s.TransactionRepo.Update(ctx, tx, domain.TransactionStatusPending); err != nil {
		return nil, err
	}

	return tx, nil
}

// Complete moves a PROCESSING transaction to COMPLETED and applies its
// balance effect through the balance guard: deposits credit the bank
// account, withdrawals debit it. The state change and the balance mutation
// commit as one unit of work.
func (s *Service) Complete(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	var tx *domain.Transaction

	err := s.UoW.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		tx, err = s.TransactionRepo.GetByID(ctx, transactionID)
		if err != nil {
			return err
		}

		from := tx.Status
		if err := tx.TransitionTo(domain.TransactionStatusCompleted); err != nil {
			return err
		}

		// The conditional status write goes first: a racing completion
		// fails here and rolls back before any balance movement.
		now := time.Now()
		tx.CompletedAt = &now
		if err := s.TransactionRepo.Update(ctx, tx, from); err != nil {
			return err
		}

		switch tx.Type {
		case domain.TransactionTypeDeposit:
			if _, err := s.Guard.AdjustBalance(ctx, *tx.BankAccountID, tx.Amount); err != nil {
				return err
			}
		case domain.TransactionTypeWithdrawal:
			if _, err := s.Guard.AdjustBalance(ctx, *tx.BankAccountID, tx.Amount.Neg()); err != nil {
				return err
			}
		default:
			return domain.NewValidationError("only deposits and withdrawals go through the approval flow")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("transaction_id", tx.ID.String()).
		Str("type", string(tx.Type)).
		Msg("Transaction completed")

	s.notify(tx.OwnerID, domain.NotifyTransactionCompleted, transferPayload(tx))
	return tx, nil
}

// Reject moves a PENDING or PROCESSING transaction to FAILED with a reason.
// No balance effect.
func (s *Service) Reject(ctx context.Context, transactionID uuid.UUID, reason string) (*domain.Transaction, error) {
	tx, err := s.TransactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	from := tx.Status
	if err := tx.TransitionTo(domain.TransactionStatusFailed); err != nil {
		return nil, err
	}
	tx.FailureReason = reason

	if err := s.TransactionRepo.Update(ctx, tx, from); err != nil {
		return nil, err
	}

	s.notify(tx.OwnerID, domain.NotifyTransactionFailed, transferPayload(tx))
	return tx, nil
}

// Cancel moves a PENDING transaction to CANCELLED. Owner-initiated only;
// once a transaction is PROCESSING it can no longer be cancelled.
func (s *Service) Cancel(ctx context.Context, ownerID, transactionID uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.TransactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.OwnerID != ownerID {
		return nil, domain.NewNotFoundError("transaction")
	}

	if err := tx.TransitionTo(domain.TransactionStatusCancelled); err != nil {
		return nil, err
	}
	if err := s.TransactionRepo.Update(ctx, tx, domain.TransactionStatusPending); err != nil {
		return nil, err
	}

	s.notify(tx.OwnerID, domain.NotifyTransactionCancelled, transferPayload(tx))
	return tx, nil
}

// PreviewBuy computes the cost breakdown of a prospective purchase without
// persisting anything. The target portfolio goes through the same ownership
// check as Buy.
func (s *Service) PreviewBuy(ctx context.Context, ownerID, portfolioID, catalogID uuid.UUID, amount decimal.Decimal) (BuyPreview, error) {
	if _, err := s.ownedPortfolio(ctx, ownerID, portfolioID); err != nil {
		return BuyPreview{}, err
	}
	item, err := s.availableItem(ctx, catalogID)
	if err != nil {
		return BuyPreview{}, err
	}
	return ComputeBuyBreakdown(item, amount)
}

// Buy purchases `amount` worth of a catalog item into the owner's portfolio.
// The investment activates immediately: it is created ACTIVE, the BUY
// transaction records COMPLETED and the portfolio totals are recomputed in
// the same unit of work.
func (s *Service) Buy(ctx context.Context, input BuyInput) (*BuyResult, error) {
	if _, err := s.ownedPortfolio(ctx, input.OwnerID, input.PortfolioID); err != nil {
		return nil, err
	}

	item, err := s.availableItem(ctx, input.CatalogID)
	if err != nil {
		return nil, err
	}

	preview, err := ComputeBuyBreakdown(item, input.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inv := &domain.Investment{
		ID:            uuid.New(),
		OwnerID:       input.OwnerID,
		PortfolioID:   input.PortfolioID,
		Symbol:        item.Symbol,
		Name:          item.Name,
		Type:          item.Type,
		Currency:      item.Currency,
		Quantity:      preview.Quantity,
		PurchasePrice: preview.UnitPrice,
		CurrentPrice:  preview.UnitPrice,
		Status:        domain.InvestmentStatusActive,
		PurchaseDate:  now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if item.InterestRate != nil {
		rate := *item.InterestRate
		inv.InterestRate = &rate
	}
	if item.TermMonths != nil {
		maturity := now.AddDate(0, *item.TermMonths, 0)
		inv.MaturityDate = &maturity
	}
	inv.RecomputeDerived()
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		ID:              uuid.New(),
		OwnerID:         input.OwnerID,
		Type:            domain.TransactionTypeBuy,
		Amount:          preview.TotalCost,
		Fee:             preview.Fee,
		Currency:        item.Currency,
		Status:          domain.TransactionStatusCompleted,
		Description:     "Buy " + item.Name,
		InvestmentID:    &inv.ID,
		PortfolioID:     &input.PortfolioID,
		TransactionDate: now,
		CompletedAt:     &now,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	err = s.UoW.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.InvestmentRepo.Create(ctx, inv); err != nil {
			return err
		}
		if err := s.TransactionRepo.Create(ctx, tx); err != nil {
			return err
		}
		_, err := s.Aggregator.RecomputeTotals(ctx, input.PortfolioID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("investment_id", inv.ID.String()).
		Str("portfolio_id", input.PortfolioID.String()).
		Str("quantity", inv.Quantity.String()).
		Msg("Investment purchased")

	s.notify(input.OwnerID, domain.NotifyInvestmentPurchased, map[string]string{
		"investment_id": inv.ID.String(),
		"name":          inv.Name,
		"amount":        preview.TotalCost.String(),
	})

	return &BuyResult{Investment: inv, Transaction: tx, Preview: preview}, nil
}

// PreviewSell computes the proceeds breakdown of a prospective sale without
// persisting anything.
func (s *Service) PreviewSell(ctx context.Context, ownerID, investmentID uuid.UUID, quantity decimal.Decimal) (SellPreview, error) {
	inv, err := s.sellableInvestment(ctx, ownerID, investmentID, quantity)
	if err != nil {
		return SellPreview{}, err
	}
	return ComputeSellBreakdown(inv, quantity)
}

// Sell sells `quantity` units of an investment. The quantity decrement, the
// SELL transaction and the portfolio recomputation commit as one unit of
// work. When the quantity reaches zero the investment is marked SOLD; the
// record itself is only removed through DeleteInvestment.
func (s *Service) Sell(ctx context.Context, input SellInput) (*SellResult, error) {
	inv, err := s.sellableInvestment(ctx, input.OwnerID, input.InvestmentID, input.Quantity)
	if err != nil {
		return nil, err
	}

	preview, err := ComputeSellBreakdown(inv, input.Quantity)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tx := &domain.Transaction{
		ID:              uuid.New(),
		OwnerID:         input.OwnerID,
		Type:            domain.TransactionTypeSell,
		Amount:          preview.Proceeds,
		Fee:             preview.Fee,
		Currency:        inv.Currency,
		Status:          domain.TransactionStatusCompleted,
		Description:     "Sell " + inv.Name,
		InvestmentID:    &inv.ID,
		PortfolioID:     &inv.PortfolioID,
		TransactionDate: now,
		CompletedAt:     &now,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	err = s.UoW.WithinTx(ctx, func(ctx context.Context) error {
		newQuantity, err := s.Guard.AdjustQuantity(ctx, inv.ID, input.Quantity.Neg())
		if err != nil {
			return err
		}

		inv.Quantity = newQuantity
		if newQuantity.IsZero() {
			inv.Status = domain.InvestmentStatusSold
		}
		inv.RecomputeDerived()
		if err := s.InvestmentRepo.Update(ctx, inv); err != nil {
			return err
		}

		if err := s.TransactionRepo.Create(ctx, tx); err != nil {
			return err
		}

		_, err = s.Aggregator.RecomputeTotals(ctx, inv.PortfolioID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("investment_id", inv.ID.String()).
		Str("quantity", input.Quantity.String()).
		Str("gain_loss", preview.GainLoss.String()).
		Msg("Investment sold")

	s.notify(input.OwnerID, domain.NotifyInvestmentSold, map[string]string{
		"investment_id": inv.ID.String(),
		"name":          inv.Name,
		"proceeds":      preview.NetProceeds.String(),
	})

	return &SellResult{Investment: inv, Transaction: tx, Preview: preview}, nil
}

// DeleteInvestment removes a fully sold-out investment. Positions that still
// hold quantity cannot be deleted.
func (s *Service) DeleteInvestment(ctx context.Context, ownerID, investmentID uuid.UUID) error {
	inv, err := s.InvestmentRepo.GetByID(ctx, investmentID)
	if err != nil {
		return err
	}
	if inv.OwnerID != ownerID {
		return domain.NewNotFoundError("investment")
	}
	if !inv.Quantity.IsZero() {
		return domain.NewValidationError("investment quantity must be zero before deletion")
	}

	return s.UoW.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.InvestmentRepo.Delete(ctx, investmentID); err != nil {
			return err
		}
		_, err := s.Aggregator.RecomputeTotals(ctx, inv.PortfolioID)
		return err
	})
}

// GetTransaction retrieves one of the owner's transactions
func (s *Service) GetTransaction(ctx context.Context, ownerID, transactionID uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.TransactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.OwnerID != ownerID {
		return nil, domain.NewNotFoundError("transaction")
	}
	return tx, nil
}

// ListTransactions retrieves a page of the owner's transactions, newest first
func (s *Service) ListTransactions(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.TransactionRepo.ListByOwner(ctx, ownerID, limit, offset)
}

func (s *Service) ownedAccount(ctx context.Context, ownerID, accountID uuid.UUID) (*domain.BankAccount, error) {
	account, err := s.AccountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.OwnerID != ownerID {
		return nil, domain.NewNotFoundError("bank account")
	}
	return account, nil
}

func (s *Service) ownedPortfolio(ctx context.Context, ownerID, portfolioID uuid.UUID) (*domain.Portfolio, error) {
	p, err := s.PortfolioRepo.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, domain.NewNotFoundError("portfolio")
	}
	return p, nil
}

func (s *Service) availableItem(ctx context.Context, catalogID uuid.UUID) (*domain.MarketplaceItem, error) {
	item, err := s.MarketplaceRepo.GetByID(ctx, catalogID)
	if err != nil {
		return nil, err
	}
	if !item.Active {
		return nil, domain.NewValidationError("marketplace item is not available")
	}
	return item, nil
}

func (s *Service) sellableInvestment(ctx context.Context, ownerID, investmentID uuid.UUID, quantity decimal.Decimal) (*domain.Investment, error) {
	inv, err := s.InvestmentRepo.GetByID(ctx, investmentID)
	if err != nil {
		return nil, err
	}
	if inv.OwnerID != ownerID {
		return nil, domain.NewNotFoundError("investment")
	}
	if inv.Status != domain.InvestmentStatusActive && inv.Status != domain.InvestmentStatusMatured {
		return nil, domain.NewValidationError("investment is not in a sellable state")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("quantity must be positive")
	}
	if quantity.GreaterThan(inv.Quantity) {
		return nil, domain.NewValidationError("insufficient quantity")
	}
	return inv, nil
}

// notify dispatches a fire-and-forget notification. The dispatcher contract
// guarantees it never blocks; a nil dispatcher disables notifications.
func (s *Service) notify(userID uuid.UUID, kind domain.NotificationKind, payload map[string]string) {
	if s.Dispatcher == nil {
		return
	}
	s.Dispatcher.Notify(userID, kind, payload)
}

func transferPayload(tx *domain.Transaction) map[string]string {
	return map[string]string{
		"transaction_id": tx.ID.String(),
		"type":           string(tx.Type),
		"amount":         tx.Amount.String(),
		"currency":       tx.Currency,
		"status":         string(tx.Status),
	}
}
