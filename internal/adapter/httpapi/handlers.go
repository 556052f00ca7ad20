package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shakiltousif/investment-crm-backend-sub000/internal/domain"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/usecase/ledger"
)

// Decimals travel as strings on the wire so no precision is lost in JSON.

type transferRequest struct {
	OwnerID       string `json:"owner_id"`
	BankAccountID string `json:"bank_account_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Description   string `json:"description"`
}

type transactionResponse struct {
	ID              string  `json:"id"`
	OwnerID         string  `json:"owner_id"`
	Type            string  `json:"type"`
	Amount          string  `json:"amount"`
	Fee             string  `json:"fee"`
	Currency        string  `json:"currency"`
	Status          string  `json:"status"`
	Description     string  `json:"description"`
	FailureReason   string  `json:"failure_reason,omitempty"`
	BankAccountID   *string `json:"bank_account_id,omitempty"`
	InvestmentID    *string `json:"investment_id,omitempty"`
	PortfolioID     *string `json:"portfolio_id,omitempty"`
	TransactionDate string  `json:"transaction_date"`
	CompletedAt     *string `json:"completed_at,omitempty"`
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:              tx.ID.String(),
		OwnerID:         tx.OwnerID.String(),
		Type:            string(tx.Type),
		Amount:          tx.Amount.String(),
		Fee:             tx.Fee.String(),
		Currency:        tx.Currency,
		Status:          string(tx.Status),
		Description:     tx.Description,
		FailureReason:   tx.FailureReason,
		TransactionDate: tx.TransactionDate.Format(time.RFC3339),
	}
	if tx.BankAccountID != nil {
		s := tx.BankAccountID.String()
		resp.BankAccountID = &s
	}
	if tx.InvestmentID != nil {
		s := tx.InvestmentID.String()
		resp.InvestmentID = &s
	}
	if tx.PortfolioID != nil {
		s := tx.PortfolioID.String()
		resp.PortfolioID = &s
	}
	if tx.CompletedAt != nil {
		s := tx.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

func (s *Server) handleCreateDeposit(w http.ResponseWriter, r *http.Request) {
	s.handleCreateTransfer(w, r, s.Ledger.CreateDeposit)
}

func (s *Server) handleCreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	s.handleCreateTransfer(w, r, s.Ledger.CreateWithdrawal)
}

func (s *Server) handleCreateTransfer(
	w http.ResponseWriter,
	r *http.Request,
	create func(ctx context.Context, input ledger.CreateTransferInput) (*domain.Transaction, error),
) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.NewValidationError("invalid request body"))
		return
	}

	ownerID, err := parseUUID(req.OwnerID, "owner_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	accountID, err := parseUUID(req.BankAccountID, "bank_account_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := parseDecimal(req.Amount, "amount")
	if err != nil {
		s.writeError(w, err)
		return
	}

	tx, err := create(r.Context(), ledger.CreateTransferInput{
		OwnerID:       ownerID,
		BankAccountID: accountID,
		Amount:        amount,
		Currency:      req.Currency,
		Description:   req.Description,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"), "transaction id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	tx, err := s.Ledger.Approve(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"), "transaction id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	tx, err := s.Ledger.Complete(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"), "transaction id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.NewValidationError("invalid request body"))
		return
	}

	tx, err := s.Ledger.Reject(r.Context(), id, req.Reason)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"), "transaction id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req struct {
		OwnerID string `json:"owner_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.NewValidationError("invalid request body"))
		return
	}
	ownerID, err := parseUUID(req.OwnerID, "owner_id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	tx, err := s.Ledger.Cancel(r.Context(), ownerID, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseUUID(r.URL.Query().Get("owner_id"), "owner_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	transactions, err := s.Ledger.ListTransactions(r.Context(), ownerID, limit, offset)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := make([]transactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		resp = append(resp, toTransactionResponse(tx))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type previewBuyRequest struct {
	OwnerID     string `json:"owner_id"`
	PortfolioID string `json:"portfolio_id"`
	CatalogID   string `json:"catalog_id"`
	Amount      string `json:"amount"`
}

type buyPreviewResponse struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  string `json:"quantity"`
	Fee       string `json:"fee"`
	NetAmount string `json:"net_amount"`
	TotalCost string `json:"total_cost"`
}

func toBuyPreviewResponse(p ledger.BuyPreview) buyPreviewResponse {
	return buyPreviewResponse{
		Symbol:    p.Symbol,
		Name:      p.Name,
		UnitPrice: p.UnitPrice.String(),
		Quantity:  p.Quantity.String(),
		Fee:       p.Fee.String(),
		NetAmount: p.NetAmount.String(),
		TotalCost: p.TotalCost.String(),
	}
}

func (s *Server) handlePreviewBuy(w http.ResponseWriter, r *http.Request) {
	var req previewBuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.NewValidationError("invalid request body"))
		return
	}

	ownerID, err := parseUUID(req.OwnerID, "owner_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	portfolioID, err := parseUUID(req.PortfolioID, "portfolio_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	catalogID, err := parseUUID(req.CatalogID, "catalog_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := parseDecimal(req.Amount, "amount")
	if err != nil {
		s.writeError(w, err)
		return
	}

	preview, err := s.Ledger.PreviewBuy(r.Context(), ownerID, portfolioID, catalogID, amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toBuyPreviewResponse(preview))
}

type buyRequest struct {
	OwnerID     string `json:"owner_id"`
	PortfolioID string `json:"portfolio_id"`
	CatalogID   string `json:"catalog_id"`
	Amount      string `json:"amount"`
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.NewValidationError("invalid request body"))
		return
	}

	ownerID, err := parseUUID(req.OwnerID, "owner_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	portfolioID, err := parseUUID(req.PortfolioID, "portfolio_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	catalogID, err := parseUUID(req.CatalogID, "catalog_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := parseDecimal(req.Amount, "amount")
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.Ledger.Buy(r.Context(), ledger.BuyInput{
		OwnerID:     ownerID,
		PortfolioID: portfolioID,
		CatalogID:   catalogID,
		Amount:      amount,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"investment_id": result.Investment.ID.String(),
		"transaction":   toTransactionResponse(result.Transaction),
		"preview":       toBuyPreviewResponse(result.Preview),
	})
}

type sellRequest struct {
	OwnerID      string `json:"owner_id"`
	InvestmentID string `json:"investment_id"`
	Quantity     string `json:"quantity"`
}

type sellPreviewResponse struct {
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Proceeds    string `json:"proceeds"`
	Fee         string `json:"fee"`
	NetProceeds string `json:"net_proceeds"`
	CostBasis   string `json:"cost_basis"`
	GainLoss    string `json:"gain_loss"`
}

func toSellPreviewResponse(p ledger.SellPreview) sellPreviewResponse {
	return sellPreviewResponse{
		Quantity:    p.Quantity.String(),
		UnitPrice:   p.UnitPrice.String(),
		Proceeds:    p.Proceeds.String(),
		Fee:         p.Fee.String(),
		NetProceeds: p.NetProceeds.String(),
		CostBasis:   p.CostBasis.String(),
		GainLoss:    p.GainLoss.String(),
	}
}

func (s *Server) parseSellRequest(w http.ResponseWriter, r *http.Request) (ledger.SellInput, bool) {
	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.NewValidationError("invalid request body"))
		return ledger.SellInput{}, false
	}

	ownerID, err := parseUUID(req.OwnerID, "owner_id")
	if err != nil {
		s.writeError(w, err)
		return ledger.SellInput{}, false
	}
	investmentID, err := parseUUID(req.InvestmentID, "investment_id")
	if err != nil {
		s.writeError(w, err)
		return ledger.SellInput{}, false
	}
	quantity, err := parseDecimal(req.Quantity, "quantity")
	if err != nil {
		s.writeError(w, err)
		return ledger.SellInput{}, false
	}

	return ledger.SellInput{OwnerID: ownerID, InvestmentID: investmentID, Quantity: quantity}, true
}

func (s *Server) handlePreviewSell(w http.ResponseWriter, r *http.Request) {
	input, ok := s.parseSellRequest(w, r)
	if !ok {
		return
	}

	preview, err := s.Ledger.PreviewSell(r.Context(), input.OwnerID, input.InvestmentID, input.Quantity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSellPreviewResponse(preview))
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	input, ok := s.parseSellRequest(w, r)
	if !ok {
		return
	}

	result, err := s.Ledger.Sell(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"investment_id": result.Investment.ID.String(),
		"status":        string(result.Investment.Status),
		"transaction":   toTransactionResponse(result.Transaction),
		"preview":       toSellPreviewResponse(result.Preview),
	})
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"), "investment id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	ownerID, err := parseUUID(r.URL.Query().Get("owner_id"), "owner_id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.Ledger.DeleteInvestment(r.Context(), ownerID, id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"), "portfolio id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	totals, err := s.Aggregator.RecomputeTotals(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"total_value":     totals.TotalValue.String(),
		"total_invested":  totals.TotalInvested.String(),
		"total_gain":      totals.TotalGain.String(),
		"gain_percentage": totals.GainPercentage.String(),
	})
}

func (s *Server) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"), "account id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req struct {
		Delta string `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.NewValidationError("invalid request body"))
		return
	}
	delta, err := decimal.NewFromString(req.Delta)
	if err != nil {
		s.writeError(w, domain.NewValidationError("invalid delta"))
		return
	}

	newBalance, err := s.Guard.AdjustBalance(r.Context(), id, delta)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"balance": newBalance.String()})
}

func (s *Server) handleRunAccrual(w http.ResponseWriter, r *http.Request) {
	result := s.Accrual.RunDailyCycle(r.Context())

	status := http.StatusOK
	if !result.Successful() {
		status = http.StatusMultiStatus
	}
	s.writeJSON(w, status, result)
}

func parseUUID(s, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, domain.NewValidationError("invalid %s", field)
	}
	return id, nil
}

func parseDecimal(s, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, domain.NewValidationError("invalid %s", field)
	}
	return d, nil
}
