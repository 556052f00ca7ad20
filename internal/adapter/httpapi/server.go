// Package httpapi exposes the core operations as a thin JSON API for the
// routing and admin layers. Authentication, sessions and 2FA live outside
// this service.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/shakiltousif/investment-crm-backend-sub000/internal/domain"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/usecase/accrual"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/usecase/guard"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/usecase/ledger"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/usecase/portfolio"
)

// Server bundles the handlers over the core services.
type Server struct {
	Ledger     *ledger.Service
	Guard      *guard.Service
	Aggregator *portfolio.Service
	Accrual    *accrual.Engine

	log zerolog.Logger
}

// NewServer creates a new HTTP API server instance
func NewServer(
	ledgerSvc *ledger.Service,
	guardSvc *guard.Service,
	aggregator *portfolio.Service,
	accrualEngine *accrual.Engine,
	log zerolog.Logger,
) *Server {
	return &Server{
		Ledger:     ledgerSvc,
		Guard:      guardSvc,
		Aggregator: aggregator,
		Accrual:    accrualEngine,
		log:        log.With().Str("component", "httpapi").Logger(),
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/deposit", s.handleCreateDeposit)
			r.Post("/withdrawal", s.handleCreateWithdrawal)
			r.Get("/", s.handleListTransactions)
			r.Post("/{id}/approve", s.handleApprove)
			r.Post("/{id}/complete", s.handleComplete)
			r.Post("/{id}/reject", s.handleReject)
			r.Post("/{id}/cancel", s.handleCancel)
		})

		r.Route("/invest", func(r chi.Router) {
			r.Post("/preview-buy", s.handlePreviewBuy)
			r.Post("/buy", s.handleBuy)
			r.Post("/preview-sell", s.handlePreviewSell)
			r.Post("/sell", s.handleSell)
			r.Delete("/{id}", s.handleDeleteInvestment)
		})

		r.Post("/portfolios/{id}/recompute", s.handleRecompute)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/accounts/{id}/adjust-balance", s.handleAdjustBalance)
			r.Post("/accrual/run", s.handleRunAccrual)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError translates domain error kinds to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := "INTERNAL"

	switch {
	case domain.IsInsufficientFunds(err):
		status = http.StatusUnprocessableEntity
		kind = string(domain.KindInsufficientFunds)
	case domain.IsValidation(err):
		status = http.StatusBadRequest
		kind = string(domain.KindValidation)
	case domain.IsNotFound(err):
		status = http.StatusNotFound
		kind = string(domain.KindNotFound)
	case domain.IsConflict(err):
		status = http.StatusConflict
		kind = string(domain.KindConflict)
	}

	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("Request failed")
		s.writeJSON(w, status, errorResponse{Kind: kind, Message: "internal error"})
		return
	}

	s.writeJSON(w, status, errorResponse{Kind: kind, Message: err.Error()})
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
