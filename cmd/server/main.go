package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/shakiltousif/investment-crm-backend-sub000/internal/adapter/httpapi"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/adapter/notify"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/adapter/quote"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/adapter/repository/postgres"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/config"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/scheduler"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/usecase/accrual"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/usecase/guard"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/usecase/ledger"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/usecase/portfolio"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/usecase/seeder"
)

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	// 1. Database
	db, err := postgres.NewDB(cfg.DBConnStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	// 2. Repositories
	accountRepo := postgres.NewBankAccountRepository(db)
	portfolioRepo := postgres.NewPortfolioRepository(db)
	investmentRepo := postgres.NewInvestmentRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	marketplaceRepo := postgres.NewMarketplaceRepository(db)

	// 3. Outbound adapters
	quotes := quote.NewYahooProvider(log)
	dispatcher := notify.NewQueue(notify.LogSink(log), cfg.NotifyBufferSize, log)
	defer dispatcher.Close()

	// 4. Services
	balanceGuard := guard.NewService(accountRepo, investmentRepo, log)
	aggregator := portfolio.NewService(db, portfolioRepo, investmentRepo, log)
	ledgerSvc := ledger.NewService(
		db,
		accountRepo,
		portfolioRepo,
		investmentRepo,
		transactionRepo,
		marketplaceRepo,
		balanceGuard,
		aggregator,
		dispatcher,
		log,
	)
	accrualEngine := accrual.NewEngine(
		marketplaceRepo,
		investmentRepo,
		quotes,
		aggregator,
		cfg.AccrualWorkers,
		cfg.QuoteTimeout,
		log,
	)

	// 5. Seed the marketplace catalog
	if err := seeder.NewCatalogSeeder(marketplaceRepo).Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed marketplace catalog")
	}

	// 6. Scheduler with the daily accrual cycle
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.AccrualSchedule, accrualEngine); err != nil {
		log.Fatal().Err(err).Msg("Failed to register accrual job")
	}
	sched.Start()

	// 7. HTTP API
	api := httpapi.NewServer(ledgerSvc, balanceGuard, aggregator, accrualEngine, log)
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	waitForShutdown(server, sched, log)
}

// waitForShutdown waits for SIGTERM or SIGINT and shuts everything down
// gracefully: stop taking requests, stop the scheduler, drain notifications.
func waitForShutdown(server *http.Server, sched *scheduler.Scheduler, log zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	sched.Stop()
	log.Info().Msg("Server stopped")
}
