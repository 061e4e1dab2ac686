package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ndewijer/Property-Investment-Backend/internal/api"
	"github.com/ndewijer/Property-Investment-Backend/internal/config"
	"github.com/ndewijer/Property-Investment-Backend/internal/crypto"
	"github.com/ndewijer/Property-Investment-Backend/internal/database"
	"github.com/ndewijer/Property-Investment-Backend/internal/escrow"
	"github.com/ndewijer/Property-Investment-Backend/internal/logger"
	"github.com/ndewijer/Property-Investment-Backend/internal/metrics"
	"github.com/ndewijer/Property-Investment-Backend/internal/repository"
	"github.com/ndewijer/Property-Investment-Backend/internal/scheduler"
	"github.com/ndewijer/Property-Investment-Backend/internal/service"
	"github.com/ndewijer/Property-Investment-Backend/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Fatalw("failed to load configuration", "error", err)
	}

	logger.Init(cfg.Log.Env)
	log := logger.Get()
	defer logger.Sync()

	// Open database connection and bring the schema up to date
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalw("failed to open database", "path", cfg.Database.Path, "error", err)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.Log.Env != "production"); err != nil {
		log.Fatalw("failed to migrate database", "error", err)
	}

	log.Infow("connected to database", "path", cfg.Database.Path, "version", version.Version)

	sealer, err := newSealer(cfg.Escrow)
	if err != nil {
		log.Fatalw("failed to initialise contact sealer", "error", err)
	}

	// Create repositories
	propertyRepo := repository.NewPropertyRepository(db)
	investmentPropertyRepo := repository.NewInvestmentPropertyRepository(db)
	userInvestmentRepo := repository.NewUserInvestmentRepository(db)
	valueHistoryRepo := repository.NewValueHistoryRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	escrowRepo := repository.NewEscrowRepository(db, sealer)

	m := metrics.New()

	// Create services
	investmentService := service.NewInvestmentService(
		db,
		propertyRepo,
		investmentPropertyRepo,
		userInvestmentRepo,
		valueHistoryRepo,
		saleRepo,
		m,
		cfg.Investment.EnforceShareCap,
	)
	portfolioService := service.NewPortfolioService(
		userInvestmentRepo,
		valueHistoryRepo,
		saleRepo,
		investmentPropertyRepo,
	)
	escrowService := service.NewEscrowService(
		db,
		escrowRepo,
		escrow.NewMachine(escrow.Policy{
			FeeRate:          cfg.Escrow.FeeRate,
			InspectionWindow: cfg.Escrow.InspectionWindow,
		}),
		m,
	)
	systemService := service.NewSystemService(db, map[string]bool{
		"escrow":              true,
		"fixed_appreciation":  cfg.Scheduler.AppreciationSchedule != "",
		"escrow_auto_release": cfg.Scheduler.EscrowReleaseSchedule != "",
		"share_cap":           cfg.Investment.EnforceShareCap,
	})

	// Background jobs
	jobs, err := scheduler.New(scheduler.Config{
		AppreciationSchedule:  cfg.Scheduler.AppreciationSchedule,
		EscrowReleaseSchedule: cfg.Scheduler.EscrowReleaseSchedule,
	}, investmentService, escrowService, m)
	if err != nil {
		log.Fatalw("failed to configure scheduler", "error", err)
	}
	jobs.Start()

	router := api.NewRouter(api.Services{
		System:     systemService,
		Investment: investmentService,
		Portfolio:  portfolioService,
		Escrow:     escrowService,
	}, m, cfg)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("starting server", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	jobs.Stop(ctx)

	log.Info("server exited")
}

// newSealer returns a sealer for the configured key. Without a key it loads
// or creates the key file, and only an in-memory database falls back to an
// ephemeral key.
func newSealer(cfg config.EscrowConfig) (*crypto.Sealer, error) {
	switch {
	case cfg.ContactKey != "":
		return crypto.New(cfg.ContactKey)
	case cfg.ContactKeyFile != "":
		logger.Get().Infow("using escrow contact key file", "path", cfg.ContactKeyFile)
		return crypto.LoadOrCreate(cfg.ContactKeyFile)
	default:
		logger.Get().Warnw("no escrow contact key configured, using an ephemeral key")
		return crypto.NewEphemeral()
	}
}
