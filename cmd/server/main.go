package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/hbeck/ledgersync/internal/adapter/connector/simplefin"
	"github.com/hbeck/ledgersync/internal/adapter/connector/splitwise"
	httpAdapter "github.com/hbeck/ledgersync/internal/adapter/http"
	"github.com/hbeck/ledgersync/internal/adapter/http/handler"
	"github.com/hbeck/ledgersync/internal/adapter/http/middleware"
	postgresRepo "github.com/hbeck/ledgersync/internal/adapter/repository/postgres"
	redisRepo "github.com/hbeck/ledgersync/internal/adapter/repository/redis"
	"github.com/hbeck/ledgersync/internal/infrastructure/config"
	"github.com/hbeck/ledgersync/internal/infrastructure/logger"
	"github.com/hbeck/ledgersync/internal/infrastructure/metrics"
	"github.com/hbeck/ledgersync/internal/infrastructure/postgres"
	"github.com/hbeck/ledgersync/internal/infrastructure/redis"
	"github.com/hbeck/ledgersync/internal/usecase"
)

func main() {
	// A local .env is optional; real deployments set the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	ruleRepo := postgresRepo.NewRuleRepository(pool)
	syncLocker := redisRepo.NewSyncLocker(redisClient)

	// Initialize connectors
	splitwiseClient := splitwise.NewClient(cfg.SplitwiseAPIKey, "", appLogger)
	simplefinClient := simplefin.NewClient(cfg.SimpleFINAccessURL, appLogger)

	engineMetrics := metrics.New()

	// Initialize use cases
	importUC := usecase.NewImportUseCase(transactionRepo, accountRepo, engineMetrics, appLogger)
	syncUC := usecase.NewSyncUseCase(importUC, accountRepo, ruleRepo, splitwiseClient, simplefinClient, syncLocker, engineMetrics, appLogger)
	reconcileUC := usecase.NewReconcileUseCase(txManager, transactionRepo, cfg.MatchKeywords, engineMetrics, appLogger).
		WithRetrier(postgresRepo.NewRetrier(appLogger))
	maintenanceUC := usecase.NewMaintenanceUseCase(transactionRepo, appLogger)
	accountUC := usecase.NewAccountUseCase(accountRepo)
	exportUC := usecase.NewExportUseCase(transactionRepo, accountRepo, cfg.ExportDir, appLogger)

	// Initialize handlers
	transactionHandler := handler.NewTransactionHandler(transactionRepo, maintenanceUC)
	accountHandler := handler.NewAccountHandler(accountUC)
	syncHandler := handler.NewSyncHandler(syncUC, reconcileUC, exportUC, cfg.BankWindowDays, cfg.ToleranceDays, cfg.BackfillDays)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		TransactionHandler: transactionHandler,
		AccountHandler:     accountHandler,
		SyncHandler:        syncHandler,
		HealthHandler:      healthHandler,
		RateLimiter:        middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
