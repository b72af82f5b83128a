package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/chain"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/config"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/handler"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/repository"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/scheduler"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/service"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/logger"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	db, err := initDatabase(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer closeDatabase(db)

	client, err := chain.NewClient(&cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to create chain client:", err)
	}
	defer client.Close()

	rewardRepo := repository.NewRewardRepository(db)
	safeRepo := repository.NewSafeRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	distributionRepo := repository.NewDistributionRepository(db)
	metricsRepo := repository.NewMetricsRepository(db)

	batcher := chain.NewBatcher(client, cfg.Chain.MulticallAddress)
	verifier := chain.NewSafeVerifier(client)
	ogChecker := chain.NewOgNftChecker(batcher, cfg.Chain.OgNftAddress)
	balanceReader := chain.NewGnoBalanceReader(batcher, cfg.Chain.GnoTokenAddress)

	snapshotSvc := service.NewSnapshotService(db, balanceReader, snapshotRepo, rewardRepo)
	rewardSvc := service.NewRewardService(db, rewardRepo, safeRepo, txRepo, snapshotRepo, metricsRepo, verifier, ogChecker, snapshotSvc)

	snapshotScheduler := scheduler.NewSnapshotScheduler(rewardSvc, snapshotSvc, safeRepo, cfg.Snapshot.Cron)
	if err := snapshotScheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler:", err)
	}
	defer snapshotScheduler.Stop()

	router := setupHTTPRouter(rewardSvc, snapshotRepo, txRepo, distributionRepo, metricsRepo)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting on port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error:", err)
	}

	logger.Info("Server stopped")
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	return db, nil
}

func closeDatabase(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get database instance:", err)
		return
	}
	sqlDB.Close()
}

func setupHTTPRouter(
	rewardSvc *service.RewardService,
	snapshotRepo *repository.SnapshotRepository,
	txRepo *repository.TransactionRepository,
	distributionRepo *repository.DistributionRepository,
	metricsRepo *repository.MetricsRepository,
) http.Handler {
	router := http.NewServeMux()

	statusHandler := handler.NewStatusHandler(snapshotRepo)
	cashbackHandler := handler.NewCashbackHandler(rewardSvc)
	weekHandler := handler.NewWeekSnapshotHandler(rewardSvc, metricsRepo)
	distributionHandler := handler.NewDistributionHandler(distributionRepo)
	txHandler := handler.NewTransactionHandler(txRepo)

	router.HandleFunc("/health", handler.HandleHealth)
	router.HandleFunc("/status", statusHandler.GetStatus)
	router.HandleFunc("/api/cashbacks/", cashbackHandler.GetCashback)
	router.HandleFunc("/api/week-snapshots/", weekHandler.GetWeekSnapshots)
	router.HandleFunc("/api/weeks", weekHandler.GetWeeks)
	router.HandleFunc("/api/distributions/", distributionHandler.GetDistributions)
	router.HandleFunc("/api/transactions/", txHandler.GetTransactions)

	return router
}
