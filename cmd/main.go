package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xODanny/BallnBallrz-Mint-App/internal/blockchain"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/config"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/handler"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/models"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/repository"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/scheduler"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/service"
	"github.com/0xODanny/BallnBallrz-Mint-App/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
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

	chainClient, err := blockchain.NewClient(&cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to create chain client:", err)
	}
	defer chainClient.Close()

	minter, err := blockchain.NewMinter(&cfg.Chain, chainClient)
	if err != nil {
		logger.Fatal("Failed to create minter:", err)
	}

	walletRepo := repository.NewWalletRepository(db)
	pointsLogRepo := repository.NewPointsLogRepository(db)
	redemptionRepo := repository.NewRedemptionRepository(db)
	backupRepo := repository.NewBackupRepository(db)

	locks := service.NewWalletLocks()
	stakingSvc := service.NewStakingService(walletRepo, pointsLogRepo, chainClient, &cfg.Points, locks)
	redeemSvc := service.NewRedeemService(walletRepo, redemptionRepo, minter, &cfg.Points, locks)

	if cfg.Backup.Enabled {
		backupScheduler := scheduler.NewBackupScheduler(walletRepo, backupRepo, &cfg.Backup)
		if err := backupScheduler.Start(); err != nil {
			logger.Fatal("Failed to start backup scheduler:", err)
		}
		defer backupScheduler.Stop()
	}

	router := setupHTTPRouter(stakingSvc, redeemSvc, chainClient, walletRepo, pointsLogRepo, redemptionRepo)

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
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.StakingWallet{},
		&models.PointsLog{},
		&models.Redemption{},
		&models.WalletBackup{},
	); err != nil {
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
	stakingSvc *service.StakingService,
	redeemSvc *service.RedeemService,
	chainClient *blockchain.Client,
	walletRepo *repository.WalletRepository,
	pointsLogRepo *repository.PointsLogRepository,
	redemptionRepo *repository.RedemptionRepository,
) http.Handler {
	router := http.NewServeMux()

	stakingHandler := handler.NewStakingHandler(stakingSvc)
	redeemHandler := handler.NewRedeemHandler(redeemSvc)
	historyHandler := handler.NewHistoryHandler(pointsLogRepo, redemptionRepo)
	statsHandler := handler.NewStatsHandler(walletRepo, redemptionRepo)
	tokenURIHandler := handler.NewTokenURIHandler(chainClient)

	router.HandleFunc("/api/staking/enroll", stakingHandler.Enroll)
	router.HandleFunc("/api/staking/points/", stakingHandler.GetPoints)
	router.HandleFunc("/api/staking/redeem", redeemHandler.Redeem)
	router.HandleFunc("/api/staking/history/", historyHandler.GetPointsHistory)
	router.HandleFunc("/api/staking/redemptions/", historyHandler.GetRedemptions)
	router.HandleFunc("/api/staking/stats", statsHandler.GetStats)
	router.HandleFunc("/api/staking/tokenuri", tokenURIHandler.GetTokenURI)
	router.HandleFunc("/health", handler.HandleHealth)

	return router
}
