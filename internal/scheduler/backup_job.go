package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/0xODanny/BallnBallrz-Mint-App/internal/config"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/models"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/repository"
	"github.com/0xODanny/BallnBallrz-Mint-App/pkg/logger"
)

// BackupScheduler 每日备份钱包快照表并清理过期备份
// 积分结算本身是懒式的，这里只负责备份，不做任何积分计算
type BackupScheduler struct {
	cron       *cron.Cron
	walletRepo *repository.WalletRepository
	backupRepo *repository.BackupRepository
	cfg        *config.BackupConfig
}

func NewBackupScheduler(
	walletRepo *repository.WalletRepository,
	backupRepo *repository.BackupRepository,
	cfg *config.BackupConfig,
) *BackupScheduler {
	return &BackupScheduler{
		cron:       cron.New(cron.WithSeconds()),
		walletRepo: walletRepo,
		backupRepo: backupRepo,
		cfg:        cfg,
	}
}

func (s *BackupScheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.Cron, s.runBackup)
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("Wallet backup scheduler started")
	return nil
}

func (s *BackupScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Wallet backup scheduler stopped")
}

func (s *BackupScheduler) runBackup() {
	ctx := context.Background()

	if err := s.RunOnce(ctx); err != nil {
		logger.Error("Wallet backup failed:", err)
	}
}

// RunOnce 执行一次备份与清理
func (s *BackupScheduler) RunOnce(ctx context.Context) error {
	snaps, err := s.walletRepo.GetAll(ctx)
	if err != nil {
		return err
	}

	wallets := make([]map[string]interface{}, 0, len(snaps))
	for _, snap := range snaps {
		wallets = append(wallets, map[string]interface{}{
			"wallet":      snap.Wallet,
			"last_points": snap.LastPoints,
			"last_update": snap.LastUpdate,
			"last_balln":  snap.LastBalln,
			"last_nfts":   snap.LastNFTs,
		})
	}

	backup := &models.WalletBackup{
		BackupData: models.JSONB{"wallets": wallets},
		Wallets:    int64(len(snaps)),
	}
	if err := s.backupRepo.Create(ctx, backup); err != nil {
		return err
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	pruned, err := s.backupRepo.PruneBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"wallets": len(snaps),
		"pruned":  pruned,
	}).Info("钱包快照备份完成")

	return nil
}
