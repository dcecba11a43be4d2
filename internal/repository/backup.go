package repository

import (
	"context"
	"time"

	"github.com/0xODanny/BallnBallrz-Mint-App/internal/models"

	"gorm.io/gorm"
)

type BackupRepository struct {
	db *gorm.DB
}

func NewBackupRepository(db *gorm.DB) *BackupRepository {
	return &BackupRepository{db: db}
}

func (r *BackupRepository) Create(ctx context.Context, backup *models.WalletBackup) error {
	return r.db.WithContext(ctx).Create(backup).Error
}

// PruneBefore 删除指定时间之前的备份
func (r *BackupRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.WalletBackup{})
	return result.RowsAffected, result.Error
}

// GetLatest 获取最近的若干备份
func (r *BackupRepository) GetLatest(ctx context.Context, limit int) ([]models.WalletBackup, error) {
	var backups []models.WalletBackup
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&backups).Error
	return backups, err
}
