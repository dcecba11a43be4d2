package repository

import (
	"context"

	"github.com/0xODanny/BallnBallrz-Mint-App/internal/models"

	"gorm.io/gorm"
)

type PointsLogRepository struct {
	db *gorm.DB
}

func NewPointsLogRepository(db *gorm.DB) *PointsLogRepository {
	return &PointsLogRepository{db: db}
}

// Append 追加一条积分日志
func (r *PointsLogRepository) Append(ctx context.Context, entry *models.PointsLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// GetByWallet 分页获取指定钱包的积分日志，新记录在前
func (r *PointsLogRepository) GetByWallet(ctx context.Context, wallet string, offset, limit int) ([]models.PointsLog, error) {
	var entries []models.PointsLog
	err := r.db.WithContext(ctx).
		Where("wallet = ?", wallet).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// CountByWallet 返回指定钱包的日志条数
func (r *PointsLogRepository) CountByWallet(ctx context.Context, wallet string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PointsLog{}).
		Where("wallet = ?", wallet).
		Count(&count).Error
	return count, err
}
