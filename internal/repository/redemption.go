package repository

import (
	"context"

	"github.com/0xODanny/BallnBallrz-Mint-App/internal/models"

	"gorm.io/gorm"
)

type RedemptionRepository struct {
	db *gorm.DB
}

func NewRedemptionRepository(db *gorm.DB) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

// Append 记录一次成功兑换
func (r *RedemptionRepository) Append(ctx context.Context, rec *models.Redemption) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// GetByWallet 获取指定钱包的兑换记录，新记录在前
func (r *RedemptionRepository) GetByWallet(ctx context.Context, wallet string, limit int) ([]models.Redemption, error) {
	var recs []models.Redemption
	query := r.db.WithContext(ctx).
		Where("wallet = ?", wallet).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&recs).Error
	return recs, err
}

// Count 返回兑换总次数
func (r *RedemptionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Redemption{}).
		Count(&count).Error
	return count, err
}
