package repository

import (
	"context"
	"errors"
	"time"

	"github.com/0xODanny/BallnBallrz-Mint-App/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Get 获取指定钱包的积分快照，未登记返回nil
func (r *WalletRepository) Get(ctx context.Context, wallet string) (*models.StakingWallet, error) {
	var snap models.StakingWallet
	err := r.db.WithContext(ctx).
		Where("wallet = ?", wallet).
		First(&snap).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Enroll 登记钱包快照
// 首次登记积分从0开始；已登记则只刷新余额和时间基线，保留已累积积分
// 依赖wallet唯一约束，并发登记同一钱包不会产生重复行
func (r *WalletRepository) Enroll(ctx context.Context, wallet string, balance float64, nfts int64, now time.Time) (*models.StakingWallet, bool, error) {
	existing, err := r.Get(ctx, wallet)
	if err != nil {
		return nil, false, err
	}

	snap := &models.StakingWallet{
		Wallet:     wallet,
		LastPoints: 0,
		LastUpdate: now,
		LastBalln:  balance,
		LastNFTs:   nfts,
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wallet"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_update": now,
			"last_balln":  balance,
			"last_nfts":   nfts,
		}),
	}).Create(snap).Error
	if err != nil {
		return nil, false, err
	}

	created := existing == nil
	if !created {
		snap.LastPoints = existing.LastPoints
	}
	return snap, created, nil
}

// UpdateLocked 在行级排他锁下执行读改写
// fn在SELECT ... FOR UPDATE持锁期间运行，返回错误则整个事务回滚
// 未登记的钱包返回(nil, nil)，不执行fn
func (r *WalletRepository) UpdateLocked(ctx context.Context, wallet string, fn func(*models.StakingWallet) error) (*models.StakingWallet, error) {
	var snap models.StakingWallet
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("wallet = ?", wallet).
			First(&snap).Error
		if err != nil {
			return err
		}

		if err := fn(&snap); err != nil {
			return err
		}

		return tx.Model(&models.StakingWallet{}).
			Where("wallet = ?", wallet).
			Updates(map[string]interface{}{
				"last_points": snap.LastPoints,
				"last_update": snap.LastUpdate,
				"last_balln":  snap.LastBalln,
				"last_nfts":   snap.LastNFTs,
			}).Error
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Count 返回已登记钱包数
func (r *WalletRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StakingWallet{}).
		Count(&count).Error
	return count, err
}

// SumPoints 返回全部未兑换积分之和
func (r *WalletRepository) SumPoints(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.StakingWallet{}).
		Select("COALESCE(SUM(last_points), 0)").
		Scan(&total).Error
	return total, err
}

// GetAll 获取全部钱包快照，备份任务使用
func (r *WalletRepository) GetAll(ctx context.Context) ([]models.StakingWallet, error) {
	var snaps []models.StakingWallet
	err := r.db.WithContext(ctx).
		Order("wallet ASC").
		Find(&snaps).Error
	return snaps, err
}
