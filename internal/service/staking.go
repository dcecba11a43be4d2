package service

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xODanny/BallnBallrz-Mint-App/internal/config"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/models"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/points"
	"github.com/0xODanny/BallnBallrz-Mint-App/pkg/errors"
	"github.com/0xODanny/BallnBallrz-Mint-App/pkg/logger"
)

// ChainReader 链上持仓读取
type ChainReader interface {
	TokenBalance(ctx context.Context, wallet string) (float64, error)
	NFTCount(ctx context.Context, wallet string) (int64, error)
}

// SnapshotStore 钱包积分快照存储
type SnapshotStore interface {
	Get(ctx context.Context, wallet string) (*models.StakingWallet, error)
	Enroll(ctx context.Context, wallet string, balance float64, nfts int64, now time.Time) (*models.StakingWallet, bool, error)
	// UpdateLocked 在排他锁下执行读改写，未登记返回(nil, nil)
	UpdateLocked(ctx context.Context, wallet string, fn func(*models.StakingWallet) error) (*models.StakingWallet, error)
}

// PointsLogStore 积分审计日志
type PointsLogStore interface {
	Append(ctx context.Context, entry *models.PointsLog) error
}

// NormalizeWallet 校验并小写归一化钱包地址
func NormalizeWallet(raw string) (string, error) {
	if !common.IsHexAddress(raw) {
		return "", errors.New(errors.ErrInvalidInput, "无效的钱包地址", nil)
	}
	return strings.ToLower(raw), nil
}

type EnrollResult struct {
	Wallet  string  `json:"wallet"`
	Created bool    `json:"created"`
	Points  float64 `json:"points"`
	Balance float64 `json:"bal"`
	NFTs    int64   `json:"nfts"`
}

type PointsStatus struct {
	Wallet         string  `json:"wallet"`
	Points         float64 `json:"points"`
	PerDay         float64 `json:"perDay"`
	Balance        float64 `json:"bal"`
	NFTs           int64   `json:"nfts"`
	Reset          bool    `json:"reset"`
	AppliedSeconds int64   `json:"lastAppliedSeconds"`
}

type StakingService struct {
	wallets     SnapshotStore
	pointsLog   PointsLogStore
	chain       ChainReader
	params      points.RateParams
	logInterval time.Duration
	locks       *WalletLocks
	now         func() time.Time
}

func NewStakingService(
	wallets SnapshotStore,
	pointsLog PointsLogStore,
	chain ChainReader,
	cfg *config.PointsConfig,
	locks *WalletLocks,
) *StakingService {
	return &StakingService{
		wallets:   wallets,
		pointsLog: pointsLog,
		chain:     chain,
		params: points.RateParams{
			BaseDaily:   cfg.BaseDailyPoints(),
			SpeedCap:    cfg.SpeedCap,
			PerNFTBoost: cfg.PerNFTBoost,
			MaxBoost:    cfg.MaxBoost,
		},
		logInterval: time.Duration(cfg.LogInterval) * time.Second,
		locks:       locks,
		now:         time.Now,
	}
}

// Enroll 登记钱包，以当前链上持仓作为积分起算基线
// 重复登记不清积分，只刷新余额与时间基线
func (s *StakingService) Enroll(ctx context.Context, rawWallet string) (*EnrollResult, error) {
	wallet, err := NormalizeWallet(rawWallet)
	if err != nil {
		return nil, err
	}

	balance, nfts, err := s.readHoldings(ctx, wallet)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(wallet)
	defer unlock()

	snap, created, err := s.wallets.Enroll(ctx, wallet, balance, nfts, s.now())
	if err != nil {
		return nil, errors.New(errors.ErrStoreWrite, "登记钱包失败", err)
	}

	logger.WithFields(map[string]interface{}{
		"wallet":  wallet,
		"created": created,
		"balance": balance,
		"nfts":    nfts,
	}).Info("钱包已登记")

	return &EnrollResult{
		Wallet:  wallet,
		Created: created,
		Points:  snap.LastPoints,
		Balance: balance,
		NFTs:    nfts,
	}, nil
}

// GetPoints 懒结算：用上一个快照的速率结算到当前时刻并落库新快照
// 持仓下降时积分清零；无论是否清零，本次观察值都会成为新基线
func (s *StakingService) GetPoints(ctx context.Context, rawWallet string) (*PointsStatus, error) {
	wallet, err := NormalizeWallet(rawWallet)
	if err != nil {
		return nil, err
	}

	balance, nfts, err := s.readHoldings(ctx, wallet)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(wallet)
	defer unlock()

	now := s.now()
	var res points.Result
	var prevBalance float64
	var prevNFTs int64

	snap, err := s.wallets.UpdateLocked(ctx, wallet, func(w *models.StakingWallet) error {
		prevBalance, prevNFTs = w.LastBalln, w.LastNFTs
		res = points.Accrue(s.params, points.Snapshot{
			Points:     w.LastPoints,
			LastUpdate: w.LastUpdate,
			Balance:    w.LastBalln,
			NFTs:       w.LastNFTs,
		}, points.Observation{Balance: balance, NFTs: nfts, Now: now})

		w.LastPoints = res.NewPoints
		w.LastBalln = balance
		w.LastNFTs = nfts
		// last_update 只前进不后退
		if now.After(w.LastUpdate) {
			w.LastUpdate = now
		}
		return nil
	})
	if err != nil {
		return nil, errors.New(errors.ErrStoreWrite, "更新积分快照失败", err)
	}
	if snap == nil {
		return nil, errors.New(errors.ErrNotEnrolled, "钱包未登记", nil)
	}

	if res.Reset || res.Elapsed >= s.logInterval.Seconds() {
		entry := &models.PointsLog{Wallet: wallet, Points: res.NewPoints, Reset: res.Reset}
		if err := s.pointsLog.Append(ctx, entry); err != nil {
			// 审计日志写失败不阻塞结算结果
			logger.WithError(err).WithFields(map[string]interface{}{
				"wallet": wallet,
			}).Warn("积分日志写入失败")
		}
	}

	if res.Reset {
		logger.WithFields(map[string]interface{}{
			"wallet":       wallet,
			"prev_balance": prevBalance,
			"prev_nfts":    prevNFTs,
			"balance":      balance,
			"nfts":         nfts,
		}).Info("持仓下降，积分已清零")
	}

	return &PointsStatus{
		Wallet:         wallet,
		Points:         res.NewPoints,
		PerDay:         s.params.DailyRate(balance, nfts),
		Balance:        balance,
		NFTs:           nfts,
		Reset:          res.Reset,
		AppliedSeconds: int64(res.Elapsed),
	}, nil
}

func (s *StakingService) readHoldings(ctx context.Context, wallet string) (float64, int64, error) {
	balance, err := s.chain.TokenBalance(ctx, wallet)
	if err != nil {
		return 0, 0, err
	}
	nfts, err := s.chain.NFTCount(ctx, wallet)
	if err != nil {
		return 0, 0, err
	}
	return balance, nfts, nil
}
