package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/0xODanny/BallnBallrz-Mint-App/internal/blockchain"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/config"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/models"
	"github.com/0xODanny/BallnBallrz-Mint-App/pkg/errors"
	"github.com/0xODanny/BallnBallrz-Mint-App/pkg/logger"
)

// Minter 外部铸造协作方
type Minter interface {
	Mint(ctx context.Context, wallet string) (*blockchain.MintResult, error)
}

// RedemptionStore 兑换成功记录
type RedemptionStore interface {
	Append(ctx context.Context, rec *models.Redemption) error
}

type RedeemResult struct {
	Wallet  string  `json:"wallet"`
	TxHash  string  `json:"txHash"`
	TokenID *string `json:"tokenId"`
	Points  float64 `json:"points"`
	Cost    float64 `json:"cost"`
}

// errInsufficient 扣减闭包内部信号，触发事务回滚
var errInsufficient = stderrors.New("insufficient points")

// RedeemService 兑换协议：先扣积分再铸造，铸造失败退还积分
// 整个 加锁->扣减->铸造->记录/补偿 区间持有钱包级互斥，
// 与积分结算共用同一组锁，兑换期间不会有并发的快照写入
type RedeemService struct {
	wallets     SnapshotStore
	redemptions RedemptionStore
	minter      Minter
	cost        float64
	locks       *WalletLocks
	now         func() time.Time
}

func NewRedeemService(
	wallets SnapshotStore,
	redemptions RedemptionStore,
	minter Minter,
	cfg *config.PointsConfig,
	locks *WalletLocks,
) *RedeemService {
	return &RedeemService{
		wallets:     wallets,
		redemptions: redemptions,
		minter:      minter,
		cost:        cfg.RedeemCost,
		locks:       locks,
		now:         time.Now,
	}
}

// Redeem 用积分兑换一次铸造
// 扣减先于铸造落库；铸造失败时尽力补偿退还积分，补偿失败是独立的
// 严重错误类，必须人工对账。协议不幂等：失败后重试会再次扣减
func (s *RedeemService) Redeem(ctx context.Context, rawWallet string) (*RedeemResult, error) {
	wallet, err := NormalizeWallet(rawWallet)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(wallet)
	defer unlock()

	now := s.now()
	var currentPoints float64

	snap, err := s.wallets.UpdateLocked(ctx, wallet, func(w *models.StakingWallet) error {
		currentPoints = w.LastPoints
		if w.LastPoints < s.cost {
			return errInsufficient
		}
		w.LastPoints -= s.cost
		if now.After(w.LastUpdate) {
			w.LastUpdate = now
		}
		return nil
	})
	if stderrors.Is(err, errInsufficient) {
		return nil, errors.New(errors.ErrInsufficientPoints,
			fmt.Sprintf("积分不足: 当前%.2f，需要%.0f", currentPoints, s.cost), nil)
	}
	if err != nil {
		return nil, errors.New(errors.ErrStoreWrite, "扣减积分失败", err)
	}
	if snap == nil {
		return nil, errors.New(errors.ErrNotEnrolled, "钱包未登记", nil)
	}

	// 扣减已提交。此后即使请求被取消，补偿也必须在服务端执行完，
	// 所以后续写操作一律脱离请求取消信号
	detached := context.WithoutCancel(ctx)

	result, mintErr := s.minter.Mint(ctx, wallet)
	if mintErr != nil {
		return nil, s.compensate(detached, wallet, currentPoints, mintErr)
	}

	rec := &models.Redemption{
		Wallet:     wallet,
		CostPoints: s.cost,
		TxHash:     result.TxHash,
		TokenID:    result.TokenID,
	}
	if err := s.redemptions.Append(detached, rec); err != nil {
		// 铸造已成功且积分已扣，记录缺失只影响审计
		logger.WithError(err).WithFields(map[string]interface{}{
			"wallet":  wallet,
			"tx_hash": result.TxHash,
		}).Error("兑换记录写入失败")
	}

	logger.WithFields(map[string]interface{}{
		"wallet":   wallet,
		"tx_hash":  result.TxHash,
		"token_id": result.TokenID,
		"cost":     s.cost,
	}).Info("兑换成功")

	return &RedeemResult{
		Wallet:  wallet,
		TxHash:  result.TxHash,
		TokenID: result.TokenID,
		Points:  snap.LastPoints,
		Cost:    s.cost,
	}, nil
}

// compensate 铸造失败后退还已扣积分
// 补偿写入失败时账户处于不一致状态，升级为CRITICAL_INCONSISTENCY
func (s *RedeemService) compensate(ctx context.Context, wallet string, pointsBefore float64, mintErr error) error {
	now := s.now()
	snap, err := s.wallets.UpdateLocked(ctx, wallet, func(w *models.StakingWallet) error {
		w.LastPoints += s.cost
		if now.After(w.LastUpdate) {
			w.LastUpdate = now
		}
		return nil
	})
	if err != nil || snap == nil {
		logger.WithError(err).WithFields(map[string]interface{}{
			"wallet":        wallet,
			"points_before": pointsBefore,
			"cost":          s.cost,
			"mint_error":    mintErr.Error(),
		}).Error("积分补偿失败，账户状态不一致，需要人工对账")
		return errors.New(errors.ErrCriticalInconsistency,
			"铸造失败且积分补偿失败，账户需要人工对账", err)
	}

	logger.WithError(mintErr).WithFields(map[string]interface{}{
		"wallet": wallet,
		"points": snap.LastPoints,
	}).Warn("铸造失败，积分已退还")

	return errors.New(errors.ErrRedemptionFailed, "铸造失败，积分已退还", mintErr)
}
