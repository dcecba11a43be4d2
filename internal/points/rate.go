package points

// RateParams 积分速率模型参数
type RateParams struct {
	// BaseDaily 满速日积分（兑换阈值/目标天数）
	BaseDaily float64
	// SpeedCap 达到满速所需的代币余额
	SpeedCap float64
	// PerNFTBoost 每个NFT的加成比例
	PerNFTBoost float64
	// MaxBoost 加成上限
	MaxBoost float64
}

// DefaultRateParams 线上参数：3333/28 ≈ 119.0357/天，1000枚满速，
// 每个NFT加成0.5%，上限25%
func DefaultRateParams() RateParams {
	return RateParams{
		BaseDaily:   3333.0 / 28.0,
		SpeedCap:    1000,
		PerNFTBoost: 0.005,
		MaxBoost:    0.25,
	}
}

// SpeedFactor 余额对应的速率系数，线性爬升到SpeedCap后恒为1
func (p RateParams) SpeedFactor(balance float64) float64 {
	if balance <= 0 || p.SpeedCap <= 0 {
		return 0
	}
	if balance >= p.SpeedCap {
		return 1
	}
	return balance / p.SpeedCap
}

// BoostFactor NFT持仓对应的加成系数，1.0起步线性加成到上限
func (p RateParams) BoostFactor(nfts int64) float64 {
	if nfts <= 0 {
		return 1
	}
	boost := float64(nfts) * p.PerNFTBoost
	if boost > p.MaxBoost {
		boost = p.MaxBoost
	}
	return 1 + boost
}

// DailyRate 当前持仓下的日积分速率
func (p RateParams) DailyRate(balance float64, nfts int64) float64 {
	return p.BaseDaily * p.SpeedFactor(balance) * p.BoostFactor(nfts)
}
