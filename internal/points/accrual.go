package points

import (
	"time"
)

const secondsPerDay = 86400

// Snapshot 上次落库的账户状态
type Snapshot struct {
	Points     float64
	LastUpdate time.Time
	Balance    float64
	NFTs       int64
}

// Observation 本次观察到的链上持仓
type Observation struct {
	Balance float64
	NFTs    int64
	Now     time.Time
}

// Result 一次累积计算的结果
type Result struct {
	// NewPoints 累积后的积分总数
	NewPoints float64
	// Earned 本区间新增积分（重置时为0）
	Earned float64
	// Reset 持仓下降触发清零
	Reset bool
	// Elapsed 实际计入的区间秒数
	Elapsed float64
}

// Accrue 按上一个快照的速率结算区间积分
// 速率取区间起点的持仓，持仓在区间内任一项下降则积分清零
func Accrue(p RateParams, snap Snapshot, obs Observation) Result {
	elapsed := obs.Now.Sub(snap.LastUpdate).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	if obs.Balance < snap.Balance || obs.NFTs < snap.NFTs {
		return Result{NewPoints: 0, Earned: 0, Reset: true, Elapsed: elapsed}
	}

	if elapsed == 0 {
		return Result{NewPoints: snap.Points, Elapsed: 0}
	}

	earned := p.DailyRate(snap.Balance, snap.NFTs) * elapsed / secondsPerDay
	return Result{
		NewPoints: snap.Points + earned,
		Earned:    earned,
		Elapsed:   elapsed,
	}
}
