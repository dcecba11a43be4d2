package models

import (
	"time"
)

// PointsLog 积分审计日志，只追加不修改
// 重置事件必记，常规累积最多每个日志间隔写一条以控制写入量
type PointsLog struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Wallet    string    `gorm:"size:42;not null;index:idx_wallet_time" json:"wallet"`
	Points    float64   `gorm:"type:numeric(20,6);not null" json:"points"`
	Reset     bool      `gorm:"not null;default:false" json:"reset"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_wallet_time" json:"created_at"`
}

func (PointsLog) TableName() string {
	return "balln_points_log"
}
