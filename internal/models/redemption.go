package models

import (
	"time"
)

// Redemption 兑换成功记录，只追加不修改
// TokenID 来自Transfer事件解析，解析失败时为空
type Redemption struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Wallet     string    `gorm:"size:42;not null;index" json:"wallet"`
	CostPoints float64   `gorm:"type:numeric(20,6);not null" json:"cost_points"`
	TxHash     string    `gorm:"size:66;not null" json:"tx_hash"`
	TokenID    *string   `gorm:"size:78" json:"token_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Redemption) TableName() string {
	return "balln_redemptions"
}
