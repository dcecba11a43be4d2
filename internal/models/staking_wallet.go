package models

import (
	"time"
)

// StakingWallet 每个参与钱包一行的积分快照
// wallet 为小写归一化地址，唯一键
type StakingWallet struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Wallet     string    `gorm:"uniqueIndex:uk_wallet;size:42;not null" json:"wallet"`
	LastPoints float64   `gorm:"type:numeric(20,6);not null;default:0" json:"last_points"`
	LastUpdate time.Time `gorm:"not null" json:"last_update"`
	LastBalln  float64   `gorm:"type:numeric(30,8);not null;default:0" json:"last_balln"`
	LastNFTs   int64     `gorm:"not null;default:0" json:"last_nfts"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (StakingWallet) TableName() string {
	return "balln_staking_wallets"
}
