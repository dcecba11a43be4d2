package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, j)
}

// WalletBackup 钱包快照表的每日备份
type WalletBackup struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	BackupData JSONB     `gorm:"type:json;not null" json:"backup_data"`
	Wallets    int64     `gorm:"not null" json:"wallets"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (WalletBackup) TableName() string {
	return "balln_wallet_backups"
}
