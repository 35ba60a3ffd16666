package model

import "time"

// TrackedWallet 被跟单的源钱包
type TrackedWallet struct {
	ID        int64     `gorm:"primaryKey" json:"-"`
	Address   string    `gorm:"column:address;type:varchar(64);not null;uniqueIndex" json:"address"`
	Label     string    `gorm:"column:label;type:varchar(128)" json:"label,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

func (w *TrackedWallet) TableName() string {
	return "copytrade.t_tracked_wallet"
}
