package dao

import (
	"gorm.io/gorm"
)

// DAOManager 管理所有DAO实例
type DAOManager struct {
	WalletDAO   WalletDAO
	SettingsDAO SettingsDAO
	TradeDAO    TradeDAO
}

// NewDAOManager 创建DAO管理器实例，db 为空时返回 nil（不持久化）
func NewDAOManager(db *gorm.DB) *DAOManager {
	if db == nil {
		return nil
	}
	return &DAOManager{
		WalletDAO:   NewWalletDAO(db),
		SettingsDAO: NewSettingsDAO(db),
		TradeDAO:    NewTradeDAO(db),
	}
}
