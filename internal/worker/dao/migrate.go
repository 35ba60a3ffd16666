package dao

import (
	"web3-copytrade/internal/worker/model"

	"gorm.io/gorm"
)

// AutoMigrate 建 schema 与表
func AutoMigrate(db *gorm.DB) error {
	if err := db.Exec("CREATE SCHEMA IF NOT EXISTS copytrade").Error; err != nil {
		return err
	}
	return db.AutoMigrate(
		&model.TrackedWallet{},
		&model.BotSettingsRow{},
		&model.TradeRecord{},
	)
}
