package dao

import (
	"context"
	"web3-copytrade/internal/worker/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// walletDAO 实现WalletDAO接口
type walletDAO struct {
	db *gorm.DB
}

// NewWalletDAO 创建WalletDAO实例
func NewWalletDAO(db *gorm.DB) WalletDAO {
	return &walletDAO{db: db}
}

func (w *walletDAO) List(ctx context.Context) ([]model.TrackedWallet, error) {
	var wallets []model.TrackedWallet
	err := w.db.WithContext(ctx).Order("id ASC").Find(&wallets).Error
	return wallets, err
}

func (w *walletDAO) Create(ctx context.Context, wallet *model.TrackedWallet) error {
	return w.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "address"}}, DoNothing: true}).
		Create(wallet).Error
}

func (w *walletDAO) DeleteByAddress(ctx context.Context, address string) error {
	return w.db.WithContext(ctx).
		Where("address = ?", address).
		Delete(&model.TrackedWallet{}).Error
}
