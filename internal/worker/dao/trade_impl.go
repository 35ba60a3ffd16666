package dao

import (
	"context"
	"time"
	"web3-copytrade/internal/worker/model"

	"gorm.io/gorm"
)

type tradeDAO struct {
	db *gorm.DB
}

func NewTradeDAO(db *gorm.DB) TradeDAO {
	return &tradeDAO{db: db}
}

func (t *tradeDAO) Recent(ctx context.Context, limit int) ([]model.TradeRecord, error) {
	if limit <= 0 {
		limit = -1 // 不限制
	}
	var records []model.TradeRecord
	err := t.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (t *tradeDAO) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := t.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&model.TradeRecord{})
	return result.RowsAffected, result.Error
}
