package trade

import (
	"context"
	"time"
	"web3-copytrade/internal/worker/model"
	"web3-copytrade/internal/worker/writer"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	RETRY_COUNT = 3
)

type DbTradeWriter struct {
	db *gorm.DB
	tl *zap.Logger
}

func NewDbTradeWriter(db *gorm.DB, tl *zap.Logger) writer.BatchWriter[model.TradeRecord] {
	return &DbTradeWriter{db: db, tl: tl}
}

func (w *DbTradeWriter) BWrite(ctx context.Context, records []model.TradeRecord) error {
	if len(records) == 0 {
		return nil
	}

	newCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	// 记录只追加，主键冲突说明已写入过
	var err error
	for attempt := 0; attempt < RETRY_COUNT; attempt++ {
		err = w.db.WithContext(newCtx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
			CreateInBatches(records, 100).Error
		if err == nil {
			break
		}
	}
	if err != nil {
		w.tl.Warn("❌ DB write failed, exceeded the maximum number of retries", zap.Int("records", len(records)), zap.Error(err))
		return err
	}
	return nil
}

func (w *DbTradeWriter) Close() error {
	return nil
}
