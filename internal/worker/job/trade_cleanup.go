package job

import (
	"context"
	"time"
	"web3-copytrade/internal/worker/dao"

	"go.uber.org/zap"
)

// TradeCleanup 定时清理数据库中过期的跟单记录
type TradeCleanup struct {
	trades        dao.TradeDAO
	retentionDays int
	tl            *zap.Logger
	now           func() time.Time
}

func NewTradeCleanup(trades dao.TradeDAO, retentionDays int, logger *zap.Logger) *TradeCleanup {
	return &TradeCleanup{
		trades:        trades,
		retentionDays: retentionDays,
		tl:            logger,
		now:           time.Now,
	}
}

// Run 执行清理任务，未配置数据库或保留天数时跳过
func (j *TradeCleanup) Run(ctx context.Context) error {
	if j.trades == nil || j.retentionDays <= 0 {
		return nil
	}

	cutoff := j.now().AddDate(0, 0, -j.retentionDays)
	deleted, err := j.trades.DeleteBefore(ctx, cutoff)
	if err != nil {
		j.tl.Warn("Failed to cleanup old trade records",
			zap.Error(err),
			zap.Time("cutoff", cutoff))
		return err
	}

	j.tl.Info("Trade cleanup completed successfully",
		zap.Int64("deleted_rows", deleted),
		zap.Time("cutoff", cutoff))
	return nil
}
