package dao

import (
	"context"
	"time"
	"web3-copytrade/internal/worker/model"
)

// TradeDAO 跟单记录查询与清理，写入走 writer/trade
type TradeDAO interface {
	// Recent 最近 limit 条，时间倒序
	Recent(ctx context.Context, limit int) ([]model.TradeRecord, error)

	// DeleteBefore 删除早于 cutoff 的记录，返回删除条数
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
