package trade

import (
	"context"
	"time"
	"web3-copytrade/internal/worker/model"
	"web3-copytrade/internal/worker/writer"
	"web3-copytrade/pkg/utils"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	LatestTradesLimit = 50
	latestTradesTTL   = 7 * 24 * time.Hour
)

// RedisTradeWriter 维护最近跟单记录 zset（全局 + 按源钱包），供看板读取
type RedisTradeWriter struct {
	rds redis.UniversalClient
	tl  *zap.Logger
}

func NewRedisTradeWriter(rds redis.UniversalClient, tl *zap.Logger) writer.BatchWriter[model.TradeRecord] {
	return &RedisTradeWriter{rds: rds, tl: tl}
}

func (w *RedisTradeWriter) BWrite(ctx context.Context, records []model.TradeRecord) error {
	if len(records) == 0 {
		return nil
	}

	touched := make(map[string]struct{})
	pipe := w.rds.Pipeline()
	for _, rec := range records {
		member, err := sonic.MarshalString(rec)
		if err != nil {
			w.tl.Warn("Marshal trade record failed", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		z := redis.Z{Score: float64(rec.Timestamp.UnixMilli()), Member: member}
		pipe.ZAdd(ctx, utils.LatestTradesKey(), z)
		walletKey := utils.WalletTradesKey(rec.SourceWallet)
		pipe.ZAdd(ctx, walletKey, z)
		touched[walletKey] = struct{}{}
	}
	touched[utils.LatestTradesKey()] = struct{}{}

	for key := range touched {
		// 只保留分数最高的 N 条
		pipe.ZRemRangeByRank(ctx, key, 0, -LatestTradesLimit-1)
		pipe.Expire(ctx, key, latestTradesTTL)
	}

	newCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := pipe.Exec(newCtx)
	return err
}

func (w *RedisTradeWriter) Close() error {
	return nil
}
