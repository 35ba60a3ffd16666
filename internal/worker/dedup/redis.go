package dedup

import (
	"context"
	"fmt"
	"time"
	"web3-copytrade/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisStore 基于 SETNX 的去重，多实例共享，过期后自动清理
type RedisStore struct {
	rds redis.UniversalClient
	ttl time.Duration
}

func NewRedisStore(rds redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{rds: rds, ttl: ttl}
}

func (s *RedisStore) MarkIfAbsent(ctx context.Context, txID string) (bool, error) {
	ok, err := s.rds.SetNX(ctx, utils.SeenTxKey(txID), 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", txID, err)
	}
	return ok, nil
}
