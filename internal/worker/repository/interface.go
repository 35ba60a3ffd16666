package repository

import (
	"web3-copytrade/pkg/elasticsearch"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

type RedisClient = *redis.Client
type DBClient = *gorm.DB
type MQClient = *kafka.Writer

// Repository 共享外部客户端；除 solana rpc 外都是可选的，未配置时返回 nil
type Repository interface {
	GetRDB() RedisClient
	GetDB() DBClient
	GetMQ() MQClient
	GetES() *elasticsearch.Client
	GetSolanaClient() *rpc.Client
	Close() error
}
