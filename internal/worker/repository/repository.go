package repository

import (
	"context"
	"fmt"
	"strings"
	"time"
	"web3-copytrade/internal/worker/config"
	"web3-copytrade/internal/worker/writer/trade"
	"web3-copytrade/pkg/database"
	"web3-copytrade/pkg/elasticsearch"
	"web3-copytrade/pkg/solana_client"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func New(cfg config.Config, logger *zap.Logger) (Repository, error) {
	r := &repositoryImpl{
		cfg:    cfg,
		logger: logger,
	}
	if err := r.init(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

type repositoryImpl struct {
	cfg          config.Config
	logger       *zap.Logger
	db           *gorm.DB
	rdb          *redis.Client
	mq           *kafka.Writer
	es           *elasticsearch.Client
	solanaClient *rpc.Client
}

func (r *repositoryImpl) init() error {
	var err error

	if strings.TrimSpace(r.cfg.Postgres.DSN) != "" {
		r.db, err = database.InitPG(r.cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("init postgres: %w", err)
		}
	} else {
		r.logger.Info("postgres dsn empty, skip database initialization")
	}

	if strings.TrimSpace(r.cfg.Redis.Address) != "" {
		r.rdb = redis.NewClient(&redis.Options{
			Addr:     r.cfg.Redis.Address,
			Password: r.cfg.Redis.Password,
			DB:       r.cfg.Redis.DB,
			PoolSize: 20,
		})
		if err := r.rdb.Ping(context.Background()).Err(); err != nil {
			r.logger.Warn("failed to connect to redis, continue", zap.Error(err))
		}
	}

	if strings.TrimSpace(r.cfg.Kafka.Brokers) != "" {
		brokers := strings.Split(r.cfg.Kafka.Brokers, ",")
		r.mq = &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			BatchSize:    100,
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
			Compression:  kafka.Snappy,
			MaxAttempts:  5,
			WriteTimeout: 2 * time.Second,
		}
	}

	if len(r.cfg.Elasticsearch.Addresses) > 0 {
		r.es, err = elasticsearch.NewClient(elasticsearch.Config{
			Addresses: r.cfg.Elasticsearch.Addresses,
			Username:  r.cfg.Elasticsearch.Username,
			Password:  r.cfg.Elasticsearch.Password,
			Indexs: map[string]map[string]interface{}{
				r.cfg.Elasticsearch.TradesIndexName: trade.TradeIndexMapping,
			},
		}, r.logger)
		if err != nil {
			r.logger.Warn("failed to init elasticsearch, continue without it", zap.Error(err))
			r.es = nil
		}
	}

	// 初始化rpc client
	r.solanaClient = solana_client.Init(r.cfg.Solana.RpcURL)
	return nil
}

func (r *repositoryImpl) GetRDB() *redis.Client {
	return r.rdb
}

func (r *repositoryImpl) GetDB() *gorm.DB {
	return r.db
}

func (r *repositoryImpl) GetMQ() MQClient {
	return r.mq
}

func (r *repositoryImpl) GetES() *elasticsearch.Client {
	return r.es
}

func (r *repositoryImpl) GetSolanaClient() *rpc.Client {
	return r.solanaClient
}

func (r *repositoryImpl) Close() error {
	if r.db != nil {
		if sqlDB, err := r.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if r.rdb != nil {
		r.rdb.Close()
	}
	if r.mq != nil {
		r.mq.Close()
	}
	if r.solanaClient != nil {
		r.solanaClient.Close()
	}
	return nil
}
