package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"web3-copytrade/internal/worker/aggregator"
	"web3-copytrade/internal/worker/config"
	"web3-copytrade/internal/worker/controller"
	"web3-copytrade/internal/worker/dao"
	"web3-copytrade/internal/worker/dedup"
	"web3-copytrade/internal/worker/detector"
	"web3-copytrade/internal/worker/engine"
	"web3-copytrade/internal/worker/job"
	"web3-copytrade/internal/worker/model"
	"web3-copytrade/internal/worker/monitor"
	"web3-copytrade/internal/worker/repository"
	"web3-copytrade/internal/worker/risk"
	"web3-copytrade/internal/worker/settings"
	"web3-copytrade/internal/worker/tradelog"
	"web3-copytrade/internal/worker/wallet"
	"web3-copytrade/internal/worker/writer"
	"web3-copytrade/internal/worker/writer/trade"
	"web3-copytrade/pkg/helius"
	"web3-copytrade/pkg/jupiter"
	"web3-copytrade/pkg/solana_client"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	mirrorBatchSize     = 50
	mirrorFlushInterval = time.Second
)

type Core struct {
	cfg        config.Config
	tl         *zap.Logger
	repo       repository.Repository
	scheduler  *job.Scheduler
	trades     *tradelog.Logger
	mirrors    []*writer.AsyncBatchWriter[model.TradeRecord]
	engine     *engine.Engine
	controller *controller.Controller
	metrics    *monitor.MetricsServer
}

func New(cfg config.Config, logger *zap.Logger) (*Core, error) {
	// 初始化repo
	repo, err := repository.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	core := &Core{
		cfg:       cfg,
		repo:      repo,
		tl:        logger,
		scheduler: job.NewScheduler(logger),
	}
	if err := core.init(); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return core, nil
}

func (c *Core) init() error {
	cfg := c.cfg
	rpcClient := c.repo.GetSolanaClient()

	var daos *dao.DAOManager
	if db := c.repo.GetDB(); db != nil {
		if err := dao.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
		daos = dao.NewDAOManager(db)
	}

	// 未配置私钥时仍可运行，所有跟单记为签名失败
	var signer aggregator.Signer
	var operator string
	if cfg.Solana.PrivateKey != "" {
		key, err := solana_client.LoadPrivateKey(cfg.Solana.PrivateKey)
		if err != nil {
			return err
		}
		s := solana_client.NewSigner(key, rpcClient, cfg.Solana.SkipPreflight)
		signer = s
		operator = s.PublicKey()
	} else {
		c.tl.Warn("No wallet private key configured, copy trades will fail at signing")
	}

	if err := c.initTradeLog(daos); err != nil {
		return err
	}

	var seen dedup.Store
	switch {
	case cfg.Engine.DedupBackend == "redis" && c.repo.GetRDB() != nil:
		seen = dedup.NewRedisStore(c.repo.GetRDB(), time.Duration(cfg.Engine.DedupTTLSec)*time.Second)
	default:
		if cfg.Engine.DedupBackend == "redis" {
			c.tl.Warn("Redis dedup requested but redis is not configured, using memory")
		}
		seen = dedup.NewMemoryStore(cfg.Engine.SeenCapacity)
	}

	wallets := wallet.NewRegistry()
	store := settings.NewStore(model.NewBotSettings(
		cfg.Bot.MaxAmount(),
		cfg.Bot.SlippageBps,
		cfg.Bot.DelayMs,
		cfg.Bot.BlacklistedTokens,
	))

	c.engine = engine.New(engine.Deps{
		Feed:     helius.NewClient(cfg.Helius, c.tl),
		Detector: detector.New(cfg.Swap.ProgramIDs),
		Gate:     risk.NewGate(cfg.Bot.MaxSlippageBps),
		Aggregator: aggregator.New(
			jupiter.NewClient(cfg.Jupiter, c.tl),
			solana_client.NewMintDecimals(rpcClient),
			cfg.Jupiter.QuoteMaxAge(),
			cfg.Jupiter.ExecuteTimeout(),
			c.tl,
		),
		Signer:   signer,
		Recorder: c.trades,
		Wallets:  wallets,
		Settings: store,
		Seen:     seen,
	}, engine.OptionsFromConfig(cfg.Engine), c.tl)

	c.controller = controller.New(c.engine, wallets, store, c.trades, daos, c.tl)
	if err := c.controller.Restore(context.Background()); err != nil {
		return err
	}
	for _, addr := range cfg.Bot.TrackedWallets {
		_, err := c.controller.AddWallet(context.Background(), model.TrackedWallet{Address: addr})
		if err != nil && !errors.Is(err, controller.ErrAlreadyTracked) {
			c.tl.Warn("Skip configured wallet", zap.String("address", addr), zap.Error(err))
		}
	}

	// 加载历史记录，须在引擎启动前完成并写入去重集合
	var recent job.RecentTrades
	if daos != nil {
		recent = daos.TradeDAO
	}
	historyLoad := job.NewHistoryLoad(cfg.TradeLog.Path, cfg.TradeLog.HistoryLimit, c.trades, recent, seen, c.tl)
	if err := historyLoad.Run(context.Background()); err != nil {
		c.tl.Warn("Failed to restore trade history", zap.Error(err))
	}

	// 注册定时清理任务 - 每小时执行一次
	if daos != nil {
		tradeCleanup := job.NewTradeCleanup(daos.TradeDAO, cfg.TradeLog.RetentionDays, c.tl)
		c.scheduler.RegisterJob("trade_cleanup", time.Hour, tradeCleanup.Run)
	}

	if operator != "" && cfg.Solana.BalanceCheckSec > 0 {
		balanceCheck := job.NewBalanceCheck(rpcClient, operator, decimal.NewFromFloat(cfg.Solana.MinBalanceSol), c.tl)
		c.scheduler.RegisterJob("balance_check", time.Duration(cfg.Solana.BalanceCheckSec)*time.Second, balanceCheck.Run)
	}

	c.metrics = monitor.NewMetricsServer(cfg.Monitor, func() interface{} { return c.controller.Status() }, c.tl)
	return nil
}

// initTradeLog 本地日志必选，其余存储按配置异步镜像
func (c *Core) initTradeLog(daos *dao.DAOManager) error {
	cfg := c.cfg
	journal, err := trade.NewFileTradeWriter(cfg.TradeLog.Path, cfg.TradeLog.MaxSizeMB, cfg.TradeLog.RetentionDays, c.tl)
	if err != nil {
		return fmt.Errorf("open trade journal: %w", err)
	}

	var sinks []writer.BatchWriter[model.TradeRecord]
	var ids []string
	if daos != nil {
		sinks = append(sinks, trade.NewDbTradeWriter(c.repo.GetDB(), c.tl))
		ids = append(ids, "trade_db")
	}
	if mq := c.repo.GetMQ(); mq != nil {
		sinks = append(sinks, trade.NewKafkaTradeWriter(mq, c.tl, cfg.Kafka.TopicTrade))
		ids = append(ids, "trade_kafka")
	}
	if rdb := c.repo.GetRDB(); rdb != nil {
		sinks = append(sinks, trade.NewRedisTradeWriter(rdb, c.tl))
		ids = append(ids, "trade_redis")
	}
	if es := c.repo.GetES(); es != nil {
		sinks = append(sinks, trade.NewESTradeWriter(es, c.tl, cfg.Elasticsearch.TradesIndexName))
		ids = append(ids, "trade_es")
	}

	mirrors := make([]tradelog.Mirror, 0, len(sinks))
	for i, sink := range sinks {
		m := writer.NewAsyncBatchWriter[model.TradeRecord](c.tl, sink, mirrorBatchSize, mirrorFlushInterval, ids[i], 1)
		c.mirrors = append(c.mirrors, m)
		mirrors = append(mirrors, m)
	}

	c.trades = tradelog.New(journal, cfg.TradeLog.HistoryLimit, c.tl, mirrors...)
	return nil
}

func (c *Core) Controller() *controller.Controller {
	return c.controller
}

func (c *Core) Start(ctx context.Context) {
	c.tl.Info("Starting worker core...")
	// 启动监控服务
	if c.metrics != nil {
		c.metrics.Run()
	}

	// 镜像写入独立于 ctx，Stop 时通过 Close 写完剩余数据
	for _, m := range c.mirrors {
		m.Start(context.Background())
	}

	// 启动调度器
	c.scheduler.Start(ctx)

	if c.cfg.Bot.AutoStart {
		c.controller.Start(ctx)
	}
	c.tl.Info("Worker started successfully",
		zap.Int("tracked_wallets", len(c.controller.Wallets())),
		zap.Bool("engine_running", c.controller.Status().Running))
}

// Stop 优雅关闭 Core 的所有资源
func (c *Core) Stop(ctx context.Context) {
	c.tl.Info("Stopping worker core...")

	// 先停引擎，等待进行中的跟单写完记录
	if err := c.controller.Stop(ctx); err != nil {
		c.tl.Warn("Engine did not quiesce before deadline", zap.Error(err))
	}

	// 停止调度器
	c.scheduler.Stop(ctx)

	// 关闭镜像与本地日志
	c.trades.Close()

	// 停止 Prometheus 监控服务
	if c.metrics != nil {
		_ = c.metrics.Stop(ctx)
	}

	if err := c.repo.Close(); err != nil {
		c.tl.Warn("Close repository failed", zap.Error(err))
	}

	c.tl.Info("Worker core stopped.")
}
