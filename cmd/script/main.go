package main

import (
	"context"
	"os"
	"time"
	"web3-copytrade/internal/worker/config"
	"web3-copytrade/internal/worker/dao"
	"web3-copytrade/internal/worker/job"
	"web3-copytrade/internal/worker/repository"
	"web3-copytrade/internal/worker/writer/trade"
	"web3-copytrade/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// 一次性任务：建表并把本地跟单日志导入 postgres

func main() {
	startTime := time.Now()
	_ = godotenv.Load()
	// 初始化配置文件
	cfg := config.InitConfig()

	// 初始化 trace provider
	logger.InitTrace("web3-copytrade", "backfill")
	// 启动主 span
	ctx, span := logger.StartSpan(context.Background(), "main", "main")
	defer span.End()

	// 创建 root logger 并注入 trace 上下文
	rootLogger := logger.NewLogger("backfill", logger.Options{Dir: cfg.Log.Dir})
	logger.SetLogLevel(cfg.Log.Level)
	tl := logger.WithTrace(ctx, rootLogger)

	// 初始化 repository
	repo, err := repository.New(cfg, tl)
	if err != nil {
		tl.Error("Failed to init repository", zap.Error(err))
		os.Exit(1)
	}
	defer repo.Close()

	db := repo.GetDB()
	if db == nil {
		tl.Error("Postgres is not configured, nothing to backfill")
		os.Exit(1)
	}
	if err := dao.AutoMigrate(db); err != nil {
		tl.Error("Failed to migrate schema", zap.Error(err))
		os.Exit(1)
	}

	tl.Info("Starting trade journal backfill...", zap.String("path", cfg.TradeLog.Path))
	backfill := job.NewJournalBackfill(cfg.TradeLog.Path, trade.NewDbTradeWriter(db, tl), tl)
	if err := backfill.Run(ctx); err != nil {
		tl.Error("Failed to run backfill", zap.Error(err))
		os.Exit(1)
	}
	tl.Info("Task completed successfully", zap.Duration("taken_time", time.Since(startTime)))
}
