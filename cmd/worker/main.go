package main

import (
	"context"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"
	"web3-copytrade/internal/worker"
	"web3-copytrade/internal/worker/config"
	"web3-copytrade/internal/worker/controller"
	"web3-copytrade/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const shutdownTimeout = 90 * time.Second

func main() {
	// .env 可选
	_ = godotenv.Load()

	// 初始化配置文件
	cfg := config.InitConfig()

	// 初始化 trace provider
	logger.InitTrace("web3-copytrade", "worker")
	// 启动主 span
	ctx, span := logger.StartSpan(context.Background(), "main", "main")
	defer span.End()

	// 创建 root logger 并注入 trace 上下文
	rootLogger := logger.NewLogger("worker", logger.Options{Dir: cfg.Log.Dir})
	logger.SetLogLevel(cfg.Log.Level)
	tl := logger.WithTrace(ctx, rootLogger)

	// 初始化worker
	core, err := worker.New(cfg, tl)
	if err != nil {
		tl.Fatal("Init worker failed", zap.Error(err))
	}

	// 启动配置热加载监听，只更新日志级别和风控参数
	go config.WatchConfig(func(next config.Config) {
		logger.SetLogLevel(next.Log.Level)
		if _, err := core.Controller().UpdateSettings(context.Background(), controller.UpdateFromConfig(next.Bot)); err != nil {
			tl.Warn("Reject reloaded bot settings", zap.Error(err))
		}
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tl.Info("Starting web3-copytrade worker...")
	core.Start(ctx)

	// 监听操作系统信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	tl.Info("Received shutdown signal, starting graceful shutdown...")
	cancel()

	// 关闭资源，等待进行中的跟单完成
	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	core.Stop(stopCtx)

	tl.Info("Shutting down all cores...")
}
