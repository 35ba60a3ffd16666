package engine

import (
	"context"
	"time"
	"web3-copytrade/internal/worker/aggregator"
	"web3-copytrade/internal/worker/config"
	"web3-copytrade/internal/worker/dedup"
	"web3-copytrade/internal/worker/model"
)

type Feed interface {
	FetchRecentTransactions(ctx context.Context, address string) ([]model.RawTransaction, error)
}

type Detector interface {
	Detect(tx model.RawTransaction, wallet string) (*model.SwapCandidate, bool)
}

type Gate interface {
	Evaluate(c model.SwapCandidate, s model.BotSettings) model.TradeDecision
}

type Aggregator interface {
	Quote(ctx context.Context, req aggregator.QuoteRequest) (*aggregator.Quote, error)
	Execute(ctx context.Context, quote *aggregator.Quote, signer aggregator.Signer) (aggregator.ExecutionResult, error)
}

type Recorder interface {
	Record(rec model.TradeRecord) model.TradeRecord
}

type WalletSource interface {
	Addresses() []string
}

type SettingsSource interface {
	Load() model.BotSettings
}

// Deps 引擎协作方；Signer 为空时所有执行都会以签名错误失败
type Deps struct {
	Feed       Feed
	Detector   Detector
	Gate       Gate
	Aggregator Aggregator
	Signer     aggregator.Signer
	Recorder   Recorder
	Wallets    WalletSource
	Settings   SettingsSource
	Seen       dedup.Store
}

type Options struct {
	PollInterval       time.Duration
	WalletConcurrency  int
	FailureThreshold   int
	BackoffMultiplier  int
	SerializePerWallet bool
	MaxLookback        time.Duration // 0 表示不做启动前历史过滤
}

func OptionsFromConfig(cfg config.EngineConfig) Options {
	return Options{
		PollInterval:       cfg.PollInterval(),
		WalletConcurrency:  cfg.WalletConcurrency,
		FailureThreshold:   cfg.FailureThreshold,
		BackoffMultiplier:  cfg.BackoffMultiplier,
		SerializePerWallet: cfg.SerializePerWallet,
		MaxLookback:        time.Duration(cfg.MaxLookbackSec) * time.Second,
	}
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.WalletConcurrency <= 0 {
		o.WalletConcurrency = 8
	}
	if o.FailureThreshold <= 0 {
		o.FailureThreshold = 3
	}
	if o.BackoffMultiplier <= 0 {
		o.BackoffMultiplier = 5
	}
	return o
}
