package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"
	"web3-copytrade/internal/worker/aggregator"
	"web3-copytrade/internal/worker/model"
	"web3-copytrade/internal/worker/monitor"
	"web3-copytrade/pkg/helius"
	"web3-copytrade/pkg/logger"
	"web3-copytrade/pkg/utils"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	tracerName  = "copytrade/engine"
	walletLocks = 64
)

type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

// Engine 轮询跟踪钱包，识别 swap，经风控后延迟复制
type Engine struct {
	deps Deps
	opts Options
	tl   *zap.Logger

	mu  sync.Mutex
	run *runState

	// 按源钱包分桶串行执行
	locks [walletLocks]sync.Mutex
}

// runState 单次 Start 到 Stop 之间的运行状态
type runState struct {
	cancel    context.CancelFunc
	loopDone  chan struct{}
	execs     sync.WaitGroup
	startedAt time.Time
}

func New(deps Deps, opts Options, tl *zap.Logger) *Engine {
	return &Engine{
		deps: deps,
		opts: opts.withDefaults(),
		tl:   tl,
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return StateStopped
	}
	return StateRunning
}

// Start 已在运行时直接返回 false
func (e *Engine) Start() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run != nil {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	rs := &runState{
		cancel:    cancel,
		loopDone:  make(chan struct{}),
		startedAt: time.Now(),
	}
	e.run = rs
	go e.loop(ctx, rs)

	monitor.SetEngineRunning(true)
	e.tl.Info("Replication engine started",
		zap.Duration("poll_interval", e.opts.PollInterval),
		zap.Int("wallet_concurrency", e.opts.WalletConcurrency))
	return true
}

// Stop 停止轮询并等待进行中的跟单完成，ctx 到期时提前返回 ctx.Err()
// 已停止时直接返回 nil
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	rs := e.run
	e.run = nil
	e.mu.Unlock()
	if rs == nil {
		return nil
	}

	rs.cancel()
	monitor.SetEngineRunning(false)

	done := make(chan struct{})
	go func() {
		<-rs.loopDone
		rs.execs.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.tl.Info("Replication engine stopped")
		return nil
	case <-ctx.Done():
		e.tl.Warn("Replication engine stop timed out, executions still in flight", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

func (e *Engine) loop(ctx context.Context, rs *runState) {
	defer close(rs.loopDone)

	failures := 0
	for {
		ok := e.runCycle(ctx, rs)
		if ctx.Err() != nil {
			return
		}

		if ok {
			if failures >= e.opts.FailureThreshold {
				e.tl.Info("Polling recovered, backoff reset", zap.Int("failed_cycles", failures))
			}
			failures = 0
		} else {
			failures++
		}

		interval := e.opts.PollInterval
		if failures >= e.opts.FailureThreshold {
			interval *= time.Duration(e.opts.BackoffMultiplier)
			e.tl.Warn("Consecutive failed cycles, widening poll interval",
				zap.Int("failed_cycles", failures),
				zap.Duration("interval", interval))
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runCycle 一轮轮询；全部钱包失败或出现 panic 视为失败
func (e *Engine) runCycle(ctx context.Context, rs *runState) bool {
	ctx, span := logger.StartSpan(ctx, tracerName, "poll_cycle")
	defer span.End()
	start := time.Now()

	wallets := e.deps.Wallets.Addresses()
	settings := e.deps.Settings.Load()
	monitor.TrackedWallets.Set(float64(len(wallets)))
	if len(wallets) == 0 {
		return true
	}

	var failed atomic.Int32
	var panicked atomic.Bool
	p := pool.New().WithMaxGoroutines(e.opts.WalletConcurrency)
	for _, wallet := range wallets {
		if ctx.Err() != nil {
			break
		}
		p.Go(func() {
			var catcher panics.Catcher
			catcher.Try(func() {
				if err := e.checkWallet(ctx, rs, wallet, settings); err != nil {
					failed.Add(1)
					logger.WithTrace(ctx, e.tl).Warn("Check wallet failed", zap.String("wallet", wallet), zap.Error(err))
				}
			})
			if r := catcher.Recovered(); r != nil {
				panicked.Store(true)
				e.tl.Error("Check wallet panicked", zap.String("wallet", wallet), zap.Error(r.AsError()))
			}
		})
	}
	p.Wait()

	ok := !panicked.Load() && int(failed.Load()) < len(wallets)
	result := "success"
	if !ok {
		result = "failed"
		span.SetAttributes(attribute.Bool("failed", true))
	}
	monitor.CycleTotal.WithLabelValues(result).Inc()
	monitor.CycleDuration.Observe(time.Since(start).Seconds())
	return ok
}

func (e *Engine) checkWallet(ctx context.Context, rs *runState, wallet string, settings model.BotSettings) error {
	txs, err := e.deps.Feed.FetchRecentTransactions(ctx, wallet)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		monitor.FeedErrors.WithLabelValues(feedErrorKind(err)).Inc()
		return err
	}

	// 数据源按时间倒序返回，按发生顺序处理
	for _, tx := range slices.Backward(txs) {
		if ctx.Err() != nil {
			return nil
		}

		c, ok := e.deps.Detector.Detect(tx, wallet)
		if !ok || c.SourceTxID == "" {
			continue
		}
		first, err := e.deps.Seen.MarkIfAbsent(ctx, c.SourceTxID)
		if err != nil {
			return fmt.Errorf("mark seen %s: %w", c.SourceTxID, err)
		}
		if !first {
			continue
		}

		// 启动前已发生的交易只标记不跟
		if e.opts.MaxLookback > 0 && c.ObservedAt.Before(rs.startedAt.Add(-e.opts.MaxLookback)) {
			e.tl.Debug("Skip swap observed before start",
				zap.String("wallet", wallet),
				zap.String("signature", c.SourceTxID),
				zap.Time("observed_at", c.ObservedAt))
			continue
		}

		monitor.SwapsDetected.Inc()
		e.tl.Info("Swap detected",
			zap.String("wallet", wallet),
			zap.String("signature", c.SourceTxID),
			zap.String("input_mint", c.InputMint),
			zap.String("output_mint", c.OutputMint),
			zap.String("amount", c.Amount.String()))

		decision := e.deps.Gate.Evaluate(*c, settings)
		if !decision.Approved {
			monitor.Decisions.WithLabelValues(string(decision.RejectReason)).Inc()
			e.deps.Recorder.Record(model.NewRejectedRecord(decision, settings))
			continue
		}
		monitor.Decisions.WithLabelValues("approved").Inc()
		e.dispatch(rs, *c, settings)
	}
	return nil
}

// dispatch 执行不受 Stop 取消，Stop 会等待其完成
func (e *Engine) dispatch(rs *runState, c model.SwapCandidate, settings model.BotSettings) {
	rs.execs.Add(1)
	go func() {
		defer rs.execs.Done()
		if e.opts.SerializePerWallet {
			lock := &e.locks[utils.GetHashBucket(c.SourceWallet, walletLocks)]
			lock.Lock()
			defer lock.Unlock()
		}

		var catcher panics.Catcher
		catcher.Try(func() { e.execute(c, settings) })
		if r := catcher.Recovered(); r != nil {
			e.tl.Error("Trade execution panicked", zap.String("signature", c.SourceTxID), zap.Error(r.AsError()))
			rec := model.NewTradeRecord(c, settings, model.TradeFailed)
			rec.Error = r.AsError().Error()
			e.deps.Recorder.Record(rec)
			monitor.Executions.WithLabelValues(string(model.TradeFailed)).Inc()
		}
	}()
}

func (e *Engine) execute(c model.SwapCandidate, settings model.BotSettings) {
	ctx, span := logger.StartSpan(context.Background(), tracerName, "execute_trade",
		attribute.String("source_wallet", c.SourceWallet),
		attribute.String("source_tx", c.SourceTxID))
	defer span.End()
	start := time.Now()
	tl := logger.WithTrace(ctx, e.tl)

	if d := settings.Delay(); d > 0 {
		timer := time.NewTimer(d)
		<-timer.C
	}

	rec := model.NewTradeRecord(c, settings, model.TradeFailed)
	result, err := e.quoteAndExecute(ctx, c, settings)
	if err != nil {
		logger.RecordError(span, err)
		rec.Error = err.Error()
		tl.Warn("Copy trade failed", zap.String("signature", c.SourceTxID), zap.Error(err))
	} else {
		rec.Status = model.TradeSuccess
		rec.ResultTxID = result.TxID
		tl.Info("Copy trade submitted", zap.String("signature", c.SourceTxID), zap.String("result_tx", result.TxID))
	}
	rec.Timestamp = time.Now()
	e.deps.Recorder.Record(rec)

	monitor.Executions.WithLabelValues(string(rec.Status)).Inc()
	monitor.ExecutionDuration.Observe(time.Since(start).Seconds())
}

func (e *Engine) quoteAndExecute(ctx context.Context, c model.SwapCandidate, settings model.BotSettings) (aggregator.ExecutionResult, error) {
	quote, err := e.deps.Aggregator.Quote(ctx, aggregator.QuoteRequest{
		InputMint:   c.InputMint,
		OutputMint:  c.OutputMint,
		Amount:      c.Amount,
		Decimals:    c.InputDecimals,
		SlippageBps: settings.SlippageBps,
	})
	if err != nil {
		return aggregator.ExecutionResult{}, err
	}
	return e.deps.Aggregator.Execute(ctx, quote, e.deps.Signer)
}

func feedErrorKind(err error) string {
	var feedErr *helius.FeedError
	if errors.As(err, &feedErr) {
		return string(feedErr.Kind)
	}
	return "unknown"
}
