package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// EngineRunning 跟单引擎状态
	EngineRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "copytrade_engine_running",
			Help: "1 when the replication engine is running.",
		},
	)
	TrackedWallets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "copytrade_tracked_wallets",
			Help: "Number of tracked source wallets.",
		},
	)
	CycleTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrade_cycle_total",
			Help: "Polling cycles by result.",
		},
		[]string{"result"},
	)
	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "copytrade_cycle_duration_seconds",
			Help:    "Time taken by one polling cycle.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
	)
	FeedErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrade_feed_errors_total",
			Help: "Transaction feed errors by kind.",
		},
		[]string{"kind"},
	)
	SwapsDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "copytrade_swaps_detected_total",
			Help: "New swaps detected on tracked wallets.",
		},
	)
	Decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrade_decisions_total",
			Help: "Risk gate decisions by outcome.",
		},
		[]string{"outcome"},
	)
	Executions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrade_executions_total",
			Help: "Trade executions by status.",
		},
		[]string{"status"},
	)
	ExecutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "copytrade_execution_duration_seconds",
			Help:    "Time from dispatch to recorded result, delay included.",
			Buckets: []float64{0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		},
	)
	AggregatorCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrade_aggregator_calls_total",
			Help: "Aggregator calls by operation and result.",
		},
		[]string{"op", "result"},
	)
	AggregatorLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "copytrade_aggregator_latency_seconds",
			Help:    "Aggregator call latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"op"},
	)
	OperatorBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "copytrade_operator_balance_sol",
			Help: "SOL balance of the operator wallet.",
		},
	)
	TradeSinkErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrade_trade_sink_errors_total",
			Help: "Trade record persistence failures by sink.",
		},
		[]string{"sink"},
	)

	// AsyncWriterMessagesQueued AsyncWriter 指标
	AsyncWriterMessagesQueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "async_writer_messages_queued_total",
			Help: "Total number of messages queued to async writer.",
		},
		[]string{"writer_id"},
	)
	AsyncWriterMessagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "async_writer_messages_dropped_total",
			Help: "Total number of messages dropped due to full queue.",
		},
		[]string{"writer_id"},
	)
	AsyncWriterBatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "async_writer_batch_size",
			Help:    "Number of items in each batch submitted to the writer.",
			Buckets: []float64{1, 5, 10, 50, 100, 500},
		},
		[]string{"writer_id"},
	)
	AsyncWriterFlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "async_writer_flush_duration_seconds",
			Help:    "Time taken to flush a batch.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"writer_id"},
	)
	AsyncWriterItemsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "async_writer_items_written_total",
			Help: "Total number of items successfully written by the async writer.",
		},
		[]string{"writer_id"},
	)
)

func init() {
	prometheus.MustRegister(
		// 跟单指标
		EngineRunning,
		TrackedWallets,
		CycleTotal,
		CycleDuration,
		FeedErrors,
		SwapsDetected,
		Decisions,
		Executions,
		ExecutionDuration,
		AggregatorCalls,
		AggregatorLatency,
		OperatorBalance,
		TradeSinkErrors,

		// async 写入指标
		AsyncWriterMessagesQueued,
		AsyncWriterMessagesDropped,
		AsyncWriterBatchSize,
		AsyncWriterFlushDuration,
		AsyncWriterItemsWritten,
	)
}

func ObserveAggregatorCall(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	AggregatorCalls.WithLabelValues(op, result).Inc()
	AggregatorLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func SetEngineRunning(running bool) {
	if running {
		EngineRunning.Set(1)
		return
	}
	EngineRunning.Set(0)
}
