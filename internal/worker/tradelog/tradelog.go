package tradelog

import (
	"context"
	"sync"
	"time"
	"web3-copytrade/internal/worker/model"
	"web3-copytrade/internal/worker/monitor"
	"web3-copytrade/internal/worker/writer"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultHistoryLimit = 1000

// Mirror 异步镜像（数据库、kafka、redis、es），失败只记日志
type Mirror interface {
	ID() string
	Submit(rec model.TradeRecord) bool
	Close()
}

// Logger 跟单结果审计：内存历史 + 同步 JSONL 日志 + 异步镜像
// Record 永不返回错误，任何落盘失败都不影响跟单流程
type Logger struct {
	// journalMu 保证日志与内存历史顺序一致，mu 只保护 history
	journalMu sync.Mutex
	mu        sync.RWMutex
	history   []model.TradeRecord
	limit     int

	journal writer.BatchWriter[model.TradeRecord]
	mirrors []Mirror
	tl      *zap.Logger
	now     func() time.Time
}

// New limit 为 0 表示不限制内存历史条数
func New(journal writer.BatchWriter[model.TradeRecord], limit int, tl *zap.Logger, mirrors ...Mirror) *Logger {
	if limit < 0 {
		limit = DefaultHistoryLimit
	}
	return &Logger{
		limit:   limit,
		journal: journal,
		mirrors: mirrors,
		tl:      tl,
		now:     time.Now,
	}
}

// Record 追加记录，返回补全 id / 时间后的记录
func (l *Logger) Record(rec model.TradeRecord) model.TradeRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now()
	}

	l.journalMu.Lock()
	l.mu.Lock()
	l.history = append(l.history, rec)
	l.trimLocked()
	l.mu.Unlock()
	if l.journal != nil {
		if err := l.journal.BWrite(context.Background(), []model.TradeRecord{rec}); err != nil {
			monitor.TradeSinkErrors.WithLabelValues("journal").Inc()
			l.tl.Error("Append trade journal failed", zap.String("id", rec.ID), zap.Error(err))
		}
	}
	l.journalMu.Unlock()

	for _, m := range l.mirrors {
		if !m.Submit(rec) {
			l.tl.Warn("Trade mirror dropped record", zap.String("mirror", m.ID()), zap.String("id", rec.ID))
		}
	}

	l.tl.Info("Trade recorded",
		zap.String("id", rec.ID),
		zap.String("source_wallet", rec.SourceWallet),
		zap.String("source_tx", rec.SourceTxID),
		zap.String("status", string(rec.Status)),
		zap.String("reject_reason", string(rec.RejectReason)),
		zap.String("result_tx", rec.ResultTxID),
		zap.String("error", rec.Error),
	)
	return rec
}

func (l *Logger) trimLocked() {
	if l.limit > 0 && len(l.history) > l.limit {
		l.history = append(l.history[:0:0], l.history[len(l.history)-l.limit:]...)
	}
}

// History 最近 n 条，按写入顺序；n<=0 返回全部
func (l *Logger) History(n int) []model.TradeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	start := 0
	if n > 0 && n < len(l.history) {
		start = len(l.history) - n
	}
	out := make([]model.TradeRecord, len(l.history)-start)
	copy(out, l.history[start:])
	return out
}

func (l *Logger) Last() *model.TradeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.history) == 0 {
		return nil
	}
	rec := l.history[len(l.history)-1]
	return &rec
}

func (l *Logger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.history)
}

// Restore 重启后从日志恢复历史，恢复的记录排在已有记录之前，不再写日志和镜像
func (l *Logger) Restore(records []model.TradeRecord) {
	if len(records) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	// 启动后已写入日志的记录可能同时出现在 records 中
	known := make(map[string]struct{}, len(l.history))
	for _, rec := range l.history {
		known[rec.ID] = struct{}{}
	}
	merged := make([]model.TradeRecord, 0, len(records)+len(l.history))
	for _, rec := range records {
		if _, ok := known[rec.ID]; ok && rec.ID != "" {
			continue
		}
		merged = append(merged, rec)
	}
	merged = append(merged, l.history...)
	l.history = merged
	l.trimLocked()
}

// Close 先关闭镜像（等待剩余数据写完），再关闭日志
func (l *Logger) Close() {
	for _, m := range l.mirrors {
		m.Close()
	}
	l.journalMu.Lock()
	defer l.journalMu.Unlock()
	if l.journal != nil {
		if err := l.journal.Close(); err != nil {
			l.tl.Warn("Close trade journal failed", zap.Error(err))
		}
	}
}
