package job

import (
	"context"
	"slices"
	"web3-copytrade/internal/worker/model"
	"web3-copytrade/internal/worker/writer/trade"

	"go.uber.org/zap"
)

type HistoryRestorer interface {
	Restore(records []model.TradeRecord)
}

// RecentTrades 数据库中的最近记录，时间倒序
type RecentTrades interface {
	Recent(ctx context.Context, limit int) ([]model.TradeRecord, error)
}

// SeenMarker 已处理交易集合，恢复的记录需预先标记
type SeenMarker interface {
	MarkIfAbsent(ctx context.Context, txID string) (bool, error)
}

// HistoryLoad 启动时从 trade_history.jsonl 恢复最近的跟单记录
// 本地日志为空（如换机部署）时从数据库恢复
type HistoryLoad struct {
	path     string
	limit    int
	target   HistoryRestorer
	fallback RecentTrades
	seen     SeenMarker
	tl       *zap.Logger
}

func NewHistoryLoad(path string, limit int, target HistoryRestorer, fallback RecentTrades, seen SeenMarker, logger *zap.Logger) *HistoryLoad {
	return &HistoryLoad{
		path:     path,
		limit:    limit,
		target:   target,
		fallback: fallback,
		seen:     seen,
		tl:       logger,
	}
}

func (j *HistoryLoad) Run(ctx context.Context) error {
	var records []model.TradeRecord
	source := j.path
	if j.path != "" {
		var err error
		records, err = trade.ReadJournal(j.path, j.limit, j.tl)
		if err != nil {
			return err
		}
	}

	if len(records) == 0 && j.fallback != nil {
		recent, err := j.fallback.Recent(ctx, j.limit)
		if err != nil {
			return err
		}
		slices.Reverse(recent)
		records = recent
		source = "postgres"
	}
	j.target.Restore(records)

	marked := 0
	if j.seen != nil {
		for _, r := range records {
			if r.SourceTxID == "" {
				continue
			}
			first, err := j.seen.MarkIfAbsent(ctx, r.SourceTxID)
			if err != nil {
				return err
			}
			if first {
				marked++
			}
		}
	}

	j.tl.Info("Trade history restored",
		zap.String("source", source),
		zap.Int("records", len(records)),
		zap.Int("seen_marked", marked))
	return nil
}
